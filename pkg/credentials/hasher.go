package credentials

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// ErrNoPassword reports that no password hash is stored for the subject.
// Callers must treat it as "password authentication impossible", not as a
// failed verification.
var ErrNoPassword = errors.New("no password set")

// HashPassword hashes a plaintext password with bcrypt. The salt is random,
// so hashing the same password twice yields different outputs.
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

// VerifyPassword compares a plaintext password with a stored hash in
// constant time. A malformed hash verifies as false rather than erroring;
// a nil or empty hash returns ErrNoPassword.
func VerifyPassword(password string, hash *string) (bool, error) {
	if hash == nil || *hash == "" {
		return false, ErrNoPassword
	}
	return bcrypt.CompareHashAndPassword([]byte(*hash), []byte(password)) == nil, nil
}
