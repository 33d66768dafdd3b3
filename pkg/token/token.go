// Package token signs and verifies the compact session tokens issued to
// authenticated users.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Typed verification failures. Verify never panics and never returns a
// library error directly; every failure maps to one of these.
var (
	// ErrMalformed indicates the token is not a session token at all, or
	// is structurally broken.
	ErrMalformed = errors.New("malformed session token")
	// ErrSignature indicates a well-formed token signed with a different
	// secret.
	ErrSignature = errors.New("invalid session token signature")
	// ErrExpired indicates a well-signed token whose expiry has passed.
	ErrExpired = errors.New("session token expired")
)

// Codec issues and verifies session tokens using a process-wide symmetric
// secret. The signing algorithm is fixed to HS256 for the lifetime of a
// deployment; rotating the secret invalidates all outstanding tokens.
type Codec struct {
	secret []byte
}

// NewCodec creates a Codec from the session secret.
func NewCodec(secret []byte) (*Codec, error) {
	if len(secret) == 0 {
		return nil, errors.New("session secret is required")
	}
	return &Codec{secret: secret}, nil
}

// Issue creates a signed token for the subject. A ttl of zero or less
// produces a token that never expires.
func (c *Codec) Issue(subject string, ttl time.Duration) (string, error) {
	if subject == "" {
		return "", errors.New("subject is required")
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"id":  subject,
		"iat": jwt.NewNumericDate(now),
	}
	if ttl > 0 {
		claims["exp"] = jwt.NewNumericDate(now.Add(ttl))
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
}

// Verify checks the token's signature and expiry and returns the subject it
// was issued for. Tokens without an exp claim never expire.
func (c *Codec) Verify(raw string) (string, error) {
	parsed, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return c.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))

	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return "", ErrExpired
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return "", ErrSignature
		default:
			return "", ErrMalformed
		}
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return "", ErrMalformed
	}
	subject, _ := claims["id"].(string)
	if subject == "" {
		return "", ErrMalformed
	}
	return subject, nil
}
