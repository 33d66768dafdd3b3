package store

import (
	"errors"

	"github.com/gatehouse/gatehouse/pkg/model"
)

var (
	// ErrNotFound indicates no user matched the lookup.
	ErrNotFound = errors.New("user not found")
	// ErrDuplicateEmail indicates an insert collided with an existing
	// user's email.
	ErrDuplicateEmail = errors.New("a user with this email already exists")
)

// UserStore abstracts user storage operations
type UserStore interface {
	// FindByID retrieves a user by id
	FindByID(id string) (*model.User, error)

	// FindByEmail retrieves a user by lowercased email
	FindByEmail(email string) (*model.User, error)

	// FindByAPIKey retrieves a user by their API key
	FindByAPIKey(apiKey string) (*model.User, error)

	// Insert persists a new user
	Insert(user *model.User) error

	// List returns all users ordered by creation time
	List() ([]model.User, error)

	// Count returns the number of users
	Count() (int64, error)

	// UpdateProfile sets the user's display name
	UpdateProfile(id, name string) error

	// UpdateRole sets the user's role
	UpdateRole(id string, role model.Role) error

	// UpdatePassword replaces the user's password hash
	UpdatePassword(id, passwordHash string) error

	// SetAPIKey sets or clears the user's API key
	SetAPIKey(id string, apiKey *string) error

	// SetExternalSubject backfills the provider subject on a user
	SetExternalSubject(id, subject string) error

	// TouchLastActive records activity for the user
	TouchLastActive(id string) error

	// Delete removes the user
	Delete(id string) error
}
