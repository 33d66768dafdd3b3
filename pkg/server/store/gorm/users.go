package gorm

import (
	"errors"
	"time"

	"github.com/jackc/pgconn"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/gatehouse/gatehouse/pkg/model"
	"github.com/gatehouse/gatehouse/pkg/server/store"
)

// Ensure UserStore implements store.UserStore
var _ store.UserStore = (*UserStore)(nil)

// UserStore implements store.UserStore using GORM
type UserStore struct {
	db *gorm.DB
}

// NewUserStore creates a new UserStore
func NewUserStore(db *gorm.DB) *UserStore {
	return &UserStore{db: db}
}

// FindByID retrieves a user by id
func (s *UserStore) FindByID(id string) (*model.User, error) {
	return s.findOne(`id = ?`, id)
}

// FindByEmail retrieves a user by lowercased email
func (s *UserStore) FindByEmail(email string) (*model.User, error) {
	return s.findOne(`email = ?`, email)
}

// FindByAPIKey retrieves a user by their API key
func (s *UserStore) FindByAPIKey(apiKey string) (*model.User, error) {
	return s.findOne(`api_key = ?`, apiKey)
}

func (s *UserStore) findOne(query string, args ...interface{}) (*model.User, error) {
	var user model.User
	err := s.db.Where(query, args...).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Insert persists a new user
func (s *UserStore) Insert(user *model.User) error {
	err := s.db.Create(user).Error
	if isUniqueViolation(err) {
		return store.ErrDuplicateEmail
	}
	return err
}

// List returns all users ordered by creation time
func (s *UserStore) List() ([]model.User, error) {
	var users []model.User
	err := s.db.Order("created_at").Find(&users).Error
	return users, err
}

// Count returns the number of users
func (s *UserStore) Count() (int64, error) {
	var count int64
	err := s.db.Model(&model.User{}).Count(&count).Error
	return count, err
}

// UpdateProfile sets the user's display name
func (s *UserStore) UpdateProfile(id, name string) error {
	return s.update(id, map[string]interface{}{"name": name})
}

// UpdateRole sets the user's role
func (s *UserStore) UpdateRole(id string, role model.Role) error {
	return s.update(id, map[string]interface{}{"role": role})
}

// UpdatePassword replaces the user's password hash
func (s *UserStore) UpdatePassword(id, passwordHash string) error {
	return s.update(id, map[string]interface{}{"password_hash": passwordHash})
}

// SetAPIKey sets or clears the user's API key
func (s *UserStore) SetAPIKey(id string, apiKey *string) error {
	return s.update(id, map[string]interface{}{"api_key": apiKey})
}

// SetExternalSubject backfills the provider subject on a user
func (s *UserStore) SetExternalSubject(id, subject string) error {
	return s.update(id, map[string]interface{}{"oauth_sub": subject})
}

// TouchLastActive records activity for the user
func (s *UserStore) TouchLastActive(id string) error {
	return s.update(id, map[string]interface{}{"last_active_at": time.Now()})
}

func (s *UserStore) update(id string, fields map[string]interface{}) error {
	result := s.db.Model(&model.User{}).Where(`id = ?`, id).Updates(fields)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

// Delete removes the user
func (s *UserStore) Delete(id string) error {
	result := s.db.Where(`id = ?`, id).Delete(&model.User{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

// isUniqueViolation recognizes a Postgres unique_violation from either
// driver in use.
func isUniqueViolation(err error) bool {
	var pgconnErr *pgconn.PgError
	if errors.As(err, &pgconnErr) {
		return pgconnErr.Code == "23505"
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return false
}
