package model

import "time"

// User is a locally stored identity. Users provisioned from an external
// provider or a directory carry no password hash; callers must treat a nil
// PasswordHash as "password authentication impossible", not "wrong password".
type User struct {
	ID           string    `gorm:"column:id;primaryKey"`
	Email        string    `gorm:"column:email"`
	Name         string    `gorm:"column:name"`
	Role         Role      `gorm:"column:role"`
	PasswordHash *string   `gorm:"column:password_hash"`
	APIKey       *string   `gorm:"column:api_key"`
	OAuthSub     *string   `gorm:"column:oauth_sub"`
	LastActiveAt time.Time `gorm:"column:last_active_at"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (User) TableName() string {
	return "users"
}
