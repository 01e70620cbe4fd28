package models

import (
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// User is the identity record the engagement core references by ID only.
type User struct {
	ID          string `json:"id" gorm:"primaryKey;type:varchar(128)"`
	DisplayName string `json:"display_name"`
	AvatarURL   string `json:"avatar_url,omitempty"`
}

// UserRecord is the users table row backing the postgres identity source.
type UserRecord struct {
	User
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (UserRecord) TableName() string { return "users" }

// JwtCustomClaims are custom claims extending standard jwt.RegisteredClaims
type JwtCustomClaims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}
