package models

import (
	"time"
)

// User types.
const (
	UserTypeManager  = "manager"
	UserTypeCustomer = "customer"
)

// UserProfile is a person able to authenticate, addressed by phone number.
type UserProfile struct {
	BaseModel
	PhoneNumber  string     `gorm:"uniqueIndex;size:16;not null" json:"phone_number"`
	FullName     string     `json:"full_name"`
	Type         string     `gorm:"size:16;default:customer" json:"type"`
	IsActive     bool       `json:"is_active"`
	TelegramID   *int64     `gorm:"uniqueIndex" json:"telegram_id"`
	AuthToken    *string    `json:"-"`
	TokenExpiry  *time.Time `json:"token_expiry"`
	PasswordHash string     `json:"-"`
}

// TableName keeps the table name stable across struct renames.
func (UserProfile) TableName() string {
	return "user_profiles"
}

// IsManager reports whether the profile belongs to eatery staff.
func (u *UserProfile) IsManager() bool {
	return u.Type == UserTypeManager
}

// HasValidToken reports whether a token is on file and its expiry lies after now.
func (u *UserProfile) HasValidToken(now time.Time) bool {
	if u.AuthToken == nil || *u.AuthToken == "" || u.TokenExpiry == nil {
		return false
	}
	return now.Before(*u.TokenExpiry)
}

// SetToken stores a freshly issued token together with its expiry.
func (u *UserProfile) SetToken(token string, expiry time.Time) {
	u.AuthToken = &token
	u.TokenExpiry = &expiry
}
