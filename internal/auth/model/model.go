package model

import (
	"time"
)

// OAuthProvider is the closed set of external identity providers a user may
// link. The values match the `provider` enum in the database.
type OAuthProvider string

const (
	ProviderGoogle   OAuthProvider = "google"
	ProviderGithub   OAuthProvider = "github"
	ProviderFacebook OAuthProvider = "facebook"
)

func (p OAuthProvider) Valid() bool {
	switch p {
	case ProviderGoogle, ProviderGithub, ProviderFacebook:
		return true
	}
	return false
}

// OAuthAction reports how a reconciliation call resolved.
type OAuthAction string

const (
	ActionNewUser             OAuthAction = "new_user"
	ActionExistingUser        OAuthAction = "existing_user"
	ActionExistingNewProvider OAuthAction = "existing_user_new_provider"
)

type User struct {
	ID              string `gorm:"primaryKey"`
	Name            string
	Email           string `gorm:"uniqueIndex"`
	Avatar          *string
	PasswordHash    *string `gorm:"column:password"`
	EmailVerifiedAt *time.Time
	LastActivity    time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (User) TableName() string { return "users" }

// HasPassword reports whether the account can authenticate with credentials
// at all. OAuth-only accounts carry no hash.
func (u User) HasPassword() bool {
	return u.PasswordHash != nil && *u.PasswordHash != ""
}

// Public strips everything a client is never allowed to see, in particular
// the password hash.
func (u User) Public() PublicUser {
	return PublicUser{
		ID:     u.ID,
		Name:   u.Name,
		Email:  u.Email,
		Avatar: u.Avatar,
	}
}

// PublicUser is the sanitized projection returned by login, /me, refresh and
// OAuth reconciliation.
type PublicUser struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Email  string  `json:"email"`
	Avatar *string `json:"avatar,omitempty"`
}

type OAuthLink struct {
	UserID         string        `gorm:"column:user_id"`
	Provider       OAuthProvider `gorm:"column:provider"`
	ProviderUserID string        `gorm:"column:provider_user_id"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (OAuthLink) TableName() string { return "users_oauth" }

// TokenPair is one access/refresh issuance.
type TokenPair struct {
	AccessToken  string
	AccessExp    time.Time
	RefreshToken string
	RefreshExp   time.Time
}
