package gorm

import (
	"time"

	la "github.com/rkrish/linkauth"
)

// UserModel is the GORM model for users.
type UserModel struct {
	ID        string    `gorm:"primaryKey;size:64"`
	Name      string    `gorm:"size:255"`
	Username  string    `gorm:"size:64;uniqueIndex"`
	Email     string    `gorm:"size:255;uniqueIndex"`
	AvatarURL string    `gorm:"size:512"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (UserModel) TableName() string {
	return "users"
}

func (m *UserModel) ToUser() *la.User {
	return &la.User{
		ID:        m.ID,
		Name:      m.Name,
		Username:  m.Username,
		Email:     m.Email,
		AvatarURL: m.AvatarURL,
	}
}

// AuthMethodModel is the GORM model for auth methods. The composite unique
// index on (provider, provider_email_id) is the invariant the resolver
// relies on.
type AuthMethodModel struct {
	ID              string    `gorm:"primaryKey;size:64"`
	UserID          string    `gorm:"size:64;index"`
	Provider        string    `gorm:"size:16;uniqueIndex:idx_provider_email"`
	ProviderEmailID string    `gorm:"size:255;uniqueIndex:idx_provider_email"`
	HashedPassword  *string   `gorm:"size:255"`
	CreatedAt       time.Time `gorm:"autoCreateTime"`
}

func (AuthMethodModel) TableName() string {
	return "auth_methods"
}

func (m *AuthMethodModel) ToAuthMethod() *la.AuthMethod {
	return &la.AuthMethod{
		ID:              m.ID,
		UserID:          m.UserID,
		Provider:        la.Provider(m.Provider),
		ProviderEmailID: m.ProviderEmailID,
		HashedPassword:  m.HashedPassword,
	}
}
