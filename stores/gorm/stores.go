// Package gorm implements the linkauth.UserStore interface on a relational
// database through GORM. The compound create runs in a single transaction
// so a user without a login method cannot exist, and concurrent
// registrations for the same email are serialized by the unique indexes.
package gorm

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	la "github.com/rkrish/linkauth"
)

// AutoMigrate runs database migrations for all linkauth tables.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&UserModel{},
		&AuthMethodModel{},
	)
}

// Store implements la.UserStore using GORM. Open the *gorm.DB with
// TranslateError enabled so constraint violations surface as
// gorm.ErrDuplicatedKey.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) GetUserByID(ctx context.Context, userID string) (*la.User, error) {
	var model UserModel
	if err := s.db.WithContext(ctx).First(&model, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("user %s: %w", userID, la.ErrNotFound)
		}
		return nil, err
	}
	return model.ToUser(), nil
}

func (s *Store) FindAuthMethod(ctx context.Context, email string, provider la.Provider) (*la.AuthMethod, error) {
	var model AuthMethodModel
	err := s.db.WithContext(ctx).
		First(&model, "provider_email_id = ? AND provider = ?", email, provider.String()).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("auth method (%s, %s): %w", email, provider, la.ErrNotFound)
		}
		return nil, err
	}
	return model.ToAuthMethod(), nil
}

func (s *Store) CreateGoogleAuthMethod(ctx context.Context, userID, email string) (*la.AuthMethod, error) {
	model := &AuthMethodModel{
		ID:              uuid.NewString(),
		UserID:          userID,
		Provider:        la.ProviderGoogle.String(),
		ProviderEmailID: email,
	}
	if err := s.db.WithContext(ctx).Create(model).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("auth method (%s, GOOGLE): %w", email, la.ErrDuplicate)
		}
		return nil, err
	}
	return model.ToAuthMethod(), nil
}

func (s *Store) CreateUserWithAuthMethod(ctx context.Context, params la.NewUserParams) (*la.User, error) {
	if !params.Provider.Valid() {
		return nil, fmt.Errorf("invalid provider %q", params.Provider)
	}

	userModel := &UserModel{
		ID:        uuid.NewString(),
		Name:      params.Name,
		Username:  params.Username,
		Email:     params.Email,
		AvatarURL: params.AvatarURL,
	}
	methodModel := &AuthMethodModel{
		ID:              uuid.NewString(),
		UserID:          userModel.ID,
		Provider:        params.Provider.String(),
		ProviderEmailID: params.Email,
		HashedPassword:  params.HashedPassword,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(userModel).Error; err != nil {
			return err
		}
		if err := tx.Create(methodModel).Error; err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("user %s: %w", params.Email, la.ErrDuplicate)
		}
		return nil, err
	}

	return userModel.ToUser(), nil
}
