package linkauth

import "context"

// Provider is an authentication channel.
type Provider string

const (
	ProviderLocal  Provider = "LOCAL"
	ProviderGoogle Provider = "GOOGLE"
)

func (p Provider) String() string { return string(p) }

// Valid returns true if the provider is a known value.
func (p Provider) Valid() bool {
	return p == ProviderLocal || p == ProviderGoogle
}

// User is a provider-independent account.
type User struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	AvatarURL string `json:"avatarUrl,omitempty"`
}

// AuthMethod binds one provider's credential to one user.
//
// ProviderEmailID is the email address as known to that provider. It is the
// lookup key and is kept separate from User.Email so the two can diverge
// later without a migration.
type AuthMethod struct {
	ID              string
	UserID          string
	Provider        Provider
	ProviderEmailID string

	// HashedPassword is set iff Provider is LOCAL.
	HashedPassword *string
}

// NewUserParams describes the compound create of a user together with its
// first auth method.
type NewUserParams struct {
	Name           string
	Username       string
	Email          string
	Provider       Provider
	AvatarURL      string
	HashedPassword *string
}

// UserStore is the persistence boundary of the auth core.
//
// Lookups return ErrNotFound (possibly wrapped) when no row matches; any
// other error is an infrastructure failure. Creates return ErrDuplicate when
// a uniqueness constraint is violated.
type UserStore interface {
	// GetUserByID retrieves a user by its ID.
	GetUserByID(ctx context.Context, userID string) (*User, error)

	// FindAuthMethod looks up an auth method by (providerEmailID, provider).
	// This pair is unique by construction.
	FindAuthMethod(ctx context.Context, email string, provider Provider) (*AuthMethod, error)

	// CreateGoogleAuthMethod attaches a GOOGLE auth method to an existing
	// user. Used by the link flow.
	CreateGoogleAuthMethod(ctx context.Context, userID, email string) (*AuthMethod, error)

	// CreateUserWithAuthMethod creates a user and its first auth method
	// atomically. Either both rows exist afterwards or neither does: a user
	// with no login method must be structurally impossible.
	CreateUserWithAuthMethod(ctx context.Context, params NewUserParams) (*User, error)
}
