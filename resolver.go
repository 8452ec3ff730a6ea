package linkauth

import (
	"context"
	"errors"
	"fmt"
)

// GoogleIdentity is the verified tuple produced by the OAuth handshake.
// By the time it reaches the resolver the email has been verified by Google.
type GoogleIdentity struct {
	Email     string
	Name      string
	AvatarURL string
}

// Outcome is the three-way result of resolving a verified identity
// assertion. It is a normal return value, never an error: SignIn vs
// LinkRequired vs NewUser is routing, not failure.
type Outcome interface {
	isOutcome()
}

// SignIn means an auth method already exists for this (email, provider);
// the owning user is loaded and ready to be signed in.
type SignIn struct {
	User *User
}

// LinkRequired means the email has no GOOGLE auth method but does have a
// LOCAL one: a human is arriving through a new channel while already owning
// an account through another. The caller must run the linking handshake.
type LinkRequired struct {
	UserID        string
	ProviderEmail string
}

// NewUser means the email is unknown under either provider and a fresh
// account should be provisioned.
type NewUser struct {
	Name      string
	Email     string
	AvatarURL string
}

func (SignIn) isOutcome()       {}
func (LinkRequired) isOutcome() {}
func (NewUser) isOutcome()      {}

// Resolver decides what to do with a verified identity assertion by
// querying existing auth methods.
type Resolver struct {
	Store UserStore
}

// ResolveGoogle resolves a Google-verified identity.
//
// The lookup order is load-bearing: GOOGLE first, then LOCAL. A user who
// already linked Google must never fall through to the "has local only"
// branch, and a brand-new email must not spuriously match either.
func (r *Resolver) ResolveGoogle(ctx context.Context, ident GoogleIdentity) (Outcome, error) {
	method, err := r.Store.FindAuthMethod(ctx, ident.Email, ProviderGoogle)
	if err == nil {
		user, err := r.Store.GetUserByID(ctx, method.UserID)
		if err != nil {
			// An auth method pointing at a missing user is a store
			// integrity problem, not a resolution branch.
			return nil, fmt.Errorf("loading user %s for google method: %w", method.UserID, err)
		}
		return SignIn{User: user}, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	method, err = r.Store.FindAuthMethod(ctx, ident.Email, ProviderLocal)
	if err == nil {
		return LinkRequired{UserID: method.UserID, ProviderEmail: method.ProviderEmailID}, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	return NewUser{Name: ident.Name, Email: ident.Email, AvatarURL: ident.AvatarURL}, nil
}

// ResolveLocal looks up the LOCAL auth method for a login attempt. An absent
// method means invalid credentials, never "new user": local registration is
// an explicit separate action and is not inferred from a login.
func (r *Resolver) ResolveLocal(ctx context.Context, email string) (*AuthMethod, error) {
	return r.Store.FindAuthMethod(ctx, email, ProviderLocal)
}
