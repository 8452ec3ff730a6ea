// Package linkauth authenticates users through two independent identity
// providers - local password credentials and Google OAuth - and keeps a
// single user account reachable through either, without ever creating a
// duplicate account for the same person.
//
// # Architecture
//
// User: a provider-independent account with a derived, immutable username.
// Every user is created atomically together with its first AuthMethod.
//
// AuthMethod: a record binding one provider's credential to one user. A user
// holds at most one AuthMethod per provider, and the (provider, email) pair
// is unique across the system. This uniqueness is what the resolver relies
// on to route an incoming identity to the right account.
//
// # Resolution
//
// When a Google-verified email arrives, the Resolver decides one of three
// outcomes: sign the existing user in, require an explicit linking step
// (the email already belongs to a password-only account), or provision a
// brand new user. Linking is authorized by a short-lived signed link token
// so that attaching a second provider can only happen within a narrow
// window and only for the account the resolver identified.
//
// # Usage
//
// Wire the components explicitly at startup:
//
//	store := gormstore.NewStore(db)
//	issuer := &linkauth.Issuer{SecretKey: secret, Issuer: "myapp"}
//	auth := &linkauth.Auth{Store: store, Issuer: issuer}
//	guards := &linkauth.Guards{Issuer: issuer, Store: store}
//
//	mux.Handle("POST /auth/register", http.HandlerFunc(auth.HandleRegister))
//	mux.Handle("POST /auth/login", http.HandlerFunc(auth.HandleLogin))
//	mux.Handle("GET /auth/google/link", guards.RequireLinkToken(http.HandlerFunc(auth.HandleLinkGoogle)))
//	mux.Handle("DELETE /auth/logout", guards.RequireSession(http.HandlerFunc(auth.HandleLogout)))
//
// The Google handshake itself lives in the oauth2 subpackage; its callback
// hands a verified (email, name, avatarUrl) tuple to Auth.HandleGoogleUser,
// which drives the resolution state machine.
package linkauth
