package linkauth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
)

// Cookie names used to transport the two token kinds.
const (
	SessionCookieName = "token"
	LinkCookieName    = "link_token"
)

type contextKey string

const (
	contextKeyUser         contextKey = "linkauth_user"
	contextKeyLinkIdentity contextKey = "linkauth_link_identity"
)

// LinkIdentity is the minimal identity attached by LinkGuard: just enough
// to create the GOOGLE auth method, deliberately not a full session.
type LinkIdentity struct {
	ID    string
	Email string
}

// UserFromContext returns the user attached by RequireSession, or nil.
func UserFromContext(ctx context.Context) *User {
	if u, ok := ctx.Value(contextKeyUser).(*User); ok {
		return u
	}
	return nil
}

// LinkIdentityFromContext returns the identity attached by RequireLinkToken,
// or nil.
func LinkIdentityFromContext(ctx context.Context) *LinkIdentity {
	if li, ok := ctx.Value(contextKeyLinkIdentity).(*LinkIdentity); ok {
		return li
	}
	return nil
}

// Guards are the request-time interceptors. Each one extracts a token from
// the transport, verifies it, resolves it to an identity and attaches that
// identity to the request context as an immutable value. Any missing step
// rejects with a generic 401.
type Guards struct {
	Issuer *Issuer
	Store  UserStore
}

// RequireSession enforces a valid session token on the request.
//
// Extract session cookie -> verify -> require a subject claim -> load the
// user -> attach to context. The response never distinguishes why the
// check failed.
func (g *Guards) RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenString := cookieValue(r, SessionCookieName)
		if tokenString == "" {
			writeUnauthorized(w)
			return
		}

		claims, err := g.Issuer.VerifySession(tokenString)
		if err != nil {
			writeUnauthorized(w)
			return
		}
		if claims.Subject == "" {
			writeUnauthorized(w)
			return
		}

		user, err := g.Store.GetUserByID(r.Context(), claims.Subject)
		if err != nil {
			if !errors.Is(err, ErrNotFound) {
				slog.Warn("session guard store lookup failed", "error", err)
				writeStoreFailure(w)
				return
			}
			writeUnauthorized(w)
			return
		}

		ctx := context.WithValue(r.Context(), contextKeyUser, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireLinkToken enforces a valid link token on the request.
//
// Beyond signature and expiry it requires the GOOGLE_LINK_ACCOUNT purpose
// and confirms the target user still exists, so a stolen arbitrary token
// can never link an attacker's Google identity to a victim's account.
func (g *Guards) RequireLinkToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenString := cookieValue(r, LinkCookieName)
		if tokenString == "" {
			writeUnauthorized(w)
			return
		}

		claims, err := g.Issuer.VerifyLink(tokenString)
		if err != nil {
			writeUnauthorized(w)
			return
		}
		if claims.Purpose != LinkPurposeGoogle || claims.UserID == "" {
			writeUnauthorized(w)
			return
		}

		if _, err := g.Store.GetUserByID(r.Context(), claims.UserID); err != nil {
			if !errors.Is(err, ErrNotFound) {
				slog.Warn("link guard store lookup failed", "error", err)
				writeStoreFailure(w)
				return
			}
			writeUnauthorized(w)
			return
		}

		ctx := context.WithValue(r.Context(), contextKeyLinkIdentity, &LinkIdentity{
			ID:    claims.UserID,
			Email: claims.Email,
		})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// cookieValue returns the named cookie's value, or "" when the cookie is
// missing or empty. Malformed transport input is treated exactly like a
// missing token so the response leaks no structural information.
func cookieValue(r *http.Request, name string) string {
	cookie, err := r.Cookie(name)
	if err != nil || cookie == nil {
		return ""
	}
	return cookie.Value
}

func writeUnauthorized(w http.ResponseWriter) {
	http.Error(w, `{"error": "Unauthorized"}`, http.StatusUnauthorized)
}

func writeStoreFailure(w http.ResponseWriter) {
	http.Error(w, `{"error": "Internal server error"}`, http.StatusInternalServerError)
}
