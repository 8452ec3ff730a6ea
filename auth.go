package linkauth

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// Auth orchestrates the authentication flows: local register/login, the
// Google sign-in state machine and the linking step. Handlers are plain
// http.HandlerFuncs composed by the host's router; the guarded ones
// (HandleLinkGoogle, HandleLogout, HandleMe) expect to run behind the
// matching guard from Guards.
type Auth struct {
	Store  UserStore
	Issuer *Issuer

	// InsecureCookies drops the Secure flag. Only for local development.
	InsecureCookies bool

	// Optional outcome metrics.
	Metrics *Metrics
}

func (a *Auth) resolver() *Resolver { return &Resolver{Store: a.Store} }

// HandleRegister processes local registration.
//
// A duplicate email is answered with the same generic message as bad
// credentials so registration cannot be used to enumerate accounts.
func (a *Auth) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := decodeBody(r, &req); err != nil {
		writeAuthError(w, NewAuthError(ErrCodeMissingField, "Invalid request body", ""))
		return
	}
	if authErr := req.Validate(); authErr != nil {
		writeAuthError(w, authErr)
		return
	}

	hashed, err := HashPassword(req.Password)
	if err != nil {
		slog.Warn("hashing password failed", "error", err)
		writeStoreFailure(w)
		return
	}

	user, err := a.Store.CreateUserWithAuthMethod(r.Context(), NewUserParams{
		Name:           req.Name,
		Username:       GenerateUsername(req.Name),
		Email:          req.Email,
		Provider:       ProviderLocal,
		HashedPassword: &hashed,
	})
	if err != nil {
		if errors.Is(err, ErrDuplicate) {
			a.count("register", "rejected")
			writeUnauthorizedMessage(w, "Invalid email or password")
			return
		}
		slog.Warn("creating local user failed", "error", err)
		writeStoreFailure(w)
		return
	}

	a.count("register", "created")
	log.Printf("Registered local user %s (%s)", user.ID, user.Username)
	writeJSON(w, http.StatusCreated, map[string]any{
		"user":    user,
		"message": "User registered successfully!",
	})
}

// LoginRequest is the payload for local login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// HandleLogin processes local login and sets the session cookie.
//
// "No such account", "google-only account" and "wrong password" are all
// answered identically.
func (a *Auth) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeBody(r, &req); err != nil || req.Email == "" || req.Password == "" {
		writeAuthError(w, NewAuthError(ErrCodeMissingField, "Email and password required", ""))
		return
	}

	method, err := a.resolver().ResolveLocal(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			a.count("login", "rejected")
			writeUnauthorizedMessage(w, "Invalid email or password")
			return
		}
		slog.Warn("local login lookup failed", "error", err)
		writeStoreFailure(w)
		return
	}

	if !VerifyPassword(req.Password, method.HashedPassword) {
		a.count("login", "rejected")
		writeUnauthorizedMessage(w, "Invalid email or password")
		return
	}

	user, err := a.Store.GetUserByID(r.Context(), method.UserID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			writeUnauthorized(w)
			return
		}
		slog.Warn("loading user after login failed", "error", err)
		writeStoreFailure(w)
		return
	}

	if !a.issueSessionCookie(w, user) {
		return
	}
	a.count("login", "signed_in")
	writeJSON(w, http.StatusOK, map[string]any{
		"user":    user,
		"message": "User logged in successfully!",
	})
}

// HandleGoogleUser drives the resolution state machine for a verified
// Google identity. It is handed to the oauth2 callback as the success
// continuation.
//
//	SignIn       -> session cookie
//	LinkRequired -> link cookie with a 2 minute window
//	NewUser      -> atomic create, then session cookie
func (a *Auth) HandleGoogleUser(ident GoogleIdentity, w http.ResponseWriter, r *http.Request) {
	outcome, err := a.resolver().ResolveGoogle(r.Context(), ident)
	if err != nil {
		slog.Warn("google resolution failed", "email", ident.Email, "error", err)
		writeStoreFailure(w)
		return
	}

	switch o := outcome.(type) {
	case SignIn:
		if !a.issueSessionCookie(w, o.User) {
			return
		}
		a.count("google", "signed_in")
		writeJSON(w, http.StatusOK, map[string]any{
			"user":    o.User,
			"method":  "Google",
			"success": "User signed in successfully!",
		})

	case LinkRequired:
		linkToken, err := a.Issuer.IssueLinkToken(o.UserID, o.ProviderEmail)
		if err != nil {
			slog.Warn("issuing link token failed", "error", err)
			writeStoreFailure(w)
			return
		}
		a.setCookie(w, LinkCookieName, linkToken, a.Issuer.linkTTL())
		a.count("google", "link_required")
		writeJSON(w, http.StatusOK, map[string]any{
			"message": "Try linking Google account with existing Local account",
		})

	case NewUser:
		user, err := a.Store.CreateUserWithAuthMethod(r.Context(), NewUserParams{
			Name:      o.Name,
			Username:  GenerateUsername(o.Name),
			Email:     o.Email,
			Provider:  ProviderGoogle,
			AvatarURL: o.AvatarURL,
		})
		if err != nil {
			// A concurrent registration may have won the race on the
			// unique constraint. No retries here: the handshake restarts
			// from scratch.
			slog.Warn("creating google user failed", "email", o.Email, "error", err)
			if errors.Is(err, ErrDuplicate) {
				writeUnauthorized(w)
				return
			}
			writeStoreFailure(w)
			return
		}
		if !a.issueSessionCookie(w, user) {
			return
		}
		a.count("google", "created")
		log.Printf("Registered google user %s (%s)", user.ID, user.Username)
		writeJSON(w, http.StatusOK, map[string]any{
			"user":    user,
			"method":  "Google",
			"success": "User signed in successfully!",
		})

	default:
		slog.Warn("unknown resolver outcome", "outcome", fmt.Sprintf("%T", outcome))
		writeStoreFailure(w)
	}
}

// HandleLinkGoogle attaches a GOOGLE auth method to the user identified by
// the link token. Must run behind Guards.RequireLinkToken.
func (a *Auth) HandleLinkGoogle(w http.ResponseWriter, r *http.Request) {
	ident := LinkIdentityFromContext(r.Context())
	if ident == nil {
		writeUnauthorized(w)
		return
	}

	// The link attempt consumes the cookie either way.
	a.clearCookie(w, LinkCookieName)

	if _, err := a.Store.CreateGoogleAuthMethod(r.Context(), ident.ID, ident.Email); err != nil {
		if errors.Is(err, ErrDuplicate) {
			// Already linked, e.g. a double submit inside the window.
			writeUnauthorized(w)
			return
		}
		slog.Warn("creating google auth method failed", "user", ident.ID, "error", err)
		writeStoreFailure(w)
		return
	}

	user, err := a.Store.GetUserByID(r.Context(), ident.ID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			writeUnauthorized(w)
			return
		}
		writeStoreFailure(w)
		return
	}

	if !a.issueSessionCookie(w, user) {
		return
	}
	a.count("google", "linked")
	log.Printf("Linked google method to user %s", user.ID)
	writeJSON(w, http.StatusOK, map[string]any{
		"user":    user,
		"method":  "Google",
		"success": "User logged in successfully!",
	})
}

// HandleLogout clears the session cookie. Must run behind
// Guards.RequireSession.
func (a *Auth) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if UserFromContext(r.Context()) == nil {
		writeUnauthorized(w)
		return
	}
	a.clearCookie(w, SessionCookieName)
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Successfully logged out!",
	})
}

// HandleMe returns the authenticated user. Must run behind
// Guards.RequireSession.
func (a *Auth) HandleMe(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	if user == nil {
		writeUnauthorized(w)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": user})
}

func (a *Auth) issueSessionCookie(w http.ResponseWriter, user *User) bool {
	token, err := a.Issuer.IssueSession(user)
	if err != nil {
		slog.Warn("issuing session token failed", "error", err)
		writeStoreFailure(w)
		return false
	}
	a.setCookie(w, SessionCookieName, token, a.Issuer.sessionTTL())
	return true
}

func (a *Auth) setCookie(w http.ResponseWriter, name, value string, ttl time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   !a.InsecureCookies,
		SameSite: http.SameSiteStrictMode,
		MaxAge:   int(ttl.Seconds()),
		Expires:  time.Now().Add(ttl),
	})
}

func (a *Auth) clearCookie(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   !a.InsecureCookies,
		SameSite: http.SameSiteStrictMode,
		MaxAge:   -1,
		Expires:  time.Now(),
	})
}

func (a *Auth) count(flow, result string) {
	if a.Metrics != nil {
		a.Metrics.ObserveOutcome(flow, result)
	}
}

// decodeBody accepts either a JSON body or a urlencoded form and fills the
// target struct. Forms only cover the flat string fields used here.
func decodeBody(r *http.Request, target any) error {
	contentType := r.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, "application/x-www-form-urlencoded") {
		if err := r.ParseForm(); err != nil {
			return fmt.Errorf("error parsing form")
		}
		switch t := target.(type) {
		case *RegisterRequest:
			t.Name = r.FormValue("name")
			t.Email = r.FormValue("email")
			t.Password = r.FormValue("password")
		case *LoginRequest:
			t.Email = r.FormValue("email")
			t.Password = r.FormValue("password")
		default:
			return fmt.Errorf("unsupported form target")
		}
		return nil
	}
	if err := json.NewDecoder(r.Body).Decode(target); err != nil {
		return fmt.Errorf("invalid post body")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, body map[string]any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeAuthError(w http.ResponseWriter, authErr *AuthError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadRequest)
	json.NewEncoder(w).Encode(authErr)
}

func writeUnauthorizedMessage(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]any{"error": message})
}
