// Package oauth2 implements the Google OAuth handshake: the redirect with a
// state nonce, the callback exchange, and the userinfo fetch that yields a
// verified (email, name, avatarUrl) tuple. The handshake never touches
// persisted identities; it hands the tuple to a continuation and the caller
// decides what account it belongs to.
package oauth2

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"

	"github.com/alexedwards/scs/v2"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const (
	// stateSessionKey is where the handshake state nonce lives between the
	// begin redirect and the callback.
	stateSessionKey = "oauthstate"

	googleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"
)

// VerifiedUser is the tuple a completed handshake produces. Email is
// verified by Google before we ever see it.
type VerifiedUser struct {
	Email     string
	Name      string
	AvatarURL string
}

// HandleUserFunc receives the verified user at the end of a successful
// handshake and finishes the request.
type HandleUserFunc func(user VerifiedUser, w http.ResponseWriter, r *http.Request)

// GoogleOAuth runs the redirect/callback handshake against Google.
type GoogleOAuth struct {
	// Session stores the state nonce across the two legs of the handshake.
	Session *scs.SessionManager

	// HandleUser is called with the verified tuple on success.
	HandleUser HandleUserFunc

	config oauth2.Config

	// userInfoURL is overridable in tests.
	userInfoURL string
}

// NewGoogle configures the handshake with the Google endpoint and the
// email+profile scopes.
func NewGoogle(clientID, clientSecret, callbackURL string, session *scs.SessionManager, handleUser HandleUserFunc) *GoogleOAuth {
	return &GoogleOAuth{
		Session:    session,
		HandleUser: handleUser,
		config: oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  callbackURL,
			Scopes: []string{
				"https://www.googleapis.com/auth/userinfo.email",
				"https://www.googleapis.com/auth/userinfo.profile",
			},
			Endpoint: google.Endpoint,
		},
		userInfoURL: googleUserInfoURL,
	}
}

// HandleBegin starts the handshake: generates a state nonce, parks it in
// the session and redirects to Google's consent page.
func (g *GoogleOAuth) HandleBegin(w http.ResponseWriter, r *http.Request) {
	state, err := generateState()
	if err != nil {
		http.Error(w, `{"error": "Internal server error"}`, http.StatusInternalServerError)
		return
	}
	g.Session.Put(r.Context(), stateSessionKey, state)
	http.Redirect(w, r, g.config.AuthCodeURL(state), http.StatusFound)
}

// HandleCallback finishes the handshake. The state echoed by Google must
// match the nonce from HandleBegin; the nonce is consumed either way, so a
// failed callback always restarts from the beginning.
func (g *GoogleOAuth) HandleCallback(w http.ResponseWriter, r *http.Request) {
	savedState := g.Session.PopString(r.Context(), stateSessionKey)
	if savedState == "" || r.FormValue("state") != savedState {
		log.Println("oauth state mismatch")
		http.Error(w, `{"error": "Unauthorized"}`, http.StatusUnauthorized)
		return
	}

	token, err := g.config.Exchange(r.Context(), r.FormValue("code"))
	if err != nil {
		log.Println("oauth code exchange failed: ", err)
		http.Error(w, `{"error": "Unauthorized"}`, http.StatusUnauthorized)
		return
	}

	user, err := g.fetchUserInfo(r.Context(), token)
	if err != nil {
		log.Println("oauth userinfo fetch failed: ", err)
		http.Error(w, `{"error": "Unauthorized"}`, http.StatusUnauthorized)
		return
	}

	g.HandleUser(*user, w, r)
}

func (g *GoogleOAuth) fetchUserInfo(ctx context.Context, token *oauth2.Token) (*VerifiedUser, error) {
	client := g.config.Client(ctx, token)
	resp, err := client.Get(g.userInfoURL)
	if err != nil {
		return nil, fmt.Errorf("failed getting user info: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("userinfo returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed reading userinfo response: %w", err)
	}

	var info struct {
		Email         string `json:"email"`
		VerifiedEmail bool   `json:"verified_email"`
		Name          string `json:"name"`
		Picture       string `json:"picture"`
	}
	if err := json.Unmarshal(body, &info); err != nil {
		return nil, fmt.Errorf("failed parsing userinfo response: %w", err)
	}
	if info.Email == "" || !info.VerifiedEmail {
		return nil, fmt.Errorf("google did not return a verified email")
	}

	return &VerifiedUser{
		Email:     info.Email,
		Name:      info.Name,
		AvatarURL: info.Picture,
	}, nil
}

func generateState() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate state: %w", err)
	}
	return base64.URLEncoding.EncodeToString(b), nil
}
