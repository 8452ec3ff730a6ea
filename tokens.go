package linkauth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Default token lifetimes.
const (
	SessionTokenTTL = 6 * 24 * time.Hour
	LinkTokenTTL    = 2 * time.Minute
)

// LinkPurposeGoogle is the only purpose a link token can carry. LinkGuard
// rejects anything else even when signature and expiry are valid.
const LinkPurposeGoogle = "GOOGLE_LINK_ACCOUNT"

// SessionClaims is the claim set of a session token: a minimal user
// snapshot with the user id in the registered subject claim.
type SessionClaims struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// LinkClaims is the claim set of a link token. The purpose field is what
// keeps a link token structurally distinct from a session token.
type LinkClaims struct {
	UserID  string `json:"userId"`
	Email   string `json:"email"`
	Purpose string `json:"purpose"`
	jwt.RegisteredClaims
}

// Issuer mints and verifies the two token kinds. Verification checks
// signature and expiry only; purpose checks belong to the guards, since the
// issuer does not know business semantics.
type Issuer struct {
	// SecretKey signs tokens with HMAC-SHA256.
	SecretKey string

	// Issuer is the iss claim put on every token.
	Issuer string

	// Optional overrides, mainly for tests. Zero means the defaults above.
	SessionTTL time.Duration
	LinkTTL    time.Duration
}

func (i *Issuer) sessionTTL() time.Duration {
	if i.SessionTTL > 0 {
		return i.SessionTTL
	}
	return SessionTokenTTL
}

func (i *Issuer) linkTTL() time.Duration {
	if i.LinkTTL > 0 {
		return i.LinkTTL
	}
	return LinkTokenTTL
}

// IssueSession mints a session token for an authenticated user.
func (i *Issuer) IssueSession(user *User) (string, error) {
	now := time.Now()
	claims := &SessionClaims{
		Name:  user.Name,
		Email: user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			Issuer:    i.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.sessionTTL())),
		},
	}
	return i.sign(claims)
}

// IssueLinkToken mints a token authorizing the holder to attach a GOOGLE
// auth method to the given user within the link window.
func (i *Issuer) IssueLinkToken(userID, email string) (string, error) {
	now := time.Now()
	claims := &LinkClaims{
		UserID:  userID,
		Email:   email,
		Purpose: LinkPurposeGoogle,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    i.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.linkTTL())),
		},
	}
	return i.sign(claims)
}

// VerifySession parses and verifies a session token. Any signature, shape
// or expiry problem comes back as ErrUnauthorized.
func (i *Issuer) VerifySession(tokenString string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	if err := i.verify(tokenString, claims); err != nil {
		return nil, err
	}
	return claims, nil
}

// VerifyLink parses and verifies a link token.
func (i *Issuer) VerifyLink(tokenString string) (*LinkClaims, error) {
	claims := &LinkClaims{}
	if err := i.verify(tokenString, claims); err != nil {
		return nil, err
	}
	return claims, nil
}

func (i *Issuer) sign(claims jwt.Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(i.SecretKey))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

func (i *Issuer) verify(tokenString string, claims jwt.Claims) error {
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return []byte(i.SecretKey), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}
	if !token.Valid {
		return ErrUnauthorized
	}
	return nil
}
