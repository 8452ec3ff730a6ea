package linkauth

import (
	"fmt"
	"regexp"

	"golang.org/x/crypto/bcrypt"
)

// MinPasswordLength is the minimum accepted password length for registration.
const MinPasswordLength = 8

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// HashPassword hashes a plaintext password with bcrypt at the default cost.
func HashPassword(plaintext string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// VerifyPassword compares a plaintext password against a stored bcrypt hash.
//
// A nil or empty stored hash always fails: an account reachable only via
// OAuth has no password and must never be logged into with one. This is a
// hard authentication failure, not a skipped check.
func VerifyPassword(plaintext string, storedHash *string) bool {
	if storedHash == nil || *storedHash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(*storedHash), []byte(plaintext)) == nil
}

// RegisterRequest is the payload for local registration.
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate checks the registration fields. It returns nil when the request
// is acceptable.
func (r *RegisterRequest) Validate() *AuthError {
	if r.Name == "" {
		return NewAuthError(ErrCodeMissingField, "Name required", "name")
	}
	if r.Email == "" {
		return NewAuthError(ErrCodeMissingField, "Email required", "email")
	}
	if !emailRegex.MatchString(r.Email) {
		return NewAuthError(ErrCodeInvalidEmail, "Invalid email format", "email")
	}
	if len(r.Password) < MinPasswordLength {
		return NewAuthError(ErrCodeWeakPassword,
			fmt.Sprintf("Password must be at least %d characters", MinPasswordLength), "password")
	}
	return nil
}
