package linkauth_test

import (
	"strings"
	"testing"

	la "github.com/rkrish/linkauth"
)

func TestVerifyPassword(t *testing.T) {
	hashed, err := la.HashPassword("correct horse battery")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	empty := ""

	tests := []struct {
		name      string
		plaintext string
		stored    *string
		want      bool
	}{
		{"correct password", "correct horse battery", &hashed, true},
		{"wrong password", "incorrect horse", &hashed, false},
		{"nil stored hash always fails", "correct horse battery", nil, false},
		{"empty stored hash always fails", "correct horse battery", &empty, false},
		{"empty plaintext against real hash", "", &hashed, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := la.VerifyPassword(tt.plaintext, tt.stored); got != tt.want {
				t.Errorf("VerifyPassword() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRegisterRequestValidate(t *testing.T) {
	tests := []struct {
		name         string
		req          la.RegisterRequest
		expectedCode string
	}{
		{"valid", la.RegisterRequest{Name: "Alice", Email: "a@x.com", Password: "password123"}, ""},
		{"missing name", la.RegisterRequest{Email: "a@x.com", Password: "password123"}, la.ErrCodeMissingField},
		{"missing email", la.RegisterRequest{Name: "Alice", Password: "password123"}, la.ErrCodeMissingField},
		{"bad email", la.RegisterRequest{Name: "Alice", Email: "not-an-email", Password: "password123"}, la.ErrCodeInvalidEmail},
		{"short password", la.RegisterRequest{Name: "Alice", Email: "a@x.com", Password: "short"}, la.ErrCodeWeakPassword},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.expectedCode == "" {
				if err != nil {
					t.Errorf("Expected no error, got %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("Expected a validation error")
			}
			if err.Code != tt.expectedCode {
				t.Errorf("Expected code %s, got %s", tt.expectedCode, err.Code)
			}
		})
	}
}

func TestGenerateUsername(t *testing.T) {
	tests := []struct {
		name string
		base string
		want string // expected prefix before the suffix separator
	}{
		{"plain name", "Alice", "alice"},
		{"name with spaces", "Jane Q Doe", "janeqdoe"},
		{"punctuation stripped", "o'brien-smith!", "obriensmith"},
		{"digits kept", "agent 007", "agent007"},
		{"all symbols", "!!!", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := la.GenerateUsername(tt.base)
			prefix, suffix, found := strings.Cut(got, "_")
			if !found {
				t.Fatalf("Expected username with suffix separator, got %q", got)
			}
			if prefix != tt.want {
				t.Errorf("Expected prefix %q, got %q", tt.want, prefix)
			}
			if len(suffix) != 5 {
				t.Errorf("Expected 5-char suffix, got %q", suffix)
			}
		})
	}

	if la.GenerateUsername("Alice") == la.GenerateUsername("Alice") {
		t.Error("Two usernames for the same display name should not collide")
	}
}
