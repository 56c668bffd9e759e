package utils

import (
	"testing"
	"time"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	tok, err := NewAccessToken("secret", 42, "supervisor", time.Hour)
	if err != nil {
		t.Fatalf("NewAccessToken: %v", err)
	}
	if tok.Token == "" {
		t.Fatalf("empty token")
	}
	userID, role, err := ParseAccessToken("secret", tok.Token)
	if err != nil {
		t.Fatalf("ParseAccessToken: %v", err)
	}
	if userID != 42 || role != "supervisor" {
		t.Fatalf("got user %d role %q, want 42 supervisor", userID, role)
	}
}

func TestAccessTokenWrongSecret(t *testing.T) {
	tok, err := NewAccessToken("secret", 1, "participant", time.Hour)
	if err != nil {
		t.Fatalf("NewAccessToken: %v", err)
	}
	if _, _, err := ParseAccessToken("other", tok.Token); err == nil {
		t.Fatalf("expected error for wrong secret")
	}
}

func TestAccessTokenExpired(t *testing.T) {
	tok, err := NewAccessToken("secret", 1, "participant", -time.Minute)
	if err != nil {
		t.Fatalf("NewAccessToken: %v", err)
	}
	if _, _, err := ParseAccessToken("secret", tok.Token); err == nil {
		t.Fatalf("expected error for expired token")
	}
}

func TestNewResetCodeFormat(t *testing.T) {
	for i := 0; i < 20; i++ {
		code, err := NewResetCode()
		if err != nil {
			t.Fatalf("NewResetCode: %v", err)
		}
		if len(code) != 6 {
			t.Fatalf("code %q has length %d, want 6", code, len(code))
		}
		for _, r := range code {
			if r < '0' || r > '9' {
				t.Fatalf("code %q contains non-digit %q", code, r)
			}
		}
	}
}
