package auth

import (
	"errors"
	"testing"
	"time"
)

func TestSessionTokenRoundTrip(t *testing.T) {
	token, exp, err := IssueSessionToken("secret", "abc-123", time.Hour)
	if err != nil {
		t.Fatalf("IssueSessionToken: %v", err)
	}
	if time.Until(exp) < 59*time.Minute {
		t.Errorf("expiry too early: %v", exp)
	}

	id, err := ParseSessionToken("secret", token)
	if err != nil {
		t.Fatalf("ParseSessionToken: %v", err)
	}
	if id != "abc-123" {
		t.Errorf("session id = %q, want abc-123", id)
	}
}

func TestSessionTokenRejectsWrongSecret(t *testing.T) {
	token, _, err := IssueSessionToken("secret", "abc-123", time.Hour)
	if err != nil {
		t.Fatalf("IssueSessionToken: %v", err)
	}
	if _, err := ParseSessionToken("other", token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken, got %v", err)
	}
}

func TestSessionTokenRejectsExpired(t *testing.T) {
	token, _, err := IssueSessionToken("secret", "abc-123", -time.Minute)
	if err != nil {
		t.Fatalf("IssueSessionToken: %v", err)
	}
	if _, err := ParseSessionToken("secret", token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken for expired token, got %v", err)
	}
}

func TestSessionTokenRejectsGarbage(t *testing.T) {
	if _, err := ParseSessionToken("secret", "not-a-token"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken, got %v", err)
	}
}
