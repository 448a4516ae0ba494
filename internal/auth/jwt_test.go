package auth

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestIssueAndVerify(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	m := NewManager("test-secret", time.Hour, 10*time.Minute).WithClock(fixedClock(now))

	token, err := m.Issue("user-1")
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	claims, err := m.Verify(token)
	if err != nil {
		t.Fatalf("Verify error: %v", err)
	}

	if claims.UserID != "user-1" {
		t.Fatalf("got user %q, want user-1", claims.UserID)
	}
	if !claims.IssuedAtTime().Equal(now) {
		t.Fatalf("got iat %v, want %v", claims.IssuedAtTime(), now)
	}
}

func TestVerifyExpired(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	issuer := NewManager("test-secret", time.Hour, 10*time.Minute).WithClock(fixedClock(now))

	token, err := issuer.Issue("user-1")
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	later := issuer.WithClock(fixedClock(now.Add(2 * time.Hour)))
	_, err = later.Verify(token)
	if !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
	if errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expired token must not also report invalid")
	}
}

func TestVerifyInvalid(t *testing.T) {
	m := NewManager("test-secret", time.Hour, 10*time.Minute)
	other := NewManager("other-secret", time.Hour, 10*time.Minute)

	token, err := other.Issue("user-1")
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	own, err := m.Issue("user-1")
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}
	forged, err := m.Issue("admin-1")
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}
	ownParts := strings.Split(own, ".")
	forgedParts := strings.Split(forged, ".")
	tampered := ownParts[0] + "." + forgedParts[1] + "." + ownParts[2]

	tests := []struct {
		name  string
		token string
	}{
		{name: "wrong_signature", token: token},
		{name: "garbage", token: "not.a.token"},
		{name: "tampered_payload", token: tampered},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := m.Verify(tt.token)
			if !errors.Is(err, ErrTokenInvalid) {
				t.Fatalf("expected ErrTokenInvalid, got %v", err)
			}
		})
	}
}

func TestNewResetToken(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	m := NewManager("test-secret", time.Hour, 10*time.Minute).WithClock(fixedClock(now))

	rt, err := m.NewResetToken()
	if err != nil {
		t.Fatalf("NewResetToken error: %v", err)
	}

	if rt.Raw == "" || rt.Raw == rt.Digest {
		t.Fatalf("raw token must be set and differ from digest: %+v", rt)
	}
	if rt.Digest != ResetDigest(rt.Raw) {
		t.Fatalf("stored digest does not match digest of raw value")
	}
	if ResetDigest(rt.Raw+"0") == rt.Digest {
		t.Fatalf("different raw values must not share a digest")
	}
	if !rt.ExpiresAt.Equal(now.Add(10 * time.Minute)) {
		t.Fatalf("got expiry %v, want %v", rt.ExpiresAt, now.Add(10*time.Minute))
	}

	again, err := m.NewResetToken()
	if err != nil {
		t.Fatalf("NewResetToken error: %v", err)
	}
	if again.Raw == rt.Raw {
		t.Fatalf("reset tokens must be random")
	}
}
