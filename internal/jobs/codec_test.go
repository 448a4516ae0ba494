package jobs

import (
	"errors"
	"testing"
	"time"
)

func TestNewAndDecode_WelcomeEmail(t *testing.T) {
	payload := WelcomeEmailPayload{
		UserID: "user-123",
		Email:  "ada@example.com",
		Name:   "Ada Lovelace",
		URL:    "http://localhost:8080/me",
	}

	j, err := New(JobSendWelcomeEmail, payload)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	if j.MaxAttempts != DefaultMaxAttempts || j.ID == "" {
		t.Fatalf("unexpected job defaults: %+v", j)
	}

	decoded, err := DecodePayload(j)
	if err != nil {
		t.Fatalf("DecodePayload error: %v", err)
	}

	p, ok := decoded.(WelcomeEmailPayload)
	if !ok {
		t.Fatalf("expected WelcomeEmailPayload, got %T", decoded)
	}
	if p != payload {
		t.Fatalf("got %+v, want %+v", p, payload)
	}
}

func TestEncodePayload_TypeMismatch(t *testing.T) {
	_, err := EncodePayload(JobSendWelcomeEmail, PasswordChangedPayload{
		UserID:    "u1",
		Email:     "a@b.c",
		ChangedAt: time.Now(),
	})
	if !errors.Is(err, ErrPayloadTypeMismatch) {
		t.Fatalf("expected ErrPayloadTypeMismatch, got %v", err)
	}
}

func TestValidatePayload_RequiredFields(t *testing.T) {
	if err := ValidatePayload(JobSendWelcomeEmail, WelcomeEmailPayload{UserID: "u1"}); !errors.Is(err, ErrInvalidJobPayload) {
		t.Fatalf("expected ErrInvalidJobPayload, got %v", err)
	}
	if err := ValidatePayload(JobSendPasswordChanged, &PasswordChangedPayload{UserID: "u1", Email: "a@b.c"}); !errors.Is(err, ErrInvalidJobPayload) {
		t.Fatalf("expected ErrInvalidJobPayload for zero ChangedAt, got %v", err)
	}
}

func TestDecodePayload_UnknownType(t *testing.T) {
	_, err := DecodePayload(Job{Type: "export_csv", Payload: []byte(`{}`)})
	if !errors.Is(err, ErrInvalidJobType) {
		t.Fatalf("expected ErrInvalidJobType, got %v", err)
	}
}

func TestExhausted(t *testing.T) {
	j := Job{Attempts: 4, MaxAttempts: 5}
	if j.Exhausted() {
		t.Fatalf("4/5 should not be exhausted")
	}
	j.Attempts++
	if !j.Exhausted() {
		t.Fatalf("5/5 should be exhausted")
	}
}
