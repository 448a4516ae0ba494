package notifications

import (
	"context"
	"errors"
	"net/smtp"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

type fakeMailer struct {
	calls atomic.Int32
	err   error
}

func (f *fakeMailer) Send(ctx context.Context, msg Message) error {
	f.calls.Add(1)
	return f.err
}

func TestRender(t *testing.T) {
	body, err := Render(Message{
		Template: TemplatePasswordReset,
		Data:     map[string]any{"FirstName": "Ada", "URL": "http://x/reset/abc", "ValidFor": "10 minutes"},
	})
	if err != nil {
		t.Fatalf("Render error: %v", err)
	}
	if !strings.Contains(body, "http://x/reset/abc") || !strings.Contains(body, "Hi Ada") {
		t.Fatalf("unexpected body: %s", body)
	}

	if _, err := Render(Message{Template: "nope"}); !errors.Is(err, ErrUnknownTemplate) {
		t.Fatalf("expected ErrUnknownTemplate, got %v", err)
	}
}

func TestProtectedMailerOpensAndRecovers(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	inner := &fakeMailer{err: errors.New("relay down")}

	m := NewProtectedMailer(inner, ProtectedMailerConfig{FailureThreshold: 2, Cooldown: time.Minute}, nil)
	m.now = func() time.Time { return now }

	msg := Message{To: "a@b.c", Template: TemplateWelcome}

	for i := 0; i < 2; i++ {
		if err := m.Send(context.Background(), msg); err == nil {
			t.Fatalf("expected relay error")
		}
	}

	if err := m.Send(context.Background(), msg); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected open circuit, got %v", err)
	}
	if inner.calls.Load() != 2 {
		t.Fatalf("open circuit must not call the relay, calls=%d", inner.calls.Load())
	}

	// after the cooldown one trial call goes through and closes the circuit
	now = now.Add(2 * time.Minute)
	inner.err = nil

	if err := m.Send(context.Background(), msg); err != nil {
		t.Fatalf("expected trial to succeed, got %v", err)
	}
	if err := m.Send(context.Background(), msg); err != nil {
		t.Fatalf("expected closed circuit, got %v", err)
	}
}

func TestSMTPMailerBuildsMessage(t *testing.T) {
	m := NewSMTPMailer(SMTPConfig{Host: "smtp.test", Port: 2525, From: "Tourhub <hello@tourhub.test>"})

	var gotFrom string
	var gotTo []string
	var gotMsg string
	m.send = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		if addr != "smtp.test:2525" {
			t.Errorf("addr = %s", addr)
		}
		gotFrom, gotTo, gotMsg = from, to, string(msg)
		return nil
	}

	err := m.Send(context.Background(), Message{
		To:       "ada@example.com",
		Subject:  "Welcome",
		Template: TemplateWelcome,
		Data:     map[string]any{"FirstName": "Ada", "URL": "http://x/me"},
	})
	if err != nil {
		t.Fatalf("Send error: %v", err)
	}

	if gotFrom != "hello@tourhub.test" {
		t.Fatalf("envelope from = %q", gotFrom)
	}
	if len(gotTo) != 1 || gotTo[0] != "ada@example.com" {
		t.Fatalf("to = %v", gotTo)
	}
	if !strings.Contains(gotMsg, "Subject: Welcome\r\n") || !strings.Contains(gotMsg, "Hi Ada") {
		t.Fatalf("unexpected message: %q", gotMsg)
	}
}

func TestMessageBuilders(t *testing.T) {
	msg := PasswordResetMessage("ada@example.com", "Ada Lovelace", "http://x/api/v1/users/resetPassword/abc", 10*time.Minute)
	if msg.Data["FirstName"] != "Ada" || msg.Data["ValidFor"] != "10 minutes" {
		t.Fatalf("unexpected data: %+v", msg.Data)
	}
	if _, err := Render(msg); err != nil {
		t.Fatalf("Render error: %v", err)
	}

	if FirstName("   ") != "there" {
		t.Fatalf("blank name should fall back")
	}

	changed := PasswordChangedMessage("a@b.c", "Grace", time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	body, err := Render(changed)
	if err != nil {
		t.Fatalf("Render error: %v", err)
	}
	if !strings.Contains(body, "Sun, 01 Mar 2026 12:00:00 UTC") {
		t.Fatalf("unexpected body: %s", body)
	}
}
