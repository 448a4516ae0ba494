package user

import (
	"testing"
	"time"
)

func TestChangedPasswordAfter(t *testing.T) {
	iat := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		changedAt *time.Time
		want      bool
	}{
		{name: "never_changed", changedAt: nil, want: false},
		{name: "changed_before_issue", changedAt: ptr(iat.Add(-time.Minute)), want: false},
		{name: "changed_same_second", changedAt: ptr(iat.Add(400 * time.Millisecond)), want: false},
		{name: "changed_after_issue", changedAt: ptr(iat.Add(time.Second)), want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := User{PasswordChangedAt: tt.changedAt}
			if got := u.ChangedPasswordAfter(iat); got != tt.want {
				t.Fatalf("ChangedPasswordAfter = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestResetTokenUsable(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	var u User
	if u.ResetTokenUsable("abc", now) {
		t.Fatalf("expected no token to be unusable")
	}

	u.SetResetToken("abc", now.Add(10*time.Minute))

	if !u.ResetTokenUsable("abc", now) {
		t.Fatalf("expected matching token to be usable")
	}
	if u.ResetTokenUsable("abd", now) {
		t.Fatalf("expected mismatched digest to be rejected")
	}
	if u.ResetTokenUsable("abc", now.Add(10*time.Minute)) {
		t.Fatalf("expected token at expiry instant to be rejected")
	}
}

func TestSetPasswordClearsReset(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	u := User{PasswordHash: "old"}
	u.SetResetToken("abc", now.Add(time.Minute))
	u.SetPassword("new", now)

	if u.PasswordHash != "new" {
		t.Fatalf("hash not updated")
	}
	if u.PasswordResetToken != nil || u.PasswordResetExpires != nil {
		t.Fatalf("reset fields not cleared")
	}
	if u.PasswordChangedAt == nil || !u.PasswordChangedAt.Equal(now) {
		t.Fatalf("changedAt = %v, want %v", u.PasswordChangedAt, now)
	}
}

func TestNewFromCreateRequestDefaults(t *testing.T) {
	u := NewFromCreateRequest(CreateRequest{
		Name:         " Jonas ",
		Email:        " Jonas@Example.COM ",
		PasswordHash: "hash",
	}, time.Now())

	if u.Email != "jonas@example.com" {
		t.Fatalf("email = %q", u.Email)
	}
	if u.Role != RoleUser || u.Photo != DefaultPhoto || !u.Active {
		t.Fatalf("unexpected defaults: %+v", u)
	}
	if u.Name != "Jonas" {
		t.Fatalf("name = %q", u.Name)
	}
}

func TestRoleValid(t *testing.T) {
	for _, r := range []Role{RoleUser, RoleGuide, RoleLeadGuide, RoleAdmin} {
		if !r.Valid() {
			t.Fatalf("%q should be valid", r)
		}
	}
	if Role("lead_guide").Valid() {
		t.Fatalf("typo role should be invalid")
	}
}

func ptr(t time.Time) *time.Time { return &t }
