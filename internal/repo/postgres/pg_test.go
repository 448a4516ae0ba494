package postgres

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestAndWhere(t *testing.T) {
	cases := []struct {
		where, cond, want string
	}{
		{"", "", ""},
		{"", "active", " WHERE active"},
		{" WHERE price >= $1", "", " WHERE price >= $1"},
		{" WHERE price >= $1", "active", " WHERE price >= $1 AND active"},
	}
	for _, tc := range cases {
		if got := andWhere(tc.where, tc.cond); got != tc.want {
			t.Fatalf("andWhere(%q, %q) = %q, want %q", tc.where, tc.cond, got, tc.want)
		}
	}
}

func TestValidID(t *testing.T) {
	if validID("5c88fa8cf4afda39709c2955") {
		t.Fatalf("object ids are not uuids")
	}
	if !validID("8f14e45f-ceea-467f-a3f4-0f7a1b2c3d4e") {
		t.Fatalf("expected uuid to be valid")
	}
}

func TestIsUniqueViolation(t *testing.T) {
	wrapped := fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"})
	if !IsUniqueViolation(wrapped) {
		t.Fatalf("expected wrapped 23505 to be a unique violation")
	}
	if IsUniqueViolation(&pgconn.PgError{Code: "23514"}) || IsUniqueViolation(errors.New("x")) {
		t.Fatalf("only 23505 is a unique violation")
	}
}
