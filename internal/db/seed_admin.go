package db

import (
	"context"
	"strings"
	"time"

	"github.com/geocoder89/tourhub/internal/apperr"
	"github.com/geocoder89/tourhub/internal/domain/user"
)

type PasswordHasher interface {
	Hash(plain string) (string, error)
}

// AdminStore is the slice of a user store the seed needs. The postgres and
// in-memory user repositories both satisfy it.
type AdminStore interface {
	GetByEmail(ctx context.Context, email string) (user.User, error)
	Insert(ctx context.Context, u user.User) error
}

type AdminSeed struct {
	Email    string
	Password string
	Name     string
}

// EnsureAdminUser creates the admin from seed unless a user with that email
// already exists. An empty seed is a no-op. It reports whether a user was
// created.
func EnsureAdminUser(ctx context.Context, users AdminStore, hasher PasswordHasher, seed AdminSeed) (bool, error) {
	if seed.Email == "" || seed.Password == "" {
		return false, nil
	}

	email := user.NormalizeEmail(seed.Email)

	_, err := users.GetByEmail(ctx, email)
	if err == nil {
		return false, nil
	}
	if !apperr.IsKind(err, apperr.KindNotFound) {
		return false, err
	}

	hash, err := hasher.Hash(seed.Password)
	if err != nil {
		return false, err
	}

	name := strings.TrimSpace(seed.Name)
	if name == "" {
		name = "Admin"
	}

	u := user.NewFromCreateRequest(user.CreateRequest{
		Name:         name,
		Email:        email,
		Role:         user.RoleAdmin,
		PasswordHash: hash,
	}, time.Now())

	if err := users.Insert(ctx, u); err != nil {
		// a deactivated account still holds the email
		if apperr.Normalize(err).Code == "duplicate_field" {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
