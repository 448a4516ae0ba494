package memory

import (
	"context"
	"time"

	"github.com/geocoder89/tourhub/internal/domain/user"
)

type UsersRepo struct {
	*Store[user.User, user.CreateRequest, user.UpdateRequest]
	dependents dependents
}

func NewUsersRepo() *UsersRepo {
	return &UsersRepo{Store: NewStore(StoreConfig[user.User, user.CreateRequest, user.UpdateRequest]{
		NotFound: user.ErrNotFound,
		ID:       func(u user.User) string { return u.ID },
		Build:    user.NewFromCreateRequest,
		Apply:    user.ApplyUpdate,
		Validate: user.User.Validate,
		Visible:  func(u user.User) bool { return u.Active },
		Unique: func(existing, candidate user.User) (Conflict, bool) {
			if existing.Email == candidate.Email {
				return Conflict{Field: "email", Value: candidate.Email}, true
			}
			return Conflict{}, false
		},
	})}
}

func (r *UsersRepo) GetByEmail(ctx context.Context, email string) (user.User, error) {
	email = user.NormalizeEmail(email)
	return r.First(func(u user.User) bool { return u.Email == email })
}

func (r *UsersRepo) GetByResetDigest(ctx context.Context, digest string) (user.User, error) {
	return r.First(func(u user.User) bool {
		return u.PasswordResetToken != nil && *u.PasswordResetToken == digest
	})
}

// Save overwrites the stored user, including credential fields.
func (r *UsersRepo) Save(ctx context.Context, u user.User) error {
	if err := u.Validate(); err != nil {
		return err
	}
	return r.Replace(u)
}

// SetClock is for tests that need deterministic timestamps.
func (r *UsersRepo) SetClock(now func() time.Time) {
	r.now = now
}
