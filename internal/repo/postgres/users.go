package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/geocoder89/tourhub/internal/domain/user"
	"github.com/geocoder89/tourhub/internal/observability"
	"github.com/geocoder89/tourhub/internal/query"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const userColumns = `id::text, name, email, photo, role, password_hash, password_changed_at,
	password_reset_token, password_reset_expires, active, created_at, updated_at`

// inactive users are invisible to every lookup
const activeOnly = "active"

type UsersRepo struct {
	repo
	now func() time.Time
}

func NewUsersRepo(pool *pgxpool.Pool, prom *observability.Prom) *UsersRepo {
	return &UsersRepo{repo: repo{pool: pool, prom: prom}, now: time.Now}
}

func scanUser(row rowScanner) (user.User, error) {
	var u user.User
	err := row.Scan(
		&u.ID,
		&u.Name,
		&u.Email,
		&u.Photo,
		&u.Role,
		&u.PasswordHash,
		&u.PasswordChangedAt,
		&u.PasswordResetToken,
		&u.PasswordResetExpires,
		&u.Active,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	return u, err
}

func (r *UsersRepo) Count(ctx context.Context, spec query.Spec) (int, error) {
	return r.count(ctx, "users.count", "users", activeOnly, spec, user.Schema)
}

func (r *UsersRepo) Find(ctx context.Context, spec query.Spec) ([]user.User, error) {
	return find(ctx, r.repo, "users.find", userColumns, "users", activeOnly, spec, user.Schema, scanUser)
}

func (r *UsersRepo) GetByID(ctx context.Context, id string) (user.User, error) {
	if !validID(id) {
		return user.User{}, user.ErrNotFound
	}
	return getOne(ctx, r.repo, "users.get_by_id", user.ErrNotFound, scanUser,
		`SELECT `+userColumns+` FROM users WHERE id = $1 AND active`, id)
}

func (r *UsersRepo) GetByEmail(ctx context.Context, email string) (user.User, error) {
	return getOne(ctx, r.repo, "users.get_by_email", user.ErrNotFound, scanUser,
		`SELECT `+userColumns+` FROM users WHERE email = $1 AND active`, user.NormalizeEmail(email))
}

// GetByResetDigest finds the user holding digest. Expiry is checked by the
// caller against its own clock.
func (r *UsersRepo) GetByResetDigest(ctx context.Context, digest string) (user.User, error) {
	return getOne(ctx, r.repo, "users.get_by_reset_digest", user.ErrNotFound, scanUser,
		`SELECT `+userColumns+` FROM users WHERE password_reset_token = $1 AND active`, digest)
}

// Create is the admin create; the password is already hashed.
func (r *UsersRepo) Create(ctx context.Context, req user.CreateRequest) (user.User, error) {
	u := user.NewFromCreateRequest(req, r.now())
	if err := u.Validate(); err != nil {
		return user.User{}, err
	}
	if err := r.Insert(ctx, u); err != nil {
		return user.User{}, err
	}
	return u, nil
}

func (r *UsersRepo) Insert(ctx context.Context, u user.User) error {
	return r.observe("users.insert", func() error {
		_, err := r.pool.Exec(ctx,
			`INSERT INTO users (id, name, email, photo, role, password_hash, password_changed_at,
				password_reset_token, password_reset_expires, active, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
			u.ID, u.Name, u.Email, u.Photo, string(u.Role), u.PasswordHash, u.PasswordChangedAt,
			u.PasswordResetToken, u.PasswordResetExpires, u.Active, u.CreatedAt, u.UpdatedAt,
		)
		return err
	})
}

// Save writes every mutable column of u.
func (r *UsersRepo) Save(ctx context.Context, u user.User) error {
	if !validID(u.ID) {
		return user.ErrNotFound
	}
	err := r.observe("users.save", func() error {
		tag, err := r.pool.Exec(ctx,
			`UPDATE users
			SET name = $2,
				email = $3,
				photo = $4,
				role = $5,
				password_hash = $6,
				password_changed_at = $7,
				password_reset_token = $8,
				password_reset_expires = $9,
				active = $10,
				updated_at = $11
			WHERE id = $1`,
			u.ID, u.Name, u.Email, u.Photo, string(u.Role), u.PasswordHash, u.PasswordChangedAt,
			u.PasswordResetToken, u.PasswordResetExpires, u.Active, u.UpdatedAt,
		)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return pgx.ErrNoRows
		}
		return nil
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return user.ErrNotFound
	}
	return err
}

func (r *UsersRepo) Update(ctx context.Context, id string, req user.UpdateRequest) (user.User, error) {
	if !validID(id) {
		return user.User{}, user.ErrNotFound
	}

	return updateTx(ctx, r.repo, "users.update", user.ErrNotFound,
		func(tx pgx.Tx) (user.User, error) {
			return scanUser(tx.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1 AND active FOR UPDATE`, id))
		},
		func(u *user.User) error {
			user.ApplyUpdate(u, req, r.now())
			return u.Validate()
		},
		func(tx pgx.Tx, u user.User) error {
			_, err := tx.Exec(ctx,
				`UPDATE users SET name = $2, email = $3, photo = $4, role = $5, active = $6, updated_at = $7 WHERE id = $1`,
				u.ID, u.Name, u.Email, u.Photo, string(u.Role), u.Active, u.UpdatedAt,
			)
			return err
		},
	)
}

func (r *UsersRepo) Delete(ctx context.Context, id string) error {
	return r.deleteByID(ctx, "users.delete", "users", id, user.ErrNotFound)
}
