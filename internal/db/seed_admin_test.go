package db

import (
	"context"
	"testing"

	"github.com/geocoder89/tourhub/internal/domain/user"
	"github.com/geocoder89/tourhub/internal/repo/memory"
	"github.com/geocoder89/tourhub/internal/security"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureAdminUserSeedsMemoryStore(t *testing.T) {
	ctx := context.Background()
	users := memory.NewUsersRepo()
	hasher := security.NewHasher(4)
	seed := AdminSeed{Email: " Admin@Example.com", Password: "pass1234"}

	created, err := EnsureAdminUser(ctx, users, hasher, seed)
	require.NoError(t, err)
	assert.True(t, created)

	got, err := users.GetByEmail(ctx, "admin@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.RoleAdmin, got.Role)
	assert.Equal(t, "Admin", got.Name)
	assert.NoError(t, hasher.Check(got.PasswordHash, "pass1234"))

	created, err = EnsureAdminUser(ctx, users, hasher, seed)
	require.NoError(t, err)
	assert.False(t, created, "a second run keeps the existing admin")
}

func TestEnsureAdminUserSkipsEmptySeed(t *testing.T) {
	tests := []struct {
		name string
		seed AdminSeed
	}{
		{name: "nothing", seed: AdminSeed{}},
		{name: "no password", seed: AdminSeed{Email: "admin@example.com"}},
		{name: "no email", seed: AdminSeed{Password: "pass1234"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users := memory.NewUsersRepo()
			created, err := EnsureAdminUser(context.Background(), users, security.NewHasher(4), tt.seed)
			require.NoError(t, err)
			assert.False(t, created)
			assert.Empty(t, users.All())
		})
	}
}

func TestEnsureAdminUserLeavesDeactivatedOwner(t *testing.T) {
	ctx := context.Background()
	users := memory.NewUsersRepo()

	u, err := users.Create(ctx, user.CreateRequest{Name: "Old", Email: "admin@example.com", PasswordHash: "x"})
	require.NoError(t, err)
	u.Active = false
	require.NoError(t, users.Save(ctx, u))

	created, err := EnsureAdminUser(ctx, users, security.NewHasher(4), AdminSeed{Email: "admin@example.com", Password: "pass1234"})
	require.NoError(t, err)
	assert.False(t, created)

	_, err = users.GetByEmail(ctx, "admin@example.com")
	assert.ErrorIs(t, err, user.ErrNotFound, "no second account takes the email")
}
