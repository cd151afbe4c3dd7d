//go:build integration

package repository_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"

	"github.com/brightform/userhub/internal/domain"
	"github.com/brightform/userhub/internal/repository"
)

func setupDB(t *testing.T) *pgxpool.Pool {
	t.Helper()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		t.Fatal("DATABASE_URL must be set for integration tests")
	}

	pool, err := pgxpool.New(context.Background(), dbURL)
	if err != nil {
		t.Fatalf("failed to connect db: %v", err)
	}
	t.Cleanup(pool.Close)
	return pool
}

func TestPostgresUserRepoRoundTrip(t *testing.T) {
	pool := setupDB(t)
	repo := repository.NewPostgresUserRepo(pool)
	ctx := context.Background()

	email := fmt.Sprintf("it-%d@example.com", time.Now().UnixNano())
	user := domain.User{
		ID:           fmt.Sprintf("it-%d", time.Now().UnixNano()),
		Name:         "Integration",
		Email:        email,
		PasswordHash: "$argon2id$v=19$m=65536,t=3,p=2$c2FsdA$aGFzaA",
		Role:         domain.RoleAdmin,
	}

	created, err := repo.Create(ctx, user)
	require.NoError(t, err)
	require.Equal(t, user.ID, created.ID)
	require.False(t, created.CreatedAt.IsZero())

	found, err := repo.FindByEmail(ctx, email)
	require.NoError(t, err)
	require.Equal(t, user.ID, found.ID)

	_, err = repo.Create(ctx, domain.User{
		ID:           user.ID + "-dup",
		Name:         "Duplicate",
		Email:        email,
		PasswordHash: user.PasswordHash,
		Role:         domain.RoleAdmin,
	})
	require.ErrorIs(t, err, repository.ErrDuplicateEmail)

	listed, err := repo.List(ctx)
	require.NoError(t, err)
	var seen bool
	for _, u := range listed {
		if u.Email == email {
			seen = true
		}
	}
	require.True(t, seen)
}

func TestPostgresUserRepoFindMissing(t *testing.T) {
	pool := setupDB(t)
	repo := repository.NewPostgresUserRepo(pool)

	_, err := repo.FindByEmail(context.Background(), "nobody@example.com")
	require.ErrorIs(t, err, repository.ErrNotFound)
}
