package repository

import (
	"context"
	"errors"

	"github.com/brightform/userhub/internal/domain"
)

var (
	// ErrNotFound is returned when no user matches the lookup.
	ErrNotFound = errors.New("repository: user not found")
	// ErrDuplicateEmail is returned when an insert loses the uniqueness race.
	// The store constraint is the authoritative duplicate guard; callers may
	// pre-check but must still handle this error.
	ErrDuplicateEmail = errors.New("repository: duplicate email")
)

// UserRepository exposes persistence for provisioned user records.
type UserRepository interface {
	FindByEmail(ctx context.Context, email string) (domain.User, error)
	Create(ctx context.Context, user domain.User) (domain.User, error)
	// List returns every user in creation order, each carrying its owned
	// team references.
	List(ctx context.Context) ([]domain.User, error)
}
