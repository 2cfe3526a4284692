package user

import (
	"context"

	domain "sqlapp/internal/domain/user"
)

// Store persists the shared user directory.
type Store interface {
	// List returns every user in directory order.
	List(ctx context.Context) ([]domain.User, error)

	// Get returns one user by name, or user.ErrNotFound.
	Get(ctx context.Context, username string) (domain.User, error)

	// Update runs a locked read-modify-write on the directory.
	Update(ctx context.Context, mutate func(users []domain.User) ([]domain.User, error)) error

	// EnsureDir creates the per-user storage directory if absent.
	EnsureDir(ctx context.Context, username string) error
}
