package sqlmenu

import (
	"context"

	domain "sqlapp/internal/domain/sqlmenu"
)

// Store persists per-user saved SQL shortcuts.
type Store interface {
	// List returns the user's entries in saved order.
	List(ctx context.Context, username string) ([]domain.Entry, error)

	// Update runs a locked read-modify-write on one user's entry list.
	Update(ctx context.Context, username string, mutate func(entries []domain.Entry) ([]domain.Entry, error)) error
}
