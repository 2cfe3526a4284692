package dbprofile

import (
	"context"

	domain "sqlapp/internal/domain/dbprofile"
)

// Store persists per-user MySQL connection profiles.
type Store interface {
	// List returns the user's profiles with passwords revealed.
	List(ctx context.Context, username string) ([]domain.Profile, error)

	// Update runs a locked read-modify-write on one user's profile list.
	// The mutate callback sees revealed passwords; obfuscation is applied
	// on save.
	Update(ctx context.Context, username string, mutate func(profiles []domain.Profile) ([]domain.Profile, error)) error
}
