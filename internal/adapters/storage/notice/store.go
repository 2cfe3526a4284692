package notice

import (
	"context"

	domain "sqlapp/internal/domain/notice"
)

// Store persists the shared notice list.
type Store interface {
	// Load returns a consistent snapshot of the notice list in creation
	// order, normalized (see domain Normalize).
	Load(ctx context.Context) ([]domain.Notice, error)

	// Update runs a locked read-modify-write: the store's lock is held for
	// the whole load-mutate-save sequence, so concurrent updates never lose
	// writes. The mutated slice is persisted and returned.
	Update(ctx context.Context, mutate func(notices []domain.Notice) ([]domain.Notice, error)) ([]domain.Notice, error)
}
