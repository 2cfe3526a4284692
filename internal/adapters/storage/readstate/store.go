package readstate

import "context"

// Store persists, per user, the map from notice id (string key) to the
// timestamp at which that user first marked the notice read. A notice absent
// from the map is unread for that user.
type Store interface {
	// Load returns the user's read map; empty when the user has none yet.
	Load(ctx context.Context, username string) (map[string]string, error)

	// Update runs a locked read-modify-write on one user's read map. Locks
	// are scoped per user: two users updating concurrently never block each
	// other, two requests for the same user never interleave.
	Update(ctx context.Context, username string, mutate func(read map[string]string) (map[string]string, error)) error

	// Usernames enumerates every user known to have a storage directory.
	Usernames(ctx context.Context) ([]string, error)
}
