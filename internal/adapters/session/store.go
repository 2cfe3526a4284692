package session

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Session is a server-side login session referenced by the sessionId carried
// in tokens and headers.
type Session struct {
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Store holds active sessions with a TTL. Implementations must expire
// entries on their own; Get never returns an expired session.
type Store interface {
	Put(ctx context.Context, id string, sess Session) error
	Get(ctx context.Context, id string) (Session, bool, error)
	Delete(ctx context.Context, id string) error
}

// NewID formats a fresh session id the way existing clients expect:
// four dash-separated slices of a uuid4 hex string.
func NewID() string {
	h := fmt.Sprintf("%x", [16]byte(uuid.New()))
	return h[0:4] + "-" + h[4:10] + "-" + h[10:15] + "-" + h[15:20]
}
