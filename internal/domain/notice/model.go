package notice

import (
	"errors"
	"strings"
	"time"
)

// Domain errors
var (
	ErrEmptyTitle = errors.New("title required")
	ErrNotFound   = errors.New("notice not found")
)

// Notice represents a broadcast message shown to every user.
// The JSON tags match the on-disk notices.json format and must not change:
// existing deployments share these files.
type Notice struct {
	ID     int    `json:"id"`
	Title  string `json:"title"`
	Body   string `json:"body"`
	Footer string `json:"footer"`
	// Pushed is derived on load (see Normalize) and persisted going forward.
	// Stores written before the flag existed only carry pushedAt.
	Pushed   bool   `json:"pushed"`
	PushedAt string `json:"pushedAt,omitempty"`
}

// Validate checks if the Notice has valid data.
// PRE: Notice struct is populated
// POST: Returns nil if valid, error otherwise
func (n *Notice) Validate() error {
	if strings.TrimSpace(n.Title) == "" {
		return ErrEmptyTitle
	}
	return nil
}

// Normalize resolves the derived pushed flag after a load. Downstream code
// only ever sees the resolved boolean; the pushedAt-presence inference is a
// one-way compatibility shim for stores written before the flag was persisted.
// POST: Pushed is true iff the stored flag was set or PushedAt is non-empty
func (n *Notice) Normalize() {
	if n.PushedAt != "" {
		n.Pushed = true
	}
}

// MarkPushed records the push timestamp. Idempotent: a notice that is already
// pushed is left untouched.
// POST: Returns true if the notice transitioned to pushed
func (n *Notice) MarkPushed(now time.Time) bool {
	if n.Pushed {
		return false
	}
	n.Pushed = true
	n.PushedAt = FormatTime(now)
	return true
}

// NextID returns the id for a new notice: max existing id + 1, or 1 when the
// list is empty. Ids are never reused after deletion.
// INVARIANT: notices slice is not mutated
func NextID(notices []Notice) int {
	next := 1
	for _, n := range notices {
		if n.ID >= next {
			next = n.ID + 1
		}
	}
	return next
}

// FindByID returns the index of the notice with the given id, or -1.
func FindByID(notices []Notice, id int) int {
	for i, n := range notices {
		if n.ID == id {
			return i
		}
	}
	return -1
}

// FormatTime renders a timestamp in the stored wire format: RFC 3339 UTC with
// a trailing Z, matching the files written by earlier deployments.
func FormatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
