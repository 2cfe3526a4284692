package session

import (
	"context"
	"regexp"
	"testing"
	"time"
)

// TestMemoryStoreRoundTrip verifies put, get and delete.
func TestMemoryStoreRoundTrip(t *testing.T) {
	store := NewMemoryStore(time.Hour)
	defer store.Stop()
	ctx := context.Background()

	sess := Session{Username: "ana", Role: "USER", ExpiresAt: time.Now().Add(time.Hour)}
	if err := store.Put(ctx, "abc", sess); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, ok, err := store.Get(ctx, "abc")
	if err != nil || !ok {
		t.Fatalf("Get: ok=%v err=%v", ok, err)
	}
	if got.Username != "ana" || got.Role != "USER" {
		t.Fatalf("unexpected session: %+v", got)
	}

	if err := store.Delete(ctx, "abc"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, ok, _ := store.Get(ctx, "abc"); ok {
		t.Fatal("expected session gone after delete")
	}
}

// TestMemoryStoreExpires verifies the TTL is enforced.
func TestMemoryStoreExpires(t *testing.T) {
	store := NewMemoryStore(30 * time.Millisecond)
	defer store.Stop()
	ctx := context.Background()

	if err := store.Put(ctx, "short", Session{Username: "ana"}); err != nil {
		t.Fatal(err)
	}
	time.Sleep(100 * time.Millisecond)

	if _, ok, _ := store.Get(ctx, "short"); ok {
		t.Fatal("expected session expired")
	}
}

// TestNewIDFormat verifies the dash-separated uuid hex slices clients expect.
func TestNewIDFormat(t *testing.T) {
	pattern := regexp.MustCompile(`^[0-9a-f]{4}-[0-9a-f]{6}-[0-9a-f]{5}-[0-9a-f]{5}$`)
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		id := NewID()
		if !pattern.MatchString(id) {
			t.Fatalf("unexpected id format: %q", id)
		}
		if seen[id] {
			t.Fatalf("duplicate id: %q", id)
		}
		seen[id] = true
	}
}
