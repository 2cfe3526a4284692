package readstate

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"testing"
)

// TestLoadMissingUserIsEmpty verifies a user without a file has no reads.
func TestLoadMissingUserIsEmpty(t *testing.T) {
	store := NewFileStore(t.TempDir())

	read, err := store.Load(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(read) != 0 {
		t.Fatalf("expected empty map, got %v", read)
	}
}

// TestUpdateCreatesUserDirectory verifies first write provisions the layout.
func TestUpdateCreatesUserDirectory(t *testing.T) {
	store := NewFileStore(t.TempDir())

	err := store.Update(context.Background(), "ana", func(read map[string]string) (map[string]string, error) {
		read["1"] = "2025-06-01T12:00:00Z"
		return read, nil
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}

	read, err := store.Load(context.Background(), "ana")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if read["1"] != "2025-06-01T12:00:00Z" {
		t.Fatalf("expected persisted read entry, got %v", read)
	}
}

// TestUsernames verifies directory enumeration is sorted and tolerates a
// missing users dir.
func TestUsernames(t *testing.T) {
	store := NewFileStore(t.TempDir())

	names, err := store.Usernames(context.Background())
	if err != nil {
		t.Fatalf("Usernames: %v", err)
	}
	if len(names) != 0 {
		t.Fatalf("expected no users yet, got %v", names)
	}

	for _, u := range []string{"zoe", "ana", "ben"} {
		err := store.Update(context.Background(), u, func(read map[string]string) (map[string]string, error) {
			return read, nil
		})
		if err != nil {
			t.Fatal(err)
		}
	}

	names, err = store.Usernames(context.Background())
	if err != nil {
		t.Fatalf("Usernames: %v", err)
	}
	want := []string{"ana", "ben", "zoe"}
	if fmt.Sprint(names) != fmt.Sprint(want) {
		t.Fatalf("got %v, want %v", names, want)
	}
}

// TestConcurrentUpdatesSameUser verifies N concurrent writes for one user
// lose no entries.
func TestConcurrentUpdatesSameUser(t *testing.T) {
	store := NewFileStore(t.TempDir())
	const n = 20

	var wg sync.WaitGroup
	for i := 1; i <= n; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			err := store.Update(context.Background(), "ana", func(read map[string]string) (map[string]string, error) {
				read[strconv.Itoa(id)] = "2025-06-01T12:00:00Z"
				return read, nil
			})
			if err != nil {
				t.Errorf("Update %d: %v", id, err)
			}
		}(i)
	}
	wg.Wait()

	read, err := store.Load(context.Background(), "ana")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(read) != n {
		t.Fatalf("lost updates: expected %d entries, got %d", n, len(read))
	}
}
