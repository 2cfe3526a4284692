package notice

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"sqlapp/internal/adapters/storage"
	domain "sqlapp/internal/domain/notice"
)

const (
	canonicalFilename = "notices.json"
	legacyFilename    = "messages.json"
)

// envelope is the on-disk shape: {"messages": [...]}.
type envelope struct {
	Messages json.RawMessage `json:"messages"`
}

// FileStore implements Store over a single JSON file shared with earlier
// deployments. All read-modify-write sequences are serialized by one mutex;
// every operation is a small file read, an in-memory mutation and an atomic
// replace, so nothing slow ever runs under the lock.
type FileStore struct {
	mu   sync.Mutex
	path string
}

// NewFileStore creates a FileStore rooted at dataDir.
func NewFileStore(dataDir string) *FileStore {
	return &FileStore{path: filepath.Join(dataDir, canonicalFilename)}
}

// Load returns a snapshot of the notice list.
// POST: The canonical file exists; a legacy file has been migrated if found
func (s *FileStore) Load(_ context.Context) ([]domain.Notice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

// Update runs mutate under the store lock and persists the result.
// POST: The returned slice matches the persisted file
func (s *FileStore) Update(_ context.Context, mutate func(notices []domain.Notice) ([]domain.Notice, error)) ([]domain.Notice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	notices, err := s.load()
	if err != nil {
		return nil, err
	}
	notices, err = mutate(notices)
	if err != nil {
		return nil, err
	}
	if err := s.save(notices); err != nil {
		return nil, err
	}
	return notices, nil
}

// load reads and normalizes the notice list. Caller must hold s.mu.
func (s *FileStore) load() ([]domain.Notice, error) {
	if err := s.ensureCanonical(); err != nil {
		return nil, err
	}

	var env envelope
	if err := storage.ReadJSONFile(s.path, &env); err != nil {
		return nil, err
	}
	notices, migrated, err := decodeMessages(env.Messages)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", storage.ErrCorruptStore, canonicalFilename, err)
	}
	for i := range notices {
		notices[i].Normalize()
	}
	if migrated {
		// Rewrite the single-object schema as a list, once.
		if err := s.save(notices); err != nil {
			return nil, err
		}
		slog.Info("notice_store", "event", "schema_migrated", "entries", len(notices))
	}
	return notices, nil
}

// save overwrites the canonical file atomically. Caller must hold s.mu.
func (s *FileStore) save(notices []domain.Notice) error {
	if notices == nil {
		notices = []domain.Notice{}
	}
	return storage.WriteJSONFile(s.path, map[string]any{"messages": notices})
}

// ensureCanonical creates the canonical file on first use. When only the
// legacy file exists its contents are adopted verbatim, once; afterwards the
// legacy file is ignored. Caller must hold s.mu.
func (s *FileStore) ensureCanonical() error {
	if _, err := os.Stat(s.path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return err
	}

	legacy := filepath.Join(filepath.Dir(s.path), legacyFilename)
	if raw, err := os.ReadFile(legacy); err == nil {
		var env envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			return fmt.Errorf("%w: %s: %v", storage.ErrCorruptStore, legacyFilename, err)
		}
		if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
			return err
		}
		if err := os.WriteFile(s.path, raw, 0o644); err != nil {
			return err
		}
		slog.Info("notice_store", "event", "legacy_migrated", "from", legacyFilename, "to", canonicalFilename)
		return nil
	}

	return storage.WriteJSONFile(s.path, map[string]any{"messages": []domain.Notice{}})
}

// decodeMessages tolerates the legacy single-object shape: stores written
// before the list schema hold one notice object under "messages" instead of
// a list.
func decodeMessages(raw json.RawMessage) (notices []domain.Notice, migrated bool, err error) {
	if len(raw) == 0 || string(raw) == "null" {
		return []domain.Notice{}, false, nil
	}

	var list []domain.Notice
	if err := json.Unmarshal(raw, &list); err == nil {
		return list, false, nil
	}

	var single domain.Notice
	if err := json.Unmarshal(raw, &single); err != nil {
		return nil, false, err
	}
	return []domain.Notice{single}, true, nil
}
