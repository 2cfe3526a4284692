package sqlmenu

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	"sqlapp/internal/adapters/storage"
	domain "sqlapp/internal/domain/sqlmenu"
)

const configFilename = "sqlconfig.json"

// FileStore implements Store over per-user sqlconfig.json files, each
// holding a bare JSON list of entries.
type FileStore struct {
	usersDir string

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewFileStore creates a FileStore rooted at dataDir.
func NewFileStore(dataDir string) *FileStore {
	return &FileStore{
		usersDir: filepath.Join(dataDir, "users"),
		locks:    make(map[string]*sync.Mutex),
	}
}

func (s *FileStore) userLock(username string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[username]
	if !ok {
		l = &sync.Mutex{}
		s.locks[username] = l
	}
	return l
}

func (s *FileStore) path(username string) string {
	return filepath.Join(s.usersDir, username, configFilename)
}

// List returns the user's entries.
// POST: Returns an empty slice when the user has no shortcut file
func (s *FileStore) List(_ context.Context, username string) ([]domain.Entry, error) {
	l := s.userLock(username)
	l.Lock()
	defer l.Unlock()
	return s.load(username)
}

// Update runs mutate under the user's lock and persists the result.
func (s *FileStore) Update(_ context.Context, username string, mutate func(entries []domain.Entry) ([]domain.Entry, error)) error {
	l := s.userLock(username)
	l.Lock()
	defer l.Unlock()

	entries, err := s.load(username)
	if err != nil {
		return err
	}
	entries, err = mutate(entries)
	if err != nil {
		return err
	}
	if entries == nil {
		entries = []domain.Entry{}
	}
	return storage.WriteJSONFile(s.path(username), entries)
}

// load reads one user's file. Caller must hold the user's lock.
func (s *FileStore) load(username string) ([]domain.Entry, error) {
	var entries []domain.Entry
	err := storage.ReadJSONFile(s.path(username), &entries)
	if os.IsNotExist(err) {
		return []domain.Entry{}, nil
	}
	if err != nil {
		return nil, err
	}
	return entries, nil
}
