package readstate

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"sqlapp/internal/adapters/storage"
)

const readFilename = "notices_read.json"

// envelope is the on-disk shape: {"read": {"<id>": "<timestamp>"}}.
type envelope struct {
	Read map[string]string `json:"read"`
}

// FileStore implements Store over per-user JSON files beneath
// <dataDir>/users/<name>/. Each user's file has its own lock; there is no
// cross-user contention.
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

// userLock returns the mutex guarding one user's file, creating it on first
// use.
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
	return filepath.Join(s.usersDir, username, readFilename)
}

// Load returns the user's read map.
// POST: Returns an empty map when the user has no read-state file
func (s *FileStore) Load(_ context.Context, username string) (map[string]string, error) {
	l := s.userLock(username)
	l.Lock()
	defer l.Unlock()
	return s.load(username)
}

// Update runs mutate under the user's lock and persists the result, creating
// the user's directory if absent.
func (s *FileStore) Update(_ context.Context, username string, mutate func(read map[string]string) (map[string]string, error)) error {
	l := s.userLock(username)
	l.Lock()
	defer l.Unlock()

	read, err := s.load(username)
	if err != nil {
		return err
	}
	read, err = mutate(read)
	if err != nil {
		return err
	}
	return storage.WriteJSONFile(s.path(username), envelope{Read: read})
}

// Usernames lists the user directories beneath the users dir, sorted.
// POST: Returns an empty slice when the users dir does not exist yet
func (s *FileStore) Usernames(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.usersDir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// load reads one user's file. Caller must hold the user's lock.
func (s *FileStore) load(username string) (map[string]string, error) {
	var env envelope
	err := storage.ReadJSONFile(s.path(username), &env)
	if os.IsNotExist(err) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, err
	}
	if env.Read == nil {
		env.Read = map[string]string{}
	}
	return env.Read, nil
}
