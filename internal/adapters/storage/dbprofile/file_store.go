package dbprofile

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"sqlapp/internal/adapters/storage"
	domain "sqlapp/internal/domain/dbprofile"
)

const configFilename = "dbconfig.json"

// FileStore implements Store over per-user dbconfig.json files. Stored
// passwords are XOR-obfuscated with the shared secret; files written by
// older deployments may hold a single object instead of a list, or plaintext
// passwords. Both are tolerated on read.
type FileStore struct {
	usersDir string
	secret   string

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewFileStore creates a FileStore rooted at dataDir using secret as the
// obfuscation key source.
func NewFileStore(dataDir, secret string) *FileStore {
	return &FileStore{
		usersDir: filepath.Join(dataDir, "users"),
		secret:   secret,
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

// List returns the user's profiles with passwords revealed.
// POST: Returns an empty slice when the user has no profile file
func (s *FileStore) List(_ context.Context, username string) ([]domain.Profile, error) {
	l := s.userLock(username)
	l.Lock()
	defer l.Unlock()
	return s.load(username)
}

// Update runs mutate under the user's lock and persists the result with
// passwords obfuscated.
func (s *FileStore) Update(_ context.Context, username string, mutate func(profiles []domain.Profile) ([]domain.Profile, error)) error {
	l := s.userLock(username)
	l.Lock()
	defer l.Unlock()

	profiles, err := s.load(username)
	if err != nil {
		return err
	}
	profiles, err = mutate(profiles)
	if err != nil {
		return err
	}
	if profiles == nil {
		profiles = []domain.Profile{}
	}
	stored := make([]domain.Profile, len(profiles))
	for i, p := range profiles {
		p.Password = domain.Obfuscate(p.Password, s.secret)
		stored[i] = p
	}
	return storage.WriteJSONFile(s.path(username), stored)
}

// load reads one user's file, migrating the legacy single-object shape and
// revealing passwords. Caller must hold the user's lock.
func (s *FileStore) load(username string) ([]domain.Profile, error) {
	raw, err := os.ReadFile(s.path(username))
	if os.IsNotExist(err) {
		return []domain.Profile{}, nil
	}
	if err != nil {
		return nil, err
	}

	var profiles []domain.Profile
	if err := json.Unmarshal(raw, &profiles); err != nil {
		// Old format: a single profile object.
		var single domain.Profile
		if err := json.Unmarshal(raw, &single); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", storage.ErrCorruptStore, configFilename, err)
		}
		profiles = []domain.Profile{single}
	}
	for i := range profiles {
		profiles[i].Password = domain.Reveal(profiles[i].Password, s.secret)
	}
	return profiles, nil
}
