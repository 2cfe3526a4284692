package user

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	"sqlapp/internal/adapters/storage"
	domain "sqlapp/internal/domain/user"
)

const configFilename = "user.config.json"

// envelope is the on-disk shape: {"users": [...]}.
type envelope struct {
	Users []domain.User `json:"users"`
}

// FileStore implements Store over the shared user.config.json file.
type FileStore struct {
	mu       sync.Mutex
	path     string
	usersDir string
}

// NewFileStore creates a FileStore rooted at dataDir.
func NewFileStore(dataDir string) *FileStore {
	return &FileStore{
		path:     filepath.Join(dataDir, configFilename),
		usersDir: filepath.Join(dataDir, "users"),
	}
}

// List returns every user.
// POST: Returns an empty slice when the config file does not exist yet
func (s *FileStore) List(_ context.Context) ([]domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

// Get returns one user by name.
// POST: Returns user.ErrNotFound when the name is unknown
func (s *FileStore) Get(ctx context.Context, username string) (domain.User, error) {
	users, err := s.List(ctx)
	if err != nil {
		return domain.User{}, err
	}
	for _, u := range users {
		if u.Username == username {
			return u, nil
		}
	}
	return domain.User{}, domain.ErrNotFound
}

// Update runs mutate under the store lock and persists the result.
func (s *FileStore) Update(_ context.Context, mutate func(users []domain.User) ([]domain.User, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.load()
	if err != nil {
		return err
	}
	users, err = mutate(users)
	if err != nil {
		return err
	}
	if users == nil {
		users = []domain.User{}
	}
	return storage.WriteJSONFile(s.path, envelope{Users: users})
}

// EnsureDir creates the per-user storage directory if absent.
func (s *FileStore) EnsureDir(_ context.Context, username string) error {
	return os.MkdirAll(filepath.Join(s.usersDir, username), 0o755)
}

// load reads the directory file. Caller must hold s.mu.
func (s *FileStore) load() ([]domain.User, error) {
	var env envelope
	err := storage.ReadJSONFile(s.path, &env)
	if os.IsNotExist(err) {
		return []domain.User{}, nil
	}
	if err != nil {
		return nil, err
	}
	return env.Users, nil
}
