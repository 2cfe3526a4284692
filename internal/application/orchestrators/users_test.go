package orchestrators

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"sqlapp/internal/adapters/session"
	domain "sqlapp/internal/domain/user"
)

// memUserStore is an in-memory user.Store for orchestrator tests.
type memUserStore struct {
	mu    sync.Mutex
	users []domain.User
	dirs  map[string]bool
}

func newMemUserStore() *memUserStore {
	return &memUserStore{dirs: make(map[string]bool)}
}

func (s *memUserStore) List(context.Context) ([]domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.User, len(s.users))
	copy(out, s.users)
	return out, nil
}

func (s *memUserStore) Get(_ context.Context, username string) (domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Username == username {
			return u, nil
		}
	}
	return domain.User{}, domain.ErrNotFound
}

func (s *memUserStore) Update(_ context.Context, mutate func([]domain.User) ([]domain.User, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	work := make([]domain.User, len(s.users))
	copy(work, s.users)
	work, err := mutate(work)
	if err != nil {
		return err
	}
	s.users = work
	return nil
}

func (s *memUserStore) EnsureDir(_ context.Context, username string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dirs[username] = true
	return nil
}

// memSessionStore is an in-memory session.Store for orchestrator tests.
type memSessionStore struct {
	mu       sync.Mutex
	sessions map[string]session.Session
}

func newMemSessionStore() *memSessionStore {
	return &memSessionStore{sessions: make(map[string]session.Session)}
}

func (s *memSessionStore) Put(_ context.Context, id string, sess session.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[id] = sess
	return nil
}

func (s *memSessionStore) Get(_ context.Context, id string) (session.Session, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	return sess, ok, nil
}

func (s *memSessionStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}

func testUserDeps(store *memUserStore) UserDeps {
	return UserDeps{UserStore: store, Secret: "test-secret", Now: fixedClock}
}

// TestCreateUserProvisionsDirectory verifies a created account gets its
// storage directory.
func TestCreateUserProvisionsDirectory(t *testing.T) {
	store := newMemUserStore()

	u, err := ExecuteCreateUser(context.Background(), CreateUserInput{
		Username: "ana", Password: "pw", Role: "SUPER",
	}, testUserDeps(store))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if u.Role != domain.RoleSuper || u.Status != domain.StatusActive {
		t.Fatalf("unexpected user: %+v", u)
	}
	if !store.dirs["ana"] {
		t.Fatal("expected user directory provisioned")
	}
}

// TestCreateUserDuplicate verifies duplicate usernames are rejected.
func TestCreateUserDuplicate(t *testing.T) {
	store := newMemUserStore()
	deps := testUserDeps(store)

	if _, err := ExecuteCreateUser(context.Background(), CreateUserInput{Username: "ana", Password: "pw"}, deps); err != nil {
		t.Fatal(err)
	}
	_, err := ExecuteCreateUser(context.Background(), CreateUserInput{Username: "ana", Password: "other"}, deps)
	if !errors.Is(err, domain.ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
}

// TestCreateUserClampsRole verifies unknown roles become USER.
func TestCreateUserClampsRole(t *testing.T) {
	store := newMemUserStore()
	u, err := ExecuteCreateUser(context.Background(), CreateUserInput{
		Username: "ben", Password: "pw", Role: "WIZARD",
	}, testUserDeps(store))
	if err != nil {
		t.Fatal(err)
	}
	if u.Role != domain.RoleUser {
		t.Fatalf("expected role clamped to USER, got %q", u.Role)
	}
}

// TestSetUserStatusValidates verifies only 0 and 1 are accepted.
func TestSetUserStatusValidates(t *testing.T) {
	store := newMemUserStore()
	deps := testUserDeps(store)
	if _, err := ExecuteCreateUser(context.Background(), CreateUserInput{Username: "ana", Password: "pw"}, deps); err != nil {
		t.Fatal(err)
	}

	err := ExecuteSetUserStatus(context.Background(), SetUserStatusInput{Username: "ana", Status: 7}, deps)
	if !errors.Is(err, domain.ErrInvalidStatus) {
		t.Fatalf("expected ErrInvalidStatus, got %v", err)
	}

	if err := ExecuteSetUserStatus(context.Background(), SetUserStatusInput{Username: "ana", Status: domain.StatusDisabled}, deps); err != nil {
		t.Fatalf("disable: %v", err)
	}
	u, err := store.Get(context.Background(), "ana")
	if err != nil {
		t.Fatal(err)
	}
	if !u.Disabled() {
		t.Fatal("expected account disabled")
	}
}

// TestSeedAdminIdempotent verifies seeding only runs on an empty directory.
func TestSeedAdminIdempotent(t *testing.T) {
	store := newMemUserStore()
	deps := testUserDeps(store)
	input := SeedAdminInput{Username: "admin", Password: "pw"}

	if err := ExecuteSeedAdmin(context.Background(), input, deps); err != nil {
		t.Fatalf("seed: %v", err)
	}
	u, err := store.Get(context.Background(), "admin")
	if err != nil {
		t.Fatal(err)
	}
	if u.Role != domain.RoleSuper {
		t.Fatalf("expected SUPER seed, got %q", u.Role)
	}

	if err := ExecuteSeedAdmin(context.Background(), input, deps); err != nil {
		t.Fatalf("second seed: %v", err)
	}
	users, _ := store.List(context.Background())
	if len(users) != 1 {
		t.Fatalf("expected seeding to be one-shot, got %d users", len(users))
	}
}

func testLoginDeps(store *memUserStore, sessions *memSessionStore) LoginDeps {
	return LoginDeps{
		UserStore:    store,
		Sessions:     sessions,
		Secret:       "test-secret",
		SessionTTL:   time.Hour,
		NewSessionID: session.NewID,
		Now:          fixedClock,
	}
}

// TestLoginStoresSession verifies a successful login opens a session
// carrying the account's role.
func TestLoginStoresSession(t *testing.T) {
	store := newMemUserStore()
	sessions := newMemSessionStore()
	if _, err := ExecuteCreateUser(context.Background(), CreateUserInput{Username: "ana", Password: "pw", Role: "SUPER"}, testUserDeps(store)); err != nil {
		t.Fatal(err)
	}

	result, err := ExecuteLogin(context.Background(), LoginInput{Username: "ana", Password: "pw"}, testLoginDeps(store, sessions))
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	sess, ok, _ := sessions.Get(context.Background(), result.SessionID)
	if !ok || sess.Username != "ana" || sess.Role != domain.RoleSuper {
		t.Fatalf("unexpected stored session: ok=%v %+v", ok, sess)
	}
	if !sess.ExpiresAt.Equal(fixedNow.Add(time.Hour)) {
		t.Fatalf("unexpected expiry: %v", sess.ExpiresAt)
	}
}

// TestLoginFailuresIndistinguishable verifies unknown users and wrong
// passwords yield the same error.
func TestLoginFailuresIndistinguishable(t *testing.T) {
	store := newMemUserStore()
	sessions := newMemSessionStore()
	if _, err := ExecuteCreateUser(context.Background(), CreateUserInput{Username: "ana", Password: "pw"}, testUserDeps(store)); err != nil {
		t.Fatal(err)
	}
	deps := testLoginDeps(store, sessions)

	_, wrongPass := ExecuteLogin(context.Background(), LoginInput{Username: "ana", Password: "nope"}, deps)
	_, unknown := ExecuteLogin(context.Background(), LoginInput{Username: "ghost", Password: "nope"}, deps)
	if !errors.Is(wrongPass, domain.ErrWrongPassword) || !errors.Is(unknown, domain.ErrWrongPassword) {
		t.Fatalf("expected ErrWrongPassword for both, got %v and %v", wrongPass, unknown)
	}
}

// TestLoginDisabledAccount verifies disabled accounts cannot log in.
func TestLoginDisabledAccount(t *testing.T) {
	store := newMemUserStore()
	sessions := newMemSessionStore()
	deps := testUserDeps(store)
	if _, err := ExecuteCreateUser(context.Background(), CreateUserInput{Username: "ana", Password: "pw"}, deps); err != nil {
		t.Fatal(err)
	}
	if err := ExecuteSetUserStatus(context.Background(), SetUserStatusInput{Username: "ana", Status: domain.StatusDisabled}, deps); err != nil {
		t.Fatal(err)
	}

	_, err := ExecuteLogin(context.Background(), LoginInput{Username: "ana", Password: "pw"}, testLoginDeps(store, sessions))
	if !errors.Is(err, domain.ErrAccountDisabled) {
		t.Fatalf("expected ErrAccountDisabled, got %v", err)
	}
}

// TestLogoutRemovesSession verifies the session id stops resolving.
func TestLogoutRemovesSession(t *testing.T) {
	store := newMemUserStore()
	sessions := newMemSessionStore()
	if _, err := ExecuteCreateUser(context.Background(), CreateUserInput{Username: "ana", Password: "pw"}, testUserDeps(store)); err != nil {
		t.Fatal(err)
	}
	result, err := ExecuteLogin(context.Background(), LoginInput{Username: "ana", Password: "pw"}, testLoginDeps(store, sessions))
	if err != nil {
		t.Fatal(err)
	}

	if err := ExecuteLogout(context.Background(), LogoutInput{SessionID: result.SessionID}, LogoutDeps{Sessions: sessions}); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if _, ok, _ := sessions.Get(context.Background(), result.SessionID); ok {
		t.Fatal("expected session removed")
	}
}
