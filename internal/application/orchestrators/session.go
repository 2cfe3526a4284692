package orchestrators

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"sqlapp/internal/adapters/session"
	auditstore "sqlapp/internal/adapters/storage/audit"
	userstore "sqlapp/internal/adapters/storage/user"
	"sqlapp/internal/domain/audit"
	domain "sqlapp/internal/domain/user"
)

// --- Login ---

// LoginInput carries input for the login orchestrator.
type LoginInput struct {
	Username string
	Password string
}

// LoginDeps holds dependencies for Login.
type LoginDeps struct {
	UserStore    userstore.Store
	Sessions     session.Store
	AuditStore   auditstore.Store
	Secret       string // shared secret for the legacy password digest
	SessionTTL   time.Duration
	NewSessionID func() string
	Now          func() time.Time
}

// LoginResult is the session handed back to a successfully logged-in user.
type LoginResult struct {
	SessionID string
	Username  string
	Role      string
}

// ExecuteLogin verifies credentials and opens a session. Unknown users and
// wrong passwords are indistinguishable to the caller.
// PRE: Username and Password are non-empty
// POST: Session stored with TTL; result carries the fresh session id
func ExecuteLogin(ctx context.Context, input LoginInput, deps LoginDeps) (LoginResult, error) {
	if input.Username == "" || input.Password == "" {
		return LoginResult{}, domain.ErrEmptyUsername
	}

	u, err := deps.UserStore.Get(ctx, input.Username)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return LoginResult{}, domain.ErrWrongPassword
		}
		return LoginResult{}, err
	}
	if u.Disabled() {
		return LoginResult{}, domain.ErrAccountDisabled
	}
	if err := u.CheckPassword(input.Password, deps.Secret); err != nil {
		return LoginResult{}, err
	}

	id := deps.NewSessionID()
	err = deps.Sessions.Put(ctx, id, session.Session{
		Username:  u.Username,
		Role:      u.Role,
		ExpiresAt: deps.Now().Add(deps.SessionTTL),
	})
	if err != nil {
		return LoginResult{}, err
	}

	recordAudit(ctx, deps.AuditStore, audit.NewEvent(deps.Now(), u.Username, audit.CategorySession, audit.ActionLogin))
	slog.Info("session_event", "event", "login", "username", u.Username, "role", u.Role)
	return LoginResult{SessionID: id, Username: u.Username, Role: u.Role}, nil
}

// --- Logout ---

// LogoutInput carries input for the logout orchestrator.
type LogoutInput struct {
	SessionID string
}

// LogoutDeps holds dependencies for Logout.
type LogoutDeps struct {
	Sessions session.Store
}

// ExecuteLogout discards a session. Logging out an unknown or already expired
// session is not an error.
// POST: Session id no longer resolves
func ExecuteLogout(ctx context.Context, input LogoutInput, deps LogoutDeps) error {
	if input.SessionID == "" {
		return nil
	}
	if err := deps.Sessions.Delete(ctx, input.SessionID); err != nil {
		return err
	}
	slog.Info("session_event", "event", "logout")
	return nil
}
