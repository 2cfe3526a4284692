package orchestrators

import (
	"context"
	"log/slog"
	"time"

	auditstore "sqlapp/internal/adapters/storage/audit"
	userstore "sqlapp/internal/adapters/storage/user"
	"sqlapp/internal/domain/audit"
	domain "sqlapp/internal/domain/user"
)

// UserDeps holds the shared dependencies of the user-directory orchestrators.
type UserDeps struct {
	UserStore  userstore.Store
	AuditStore auditstore.Store
	Secret     string
	Now        func() time.Time
}

// --- Create User ---

// CreateUserInput carries input for the create user orchestrator.
type CreateUserInput struct {
	Username string
	Password string
	Role     string
	Actor    string
}

// ExecuteCreateUser adds an account to the directory and provisions its
// storage directory. Unknown roles are clamped to USER.
// PRE: Username and Password are non-empty
// POST: Directory contains the account; users/<name>/ exists
func ExecuteCreateUser(ctx context.Context, input CreateUserInput, deps UserDeps) (domain.User, error) {
	if input.Username == "" || input.Password == "" {
		return domain.User{}, domain.ErrEmptyUsername
	}

	u := domain.User{
		Username: input.Username,
		Status:   domain.StatusActive,
		Role:     domain.NormalizeRole(input.Role),
	}
	if err := u.SetPassword(input.Password, deps.Secret); err != nil {
		return domain.User{}, err
	}

	err := deps.UserStore.Update(ctx, func(users []domain.User) ([]domain.User, error) {
		for _, existing := range users {
			if existing.Username == u.Username {
				return nil, domain.ErrAlreadyExists
			}
		}
		return append(users, u), nil
	})
	if err != nil {
		return domain.User{}, err
	}
	if err := deps.UserStore.EnsureDir(ctx, u.Username); err != nil {
		return domain.User{}, err
	}

	recordAudit(ctx, deps.AuditStore, audit.NewEvent(deps.Now(), input.Actor, audit.CategoryUser, audit.ActionCreate).
		WithResource(u.Username).
		WithDetail("role "+u.Role))
	slog.Info("user_event", "event", "user_created", "username", u.Username, "role", u.Role, "actor", input.Actor)
	return u, nil
}

// --- Set Password ---

// SetUserPasswordInput carries input for the password orchestrator.
type SetUserPasswordInput struct {
	Username string
	Password string
	Actor    string
}

// ExecuteSetUserPassword replaces an account's password in both schemes.
// PRE: account exists; Password is non-empty
// POST: Old password no longer verifies
func ExecuteSetUserPassword(ctx context.Context, input SetUserPasswordInput, deps UserDeps) error {
	if input.Password == "" {
		return domain.ErrEmptyPassword
	}
	err := deps.UserStore.Update(ctx, func(users []domain.User) ([]domain.User, error) {
		for i := range users {
			if users[i].Username == input.Username {
				if err := users[i].SetPassword(input.Password, deps.Secret); err != nil {
					return nil, err
				}
				return users, nil
			}
		}
		return nil, domain.ErrNotFound
	})
	if err != nil {
		return err
	}

	recordAudit(ctx, deps.AuditStore, audit.NewEvent(deps.Now(), input.Actor, audit.CategoryUser, audit.ActionUpdate).
		WithResource(input.Username).
		WithDetail("password changed"))
	slog.Info("user_event", "event", "password_changed", "username", input.Username, "actor", input.Actor)
	return nil
}

// --- Set Status ---

// SetUserStatusInput carries input for the status orchestrator.
type SetUserStatusInput struct {
	Username string
	Status   int
	Actor    string
}

// ExecuteSetUserStatus enables or disables an account.
// PRE: account exists; Status is 0 or 1
// POST: Disabled accounts fail login until re-enabled
func ExecuteSetUserStatus(ctx context.Context, input SetUserStatusInput, deps UserDeps) error {
	if input.Status != domain.StatusActive && input.Status != domain.StatusDisabled {
		return domain.ErrInvalidStatus
	}
	err := deps.UserStore.Update(ctx, func(users []domain.User) ([]domain.User, error) {
		for i := range users {
			if users[i].Username == input.Username {
				users[i].Status = input.Status
				return users, nil
			}
		}
		return nil, domain.ErrNotFound
	})
	if err != nil {
		return err
	}

	recordAudit(ctx, deps.AuditStore, audit.NewEvent(deps.Now(), input.Actor, audit.CategoryUser, audit.ActionUpdate).
		WithResource(input.Username).
		WithDetail("status changed"))
	slog.Info("user_event", "event", "status_changed", "username", input.Username, "status", input.Status, "actor", input.Actor)
	return nil
}

// --- Set Role ---

// SetUserRoleInput carries input for the role orchestrator.
type SetUserRoleInput struct {
	Username string
	Role     string
	Actor    string
}

// ExecuteSetUserRole changes an account's role. Unknown roles clamp to USER.
// PRE: account exists
// POST: Account role is USER or SUPER
func ExecuteSetUserRole(ctx context.Context, input SetUserRoleInput, deps UserDeps) error {
	role := domain.NormalizeRole(input.Role)
	err := deps.UserStore.Update(ctx, func(users []domain.User) ([]domain.User, error) {
		for i := range users {
			if users[i].Username == input.Username {
				users[i].Role = role
				return users, nil
			}
		}
		return nil, domain.ErrNotFound
	})
	if err != nil {
		return err
	}

	recordAudit(ctx, deps.AuditStore, audit.NewEvent(deps.Now(), input.Actor, audit.CategoryUser, audit.ActionUpdate).
		WithResource(input.Username).
		WithDetail("role "+role))
	slog.Info("user_event", "event", "role_changed", "username", input.Username, "role", role, "actor", input.Actor)
	return nil
}

// --- Seed Admin ---

// SeedAdminInput carries input for the admin seeding orchestrator.
type SeedAdminInput struct {
	Username string
	Password string
}

// ExecuteSeedAdmin creates the initial SUPER account when the directory is
// empty. A populated directory is left untouched.
// POST: Directory contains at least one account
func ExecuteSeedAdmin(ctx context.Context, input SeedAdminInput, deps UserDeps) error {
	users, err := deps.UserStore.List(ctx)
	if err != nil {
		return err
	}
	if len(users) > 0 {
		return nil
	}

	_, err = ExecuteCreateUser(ctx, CreateUserInput{
		Username: input.Username,
		Password: input.Password,
		Role:     domain.RoleSuper,
		Actor:    "system",
	}, deps)
	if err != nil {
		return err
	}
	slog.Info("user_event", "event", "admin_seeded", "username", input.Username)
	return nil
}
