package orchestrators

import (
	"context"
	"log/slog"

	dbstore "sqlapp/internal/adapters/storage/dbprofile"
	domain "sqlapp/internal/domain/dbprofile"
)

// DBProfileDeps holds the shared dependencies of the connection-profile
// orchestrators.
type DBProfileDeps struct {
	ProfileStore dbstore.Store
}

// --- Add Profile ---

// AddDBProfileInput carries input for the add profile orchestrator.
type AddDBProfileInput struct {
	Username string
	Profile  domain.Profile
}

// ExecuteAddDBProfile saves a connection profile for a user. Database names
// are unique within a user's list.
// PRE: Profile.Database is non-empty
// POST: Profile stored with its password obfuscated at rest
func ExecuteAddDBProfile(ctx context.Context, input AddDBProfileInput, deps DBProfileDeps) error {
	if input.Profile.Database == "" {
		return domain.ErrMissingDatabase
	}
	err := deps.ProfileStore.Update(ctx, input.Username, func(profiles []domain.Profile) ([]domain.Profile, error) {
		if domain.FindByDatabase(profiles, input.Profile.Database) >= 0 {
			return nil, domain.ErrDuplicateDatabase
		}
		return append(profiles, input.Profile), nil
	})
	if err != nil {
		return err
	}
	slog.Info("dbconfig_event", "event", "profile_added", "username", input.Username, "database", input.Profile.Database)
	return nil
}

// --- Delete Profile ---

// DeleteDBProfileInput carries input for the delete profile orchestrator.
type DeleteDBProfileInput struct {
	Username string
	Database string
}

// ExecuteDeleteDBProfile removes a profile by database name. Removing an
// absent profile is not an error.
// PRE: Database is non-empty
// POST: No profile with that database name remains
func ExecuteDeleteDBProfile(ctx context.Context, input DeleteDBProfileInput, deps DBProfileDeps) error {
	if input.Database == "" {
		return domain.ErrMissingDatabase
	}
	err := deps.ProfileStore.Update(ctx, input.Username, func(profiles []domain.Profile) ([]domain.Profile, error) {
		if i := domain.FindByDatabase(profiles, input.Database); i >= 0 {
			profiles = append(profiles[:i], profiles[i+1:]...)
		}
		return profiles, nil
	})
	if err != nil {
		return err
	}
	slog.Info("dbconfig_event", "event", "profile_deleted", "username", input.Username, "database", input.Database)
	return nil
}
