package orchestrators

import (
	"context"
	"log/slog"
	"time"

	menustore "sqlapp/internal/adapters/storage/sqlmenu"
	domain "sqlapp/internal/domain/sqlmenu"
)

// SQLMenuDeps holds the shared dependencies of the SQL shortcut orchestrators.
type SQLMenuDeps struct {
	MenuStore  menustore.Store
	GenerateID func() string
	Now        func() time.Time
}

// --- Create Entry ---

// CreateSQLMenuInput carries input for the create shortcut orchestrator.
type CreateSQLMenuInput struct {
	Username string
	MenuName string
	SQL      string
	DBName   string
}

// ExecuteCreateSQLMenu saves a new SQL shortcut. Menu names are unique within
// a user's list.
// PRE: MenuName and SQL are non-empty after trimming
// POST: Entry stored with a fresh id and creation timestamp
func ExecuteCreateSQLMenu(ctx context.Context, input CreateSQLMenuInput, deps SQLMenuDeps) (domain.Entry, error) {
	entry := domain.Entry{
		ID:        deps.GenerateID(),
		MenuName:  input.MenuName,
		SQL:       input.SQL,
		DBName:    input.DBName,
		CreatedAt: deps.Now().UTC().Format(time.RFC3339),
	}
	if err := entry.Validate(); err != nil {
		return domain.Entry{}, err
	}

	err := deps.MenuStore.Update(ctx, input.Username, func(entries []domain.Entry) ([]domain.Entry, error) {
		if domain.FindByName(entries, entry.MenuName) >= 0 {
			return nil, domain.ErrDuplicateName
		}
		return append(entries, entry), nil
	})
	if err != nil {
		return domain.Entry{}, err
	}
	slog.Info("sqlmenu_event", "event", "entry_created", "username", input.Username, "entry_id", entry.ID)
	return entry, nil
}

// --- Update Entry ---

// UpdateSQLMenuInput carries input for the update shortcut orchestrator.
type UpdateSQLMenuInput struct {
	Username string
	EntryID  string
	MenuName string
	SQL      string
	DBName   string
}

// ExecuteUpdateSQLMenu replaces the editable fields of an existing shortcut.
// PRE: entry with EntryID exists; MenuName and SQL are non-empty
// POST: Entry keeps its id and creation timestamp
func ExecuteUpdateSQLMenu(ctx context.Context, input UpdateSQLMenuInput, deps SQLMenuDeps) (domain.Entry, error) {
	updated := domain.Entry{MenuName: input.MenuName, SQL: input.SQL, DBName: input.DBName}
	if err := updated.Validate(); err != nil {
		return domain.Entry{}, err
	}

	var result domain.Entry
	err := deps.MenuStore.Update(ctx, input.Username, func(entries []domain.Entry) ([]domain.Entry, error) {
		i := domain.FindByID(entries, input.EntryID)
		if i < 0 {
			return nil, domain.ErrNotFound
		}
		if j := domain.FindByName(entries, input.MenuName); j >= 0 && j != i {
			return nil, domain.ErrDuplicateName
		}
		entries[i].MenuName = input.MenuName
		entries[i].SQL = input.SQL
		entries[i].DBName = input.DBName
		result = entries[i]
		return entries, nil
	})
	if err != nil {
		return domain.Entry{}, err
	}
	slog.Info("sqlmenu_event", "event", "entry_updated", "username", input.Username, "entry_id", input.EntryID)
	return result, nil
}

// --- Delete Entry ---

// DeleteSQLMenuInput carries input for the delete shortcut orchestrator.
type DeleteSQLMenuInput struct {
	Username string
	EntryID  string
}

// ExecuteDeleteSQLMenu removes a shortcut by id.
// PRE: entry with EntryID exists
// POST: No entry with that id remains
func ExecuteDeleteSQLMenu(ctx context.Context, input DeleteSQLMenuInput, deps SQLMenuDeps) error {
	err := deps.MenuStore.Update(ctx, input.Username, func(entries []domain.Entry) ([]domain.Entry, error) {
		i := domain.FindByID(entries, input.EntryID)
		if i < 0 {
			return nil, domain.ErrNotFound
		}
		return append(entries[:i], entries[i+1:]...), nil
	})
	if err != nil {
		return err
	}
	slog.Info("sqlmenu_event", "event", "entry_deleted", "username", input.Username, "entry_id", input.EntryID)
	return nil
}
