package audit

import (
	"context"
	"log/slog"
	"time"

	"sqlapp/internal/adapters/storage"
	domain "sqlapp/internal/domain/audit"
)

const timeLayout = "2006-01-02T15:04:05.999999999Z07:00"

// Ensure SQLiteStore implements Store interface.
var _ Store = (*SQLiteStore)(nil)

// SQLiteStore implements the audit Store interface using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new audit event store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// Save persists an audit event.
// PRE: event is valid
// POST: Event is persisted
func (s *SQLiteStore) Save(ctx context.Context, event domain.Event) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO audit_event (id, timestamp, category, action, actor, resource_id, detail)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		event.ID, event.Timestamp.UTC().Format(timeLayout), string(event.Category),
		string(event.Action), event.Actor, event.ResourceID, event.Detail)
	return err
}

// List returns audit events with optional filtering.
// PRE: limit > 0
// POST: Returns events ordered by timestamp desc
func (s *SQLiteStore) List(ctx context.Context, filter Filter, limit int) ([]domain.Event, error) {
	query := `SELECT id, timestamp, category, action, actor, resource_id, detail
	          FROM audit_event WHERE 1=1`
	args := []any{}

	if filter.Category != nil {
		query += " AND category = ?"
		args = append(args, string(*filter.Category))
	}
	if filter.Action != nil {
		query += " AND action = ?"
		args = append(args, string(*filter.Action))
	}
	if filter.Actor != nil {
		query += " AND actor = ?"
		args = append(args, *filter.Actor)
	}
	query += " ORDER BY timestamp DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []domain.Event
	for rows.Next() {
		var e domain.Event
		var ts, category, action string
		if err := rows.Scan(&e.ID, &ts, &category, &action, &e.Actor, &e.ResourceID, &e.Detail); err != nil {
			return nil, err
		}
		e.Category = domain.Category(category)
		e.Action = domain.Action(action)
		e.Timestamp = parseTime(ts, e.ID)
		events = append(events, e)
	}
	return events, rows.Err()
}

// parseTime parses a stored timestamp, logging a warning on failure.
func parseTime(raw, eventID string) time.Time {
	t, err := time.Parse(timeLayout, raw)
	if err != nil {
		slog.Warn("audit: failed to parse timestamp", "event_id", eventID, "raw", raw, "error", err)
	}
	return t
}
