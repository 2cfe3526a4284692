package sqlproxy

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"

	domain "sqlapp/internal/domain/dbprofile"
)

// Executor runs ad-hoc SQL against a caller-supplied MySQL endpoint.
type Executor interface {
	// Ping opens a connection for the profile and runs SELECT 1.
	Ping(ctx context.Context, profile domain.Profile) error

	// Execute runs one statement. Named :param placeholders are bound from
	// params. Statements that return no rows yield an empty result set.
	Execute(ctx context.Context, profile domain.Profile, query string, params map[string]any) ([]map[string]any, error)
}

// MySQLExecutor implements Executor with database/sql and the MySQL driver.
// Connections are opened per call: profiles are arbitrary caller-supplied
// endpoints, so there is nothing useful to pool.
type MySQLExecutor struct {
	connectTimeout time.Duration
}

// NewMySQLExecutor creates an executor with the given connect timeout.
func NewMySQLExecutor(connectTimeout time.Duration) *MySQLExecutor {
	return &MySQLExecutor{connectTimeout: connectTimeout}
}

func (e *MySQLExecutor) open(profile domain.Profile) (*sql.DB, error) {
	dsn := fmt.Sprintf("%s&timeout=%s", profile.DSN(), e.connectTimeout)
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	return db, nil
}

// Ping opens a connection and runs SELECT 1.
// POST: Returns nil only if the endpoint accepted the connection
func (e *MySQLExecutor) Ping(ctx context.Context, profile domain.Profile) error {
	db, err := e.open(profile)
	if err != nil {
		return err
	}
	defer db.Close()

	var one int
	return db.QueryRowContext(ctx, "SELECT 1").Scan(&one)
}

// Execute runs one statement and returns its rows as column-name maps.
// POST: Returns an empty (non-nil) slice for statements without rows
func (e *MySQLExecutor) Execute(ctx context.Context, profile domain.Profile, query string, params map[string]any) ([]map[string]any, error) {
	db, err := e.open(profile)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	bound, args := bindNamed(query, params)
	rows, err := db.QueryContext(ctx, bound, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	results := []map[string]any{}
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		row := make(map[string]any, len(cols))
		for i, col := range cols {
			if b, ok := values[i].([]byte); ok {
				row[col] = string(b)
			} else {
				row[col] = values[i]
			}
		}
		results = append(results, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	slog.Info("sql_proxy", "event", "statement_executed", "database", profile.Database, "rows", len(results))
	return results, nil
}

// bindNamed rewrites :name placeholders to ? and collects the matching
// arguments in order. Placeholders inside quoted strings are left alone.
func bindNamed(query string, params map[string]any) (string, []any) {
	if len(params) == 0 {
		return query, nil
	}

	var out strings.Builder
	var args []any
	var quote byte
	for i := 0; i < len(query); i++ {
		c := query[i]
		if quote != 0 {
			out.WriteByte(c)
			if c == quote {
				quote = 0
			}
			continue
		}
		if c == '\'' || c == '"' || c == '`' {
			quote = c
			out.WriteByte(c)
			continue
		}
		if c == ':' && i+1 < len(query) && isIdentByte(query[i+1]) {
			j := i + 1
			for j < len(query) && isIdentByte(query[j]) {
				j++
			}
			name := query[i+1 : j]
			if v, ok := params[name]; ok {
				out.WriteByte('?')
				args = append(args, v)
				i = j - 1
				continue
			}
		}
		out.WriteByte(c)
	}
	return out.String(), args
}

func isIdentByte(c byte) bool {
	return c == '_' || (c >= '0' && c <= '9') || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
