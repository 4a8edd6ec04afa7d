// Package sqlite implements the store contracts on an embedded SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/casualjim/switchboard/messages"
	"github.com/casualjim/switchboard/store"
	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schema string

var (
	_ store.ChatHistories = (*DB)(nil)
	_ store.TraceSink     = (*DB)(nil)
)

type DB struct {
	conn *sql.DB
}

// Open opens (creating when needed) the database at path and applies the schema.
// A leading ~/ is expanded to the home directory; ":memory:" opens a private in-memory database.
func Open(path string) (*DB, error) {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		path = filepath.Join(home, path[2:])
	}

	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, err
		}
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// pragmas are per connection
	conn.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	} {
		if _, err := conn.Exec(pragma); err != nil {
			conn.Close()
			return nil, err
		}
	}

	db := &DB{conn: conn}
	if err := db.Migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("applying schema: %w", err)
	}
	return db, nil
}

func (d *DB) Migrate() error {
	_, err := d.conn.Exec(schema)
	return err
}

func (d *DB) Conn() *sql.DB {
	return d.conn
}

func (d *DB) Close() error {
	return d.conn.Close()
}

func timestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// Save stores the transcript for sessionID, updating the existing row when there is one.
func (d *DB) Save(ctx context.Context, sessionID string, items []messages.Item) error {
	history, err := messages.MarshalItems(items)
	if err != nil {
		return err
	}
	now := timestamp(time.Now())

	tx, err := d.conn.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck

	var existing string
	err = tx.QueryRowContext(ctx, `SELECT session_id FROM chat_histories WHERE session_id = ?`, sessionID).Scan(&existing)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		_, err = tx.ExecContext(ctx,
			`INSERT INTO chat_histories (session_id, history, created_at, updated_at) VALUES (?, ?, ?, ?)`,
			sessionID, string(history), now, now)
	case err == nil:
		_, err = tx.ExecContext(ctx,
			`UPDATE chat_histories SET history = ?, updated_at = ? WHERE session_id = ?`,
			string(history), now, sessionID)
	}
	if err != nil {
		return fmt.Errorf("saving chat history %s: %w", sessionID, err)
	}
	return tx.Commit()
}

// Load returns the transcript stored for sessionID; a missing session yields an empty list.
func (d *DB) Load(ctx context.Context, sessionID string) ([]messages.Item, error) {
	var history string
	err := d.conn.QueryRowContext(ctx, `SELECT history FROM chat_histories WHERE session_id = ?`, sessionID).Scan(&history)
	if errors.Is(err, sql.ErrNoRows) {
		return []messages.Item{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading chat history %s: %w", sessionID, err)
	}
	return messages.UnmarshalItems([]byte(history))
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func orEmptyObject(s string) string {
	if s == "" {
		return "{}"
	}
	return s
}

func (d *DB) InsertTrace(ctx context.Context, row store.TraceRow) error {
	_, err := d.conn.ExecContext(ctx,
		`INSERT INTO traces (trace_id, name, start_time, end_time, metadata, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		row.TraceID, row.Name, nullString(row.StartTime), nullString(row.EndTime), orEmptyObject(row.Metadata), timestamp(row.CreatedAt))
	if err != nil {
		return fmt.Errorf("inserting trace %s: %w", row.TraceID, err)
	}
	return nil
}

func (d *DB) InsertSpan(ctx context.Context, row store.SpanRow) error {
	_, err := d.conn.ExecContext(ctx,
		`INSERT INTO spans (span_id, trace_id, parent_span_id, name, start_time, end_time, metadata, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		row.SpanID, row.TraceID, nullString(row.ParentSpanID), row.Name, nullString(row.StartTime), nullString(row.EndTime), orEmptyObject(row.Metadata), timestamp(row.CreatedAt))
	if err != nil {
		return fmt.Errorf("inserting span %s: %w", row.SpanID, err)
	}
	return nil
}

// Traces lists stored trace rows, oldest first.
func (d *DB) Traces(ctx context.Context) ([]store.TraceRow, error) {
	rows, err := d.conn.QueryContext(ctx, `SELECT trace_id, name, start_time, end_time, metadata, created_at FROM traces ORDER BY created_at, trace_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []store.TraceRow
	for rows.Next() {
		var r store.TraceRow
		var start, end sql.NullString
		var created string
		if err := rows.Scan(&r.TraceID, &r.Name, &start, &end, &r.Metadata, &created); err != nil {
			return nil, err
		}
		r.StartTime, r.EndTime = start.String, end.String
		r.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
		out = append(out, r)
	}
	return out, rows.Err()
}

// Spans lists the stored spans of a trace, oldest first.
func (d *DB) Spans(ctx context.Context, traceID string) ([]store.SpanRow, error) {
	rows, err := d.conn.QueryContext(ctx, `SELECT span_id, trace_id, parent_span_id, name, start_time, end_time, metadata, created_at FROM spans WHERE trace_id = ? ORDER BY created_at, span_id`, traceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []store.SpanRow
	for rows.Next() {
		var r store.SpanRow
		var parent, start, end sql.NullString
		var created string
		if err := rows.Scan(&r.SpanID, &r.TraceID, &parent, &r.Name, &start, &end, &r.Metadata, &created); err != nil {
			return nil, err
		}
		r.ParentSpanID, r.StartTime, r.EndTime = parent.String, start.String, end.String
		r.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
		out = append(out, r)
	}
	return out, rows.Err()
}
