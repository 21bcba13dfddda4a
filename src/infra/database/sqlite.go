package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/contre95/pluginreloader/src/plugins"
	_ "github.com/mattn/go-sqlite3"
)

// SqliteHistory is a SQLite implementation of the plugins.History interface.
type SqliteHistory struct {
	db *sql.DB
}

// NewSqliteHistory opens (or creates) the history database at path.
func NewSqliteHistory(path string) (*SqliteHistory, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	// The loop writes one reaction at a time, a single connection avoids "database is locked".
	db.SetMaxOpenConns(1)

	if err := createTables(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return &SqliteHistory{db: db}, nil
}

func createTables(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS reactions (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			path TEXT,
			kind TEXT NOT NULL,
			old_marker INTEGER,
			new_marker INTEGER,
			reload_error TEXT,
			notify_error TEXT,
			created_at INTEGER NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_reactions_created ON reactions(created_at);
	`)
	return err
}

// Record stores a dispatched reaction.
func (d *SqliteHistory) Record(ctx context.Context, reaction plugins.Reaction) error {
	_, err := d.db.ExecContext(ctx, `
		INSERT INTO reactions (id, name, path, kind, old_marker, new_marker, reload_error, notify_error, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, reaction.ID, reaction.Event.Name, reaction.Event.Path, string(reaction.Event.Kind),
		int64(reaction.Event.OldMarker), int64(reaction.Event.NewMarker),
		reaction.ReloadError, reaction.NotifyError, reaction.At.UnixNano())
	return err
}

// List returns up to limit reactions, newest first.
func (d *SqliteHistory) List(ctx context.Context, limit int) ([]plugins.Reaction, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT id, name, path, kind, old_marker, new_marker, reload_error, notify_error, created_at
		FROM reactions
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reactions []plugins.Reaction
	for rows.Next() {
		var (
			r                    plugins.Reaction
			kind                 string
			oldMarker, newMarker int64
			createdAt            int64
			path                 sql.NullString
			reloadErr, notifyErr sql.NullString
		)
		if err := rows.Scan(&r.ID, &r.Event.Name, &path, &kind, &oldMarker, &newMarker, &reloadErr, &notifyErr, &createdAt); err != nil {
			return nil, err
		}
		r.Event.Path = path.String
		r.Event.Kind = plugins.ChangeKind(kind)
		r.Event.OldMarker = plugins.Marker(oldMarker)
		r.Event.NewMarker = plugins.Marker(newMarker)
		r.ReloadError = reloadErr.String
		r.NotifyError = notifyErr.String
		r.At = time.Unix(0, createdAt).UTC()
		reactions = append(reactions, r)
	}
	return reactions, rows.Err()
}

// Count returns the number of stored reactions.
func (d *SqliteHistory) Count(ctx context.Context) (int, error) {
	var count int
	err := d.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM reactions").Scan(&count)
	return count, err
}

// Close closes the database.
func (d *SqliteHistory) Close() error {
	return d.db.Close()
}
