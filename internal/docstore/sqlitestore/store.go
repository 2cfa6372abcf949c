// Package sqlitestore keeps documents in a local SQLite database.
package sqlitestore

import (
	"context"
	"database/sql"
	"encoding/json/jsontext"
	"fmt"
	"log/slog"
	"time"

	_ "modernc.org/sqlite"

	"github.com/listenupapp/shelfwise/internal/docstore"
	"github.com/listenupapp/shelfwise/internal/errors"
	"github.com/listenupapp/shelfwise/internal/id"
	"github.com/listenupapp/shelfwise/internal/logger"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS documents (
	seq        INTEGER PRIMARY KEY AUTOINCREMENT,
	id         TEXT NOT NULL UNIQUE,
	body       BLOB NOT NULL,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);
`

// Store is a docstore.Store on a single SQLite table.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

var _ docstore.Store = (*Store)(nil)

// Open creates or opens the database at path.
// It configures WAL mode, sets pragmas, and creates the schema.
func Open(path string, log *slog.Logger) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(time.Hour)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("exec pragma %q: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("exec schema: %w", err)
	}

	return &Store{db: db, logger: logger.OrDiscard(log)}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Create inserts a new document.
func (s *Store) Create(ctx context.Context, data []byte) (docstore.Handle, error) {
	if err := checkJSON(data); err != nil {
		return "", err
	}

	handle, err := id.Document()
	if err != nil {
		return "", errors.Wrap(err, errors.KeyInternal, "generate handle")
	}

	now := formatTime(time.Now())
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO documents (id, body, created_at, updated_at) VALUES (?, ?, ?, ?)`,
		handle, data, now, now,
	)
	if err != nil {
		return "", errors.Wrap(err, errors.KeyInternal, "insert document")
	}

	s.logger.Debug("document created", "handle", handle)
	return docstore.Handle(handle), nil
}

// List returns every handle in insertion order.
func (s *Store) List(ctx context.Context) ([]docstore.Handle, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM documents ORDER BY seq`)
	if err != nil {
		return nil, errors.Wrap(err, errors.KeyInternal, "list documents")
	}
	defer rows.Close()

	var handles []docstore.Handle
	for rows.Next() {
		var h string
		if err := rows.Scan(&h); err != nil {
			return nil, errors.Wrap(err, errors.KeyInternal, "scan document id")
		}
		handles = append(handles, docstore.Handle(h))
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.KeyInternal, "iterate documents")
	}
	return handles, nil
}

// Get returns the document at h.
func (s *Store) Get(ctx context.Context, h docstore.Handle) ([]byte, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, `SELECT body FROM documents WHERE id = ?`, string(h)).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, docstore.NotFound(h)
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.KeyInternal, "read document")
	}
	return data, nil
}

// Update replaces the document at h.
func (s *Store) Update(ctx context.Context, h docstore.Handle, data []byte) error {
	if err := checkJSON(data); err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE documents SET body = ?, updated_at = ? WHERE id = ?`,
		data, formatTime(time.Now()), string(h),
	)
	if err != nil {
		return errors.Wrap(err, errors.KeyInternal, "update document")
	}

	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, errors.KeyInternal, "update document")
	}
	if n == 0 {
		return docstore.NotFound(h)
	}
	return nil
}

func checkJSON(data []byte) error {
	if !jsontext.Value(data).IsValid() {
		return errors.Validation("document is not valid JSON")
	}
	return nil
}

// formatTime formats a time.Time to RFC3339Nano for storage.
func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
