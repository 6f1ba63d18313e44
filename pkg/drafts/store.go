// Package drafts keeps unsaved sheet edits in SQLite between sessions.
package drafts

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	logging "github.com/ipfs/go-log/v2"
	_ "modernc.org/sqlite"

	"github.com/pluqqy/pluqqy-datasheet/pkg/sheet"
)

var logger = logging.Logger("datasheet/drafts")

// Summary describes the drafts kept for one content type.
type Summary struct {
	ContentType string    `json:"content_type" yaml:"content_type"`
	Items       int       `json:"items" yaml:"items"`
	Fields      int       `json:"fields" yaml:"fields"`
	UpdatedAt   time.Time `json:"updated_at" yaml:"updated_at"`
}

// Store wraps the drafts database
type Store struct {
	db   *sql.DB
	path string
	mu   sync.Mutex
	now  func() time.Time
}

// Open opens or creates the drafts database at path
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create drafts dir: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open drafts database: %w", err)
	}
	// One connection keeps writes serialized.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`
		PRAGMA journal_mode = WAL;
		PRAGMA busy_timeout = 5000;
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("configure drafts database: %w", err)
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS drafts (
			site         TEXT NOT NULL,
			content_type TEXT NOT NULL,
			path         TEXT NOT NULL,
			field_id     TEXT NOT NULL,
			value        TEXT NOT NULL,
			raw          TEXT,
			seq          INTEGER NOT NULL,
			updated_at   INTEGER NOT NULL,
			PRIMARY KEY (site, content_type, path, field_id)
		);
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create drafts table: %w", err)
	}

	return &Store{db: db, path: path, now: time.Now}, nil
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// Close closes the database
func (s *Store) Close() error {
	return s.db.Close()
}

// Save replaces the drafts of a content type with entries.
func (s *Store) Save(ctx context.Context, site, contentType string, entries []sheet.LedgerEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin drafts save: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM drafts WHERE site = ? AND content_type = ?`, site, contentType); err != nil {
		return fmt.Errorf("clear old drafts: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO drafts (site, content_type, path, field_id, value, raw, seq, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare drafts insert: %w", err)
	}
	defer stmt.Close()

	updated := s.now().Unix()
	for i, e := range entries {
		var raw sql.NullString
		if e.Edit.HasRaw {
			raw = sql.NullString{String: e.Edit.Raw, Valid: true}
		}
		if _, err := stmt.ExecContext(ctx, site, contentType, e.Path, e.FieldID, e.Edit.Value, raw, i, updated); err != nil {
			return fmt.Errorf("insert draft %s/%s: %w", e.Path, e.FieldID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit drafts: %w", err)
	}
	logger.Debugw("saved drafts", "site", site, "contentType", contentType, "fields", len(entries))
	return nil
}

// Load returns the drafts of a content type in the order they were saved.
func (s *Store) Load(ctx context.Context, site, contentType string) ([]sheet.LedgerEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT path, field_id, value, raw FROM drafts
		WHERE site = ? AND content_type = ?
		ORDER BY seq`, site, contentType)
	if err != nil {
		return nil, fmt.Errorf("query drafts: %w", err)
	}
	defer rows.Close()

	var entries []sheet.LedgerEntry
	for rows.Next() {
		var e sheet.LedgerEntry
		var raw sql.NullString
		if err := rows.Scan(&e.Path, &e.FieldID, &e.Edit.Value, &raw); err != nil {
			return nil, fmt.Errorf("scan draft: %w", err)
		}
		if raw.Valid {
			e.Edit.Raw = raw.String
			e.Edit.HasRaw = true
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Clear removes the drafts of a content type, or of the whole site when contentType is empty.
func (s *Store) Clear(ctx context.Context, site, contentType string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var res sql.Result
	var err error
	if contentType == "" {
		res, err = s.db.ExecContext(ctx, `DELETE FROM drafts WHERE site = ?`, site)
	} else {
		res, err = s.db.ExecContext(ctx, `DELETE FROM drafts WHERE site = ? AND content_type = ?`, site, contentType)
	}
	if err != nil {
		return 0, fmt.Errorf("clear drafts: %w", err)
	}
	return res.RowsAffected()
}

// List summarizes the drafts of a site per content type.
func (s *Store) List(ctx context.Context, site string) ([]Summary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT content_type, COUNT(DISTINCT path), COUNT(*), MAX(updated_at)
		FROM drafts WHERE site = ?
		GROUP BY content_type
		ORDER BY content_type`, site)
	if err != nil {
		return nil, fmt.Errorf("list drafts: %w", err)
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var sum Summary
		var updated int64
		if err := rows.Scan(&sum.ContentType, &sum.Items, &sum.Fields, &updated); err != nil {
			return nil, fmt.Errorf("scan drafts summary: %w", err)
		}
		sum.UpdatedAt = time.Unix(updated, 0)
		out = append(out, sum)
	}
	return out, rows.Err()
}
