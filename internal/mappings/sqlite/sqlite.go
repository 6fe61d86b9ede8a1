// Package sqlite provides a durable mapping store backed by SQLite.
// A single database file holds both mapping spaces, namespaced by column, so
// the two store instances can share one handle.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/dylanpinn/up-bank-lunch-money-sync/internal/mappings"
)

// Mapping spaces.
const (
	SpaceAccounts   = "accounts"
	SpaceCategories = "categories"
)

const schema = `
CREATE TABLE IF NOT EXISTS mappings (
	space        TEXT NOT NULL,
	source_id    TEXT NOT NULL,
	target_id    TEXT NOT NULL,
	display_name TEXT NOT NULL DEFAULT '',
	account_kind TEXT NOT NULL DEFAULT '',
	parent_id    TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (space, source_id)
)`

// Open opens (creating if necessary) the mapping database at path.
func Open(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: creating schema: %w", err)
	}
	return db, nil
}

// Store is a SQLite-backed implementation of mappings.Store scoped to one
// mapping space.
type Store struct {
	db    *sql.DB
	space string
}

// NewStore creates a store over db scoped to the given space.
func NewStore(db *sql.DB, space string) *Store {
	return &Store{db: db, space: space}
}

// Get implements the mappings.Store interface.
func (s *Store) Get(ctx context.Context, sourceID string) (*mappings.Record, error) {
	query := `
		SELECT source_id, target_id, display_name, account_kind, parent_id
		FROM mappings
		WHERE space = ? AND source_id = ?
	`

	var rec mappings.Record
	err := s.db.QueryRowContext(ctx, query, s.space, sourceID).Scan(
		&rec.SourceID, &rec.TargetID, &rec.DisplayName, &rec.AccountKind, &rec.ParentID)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: looking up %s/%s: %w", s.space, sourceID, err)
	}
	return &rec, nil
}

// Put implements the mappings.Store interface. The upsert makes concurrent
// first-sight writes converge on the last writer.
func (s *Store) Put(ctx context.Context, rec mappings.Record) error {
	if rec.SourceID == "" {
		return fmt.Errorf("sqlite: source ID is required")
	}

	query := `
		INSERT INTO mappings (space, source_id, target_id, display_name, account_kind, parent_id)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (space, source_id) DO UPDATE SET
			target_id = excluded.target_id,
			display_name = excluded.display_name,
			account_kind = excluded.account_kind,
			parent_id = excluded.parent_id
	`

	_, err := s.db.ExecContext(ctx, query,
		s.space, rec.SourceID, rec.TargetID, rec.DisplayName, rec.AccountKind, rec.ParentID)
	if err != nil {
		return fmt.Errorf("sqlite: storing %s/%s: %w", s.space, rec.SourceID, err)
	}
	return nil
}

var _ mappings.Store = (*Store)(nil)
