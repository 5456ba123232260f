// Package sqlite persists the last good feed document so the map can render
// while the upstream feed is unreachable.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/couchcryptid/quake-map-service/internal/domain"
	_ "modernc.org/sqlite" // CGO-free SQLite
)

// Store keeps the most recent feed body per feed URL.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the snapshot database at path.
func Open(path string) (*Store, error) {
	// WAL + busy timeout to avoid "database is locked"
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open snapshot db: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := createTables(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func createTables(db *sql.DB) error {
	_, err := db.Exec(`
	CREATE TABLE IF NOT EXISTS feed_snapshots(
	  feed_url      TEXT    PRIMARY KEY,
	  fetched_at_ms INTEGER NOT NULL,
	  body          BLOB    NOT NULL
	);
	`)
	if err != nil {
		return fmt.Errorf("create snapshot table: %w", err)
	}
	return nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save replaces the stored document for doc.URL.
func (s *Store) Save(ctx context.Context, doc domain.FeedDocument) error {
	if doc.URL == "" {
		return errors.New("save snapshot: feed URL is empty")
	}
	_, err := s.db.ExecContext(ctx, `
	INSERT INTO feed_snapshots(feed_url, fetched_at_ms, body) VALUES(?, ?, ?)
	ON CONFLICT(feed_url) DO UPDATE SET fetched_at_ms = excluded.fetched_at_ms, body = excluded.body
	`, doc.URL, doc.FetchedAt.UnixMilli(), doc.Body)
	if err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

// Latest returns the stored document for feedURL or domain.ErrNoStoredFeed.
func (s *Store) Latest(ctx context.Context, feedURL string) (domain.FeedDocument, error) {
	var (
		fetchedAtMs int64
		body        []byte
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT fetched_at_ms, body FROM feed_snapshots WHERE feed_url = ?`, feedURL,
	).Scan(&fetchedAtMs, &body)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.FeedDocument{}, domain.ErrNoStoredFeed
	}
	if err != nil {
		return domain.FeedDocument{}, fmt.Errorf("load snapshot: %w", err)
	}
	return domain.FeedDocument{
		URL:       feedURL,
		FetchedAt: time.UnixMilli(fetchedAtMs).UTC(),
		Body:      body,
	}, nil
}
