package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"jobwatch-go/internal/model"
	"jobwatch-go/internal/repositories"
)

const schema = `
CREATE TABLE IF NOT EXISTS snapshots (
	tag        TEXT PRIMARY KEY,
	created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS snapshot_listings (
	tag   TEXT NOT NULL REFERENCES snapshots(tag),
	title TEXT NOT NULL,
	PRIMARY KEY (tag, title)
);
`

// Store persists snapshots in a SQLite database.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens (or creates) the database at path and applies the schema.
// Use ":memory:" for an in-memory database.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only allows one writer at a time
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &Store{db: db, now: time.Now}, nil
}

func (s *Store) SetClock(now func() time.Time) {
	s.now = now
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *Store) Latest(ctx context.Context) (*model.Snapshot, error) {
	var (
		tag       string
		createdAt int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT tag, created_at FROM snapshots ORDER BY tag DESC LIMIT 1`,
	).Scan(&tag, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, repositories.Wrap("latest", err)
	}

	listings, err := s.listings(ctx, tag)
	if err != nil {
		return nil, repositories.Wrap("latest", err)
	}
	return &model.Snapshot{Tag: tag, CreatedAt: time.Unix(createdAt, 0).UTC(), Listings: listings}, nil
}

func (s *Store) List(ctx context.Context) ([]model.Snapshot, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT tag, created_at FROM snapshots ORDER BY tag ASC`)
	if err != nil {
		return nil, repositories.Wrap("list", err)
	}
	defer rows.Close()

	var snapshots []model.Snapshot
	for rows.Next() {
		var (
			snap      model.Snapshot
			createdAt int64
		)
		if err := rows.Scan(&snap.Tag, &createdAt); err != nil {
			return nil, repositories.Wrap("list", err)
		}
		snap.CreatedAt = time.Unix(createdAt, 0).UTC()
		snapshots = append(snapshots, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, repositories.Wrap("list", err)
	}
	rows.Close()

	for i := range snapshots {
		listings, err := s.listings(ctx, snapshots[i].Tag)
		if err != nil {
			return nil, repositories.Wrap("list", err)
		}
		snapshots[i].Listings = listings
	}
	return snapshots, nil
}

func (s *Store) Write(ctx context.Context, listings model.ListingSet) (model.Snapshot, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return model.Snapshot{}, repositories.Wrap("write", err)
	}
	defer tx.Rollback()

	var last sql.NullString
	if err := tx.QueryRowContext(ctx, `SELECT MAX(tag) FROM snapshots`).Scan(&last); err != nil {
		return model.Snapshot{}, repositories.Wrap("write", err)
	}

	createdAt := repositories.NextCreatedAt(s.now(), last.String)
	tag := model.TagFor(createdAt)

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO snapshots (tag, created_at) VALUES (?, ?)`, tag, createdAt.Unix(),
	); err != nil {
		return model.Snapshot{}, repositories.Wrap("write", fmt.Errorf("insert snapshot: %w", err))
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO snapshot_listings (tag, title) VALUES (?, ?)`)
	if err != nil {
		return model.Snapshot{}, repositories.Wrap("write", err)
	}
	defer stmt.Close()

	for _, title := range listings.Strings() {
		if _, err := stmt.ExecContext(ctx, tag, title); err != nil {
			return model.Snapshot{}, repositories.Wrap("write", fmt.Errorf("insert listing: %w", err))
		}
	}

	if err := tx.Commit(); err != nil {
		return model.Snapshot{}, repositories.Wrap("write", err)
	}
	return model.Snapshot{Tag: tag, CreatedAt: createdAt, Listings: listings}, nil
}

func (s *Store) listings(ctx context.Context, tag string) (model.ListingSet, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT title FROM snapshot_listings WHERE tag = ?`, tag)
	if err != nil {
		return model.ListingSet{}, err
	}
	defer rows.Close()

	var titles []string
	for rows.Next() {
		var title string
		if err := rows.Scan(&title); err != nil {
			return model.ListingSet{}, err
		}
		titles = append(titles, title)
	}
	if err := rows.Err(); err != nil {
		return model.ListingSet{}, err
	}
	return model.NewListingSet(titles), nil
}
