package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"jobwatch-go/internal/model"
	"jobwatch-go/internal/repositories"
)

// DBTX is satisfied by *pgxpool.Pool, *pgx.Conn and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

const (
	latestSnapshot = `SELECT tag, created_at, listings FROM snapshots ORDER BY tag DESC LIMIT 1`
	listSnapshots  = `SELECT tag, created_at, listings FROM snapshots ORDER BY tag ASC`
	lastTag        = `SELECT COALESCE(MAX(tag), '') FROM snapshots`
	insertSnapshot = `INSERT INTO snapshots (tag, created_at, listings) VALUES ($1, $2, $3)`
	lockSnapshots  = `LOCK TABLE snapshots IN EXCLUSIVE MODE`
)

type SnapshotRepository struct {
	db  DBTX
	now func() time.Time
}

func NewSnapshotRepository(db DBTX) *SnapshotRepository {
	return &SnapshotRepository{db: db, now: time.Now}
}

func (r *SnapshotRepository) Latest(ctx context.Context) (*model.Snapshot, error) {
	snap, err := scanSnapshot(r.db.QueryRow(ctx, latestSnapshot))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, repositories.Wrap("latest", err)
	}
	return &snap, nil
}

func (r *SnapshotRepository) List(ctx context.Context) ([]model.Snapshot, error) {
	rows, err := r.db.Query(ctx, listSnapshots)
	if err != nil {
		return nil, repositories.Wrap("list", err)
	}
	defer rows.Close()

	var snapshots []model.Snapshot
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, repositories.Wrap("list", err)
		}
		snapshots = append(snapshots, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, repositories.Wrap("list", err)
	}
	return snapshots, nil
}

func (r *SnapshotRepository) Write(ctx context.Context, listings model.ListingSet) (model.Snapshot, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return model.Snapshot{}, repositories.Wrap("write", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, lockSnapshots); err != nil {
		return model.Snapshot{}, repositories.Wrap("write", fmt.Errorf("lock: %w", err))
	}

	var last string
	if err := tx.QueryRow(ctx, lastTag).Scan(&last); err != nil {
		return model.Snapshot{}, repositories.Wrap("write", err)
	}

	createdAt := repositories.NextCreatedAt(r.now(), last)
	tag := model.TagFor(createdAt)

	if _, err := tx.Exec(ctx, insertSnapshot, tag, createdAt, listings.Strings()); err != nil {
		return model.Snapshot{}, repositories.Wrap("write", fmt.Errorf("insert snapshot: %w", err))
	}
	if err := tx.Commit(ctx); err != nil {
		return model.Snapshot{}, repositories.Wrap("write", err)
	}
	return model.Snapshot{Tag: tag, CreatedAt: createdAt, Listings: listings}, nil
}

func scanSnapshot(row pgx.Row) (model.Snapshot, error) {
	var (
		tag       string
		createdAt time.Time
		titles    []string
	)
	if err := row.Scan(&tag, &createdAt, &titles); err != nil {
		return model.Snapshot{}, err
	}
	return model.Snapshot{
		Tag:       tag,
		CreatedAt: createdAt.UTC(),
		Listings:  model.NewListingSet(titles),
	}, nil
}
