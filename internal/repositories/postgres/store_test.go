package postgres

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobwatch-go/internal/model"
	"jobwatch-go/internal/repositories"
)

type fakeRow struct {
	err    error
	values []any
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	*dest[0].(*string) = r.values[0].(string)
	*dest[1].(*time.Time) = r.values[1].(time.Time)
	*dest[2].(*[]string) = r.values[2].([]string)
	return nil
}

func TestScanSnapshot(t *testing.T) {
	created := time.Date(2026, 10, 14, 9, 0, 0, 0, time.FixedZone("CEST", 2*60*60))
	snap, err := scanSnapshot(fakeRow{values: []any{"20261014-070000", created, []string{" Engineer A ", "Engineer B"}}})
	require.NoError(t, err)

	assert.Equal(t, "20261014-070000", snap.Tag)
	assert.Equal(t, time.UTC, snap.CreatedAt.Location())
	assert.True(t, snap.Listings.Equal(model.SetOf("Engineer A", "Engineer B")))
}

func TestScanSnapshotPropagatesNoRows(t *testing.T) {
	_, err := scanSnapshot(fakeRow{err: pgx.ErrNoRows})
	assert.True(t, errors.Is(err, pgx.ErrNoRows))
}

// Runs against a real database when JOBWATCH_TEST_POSTGRES_DSN is set.
func TestSnapshotRepositoryIntegration(t *testing.T) {
	dsn := os.Getenv("JOBWATCH_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("JOBWATCH_TEST_POSTGRES_DSN not set")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	defer pool.Close()

	conn, err := pool.Acquire(ctx)
	require.NoError(t, err)
	defer conn.Release()
	// temp tables are per connection
	_, err = conn.Exec(ctx, `CREATE TEMP TABLE snapshots (tag TEXT PRIMARY KEY, created_at TIMESTAMPTZ NOT NULL, listings TEXT[] NOT NULL DEFAULT '{}')`)
	require.NoError(t, err)

	repo := NewSnapshotRepository(conn.Conn())
	clock := time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return clock }

	latest, err := repo.Latest(ctx)
	require.NoError(t, err)
	assert.Nil(t, latest)

	first, err := repo.Write(ctx, model.SetOf("Engineer A"))
	require.NoError(t, err)
	second, err := repo.Write(ctx, model.SetOf("Engineer A", "Engineer C"))
	require.NoError(t, err)
	assert.Less(t, first.Tag, second.Tag)

	latest, err = repo.Latest(ctx)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.True(t, latest.Listings.Equal(model.SetOf("Engineer A", "Engineer C")))

	all, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	var se *repositories.StorageError
	_, err = NewSnapshotRepository(conn.Conn()).Write(canceled(), model.SetOf("x"))
	assert.ErrorAs(t, err, &se)
}

func canceled() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	return ctx
}
