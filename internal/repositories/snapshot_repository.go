package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"jobwatch-go/internal/model"
)

// SnapshotStore is an append-only history of listing snapshots ordered by tag.
type SnapshotStore interface {
	// Latest returns nil, nil when no snapshot has been written yet.
	Latest(ctx context.Context) (*model.Snapshot, error)
	Write(ctx context.Context, listings model.ListingSet) (model.Snapshot, error)
	// List returns every snapshot, oldest first.
	List(ctx context.Context) ([]model.Snapshot, error)
}

type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("snapshot store %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	var se *StorageError
	if errors.As(err, &se) {
		return err
	}
	return &StorageError{Op: op, Err: err}
}

// NextCreatedAt truncates now to the second and moves it past lastTag when
// needed, keeping tags strictly increasing.
func NextCreatedAt(now time.Time, lastTag string) time.Time {
	candidate := now.UTC().Truncate(time.Second)
	if lastTag == "" {
		return candidate
	}
	last, err := model.ParseTag(lastTag)
	if err != nil {
		return candidate
	}
	if !candidate.After(last) {
		return last.Add(time.Second)
	}
	return candidate
}
