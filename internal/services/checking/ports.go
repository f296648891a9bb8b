package checking

import (
	"context"

	"jobwatch-go/internal/model"
)

// ListingFetcher returns the listing titles currently shown at target.
type ListingFetcher interface {
	Source() string
	Fetch(ctx context.Context, target string) ([]string, error)
}

type Notifier interface {
	Name() string
	Notify(ctx context.Context, listings []model.Listing) error
}
