package notify

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"jobwatch-go/internal/model"
	"jobwatch-go/internal/services/checking"
)

// Fanout delivers to every channel concurrently. It fails when any channel
// fails, and the returned error names every failed channel.
type Fanout struct {
	channels []checking.Notifier
}

func NewFanout(channels ...checking.Notifier) *Fanout {
	return &Fanout{channels: channels}
}

func (f *Fanout) Name() string {
	names := make([]string, len(f.channels))
	for i, c := range f.channels {
		names[i] = c.Name()
	}
	return strings.Join(names, "+")
}

func (f *Fanout) Notify(ctx context.Context, listings []model.Listing) error {
	var (
		mu   sync.Mutex
		errs []error
	)

	var group errgroup.Group
	for _, channel := range f.channels {
		ch := channel
		group.Go(func() error {
			if err := ch.Notify(ctx, listings); err != nil {
				log.Printf("[%s] notify failed: %v", ch.Name(), err)
				mu.Lock()
				errs = append(errs, fmt.Errorf("%s: %w", ch.Name(), err))
				mu.Unlock()
				return nil
			}
			log.Printf("[%s] notified %d listings", ch.Name(), len(listings))
			return nil
		})
	}
	_ = group.Wait()

	return errors.Join(errs...)
}
