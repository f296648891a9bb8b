package checking

import (
	"context"
	"log"
	"sync"

	"jobwatch-go/internal/model"
	"jobwatch-go/internal/repositories"
)

type Service struct {
	target   string
	store    repositories.SnapshotStore
	fetcher  ListingFetcher
	notifier Notifier

	mu      sync.Mutex
	running bool
}

func NewService(target string, store repositories.SnapshotStore, fetcher ListingFetcher, notifier Notifier) *Service {
	return &Service{target: target, store: store, fetcher: fetcher, notifier: notifier}
}

// Run executes one cycle unless another one is still in flight, in which
// case it returns false without doing anything.
func (s *Service) Run(ctx context.Context) bool {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		log.Println("[check] already running; skipping")
		return false
	}
	s.running = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	result, err := s.RunCycle(ctx)
	if err != nil {
		log.Printf("[check] error: %v", err)
	}
	log.Printf("[check] finished: outcome=%s new=%d", result.Outcome, len(result.NewListings))
	return true
}

// Running reports whether a cycle started by Run is in flight.
func (s *Service) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *Service) RunCycle(ctx context.Context) (CycleResult, error) {
	source := s.fetcher.Source()
	log.Printf("[%s] fetching %s", source, s.target)

	current, err := s.fetch(ctx)
	if err != nil {
		log.Printf("[%s] no listings: %v", source, err)
		return CycleResult{Outcome: OutcomeNoListingsFound, FetchErr: err}, nil
	}
	log.Printf("[%s] found %d listings", source, current.Len())

	prior, err := s.store.Latest(ctx)
	if err != nil {
		return CycleResult{Outcome: OutcomeFailed}, err
	}

	if prior == nil {
		snap, err := s.store.Write(ctx, current)
		if err != nil {
			return CycleResult{Outcome: OutcomeFailed}, err
		}
		log.Printf("[check] baseline snapshot %s written with %d listings", snap.Tag, current.Len())
		return CycleResult{Outcome: OutcomeBaselineEstablished, Snapshot: &snap}, nil
	}

	if current.Equal(prior.Listings) {
		log.Printf("[check] no change since snapshot %s", prior.Tag)
		return CycleResult{Outcome: OutcomeNoChange}, nil
	}

	snap, err := s.store.Write(ctx, current)
	if err != nil {
		return CycleResult{Outcome: OutcomeFailed}, err
	}

	added := current.Minus(prior.Listings).Sorted()
	removed := prior.Listings.Minus(current).Len()
	log.Printf("[check] snapshot %s written: added=%d removed=%d", snap.Tag, len(added), removed)

	if len(added) == 0 {
		return CycleResult{Outcome: OutcomeUpdatedNoNewJobs, Snapshot: &snap}, nil
	}

	result := CycleResult{Outcome: OutcomeUpdatedAndNotified, Snapshot: &snap, NewListings: added}
	if err := s.notifier.Notify(ctx, added); err != nil {
		return result, &NotifyError{Channel: s.notifier.Name(), Err: err}
	}
	return result, nil
}

func (s *Service) fetch(ctx context.Context) (model.ListingSet, error) {
	raw, err := s.fetcher.Fetch(ctx, s.target)
	if err != nil {
		return model.ListingSet{}, &FetchError{Source: s.fetcher.Source(), Err: err}
	}
	current := model.NewListingSet(raw)
	if current.Len() == 0 {
		return model.ListingSet{}, ErrNoListings
	}
	return current, nil
}

// Latest exposes the most recent snapshot for read-only callers.
func (s *Service) Latest(ctx context.Context) (*model.Snapshot, error) {
	return s.store.Latest(ctx)
}

func (s *Service) History(ctx context.Context) ([]model.Snapshot, error) {
	return s.store.List(ctx)
}
