package checking

import (
	"errors"
	"fmt"

	"jobwatch-go/internal/model"
)

type Outcome int

const (
	OutcomeFailed Outcome = iota
	OutcomeNoListingsFound
	OutcomeBaselineEstablished
	OutcomeNoChange
	OutcomeUpdatedAndNotified
	OutcomeUpdatedNoNewJobs
)

func (o Outcome) String() string {
	switch o {
	case OutcomeNoListingsFound:
		return "NoListingsFound"
	case OutcomeBaselineEstablished:
		return "BaselineEstablished"
	case OutcomeNoChange:
		return "NoChange"
	case OutcomeUpdatedAndNotified:
		return "UpdatedAndNotified"
	case OutcomeUpdatedNoNewJobs:
		return "UpdatedNoNewJobs"
	default:
		return "Failed"
	}
}

func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

type CycleResult struct {
	Outcome Outcome
	// Snapshot is set when the cycle wrote a new snapshot.
	Snapshot    *model.Snapshot
	NewListings []model.Listing
	// FetchErr is the reason a NoListingsFound cycle had nothing to compare.
	FetchErr error
}

var ErrNoListings = errors.New("fetch returned no listings")

type FetchError struct {
	Source string
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("[%s] fetch failed: %v", e.Source, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

type NotifyError struct {
	Channel string
	Err     error
}

func (e *NotifyError) Error() string {
	return fmt.Sprintf("notify via %s: %v", e.Channel, e.Err)
}

func (e *NotifyError) Unwrap() error {
	return e.Err
}
