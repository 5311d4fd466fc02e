package pipeline

import (
	"context"
	"errors"

	"github.com/pable/go-bfv-analytics/internal/cleaner"
	"github.com/pable/go-bfv-analytics/internal/extract"
	"github.com/pable/go-bfv-analytics/internal/normalize"
	"github.com/pable/go-bfv-analytics/internal/store"
)

// Outcome is the result of handling one match in a stage.
type Outcome int

const (
	OutcomeProcessed Outcome = iota
	// OutcomeSkippedIncomplete: the report has fewer than two teams.
	OutcomeSkippedIncomplete
	// OutcomeSkippedMissing: a dependent record (capture, raw document) is absent.
	OutcomeSkippedMissing
	// OutcomeSkippedKnown: discovery saw an id that was already known.
	OutcomeSkippedKnown
	// OutcomeFailedMalformed: a field or document could not be parsed.
	OutcomeFailedMalformed
	// OutcomeFailed: a per-item write failed for a reason other than connectivity.
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeProcessed:
		return "processed"
	case OutcomeSkippedIncomplete:
		return "skipped_incomplete"
	case OutcomeSkippedMissing:
		return "skipped_missing"
	case OutcomeSkippedKnown:
		return "skipped_known"
	case OutcomeFailedMalformed:
		return "failed_malformed"
	default:
		return "failed"
	}
}

// Skipped reports whether the item was intentionally left for later or ignored.
func (o Outcome) Skipped() bool {
	return o == OutcomeSkippedIncomplete || o == OutcomeSkippedMissing || o == OutcomeSkippedKnown
}

// Failed reports whether the item errored.
func (o Outcome) Failed() bool {
	return o == OutcomeFailedMalformed || o == OutcomeFailed
}

// Classify maps a per-item error to its outcome. fatal is set for store
// connectivity failures and cancellation, which abort the stage.
func Classify(err error) (o Outcome, fatal bool) {
	switch {
	case err == nil:
		return OutcomeProcessed, false
	case store.IsUnavailable(err), errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return OutcomeFailed, true
	case errors.Is(err, cleaner.ErrIncompleteMatch):
		return OutcomeSkippedIncomplete, false
	case errors.Is(err, store.ErrNotFound):
		return OutcomeSkippedMissing, false
	case errors.Is(err, normalize.ErrMalformed), errors.Is(err, extract.ErrInvalidDocument):
		return OutcomeFailedMalformed, false
	default:
		return OutcomeFailed, false
	}
}
