// Package tracker derives each pipeline stage's work queue from what the
// stores already hold. No status flag is trusted; state is set membership.
package tracker

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/pable/go-bfv-analytics/internal/model"
	"github.com/pable/go-bfv-analytics/internal/store"
)

// State is how far a match has progressed. States only move forward.
type State int

const (
	StateUnknown State = iota
	StateDiscovered
	StateRawSaved
	StateFullyParsed
	StateProcessed
)

func (s State) String() string {
	switch s {
	case StateDiscovered:
		return "discovered"
	case StateRawSaved:
		return "raw-saved"
	case StateFullyParsed:
		return "fully-parsed"
	case StateProcessed:
		return "processed"
	default:
		return "unknown"
	}
}

// States lists the known states in pipeline order.
var States = []State{StateDiscovered, StateRawSaved, StateFullyParsed, StateProcessed}

// Difference returns the ids in a that are not in b, sorted.
func Difference(a, b []string) []string {
	exclude := make(map[string]struct{}, len(b))
	for _, id := range b {
		exclude[id] = struct{}{}
	}
	out := make([]string, 0, len(a))
	seen := make(map[string]struct{}, len(a))
	for _, id := range a {
		if _, skip := exclude[id]; skip {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// NeedingRetrieval is every known match without a parsed document.
func NeedingRetrieval(known, parsed []string) []string {
	return Difference(known, parsed)
}

// NeedingProcessing is every parsed match without a processed record, or
// every parsed match when reprocessAll is set.
func NeedingProcessing(parsed, processed []string, reprocessAll bool) []string {
	if reprocessAll {
		return Difference(parsed, nil)
	}
	return Difference(parsed, processed)
}

// Snapshot is the point-in-time view a stage computes its queue from. It is
// taken once at stage entry and never refreshed mid-stage.
type Snapshot struct {
	Known     []model.MatchRef
	Parsed    []string
	Processed []string
}

// KnownIDs returns the ids of every known match.
func (s Snapshot) KnownIDs() []string {
	ids := make([]string, len(s.Known))
	for i, r := range s.Known {
		ids[i] = r.ID
	}
	return ids
}

// States classifies every id seen in any set by its furthest state.
func (s Snapshot) States() map[string]State {
	out := make(map[string]State, len(s.Known))
	raise := func(id string, st State) {
		if st > out[id] {
			out[id] = st
		}
	}
	for _, r := range s.Known {
		if r.Captured() {
			raise(r.ID, StateRawSaved)
		} else {
			raise(r.ID, StateDiscovered)
		}
	}
	for _, id := range s.Parsed {
		raise(id, StateFullyParsed)
	}
	for _, id := range s.Processed {
		raise(id, StateProcessed)
	}
	return out
}

// State returns the furthest state of one match, StateUnknown if no set holds it.
func (s Snapshot) State(id string) State {
	return s.States()[id]
}

// Counts tallies matches per state.
func (s Snapshot) Counts() map[State]int {
	out := make(map[State]int, len(States))
	for _, st := range s.States() {
		out[st]++
	}
	return out
}

// Tracker queries the stores and computes work queues.
type Tracker struct {
	raw    store.RawStore
	report store.ReportingStore
	log    *zap.Logger
}

// New returns a Tracker over the given stores.
func New(raw store.RawStore, report store.ReportingStore, log *zap.Logger) *Tracker {
	if log == nil {
		log = zap.NewNop()
	}
	return &Tracker{raw: raw, report: report, log: log}
}

// Snapshot reads all three id sets. Any query failure is returned so that an
// unreachable store is never mistaken for an empty queue.
func (t *Tracker) Snapshot(ctx context.Context, modeFilter string) (Snapshot, error) {
	known, err := t.raw.KnownMatches(ctx, modeFilter)
	if err != nil {
		return Snapshot{}, fmt.Errorf("list known matches: %w", err)
	}
	parsed, err := t.raw.ParsedMatches(ctx)
	if err != nil {
		return Snapshot{}, fmt.Errorf("list parsed matches: %w", err)
	}
	processed, err := t.report.ProcessedMatchIDs(ctx)
	if err != nil {
		return Snapshot{}, fmt.Errorf("list processed matches: %w", err)
	}

	snap := Snapshot{Known: known, Parsed: ids(parsed), Processed: ids(processed)}
	if modeFilter != "" {
		// Mode lives on the known ref only, so the other sets follow it.
		keep := snap.KnownIDs()
		snap.Parsed = intersect(snap.Parsed, keep)
		snap.Processed = intersect(snap.Processed, keep)
	}
	t.log.Debug("tracker snapshot",
		zap.Int("known", len(snap.Known)),
		zap.Int("parsed", len(snap.Parsed)),
		zap.Int("processed", len(snap.Processed)))
	return snap, nil
}

// MatchesNeedingRetrieval returns known match ids with no parsed document.
func (t *Tracker) MatchesNeedingRetrieval(ctx context.Context, modeFilter string) ([]string, error) {
	snap, err := t.Snapshot(ctx, modeFilter)
	if err != nil {
		return nil, err
	}
	return NeedingRetrieval(snap.KnownIDs(), snap.Parsed), nil
}

// MatchesNeedingProcessing returns parsed match ids with no processed record,
// or all parsed ids when reprocessAll is set.
func (t *Tracker) MatchesNeedingProcessing(ctx context.Context, reprocessAll bool) ([]string, error) {
	parsed, err := t.raw.ParsedMatches(ctx)
	if err != nil {
		return nil, fmt.Errorf("list parsed matches: %w", err)
	}
	if reprocessAll {
		return NeedingProcessing(ids(parsed), nil, true), nil
	}
	processed, err := t.report.ProcessedMatchIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list processed matches: %w", err)
	}
	return NeedingProcessing(ids(parsed), ids(processed), false), nil
}

func ids(stored []model.StoredID) []string {
	out := make([]string, len(stored))
	for i, s := range stored {
		out[i] = s.ID
	}
	return out
}

func intersect(a, keep []string) []string {
	in := make(map[string]struct{}, len(keep))
	for _, id := range keep {
		in[id] = struct{}{}
	}
	out := make([]string, 0, len(a))
	for _, id := range a {
		if _, ok := in[id]; ok {
			out = append(out, id)
		}
	}
	return out
}
