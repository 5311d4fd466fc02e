// Package memory provides mutex-guarded in-memory stores for tests and dry runs.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/pable/go-bfv-analytics/internal/model"
	"github.com/pable/go-bfv-analytics/internal/store"
)

// Store implements store.RawStore and store.ReportingStore.
type Store struct {
	mu sync.RWMutex

	known     map[string]model.MatchRef
	matches   map[string]model.RawMatch
	players   map[string]bool
	processed map[string]model.ProcessedMatch
	facts     map[string]model.MatchPlayer
	tables    map[string]model.Table
	runs      []model.RunRecord

	// Fail, when set, is returned by every call. Used to simulate an outage.
	Fail error

	now func() time.Time
}

var (
	_ store.RawStore       = (*Store)(nil)
	_ store.ReportingStore = (*Store)(nil)
)

// New returns an empty store.
func New() *Store {
	return &Store{
		known:     make(map[string]model.MatchRef),
		matches:   make(map[string]model.RawMatch),
		players:   make(map[string]bool),
		processed: make(map[string]model.ProcessedMatch),
		facts:     make(map[string]model.MatchPlayer),
		tables:    make(map[string]model.Table),
		now:       time.Now,
	}
}

func (s *Store) KnownMatches(_ context.Context, modeFilter string) ([]model.MatchRef, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.Fail != nil {
		return nil, s.Fail
	}

	out := make([]model.MatchRef, 0, len(s.known))
	for _, r := range s.known {
		if modeFilter != "" && r.Mode != modeFilter {
			continue
		}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) UpsertDiscovered(_ context.Context, ids []string, modes []string) error {
	if modes != nil && len(modes) != len(ids) {
		return fmt.Errorf("upsert discovered: %d ids but %d modes", len(ids), len(modes))
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Fail != nil {
		return s.Fail
	}

	now := s.now()
	for i, id := range ids {
		r, ok := s.known[id]
		if !ok {
			r = model.MatchRef{ID: id, DiscoveredAt: now}
		}
		if modes != nil && modes[i] != "" {
			r.Mode = modes[i]
		}
		s.known[id] = r
	}
	return nil
}

func (s *Store) MarkCaptured(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Fail != nil {
		return s.Fail
	}

	r, ok := s.known[id]
	if !ok {
		r = model.MatchRef{ID: id, DiscoveredAt: s.now()}
	}
	r.CapturedAt = s.now()
	s.known[id] = r
	return nil
}

func (s *Store) UpsertMatch(_ context.Context, m *model.RawMatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Fail != nil {
		return s.Fail
	}

	cp := *m
	cp.Players = append([]model.RawPlayer(nil), m.Players...)
	cp.LastUpdated = s.now()
	s.matches[m.ID] = cp
	return nil
}

func (s *Store) GetMatch(_ context.Context, id string) (*model.RawMatch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.Fail != nil {
		return nil, s.Fail
	}

	m, ok := s.matches[id]
	if !ok {
		return nil, fmt.Errorf("match %s: %w", id, store.ErrNotFound)
	}
	m.Players = append([]model.RawPlayer(nil), m.Players...)
	return &m, nil
}

func (s *Store) ParsedMatches(_ context.Context) ([]model.StoredID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.Fail != nil {
		return nil, s.Fail
	}

	out := make([]model.StoredID, 0, len(s.matches))
	for id, m := range s.matches {
		out = append(out, model.StoredID{ID: id, At: m.LastUpdated})
	}
	sortIDs(out)
	return out, nil
}

func (s *Store) UpsertPlayers(_ context.Context, playerIDs []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Fail != nil {
		return s.Fail
	}
	for _, id := range playerIDs {
		s.players[id] = true
	}
	return nil
}

// Players returns the stored player ids, sorted.
func (s *Store) Players() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.players))
	for id := range s.players {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func (s *Store) ProcessedMatches(_ context.Context) ([]model.ProcessedMatch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.Fail != nil {
		return nil, s.Fail
	}

	out := make([]model.ProcessedMatch, 0, len(s.processed))
	for _, m := range s.processed {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) ProcessedMatchIDs(_ context.Context) ([]model.StoredID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.Fail != nil {
		return nil, s.Fail
	}

	out := make([]model.StoredID, 0, len(s.processed))
	for id, m := range s.processed {
		out = append(out, model.StoredID{ID: id, At: m.ProcessedDate})
	}
	sortIDs(out)
	return out, nil
}

func (s *Store) UpsertFacts(_ context.Context, facts []model.MatchPlayer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Fail != nil {
		return s.Fail
	}
	for _, f := range facts {
		if f.ID == "" {
			return fmt.Errorf("upsert facts: fact for %s/%s has no id", f.MatchID, f.PlayerID)
		}
	}
	for _, f := range facts {
		s.facts[f.ID] = f
	}
	return nil
}

func (s *Store) UpsertProcessedMatch(_ context.Context, m model.ProcessedMatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Fail != nil {
		return s.Fail
	}
	m.ProcessedDate = s.now()
	s.processed[m.ID] = m
	return nil
}

func (s *Store) Facts(_ context.Context, filter store.FactFilter) ([]model.MatchPlayer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.Fail != nil {
		return nil, s.Fail
	}

	out := make([]model.MatchPlayer, 0, len(s.facts))
	for _, f := range s.facts {
		if filter.Matches(f) {
			out = append(out, f)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) WriteTable(_ context.Context, t model.Table) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Fail != nil {
		return s.Fail
	}
	for i, row := range t.Rows {
		if len(row) != len(t.Columns) {
			return fmt.Errorf("write table %s: row %d has %d values for %d columns", t.Name, i, len(row), len(t.Columns))
		}
	}
	s.tables[t.Name] = t
	return nil
}

// Table returns the last table written under name.
func (s *Store) Table(name string) (model.Table, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tables[name]
	return t, ok
}

func (s *Store) RecordRun(_ context.Context, r model.RunRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Fail != nil {
		return s.Fail
	}
	s.runs = append(s.runs, r)
	return nil
}

// Runs returns every recorded stage run in insertion order.
func (s *Store) Runs() []model.RunRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.RunRecord(nil), s.runs...)
}

func sortIDs(ids []model.StoredID) {
	sort.Slice(ids, func(i, j int) bool { return ids[i].ID < ids[j].ID })
}
