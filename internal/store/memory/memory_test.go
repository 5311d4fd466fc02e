package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pable/go-bfv-analytics/internal/model"
	"github.com/pable/go-bfv-analytics/internal/store"
)

func TestDiscoveredAndCaptured(t *testing.T) {
	ctx := context.Background()
	s := New()
	first := time.Date(2021, 3, 1, 10, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return first }

	require.NoError(t, s.UpsertDiscovered(ctx, []string{"psn_b", "psn_a"}, []string{"Conquest", "Breakthrough"}))
	require.NoError(t, s.MarkCaptured(ctx, "psn_a"))

	all, err := s.KnownMatches(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "psn_a", all[0].ID)
	assert.True(t, all[0].Captured())
	assert.False(t, all[1].Captured())

	bt, err := s.KnownMatches(ctx, "Breakthrough")
	require.NoError(t, err)
	require.Len(t, bt, 1)
	assert.Equal(t, "psn_a", bt[0].ID)

	// Rediscovery keeps the capture mark and the first sighting.
	s.now = func() time.Time { return first.Add(48 * time.Hour) }
	require.NoError(t, s.UpsertDiscovered(ctx, []string{"psn_a"}, nil))
	bt, _ = s.KnownMatches(ctx, "Breakthrough")
	require.Len(t, bt, 1)
	assert.True(t, bt[0].Captured())
	assert.True(t, bt[0].DiscoveredAt.Equal(first))
}

func TestUpsertDiscoveredModeMismatch(t *testing.T) {
	err := New().UpsertDiscovered(context.Background(), []string{"a", "b"}, []string{"Conquest"})
	require.Error(t, err)
}

func TestGetMatchNotFound(t *testing.T) {
	_, err := New().GetMatch(context.Background(), "missing")
	assert.True(t, errors.Is(err, store.ErrNotFound))
}

func TestFactsFilterAndIdempotentUpsert(t *testing.T) {
	ctx := context.Background()
	s := New()
	facts := []model.MatchPlayer{
		{ID: "m1_a", MatchID: "m1", PlayerID: "a", TeamStatus: model.StatusWon},
		{ID: "m1_b", MatchID: "m1", PlayerID: "b", TeamStatus: model.StatusDNF},
	}
	require.NoError(t, s.UpsertFacts(ctx, facts))
	require.NoError(t, s.UpsertFacts(ctx, facts))

	all, err := s.Facts(ctx, store.FactFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	finished, err := s.Facts(ctx, store.FactFilter{ExcludeDNF: true})
	require.NoError(t, err)
	require.Len(t, finished, 1)
	assert.Equal(t, "a", finished[0].PlayerID)
}

func TestUpsertFactsAllOrNothing(t *testing.T) {
	ctx := context.Background()
	s := New()
	err := s.UpsertFacts(ctx, []model.MatchPlayer{
		{ID: "m1_a", MatchID: "m1", PlayerID: "a"},
		{MatchID: "m1", PlayerID: "b"},
	})
	require.Error(t, err)

	all, _ := s.Facts(ctx, store.FactFilter{})
	assert.Empty(t, all)
}

func TestFailInjected(t *testing.T) {
	s := New()
	s.Fail = store.ErrUnavailable
	_, err := s.KnownMatches(context.Background(), "")
	assert.ErrorIs(t, err, store.ErrUnavailable)
}

func TestWriteTableRejectsRaggedRows(t *testing.T) {
	s := New()
	err := s.WriteTable(context.Background(), model.Table{
		Name:    "dim_player",
		Columns: []model.Column{{Name: "player_id", Type: "TEXT"}},
		Rows:    [][]any{{"a", 1}},
	})
	require.Error(t, err)
}
