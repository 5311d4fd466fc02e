package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pable/go-bfv-analytics/internal/model"
	"github.com/pable/go-bfv-analytics/internal/store"
)

// seedFacts stores one fact per player, each in a match started age ago.
func seedFacts(t *testing.T, f *fixture, age time.Duration, players ...string) {
	t.Helper()
	facts := make([]model.MatchPlayer, len(players))
	for i, id := range players {
		matchID := "psn_m" + id
		facts[i] = model.MatchPlayer{
			ID: matchID + "_" + id, MatchID: matchID, PlayerID: id,
			MatchStartTime: fixedNow.Add(-age),
		}
	}
	require.NoError(t, f.store.UpsertFacts(context.Background(), facts))
}

func TestFrontierWindowAndManualPlayers(t *testing.T) {
	f := newFixture()
	seedFacts(t, f, 24*time.Hour, "psn_recent1", "psn_recent2")
	seedFacts(t, f, 90*24*time.Hour, "psn_stale")

	ids, err := f.pipeline().Frontier(context.Background(), FrontierOptions{
		Sample:  10,
		Window:  30 * 24 * time.Hour,
		Players: []string{"psn_manual", "psn_recent1", ""},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"psn_manual", "psn_recent1", "psn_recent2"}, ids)
}

func TestFrontierSampleIsSeeded(t *testing.T) {
	f := newFixture()
	pool := []string{"psn_a", "psn_b", "psn_c", "psn_d", "psn_e", "psn_f"}
	seedFacts(t, f, time.Hour, pool...)
	o := FrontierOptions{Sample: 2, Window: 24 * time.Hour, Seed: 7}

	first, err := f.pipeline().Frontier(context.Background(), o)
	require.NoError(t, err)
	second, err := f.pipeline().Frontier(context.Background(), o)
	require.NoError(t, err)

	assert.Len(t, first, 2)
	assert.Subset(t, pool, first)
	assert.Equal(t, first, second)
}

func TestFrontierWithoutSampleSkipsFacts(t *testing.T) {
	f := newFixture()
	f.store.Fail = store.ErrUnavailable
	ids, err := f.pipeline().Frontier(context.Background(), FrontierOptions{Players: []string{"psn_x"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"psn_x"}, ids)

	_, err = f.pipeline().Frontier(context.Background(), FrontierOptions{Sample: 1})
	assert.ErrorIs(t, err, store.ErrUnavailable)
}
