package tracker

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pable/go-bfv-analytics/internal/model"
	"github.com/pable/go-bfv-analytics/internal/store"
	"github.com/pable/go-bfv-analytics/internal/store/memory"
)

func TestNeedingProcessing(t *testing.T) {
	parsed := []string{"A", "B", "C"}
	processed := []string{"B"}

	got := NeedingProcessing(parsed, processed, false)
	assert.Equal(t, []string{"A", "C"}, got)

	processed = append(processed, got...)
	assert.Empty(t, NeedingProcessing(parsed, processed, false))

	assert.Equal(t, []string{"A", "B", "C"}, NeedingProcessing(parsed, processed, true))
}

func TestNeedingRetrieval(t *testing.T) {
	got := NeedingRetrieval([]string{"C", "A", "B", "A"}, []string{"B", "Z"})
	assert.Equal(t, []string{"A", "C"}, got)
}

func TestSnapshotStates(t *testing.T) {
	snap := Snapshot{
		Known: []model.MatchRef{
			{ID: "d"},
			{ID: "r", CapturedAt: mustTime()},
			{ID: "f"},
			{ID: "p"},
		},
		Parsed:    []string{"f", "p"},
		Processed: []string{"p", "orphan"},
	}
	states := snap.States()
	assert.Equal(t, StateDiscovered, states["d"])
	assert.Equal(t, StateRawSaved, states["r"])
	assert.Equal(t, StateFullyParsed, states["f"])
	assert.Equal(t, StateProcessed, states["p"])
	assert.Equal(t, StateProcessed, states["orphan"])
	assert.Equal(t, StateRawSaved, snap.State("r"))
	assert.Equal(t, StateUnknown, snap.State("never-seen"))

	counts := snap.Counts()
	assert.Equal(t, 1, counts[StateDiscovered])
	assert.Equal(t, 1, counts[StateRawSaved])
	assert.Equal(t, 1, counts[StateFullyParsed])
	assert.Equal(t, 2, counts[StateProcessed])
}

func TestTrackerAgainstStores(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	require.NoError(t, s.UpsertDiscovered(ctx, []string{"A", "B", "C"}, nil))
	for _, id := range []string{"A", "B", "C"} {
		require.NoError(t, s.UpsertMatch(ctx, &model.RawMatch{ID: id}))
	}
	require.NoError(t, s.UpsertProcessedMatch(ctx, model.ProcessedMatch{ID: "B"}))

	tr := New(s, s, nil)

	retrieve, err := tr.MatchesNeedingRetrieval(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, retrieve)

	todo, err := tr.MatchesNeedingProcessing(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "C"}, todo)

	for _, id := range todo {
		require.NoError(t, s.UpsertProcessedMatch(ctx, model.ProcessedMatch{ID: id}))
	}
	todo, err = tr.MatchesNeedingProcessing(ctx, false)
	require.NoError(t, err)
	assert.Empty(t, todo)

	all, err := tr.MatchesNeedingProcessing(ctx, true)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestSnapshotModeFilter(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	require.NoError(t, s.UpsertDiscovered(ctx, []string{"A", "B", "C", "D"},
		[]string{"Conquest", "Conquest", "Breakthrough", "Breakthrough"}))
	for _, id := range []string{"A", "C", "D"} {
		require.NoError(t, s.UpsertMatch(ctx, &model.RawMatch{ID: id}))
	}
	require.NoError(t, s.UpsertProcessedMatch(ctx, model.ProcessedMatch{ID: "C"}))

	tr := New(s, s, nil)
	snap, err := tr.Snapshot(ctx, "Conquest")
	require.NoError(t, err)
	assert.Equal(t, []string{"A"}, snap.Parsed)
	assert.Empty(t, snap.Processed)

	counts := snap.Counts()
	assert.Equal(t, 1, counts[StateDiscovered])
	assert.Equal(t, 1, counts[StateFullyParsed])
	assert.Equal(t, 0, counts[StateProcessed])

	snap, err = tr.Snapshot(ctx, "Breakthrough")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"C", "D"}, snap.Parsed)
	assert.Equal(t, []string{"C"}, snap.Processed)
	assert.Equal(t, 1, snap.Counts()[StateProcessed])

	all, err := tr.Snapshot(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all.Parsed, 3)
}

func TestTrackerFailureIsNotEmpty(t *testing.T) {
	s := memory.New()
	s.Fail = store.ErrUnavailable
	tr := New(s, s, nil)

	ids, err := tr.MatchesNeedingRetrieval(context.Background(), "")
	assert.ErrorIs(t, err, store.ErrUnavailable)
	assert.Nil(t, ids)

	ids, err = tr.MatchesNeedingProcessing(context.Background(), false)
	assert.ErrorIs(t, err, store.ErrUnavailable)
	assert.Nil(t, ids)
}

func mustTime() time.Time {
	return time.Date(2021, 3, 14, 21, 5, 0, 0, time.UTC)
}
