package mongostore

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/pable/go-bfv-analytics/internal/extract"
	"github.com/pable/go-bfv-analytics/internal/model"
	"github.com/pable/go-bfv-analytics/internal/store"
)

func TestUnavailableIsMarked(t *testing.T) {
	err := unavailable(errors.New("server selection timeout"), "find game reports")
	assert.True(t, store.IsUnavailable(err))
	assert.Contains(t, err.Error(), "mongo find game reports")
	assert.Contains(t, err.Error(), "server selection timeout")
}

func TestMatchFromResult(t *testing.T) {
	good := mongo.NewSingleResultFromDocument(bson.D{
		{Key: "_id", Value: "psn_1"}, {Key: "map", Value: "Arras"}, {Key: "players", Value: bson.A{}},
	}, nil, nil)
	m, err := matchFromResult(good, "psn_1")
	require.NoError(t, err)
	assert.Equal(t, "Arras", m.Map)

	// A stored document of the wrong shape is bad data for that match only.
	legacy := mongo.NewSingleResultFromDocument(bson.D{
		{Key: "_id", Value: "psn_2"}, {Key: "players", Value: "not a list"},
	}, nil, nil)
	_, err = matchFromResult(legacy, "psn_2")
	require.Error(t, err)
	assert.True(t, errors.Is(err, extract.ErrInvalidDocument))
	assert.False(t, store.IsUnavailable(err))

	missing := mongo.NewSingleResultFromDocument(bson.D{}, mongo.ErrNoDocuments, nil)
	_, err = matchFromResult(missing, "psn_3")
	assert.True(t, errors.Is(err, store.ErrNotFound))
	assert.False(t, store.IsUnavailable(err))

	down := mongo.NewSingleResultFromDocument(bson.D{}, errors.New("connection reset"), nil)
	_, err = matchFromResult(down, "psn_4")
	assert.True(t, store.IsUnavailable(err))
}

// openTestStore connects to BFV_TEST_MONGO_URI using a throwaway database.
func openTestStore(t *testing.T) *Store {
	t.Helper()
	uri := os.Getenv("BFV_TEST_MONGO_URI")
	if uri == "" {
		t.Skip("BFV_TEST_MONGO_URI not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	s, err := Connect(ctx, uri, "bfv_test_"+uuid.NewString()[:8], nil)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = s.db.Drop(context.Background())
		_ = s.Close(context.Background())
	})
	return s
}

func TestRawStoreRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	first := time.Date(2021, 3, 1, 10, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return first }

	require.NoError(t, s.UpsertDiscovered(ctx, []string{"psn_b", "psn_a"}, []string{"Conquest", "Breakthrough"}))
	require.NoError(t, s.MarkCaptured(ctx, "psn_a"))
	s.now = func() time.Time { return first.Add(48 * time.Hour) }
	require.NoError(t, s.UpsertDiscovered(ctx, []string{"psn_a"}, nil))

	known, err := s.KnownMatches(ctx, "Breakthrough")
	require.NoError(t, err)
	require.Len(t, known, 1)
	assert.True(t, known[0].Captured())
	assert.True(t, known[0].DiscoveredAt.Equal(first), "rediscovery keeps the first sighting")

	require.NoError(t, s.UpsertMatch(ctx, &model.RawMatch{ID: "psn_a", Map: "Arras", Mode: "Breakthrough"}))
	require.NoError(t, s.UpsertMatch(ctx, &model.RawMatch{ID: "psn_a", Map: "Arras", Mode: "Breakthrough"}))
	parsed, err := s.ParsedMatches(ctx)
	require.NoError(t, err)
	require.Len(t, parsed, 1)
	assert.False(t, parsed[0].At.IsZero())

	m, err := s.GetMatch(ctx, "psn_a")
	require.NoError(t, err)
	assert.Equal(t, "Arras", m.Map)

	_, err = s.GetMatch(ctx, "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, s.UpsertPlayers(ctx, []string{"psn_x", "psn_y"}))
	require.NoError(t, s.UpsertPlayers(ctx, []string{"psn_x"}))
	n, err := s.PlayerCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}
