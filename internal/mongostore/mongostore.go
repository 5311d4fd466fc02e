// Package mongostore is the MongoDB raw store: discovered report ids, captured
// match documents and player ids.
package mongostore

import (
	"context"
	"time"

	crerr "github.com/cockroachdb/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/pable/go-bfv-analytics/internal/extract"
	"github.com/pable/go-bfv-analytics/internal/model"
	"github.com/pable/go-bfv-analytics/internal/store"
)

// Collection names.
const (
	GameReports = "game_reports"
	Matches     = "matches"
	Players     = "players"
)

// Store implements store.RawStore over a MongoDB database.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
	log    *zap.Logger
	now    func() time.Time
}

var _ store.RawStore = (*Store)(nil)

// Connect dials uri, pings the server and returns a store on database.
func Connect(ctx context.Context, uri, database string, log *zap.Logger) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, unavailable(err, "connect")
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, unavailable(err, "ping")
	}
	return New(client, database, log), nil
}

// New wraps an already connected client.
func New(client *mongo.Client, database string, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{client: client, db: client.Database(database), log: log, now: time.Now}
}

// Close disconnects the client.
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// unavailable marks a driver failure so callers can abort on store.IsUnavailable.
func unavailable(err error, op string) error {
	return crerr.Mark(crerr.Wrapf(err, "mongo %s", op), store.ErrUnavailable)
}

type reportDoc struct {
	ID           string     `bson:"_id"`
	Mode         string     `bson:"mode,omitempty"`
	DiscoveredAt time.Time  `bson:"discovered_at"`
	CapturedAt   *time.Time `bson:"captured_at,omitempty"`
}

func (d reportDoc) ref() model.MatchRef {
	r := model.MatchRef{ID: d.ID, Mode: d.Mode, DiscoveredAt: d.DiscoveredAt}
	if d.CapturedAt != nil {
		r.CapturedAt = *d.CapturedAt
	}
	return r
}

var byID = options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})

func (s *Store) KnownMatches(ctx context.Context, modeFilter string) ([]model.MatchRef, error) {
	filter := bson.M{}
	if modeFilter != "" {
		filter["mode"] = modeFilter
	}
	cur, err := s.db.Collection(GameReports).Find(ctx, filter, byID)
	if err != nil {
		return nil, unavailable(err, "find game reports")
	}
	var docs []reportDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, unavailable(err, "read game reports")
	}

	out := make([]model.MatchRef, len(docs))
	for i, d := range docs {
		out[i] = d.ref()
	}
	return out, nil
}

func (s *Store) UpsertDiscovered(ctx context.Context, ids []string, modes []string) error {
	if modes != nil && len(modes) != len(ids) {
		return crerr.Newf("upsert discovered: %d ids but %d modes", len(ids), len(modes))
	}
	if len(ids) == 0 {
		return nil
	}

	now := s.now().UTC()
	models := make([]mongo.WriteModel, len(ids))
	for i, id := range ids {
		update := bson.M{"$setOnInsert": bson.M{"discovered_at": now}}
		if modes != nil && modes[i] != "" {
			update["$set"] = bson.M{"mode": modes[i]}
		}
		models[i] = mongo.NewUpdateOneModel().
			SetFilter(bson.M{"_id": id}).
			SetUpdate(update).
			SetUpsert(true)
	}
	res, err := s.db.Collection(GameReports).BulkWrite(ctx, models, options.BulkWrite().SetOrdered(false))
	if err != nil {
		return unavailable(err, "upsert game reports")
	}
	s.log.Debug("game reports upserted",
		zap.Int64("inserted", res.UpsertedCount), zap.Int64("updated", res.ModifiedCount))
	return nil
}

func (s *Store) MarkCaptured(ctx context.Context, id string) error {
	now := s.now().UTC()
	_, err := s.db.Collection(GameReports).UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"captured_at": now}, "$setOnInsert": bson.M{"discovered_at": now}},
		options.Update().SetUpsert(true))
	if err != nil {
		return unavailable(err, "mark captured "+id)
	}
	return nil
}

func (s *Store) UpsertMatch(ctx context.Context, m *model.RawMatch) error {
	doc := *m
	doc.LastUpdated = s.now().UTC()
	_, err := s.db.Collection(Matches).ReplaceOne(ctx, bson.M{"_id": m.ID}, &doc, options.Replace().SetUpsert(true))
	if err != nil {
		return unavailable(err, "upsert match "+m.ID)
	}
	return nil
}

func (s *Store) GetMatch(ctx context.Context, id string) (*model.RawMatch, error) {
	return matchFromResult(s.db.Collection(Matches).FindOne(ctx, bson.M{"_id": id}), id)
}

// matchFromResult separates a failed query from a document that exists but
// does not decode. Only the former is a connectivity problem.
func matchFromResult(res *mongo.SingleResult, id string) (*model.RawMatch, error) {
	if err := res.Err(); err != nil {
		if crerr.Is(err, mongo.ErrNoDocuments) {
			return nil, crerr.Wrapf(store.ErrNotFound, "match %s", id)
		}
		return nil, unavailable(err, "get match "+id)
	}
	var m model.RawMatch
	if err := res.Decode(&m); err != nil {
		return nil, crerr.Wrapf(extract.ErrInvalidDocument, "decode match %s: %v", id, err)
	}
	return &m, nil
}

func (s *Store) ParsedMatches(ctx context.Context) ([]model.StoredID, error) {
	opts := options.Find().
		SetProjection(bson.M{"_id": 1, "last_updated": 1}).
		SetSort(bson.D{{Key: "_id", Value: 1}})
	cur, err := s.db.Collection(Matches).Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, unavailable(err, "find matches")
	}
	var docs []struct {
		ID          string    `bson:"_id"`
		LastUpdated time.Time `bson:"last_updated"`
	}
	if err := cur.All(ctx, &docs); err != nil {
		return nil, unavailable(err, "read matches")
	}

	out := make([]model.StoredID, len(docs))
	for i, d := range docs {
		out[i] = model.StoredID{ID: d.ID, At: d.LastUpdated}
	}
	return out, nil
}

func (s *Store) UpsertPlayers(ctx context.Context, playerIDs []string) error {
	if len(playerIDs) == 0 {
		return nil
	}
	now := s.now().UTC()
	models := make([]mongo.WriteModel, len(playerIDs))
	for i, id := range playerIDs {
		models[i] = mongo.NewUpdateOneModel().
			SetFilter(bson.M{"_id": id}).
			SetUpdate(bson.M{"$setOnInsert": bson.M{"first_seen": now}}).
			SetUpsert(true)
	}
	if _, err := s.db.Collection(Players).BulkWrite(ctx, models, options.BulkWrite().SetOrdered(false)); err != nil {
		return unavailable(err, "upsert players")
	}
	return nil
}

// PlayerCount returns the number of distinct players seen.
func (s *Store) PlayerCount(ctx context.Context) (int, error) {
	n, err := s.db.Collection(Players).CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, unavailable(err, "count players")
	}
	return int(n), nil
}
