package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pable/go-bfv-analytics/internal/model"
	"github.com/pable/go-bfv-analytics/internal/store"
)

func openMemDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("open in-memory db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

var ctx = context.Background()

func TestDiscoveredAndCaptured(t *testing.T) {
	db := openMemDB(t)
	first := time.Date(2021, 3, 1, 10, 0, 0, 0, time.UTC)
	db.now = func() time.Time { return first }

	if err := db.UpsertDiscovered(ctx, []string{"psn_b", "psn_a"}, []string{"Conquest", "Breakthrough"}); err != nil {
		t.Fatalf("UpsertDiscovered: %v", err)
	}
	if err := db.MarkCaptured(ctx, "psn_a"); err != nil {
		t.Fatalf("MarkCaptured: %v", err)
	}
	// Rediscovery without modes keeps mode, capture mark and first sighting.
	db.now = func() time.Time { return first.Add(48 * time.Hour) }
	if err := db.UpsertDiscovered(ctx, []string{"psn_a"}, nil); err != nil {
		t.Fatalf("UpsertDiscovered again: %v", err)
	}

	all, err := db.KnownMatches(ctx, "")
	if err != nil {
		t.Fatalf("KnownMatches: %v", err)
	}
	if len(all) != 2 || all[0].ID != "psn_a" {
		t.Fatalf("expected psn_a first of 2, got %+v", all)
	}
	if !all[0].Captured() || all[1].Captured() {
		t.Errorf("capture marks wrong: %+v", all)
	}
	if !all[0].DiscoveredAt.Equal(first) {
		t.Errorf("rediscovery moved discovered_at to %v", all[0].DiscoveredAt)
	}

	bt, err := db.KnownMatches(ctx, "Breakthrough")
	if err != nil {
		t.Fatalf("KnownMatches filtered: %v", err)
	}
	if len(bt) != 1 || bt[0].ID != "psn_a" || bt[0].Mode != "Breakthrough" {
		t.Errorf("expected psn_a in Breakthrough, got %+v", bt)
	}
}

func TestMatchDocumentRoundTrip(t *testing.T) {
	db := openMemDB(t)

	m := &model.RawMatch{
		ID: "psn_abc", Map: "Arras", Mode: "Conquest", Duration: "24m 30s",
		StartTime: "3/14/21 @ 9:05 PM", Team1: "Germany", Team2: "UnitedKingdom", Winner: "Germany",
		Players: []model.RawPlayer{{PlayerID: "psn_x", Team: "Germany", Kills: "1,234", Score: "5,000"}},
	}
	if err := db.UpsertMatch(ctx, m); err != nil {
		t.Fatalf("UpsertMatch: %v", err)
	}
	// Second upsert replaces rather than duplicates.
	if err := db.UpsertMatch(ctx, m); err != nil {
		t.Fatalf("UpsertMatch again: %v", err)
	}

	got, err := db.GetMatch(ctx, "psn_abc")
	if err != nil {
		t.Fatalf("GetMatch: %v", err)
	}
	if got.Map != "Arras" || len(got.Players) != 1 || got.Players[0].Kills != "1,234" {
		t.Errorf("document mismatch: %+v", got)
	}
	if got.LastUpdated.IsZero() {
		t.Error("expected last_updated to be stamped")
	}

	parsed, err := db.ParsedMatches(ctx)
	if err != nil {
		t.Fatalf("ParsedMatches: %v", err)
	}
	if len(parsed) != 1 || parsed[0].ID != "psn_abc" {
		t.Errorf("expected one parsed id, got %+v", parsed)
	}

	if _, err := db.GetMatch(ctx, "missing"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestUpsertPlayersIdempotent(t *testing.T) {
	db := openMemDB(t)
	for i := 0; i < 2; i++ {
		if err := db.UpsertPlayers(ctx, []string{"psn_a", "psn_b"}); err != nil {
			t.Fatalf("UpsertPlayers: %v", err)
		}
	}
	n, err := db.PlayerCount(ctx)
	if err != nil {
		t.Fatalf("PlayerCount: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 players, got %d", n)
	}
}

func fact(matchID, playerID string, status model.TeamStatus, start time.Time) model.MatchPlayer {
	return model.MatchPlayer{
		ID: matchID + "_" + playerID, MatchID: matchID, PlayerID: playerID,
		Map: "Arras", Mode: "Breakthrough", Team: "Germany", TeamStatus: status,
		Orientation: model.OrientationAttacker, MatchStartTime: start, DurationMin: 24.5,
		Kills: 12, Deaths: 5, KillsPerDeath: 2.4, ShotAccuracy: 0.234, Score: 5000, ScorePerMin: 204.1,
		RevivesReceived: 2, TrueDeaths: 7, TrueKillsPerDeath: 12.0 / 7, OverallRank: 1, TeamRank: 1,
	}
}

func TestFactsRoundTripAndFilter(t *testing.T) {
	db := openMemDB(t)

	recent := time.Date(2021, 3, 14, 21, 5, 0, 0, time.UTC)
	old := recent.AddDate(-1, 0, 0)
	facts := []model.MatchPlayer{
		fact("m1", "a", model.StatusWon, recent),
		fact("m1", "b", model.StatusDNF, recent),
		fact("m0", "a", model.StatusLost, old),
	}
	if err := db.UpsertFacts(ctx, facts); err != nil {
		t.Fatalf("UpsertFacts: %v", err)
	}
	if err := db.UpsertFacts(ctx, facts); err != nil {
		t.Fatalf("UpsertFacts again: %v", err)
	}

	all, err := db.Facts(ctx, store.FactFilter{})
	if err != nil {
		t.Fatalf("Facts: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 facts after repeated upsert, got %d", len(all))
	}
	a := all[1] // ordered by id: m0_a, m1_a, m1_b
	if a.ID != "m1_a" || a.TrueDeaths != 7 || a.ShotAccuracy != 0.234 ||
		a.Orientation != model.OrientationAttacker || !a.MatchStartTime.Equal(recent) {
		t.Errorf("fact round trip mismatch: %+v", a)
	}

	got, err := db.Facts(ctx, store.FactFilter{ExcludeDNF: true, Since: recent.AddDate(0, -1, 0)})
	if err != nil {
		t.Fatalf("Facts filtered: %v", err)
	}
	if len(got) != 1 || got[0].ID != "m1_a" {
		t.Errorf("expected only m1_a, got %+v", got)
	}

	byPlayer, _ := db.Facts(ctx, store.FactFilter{PlayerID: "a"})
	if len(byPlayer) != 2 {
		t.Errorf("expected 2 facts for player a, got %d", len(byPlayer))
	}
}

func TestUpsertFactsAllOrNothing(t *testing.T) {
	db := openMemDB(t)
	bad := fact("m1", "b", model.StatusWon, time.Now())
	bad.ID = ""
	err := db.UpsertFacts(ctx, []model.MatchPlayer{fact("m1", "a", model.StatusWon, time.Now()), bad})
	if err == nil {
		t.Fatal("expected error for fact without id")
	}
	all, _ := db.Facts(ctx, store.FactFilter{})
	if len(all) != 0 {
		t.Errorf("expected no facts persisted, got %d", len(all))
	}
}

func TestProcessedMatches(t *testing.T) {
	db := openMemDB(t)
	start := time.Date(2021, 3, 14, 21, 5, 0, 0, time.UTC)
	m := model.ProcessedMatch{ID: "m1", Map: "Arras", Mode: "Conquest", Team1: "Germany", Team2: "UnitedKingdom",
		Winner: "Germany", DurationMin: 24.5, StartTime: start}
	if err := db.UpsertProcessedMatch(ctx, m); err != nil {
		t.Fatalf("UpsertProcessedMatch: %v", err)
	}
	if err := db.UpsertProcessedMatch(ctx, m); err != nil {
		t.Fatalf("UpsertProcessedMatch again: %v", err)
	}

	ids, err := db.ProcessedMatchIDs(ctx)
	if err != nil {
		t.Fatalf("ProcessedMatchIDs: %v", err)
	}
	if len(ids) != 1 || ids[0].ID != "m1" || ids[0].At.IsZero() {
		t.Errorf("unexpected processed ids: %+v", ids)
	}

	got, err := db.ProcessedMatches(ctx)
	if err != nil {
		t.Fatalf("ProcessedMatches: %v", err)
	}
	if len(got) != 1 || !got[0].StartTime.Equal(start) || got[0].DurationMin != 24.5 {
		t.Errorf("processed match mismatch: %+v", got)
	}
}

func TestWriteTableReplaces(t *testing.T) {
	db := openMemDB(t)
	tbl := model.Table{
		Name:    "dim_player",
		Columns: []model.Column{{"player_id", "TEXT"}, {"matches_played", "INTEGER"}, {"total_kills", "INTEGER"}, {"total_score", "INTEGER"}, {"squad", "TEXT"}},
		Rows:    [][]any{{"a", 2, 10, 900, "GUMI"}, {"b", 1, 3, 1200, "unknown"}},
	}
	for i := 0; i < 2; i++ {
		if err := db.WriteTable(ctx, tbl); err != nil {
			t.Fatalf("WriteTable: %v", err)
		}
	}

	players, err := db.TopPlayers(ctx, 10)
	if err != nil {
		t.Fatalf("TopPlayers: %v", err)
	}
	if len(players) != 2 {
		t.Fatalf("expected 2 rows after rewrite, got %d", len(players))
	}
	if players[0].PlayerID != "b" {
		t.Errorf("expected b first by score, got %s", players[0].PlayerID)
	}

	cols, rows, err := db.QueryRaw(ctx, "SELECT player_id, squad FROM dim_player ORDER BY player_id")
	if err != nil {
		t.Fatalf("QueryRaw: %v", err)
	}
	if len(cols) != 2 || len(rows) != 2 || rows[0][1] != "GUMI" {
		t.Errorf("unexpected raw result: %v %v", cols, rows)
	}
}

func TestWriteTableRejectsBadInput(t *testing.T) {
	db := openMemDB(t)
	if err := db.WriteTable(ctx, model.Table{Name: "x; DROP TABLE players"}); err == nil {
		t.Error("expected invalid table name to be rejected")
	}
	err := db.WriteTable(ctx, model.Table{
		Name:    "dim_player",
		Columns: []model.Column{{"player_id", "TEXT"}},
		Rows:    [][]any{{"a", 1}},
	})
	if err == nil {
		t.Error("expected ragged row to be rejected")
	}
}

func TestReportingTablesNotBuilt(t *testing.T) {
	db := openMemDB(t)
	if _, err := db.TopPlayers(ctx, 5); !errors.Is(err, ErrNotBuilt) {
		t.Errorf("expected ErrNotBuilt, got %v", err)
	}
	if _, err := db.Benchmarks(ctx); !errors.Is(err, ErrNotBuilt) {
		t.Errorf("expected ErrNotBuilt, got %v", err)
	}
}

func TestBenchmarksRow(t *testing.T) {
	db := openMemDB(t)
	err := db.WriteTable(ctx, model.Table{
		Name:    "dim_benchmarks",
		Columns: []model.Column{{"top_50_score_per_min", "REAL"}, {"top_1_score_per_min", "REAL"}},
		Rows:    [][]any{{412.5, nil}},
	})
	if err != nil {
		t.Fatalf("WriteTable: %v", err)
	}
	got, err := db.Benchmarks(ctx)
	if err != nil {
		t.Fatalf("Benchmarks: %v", err)
	}
	if v := got["top_50_score_per_min"]; v == nil || *v != 412.5 {
		t.Errorf("top_50: expected 412.5, got %v", v)
	}
	if v, ok := got["top_1_score_per_min"]; !ok || v != nil {
		t.Errorf("top_1: expected present nil, got %v (present=%v)", v, ok)
	}
}

func TestRecordAndListRuns(t *testing.T) {
	db := openMemDB(t)
	t0 := time.Date(2021, 3, 14, 21, 0, 0, 0, time.UTC)
	runs := []model.RunRecord{
		{RunID: "r1", Stage: "process", Processed: 3, Skipped: 1, StartedAt: t0, FinishedAt: t0.Add(time.Second)},
		{RunID: "r2", Stage: "reload", Processed: 40, StartedAt: t0.Add(time.Hour), FinishedAt: t0.Add(time.Hour + time.Second)},
	}
	for _, r := range runs {
		if err := db.RecordRun(ctx, r); err != nil {
			t.Fatalf("RecordRun: %v", err)
		}
	}
	got, err := db.LatestRuns(ctx, 10)
	if err != nil {
		t.Fatalf("LatestRuns: %v", err)
	}
	if len(got) != 2 || got[0].RunID != "r2" || got[1].Skipped != 1 {
		t.Errorf("unexpected runs: %+v", got)
	}
}

func TestPlaceholders(t *testing.T) {
	if got := placeholders(3); got != "?,?,?" {
		t.Errorf("placeholders(3) = %q", got)
	}
	if got := placeholders(0); got != "" {
		t.Errorf("placeholders(0) = %q", got)
	}
}
