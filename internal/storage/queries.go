package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/pable/go-bfv-analytics/internal/model"
)

// ErrNotBuilt is returned by reporting-table queries before the first reload.
var ErrNotBuilt = errors.New("reporting tables not built yet; run reload")

// LatestRuns returns up to limit stage runs, newest first.
func (db *DB) LatestRuns(ctx context.Context, limit int) ([]model.RunRecord, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT run_id, stage, processed, skipped, failed, started_at, finished_at
		FROM pipeline_runs ORDER BY started_at DESC, stage LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var out []model.RunRecord
	for rows.Next() {
		var r model.RunRecord
		var started, finished sql.NullString
		if err := rows.Scan(&r.RunID, &r.Stage, &r.Processed, &r.Skipped, &r.Failed, &started, &finished); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		if r.StartedAt, err = parseTime(started); err != nil {
			return nil, err
		}
		if r.FinishedAt, err = parseTime(finished); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// TopPlayers returns the player dimension ordered by total score.
func (db *DB) TopPlayers(ctx context.Context, limit int) ([]model.DimPlayer, error) {
	if err := db.requireTable(ctx, "dim_player"); err != nil {
		return nil, err
	}
	rows, err := db.conn.QueryContext(ctx, `
		SELECT player_id, matches_played, total_kills, total_score, squad
		FROM dim_player ORDER BY total_score DESC, player_id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query dim_player: %w", err)
	}
	defer rows.Close()

	var out []model.DimPlayer
	for rows.Next() {
		var p model.DimPlayer
		if err := rows.Scan(&p.PlayerID, &p.MatchesPlayed, &p.TotalKills, &p.TotalScore, &p.Squad); err != nil {
			return nil, fmt.Errorf("scan dim_player: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// StratumSize is the row count and finished-row average score per minute of
// one map-mode stratum.
type StratumSize struct {
	MapMode  string
	Rows     int
	Finished int
	AvgSPM   float64
}

// StrataSizes summarizes the fact table by map-mode stratum.
func (db *DB) StrataSizes(ctx context.Context) ([]StratumSize, error) {
	if err := db.requireTable(ctx, "fact_match_players"); err != nil {
		return nil, err
	}
	rows, err := db.conn.QueryContext(ctx, `
		SELECT map_mode,
		       COUNT(1),
		       SUM(CASE WHEN team_status != 'dnf' THEN 1 ELSE 0 END),
		       COALESCE(AVG(CASE WHEN team_status != 'dnf' THEN score_per_min END), 0)
		FROM fact_match_players
		GROUP BY map_mode ORDER BY COUNT(1) DESC, map_mode`)
	if err != nil {
		return nil, fmt.Errorf("query strata: %w", err)
	}
	defer rows.Close()

	var out []StratumSize
	for rows.Next() {
		var s StratumSize
		if err := rows.Scan(&s.MapMode, &s.Rows, &s.Finished, &s.AvgSPM); err != nil {
			return nil, fmt.Errorf("scan stratum: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Benchmarks reads the single benchmark row keyed by column name. NULL cells
// map to nil.
func (db *DB) Benchmarks(ctx context.Context) (map[string]*float64, error) {
	if err := db.requireTable(ctx, "dim_benchmarks"); err != nil {
		return nil, err
	}
	rows, err := db.conn.QueryContext(ctx, `SELECT * FROM dim_benchmarks LIMIT 1`)
	if err != nil {
		return nil, fmt.Errorf("query benchmarks: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("read benchmark columns: %w", err)
	}
	out := make(map[string]*float64, len(cols))
	if !rows.Next() {
		return out, rows.Err()
	}
	vals := make([]sql.NullFloat64, len(cols))
	ptrs := make([]any, len(cols))
	for i := range vals {
		ptrs[i] = &vals[i]
	}
	if err := rows.Scan(ptrs...); err != nil {
		return nil, fmt.Errorf("scan benchmarks: %w", err)
	}
	for i, c := range cols {
		if vals[i].Valid {
			v := vals[i].Float64
			out[c] = &v
		} else {
			out[c] = nil
		}
	}
	return out, rows.Err()
}

func (db *DB) requireTable(ctx context.Context, name string) error {
	var n int
	err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM sqlite_master WHERE type = 'table' AND name = ?`, name).Scan(&n)
	if err != nil {
		return fmt.Errorf("check table %s: %w", name, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", name, ErrNotBuilt)
	}
	return nil
}
