package storage

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"

	"github.com/pable/go-bfv-analytics/internal/model"
	"github.com/pable/go-bfv-analytics/internal/store"
)

const processedMatchColumns = `match_id, map, mode, server_rules, server_type, team_1, team_2, winner,
	duration_m, start_time, processed_date`

// ProcessedMatches returns every processed match ordered by id.
func (db *DB) ProcessedMatches(ctx context.Context) ([]model.ProcessedMatch, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+processedMatchColumns+` FROM processed_matches ORDER BY match_id`)
	if err != nil {
		return nil, fmt.Errorf("query processed matches: %w", err)
	}
	defer rows.Close()

	var out []model.ProcessedMatch
	for rows.Next() {
		var m model.ProcessedMatch
		var rules, typ, t1, t2, winner, start, processed sql.NullString
		if err := rows.Scan(&m.ID, &m.Map, &m.Mode, &rules, &typ, &t1, &t2, &winner,
			&m.DurationMin, &start, &processed); err != nil {
			return nil, fmt.Errorf("scan processed match: %w", err)
		}
		m.ServerRules, m.ServerType = rules.String, typ.String
		m.Team1, m.Team2, m.Winner = t1.String, t2.String, winner.String
		if m.StartTime, err = parseTime(start); err != nil {
			return nil, err
		}
		if m.ProcessedDate, err = parseTime(processed); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// ProcessedMatchIDs lists processed match ids with their processing time.
func (db *DB) ProcessedMatchIDs(ctx context.Context) ([]model.StoredID, error) {
	return db.storedIDs(ctx, `SELECT match_id, processed_date FROM processed_matches ORDER BY match_id`)
}

// UpsertProcessedMatch writes the match record, stamping processed_date.
func (db *DB) UpsertProcessedMatch(ctx context.Context, m model.ProcessedMatch) error {
	_, err := db.conn.ExecContext(ctx, `
		INSERT OR REPLACE INTO processed_matches(`+processedMatchColumns+`)
		VALUES (?,?,?,?,?,?,?,?,?,?,?)`,
		m.ID, m.Map, m.Mode, m.ServerRules, m.ServerType, m.Team1, m.Team2, m.Winner,
		m.DurationMin, formatTime(m.StartTime), formatTime(db.now()),
	)
	if err != nil {
		return fmt.Errorf("upsert processed match %s: %w", m.ID, err)
	}
	return nil
}

var factColumns = []string{
	"match_player_id", "match_id", "player_id", "map", "mode", "team", "team_status",
	"team_orientation", "match_start_time", "duration_m",
	"kills", "deaths", "kills_per_death", "kills_per_min", "soldier_damage", "headshots",
	"kill_assists", "avenger_kills", "savior_kills", "shots_taken", "shots_hit", "shot_accuracy",
	"dogtags_taken", "longest_headshot", "highest_killstreak", "highest_multikill",
	"heals", "revives", "revives_received", "resupplies", "repairs", "squad_spawns",
	"squad_wipes", "orders_completed", "score", "score_per_min",
	"true_deaths", "true_kills_per_death", "player_time", "overall_rank", "team_rank",
}

func factArgs(p model.MatchPlayer) []any {
	var orientation any
	if p.Orientation != model.OrientationNone {
		orientation = string(p.Orientation)
	}
	return []any{
		p.ID, p.MatchID, p.PlayerID, p.Map, p.Mode, p.Team, string(p.TeamStatus),
		orientation, formatTime(p.MatchStartTime), p.DurationMin,
		p.Kills, p.Deaths, p.KillsPerDeath, p.KillsPerMin, p.SoldierDamage, p.Headshots,
		p.KillAssists, p.AvengerKills, p.SaviorKills, p.ShotsTaken, p.ShotsHit, p.ShotAccuracy,
		p.DogtagsTaken, p.LongestHeadshot, p.HighestKillstreak, p.HighestMultikill,
		p.Heals, p.Revives, p.RevivesReceived, p.Resupplies, p.Repairs, p.SquadSpawns,
		p.SquadWipes, p.OrdersCompleted, p.Score, p.ScorePerMin,
		p.TrueDeaths, p.TrueKillsPerDeath, p.PlayerTime, p.OverallRank, p.TeamRank,
	}
}

// UpsertFacts bulk-writes facts in a single transaction: all or none.
func (db *DB) UpsertFacts(ctx context.Context, facts []model.MatchPlayer) error {
	for _, f := range facts {
		if f.ID == "" {
			return fmt.Errorf("upsert facts: fact for %s/%s has no id", f.MatchID, f.PlayerID)
		}
	}

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(
		`INSERT OR REPLACE INTO processed_match_players(%s) VALUES (%s)`,
		strings.Join(factColumns, ", "), placeholders(len(factColumns))))
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, f := range facts {
		if _, err := stmt.ExecContext(ctx, factArgs(f)...); err != nil {
			return fmt.Errorf("insert fact %s: %w", f.ID, err)
		}
	}
	return tx.Commit()
}

// Facts returns processed facts matching the filter, ordered by id.
func (db *DB) Facts(ctx context.Context, filter store.FactFilter) ([]model.MatchPlayer, error) {
	var where []string
	var args []any
	if filter.MatchID != "" {
		where = append(where, "match_id = ?")
		args = append(args, filter.MatchID)
	}
	if filter.PlayerID != "" {
		where = append(where, "player_id = ?")
		args = append(args, filter.PlayerID)
	}
	if filter.ExcludeDNF {
		where = append(where, "team_status != ?")
		args = append(args, string(model.StatusDNF))
	}
	if !filter.Since.IsZero() {
		where = append(where, "match_start_time >= ?")
		args = append(args, formatTime(filter.Since))
	}

	query := `SELECT ` + strings.Join(factColumns, ", ") + ` FROM processed_match_players`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	rows, err := db.conn.QueryContext(ctx, query+` ORDER BY match_player_id`, args...)
	if err != nil {
		return nil, fmt.Errorf("query facts: %w", err)
	}
	defer rows.Close()

	var out []model.MatchPlayer
	for rows.Next() {
		var p model.MatchPlayer
		var team, status, orientation, start sql.NullString
		if err := rows.Scan(
			&p.ID, &p.MatchID, &p.PlayerID, &p.Map, &p.Mode, &team, &status,
			&orientation, &start, &p.DurationMin,
			&p.Kills, &p.Deaths, &p.KillsPerDeath, &p.KillsPerMin, &p.SoldierDamage, &p.Headshots,
			&p.KillAssists, &p.AvengerKills, &p.SaviorKills, &p.ShotsTaken, &p.ShotsHit, &p.ShotAccuracy,
			&p.DogtagsTaken, &p.LongestHeadshot, &p.HighestKillstreak, &p.HighestMultikill,
			&p.Heals, &p.Revives, &p.RevivesReceived, &p.Resupplies, &p.Repairs, &p.SquadSpawns,
			&p.SquadWipes, &p.OrdersCompleted, &p.Score, &p.ScorePerMin,
			&p.TrueDeaths, &p.TrueKillsPerDeath, &p.PlayerTime, &p.OverallRank, &p.TeamRank,
		); err != nil {
			return nil, fmt.Errorf("scan fact: %w", err)
		}
		p.Team = team.String
		p.TeamStatus = model.TeamStatus(status.String)
		p.Orientation = model.Orientation(orientation.String)
		if p.MatchStartTime, err = parseTime(start); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

var identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// WriteTable drops and recreates the named reporting table and fills it, in
// one transaction.
func (db *DB) WriteTable(ctx context.Context, t model.Table) error {
	if !identifier.MatchString(t.Name) {
		return fmt.Errorf("write table: invalid table name %q", t.Name)
	}
	defs := make([]string, len(t.Columns))
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		if !identifier.MatchString(c.Name) {
			return fmt.Errorf("write table %s: invalid column name %q", t.Name, c.Name)
		}
		names[i] = `"` + c.Name + `"`
		defs[i] = names[i] + " " + c.Type
	}
	for i, row := range t.Rows {
		if len(row) != len(t.Columns) {
			return fmt.Errorf("write table %s: row %d has %d values for %d columns", t.Name, i, len(row), len(t.Columns))
		}
	}

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, fmt.Sprintf(`DROP TABLE IF EXISTS "%s"`, t.Name)); err != nil {
		return fmt.Errorf("drop table %s: %w", t.Name, err)
	}
	if _, err := tx.ExecContext(ctx, fmt.Sprintf(`CREATE TABLE "%s" (%s)`, t.Name, strings.Join(defs, ", "))); err != nil {
		return fmt.Errorf("create table %s: %w", t.Name, err)
	}

	if len(t.Rows) > 0 {
		stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(`INSERT INTO "%s" (%s) VALUES (%s)`,
			t.Name, strings.Join(names, ", "), placeholders(len(names))))
		if err != nil {
			return err
		}
		defer stmt.Close()
		for i, row := range t.Rows {
			if _, err := stmt.ExecContext(ctx, row...); err != nil {
				return fmt.Errorf("insert %s row %d: %w", t.Name, i, err)
			}
		}
	}
	return tx.Commit()
}

// RecordRun appends a stage run to the run log.
func (db *DB) RecordRun(ctx context.Context, r model.RunRecord) error {
	_, err := db.conn.ExecContext(ctx, `
		INSERT OR REPLACE INTO pipeline_runs(run_id, stage, processed, skipped, failed, started_at, finished_at)
		VALUES (?,?,?,?,?,?,?)`,
		r.RunID, r.Stage, r.Processed, r.Skipped, r.Failed, formatTime(r.StartedAt), formatTime(r.FinishedAt))
	if err != nil {
		return fmt.Errorf("record run %s/%s: %w", r.RunID, r.Stage, err)
	}
	return nil
}

// placeholders returns a comma-separated string of n "?" for SQL value lists,
// e.g. placeholders(3) → "?,?,?".
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat("?,", n-1) + "?"
}
