package aggregator

import (
	"time"

	"github.com/pable/go-bfv-analytics/internal/lookup"
	"github.com/pable/go-bfv-analytics/internal/model"
)

// Reporting table names.
const (
	TableFacts      = "fact_match_players"
	TableDimPlayer  = "dim_player"
	TableDimMatch   = "dim_match"
	TableBenchmarks = "dim_benchmarks"
)

// Result is a full recomputation of the reporting schema.
type Result struct {
	Facts      []model.FactMatchPlayer
	Players    []model.DimPlayer
	Matches    []model.DimMatch
	Benchmarks []Benchmark
}

// Build recomputes every reporting table from all processed matches and facts.
func Build(matches []model.ProcessedMatch, players []model.MatchPlayer, tables *lookup.Tables, opts Options, now time.Time) Result {
	facts := BuildFacts(players, opts)
	return Result{
		Facts:      facts,
		Players:    DimPlayers(facts, tables),
		Matches:    DimMatches(matches, facts),
		Benchmarks: Benchmarks(facts, now, opts.BenchmarkWindow),
	}
}

// Tables renders the result as flat row sets, in write order.
func (r Result) Tables() []model.Table {
	return []model.Table{
		factTable(r.Facts),
		dimPlayerTable(r.Players),
		dimMatchTable(r.Matches),
		benchmarkTable(r.Benchmarks),
	}
}

const (
	colText = "TEXT"
	colInt  = "INTEGER"
	colReal = "REAL"
)

func cols(pairs ...string) []model.Column {
	out := make([]model.Column, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, model.Column{Name: pairs[i], Type: pairs[i+1]})
	}
	return out
}

func timestamp(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.UTC().Format(time.RFC3339)
}

func nullable(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

func orientation(o model.Orientation) any {
	if o == model.OrientationNone {
		return nil
	}
	return string(o)
}

var factColumns = cols(
	"match_player_id", colText,
	"match_id", colText,
	"player_id", colText,
	"match_team_id", colText,
	"match_team_status_id", colText,
	"map_mode", colText,
	"map", colText,
	"mode", colText,
	"team", colText,
	"team_status", colText,
	"team_orientation", colText,
	"match_start_time", colText,
	"duration_m", colReal,
	"kills", colInt,
	"deaths", colInt,
	"kills_per_death", colReal,
	"kills_per_min", colReal,
	"soldier_damage", colInt,
	"headshots", colInt,
	"kill_assists", colInt,
	"avenger_kills", colInt,
	"savior_kills", colInt,
	"shots_taken", colInt,
	"shots_hit", colInt,
	"shot_accuracy", colReal,
	"dogtags_taken", colInt,
	"longest_headshot", colInt,
	"highest_killstreak", colInt,
	"highest_multikill", colInt,
	"heals", colInt,
	"revives", colInt,
	"revives_received", colInt,
	"resupplies", colInt,
	"repairs", colInt,
	"squad_spawns", colInt,
	"squad_wipes", colInt,
	"orders_completed", colInt,
	"score", colInt,
	"score_per_min", colReal,
	"true_deaths", colInt,
	"true_kills_per_death", colReal,
	"player_time", colReal,
	"overall_rank", colInt,
	"team_rank", colInt,
	"adj_spm", colReal,
	"adj_kpm", colReal,
	"aggression_rating", colReal,
	"efficiency_rating", colReal,
	"AER", colReal,
	"bf4_match_skill", colReal,
	"bf4_match_skill_adj", colReal,
	"inactive_squad", colInt,
	"mm_adj_score_per_min", colReal,
	"mm_adj_kills_per_min", colReal,
	"mm_adj_kills_per_death", colReal,
	"score_per_min_pctl", colInt,
	"kills_per_min_pctl", colInt,
	"kills_per_death_pctl", colInt,
	"AER_pctl", colInt,
	"bf4_match_skill_pctl", colInt,
)

func factTable(facts []model.FactMatchPlayer) model.Table {
	rows := make([][]any, len(facts))
	for i, f := range facts {
		rows[i] = []any{
			f.ID, f.MatchID, f.PlayerID, f.MatchTeamID, f.MatchTeamStatusID, f.MapMode,
			f.Map, f.Mode, f.Team, string(f.TeamStatus), orientation(f.Orientation),
			timestamp(f.MatchStartTime), f.DurationMin,
			f.Kills, f.Deaths, f.KillsPerDeath, f.KillsPerMin, f.SoldierDamage, f.Headshots,
			f.KillAssists, f.AvengerKills, f.SaviorKills, f.ShotsTaken, f.ShotsHit, f.ShotAccuracy,
			f.DogtagsTaken, f.LongestHeadshot, f.HighestKillstreak, f.HighestMultikill,
			f.Heals, f.Revives, f.RevivesReceived, f.Resupplies, f.Repairs, f.SquadSpawns,
			f.SquadWipes, f.OrdersCompleted, f.Score, f.ScorePerMin,
			f.TrueDeaths, f.TrueKillsPerDeath, f.PlayerTime, f.OverallRank, f.TeamRank,
			f.AdjSPM, f.AdjKPM,
			f.AggressionRating, f.EfficiencyRating, f.AER, f.BF4Skill, f.BF4SkillAdj, f.InactiveSquad,
			nullable(f.MMAdjScorePerMin), nullable(f.MMAdjKillsPerMin), nullable(f.MMAdjKillsPerDeath),
			f.ScorePerMinPctl, f.KillsPerMinPctl, f.KillsPerDeathPctl, f.AERPctl, f.BF4SkillPctl,
		}
	}
	return model.Table{Name: TableFacts, Columns: factColumns, Rows: rows}
}

func dimPlayerTable(players []model.DimPlayer) model.Table {
	rows := make([][]any, len(players))
	for i, p := range players {
		rows[i] = []any{p.PlayerID, p.MatchesPlayed, p.TotalKills, p.TotalScore, p.Squad}
	}
	return model.Table{
		Name: TableDimPlayer,
		Columns: cols(
			"player_id", colText,
			"matches_played", colInt,
			"total_kills", colInt,
			"total_score", colInt,
			"squad", colText,
		),
		Rows: rows,
	}
}

func dimMatchTable(matches []model.DimMatch) model.Table {
	rows := make([][]any, len(matches))
	for i, m := range matches {
		rows[i] = []any{
			m.ID, m.Map, m.Mode, m.ServerRules, m.ServerType, m.Team1, m.Team2, m.Winner,
			m.DurationMin, timestamp(m.StartTime), timestamp(m.ProcessedDate),
			m.Players, m.InactiveSquads,
		}
	}
	return model.Table{
		Name: TableDimMatch,
		Columns: cols(
			"match_id", colText,
			"map", colText,
			"mode", colText,
			"server_rules", colText,
			"server_type", colText,
			"team_1", colText,
			"team_2", colText,
			"winner", colText,
			"duration_m", colReal,
			"match_start_time", colText,
			"processed_date", colText,
			"players", colInt,
			"inactive_squads", colInt,
		),
		Rows: rows,
	}
}

// benchmarkTable is a single wide row, one column per (threshold, metric).
func benchmarkTable(bs []Benchmark) model.Table {
	t := model.Table{Name: TableBenchmarks, Columns: make([]model.Column, len(bs))}
	row := make([]any, len(bs))
	for i, b := range bs {
		t.Columns[i] = model.Column{Name: b.Column, Type: colReal}
		row[i] = nullable(b.Value)
	}
	t.Rows = [][]any{row}
	return t
}
