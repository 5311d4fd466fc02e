package model

import "time"

// TeamStatus is a player's result within a match.
type TeamStatus string

const (
	StatusWon  TeamStatus = "won"
	StatusLost TeamStatus = "lost"
	StatusDNF  TeamStatus = "dnf"
)

// UnknownTeam is the team name given to players who left before the end of a match.
const UnknownTeam = "Unknown"

// Orientation is a team's side in Breakthrough.
type Orientation string

const (
	OrientationNone     Orientation = ""
	OrientationAttacker Orientation = "attacker"
	OrientationDefender Orientation = "defender"
)

// ModeBreakthrough is the only mode with attacker/defender sides.
const ModeBreakthrough = "Breakthrough"

// ---- Raw records supplied by the page extractor ----

// RawPlayer is one player's stat block exactly as scraped. Every stat is the
// display string from the page ("1,234", "23.4%", "412m").
type RawPlayer struct {
	PlayerID   string `json:"player_id" bson:"player_id" validate:"required"`
	Team       string `json:"team,omitempty" bson:"team,omitempty"`
	TeamStatus string `json:"team_status,omitempty" bson:"team_status,omitempty" validate:"omitempty,oneof=won lost dnf"`

	// Combat card
	Kills             string `json:"kills" bson:"kills" validate:"required"`
	Deaths            string `json:"deaths" bson:"deaths" validate:"required"`
	KillsPerDeath     string `json:"kills_per_death" bson:"kills_per_death" validate:"required"`
	KillsPerMin       string `json:"kills_per_min" bson:"kills_per_min" validate:"required"`
	SoldierDamage     string `json:"soldier_damage" bson:"soldier_damage" validate:"required"`
	Headshots         string `json:"headshots" bson:"headshots" validate:"required"`
	KillAssists       string `json:"kill_assists" bson:"kill_assists" validate:"required"`
	AvengerKills      string `json:"avenger_kills" bson:"avenger_kills" validate:"required"`
	SaviorKills       string `json:"savior_kills" bson:"savior_kills" validate:"required"`
	ShotsTaken        string `json:"shots_taken" bson:"shots_taken" validate:"required"`
	ShotsHit          string `json:"shots_hit" bson:"shots_hit" validate:"required"`
	ShotAccuracy      string `json:"shot_accuracy" bson:"shot_accuracy" validate:"required"`
	DogtagsTaken      string `json:"dogtags_taken" bson:"dogtags_taken" validate:"required"`
	LongestHeadshot   string `json:"longest_headshot" bson:"longest_headshot" validate:"required"`
	HighestKillstreak string `json:"highest_killstreak" bson:"highest_killstreak" validate:"required"`
	HighestMultikill  string `json:"highest_multikill" bson:"highest_multikill" validate:"required"`

	// Team card
	Heals           string `json:"heals" bson:"heals" validate:"required"`
	Revives         string `json:"revives" bson:"revives" validate:"required"`
	RevivesReceived string `json:"revives_received" bson:"revives_received" validate:"required"`
	Resupplies      string `json:"resupplies" bson:"resupplies" validate:"required"`
	Repairs         string `json:"repairs" bson:"repairs" validate:"required"`
	SquadSpawns     string `json:"squad_spawns" bson:"squad_spawns" validate:"required"`
	SquadWipes      string `json:"squad_wipes" bson:"squad_wipes" validate:"required"`
	OrdersCompleted string `json:"orders_completed" bson:"orders_completed" validate:"required"`

	// Score card
	Score       string `json:"score" bson:"score" validate:"required"`
	ScorePerMin string `json:"score_per_min" bson:"score_per_min" validate:"required"`
}

// RawMatch is a fully parsed match detail page. Team2 is empty for reports
// the site could only render one team for.
type RawMatch struct {
	ID          string      `json:"match_id" bson:"_id" validate:"required"`
	Map         string      `json:"map" bson:"map" validate:"required"`
	Mode        string      `json:"mode" bson:"mode" validate:"required"`
	Duration    string      `json:"duration" bson:"duration" validate:"required"`
	StartTime   string      `json:"datetime" bson:"datetime" validate:"required"`
	ServerRules string      `json:"server_rules" bson:"server_rules"`
	ServerType  string      `json:"server_type" bson:"server_type"`
	Team1       string      `json:"team_1,omitempty" bson:"team_1,omitempty"`
	Team2       string      `json:"team_2,omitempty" bson:"team_2,omitempty"`
	Winner      string      `json:"winner,omitempty" bson:"winner,omitempty"`
	Players     []RawPlayer `json:"players" bson:"players" validate:"dive"`
	LastUpdated time.Time   `json:"-" bson:"last_updated"`
}

// MatchRef is a match id known to the raw store, discovered from a player's
// report listing. CapturedAt is zero until the detail page has been captured.
type MatchRef struct {
	ID           string
	Mode         string
	DiscoveredAt time.Time
	CapturedAt   time.Time
}

// Captured reports whether the detail page for the match has been captured.
func (r MatchRef) Captured() bool { return !r.CapturedAt.IsZero() }

// StoredID is an id paired with the time its record was last written.
type StoredID struct {
	ID string
	At time.Time
}

// ---- Processed records ----

// ProcessedMatch is the cleaned match-level record.
type ProcessedMatch struct {
	ID            string
	Map           string
	Mode          string
	ServerRules   string
	ServerType    string
	Team1         string
	Team2         string
	Winner        string
	DurationMin   float64
	StartTime     time.Time
	ProcessedDate time.Time
}

// MatchPlayer is one cleaned, typed fact per player per match. ID is
// MatchID + "_" + PlayerID.
type MatchPlayer struct {
	ID         string
	MatchID    string
	PlayerID   string
	Map        string
	Mode       string
	Team       string
	TeamStatus TeamStatus

	Orientation    Orientation
	MatchStartTime time.Time
	DurationMin    float64

	Kills             int
	Deaths            int
	KillsPerDeath     float64
	KillsPerMin       float64
	SoldierDamage     int
	Headshots         int
	KillAssists       int
	AvengerKills      int
	SaviorKills       int
	ShotsTaken        int
	ShotsHit          int
	ShotAccuracy      float64 // fraction, 0.234 for "23.4%"
	DogtagsTaken      int
	LongestHeadshot   int // meters
	HighestKillstreak int
	HighestMultikill  int

	Heals           int
	Revives         int
	RevivesReceived int
	Resupplies      int
	Repairs         int
	SquadSpawns     int
	SquadWipes      int
	OrdersCompleted int

	Score       int
	ScorePerMin float64

	// Derived while cleaning
	TrueDeaths        int
	TrueKillsPerDeath float64
	PlayerTime        float64 // minutes
	OverallRank       int
	TeamRank          int
}

// FactMatchPlayer is a row of the reporting fact table: the processed fact plus
// every cross-match metric computed by the aggregator.
type FactMatchPlayer struct {
	MatchPlayer

	MatchTeamID       string
	MatchTeamStatusID string
	MapMode           string

	AdjSPM float64
	AdjKPM float64

	AggressionRating float64
	EfficiencyRating float64
	AER              float64
	BF4Skill         float64
	BF4SkillAdj      float64
	InactiveSquad    int

	// Nil for did-not-finish rows, which are excluded from normalization.
	MMAdjScorePerMin   *float64
	MMAdjKillsPerMin   *float64
	MMAdjKillsPerDeath *float64

	ScorePerMinPctl   int
	KillsPerMinPctl   int
	KillsPerDeathPctl int
	AERPctl           int
	BF4SkillPctl      int
}

// DimPlayer is the per-player rollup.
type DimPlayer struct {
	PlayerID      string
	MatchesPlayed int
	TotalKills    int
	TotalScore    int
	Squad         string
}

// DimMatch is a processed match joined with its fact rollup.
type DimMatch struct {
	ProcessedMatch
	Players        int
	InactiveSquads int
}

// Column describes one column of a reporting table.
type Column struct {
	Name string
	Type string // SQLite affinity: TEXT, INTEGER, REAL
}

// Table is a flat row set written wholesale to the reporting store.
type Table struct {
	Name    string
	Columns []Column
	Rows    [][]any
}

// RunRecord summarizes one pipeline stage execution.
type RunRecord struct {
	RunID      string
	Stage      string
	Processed  int
	Skipped    int
	Failed     int
	StartedAt  time.Time
	FinishedAt time.Time
}
