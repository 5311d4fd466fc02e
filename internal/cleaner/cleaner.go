// Package cleaner turns a raw scraped match into a processed match and one
// typed fact per player.
package cleaner

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/pable/go-bfv-analytics/internal/lookup"
	"github.com/pable/go-bfv-analytics/internal/model"
	"github.com/pable/go-bfv-analytics/internal/normalize"
	"github.com/pable/go-bfv-analytics/internal/ranking"
)

// ErrIncompleteMatch marks a report with fewer than two teams. No result can
// be attributed, so callers skip the match.
var ErrIncompleteMatch = errors.New("match has fewer than two teams")

// Cleaner converts raw matches using the configured reference tables.
type Cleaner struct {
	tables *lookup.Tables
	log    *zap.Logger
}

// New returns a Cleaner. A nil logger discards output.
func New(tables *lookup.Tables, log *zap.Logger) *Cleaner {
	if log == nil {
		log = zap.NewNop()
	}
	return &Cleaner{tables: tables, log: log}
}

// Clean builds the processed match and its ranked player facts. Any malformed
// field fails the whole match with an error wrapping normalize.ErrMalformed.
func (c *Cleaner) Clean(raw *model.RawMatch) (model.ProcessedMatch, []model.MatchPlayer, error) {
	if raw == nil {
		return model.ProcessedMatch{}, nil, fmt.Errorf("nil RawMatch")
	}
	if raw.Team1 == "" || raw.Team2 == "" {
		return model.ProcessedMatch{}, nil, fmt.Errorf("%s: %w", raw.ID, ErrIncompleteMatch)
	}

	durationMin, err := normalize.Duration(raw.Duration)
	if err != nil {
		return model.ProcessedMatch{}, nil, fmt.Errorf("%s duration: %w", raw.ID, err)
	}
	start, err := normalize.StartTime(raw.StartTime)
	if err != nil {
		return model.ProcessedMatch{}, nil, fmt.Errorf("%s start time: %w", raw.ID, err)
	}

	match := model.ProcessedMatch{
		ID:          raw.ID,
		Map:         raw.Map,
		Mode:        raw.Mode,
		ServerRules: raw.ServerRules,
		ServerType:  raw.ServerType,
		Team1:       raw.Team1,
		Team2:       raw.Team2,
		Winner:      raw.Winner,
		DurationMin: durationMin,
		StartTime:   start,
	}

	players := make([]model.MatchPlayer, 0, len(raw.Players))
	seen := make(map[string]bool, len(raw.Players))
	for _, rp := range raw.Players {
		if seen[rp.PlayerID] {
			c.log.Warn("duplicate player in match, keeping first",
				zap.String("match_id", raw.ID), zap.String("player_id", rp.PlayerID))
			continue
		}
		seen[rp.PlayerID] = true

		p, err := cleanPlayer(rp)
		if err != nil {
			return model.ProcessedMatch{}, nil, fmt.Errorf("%s player %s: %w", raw.ID, rp.PlayerID, err)
		}
		p.ID = raw.ID + "_" + rp.PlayerID
		p.MatchID = raw.ID
		p.Map = raw.Map
		p.Mode = raw.Mode
		p.MatchStartTime = start
		p.DurationMin = durationMin
		attributeTeam(&p, raw)
		c.orient(&p)
		players = append(players, p)
	}

	return match, ranking.Rank(players, raw.Team1, raw.Team2), nil
}

// attributeTeam keeps the scraped team and status when present. Players with
// no team, or a team that is neither side of the match, did not finish.
func attributeTeam(p *model.MatchPlayer, raw *model.RawMatch) {
	if p.Team != raw.Team1 && p.Team != raw.Team2 {
		p.Team = model.UnknownTeam
		if p.TeamStatus == "" {
			p.TeamStatus = model.StatusDNF
		}
		return
	}
	if p.TeamStatus != "" {
		return
	}
	if raw.Winner != "" && p.Team == raw.Winner {
		p.TeamStatus = model.StatusWon
	} else {
		p.TeamStatus = model.StatusLost
	}
}

func (c *Cleaner) orient(p *model.MatchPlayer) {
	if p.Mode != model.ModeBreakthrough || p.Team == model.UnknownTeam {
		return
	}
	o, ok := c.tables.Orientation(p.Map, p.Team)
	if !ok {
		c.log.Debug("no orientation configured",
			zap.String("map", p.Map), zap.String("team", p.Team))
		return
	}
	p.Orientation = o
}

// fieldParser accumulates the first parse error so each field stays one line.
type fieldParser struct {
	err error
}

func (f *fieldParser) int(name, raw string) int {
	if f.err != nil {
		return 0
	}
	v, err := normalize.Int(raw)
	if err != nil {
		f.err = fmt.Errorf("%s: %w", name, err)
	}
	return v
}

func (f *fieldParser) float(name, raw string) float64 {
	if f.err != nil {
		return 0
	}
	v, err := normalize.Float(raw)
	if err != nil {
		f.err = fmt.Errorf("%s: %w", name, err)
	}
	return v
}

func cleanPlayer(rp model.RawPlayer) (model.MatchPlayer, error) {
	var f fieldParser
	p := model.MatchPlayer{
		PlayerID:   rp.PlayerID,
		Team:       rp.Team,
		TeamStatus: model.TeamStatus(rp.TeamStatus),

		Kills:             f.int("kills", rp.Kills),
		Deaths:            f.int("deaths", rp.Deaths),
		KillsPerDeath:     f.float("kills_per_death", rp.KillsPerDeath),
		KillsPerMin:       f.float("kills_per_min", rp.KillsPerMin),
		SoldierDamage:     f.int("soldier_damage", rp.SoldierDamage),
		Headshots:         f.int("headshots", rp.Headshots),
		KillAssists:       f.int("kill_assists", rp.KillAssists),
		AvengerKills:      f.int("avenger_kills", rp.AvengerKills),
		SaviorKills:       f.int("savior_kills", rp.SaviorKills),
		ShotsTaken:        f.int("shots_taken", rp.ShotsTaken),
		ShotsHit:          f.int("shots_hit", rp.ShotsHit),
		ShotAccuracy:      f.float("shot_accuracy", rp.ShotAccuracy),
		DogtagsTaken:      f.int("dogtags_taken", rp.DogtagsTaken),
		HighestKillstreak: f.int("highest_killstreak", rp.HighestKillstreak),
		HighestMultikill:  f.int("highest_multikill", rp.HighestMultikill),

		Heals:           f.int("heals", rp.Heals),
		Revives:         f.int("revives", rp.Revives),
		RevivesReceived: f.int("revives_received", rp.RevivesReceived),
		Resupplies:      f.int("resupplies", rp.Resupplies),
		Repairs:         f.int("repairs", rp.Repairs),
		SquadSpawns:     f.int("squad_spawns", rp.SquadSpawns),
		SquadWipes:      f.int("squad_wipes", rp.SquadWipes),
		OrdersCompleted: f.int("orders_completed", rp.OrdersCompleted),

		Score:       f.int("score", rp.Score),
		ScorePerMin: f.float("score_per_min", rp.ScorePerMin),
	}
	if f.err != nil {
		return model.MatchPlayer{}, f.err
	}

	lhs, err := normalize.LongestHeadshot(rp.LongestHeadshot)
	if err != nil {
		return model.MatchPlayer{}, fmt.Errorf("longest_headshot: %w", err)
	}
	p.LongestHeadshot = lhs

	p.TrueDeaths = p.Deaths + p.RevivesReceived
	p.TrueKillsPerDeath = float64(p.Kills) / float64(max(p.TrueDeaths, 1))
	if p.ScorePerMin > 0 {
		p.PlayerTime = float64(p.Score) / p.ScorePerMin
	}
	return p, nil
}
