package aggregator

import (
	"fmt"
	"sort"

	"github.com/pable/go-bfv-analytics/internal/model"
)

// PlayerProfile is one player's rollup over a set of facts. Averages are per
// match over every row given.
type PlayerProfile struct {
	PlayerID string
	Matches  int
	Finished int
	Wins     int
	Kills    int
	Deaths   int
	Score    int

	AvgSPM    float64
	AvgKPM    float64
	AvgKD     float64
	AvgTrueKD float64
	AvgAER    float64
}

// WinRate is wins over finished matches, zero when none finished.
func (p PlayerProfile) WinRate() float64 {
	if p.Finished == 0 {
		return 0
	}
	return float64(p.Wins) / float64(p.Finished)
}

// Profiles rolls facts up per player, ordered by player id.
func Profiles(facts []model.MatchPlayer) []PlayerProfile {
	byID := make(map[string]*PlayerProfile)
	for _, f := range facts {
		p := byID[f.PlayerID]
		if p == nil {
			p = &PlayerProfile{PlayerID: f.PlayerID}
			byID[f.PlayerID] = p
		}
		p.Matches++
		if f.TeamStatus != model.StatusDNF {
			p.Finished++
		}
		if f.TeamStatus == model.StatusWon {
			p.Wins++
		}
		p.Kills += f.Kills
		p.Deaths += f.Deaths
		p.Score += f.Score

		_, _, aer, _, _ := Ratings(f)
		p.AvgSPM += f.ScorePerMin
		p.AvgKPM += f.KillsPerMin
		p.AvgKD += f.KillsPerDeath
		p.AvgTrueKD += f.TrueKillsPerDeath
		p.AvgAER += aer
	}

	out := make([]PlayerProfile, 0, len(byID))
	for _, p := range byID {
		n := float64(p.Matches)
		p.AvgSPM /= n
		p.AvgKPM /= n
		p.AvgKD /= n
		p.AvgTrueKD /= n
		p.AvgAER /= n
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PlayerID < out[j].PlayerID })
	return out
}

// Tier names the narrowest benchmark threshold value reaches for metric, or
// "" when it reaches none or no benchmark exists. bench is keyed by
// BenchmarkColumn.
func Tier(value float64, metric string, bench map[string]*float64) string {
	for i := len(Thresholds) - 1; i >= 0; i-- {
		th := Thresholds[i]
		cut := bench[BenchmarkColumn(th, metric)]
		if cut != nil && value >= *cut {
			return fmt.Sprintf("TOP %d%%", th.TopPercent)
		}
	}
	return ""
}
