package aggregator

import (
	"sort"

	"github.com/pable/go-bfv-analytics/internal/lookup"
	"github.com/pable/go-bfv-analytics/internal/model"
)

// DimPlayers rolls facts up per player, tagging known squad members. Output
// is sorted by player id.
func DimPlayers(facts []model.FactMatchPlayer, tables *lookup.Tables) []model.DimPlayer {
	byID := make(map[string]*model.DimPlayer)
	for i := range facts {
		f := &facts[i]
		d, ok := byID[f.PlayerID]
		if !ok {
			d = &model.DimPlayer{PlayerID: f.PlayerID, Squad: tables.Squad(f.PlayerID)}
			byID[f.PlayerID] = d
		}
		d.MatchesPlayed++
		d.TotalKills += f.Kills
		d.TotalScore += f.Score
	}

	out := make([]model.DimPlayer, 0, len(byID))
	for _, d := range byID {
		out = append(out, *d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PlayerID < out[j].PlayerID })
	return out
}

// DimMatches joins processed matches with their fact rollup. Matches with no
// facts are dropped, as are duplicate match records.
func DimMatches(matches []model.ProcessedMatch, facts []model.FactMatchPlayer) []model.DimMatch {
	type rollup struct{ players, inactive int }
	byMatch := make(map[string]*rollup)
	for i := range facts {
		r, ok := byMatch[facts[i].MatchID]
		if !ok {
			r = &rollup{}
			byMatch[facts[i].MatchID] = r
		}
		r.players++
		r.inactive += facts[i].InactiveSquad
	}

	seen := make(map[string]bool, len(matches))
	out := make([]model.DimMatch, 0, len(matches))
	for _, m := range matches {
		r, ok := byMatch[m.ID]
		if !ok || seen[m.ID] {
			continue
		}
		seen[m.ID] = true
		out = append(out, model.DimMatch{ProcessedMatch: m, Players: r.players, InactiveSquads: r.inactive})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
