// Package ranking assigns overall and per-team score ranks to the players of
// a single match.
package ranking

import (
	"sort"

	"github.com/pable/go-bfv-analytics/internal/model"
)

// DenseRanks maps each distinct score to its dense rank, highest score first.
// Tied scores share a rank and the next lower score ranks exactly one below.
func DenseRanks(scores []int) map[int]int {
	distinct := make([]int, 0, len(scores))
	seen := make(map[int]bool, len(scores))
	for _, s := range scores {
		if !seen[s] {
			seen[s] = true
			distinct = append(distinct, s)
		}
	}
	sort.Sort(sort.Reverse(sort.IntSlice(distinct)))

	ranks := make(map[int]int, len(distinct))
	for i, s := range distinct {
		ranks[s] = i + 1
	}
	return ranks
}

// Rank sets OverallRank and TeamRank on every player in place and returns the
// slice. Players on neither named team (left early, or no team recorded)
// are ranked among themselves.
func Rank(players []model.MatchPlayer, team1, team2 string) []model.MatchPlayer {
	var all, t1, t2, dnf []int
	for _, p := range players {
		all = append(all, p.Score)
		switch population(p.Team, team1, team2) {
		case 1:
			t1 = append(t1, p.Score)
		case 2:
			t2 = append(t2, p.Score)
		default:
			dnf = append(dnf, p.Score)
		}
	}

	overall := DenseRanks(all)
	teamRanks := map[int]map[int]int{
		1: DenseRanks(t1),
		2: DenseRanks(t2),
		0: DenseRanks(dnf),
	}

	for i := range players {
		p := &players[i]
		p.OverallRank = overall[p.Score]
		p.TeamRank = teamRanks[population(p.Team, team1, team2)][p.Score]
	}
	return players
}

func population(team, team1, team2 string) int {
	switch {
	case team == "" || team == model.UnknownTeam:
		return 0
	case team == team1:
		return 1
	case team == team2:
		return 2
	default:
		return 0
	}
}
