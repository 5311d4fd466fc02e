package ranking

import (
	"testing"

	"github.com/pable/go-bfv-analytics/internal/model"
)

func player(id, team string, score int) model.MatchPlayer {
	return model.MatchPlayer{PlayerID: id, Team: team, Score: score}
}

func TestDenseRanksTies(t *testing.T) {
	scores := []int{500, 500, 300}
	ranks := DenseRanks(scores)
	got := []int{ranks[500], ranks[500], ranks[300]}
	want := []int{1, 1, 2}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("ranks for %v: got %v, want %v", scores, got, want)
		}
	}
}

func TestDenseRanksEmpty(t *testing.T) {
	if r := DenseRanks(nil); len(r) != 0 {
		t.Errorf("expected empty ranks, got %v", r)
	}
}

func TestRankPopulations(t *testing.T) {
	players := []model.MatchPlayer{
		player("a", "Germany", 900),
		player("b", "Germany", 400),
		player("c", "Germany", 400),
		player("d", "UnitedKingdom", 700),
		player("e", "UnitedKingdom", 100),
		player("f", model.UnknownTeam, 50),
		player("g", "", 800),
	}

	got := Rank(players, "Germany", "UnitedKingdom")

	want := map[string][2]int{ // overall, team
		"a": {1, 1},
		"g": {2, 1},
		"d": {3, 1},
		"b": {4, 2},
		"c": {4, 2},
		"e": {5, 2},
		"f": {6, 2},
	}
	for _, p := range got {
		w := want[p.PlayerID]
		if p.OverallRank != w[0] || p.TeamRank != w[1] {
			t.Errorf("%s: overall=%d team=%d, want overall=%d team=%d",
				p.PlayerID, p.OverallRank, p.TeamRank, w[0], w[1])
		}
	}
}

func TestRankEveryPlayerRanked(t *testing.T) {
	players := []model.MatchPlayer{
		player("a", "A", 10),
		player("b", "B", 10),
		player("c", "C", 10), // not one of the two named teams
	}
	for _, p := range Rank(players, "A", "B") {
		if p.OverallRank != 1 {
			t.Errorf("%s: expected overall rank 1 for tied scores, got %d", p.PlayerID, p.OverallRank)
		}
		if p.TeamRank != 1 {
			t.Errorf("%s: expected team rank 1, got %d", p.PlayerID, p.TeamRank)
		}
	}
}
