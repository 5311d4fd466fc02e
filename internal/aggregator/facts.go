// Package aggregator builds the reporting fact table, dimensions and
// benchmarks from the full set of processed match-player facts.
package aggregator

import (
	"fmt"
	"math"
	"time"

	"github.com/pable/go-bfv-analytics/internal/model"
)

// Rating policy constants. These reproduce historical ratings and are not
// fitted to data.
const (
	aggressionCap = 1000.0
	efficiencyCap = 1600.0
	ratingScale   = 5.0

	skillSPMWeight = 0.6
	skillKPMWeight = 0.3
	skillKDWeight  = 0.1
	skillSPMCap    = 1000.0
	skillKPMCap    = 3.0
	skillKDCap     = 5.0

	// PercentileBuckets is the number of equal-frequency buckets per metric.
	PercentileBuckets = 100
)

// Target selects the distribution normalized values are rescaled onto.
type Target int

const (
	// TargetStratum rescales with each map-mode stratum's own mean and
	// standard deviation.
	TargetStratum Target = iota
	// TargetGlobal rescales onto the mean and standard deviation of all
	// finished rows, so strata become comparable.
	TargetGlobal
)

// ParseTarget maps a config value to a Target.
func ParseTarget(s string) (Target, error) {
	switch s {
	case "", "stratum":
		return TargetStratum, nil
	case "global":
		return TargetGlobal, nil
	default:
		return 0, fmt.Errorf("unknown normalization target %q (want stratum or global)", s)
	}
}

func (t Target) String() string {
	if t == TargetGlobal {
		return "global"
	}
	return "stratum"
}

// Options tunes a reload.
type Options struct {
	Target          Target
	BenchmarkWindow time.Duration // zero means DefaultBenchmarkWindow
}

// Ratings computes the per-row derived metrics that need no other rows.
func Ratings(p model.MatchPlayer) (aggression, efficiency, aer, skill, skillAdj float64) {
	credit := float64(p.Score + 100*p.Kills)

	var perMinute float64
	if p.PlayerTime > 0 {
		perMinute = credit / p.PlayerTime
	}
	aggression = ratingScale * clip(perMinute, 0, aggressionCap) / aggressionCap

	perLife := credit / float64(max(p.TrueDeaths, 1))
	efficiency = ratingScale * clip(perLife, 0, efficiencyCap) / efficiencyCap

	aer = aggression + efficiency
	skill = bf4Skill(p.ScorePerMin, p.KillsPerMin, p.KillsPerDeath)
	skillAdj = bf4Skill(p.ScorePerMin, p.KillsPerMin, p.TrueKillsPerDeath)
	return
}

func bf4Skill(spm, kpm, kd float64) float64 {
	return 1000 * (skillSPMWeight*clip(spm, 0, skillSPMCap)/skillSPMCap +
		skillKPMWeight*clip(kpm, 0, skillKPMCap)/skillKPMCap +
		skillKDWeight*clip(kd, 0, skillKDCap)/skillKDCap)
}

// BuildFacts derives the fact table from every processed fact. Output order
// follows input order.
func BuildFacts(players []model.MatchPlayer, opts Options) []model.FactMatchPlayer {
	facts := make([]model.FactMatchPlayer, len(players))
	for i, p := range players {
		f := model.FactMatchPlayer{
			MatchPlayer:       p,
			MatchTeamID:       p.MatchID + "_" + p.Team,
			MatchTeamStatusID: p.MatchID + "_" + string(p.TeamStatus),
			MapMode:           p.Map + "_" + p.Mode,
		}
		f.AdjSPM = float64(p.Score) / math.Max(p.DurationMin, 1)
		f.AdjKPM = float64(p.Kills) / math.Max(p.DurationMin, 1)
		f.AggressionRating, f.EfficiencyRating, f.AER, f.BF4Skill, f.BF4SkillAdj = Ratings(p)
		f.InactiveSquad = 1 - int(clip(float64(p.OrdersCompleted), 0, 1))
		facts[i] = f
	}

	normalize(facts, opts.Target)
	percentiles(facts)
	return facts
}

type metric struct {
	name string
	get  func(*model.FactMatchPlayer) float64
}

var normalizedMetrics = []struct {
	metric
	set func(*model.FactMatchPlayer, float64)
}{
	{metric{"score_per_min", func(f *model.FactMatchPlayer) float64 { return f.ScorePerMin }},
		func(f *model.FactMatchPlayer, v float64) { f.MMAdjScorePerMin = &v }},
	{metric{"kills_per_min", func(f *model.FactMatchPlayer) float64 { return f.KillsPerMin }},
		func(f *model.FactMatchPlayer, v float64) { f.MMAdjKillsPerMin = &v }},
	{metric{"kills_per_death", func(f *model.FactMatchPlayer) float64 { return f.KillsPerDeath }},
		func(f *model.FactMatchPlayer, v float64) { f.MMAdjKillsPerDeath = &v }},
}

// normalize z-scores each finished row within its map-mode stratum and
// rescales onto the target distribution. Strata with fewer than two rows or
// no variance pass the raw value through.
func normalize(facts []model.FactMatchPlayer, target Target) {
	strata := make(map[string][]int)
	var finished []int
	for i := range facts {
		if facts[i].TeamStatus == model.StatusDNF {
			continue
		}
		strata[facts[i].MapMode] = append(strata[facts[i].MapMode], i)
		finished = append(finished, i)
	}

	for _, m := range normalizedMetrics {
		globalMean, globalStd := moments(facts, finished, m.get)

		for _, idx := range strata {
			mu, sd := moments(facts, idx, m.get)
			degenerate := math.IsNaN(sd) || sd == 0

			toMean, toStd := mu, sd
			if target == TargetGlobal {
				toMean, toStd = globalMean, globalStd
			}

			for _, i := range idx {
				x := m.get(&facts[i])
				if degenerate || math.IsNaN(toStd) {
					m.set(&facts[i], x)
					continue
				}
				z := (x - mu) / sd
				m.set(&facts[i], z*toStd+toMean)
			}
		}
	}
}

func moments(facts []model.FactMatchPlayer, idx []int, get func(*model.FactMatchPlayer) float64) (float64, float64) {
	xs := make([]float64, len(idx))
	for j, i := range idx {
		xs[j] = get(&facts[i])
	}
	return mean(xs), sampleStd(xs)
}

var percentileMetrics = []struct {
	metric
	set func(*model.FactMatchPlayer, int)
}{
	{metric{"score_per_min", func(f *model.FactMatchPlayer) float64 { return f.ScorePerMin }},
		func(f *model.FactMatchPlayer, v int) { f.ScorePerMinPctl = v }},
	{metric{"kills_per_min", func(f *model.FactMatchPlayer) float64 { return f.KillsPerMin }},
		func(f *model.FactMatchPlayer, v int) { f.KillsPerMinPctl = v }},
	{metric{"kills_per_death", func(f *model.FactMatchPlayer) float64 { return f.KillsPerDeath }},
		func(f *model.FactMatchPlayer, v int) { f.KillsPerDeathPctl = v }},
	{metric{"AER", func(f *model.FactMatchPlayer) float64 { return f.AER }},
		func(f *model.FactMatchPlayer, v int) { f.AERPctl = v }},
	{metric{"bf4_match_skill", func(f *model.FactMatchPlayer) float64 { return f.BF4Skill }},
		func(f *model.FactMatchPlayer, v int) { f.BF4SkillPctl = v }},
}

func percentiles(facts []model.FactMatchPlayer) {
	values := make([]float64, len(facts))
	for _, m := range percentileMetrics {
		for i := range facts {
			values[i] = m.get(&facts[i])
		}
		for i, label := range QCut(values, PercentileBuckets) {
			m.set(&facts[i], label)
		}
	}
}
