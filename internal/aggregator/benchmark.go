package aggregator

import (
	"fmt"
	"math"
	"time"

	"github.com/pable/go-bfv-analytics/internal/model"
)

// DefaultBenchmarkWindow is the trailing window benchmarks are computed over.
const DefaultBenchmarkWindow = 120 * 24 * time.Hour

// Threshold is a "top X%" cut, evaluated at quantile 1-X/100.
type Threshold struct {
	TopPercent int
	Quantile   float64
}

// Thresholds are the benchmark cuts, broadest first.
var Thresholds = []Threshold{
	{50, 0.50},
	{25, 0.75},
	{10, 0.90},
	{5, 0.95},
	{1, 0.99},
}

// BenchmarkMetrics lists the benchmarked fact columns. Normalized metrics are
// nil on did-not-finish rows, which the window excludes anyway.
var BenchmarkMetrics = []struct {
	Name string
	Get  func(*model.FactMatchPlayer) (float64, bool)
}{
	{"score_per_min", plain(func(f *model.FactMatchPlayer) float64 { return f.ScorePerMin })},
	{"kills_per_min", plain(func(f *model.FactMatchPlayer) float64 { return f.KillsPerMin })},
	{"kills_per_death", plain(func(f *model.FactMatchPlayer) float64 { return f.KillsPerDeath })},
	{"AER", plain(func(f *model.FactMatchPlayer) float64 { return f.AER })},
	{"mm_adj_score_per_min", optional(func(f *model.FactMatchPlayer) *float64 { return f.MMAdjScorePerMin })},
	{"mm_adj_kills_per_min", optional(func(f *model.FactMatchPlayer) *float64 { return f.MMAdjKillsPerMin })},
	{"mm_adj_kills_per_death", optional(func(f *model.FactMatchPlayer) *float64 { return f.MMAdjKillsPerDeath })},
	{"aggression_rating", plain(func(f *model.FactMatchPlayer) float64 { return f.AggressionRating })},
	{"efficiency_rating", plain(func(f *model.FactMatchPlayer) float64 { return f.EfficiencyRating })},
}

func plain(get func(*model.FactMatchPlayer) float64) func(*model.FactMatchPlayer) (float64, bool) {
	return func(f *model.FactMatchPlayer) (float64, bool) { return get(f), true }
}

func optional(get func(*model.FactMatchPlayer) *float64) func(*model.FactMatchPlayer) (float64, bool) {
	return func(f *model.FactMatchPlayer) (float64, bool) {
		v := get(f)
		if v == nil {
			return 0, false
		}
		return *v, true
	}
}

// BenchmarkColumn names the benchmark column for a threshold and metric.
func BenchmarkColumn(th Threshold, metric string) string {
	return fmt.Sprintf("top_%d_%s", th.TopPercent, metric)
}

// Benchmark is one computed cell of the benchmark row.
type Benchmark struct {
	Column     string
	Metric     string
	TopPercent int
	Value      *float64 // nil when the window holds no finished rows
}

// Benchmarks computes every (threshold, metric) value over finished rows whose
// match started within window before now. Cells are ordered threshold-major.
func Benchmarks(facts []model.FactMatchPlayer, now time.Time, window time.Duration) []Benchmark {
	if window <= 0 {
		window = DefaultBenchmarkWindow
	}
	cutoff := now.Add(-window)

	var sample []*model.FactMatchPlayer
	for i := range facts {
		f := &facts[i]
		if f.TeamStatus == model.StatusDNF || !f.MatchStartTime.After(cutoff) {
			continue
		}
		sample = append(sample, f)
	}

	values := make(map[string][]float64, len(BenchmarkMetrics))
	for _, m := range BenchmarkMetrics {
		for _, f := range sample {
			if v, ok := m.Get(f); ok {
				values[m.Name] = append(values[m.Name], v)
			}
		}
	}

	out := make([]Benchmark, 0, len(Thresholds)*len(BenchmarkMetrics))
	for _, th := range Thresholds {
		for _, m := range BenchmarkMetrics {
			b := Benchmark{Column: BenchmarkColumn(th, m.Name), Metric: m.Name, TopPercent: th.TopPercent}
			if q := Quantile(values[m.Name], th.Quantile); !math.IsNaN(q) {
				b.Value = &q
			}
			out = append(out, b)
		}
	}
	return out
}
