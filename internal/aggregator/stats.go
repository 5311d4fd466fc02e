package aggregator

import (
	"math"
	"sort"
)

func clip(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return math.NaN()
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// sampleStd is the n-1 standard deviation; NaN below two samples.
func sampleStd(xs []float64) float64 {
	if len(xs) < 2 {
		return math.NaN()
	}
	m := mean(xs)
	var ss float64
	for _, x := range xs {
		d := x - m
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(xs)-1))
}

// Quantile returns the q-quantile (0..1) of values by linear interpolation
// between closest ranks. NaN for an empty input.
func Quantile(values []float64, q float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	return quantileSorted(sorted, q)
}

func quantileSorted(sorted []float64, q float64) float64 {
	n := len(sorted)
	if n == 1 {
		return sorted[0]
	}
	pos := clip(q, 0, 1) * float64(n-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	return sorted[lo] + (sorted[hi]-sorted[lo])*(pos-float64(lo))
}

// QCut assigns each value to one of bins equal-frequency buckets labelled
// 0..bins-1. Bin edges that coincide are collapsed, so heavily repeated values
// produce fewer buckets. Intervals are right-closed; the lowest edge is included.
func QCut(values []float64, bins int) []int {
	labels := make([]int, len(values))
	if len(values) == 0 || bins < 1 {
		return labels
	}

	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	edges := make([]float64, 0, bins+1)
	for k := 0; k <= bins; k++ {
		e := quantileSorted(sorted, float64(k)/float64(bins))
		if len(edges) > 0 && e == edges[len(edges)-1] {
			continue
		}
		edges = append(edges, e)
	}
	if len(edges) < 2 {
		return labels
	}

	last := len(edges) - 2
	for i, v := range values {
		j := sort.SearchFloat64s(edges, v)
		label := j - 1
		if label < 0 {
			label = 0
		}
		if label > last {
			label = last
		}
		labels[i] = label
	}
	return labels
}
