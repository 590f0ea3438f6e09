package polar

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// BinIndex returns the sector of [0, 2π) split into bins that holds theta.
// Rounding can push theta/(2π)*bins to exactly bins; that case is clamped.
func BinIndex(theta float64, bins int) int {
	k := int(math.Floor(theta / (2 * math.Pi) * float64(bins)))
	if k >= bins {
		k = bins - 1
	}
	if k < 0 {
		k = 0
	}
	return k
}

// BinCenters returns the center angle of every bin.
func BinCenters(bins int) []float64 {
	width := 2 * math.Pi / float64(bins)
	out := make([]float64, bins)
	for k := range out {
		out[k] = (float64(k) + 0.5) * width
	}
	return out
}

// Bin partitions sample radii by angle. Each bin keeps its members in input order.
func Bin(samples []PolarSample, bins int) [][]float64 {
	out := make([][]float64, bins)
	for _, s := range samples {
		k := BinIndex(s.Theta, bins)
		out[k] = append(out[k], s.R)
	}
	return out
}

// Aggregate reduces each bin to a single radius. Empty bins become NaN and
// are left for FillGaps.
func Aggregate(binned [][]float64, mode Aggregation) RadialProfile {
	out := make(RadialProfile, len(binned))
	for k, radii := range binned {
		switch {
		case len(radii) == 0:
			out[k] = math.NaN()
		case mode == AggregateMean:
			out[k] = stat.Mean(radii, nil)
		default:
			out[k] = median(radii)
		}
	}
	return out
}

// median averages the two central values for even counts. radii is not modified.
func median(radii []float64) float64 {
	s := append([]float64(nil), radii...)
	sort.Float64s(s)
	n := len(s)
	if n%2 == 1 {
		return s[n/2]
	}
	return 0.5 * (s[n/2-1] + s[n/2])
}
