package polar

import "math"

// FillGaps resolves every NaN bin from its nearest defined neighbours.
//
// Bins are visited in index order and filled values are written back, so a
// bin filled earlier is a candidate for later ones. For each gap the search
// widens one step at a time in both directions and stops at the first
// distance where either side is defined: both sides defined averages them,
// one side is used as is. A profile with no defined bin becomes all zeros.
func FillGaps(profile RadialProfile) RadialProfile {
	n := len(profile)
	out := make(RadialProfile, n)
	copy(out, profile)

	for i := range out {
		if !math.IsNaN(out[i]) {
			continue
		}
		left, right := math.NaN(), math.NaN()
		for d := 1; d < n; d++ {
			if l := out[Wrap(i-d, n)]; math.IsNaN(left) && !math.IsNaN(l) {
				left = l
			}
			if r := out[Wrap(i+d, n)]; math.IsNaN(right) && !math.IsNaN(r) {
				right = r
			}
			if !math.IsNaN(left) || !math.IsNaN(right) {
				break
			}
		}
		switch {
		case !math.IsNaN(left) && !math.IsNaN(right):
			out[i] = 0.5 * (left + right)
		case !math.IsNaN(left):
			out[i] = left
		case !math.IsNaN(right):
			out[i] = right
		default:
			out[i] = 0
		}
	}
	return out
}

// Smooth replaces each bin with the unweighted mean of the 2h+1 bins centered
// on it, wrapping around the circle. h == 0 returns a copy of the input.
func Smooth(profile RadialProfile, h int) RadialProfile {
	n := len(profile)
	out := make(RadialProfile, n)
	if h <= 0 {
		copy(out, profile)
		return out
	}
	w := float64(2*h + 1)
	for i := range out {
		var acc float64
		for d := -h; d <= h; d++ {
			acc += profile[Wrap(i+d, n)]
		}
		out[i] = acc / w
	}
	return out
}
