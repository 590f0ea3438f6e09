// Package scoring maps relative trace error onto a 0-100 score.
package scoring

import "math"

// DefaultSlope is the number of points deducted per unit of relative error.
const DefaultSlope = 200

const (
	MinScore = 0
	MaxScore = 100
)

// Score returns clamp(0, 100, round(100 - slope*sigmaRel)). Halves round to
// the even neighbour, so 62.5 scores 62.
// An infinite or undefined sigmaRel scores the floor.
func Score(sigmaRel, slope float64) int {
	if math.IsNaN(sigmaRel) || math.IsInf(sigmaRel, 1) {
		return MinScore
	}
	raw := math.RoundToEven(MaxScore - slope*sigmaRel)
	switch {
	case math.IsNaN(raw) || raw < MinScore:
		return MinScore
	case raw > MaxScore:
		return MaxScore
	default:
		return int(raw)
	}
}
