// Package polar turns a cloud of traced (x, y) samples into a radial error
// profile around a declared center and reduces it to accuracy metrics.
//
// The pipeline is transform -> bin -> aggregate -> fill -> smooth -> metrics.
// Every stage is a pure function of its inputs, so Compute may be called
// concurrently without coordination.
package polar

import (
	"errors"
	"fmt"
	"math"
)

// MinPoints is the smallest point set Compute accepts.
const MinPoints = 20

// Default tuning values used by Compute when no Option overrides them.
const (
	DefaultBins            = 720
	DefaultSmoothHalfWidth = 2
)

// refEpsilon is the reference radius below which sigma_rel is reported as +Inf.
const refEpsilon = 1e-9

// ErrInsufficientData is matched by errors.Is for any *InsufficientDataError.
var ErrInsufficientData = errors.New("insufficient data")

// InsufficientDataError is returned when fewer than MinPoints samples are supplied.
type InsufficientDataError struct {
	Got  int
	Need int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("too few points to analyze: got %d, need at least %d", e.Got, e.Need)
}

// Is reports ErrInsufficientData as a match.
func (e *InsufficientDataError) Is(target error) bool {
	return target == ErrInsufficientData
}

// Point is a planar sample in client pixel coordinates.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Center is the caller-declared circle center.
type Center struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// PolarSample is a point re-expressed relative to the center.
type PolarSample struct {
	Theta float64 // [0, 2π)
	R     float64
}

// RadialProfile holds one radius estimate per angle bin, indexed circularly.
type RadialProfile []float64

// Statistics is the result of Compute.
type Statistics struct {
	RRef      float64       `json:"R_ref"`
	Sigma     float64       `json:"sigma"`
	SigmaRel  float64       `json:"sigma_rel"`
	MAE       float64       `json:"mae"`
	MaxAbs    float64       `json:"max_abs"`
	Profile   RadialProfile `json:"rho_theta"`
	ThetaBins []float64     `json:"theta_bins"`
}

// Compute builds the radial profile of points around center and measures its
// deviation from targetRadius.
func Compute(points []Point, center Center, targetRadius float64, opts ...Option) (*Statistics, error) {
	if len(points) < MinPoints {
		return nil, &InsufficientDataError{Got: len(points), Need: MinPoints}
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if err := o.validate(); err != nil {
		return nil, err
	}

	samples := Transform(points, center)
	binned := Bin(samples, o.bins)
	profile := Aggregate(binned, o.aggregation)
	profile = FillGaps(profile)
	if o.smooth {
		profile = Smooth(profile, o.halfWidth)
	}

	m := Metrics(profile, targetRadius)
	return &Statistics{
		RRef:      targetRadius,
		Sigma:     m.Sigma,
		SigmaRel:  m.SigmaRel,
		MAE:       m.MAE,
		MaxAbs:    m.MaxAbs,
		Profile:   profile,
		ThetaBins: BinCenters(o.bins),
	}, nil
}

// Transform converts points to polar samples around center. No point is
// dropped; a point on the center yields R = 0 and Theta = atan2(0, 0) = 0.
func Transform(points []Point, center Center) []PolarSample {
	out := make([]PolarSample, len(points))
	for i, p := range points {
		dx := p.X - center.X
		dy := p.Y - center.Y
		th := math.Atan2(dy, dx)
		if th < 0 {
			th += 2 * math.Pi
		}
		out[i] = PolarSample{Theta: th, R: math.Sqrt(dx*dx + dy*dy)}
	}
	return out
}

// Wrap maps any integer index, including negative offsets, onto [0, n).
func Wrap(i, n int) int {
	return ((i % n) + n) % n
}
