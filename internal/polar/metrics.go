package polar

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// Deviation summarises how far a profile strays from a reference radius.
// Every bin carries equal weight regardless of how many samples it held.
type Deviation struct {
	Sigma    float64
	SigmaRel float64
	MAE      float64
	MaxAbs   float64
}

// Metrics computes the RMS, mean absolute and maximum absolute deviation of
// profile from rRef. SigmaRel is +Inf when rRef is not meaningfully positive.
func Metrics(profile RadialProfile, rRef float64) Deviation {
	n := len(profile)
	if n == 0 {
		return Deviation{SigmaRel: relative(0, rRef)}
	}
	sq := make([]float64, n)
	abs := make([]float64, n)
	for i, rho := range profile {
		d := rho - rRef
		sq[i] = d * d
		abs[i] = math.Abs(d)
	}
	sigma := math.Sqrt(floats.Sum(sq) / float64(n))
	return Deviation{
		Sigma:    sigma,
		SigmaRel: relative(sigma, rRef),
		MAE:      floats.Sum(abs) / float64(n),
		MaxAbs:   floats.Max(abs),
	}
}

func relative(sigma, rRef float64) float64 {
	if rRef > refEpsilon {
		return sigma / rRef
	}
	return math.Inf(1)
}
