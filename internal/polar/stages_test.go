package polar

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var nan = math.NaN()

func TestBinIndexTotal(t *testing.T) {
	t.Parallel()

	for _, n := range []int{1, 7, 360, 720, 1000} {
		width := 2 * math.Pi / float64(n)
		edges := []float64{0, math.SmallestNonzeroFloat64, width, math.Nextafter(2*math.Pi, 0), 2 * math.Pi}
		for _, th := range edges {
			k := BinIndex(th, n)
			assert.GreaterOrEqual(t, k, 0)
			assert.Less(t, k, n, "bins=%d theta=%v", n, th)
		}
		assert.Equal(t, n-1, BinIndex(2*math.Pi, n))

		prev := 0
		for i := 0; i < 10*n; i++ {
			th := 2 * math.Pi * float64(i) / float64(10*n)
			k := BinIndex(th, n)
			require.GreaterOrEqual(t, k, prev, "bin index must not decrease")
			require.Less(t, k, n)
			prev = k
		}
	}
}

func TestBinPartition(t *testing.T) {
	t.Parallel()

	samples := []PolarSample{
		{Theta: 0.1, R: 1},
		{Theta: math.Pi + 0.1, R: 2},
		{Theta: 0.2, R: 3},
		{Theta: 2*math.Pi - 1e-12, R: 4},
	}
	got := Bin(samples, 4)

	want := [][]float64{{1, 3}, nil, {2}, {4}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Bin mismatch (-want +got):\n%s", diff)
	}

	total := 0
	for _, b := range got {
		total += len(b)
	}
	assert.Equal(t, len(samples), total)
}

func TestBinCenters(t *testing.T) {
	t.Parallel()

	got := BinCenters(4)
	want := []float64{math.Pi / 4, 3 * math.Pi / 4, 5 * math.Pi / 4, 7 * math.Pi / 4}
	if diff := cmp.Diff(want, got, approx); diff != "" {
		t.Errorf("BinCenters mismatch (-want +got):\n%s", diff)
	}
}

func TestAggregate(t *testing.T) {
	t.Parallel()

	binned := [][]float64{
		{5, 1, 3},
		{4, 1, 3, 2},
		nil,
		{1, 1, 10},
	}

	t.Run("median", func(t *testing.T) {
		t.Parallel()
		got := Aggregate(binned, AggregateMedian)
		assert.Equal(t, 3.0, got[0])
		assert.Equal(t, 2.5, got[1])
		assert.True(t, math.IsNaN(got[2]))
		assert.Equal(t, 1.0, got[3])
	})

	t.Run("mean", func(t *testing.T) {
		t.Parallel()
		got := Aggregate(binned, AggregateMean)
		assert.InDelta(t, 3.0, got[0], 1e-12)
		assert.InDelta(t, 2.5, got[1], 1e-12)
		assert.True(t, math.IsNaN(got[2]))
		assert.InDelta(t, 4.0, got[3], 1e-12)
	})

	t.Run("input bins untouched", func(t *testing.T) {
		t.Parallel()
		in := [][]float64{{9, 2, 5}}
		Aggregate(in, AggregateMedian)
		assert.Equal(t, []float64{9, 2, 5}, in[0])
	})
}

func TestFillGaps(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		in   RadialProfile
		want RadialProfile
	}{
		{
			name: "fully defined",
			in:   RadialProfile{1, 2, 3},
			want: RadialProfile{1, 2, 3},
		},
		{
			name: "single gap averages both sides",
			in:   RadialProfile{1, nan, 3, 4},
			want: RadialProfile{1, 2, 3, 4},
		},
		{
			name: "gap wraps around",
			in:   RadialProfile{nan, 2, 3, 8},
			want: RadialProfile{5, 2, 3, 8},
		},
		{
			name: "earlier fills feed later gaps",
			in:   RadialProfile{1, nan, nan, nan, 5},
			want: RadialProfile{1, 1, 1, 3, 5},
		},
		{
			name: "stops at first side found",
			in:   RadialProfile{nan, 2, nan, nan, nan, 8},
			want: RadialProfile{5, 2, 2, 2, 5, 8},
		},
		{
			name: "all empty falls back to zero",
			in:   RadialProfile{nan, nan, nan},
			want: RadialProfile{0, 0, 0},
		},
		{
			name: "single empty bin",
			in:   RadialProfile{nan},
			want: RadialProfile{0},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			in := append(RadialProfile(nil), tc.in...)
			got := FillGaps(in)
			if diff := cmp.Diff(tc.want, got, approx); diff != "" {
				t.Errorf("FillGaps mismatch (-want +got):\n%s", diff)
			}
			// the input profile is not modified
			for i := range in {
				assert.Equal(t, math.IsNaN(tc.in[i]), math.IsNaN(in[i]))
			}
		})
	}
}

func TestFillGapsIdempotent(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewPCG(3, 5))
	in := make(RadialProfile, 90)
	for i := range in {
		if rng.IntN(3) == 0 {
			in[i] = nan
			continue
		}
		in[i] = 100 + rng.Float64()*20
	}
	once := FillGaps(in)
	twice := FillGaps(once)
	if diff := cmp.Diff(once, twice); diff != "" {
		t.Errorf("second fill changed profile (-once +twice):\n%s", diff)
	}
}

func TestSmooth(t *testing.T) {
	t.Parallel()

	t.Run("window wraps", func(t *testing.T) {
		t.Parallel()
		got := Smooth(RadialProfile{3, 0, 0, 0, 0, 0}, 1)
		want := RadialProfile{1, 1, 0, 0, 0, 1}
		if diff := cmp.Diff(want, got, approx); diff != "" {
			t.Errorf("Smooth mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("zero halfwidth is identity", func(t *testing.T) {
		t.Parallel()
		in := RadialProfile{1, 5, 2}
		got := Smooth(in, 0)
		assert.Equal(t, in, got)
		got[0] = 99
		assert.Equal(t, 1.0, in[0])
	})

	t.Run("window wider than profile", func(t *testing.T) {
		t.Parallel()
		got := Smooth(RadialProfile{2, 4}, 3)
		// offsets -3..3 over two bins: the neighbour is hit 4 times, self 3
		assert.InDelta(t, (3*2.0+4*4.0)/7, got[0], 1e-12)
		assert.InDelta(t, (3*4.0+4*2.0)/7, got[1], 1e-12)
	})

	t.Run("mean preserving", func(t *testing.T) {
		t.Parallel()
		rng := rand.New(rand.NewPCG(1, 2))
		in := make(RadialProfile, 720)
		for i := range in {
			in[i] = 150 + rng.NormFloat64()*8
		}
		for _, h := range []int{1, 2, 5, 40} {
			assert.InDelta(t, mean(in), mean(Smooth(in, h)), 1e-9, "h=%d", h)
		}
	})
}

func TestMetrics(t *testing.T) {
	t.Parallel()

	m := Metrics(RadialProfile{10, 14, 6, 10}, 10)
	assert.InDelta(t, math.Sqrt(8), m.Sigma, 1e-12)
	assert.InDelta(t, 2, m.MAE, 1e-12)
	assert.InDelta(t, 4, m.MaxAbs, 1e-12)
	assert.InDelta(t, math.Sqrt(8)/10, m.SigmaRel, 1e-12)

	assert.True(t, math.IsInf(Metrics(RadialProfile{1, 2}, 0).SigmaRel, 1))
	assert.True(t, math.IsInf(Metrics(RadialProfile{1, 2}, 1e-9).SigmaRel, 1))
}

func mean(p RadialProfile) float64 {
	var s float64
	for _, v := range p {
		s += v
	}
	return s / float64(len(p))
}
