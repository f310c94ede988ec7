package stats

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// #region normal-cdf
// Hastings coefficients (Abramowitz & Stegun 26.2.17).
const (
	hastingsP  = 0.2316419
	hastingsB1 = 0.319381530
	hastingsB2 = -0.356563782
	hastingsB3 = 1.781477937
	hastingsB4 = -1.821255978
	hastingsB5 = 1.330274429
)

// NormalCDF returns P(Z <= z) for a standard normal Z. Absolute error is
// below 7.5e-8. NaN and 0 map to exactly 0.5; |z| >= 8 clamps to exactly 0 or 1.
func NormalCDF(z float64) float64 {
	if math.IsNaN(z) || z == 0 {
		return 0.5
	}
	if z >= 8 {
		return 1
	}
	if z <= -8 {
		return 0
	}

	x := math.Abs(z)
	t := 1 / (1 + hastingsP*x)
	pdf := math.Exp(-0.5*x*x) / math.Sqrt(2*math.Pi)
	poly := t * (hastingsB1 + t*(hastingsB2+t*(hastingsB3+t*(hastingsB4+t*hastingsB5))))
	upper := 1 - pdf*poly

	if z < 0 {
		return 1 - upper
	}
	return upper
}

// #endregion normal-cdf

// #region sources
// NewSource returns a seeded PCG stream. The same seed always yields the same
// sequence.
func NewSource(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, 0))
}

// PCGStreams derives worker stream i as PCG(Seed, i+1). Stream numbering
// starts at 1 so it never collides with NewSource(Seed).
type PCGStreams struct {
	Seed uint64
}

// Stream returns the stream owned by the given worker.
func (p PCGStreams) Stream(worker int) Source {
	return rand.New(rand.NewPCG(p.Seed, uint64(worker)+1))
}

// NewSeed draws a fresh seed from the operating system's CSPRNG. Callers
// record it so the run can be reproduced.
func NewSeed() (uint64, error) {
	var buf [8]byte
	if _, err := crand.Read(buf[:]); err != nil {
		return 0, fmt.Errorf("read seed: %w", err)
	}
	return binary.LittleEndian.Uint64(buf[:]), nil
}

// #endregion sources

// #region sampling
// Sample draws one value for a tolerance band of width band centred on
// center. For the normal distribution σ = band / sigmaLevel.
func Sample(src Source, dist Distribution, band, sigmaLevel, center float64) float64 {
	switch dist {
	case DistUniform:
		return center - band/2 + src.Float64()*band
	case DistTriangular:
		return sampleTriangular(src, center-band/2, center, center+band/2)
	default:
		return center + (band/sigmaLevel)*boxMuller(src)
	}
}

// boxMuller returns one standard normal deviate. u1 is drawn from (0,1] so
// the logarithm stays finite.
func boxMuller(src Source) float64 {
	u1 := 1 - src.Float64()
	u2 := src.Float64()
	return math.Sqrt(-2*math.Log(u1)) * math.Cos(2*math.Pi*u2)
}

// sampleTriangular inverts the triangular CDF over [lo, hi] with apex mode.
func sampleTriangular(src Source, lo, mode, hi float64) float64 {
	span := hi - lo
	if span <= 0 {
		return mode
	}
	u := src.Float64()
	fc := (mode - lo) / span
	if u < fc {
		return lo + math.Sqrt(u*span*(mode-lo))
	}
	return hi - math.Sqrt((1-u)*span*(hi-mode))
}

// #endregion sampling

// #region summaries
// Summarize computes count, mean, sample standard deviation, min and max.
// An empty input yields the zero Summary.
func Summarize(samples []float64) Summary {
	if len(samples) == 0 {
		return Summary{}
	}
	s := Summary{
		N:   len(samples),
		Min: floats.Min(samples),
		Max: floats.Max(samples),
	}
	if len(samples) == 1 {
		s.Mean = samples[0]
		return s
	}
	s.Mean, s.StdDev = stat.MeanStdDev(samples, nil)
	return s
}

// Percentile returns the empirical p-quantile of sorted, which must be in
// ascending order.
func Percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return math.NaN()
	}
	return stat.Quantile(p, stat.Empirical, sorted, nil)
}

// Add folds one observation into the running moments.
func (m *Moments) Add(x float64) {
	m.N++
	m.Sum += x
	m.SumSq += x * x
}

// Merge folds another worker's moments into m.
func (m *Moments) Merge(o Moments) {
	m.N += o.N
	m.Sum += o.Sum
	m.SumSq += o.SumSq
}

// Mean returns the arithmetic mean, or 0 with no observations.
func (m Moments) Mean() float64 {
	if m.N == 0 {
		return 0
	}
	return m.Sum / float64(m.N)
}

// StdDev returns the population standard deviation.
func (m Moments) StdDev() float64 {
	if m.N == 0 {
		return 0
	}
	mean := m.Mean()
	v := m.SumSq/float64(m.N) - mean*mean
	if v < 0 {
		// rounding on near-constant samples
		return 0
	}
	return math.Sqrt(v)
}

// #endregion summaries
