package stats

import (
	"fmt"
	"strings"
)

// #region distribution
// Distribution selects how a tolerance band is sampled during Monte Carlo runs.
type Distribution string

const (
	DistNormal     Distribution = "normal"
	DistUniform    Distribution = "uniform"
	DistTriangular Distribution = "triangular"
)

// ParseDistribution maps a case-insensitive name onto a Distribution.
// An empty name means normal.
func ParseDistribution(s string) (Distribution, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "normal", "gaussian":
		return DistNormal, nil
	case "uniform":
		return DistUniform, nil
	case "triangular":
		return DistTriangular, nil
	default:
		return "", fmt.Errorf("unknown distribution %q", s)
	}
}

// #endregion distribution

// #region source
// Source is the random stream consumed by the samplers. *rand.Rand from
// math/rand/v2 satisfies it.
type Source interface {
	Float64() float64
}

// Streams hands out one independent Source per Monte Carlo worker.
type Streams interface {
	Stream(worker int) Source
}

// DefaultSigmaLevel means the declared tolerance band spans ±3σ.
const DefaultSigmaLevel = 6.0

// #endregion source

// #region summary
// Summary holds sample statistics for a set of Monte Carlo outputs.
type Summary struct {
	N      int
	Mean   float64
	StdDev float64 // sample (n-1) standard deviation
	Min    float64
	Max    float64
}

// Moments accumulates count, sum and sum of squares so that per-worker
// results can be merged without keeping the samples.
type Moments struct {
	N     int
	Sum   float64
	SumSq float64
}

// #endregion summary
