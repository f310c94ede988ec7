package stackup

import (
	"math"

	"github.com/danielpatrickdp/tolstack/internal/feature"
	"github.com/danielpatrickdp/tolstack/internal/stats"
)

// #region direction
// Direction says whether a contributor adds to or subtracts from the stack.
type Direction string

const (
	DirPositive Direction = "positive"
	DirNegative Direction = "negative"
)

// Sign returns +1 or -1.
func (d Direction) Sign() float64 {
	if d == DirNegative {
		return -1
	}
	return 1
}

// #endregion direction

// #region contributor
// GdtPosition is a position tolerance folded into a contributor's band.
type GdtPosition struct {
	Tolerance     float64 // zone diameter
	Condition     feature.MaterialCondition
	MaterialLimit float64  // MMC or LMC size the bonus is measured from
	ActualSize    *float64 // measured size, nil when unknown
}

// Bonus is |actual - limit| under MMC/LMC, zero otherwise.
func (g GdtPosition) Bonus() float64 {
	if g.ActualSize == nil || g.Condition == feature.ConditionRFS || g.Condition == "" {
		return 0
	}
	return math.Abs(*g.ActualSize - g.MaterialLimit)
}

// Effective is the zone diameter plus bonus.
func (g GdtPosition) Effective() float64 {
	return g.Tolerance + g.Bonus()
}

// Contributor is one signed link in a 1-D chain.
type Contributor struct {
	Name         string
	FeatureID    string
	Dimension    feature.Dimension
	Direction    Direction
	Distribution stats.Distribution // overrides Dimension.Distribution when set
	Gdt          *GdtPosition
}

// Target is the tolerance window the stack is judged against.
type Target struct {
	Name       string
	Nominal    float64
	LowerLimit float64
	UpperLimit float64
	Units      string
	Critical   bool
}

// Range returns USL - LSL.
func (t Target) Range() float64 { return t.UpperLimit - t.LowerLimit }

// Stackup bundles a chain with its target.
type Stackup struct {
	Name         string
	Target       Target
	Contributors []Contributor
}

// #endregion contributor

// #region config
// Config controls the statistical methods.
type Config struct {
	SigmaLevel float64 // band spans SigmaLevel·σ
	MeanShiftK float64 // Bender k-factor, 0 disables
	IncludeGdt bool    // fold GdtPosition.Effective into each band
	Iterations int     // Monte Carlo draws, 0 skips Monte Carlo
	Workers    int     // Monte Carlo workers, <= 1 runs sequentially
}

// DefaultConfig returns a ±3σ process with no mean shift.
func DefaultConfig() Config {
	return Config{
		SigmaLevel: stats.DefaultSigmaLevel,
		MeanShiftK: 0,
		IncludeGdt: false,
		Iterations: 10000,
		Workers:    1,
	}
}

// #endregion config

// #region results
// Result classifies a worst-case outcome.
type Result string

const (
	ResultPass     Result = "pass"
	ResultMarginal Result = "marginal"
	ResultFail     Result = "fail"
)

// WorstCaseResult is the bounding analysis.
type WorstCaseResult struct {
	Min    float64
	Max    float64
	Margin float64
	Result Result
}

// RssResult is the root-sum-square analysis.
type RssResult struct {
	Mean         float64
	Sigma3       float64
	Margin       float64
	Cp           float64
	Cpk          float64
	YieldPercent float64
	Sensitivity  []float64 // % of variance per contributor; empty when variance is 0
	ShiftedMean  *float64  // capability mean after the k-factor shift
}

// MonteCarloResult is the simulated distribution of the stack.
type MonteCarloResult struct {
	Iterations    int
	Mean          float64
	StdDev        float64
	Min           float64
	Max           float64
	YieldPercent  float64
	Percentile2_5 float64
	Percentile975 float64
	Pp            *float64 // nil when the sample std dev is 0
	Ppk           *float64
}

// AnalysisResults aggregates all three methods.
type AnalysisResults struct {
	WorstCase  *WorstCaseResult
	RSS        *RssResult
	MonteCarlo *MonteCarloResult
}

// #endregion results
