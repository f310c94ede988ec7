package chain

import (
	"github.com/danielpatrickdp/tolstack/internal/feature"
	"github.com/danielpatrickdp/tolstack/internal/stats"
	"github.com/danielpatrickdp/tolstack/internal/torsor"
)

// #region config
// MethodJacobianTorsor is the only supported 3-D propagation method.
const MethodJacobianTorsor = "jacobian_torsor"

// DerivedReferenceLength (mm) converts a linear half tolerance into an
// angular one for contributors whose bounds are derived rather than
// computed from GD&T.
const DerivedReferenceLength = 50.0

// Config controls a 3-D chain run.
type Config struct {
	Enabled    bool
	Method     string
	Iterations int // 0 skips Monte Carlo
	Workers    int
}

// DefaultConfig returns the 3-D analysis defaults.
func DefaultConfig() Config {
	return Config{
		Enabled:    false,
		Method:     MethodJacobianTorsor,
		Iterations: 10000,
		Workers:    1,
	}
}

// #endregion config

// #region links
// Link is a stack contributor that points at a feature. Explicit Bounds win
// over anything the feature provides.
type Link struct {
	Name         string
	FeatureID    string
	PlusTol      float64
	MinusTol     float64
	Distribution stats.Distribution
	Bounds       *feature.TorsorBounds
}

// BoundsSource records where a contributor's bounds came from.
type BoundsSource string

const (
	SourceExplicit BoundsSource = "explicit"
	SourceStored   BoundsSource = "stored"
	SourceGdt      BoundsSource = "gdt"
	SourceDerived  BoundsSource = "derived"
)

// Built is the outcome of resolving links into torsor contributors.
type Built struct {
	Contributors []torsor.Contributor
	Sources      []BoundsSource // parallel to Contributors
	Warnings     []string
}

// #endregion links

// #region results
// SensitivityEntry is one contributor's share of each DOF's variance.
type SensitivityEntry struct {
	Name            string                  `json:"name"`
	FeatureID       string                  `json:"feature_id,omitempty"`
	ContributionPct [feature.NumDOF]float64 `json:"contribution_pct"`
}

// JacobianSummary describes the analysed chain.
type JacobianSummary struct {
	ChainLength         int      `json:"chain_length"`
	TotalConstrainedDOF int      `json:"total_constrained_dof"`
	ResultFreeDOF       []string `json:"result_free_dof"`
}

// Result is the merged 3-D chain outcome.
type Result struct {
	Torsor      torsor.Result
	WorstCase   feature.TorsorBounds
	MonteCarlo  *torsor.MonteCarloResult
	Sensitivity []SensitivityEntry
	Summary     JacobianSummary
}

// Target is the functional requirement a projection is judged against.
type Target struct {
	Nominal    float64
	LowerLimit float64
	UpperLimit float64
}

// Projection is the result torsor reduced to a scalar along a functional
// direction. Capability fields are nil when the projected σ is zero.
type Projection struct {
	Direction    [3]float64
	WcMin        float64
	WcMax        float64
	RssMean      float64
	Rss3Sigma    float64
	McMean       *float64
	McStdDev     *float64
	Cp           *float64
	Cpk          *float64
	YieldPercent *float64
	WcResult     string // "pass" or "fail"
}

// #endregion results
