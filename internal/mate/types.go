package mate

import "github.com/danielpatrickdp/tolstack/internal/feature"

// #region part
// Part is one side of a mate.
type Part struct {
	Name      string
	Dimension feature.Dimension
}

// #endregion part

// #region fit-result
// FitResult classifies a hole/shaft fit.
type FitResult string

const (
	FitClearance    FitResult = "clearance"
	FitInterference FitResult = "interference"
	FitTransition   FitResult = "transition"
)

// #endregion fit-result

// #region fit-analysis
// StatisticalFit is the RSS view of a fit.
type StatisticalFit struct {
	MeanClearance           float64
	SigmaClearance          float64
	Clearance3SigmaMin      float64
	Clearance3SigmaMax      float64
	InterferenceProbability float64 // percent
	Result3Sigma            FitResult
}

// FitAnalysis is the worst-case view of a fit, optionally with the
// statistical layer attached.
type FitAnalysis struct {
	HoleName     string
	ShaftName    string
	MinClearance float64
	MaxClearance float64
	Result       FitResult
	Statistical  *StatisticalFit
}

// #endregion fit-analysis
