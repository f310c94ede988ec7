package mate

import (
	"math"

	"github.com/danielpatrickdp/tolstack/internal/domainerr"
	"github.com/danielpatrickdp/tolstack/internal/stats"
)

// #region orient
// Orient returns the parts as (hole, shaft). Exactly one must be internal.
func Orient(a, b Part) (hole, shaft Part, err error) {
	switch {
	case a.Dimension.Internal && !b.Dimension.Internal:
		return a, b, nil
	case !a.Dimension.Internal && b.Dimension.Internal:
		return b, a, nil
	}

	kind := "external"
	if a.Dimension.Internal {
		kind = "internal"
	}
	return Part{}, Part{}, domainerr.WithMetadata(domainerr.CodeMateSameKind,
		"mate requires one internal (hole) and one external (shaft) feature, but both "+
			a.Name+" and "+b.Name+" are "+kind,
		map[string]string{"kind": kind, "a": a.Name, "b": b.Name})
}

// #endregion orient

// #region analyze
// Analyze computes the worst-case fit between two parts.
func Analyze(a, b Part) (FitAnalysis, error) {
	hole, shaft, err := Orient(a, b)
	if err != nil {
		return FitAnalysis{}, err
	}
	if err := validate(hole, shaft); err != nil {
		return FitAnalysis{}, err
	}

	minC := hole.Dimension.Min() - shaft.Dimension.Max()
	maxC := hole.Dimension.Max() - shaft.Dimension.Min()
	return FitAnalysis{
		HoleName:     hole.Name,
		ShaftName:    shaft.Name,
		MinClearance: minC,
		MaxClearance: maxC,
		Result:       classify(minC, maxC),
	}, nil
}

// AnalyzeStatistical is Analyze plus the RSS layer at the given sigma level.
func AnalyzeStatistical(a, b Part, sigmaLevel float64) (FitAnalysis, error) {
	if !(sigmaLevel > 0) {
		return FitAnalysis{}, domainerr.WithMetadata(domainerr.CodeInvalidInput,
			"sigma level must be positive", map[string]string{"field": "sigma_level"})
	}
	fit, err := Analyze(a, b)
	if err != nil {
		return FitAnalysis{}, err
	}
	hole, shaft, _ := Orient(a, b)

	mean := hole.Dimension.ProcessMean() - shaft.Dimension.ProcessMean()
	sigmaHole := hole.Dimension.Band() / sigmaLevel
	sigmaShaft := shaft.Dimension.Band() / sigmaLevel
	sigma := math.Hypot(sigmaHole, sigmaShaft)

	lo, hi := mean-3*sigma, mean+3*sigma
	fit.Statistical = &StatisticalFit{
		MeanClearance:           mean,
		SigmaClearance:          sigma,
		Clearance3SigmaMin:      lo,
		Clearance3SigmaMax:      hi,
		InterferenceProbability: interferenceProbability(mean, sigma),
		Result3Sigma:            classify(lo, hi),
	}
	return fit, nil
}

// #endregion analyze

// #region helpers
func classify(minClearance, maxClearance float64) FitResult {
	switch {
	case minClearance > 0:
		return FitClearance
	case maxClearance < 0:
		return FitInterference
	default:
		return FitTransition
	}
}

// interferenceProbability is P(clearance < 0) in percent. A zero sigma
// resolves to 0% or 100% from the sign of the mean.
func interferenceProbability(mean, sigma float64) float64 {
	if sigma == 0 {
		if mean >= 0 {
			return 0
		}
		return 100
	}
	return stats.NormalCDF(-mean/sigma) * 100
}

func validate(parts ...Part) error {
	for _, p := range parts {
		if err := p.Dimension.Validate(); err != nil {
			return domainerr.WithMetadata(domainerr.CodeInvalidInput,
				p.Name+": "+err.Error(), map[string]string{"part": p.Name})
		}
	}
	return nil
}

// #endregion helpers
