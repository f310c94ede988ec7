package stackup

import (
	"math"

	"github.com/danielpatrickdp/tolstack/internal/domainerr"
	"github.com/danielpatrickdp/tolstack/internal/stats"
)

// marginalFraction of the target window separates Pass from Marginal.
const marginalFraction = 0.10

// #region analyzer
// Analyzer runs 1-D stack-up analyses with a fixed configuration.
type Analyzer struct {
	config Config
}

// NewAnalyzer creates an analyzer with the given configuration.
func NewAnalyzer(config Config) *Analyzer {
	return &Analyzer{config: config}
}

// Config returns the analyzer's configuration.
func (a *Analyzer) Config() Config { return a.config }

// Analyze validates the stack-up and runs worst case, RSS and, when
// Iterations > 0, Monte Carlo with the given streams.
func (a *Analyzer) Analyze(s Stackup, streams stats.Streams) (AnalysisResults, error) {
	if err := a.Validate(s); err != nil {
		return AnalysisResults{}, err
	}

	wc := a.WorstCase(s.Contributors, s.Target)
	rss := a.RSS(s.Contributors, s.Target)
	out := AnalysisResults{WorstCase: &wc, RSS: &rss}

	if a.config.Iterations > 0 {
		mc, err := a.MonteCarloParallel(s.Contributors, s.Target, streams)
		if err != nil {
			return AnalysisResults{}, err
		}
		out.MonteCarlo = &mc
	}
	return out, nil
}

// Validate checks the configuration and every contributor.
func (a *Analyzer) Validate(s Stackup) error {
	if !(a.config.SigmaLevel > 0) {
		return domainerr.WithMetadata(domainerr.CodeInvalidInput,
			"sigma level must be positive", map[string]string{"field": "sigma_level"})
	}
	if a.config.MeanShiftK < 0 {
		return domainerr.WithMetadata(domainerr.CodeInvalidInput,
			"mean shift k must be non-negative", map[string]string{"field": "mean_shift_k"})
	}
	if a.config.Iterations < 0 {
		return domainerr.WithMetadata(domainerr.CodeInvalidInput,
			"iterations must be non-negative", map[string]string{"field": "iterations"})
	}
	if s.Target.LowerLimit > s.Target.UpperLimit {
		return domainerr.WithMetadata(domainerr.CodeInvalidInput,
			"target lower limit exceeds upper limit", map[string]string{"field": "target"})
	}
	for _, c := range s.Contributors {
		if err := c.Dimension.Validate(); err != nil {
			return domainerr.WithMetadata(domainerr.CodeInvalidInput,
				"contributor "+c.Name+": "+err.Error(), map[string]string{"contributor": c.Name})
		}
		if c.Gdt != nil && c.Gdt.Tolerance < 0 {
			return domainerr.WithMetadata(domainerr.CodeInvalidInput,
				"contributor "+c.Name+": position tolerance must be non-negative",
				map[string]string{"contributor": c.Name})
		}
	}
	return nil
}

// #endregion analyzer

// #region worst-case
// WorstCase sums every contributor at its extremes.
func (a *Analyzer) WorstCase(contributors []Contributor, target Target) WorstCaseResult {
	var lo, hi float64
	for _, c := range contributors {
		d := c.Dimension
		if c.Direction == DirNegative {
			lo -= d.Max()
			hi -= d.Min()
		} else {
			lo += d.Min()
			hi += d.Max()
		}
	}

	margin := math.Min(target.UpperLimit-hi, lo-target.LowerLimit)
	return WorstCaseResult{
		Min:    lo,
		Max:    hi,
		Margin: margin,
		Result: classify(margin, target.Range()),
	}
}

func classify(margin, window float64) Result {
	switch {
	case margin > window*marginalFraction:
		return ResultPass
	case margin > 0:
		return ResultMarginal
	default:
		return ResultFail
	}
}

// #endregion worst-case

// #region rss
// RSS combines contributor variances in quadrature.
func (a *Analyzer) RSS(contributors []Contributor, target Target) RssResult {
	var mean, variance float64
	variances := make([]float64, len(contributors))

	for i, c := range contributors {
		mean += c.Direction.Sign() * c.Dimension.ProcessMean()
		sigma := a.band(c) / a.config.SigmaLevel
		variances[i] = sigma * sigma
		variance += variances[i]
	}

	sigma := math.Sqrt(variance)
	sigma3 := 3 * sigma

	sensitivity := []float64{}
	if variance > 0 {
		sensitivity = make([]float64, len(variances))
		for i, v := range variances {
			sensitivity[i] = v / variance * 100
		}
	}

	// Cpk uses the shifted mean; yield keeps the plain one.
	capMean := mean
	var shifted *float64
	if a.config.MeanShiftK > 0 && sigma > 0 {
		if target.UpperLimit-mean < mean-target.LowerLimit {
			capMean = mean + a.config.MeanShiftK*sigma
		} else {
			capMean = mean - a.config.MeanShiftK*sigma
		}
		shifted = &capMean
	}

	cp, cpk := math.Inf(1), math.Inf(1)
	if sigma > 0 {
		cp = target.Range() / (6 * sigma)
		cpk = math.Min(target.UpperLimit-capMean, capMean-target.LowerLimit) / (3 * sigma)
	}

	return RssResult{
		Mean:         mean,
		Sigma3:       sigma3,
		Margin:       math.Min(target.UpperLimit-(mean+sigma3), (mean-sigma3)-target.LowerLimit),
		Cp:           cp,
		Cpk:          cpk,
		YieldPercent: normalYield(mean, sigma, target),
		Sensitivity:  sensitivity,
		ShiftedMean:  shifted,
	}
}

// normalYield is the % of a N(mean, sigma) process inside the target. A
// zero sigma is a point mass: 100% inside the window, 0% outside.
func normalYield(mean, sigma float64, target Target) float64 {
	if sigma == 0 {
		if mean >= target.LowerLimit && mean <= target.UpperLimit {
			return 100
		}
		return 0
	}
	zUpper := (target.UpperLimit - mean) / sigma
	zLower := (target.LowerLimit - mean) / sigma
	return (stats.NormalCDF(zUpper) - stats.NormalCDF(zLower)) * 100
}

// band is the contributor's effective tolerance band.
func (a *Analyzer) band(c Contributor) float64 {
	b := c.Dimension.Band()
	if a.config.IncludeGdt && c.Gdt != nil {
		b += c.Gdt.Effective()
	}
	return b
}

// distribution resolves the per-contributor override.
func distribution(c Contributor) stats.Distribution {
	if c.Distribution != "" {
		return c.Distribution
	}
	if c.Dimension.Distribution != "" {
		return c.Dimension.Distribution
	}
	return stats.DistNormal
}

// #endregion rss
