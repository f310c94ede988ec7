package chain

import (
	"fmt"
	"math"

	"github.com/danielpatrickdp/tolstack/internal/domainerr"
	"github.com/danielpatrickdp/tolstack/internal/feature"
	"github.com/danielpatrickdp/tolstack/internal/stats"
	"github.com/danielpatrickdp/tolstack/internal/torsor"
)

// #region analyze
// Analyze runs worst case and RSS over the chain, merges them into one
// result torsor and, when cfg.Iterations > 0, adds Monte Carlo statistics.
func Analyze(contributors []torsor.Contributor, cfg Config, streams stats.Streams) (Result, error) {
	if cfg.Method != "" && cfg.Method != MethodJacobianTorsor {
		return Result{}, domainerr.WithMetadata(domainerr.CodeInvalidInput,
			fmt.Sprintf("unsupported 3-D analysis method %q", cfg.Method),
			map[string]string{"field": "analysis_3d.method"})
	}
	if cfg.Iterations < 0 {
		return Result{}, domainerr.WithMetadata(domainerr.CodeInvalidInput,
			"monte carlo iterations must not be negative",
			map[string]string{"field": "analysis_3d.iterations"})
	}

	wc := torsor.WorstCase(contributors)
	res, sens := torsor.RSS(contributors)
	res.MergeWorstCase(wc)

	out := Result{
		Torsor:      res,
		WorstCase:   wc,
		Sensitivity: make([]SensitivityEntry, len(contributors)),
		Summary:     summarize(contributors, wc),
	}
	for i, c := range contributors {
		out.Sensitivity[i] = SensitivityEntry{Name: c.Name, FeatureID: c.FeatureID, ContributionPct: sens[i]}
	}

	if cfg.Iterations > 0 && len(contributors) > 0 {
		mc, err := torsor.MonteCarloParallel(contributors, cfg.Iterations, streams, cfg.Workers)
		if err != nil {
			return Result{}, fmt.Errorf("analyze chain: %w", err)
		}
		out.Torsor.MergeMonteCarlo(mc)
		out.MonteCarlo = &mc
	}
	return out, nil
}

func summarize(contributors []torsor.Contributor, wc feature.TorsorBounds) JacobianSummary {
	s := JacobianSummary{ChainLength: len(contributors), ResultFreeDOF: []string{}}
	for _, c := range contributors {
		s.TotalConstrainedDOF += len(torsor.ConstrainedDOF(c.Class))
	}
	for _, d := range feature.AllDOF {
		if wc[d].Width() == 0 {
			s.ResultFreeDOF = append(s.ResultFreeDOF, d.String())
		}
	}
	return s
}

// #endregion analyze

// #region projection
// Project reduces the result torsor to a scalar deviation along dir, using
// translations only. Each worst-case term takes the extreme image of its
// range, so negative direction components stay ordered. The worst case is
// judged against the target's deviation window (limits minus nominal).
func Project(res torsor.Result, dir [3]float64, target Target, sigmaLevel float64) Projection {
	if !(sigmaLevel > 0) {
		sigmaLevel = stats.DefaultSigmaLevel
	}
	p := torsor.Projection(dir)
	trans := [3]feature.DOF{feature.DOFU, feature.DOFV, feature.DOFW}

	out := Projection{Direction: [3]float64{p[0], p[1], p[2]}}
	var variance float64
	for i, d := range trans {
		s := res[d]
		a, b := p[i]*s.WcMin, p[i]*s.WcMax
		out.WcMin += math.Min(a, b)
		out.WcMax += math.Max(a, b)
		out.RssMean += p[i] * s.RssMean
		sigma := s.Rss3Sigma / 3
		variance += p[i] * p[i] * sigma * sigma
	}
	sigma := math.Sqrt(variance)
	out.Rss3Sigma = 3 * sigma

	if res[feature.DOFU].McMean != nil {
		var mean, mcVar float64
		for i, d := range trans {
			if m := res[d].McMean; m != nil {
				mean += p[i] * *m
			}
			if sd := res[d].McStdDev; sd != nil {
				mcVar += p[i] * p[i] * *sd * *sd
			}
		}
		mcSD := math.Sqrt(mcVar)
		out.McMean = &mean
		out.McStdDev = &mcSD
	}

	devLSL := target.LowerLimit - target.Nominal
	devUSL := target.UpperLimit - target.Nominal
	if sigma > 0 {
		cp := (devUSL - devLSL) / (sigmaLevel * sigma)
		half := sigmaLevel / 2 * sigma
		cpk := math.Min((devUSL-out.RssMean)/half, (out.RssMean-devLSL)/half)
		yield := math.Max(0, (2*stats.NormalCDF(3*cpk)-1)*100)
		out.Cp, out.Cpk, out.YieldPercent = &cp, &cpk, &yield
	}

	out.WcResult = "fail"
	if out.WcMin >= devLSL && out.WcMax <= devUSL {
		out.WcResult = "pass"
	}
	return out
}

// #endregion projection
