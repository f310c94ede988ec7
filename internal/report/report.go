// Package report renders analysis results as plain map trees that encode
// cleanly to JSON, YAML and structpb.
package report

import (
	"math"

	"github.com/danielpatrickdp/tolstack/internal/chain"
	"github.com/danielpatrickdp/tolstack/internal/feature"
	"github.com/danielpatrickdp/tolstack/internal/mate"
	"github.com/danielpatrickdp/tolstack/internal/stackup"
	"github.com/danielpatrickdp/tolstack/internal/torsor"
	"github.com/danielpatrickdp/tolstack/internal/verdict"
)

// #region values
// Number returns x, or "+Inf", "-Inf" or "NaN" when x is not finite.
func Number(x float64) any {
	switch {
	case math.IsNaN(x):
		return "NaN"
	case math.IsInf(x, 1):
		return "+Inf"
	case math.IsInf(x, -1):
		return "-Inf"
	}
	return x
}

func optional(x *float64) any {
	if x == nil {
		return nil
	}
	return Number(*x)
}

func numbers(xs []float64) []any {
	out := make([]any, len(xs))
	for i, x := range xs {
		out[i] = Number(x)
	}
	return out
}

func strs(xs []string) []any {
	out := make([]any, len(xs))
	for i, x := range xs {
		out[i] = x
	}
	return out
}

// Bounds renders the present DOFs as name -> [min, max].
func Bounds(tb feature.TorsorBounds) map[string]any {
	out := map[string]any{}
	for _, d := range tb.Populated() {
		lo, hi, _ := tb[d].Get()
		out[d.String()] = []any{Number(lo), Number(hi)}
	}
	return out
}

// #endregion values

// #region stackup
// Stackup renders a 1-D stack-up and its results.
func Stackup(s stackup.Stackup, r stackup.AnalysisResults) map[string]any {
	contribs := make([]any, len(s.Contributors))
	for i, c := range s.Contributors {
		contribs[i] = map[string]any{
			"name":      c.Name,
			"nominal":   Number(c.Dimension.Nominal),
			"plus_tol":  Number(c.Dimension.PlusTol),
			"minus_tol": Number(c.Dimension.MinusTol),
			"direction": string(c.Direction),
		}
	}
	target := map[string]any{
		"name":        s.Target.Name,
		"nominal":     Number(s.Target.Nominal),
		"lower_limit": Number(s.Target.LowerLimit),
		"upper_limit": Number(s.Target.UpperLimit),
		"units":       s.Target.Units,
		"critical":    s.Target.Critical,
	}
	out := map[string]any{
		"name":         s.Name,
		"target":       target,
		"contributors": contribs,
	}
	if wc := r.WorstCase; wc != nil {
		out["worst_case"] = map[string]any{
			"min":    Number(wc.Min),
			"max":    Number(wc.Max),
			"margin": Number(wc.Margin),
			"result": string(wc.Result),
		}
	}
	if rss := r.RSS; rss != nil {
		out["rss"] = map[string]any{
			"mean":          Number(rss.Mean),
			"sigma_3":       Number(rss.Sigma3),
			"margin":        Number(rss.Margin),
			"cp":            Number(rss.Cp),
			"cpk":           Number(rss.Cpk),
			"yield_percent": Number(rss.YieldPercent),
			"sensitivity":   numbers(rss.Sensitivity),
			"shifted_mean":  optional(rss.ShiftedMean),
		}
	}
	if mc := r.MonteCarlo; mc != nil {
		out["monte_carlo"] = map[string]any{
			"iterations":     mc.Iterations,
			"mean":           Number(mc.Mean),
			"std_dev":        Number(mc.StdDev),
			"min":            Number(mc.Min),
			"max":            Number(mc.Max),
			"yield_percent":  Number(mc.YieldPercent),
			"percentile_2_5": Number(mc.Percentile2_5),
			"percentile_975": Number(mc.Percentile975),
			"pp":             optional(mc.Pp),
			"ppk":            optional(mc.Ppk),
		}
	}
	return out
}

// #endregion stackup

// #region mate
// Mate renders a fit analysis.
func Mate(fit mate.FitAnalysis) map[string]any {
	out := map[string]any{
		"hole":          fit.HoleName,
		"shaft":         fit.ShaftName,
		"min_clearance": Number(fit.MinClearance),
		"max_clearance": Number(fit.MaxClearance),
		"result":        string(fit.Result),
	}
	if st := fit.Statistical; st != nil {
		out["statistical"] = map[string]any{
			"mean_clearance":           Number(st.MeanClearance),
			"sigma_clearance":          Number(st.SigmaClearance),
			"clearance_3sigma_min":     Number(st.Clearance3SigmaMin),
			"clearance_3sigma_max":     Number(st.Clearance3SigmaMax),
			"interference_probability": Number(st.InterferenceProbability),
			"result_3sigma":            string(st.Result3Sigma),
		}
	}
	return out
}

// #endregion mate

// #region bounds
// FeatureBounds is one feature's computed bounds for a bounds report.
type FeatureBounds struct {
	FeatureID string
	Class     feature.GeometryClass
	Bounds    feature.TorsorBounds
	HasBonus  bool
	Warnings  []string
}

// FeatureBoundsList renders the bounds computed for a set of features.
func FeatureBoundsList(fs []FeatureBounds) map[string]any {
	items := make([]any, len(fs))
	for i, f := range fs {
		items[i] = map[string]any{
			"feature_id":     f.FeatureID,
			"geometry_class": string(f.Class),
			"torsor_bounds":  Bounds(f.Bounds),
			"has_bonus":      f.HasBonus,
			"warnings":       strs(f.Warnings),
		}
	}
	return map[string]any{"features": items}
}

// #endregion bounds

// #region chain
// Chain renders a 3-D chain result. proj may be nil.
func Chain(built chain.Built, res chain.Result, proj *chain.Projection) map[string]any {
	contribs := make([]any, len(built.Contributors))
	for i, c := range built.Contributors {
		contribs[i] = map[string]any{
			"name":          c.Name,
			"feature_id":    c.FeatureID,
			"position":      numbers(c.Position[:]),
			"torsor_bounds": Bounds(c.Bounds),
			"bounds_source": string(built.Sources[i]),
			"distribution":  string(c.Distribution),
		}
	}

	dofs := map[string]any{}
	for _, d := range feature.AllDOF {
		dofs[d.String()] = dofStats(res.Torsor[d])
	}

	sens := make([]any, len(res.Sensitivity))
	for i, s := range res.Sensitivity {
		sens[i] = map[string]any{
			"name":             s.Name,
			"feature_id":       s.FeatureID,
			"contribution_pct": numbers(s.ContributionPct[:]),
		}
	}

	summary := map[string]any{
		"chain_length":          res.Summary.ChainLength,
		"total_constrained_dof": res.Summary.TotalConstrainedDOF,
		"result_free_dof":       strs(res.Summary.ResultFreeDOF),
	}
	out := map[string]any{
		"contributors":     contribs,
		"result_torsor":    dofs,
		"sensitivity":      sens,
		"jacobian_summary": summary,
	}
	if mc := res.MonteCarlo; mc != nil {
		out["monte_carlo_iterations"] = mc.Iterations
	}
	if proj != nil {
		out["functional_projection"] = Projection(*proj)
	}
	return out
}

func dofStats(s torsor.Stats) map[string]any {
	return map[string]any{
		"wc_min":     Number(s.WcMin),
		"wc_max":     Number(s.WcMax),
		"rss_mean":   Number(s.RssMean),
		"rss_3sigma": Number(s.Rss3Sigma),
		"mc_mean":    optional(s.McMean),
		"mc_std_dev": optional(s.McStdDev),
	}
}

// Projection renders a functional projection.
func Projection(p chain.Projection) map[string]any {
	return map[string]any{
		"direction":     numbers(p.Direction[:]),
		"wc_min":        Number(p.WcMin),
		"wc_max":        Number(p.WcMax),
		"wc_result":     p.WcResult,
		"rss_mean":      Number(p.RssMean),
		"rss_3sigma":    Number(p.Rss3Sigma),
		"mc_mean":       optional(p.McMean),
		"mc_std_dev":    optional(p.McStdDev),
		"cp":            optional(p.Cp),
		"cpk":           optional(p.Cpk),
		"yield_percent": optional(p.YieldPercent),
	}
}

// #endregion chain

// #region verdict
// Decision renders a verdict.
func Decision(d verdict.Decision) map[string]any {
	vetoes := make([]any, len(d.Vetoes))
	for i, v := range d.Vetoes {
		vetoes[i] = map[string]any{"type": string(v.Type), "reason": v.Reason}
	}
	checks := make([]any, len(d.Checks))
	for i, c := range d.Checks {
		checks[i] = map[string]any{"name": c.Name, "value": Number(c.Value), "pass": c.Pass}
	}
	return map[string]any{
		"disposition": string(d.Disposition),
		"reason":      d.Reason,
		"vetoes":      vetoes,
		"checks":      checks,
	}
}

// #endregion verdict
