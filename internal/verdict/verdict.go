// Package verdict is the acceptance gate applied to analysis results.
// Hard vetoes reject a run. Soft signals send it to review.
package verdict

import (
	"fmt"

	"github.com/danielpatrickdp/tolstack/internal/chain"
	"github.com/danielpatrickdp/tolstack/internal/mate"
	"github.com/danielpatrickdp/tolstack/internal/stackup"
)

// #region gate
// Gate turns analysis results into a disposition.
type Gate struct {
	config Config
}

// NewGate creates a gate with the given thresholds.
func NewGate(config Config) *Gate {
	return &Gate{config: config}
}

// Config returns the gate thresholds.
func (g *Gate) Config() Config { return g.config }

// tally collects vetoes, soft signals and checks for one evaluation.
type tally struct {
	vetoes []Veto
	soft   []string
	checks []Check
}

func (t *tally) check(name string, value float64, pass bool) bool {
	t.checks = append(t.checks, Check{Name: name, Value: value, Pass: pass})
	return pass
}

func (t *tally) veto(typ VetoType, format string, args ...any) {
	t.vetoes = append(t.vetoes, Veto{Type: typ, Reason: fmt.Sprintf(format, args...)})
}

func (t *tally) decide() Decision {
	d := Decision{Vetoes: t.vetoes, Checks: t.checks}
	switch {
	case len(t.vetoes) > 0:
		d.Disposition = Rejected
		d.Reason = fmt.Sprintf("hard veto: %s", t.vetoes[0].Reason)
		if len(t.vetoes) > 1 {
			d.Reason = fmt.Sprintf("hard veto: %d checks: %s", len(t.vetoes), t.vetoes[0].Reason)
		}
	case len(t.soft) > 0:
		d.Disposition = UnderReview
		d.Reason = fmt.Sprintf("review: %s", t.soft[0])
	default:
		d.Disposition = Approved
		d.Reason = "all checks passed"
	}
	return d
}

// #endregion gate

// #region stackup
// Stackup gates a 1-D stack-up. A worst-case fail only vetoes critical
// targets; on other targets it and a marginal result ask for review.
func (g *Gate) Stackup(target stackup.Target, r stackup.AnalysisResults) Decision {
	var t tally

	if wc := r.WorstCase; wc != nil {
		t.check("worst_case_margin", wc.Margin, wc.Result != stackup.ResultFail)
		switch {
		case wc.Result == stackup.ResultFail && target.Critical:
			t.veto(VetoWorstCase, "worst case %.4f..%.4f outside critical target [%g, %g]",
				wc.Min, wc.Max, target.LowerLimit, target.UpperLimit)
		case wc.Result == stackup.ResultFail:
			t.soft = append(t.soft, "worst case fails a non-critical target")
		case wc.Result == stackup.ResultMarginal:
			t.soft = append(t.soft, fmt.Sprintf("worst case margin %.4f is marginal", wc.Margin))
		}
	}

	if rss := r.RSS; rss != nil {
		if !t.check("rss_cpk", rss.Cpk, rss.Cpk >= g.config.MinCpk) {
			t.veto(VetoCapability, "rss cpk %.4f below %.2f", rss.Cpk, g.config.MinCpk)
		}
	}

	if mc := r.MonteCarlo; mc != nil {
		if !t.check("mc_yield_percent", mc.YieldPercent, mc.YieldPercent >= g.config.MinYield) {
			t.veto(VetoYield, "monte carlo yield %.4f%% below %.2f%%", mc.YieldPercent, g.config.MinYield)
		}
	}
	return t.decide()
}

// #endregion stackup

// #region mate
// Mate gates a fit against the expected fit. An empty expectation only
// records the classification.
func (g *Gate) Mate(fit mate.FitAnalysis, expected mate.FitResult) Decision {
	var t tally
	if expected == "" {
		return t.decide()
	}
	match := fit.Result == expected
	t.check("fit_"+string(expected), boolValue(match), match)
	if !match {
		t.veto(VetoFit, "fit is %s, expected %s", fit.Result, expected)
	}
	if st := fit.Statistical; st != nil && match && st.Result3Sigma != expected {
		t.soft = append(t.soft, fmt.Sprintf("statistical fit is %s", st.Result3Sigma))
	}
	return t.decide()
}

// #endregion mate

// #region chain
// Chain gates a 3-D chain by its functional projection. Without a
// projection only the build warnings are considered.
func (g *Gate) Chain(p *chain.Projection, warnings []string) Decision {
	var t tally
	if len(warnings) > 0 {
		t.soft = append(t.soft, fmt.Sprintf("%d chain warnings", len(warnings)))
	}
	if p == nil {
		return t.decide()
	}
	if !t.check("projection_worst_case", p.WcMax-p.WcMin, p.WcResult == "pass") {
		t.veto(VetoProjection, "projected worst case %.4f..%.4f outside the target window", p.WcMin, p.WcMax)
	}
	if p.Cpk != nil && !t.check("projection_cpk", *p.Cpk, *p.Cpk >= g.config.MinCpk) {
		t.soft = append(t.soft, fmt.Sprintf("projected cpk %.4f below %.2f", *p.Cpk, g.config.MinCpk))
	}
	return t.decide()
}

// #endregion chain

// #region bounds
// Bounds gates a bounds computation. Any warning asks for review.
func (g *Gate) Bounds(warnings []string) Decision {
	var t tally
	t.check("bounds_warnings", float64(len(warnings)), len(warnings) == 0)
	if len(warnings) > 0 {
		t.soft = append(t.soft, warnings[0])
	}
	return t.decide()
}

// #endregion bounds

func boolValue(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
