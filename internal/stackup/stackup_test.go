package stackup

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/danielpatrickdp/tolstack/internal/domainerr"
	"github.com/danielpatrickdp/tolstack/internal/feature"
	"github.com/danielpatrickdp/tolstack/internal/stats"
)

// #region helpers
func contrib(name string, nominal, plus, minus float64, dir Direction) Contributor {
	return Contributor{
		Name:      name,
		Dimension: feature.Dimension{Nominal: nominal, PlusTol: plus, MinusTol: minus},
		Direction: dir,
	}
}

func pinInHole() Stackup {
	return Stackup{
		Name:   "pin in hole",
		Target: Target{Name: "gap", Nominal: 2.0, LowerLimit: 0.0, UpperLimit: 3.0},
		Contributors: []Contributor{
			contrib("hole", 10.0, 0.015, 0.0, DirPositive),
			contrib("shaft", 8.0, 0.0, 0.009, DirNegative),
		},
	}
}

func approx(t *testing.T, name string, got, want, tol float64) {
	t.Helper()
	if math.Abs(got-want) > tol {
		t.Errorf("%s = %v, want %v (±%v)", name, got, want, tol)
	}
}

// #endregion helpers

// #region worst-case-tests
func TestWorstCase_PinInHole(t *testing.T) {
	s := pinInHole()
	a := NewAnalyzer(DefaultConfig())
	wc := a.WorstCase(s.Contributors, s.Target)

	approx(t, "min", wc.Min, 2.0, 1e-9)
	approx(t, "max", wc.Max, 2.024, 1e-9)
	if wc.Result != ResultPass {
		t.Fatalf("expected pass, got %s (margin %v)", wc.Result, wc.Margin)
	}
}

func TestWorstCase_Classification(t *testing.T) {
	a := NewAnalyzer(DefaultConfig())
	c := []Contributor{contrib("block", 10, 0.1, 0.1, DirPositive)}

	// margin 0.4 > 10% of 1.0
	if r := a.WorstCase(c, Target{LowerLimit: 9.5, UpperLimit: 10.5}).Result; r != ResultPass {
		t.Errorf("expected pass, got %s", r)
	}
	// margin 0.05, threshold 0.06
	if r := a.WorstCase(c, Target{LowerLimit: 9.85, UpperLimit: 10.45}).Result; r != ResultMarginal {
		t.Errorf("expected marginal, got %s", r)
	}
	if r := a.WorstCase(c, Target{LowerLimit: 9.95, UpperLimit: 10.5}).Result; r != ResultFail {
		t.Errorf("expected fail, got %s", r)
	}
}

// #endregion worst-case-tests

// #region rss-tests
func TestRSS_MeanWithinWorstCase(t *testing.T) {
	r := rand.New(rand.NewPCG(5, 6))
	a := NewAnalyzer(DefaultConfig())
	for i := 0; i < 200; i++ {
		var cs []Contributor
		for j := 0; j < 1+r.IntN(6); j++ {
			dir := DirPositive
			if r.IntN(2) == 0 {
				dir = DirNegative
			}
			cs = append(cs, contrib("c", r.Float64()*50, r.Float64()*0.2, r.Float64()*0.2, dir))
		}
		target := Target{LowerLimit: -100, UpperLimit: 100}
		wc := a.WorstCase(cs, target)
		rss := a.RSS(cs, target)
		if rss.Mean < wc.Min-1e-9 || rss.Mean > wc.Max+1e-9 {
			t.Fatalf("rss mean %v outside [%v, %v]", rss.Mean, wc.Min, wc.Max)
		}
	}
}

func TestRSS_SensitivitySumsTo100(t *testing.T) {
	a := NewAnalyzer(DefaultConfig())
	cs := []Contributor{
		contrib("a", 10, 0.1, 0.05, DirPositive),
		contrib("b", 5, 0.02, 0.02, DirNegative),
		contrib("c", 3, 0.3, 0.0, DirPositive),
	}
	rss := a.RSS(cs, Target{LowerLimit: 7, UpperLimit: 9})
	var sum float64
	for _, s := range rss.Sensitivity {
		sum += s
	}
	approx(t, "sensitivity sum", sum, 100, 0.01)
}

func TestRSS_EqualVarianceSplitsEvenly(t *testing.T) {
	a := NewAnalyzer(DefaultConfig())
	var cs []Contributor
	for i := 0; i < 4; i++ {
		cs = append(cs, contrib("part", 10, 0.05, 0.05, DirPositive))
	}
	rss := a.RSS(cs, Target{LowerLimit: 39, UpperLimit: 41})
	if len(rss.Sensitivity) != 4 {
		t.Fatalf("expected 4 entries, got %d", len(rss.Sensitivity))
	}
	for _, s := range rss.Sensitivity {
		approx(t, "sensitivity", s, 25, 0.1)
	}
}

func TestRSS_ZeroVariance(t *testing.T) {
	a := NewAnalyzer(DefaultConfig())
	cs := []Contributor{contrib("gauge block", 25, 0, 0, DirPositive)}
	rss := a.RSS(cs, Target{LowerLimit: 24, UpperLimit: 26})

	if rss.Sensitivity == nil || len(rss.Sensitivity) != 0 {
		t.Fatalf("expected empty sensitivity, got %v", rss.Sensitivity)
	}
	if !math.IsInf(rss.Cp, 1) || !math.IsInf(rss.Cpk, 1) {
		t.Fatalf("expected +Inf capability, got cp=%v cpk=%v", rss.Cp, rss.Cpk)
	}
	if rss.YieldPercent != 100 {
		t.Fatalf("expected 100%% yield, got %v", rss.YieldPercent)
	}
	if rss.ShiftedMean != nil {
		t.Fatal("no shift expected at zero sigma")
	}
}

func TestRSS_ZeroVarianceOutsideWindow(t *testing.T) {
	a := NewAnalyzer(DefaultConfig())
	cs := []Contributor{contrib("gauge block", 27, 0, 0, DirPositive)}
	rss := a.RSS(cs, Target{LowerLimit: 24, UpperLimit: 26})
	if rss.YieldPercent != 0 {
		t.Fatalf("point mass outside the window should yield 0%%, got %v", rss.YieldPercent)
	}
}

func TestRSS_CapabilityValues(t *testing.T) {
	a := NewAnalyzer(DefaultConfig())
	// band 0.6 -> sigma 0.1
	cs := []Contributor{contrib("a", 10, 0.3, 0.3, DirPositive)}
	rss := a.RSS(cs, Target{LowerLimit: 9.4, UpperLimit: 10.8})

	approx(t, "sigma3", rss.Sigma3, 0.3, 1e-12)
	approx(t, "cp", rss.Cp, 1.4/0.6, 1e-9)
	approx(t, "cpk", rss.Cpk, 0.6/0.3, 1e-9)
	approx(t, "margin", rss.Margin, 0.3, 1e-9)
}

func TestRSS_MeanShiftOnlyMovesCpk(t *testing.T) {
	target := Target{LowerLimit: 9.5, UpperLimit: 10.2}
	cs := []Contributor{contrib("a", 10, 0.3, 0.3, DirPositive)}

	plain := NewAnalyzer(DefaultConfig()).RSS(cs, target)

	cfg := DefaultConfig()
	cfg.MeanShiftK = 1.5
	shifted := NewAnalyzer(cfg).RSS(cs, target)

	if shifted.ShiftedMean == nil {
		t.Fatal("expected shifted mean")
	}
	// upper limit is nearer, so the capability mean moves up by 1.5σ
	approx(t, "shifted mean", *shifted.ShiftedMean, 10.15, 1e-9)
	if shifted.Cpk >= plain.Cpk {
		t.Errorf("shift should lower cpk: %v vs %v", shifted.Cpk, plain.Cpk)
	}
	approx(t, "yield unchanged", shifted.YieldPercent, plain.YieldPercent, 1e-12)
	approx(t, "mean unchanged", shifted.Mean, plain.Mean, 1e-12)
}

func TestRSS_IncludeGdtWidensBand(t *testing.T) {
	actual := 10.05
	c := contrib("bore", 10, 0.1, 0, DirPositive)
	c.Gdt = &GdtPosition{Tolerance: 0.25, Condition: feature.ConditionMMC, MaterialLimit: 10.0, ActualSize: &actual}
	approx(t, "effective", c.Gdt.Effective(), 0.30, 1e-12)

	target := Target{LowerLimit: 9, UpperLimit: 11}
	without := NewAnalyzer(DefaultConfig()).RSS([]Contributor{c}, target)
	cfg := DefaultConfig()
	cfg.IncludeGdt = true
	with := NewAnalyzer(cfg).RSS([]Contributor{c}, target)

	approx(t, "sigma3 without", without.Sigma3, 3*0.1/6, 1e-12)
	approx(t, "sigma3 with", with.Sigma3, 3*0.4/6, 1e-12)
}

func TestGdtPosition_NoBonusForRFS(t *testing.T) {
	actual := 10.05
	g := GdtPosition{Tolerance: 0.25, Condition: feature.ConditionRFS, MaterialLimit: 10, ActualSize: &actual}
	if g.Bonus() != 0 {
		t.Fatalf("expected no bonus, got %v", g.Bonus())
	}
}

// #endregion rss-tests

// #region monte-carlo-tests
func TestMonteCarlo_PinInHole(t *testing.T) {
	s := pinInHole()
	a := NewAnalyzer(DefaultConfig())
	mc := a.MonteCarlo(s.Contributors, s.Target, stats.NewSource(2024))

	if mc.Iterations != 10000 {
		t.Fatalf("iterations = %d", mc.Iterations)
	}
	approx(t, "mean", mc.Mean, 2.0, 0.1)
	if mc.YieldPercent <= 99 {
		t.Fatalf("yield %v, want > 99", mc.YieldPercent)
	}
	if mc.Percentile2_5 > mc.Percentile975 {
		t.Fatalf("percentiles out of order: %v > %v", mc.Percentile2_5, mc.Percentile975)
	}
	if mc.Pp == nil || mc.Ppk == nil {
		t.Fatal("expected Pp/Ppk")
	}
}

func TestMonteCarlo_ZeroSpreadHasNoPp(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Iterations = 100
	a := NewAnalyzer(cfg)
	cs := []Contributor{contrib("fixed", 5, 0, 0, DirPositive)}
	mc := a.MonteCarlo(cs, Target{LowerLimit: 4, UpperLimit: 6}, stats.NewSource(1))
	if mc.Pp != nil || mc.Ppk != nil {
		t.Fatal("Pp/Ppk must be absent when s = 0")
	}
	if mc.YieldPercent != 100 {
		t.Fatalf("yield %v", mc.YieldPercent)
	}
}

func TestMonteCarlo_SeedReproducible(t *testing.T) {
	s := pinInHole()
	cfg := DefaultConfig()
	cfg.Iterations = 2000
	a := NewAnalyzer(cfg)
	first := a.MonteCarlo(s.Contributors, s.Target, stats.NewSource(77))
	second := a.MonteCarlo(s.Contributors, s.Target, stats.NewSource(77))
	if first.Mean != second.Mean || first.StdDev != second.StdDev {
		t.Fatalf("same seed diverged: %+v vs %+v", first, second)
	}
}

func TestMonteCarloParallel_Deterministic(t *testing.T) {
	s := pinInHole()
	cfg := DefaultConfig()
	cfg.Iterations = 5000
	cfg.Workers = 4
	a := NewAnalyzer(cfg)

	first, err := a.MonteCarloParallel(s.Contributors, s.Target, stats.PCGStreams{Seed: 9})
	if err != nil {
		t.Fatalf("parallel: %v", err)
	}
	second, err := a.MonteCarloParallel(s.Contributors, s.Target, stats.PCGStreams{Seed: 9})
	if err != nil {
		t.Fatalf("parallel: %v", err)
	}
	if first.Mean != second.Mean || first.Min != second.Min || first.Max != second.Max {
		t.Fatalf("parallel run not reproducible")
	}
	if first.Iterations != 5000 {
		t.Fatalf("iterations = %d", first.Iterations)
	}
	approx(t, "mean", first.Mean, 2.0, 0.1)
}

func TestMonteCarlo_UniformAndTriangular(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Iterations = 4000
	a := NewAnalyzer(cfg)
	for _, dist := range []stats.Distribution{stats.DistUniform, stats.DistTriangular} {
		c := contrib("a", 10, 0.2, 0.2, DirPositive)
		c.Distribution = dist
		mc := a.MonteCarlo([]Contributor{c}, Target{LowerLimit: 9.5, UpperLimit: 10.5}, stats.NewSource(3))
		if mc.Min < 9.8-1e-12 || mc.Max > 10.2+1e-12 {
			t.Errorf("%s samples escaped the band: [%v, %v]", dist, mc.Min, mc.Max)
		}
		if mc.YieldPercent != 100 {
			t.Errorf("%s yield %v", dist, mc.YieldPercent)
		}
	}
}

// #endregion monte-carlo-tests

// #region analyze-tests
func TestAnalyze_RunsAllMethods(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Iterations = 1000
	res, err := NewAnalyzer(cfg).Analyze(pinInHole(), stats.PCGStreams{Seed: 1})
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if res.WorstCase == nil || res.RSS == nil || res.MonteCarlo == nil {
		t.Fatalf("missing results: %+v", res)
	}
}

func TestAnalyze_SkipsMonteCarloAtZeroIterations(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Iterations = 0
	res, err := NewAnalyzer(cfg).Analyze(pinInHole(), stats.PCGStreams{Seed: 1})
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if res.MonteCarlo != nil {
		t.Fatal("expected no monte carlo result")
	}
}

func TestAnalyze_RejectsBadInput(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SigmaLevel = 0
	_, err := NewAnalyzer(cfg).Analyze(pinInHole(), stats.PCGStreams{})
	if !domainerr.HasCode(err, domainerr.CodeInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}

	s := pinInHole()
	s.Contributors[0].Dimension.MinusTol = -0.01
	_, err = NewAnalyzer(DefaultConfig()).Analyze(s, stats.PCGStreams{})
	if !domainerr.HasCode(err, domainerr.CodeInvalidInput) {
		t.Fatalf("expected invalid input for negative tolerance, got %v", err)
	}
}

// #endregion analyze-tests
