package chain

import (
	"errors"
	"math"
	"slices"
	"strings"
	"testing"

	"github.com/danielpatrickdp/tolstack/internal/domainerr"
	"github.com/danielpatrickdp/tolstack/internal/feature"
	"github.com/danielpatrickdp/tolstack/internal/stats"
	"github.com/danielpatrickdp/tolstack/internal/torsor"
)

// #region helpers
func ptr(v float64) *float64 { return &v }

func contributor(name string, pos [3]float64, dof feature.DOF, half float64) torsor.Contributor {
	var b feature.TorsorBounds
	b.Set(dof, feature.Symmetric(half))
	return torsor.Contributor{Name: name, FeatureID: "FEAT-" + name, Class: feature.ClassComplex, Position: pos, Bounds: b, SigmaLevel: 6}
}

func expectBound(t *testing.T, b feature.Bound, lo, hi float64) {
	t.Helper()
	gotLo, gotHi, ok := b.Get()
	if !ok {
		t.Fatalf("bound absent, want [%v, %v]", lo, hi)
	}
	if math.Abs(gotLo-lo) > 1e-12 || math.Abs(gotHi-hi) > 1e-12 {
		t.Fatalf("got [%v, %v], want [%v, %v]", gotLo, gotHi, lo, hi)
	}
}

func hasWarning(warnings []string, substr string) bool {
	for _, w := range warnings {
		if strings.Contains(w, substr) {
			return true
		}
	}
	return false
}

// #endregion helpers

// #region analyze-tests
func TestAnalyze_WithoutMonteCarlo(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Iterations = 0
	res, err := Analyze([]torsor.Contributor{contributor("a", [3]float64{}, feature.DOFU, 0.1)}, cfg, stats.PCGStreams{Seed: 1})
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}

	u := res.Torsor[feature.DOFU]
	if u.WcMin != -0.1 || u.WcMax != 0.1 {
		t.Fatalf("wc not merged: %+v", u)
	}
	if res.MonteCarlo != nil || u.McMean != nil {
		t.Fatal("monte carlo ran with zero iterations")
	}
	if len(res.Sensitivity) != 1 || res.Sensitivity[0].FeatureID != "FEAT-a" {
		t.Fatalf("sensitivity = %+v", res.Sensitivity)
	}
	if res.Sensitivity[0].ContributionPct[feature.DOFU] != 100 {
		t.Errorf("u share = %v, want 100", res.Sensitivity[0].ContributionPct[feature.DOFU])
	}

	want := []string{"v", "w", "alpha", "beta", "gamma"}
	if !slices.Equal(res.Summary.ResultFreeDOF, want) {
		t.Errorf("free DOF = %v, want %v", res.Summary.ResultFreeDOF, want)
	}
	if res.Summary.ChainLength != 1 || res.Summary.TotalConstrainedDOF != 0 {
		t.Errorf("summary = %+v", res.Summary)
	}
}

func TestAnalyze_WithMonteCarlo(t *testing.T) {
	chain := []torsor.Contributor{
		contributor("a", [3]float64{}, feature.DOFU, 0.1),
		contributor("b", [3]float64{0, 0, 20}, feature.DOFBeta, 0.001),
	}
	chain[1].Class = feature.ClassCylinder

	cfg := DefaultConfig()
	cfg.Iterations = 2000
	cfg.Workers = 2
	res, err := Analyze(chain, cfg, stats.PCGStreams{Seed: 9})
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if res.MonteCarlo == nil || res.MonteCarlo.Iterations != 2000 {
		t.Fatalf("monte carlo missing: %+v", res.MonteCarlo)
	}
	for d, s := range res.Torsor {
		if s.McMean == nil || s.McStdDev == nil {
			t.Fatalf("dof %d missing mc stats", d)
		}
	}
	// β at z=20 moves u by ±0.02 on top of the ±0.1 direct term.
	expectBound(t, res.WorstCase[feature.DOFU], -0.12, 0.12)
	if res.Summary.TotalConstrainedDOF != 4 {
		t.Errorf("constrained DOF = %d, want 4", res.Summary.TotalConstrainedDOF)
	}
}

func TestAnalyze_EmptyChainSkipsMonteCarlo(t *testing.T) {
	res, err := Analyze(nil, DefaultConfig(), stats.PCGStreams{Seed: 1})
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if res.MonteCarlo != nil || len(res.Sensitivity) != 0 {
		t.Fatalf("empty chain: %+v", res)
	}
	if len(res.Summary.ResultFreeDOF) != feature.NumDOF {
		t.Errorf("every DOF should be free, got %v", res.Summary.ResultFreeDOF)
	}
}

func TestAnalyze_RejectsBadConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Method = "vector_loop"
	if _, err := Analyze(nil, cfg, stats.PCGStreams{}); !domainerr.HasCode(err, domainerr.CodeInvalidInput) {
		t.Fatalf("unknown method: %v", err)
	}
	cfg = DefaultConfig()
	cfg.Iterations = -1
	if _, err := Analyze(nil, cfg, stats.PCGStreams{}); !domainerr.HasCode(err, domainerr.CodeInvalidInput) {
		t.Fatalf("negative iterations: %v", err)
	}
}

// #endregion analyze-tests

func TestValidate(t *testing.T) {
	links := []Link{{Name: "a", PlusTol: 0.1, MinusTol: 0.1}}
	if err := Validate(links, 6); err != nil {
		t.Fatalf("valid links: %v", err)
	}
	for _, sigma := range []float64{0, -3, math.NaN()} {
		if err := Validate(links, sigma); !domainerr.HasCode(err, domainerr.CodeInvalidInput) {
			t.Errorf("sigma %v: got %v", sigma, err)
		}
	}
	bad := append(links, Link{Name: "b", PlusTol: 0.1, MinusTol: -0.05})
	err := Validate(bad, 6)
	var de *domainerr.Error
	if !errors.As(err, &de) || de.Metadata["field"] != "contributors[1]" {
		t.Fatalf("negative tolerance: %v", err)
	}
}

// #region build-tests
func fixtureFeatures() []feature.Feature {
	storedStale := feature.TorsorBounds{}
	storedStale.Set(feature.DOFU, feature.Symmetric(0.5))

	return []feature.Feature{
		{ID: "datum-a", Name: "base", Class: feature.ClassPlane, DatumLabel: "A", Geometry: &feature.Geometry3D{Axis: [3]float64{0, 0, 1}}},
		{
			ID: "bore", Name: "bore", Class: feature.ClassCylinder,
			Geometry:   &feature.Geometry3D{Origin: [3]float64{10, 0, 0}, Length: ptr(20)},
			Dimensions: []feature.Dimension{{Nominal: 10, PlusTol: 0.1, Internal: true}},
			Controls:   []feature.GdtControl{{Symbol: feature.SymbolPosition, Value: 0.2, DatumRefs: []string{"A"}}},
		},
		{ID: "face", Name: "face", Class: feature.ClassPlane},
		{
			ID: "pin", Name: "pin", Class: feature.ClassCylinder,
			Dimensions: []feature.Dimension{{Nominal: 8, PlusTol: 0.02, MinusTol: 0.02, Distribution: stats.DistUniform}},
			Controls:   []feature.GdtControl{{Symbol: feature.SymbolPerpendicularity, Value: 0.05, DatumRefs: []string{"A"}}},
		},
		{
			ID: "stale", Name: "stale", Class: feature.ClassCylinder,
			Geometry: &feature.Geometry3D{},
			Controls: []feature.GdtControl{{Symbol: feature.SymbolPosition, Value: 0.2}},
			Bounds:   &storedStale,
		},
	}
}

func TestBuild_GdtBounds(t *testing.T) {
	b := NewBuilder(fixtureFeatures(), nil)
	built := b.Build([]Link{{Name: "bore", FeatureID: "bore"}}, 6)

	c := built.Contributors[0]
	if built.Sources[0] != SourceGdt {
		t.Fatalf("source = %s, want gdt", built.Sources[0])
	}
	if c.Position != [3]float64{10, 0, 0} || c.Class != feature.ClassCylinder {
		t.Fatalf("contributor = %+v", c)
	}
	expectBound(t, c.Bounds[feature.DOFU], -0.1, 0.1)
	if c.Distribution != stats.DistNormal {
		t.Errorf("distribution = %s, want normal", c.Distribution)
	}
}

func TestBuild_DerivedWithoutGeometry(t *testing.T) {
	b := NewBuilder(fixtureFeatures(), nil)
	built := b.Build([]Link{{Name: "face", FeatureID: "face", PlusTol: 0.1, MinusTol: 0.1}}, 6)

	c := built.Contributors[0]
	if built.Sources[0] != SourceDerived {
		t.Fatalf("source = %s, want derived", built.Sources[0])
	}
	if c.Position != ([3]float64{}) {
		t.Errorf("position = %v, want origin", c.Position)
	}
	expectBound(t, c.Bounds[feature.DOFW], -0.1, 0.1)
	expectBound(t, c.Bounds[feature.DOFAlpha], -0.002, 0.002)
	expectBound(t, c.Bounds[feature.DOFBeta], -0.002, 0.002)
	if c.Bounds[feature.DOFU].Present() {
		t.Error("plane tolerance should not bound u")
	}
	if !hasWarning(built.Warnings, "face: no 3-D geometry") {
		t.Errorf("missing geometry warning: %v", built.Warnings)
	}
}

func TestBuild_DerivedUsesDatumFrame(t *testing.T) {
	b := NewBuilder(fixtureFeatures(), nil)
	built := b.Build([]Link{{Name: "pin", FeatureID: "pin"}}, 6)

	// perpendicularity without geometry yields nothing, so the pin falls
	// back to its size tolerance on the DOFs datum A leaves free.
	c := built.Contributors[0]
	if built.Sources[0] != SourceDerived {
		t.Fatalf("source = %s, want derived", built.Sources[0])
	}
	expectBound(t, c.Bounds[feature.DOFU], -0.02, 0.02)
	expectBound(t, c.Bounds[feature.DOFV], -0.02, 0.02)
	if c.Bounds[feature.DOFAlpha].Present() || c.Bounds[feature.DOFBeta].Present() {
		t.Errorf("datum A locks tilts, got %v", c.Bounds)
	}
	if c.Distribution != stats.DistUniform {
		t.Errorf("distribution = %s, want the dimension's uniform", c.Distribution)
	}
}

func TestBuild_StoredAndExplicit(t *testing.T) {
	b := NewBuilder(fixtureFeatures(), nil)
	var explicit feature.TorsorBounds
	explicit.Set(feature.DOFGamma, feature.Symmetric(0.003))

	built := b.Build([]Link{
		{Name: "stale", FeatureID: "stale"},
		{Name: "override", FeatureID: "bore", Bounds: &explicit},
		{Name: "ghost", FeatureID: "missing"},
	}, 6)

	if built.Sources[0] != SourceStored {
		t.Errorf("source = %s, want stored", built.Sources[0])
	}
	expectBound(t, built.Contributors[0].Bounds[feature.DOFU], -0.5, 0.5)
	if !hasWarning(built.Warnings, "stale: stored torsor bounds differs") {
		t.Errorf("expected stale warning: %v", built.Warnings)
	}

	if built.Sources[1] != SourceExplicit {
		t.Errorf("source = %s, want explicit", built.Sources[1])
	}
	expectBound(t, built.Contributors[1].Bounds[feature.DOFGamma], -0.003, 0.003)

	if !hasWarning(built.Warnings, "ghost: feature missing not found") {
		t.Errorf("expected missing feature warning: %v", built.Warnings)
	}
	if built.Contributors[2].Class != feature.ClassComplex {
		t.Errorf("unknown feature class = %s, want complex", built.Contributors[2].Class)
	}
}

func TestBuilder_Datums(t *testing.T) {
	b := NewBuilder(fixtureFeatures(), nil)
	ds := b.Datums()
	if len(ds) != 1 || ds["A"].Class != feature.ClassPlane || ds["A"].Axis == nil {
		t.Fatalf("datums = %+v", ds)
	}
}

func TestDerivedBounds(t *testing.T) {
	b := DerivedBounds(0.5, []feature.DOF{feature.DOFU, feature.DOFGamma})
	expectBound(t, b[feature.DOFU], -0.5, 0.5)
	expectBound(t, b[feature.DOFGamma], -0.01, 0.01)
	if b[feature.DOFV].Present() {
		t.Error("v should be absent")
	}
}

// #endregion build-tests

// #region projection-tests
func resultOn(u torsor.Stats) torsor.Result {
	var r torsor.Result
	r[feature.DOFU] = u
	return r
}

func TestProject_Capability(t *testing.T) {
	r := resultOn(torsor.Stats{WcMin: -0.1, WcMax: 0.1, Rss3Sigma: 0.06})
	p := Project(r, [3]float64{1, 0, 0}, Target{Nominal: 10, LowerLimit: 9.8, UpperLimit: 10.2}, 6)

	if p.WcResult != "pass" {
		t.Errorf("wc result = %s, want pass", p.WcResult)
	}
	if math.Abs(p.Rss3Sigma-0.06) > 1e-12 {
		t.Errorf("3σ = %v", p.Rss3Sigma)
	}
	if p.Cp == nil || math.Abs(*p.Cp-0.4/0.12) > 1e-9 {
		t.Fatalf("Cp = %v", p.Cp)
	}
	if p.Cpk == nil || math.Abs(*p.Cpk-0.2/0.06) > 1e-9 {
		t.Fatalf("Cpk = %v", p.Cpk)
	}
	if p.YieldPercent == nil || *p.YieldPercent < 99.99 {
		t.Errorf("yield = %v", p.YieldPercent)
	}
	if p.McMean != nil {
		t.Error("mc fields set without monte carlo")
	}

	tight := Project(r, [3]float64{1, 0, 0}, Target{Nominal: 10, LowerLimit: 9.95, UpperLimit: 10.05}, 6)
	if tight.WcResult != "fail" {
		t.Errorf("wc result = %s, want fail", tight.WcResult)
	}
}

func TestProject_NegativeDirection(t *testing.T) {
	r := resultOn(torsor.Stats{WcMin: -0.1, WcMax: 0.3, RssMean: 0.1})
	p := Project(r, [3]float64{-2, 0, 0}, Target{LowerLimit: -1, UpperLimit: 1}, 6)
	if math.Abs(p.WcMin+0.3) > 1e-12 || math.Abs(p.WcMax-0.1) > 1e-12 {
		t.Fatalf("range = [%v, %v], want [-0.3, 0.1]", p.WcMin, p.WcMax)
	}
	if p.Direction != [3]float64{-1, 0, 0} {
		t.Errorf("direction = %v", p.Direction)
	}
	if p.Cp != nil || p.Cpk != nil || p.YieldPercent != nil {
		t.Error("zero σ should leave capability unset")
	}
}

func TestProject_MonteCarloAndRotations(t *testing.T) {
	mean, sd := 0.01, 0.02
	var r torsor.Result
	r[feature.DOFU] = torsor.Stats{McMean: &mean, McStdDev: &sd}
	r[feature.DOFV] = torsor.Stats{McMean: &mean, McStdDev: &sd}
	r[feature.DOFAlpha] = torsor.Stats{WcMin: -1, WcMax: 1, Rss3Sigma: 5}

	p := Project(r, [3]float64{0, 1, 0}, Target{LowerLimit: -1, UpperLimit: 1}, 6)
	if p.McMean == nil || math.Abs(*p.McMean-0.01) > 1e-12 || math.Abs(*p.McStdDev-0.02) > 1e-12 {
		t.Fatalf("mc projection = %v / %v", p.McMean, p.McStdDev)
	}
	if p.WcMin != 0 || p.WcMax != 0 || p.Rss3Sigma != 0 {
		t.Errorf("rotations leaked into projection: %+v", p)
	}
}

// #endregion projection-tests
