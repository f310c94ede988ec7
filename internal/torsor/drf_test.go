package torsor

import (
	"slices"
	"testing"

	"github.com/danielpatrickdp/tolstack/internal/feature"
)

func datums(classes map[string]feature.GeometryClass) map[string]DatumFeature {
	out := make(map[string]DatumFeature, len(classes))
	for label, class := range classes {
		out[label] = DatumFeature{Label: label, Class: class}
	}
	return out
}

func TestDRF_ThreePlanes(t *testing.T) {
	ds := datums(map[string]feature.GeometryClass{"A": feature.ClassPlane, "B": feature.ClassPlane, "C": feature.ClassPlane})
	drf := BuildDRF([]string{"A", "B", "C"}, ds)

	if drf.DatumCount() != 3 {
		t.Fatalf("datum count = %d", drf.DatumCount())
	}
	if free := drf.Free(); len(free) != 0 {
		t.Fatalf("3-2-1 planes should lock everything, free = %v", free)
	}
}

func TestDRF_PrimaryOnly(t *testing.T) {
	drf := DRF{}.WithPrimary(DatumFeature{Label: "A", Class: feature.ClassPlane})
	want := []feature.DOF{feature.DOFW, feature.DOFAlpha, feature.DOFBeta}
	if got := drf.Constrained(); !slices.Equal(got, want) {
		t.Fatalf("constrained = %v, want %v", got, want)
	}
	if !drf.IsConstrained(feature.DOFW) || drf.IsConstrained(feature.DOFU) {
		t.Fatal("IsConstrained disagrees with Constrained")
	}
}

func TestDRF_SecondarySkipsLockedDOF(t *testing.T) {
	drf := DRF{}.
		WithPrimary(DatumFeature{Label: "A", Class: feature.ClassCylinder}).
		WithSecondary(DatumFeature{Label: "B", Class: feature.ClassPlane}).
		WithTertiary(DatumFeature{Label: "C", Class: feature.ClassPlane})

	// cylinder locks u, v, α; the plane secondary only finds γ free and the
	// tertiary plane finds none of v, u, γ.
	want := []feature.DOF{feature.DOFW, feature.DOFBeta}
	if got := drf.Free(); !slices.Equal(got, want) {
		t.Fatalf("free = %v, want %v", got, want)
	}
}

func TestDRF_SecondaryTakesAtMostTwo(t *testing.T) {
	drf := DRF{}.
		WithPrimary(DatumFeature{Label: "A", Class: feature.ClassPlane}).
		WithSecondary(DatumFeature{Label: "B", Class: feature.ClassCylinder})

	want := []feature.DOF{feature.DOFU, feature.DOFV, feature.DOFW, feature.DOFAlpha, feature.DOFBeta}
	if got := drf.Constrained(); !slices.Equal(got, want) {
		t.Fatalf("constrained = %v, want %v", got, want)
	}
}

func TestBuildDRF_UnknownAndExtraRefs(t *testing.T) {
	ds := datums(map[string]feature.GeometryClass{"A": feature.ClassPlane, "D": feature.ClassPoint})

	drf := BuildDRF([]string{"X", "A"}, ds)
	if drf.Primary != nil || drf.Secondary == nil || drf.Secondary.Label != "A" {
		t.Fatalf("A should sit in the secondary slot: %+v", drf)
	}
	want := []feature.DOF{feature.DOFU, feature.DOFGamma}
	if got := drf.Constrained(); !slices.Equal(got, want) {
		t.Fatalf("constrained = %v, want %v", got, want)
	}

	drf = BuildDRF([]string{"A", "X", "X", "D"}, ds)
	if drf.DatumCount() != 1 {
		t.Fatalf("fourth reference should be ignored, count = %d", drf.DatumCount())
	}
}

func TestToleranceDOF(t *testing.T) {
	ds := datums(map[string]feature.GeometryClass{"A": feature.ClassPlane, "B": feature.ClassPlane, "C": feature.ClassPlane})

	if got := ToleranceDOF(nil, ds, feature.ClassCylinder); !slices.Equal(got, ConstrainedDOF(feature.ClassCylinder)) {
		t.Errorf("no refs = %v, want class DOF", got)
	}

	want := []feature.DOF{feature.DOFU, feature.DOFV}
	if got := ToleranceDOF([]string{"A"}, ds, feature.ClassCylinder); !slices.Equal(got, want) {
		t.Errorf("refs [A] = %v, want %v", got, want)
	}

	if got := ToleranceDOF([]string{"A", "B", "C"}, ds, feature.ClassCylinder); len(got) != 0 {
		t.Errorf("full frame = %v, want none", got)
	}

	if got := ToleranceDOF([]string{"A"}, ds, feature.ClassComplex); len(got) != 0 {
		t.Errorf("complex class = %v, want none", got)
	}
}
