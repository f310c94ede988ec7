package feature

import (
	"fmt"
	"strings"
)

// #region dimension
// Min returns the smallest legal size.
func (d Dimension) Min() float64 { return d.Nominal - d.MinusTol }

// Max returns the largest legal size.
func (d Dimension) Max() float64 { return d.Nominal + d.PlusTol }

// Band returns the full tolerance band width.
func (d Dimension) Band() float64 { return d.PlusTol + d.MinusTol }

// ProcessMean is the centre of the tolerance band, i.e. the nominal shifted
// by half the plus/minus asymmetry.
func (d Dimension) ProcessMean() float64 {
	return d.Nominal + (d.PlusTol-d.MinusTol)/2
}

// MMC returns the maximum material size: smallest hole, largest shaft.
func (d Dimension) MMC() float64 {
	if d.Internal {
		return d.Min()
	}
	return d.Max()
}

// LMC returns the least material size: largest hole, smallest shaft.
func (d Dimension) LMC() float64 {
	if d.Internal {
		return d.Max()
	}
	return d.Min()
}

// Validate reports negative tolerance magnitudes.
func (d Dimension) Validate() error {
	if d.PlusTol < 0 || d.MinusTol < 0 {
		return fmt.Errorf("tolerances must be non-negative (plus %g, minus %g)", d.PlusTol, d.MinusTol)
	}
	return nil
}

// #endregion dimension

// #region feature
// PrimaryDimension returns the first dimension, used for MMC/LMC bonus.
func (f Feature) PrimaryDimension() *Dimension {
	if len(f.Dimensions) == 0 {
		return nil
	}
	d := f.Dimensions[0]
	return &d
}

// GeometryClass returns the feature's class, defaulting to Complex.
func (f Feature) GeometryClass() GeometryClass {
	if f.Class == "" {
		return ClassComplex
	}
	return f.Class
}

// #endregion feature

// #region parsing
// ParseGeometryClass maps a case-insensitive name onto a GeometryClass.
// An empty name means Complex.
func ParseGeometryClass(s string) (GeometryClass, error) {
	c := GeometryClass(strings.ToLower(strings.TrimSpace(s)))
	switch c {
	case "":
		return ClassComplex, nil
	case ClassPlane, ClassCylinder, ClassCone, ClassSphere, ClassPoint, ClassLine, ClassComplex:
		return c, nil
	}
	return "", fmt.Errorf("unknown geometry class %q", s)
}

// ParseSymbol maps a control symbol name onto a GdtSymbol. Spaces and
// hyphens are accepted in place of underscores.
func ParseSymbol(s string) (GdtSymbol, error) {
	norm := strings.NewReplacer(" ", "_", "-", "_").Replace(strings.ToLower(strings.TrimSpace(s)))
	sym := GdtSymbol(norm)
	switch sym {
	case SymbolPosition, SymbolPerpendicularity, SymbolParallelism, SymbolAngularity,
		SymbolFlatness, SymbolConcentricity, SymbolRunout, SymbolTotalRunout,
		SymbolProfileSurface, SymbolProfileLine, SymbolCircularity, SymbolCylindricity,
		SymbolStraightness, SymbolSymmetry:
		return sym, nil
	}
	return "", fmt.Errorf("unknown gdt symbol %q", s)
}

// ParseCondition maps a material condition name. Empty means RFS.
func ParseCondition(s string) (MaterialCondition, error) {
	switch c := MaterialCondition(strings.ToLower(strings.TrimSpace(s))); c {
	case "":
		return ConditionRFS, nil
	case ConditionRFS, ConditionMMC, ConditionLMC:
		return c, nil
	}
	return "", fmt.Errorf("unknown material condition %q", s)
}

// #endregion parsing

// #region dof
var dofNames = [NumDOF]string{"u", "v", "w", "alpha", "beta", "gamma"}

// String returns the field name used in documents and reports.
func (d DOF) String() string {
	if d < 0 || int(d) >= NumDOF {
		return fmt.Sprintf("dof(%d)", int(d))
	}
	return dofNames[d]
}

// Rotational reports whether the DOF is one of α, β, γ.
func (d DOF) Rotational() bool { return d >= DOFAlpha }

// ParseDOF maps a field name (u, v, w, alpha, beta, gamma) onto a DOF.
func ParseDOF(s string) (DOF, error) {
	for i, n := range dofNames {
		if strings.EqualFold(s, n) {
			return DOF(i), nil
		}
	}
	return 0, fmt.Errorf("unknown dof %q", s)
}

// #endregion dof
