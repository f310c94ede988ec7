package gdt

import (
	"fmt"
	"math"
	"strings"

	"github.com/danielpatrickdp/tolstack/internal/feature"
)

// DimensionFallbackWarning tags bounds derived from size tolerance alone.
const DimensionFallbackWarning = "Torsor bounds computed from dimensional tolerance (no GD&T)"

// #region converter
// Converter maps GD&T controls onto torsor bounds.
type Converter struct {
	config Config
}

// NewConverter creates a converter. A non-positive characteristic length
// falls back to DefaultCharacteristicLength.
func NewConverter(config Config) *Converter {
	if !(config.CharacteristicLength > 0) {
		config.CharacteristicLength = DefaultCharacteristicLength
	}
	return &Converter{config: config}
}

// Compute converts every control on the feature and folds the results with
// the widened-union merge. A feature with dimensions but no controls gets
// bounds from its primary dimension instead. The merged bounds are then
// checked against the feature's geometry class.
func (c *Converter) Compute(f feature.Feature, actualSize *float64) Result {
	class := f.GeometryClass()
	dim := f.PrimaryDimension()

	var acc Result
	for _, ctl := range f.Controls {
		acc = merge(acc, c.ForControl(ctl, class, f.Geometry, dim, actualSize))
	}

	if len(f.Controls) == 0 && dim != nil {
		acc = merge(acc, Result{
			Bounds:   FromDimension(*dim, class, f.Geometry),
			Warnings: []string{DimensionFallbackWarning},
		})
	}

	acc.Warnings = append(acc.Warnings, Validate(acc.Bounds, class)...)
	return acc
}

// ForControl converts a single control frame.
func (c *Converter) ForControl(
	ctl feature.GdtControl,
	class feature.GeometryClass,
	geom *feature.Geometry3D,
	dim *feature.Dimension,
	actualSize *float64,
) Result {
	tol, bonus := EffectiveTolerance(ctl, dim, actualSize)
	half := feature.Symmetric(tol / 2)

	var res Result
	res.HasBonus = bonus > 0
	set := func(b feature.Bound, dofs ...feature.DOF) {
		for _, d := range dofs {
			res.Bounds.Set(d, b)
		}
	}
	angular := func() {
		length, warn, ok := c.length(ctl.Symbol, geom)
		if warn != "" {
			res.Warnings = append(res.Warnings, warn)
		}
		if ok {
			set(feature.Symmetric(tol/length), feature.DOFAlpha, feature.DOFBeta)
		}
	}

	switch ctl.Symbol {
	case feature.SymbolPosition:
		switch class {
		case feature.ClassSphere, feature.ClassPoint, feature.ClassComplex:
			set(half, feature.DOFU, feature.DOFV, feature.DOFW)
		default:
			set(half, feature.DOFU, feature.DOFV)
		}

	case feature.SymbolPerpendicularity, feature.SymbolParallelism, feature.SymbolAngularity:
		angular()

	case feature.SymbolFlatness:
		set(half, feature.DOFW)

	case feature.SymbolConcentricity, feature.SymbolProfileLine, feature.SymbolCircularity:
		set(half, feature.DOFU, feature.DOFV)

	case feature.SymbolRunout, feature.SymbolCylindricity:
		set(half, feature.DOFU, feature.DOFV)
		angular()

	case feature.SymbolTotalRunout:
		set(half, feature.DOFU, feature.DOFV, feature.DOFW)
		angular()

	case feature.SymbolProfileSurface:
		switch class {
		case feature.ClassPlane:
			set(half, feature.DOFW)
		case feature.ClassCylinder, feature.ClassCone:
			set(half, feature.DOFU, feature.DOFV)
		default:
			set(half, feature.DOFU, feature.DOFV, feature.DOFW)
		}

	case feature.SymbolStraightness:
		switch class {
		case feature.ClassCylinder, feature.ClassLine:
			angular()
		default:
			set(half, feature.DOFW)
		}

	case feature.SymbolSymmetry:
		set(half, feature.DOFU)

	default:
		res.Warnings = append(res.Warnings, fmt.Sprintf("unsupported GD&T symbol %q ignored", ctl.Symbol))
	}
	return res
}

// length resolves the characteristic length for angular bounds. ok is false
// when the feature has no geometry at all.
func (c *Converter) length(sym feature.GdtSymbol, geom *feature.Geometry3D) (length float64, warning string, ok bool) {
	name := symbolLabel(sym)
	if geom == nil {
		return 0, fmt.Sprintf("%s GD&T requires geometry_3d.length for angular bound calculation; angular bounds skipped", name), false
	}
	if geom.Length == nil || !(*geom.Length > 0) {
		return c.config.CharacteristicLength,
			fmt.Sprintf("%s GD&T: geometry_3d.length not set, using default characteristic length %g mm", name, c.config.CharacteristicLength),
			true
	}
	return *geom.Length, "", true
}

// #endregion converter

// #region effective-tolerance
// EffectiveTolerance returns the control value plus bonus. Bonus applies
// under MMC or LMC when both an actual size and a dimension are known.
func EffectiveTolerance(ctl feature.GdtControl, dim *feature.Dimension, actualSize *float64) (tol, bonus float64) {
	if dim != nil && actualSize != nil {
		switch ctl.Condition {
		case feature.ConditionMMC:
			bonus = math.Abs(*actualSize - dim.MMC())
		case feature.ConditionLMC:
			bonus = math.Abs(*actualSize - dim.LMC())
		}
	}
	return ctl.Value + bonus, bonus
}

// #endregion effective-tolerance

// #region dimension-fallback
// FromDimension derives bounds from a plain size tolerance. h is half the
// band; cylindrical features take h/2 as a radius.
func FromDimension(dim feature.Dimension, class feature.GeometryClass, geom *feature.Geometry3D) feature.TorsorBounds {
	h := dim.Band() / 2
	var b feature.TorsorBounds
	set := func(bound feature.Bound, dofs ...feature.DOF) {
		for _, d := range dofs {
			b.Set(d, bound)
		}
	}

	switch class {
	case feature.ClassCylinder, feature.ClassCone, feature.ClassLine:
		set(feature.Symmetric(h/2), feature.DOFU, feature.DOFV)
	case feature.ClassSphere, feature.ClassPoint:
		set(feature.Symmetric(h/2), feature.DOFU, feature.DOFV, feature.DOFW)
	case feature.ClassPlane:
		set(feature.Symmetric(h), feature.DOFW)
	default:
		if geom != nil {
			set(feature.Symmetric(h), feature.DOFW)
		} else {
			set(feature.Symmetric(h), feature.DOFU, feature.DOFV, feature.DOFW)
		}
	}
	return b
}

// #endregion dimension-fallback

// #region validate
// Validate warns when the populated DOFs do not fit the geometry class.
func Validate(b feature.TorsorBounds, class feature.GeometryClass) []string {
	has := func(d feature.DOF) bool { return b[d].Present() }

	var warnings []string
	switch class {
	case feature.ClassCylinder:
		if !has(feature.DOFU) || !has(feature.DOFV) {
			warnings = append(warnings, "Cylinder feature missing radial (u, v) bounds")
		}
	case feature.ClassPlane:
		if !has(feature.DOFW) && !has(feature.DOFAlpha) && !has(feature.DOFBeta) {
			warnings = append(warnings, "Plane feature has no bounds - expected w, alpha, or beta")
		}
	case feature.ClassSphere, feature.ClassPoint:
		if !has(feature.DOFU) && !has(feature.DOFV) && !has(feature.DOFW) {
			warnings = append(warnings, "Point/Sphere feature missing positional (u, v, w) bounds")
		}
	}
	return warnings
}

// CheckStale compares previously stored bounds with freshly computed ones.
// It returns "" when the stored copy is current.
func CheckStale(stored *feature.TorsorBounds, computed feature.TorsorBounds, eps float64) string {
	if stored == nil {
		if computed.HasAny() {
			return "torsor bounds not set but can be computed from GD&T"
		}
		return ""
	}
	if !feature.ApproxEqual(*stored, computed, eps) {
		return "stored torsor bounds differs from computed; recompute bounds to update"
	}
	return ""
}

// #endregion validate

func symbolLabel(sym feature.GdtSymbol) string {
	words := strings.Split(string(sym), "_")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}
