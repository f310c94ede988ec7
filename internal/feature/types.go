package feature

import "github.com/danielpatrickdp/tolstack/internal/stats"

// #region dimension
// Dimension is a toleranced length. Tolerances are non-negative magnitudes;
// Internal marks a hole-like feature.
type Dimension struct {
	Nominal      float64
	PlusTol      float64
	MinusTol     float64
	Internal     bool
	Distribution stats.Distribution
}

// #endregion dimension

// #region gdt
// MaterialCondition modifies a GD&T control (RFS, MMC, LMC).
type MaterialCondition string

const (
	ConditionRFS MaterialCondition = "rfs"
	ConditionMMC MaterialCondition = "mmc"
	ConditionLMC MaterialCondition = "lmc"
)

// GdtSymbol is the geometric characteristic of a control frame.
type GdtSymbol string

const (
	SymbolPosition         GdtSymbol = "position"
	SymbolPerpendicularity GdtSymbol = "perpendicularity"
	SymbolParallelism      GdtSymbol = "parallelism"
	SymbolAngularity       GdtSymbol = "angularity"
	SymbolFlatness         GdtSymbol = "flatness"
	SymbolConcentricity    GdtSymbol = "concentricity"
	SymbolRunout           GdtSymbol = "runout"
	SymbolTotalRunout      GdtSymbol = "total_runout"
	SymbolProfileSurface   GdtSymbol = "profile_surface"
	SymbolProfileLine      GdtSymbol = "profile_line"
	SymbolCircularity      GdtSymbol = "circularity"
	SymbolCylindricity     GdtSymbol = "cylindricity"
	SymbolStraightness     GdtSymbol = "straightness"
	SymbolSymmetry         GdtSymbol = "symmetry"
)

// GdtControl is one feature control frame.
type GdtControl struct {
	Symbol    GdtSymbol
	Value     float64
	Condition MaterialCondition
	DatumRefs []string // ordered primary, secondary, tertiary
}

// #endregion gdt

// #region geometry
// GeometryClass is the invariance class of a feature's nominal geometry.
type GeometryClass string

const (
	ClassPlane    GeometryClass = "plane"
	ClassCylinder GeometryClass = "cylinder"
	ClassCone     GeometryClass = "cone"
	ClassSphere   GeometryClass = "sphere"
	ClassPoint    GeometryClass = "point"
	ClassLine     GeometryClass = "line"
	ClassComplex  GeometryClass = "complex"
)

// Geometry3D places a feature in assembly coordinates.
type Geometry3D struct {
	Origin [3]float64
	Axis   [3]float64
	Length *float64 // characteristic length, used for angular bounds
}

// Feature is a toleranced feature as supplied by the document layer.
type Feature struct {
	ID         string
	Name       string
	Class      GeometryClass
	Geometry   *Geometry3D
	Dimensions []Dimension
	Controls   []GdtControl
	Bounds     *TorsorBounds // previously stored bounds, if any
	DatumLabel string        // set when the feature is a datum (A, B, C...)
}

// #endregion geometry

// #region dof
// DOF indexes the six torsor components.
type DOF int

const (
	DOFU DOF = iota
	DOFV
	DOFW
	DOFAlpha
	DOFBeta
	DOFGamma
)

// NumDOF is the size of a torsor.
const NumDOF = 6

// AllDOF lists the torsor components in index order.
var AllDOF = [NumDOF]DOF{DOFU, DOFV, DOFW, DOFAlpha, DOFBeta, DOFGamma}

// #endregion dof

// #region bounds
// Bound is an optional [min, max] range. The zero value is absent, which
// is distinct from a present [0, 0].
type Bound struct {
	min, max float64
	ok       bool
}

// TorsorBounds holds one optional bound per degree of freedom.
type TorsorBounds [NumDOF]Bound

// #endregion bounds
