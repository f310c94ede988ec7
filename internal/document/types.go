package document

// #region kind
// Kind selects which analysis a document requests.
type Kind string

const (
	KindStackup Kind = "stackup"
	KindMate    Kind = "mate"
	KindBounds  Kind = "bounds"
	KindChain   Kind = "chain"
)

// #endregion kind

// Seed is a Monte Carlo seed. Documents may give it as an integer or as a
// decimal string; reports always echo it as a string.
type Seed uint64

// #region document
// Document is the YAML/JSON input for one analysis run. Sections that do
// not apply to Kind are ignored.
type Document struct {
	Kind Kind    `yaml:"kind" json:"kind"`
	Name string  `yaml:"name" json:"name"`
	Seed *Seed   `yaml:"seed,omitempty" json:"seed,omitempty"`

	Config       *AnalysisConfig `yaml:"config,omitempty" json:"config,omitempty"`
	Target       *Target         `yaml:"target,omitempty" json:"target,omitempty"`
	Contributors []Contributor   `yaml:"contributors,omitempty" json:"contributors,omitempty"`

	Mate *Mate `yaml:"mate,omitempty" json:"mate,omitempty"`

	Features   []Feature `yaml:"features,omitempty" json:"features,omitempty"`
	ActualSize *float64  `yaml:"actual_size,omitempty" json:"actual_size,omitempty"`

	Analysis3D          *Analysis3D `yaml:"analysis_3d,omitempty" json:"analysis_3d,omitempty"`
	FunctionalDirection []float64   `yaml:"functional_direction,omitempty" json:"functional_direction,omitempty"`
}

// AnalysisConfig overrides the analysis defaults. Nil fields keep them.
type AnalysisConfig struct {
	SigmaLevel *float64 `yaml:"sigma_level,omitempty" json:"sigma_level,omitempty"`
	MeanShiftK *float64 `yaml:"mean_shift_k,omitempty" json:"mean_shift_k,omitempty"`
	IncludeGdt *bool    `yaml:"include_gdt,omitempty" json:"include_gdt,omitempty"`
	Iterations *int     `yaml:"iterations,omitempty" json:"iterations,omitempty"`
	Workers    *int     `yaml:"workers,omitempty" json:"workers,omitempty"`
}

// Analysis3D mirrors chain.Config.
type Analysis3D struct {
	Enabled    *bool  `yaml:"enabled,omitempty" json:"enabled,omitempty"`
	Method     string `yaml:"method,omitempty" json:"method,omitempty"`
	Iterations *int   `yaml:"iterations,omitempty" json:"iterations,omitempty"`
	Workers    *int   `yaml:"workers,omitempty" json:"workers,omitempty"`
}

// #endregion document

// #region stackup
// Target is the tolerance window of a stack-up or chain.
type Target struct {
	Name       string  `yaml:"name" json:"name"`
	Nominal    float64 `yaml:"nominal" json:"nominal"`
	LowerLimit float64 `yaml:"lower_limit" json:"lower_limit"`
	UpperLimit float64 `yaml:"upper_limit" json:"upper_limit"`
	Units      string  `yaml:"units,omitempty" json:"units,omitempty"`
	Critical   bool    `yaml:"critical,omitempty" json:"critical,omitempty"`
}

// Contributor is one stack-up or chain link.
type Contributor struct {
	Name         string       `yaml:"name" json:"name"`
	FeatureID    string       `yaml:"feature_id,omitempty" json:"feature_id,omitempty"`
	Nominal      float64      `yaml:"nominal" json:"nominal"`
	PlusTol      float64      `yaml:"plus_tol" json:"plus_tol"`
	MinusTol     float64      `yaml:"minus_tol" json:"minus_tol"`
	Internal     bool         `yaml:"internal,omitempty" json:"internal,omitempty"`
	Direction    string       `yaml:"direction,omitempty" json:"direction,omitempty"`
	Distribution string       `yaml:"distribution,omitempty" json:"distribution,omitempty"`
	GdtPosition  *GdtPosition `yaml:"gdt_position,omitempty" json:"gdt_position,omitempty"`
	TorsorBounds *Bounds      `yaml:"torsor_bounds,omitempty" json:"torsor_bounds,omitempty"`
}

// GdtPosition is a position tolerance applied to a stack contributor.
type GdtPosition struct {
	Tolerance     float64  `yaml:"tolerance" json:"tolerance"`
	Condition     string   `yaml:"condition,omitempty" json:"condition,omitempty"`
	MaterialLimit *float64 `yaml:"material_limit,omitempty" json:"material_limit,omitempty"`
	ActualSize    *float64 `yaml:"actual_size,omitempty" json:"actual_size,omitempty"`
}

// #endregion stackup

// #region mate
// Mate pairs two sized features. Order does not matter.
type Mate struct {
	A           Part   `yaml:"a" json:"a"`
	B           Part   `yaml:"b" json:"b"`
	ExpectedFit string `yaml:"expected_fit,omitempty" json:"expected_fit,omitempty"`
}

// Part is one side of a mate.
type Part struct {
	Name         string  `yaml:"name" json:"name"`
	Nominal      float64 `yaml:"nominal" json:"nominal"`
	PlusTol      float64 `yaml:"plus_tol" json:"plus_tol"`
	MinusTol     float64 `yaml:"minus_tol" json:"minus_tol"`
	Internal     bool    `yaml:"internal,omitempty" json:"internal,omitempty"`
	Distribution string  `yaml:"distribution,omitempty" json:"distribution,omitempty"`
}

// #endregion mate

// #region feature
// Feature is a toleranced feature with optional GD&T and geometry.
type Feature struct {
	ID           string       `yaml:"id" json:"id"`
	Name         string       `yaml:"name,omitempty" json:"name,omitempty"`
	Class        string       `yaml:"geometry_class,omitempty" json:"geometry_class,omitempty"`
	DatumLabel   string       `yaml:"datum_label,omitempty" json:"datum_label,omitempty"`
	Geometry     *Geometry    `yaml:"geometry_3d,omitempty" json:"geometry_3d,omitempty"`
	Dimensions   []Dimension  `yaml:"dimensions,omitempty" json:"dimensions,omitempty"`
	Gdt          []GdtControl `yaml:"gdt,omitempty" json:"gdt,omitempty"`
	TorsorBounds *Bounds      `yaml:"torsor_bounds,omitempty" json:"torsor_bounds,omitempty"`
}

// Geometry places a feature in assembly coordinates.
type Geometry struct {
	Origin []float64 `yaml:"origin,omitempty" json:"origin,omitempty"`
	Axis   []float64 `yaml:"axis,omitempty" json:"axis,omitempty"`
	Length *float64  `yaml:"length,omitempty" json:"length,omitempty"`
}

// Dimension is a toleranced size.
type Dimension struct {
	Name         string  `yaml:"name,omitempty" json:"name,omitempty"`
	Nominal      float64 `yaml:"nominal" json:"nominal"`
	PlusTol      float64 `yaml:"plus_tol" json:"plus_tol"`
	MinusTol     float64 `yaml:"minus_tol" json:"minus_tol"`
	Internal     bool    `yaml:"internal,omitempty" json:"internal,omitempty"`
	Distribution string  `yaml:"distribution,omitempty" json:"distribution,omitempty"`
}

// GdtControl is one feature control frame.
type GdtControl struct {
	Symbol    string   `yaml:"symbol" json:"symbol"`
	Value     float64  `yaml:"value" json:"value"`
	Condition string   `yaml:"material_condition,omitempty" json:"material_condition,omitempty"`
	DatumRefs []string `yaml:"datum_refs,omitempty" json:"datum_refs,omitempty"`
}

// Bounds is the document form of torsor bounds. Each present entry is a
// [min, max] pair.
type Bounds struct {
	U     []float64 `yaml:"u,omitempty" json:"u,omitempty"`
	V     []float64 `yaml:"v,omitempty" json:"v,omitempty"`
	W     []float64 `yaml:"w,omitempty" json:"w,omitempty"`
	Alpha []float64 `yaml:"alpha,omitempty" json:"alpha,omitempty"`
	Beta  []float64 `yaml:"beta,omitempty" json:"beta,omitempty"`
	Gamma []float64 `yaml:"gamma,omitempty" json:"gamma,omitempty"`
}

// #endregion feature
