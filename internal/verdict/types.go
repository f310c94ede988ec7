package verdict

// #region disposition
// Disposition is the outcome of the acceptance gate.
type Disposition string

const (
	Approved    Disposition = "approved"
	Rejected    Disposition = "rejected"
	UnderReview Disposition = "under_review"
)

// #endregion disposition

// #region veto-type
// VetoType enumerates hard veto categories.
type VetoType string

const (
	VetoWorstCase  VetoType = "worst_case_fail"
	VetoCapability VetoType = "capability"
	VetoYield      VetoType = "yield"
	VetoFit        VetoType = "fit_mismatch"
	VetoProjection VetoType = "projection_fail"
)

// Veto is a detected hard veto condition.
type Veto struct {
	Type   VetoType
	Reason string
}

// #endregion veto-type

// #region config
// Config holds the acceptance thresholds.
type Config struct {
	MinCpk   float64 // RSS and projection capability floor
	MinYield float64 // Monte Carlo yield floor, percent
}

// DefaultConfig returns Cpk 1.33 and the ±3σ yield of 99.73%.
func DefaultConfig() Config {
	return Config{
		MinCpk:   1.33,
		MinYield: 99.73,
	}
}

// #endregion config

// #region decision
// Check is a single threshold comparison recorded with the decision.
type Check struct {
	Name  string
	Value float64
	Pass  bool
}

// Decision is the output of the gate.
type Decision struct {
	Disposition Disposition
	Reason      string
	Vetoes      []Veto  // non-empty when rejected
	Checks      []Check // every comparison made, passing or not
}

// Vetoed reports whether any hard veto fired.
func (d Decision) Vetoed() bool { return len(d.Vetoes) > 0 }

// #endregion decision
