package runlog

import "time"

// #region run
// Run is one recorded analysis. DocumentJSON and ReportJSON hold the input
// document and the rendered report.
type Run struct {
	RunID        string
	ParentID     string // previous run with the same name and kind
	Kind         string
	Name         string
	Seed         uint64
	Disposition  string
	DocumentJSON string
	ReportJSON   string
	CreatedAt    time.Time
}

// #endregion run

// #region warning
// Warning is a single row in the run_warnings table.
type Warning struct {
	ID        int64
	RunID     string
	Message   string
	CreatedAt time.Time
}

// #endregion warning
