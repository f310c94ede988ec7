package runner

import (
	"log/slog"

	"github.com/danielpatrickdp/tolstack/internal/chain"
	"github.com/danielpatrickdp/tolstack/internal/document"
	"github.com/danielpatrickdp/tolstack/internal/gdt"
	"github.com/danielpatrickdp/tolstack/internal/stackup"
	"github.com/danielpatrickdp/tolstack/internal/stats"
	"github.com/danielpatrickdp/tolstack/internal/verdict"
)

// #region options
// Options bundles the defaults and overrides for a run. Document config
// sections override the defaults; Seed, Iterations and Workers override
// the document.
type Options struct {
	Stackup    stackup.Config
	Chain      chain.Config
	Gdt        gdt.Config
	Verdict    verdict.Config
	SigmaLevel float64 // chain and mate default

	Seed       *uint64
	Iterations *int
	Workers    *int

	Logger  *slog.Logger // nil uses slog.Default
	Metrics *Metrics     // nil disables metrics
}

// DefaultOptions returns the package defaults for every stage.
func DefaultOptions() Options {
	return Options{
		Stackup:    stackup.DefaultConfig(),
		Chain:      chain.DefaultConfig(),
		Gdt:        gdt.DefaultConfig(),
		Verdict:    verdict.DefaultConfig(),
		SigmaLevel: stats.DefaultSigmaLevel,
	}
}

// #endregion options

// #region outcome
// Outcome captures one analysed document.
type Outcome struct {
	Name     string
	Kind     document.Kind
	Seed     uint64
	Report   map[string]any
	Decision verdict.Decision
	Warnings []string
	Err      error // set by RunBatch only
}

// Summary provides aggregate counts from a batch.
type Summary struct {
	Total         int
	Failed        int
	ByKind        map[document.Kind]int
	ByDisposition map[verdict.Disposition]int
}

// #endregion outcome
