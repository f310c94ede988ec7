// Package runner drives one document, or a batch of them, through the
// analysis engines, the report renderer and the acceptance gate.
package runner

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/danielpatrickdp/tolstack/internal/chain"
	"github.com/danielpatrickdp/tolstack/internal/document"
	"github.com/danielpatrickdp/tolstack/internal/domainerr"
	"github.com/danielpatrickdp/tolstack/internal/gdt"
	"github.com/danielpatrickdp/tolstack/internal/mate"
	"github.com/danielpatrickdp/tolstack/internal/report"
	"github.com/danielpatrickdp/tolstack/internal/runlog"
	"github.com/danielpatrickdp/tolstack/internal/stackup"
	"github.com/danielpatrickdp/tolstack/internal/stats"
	"github.com/danielpatrickdp/tolstack/internal/verdict"
)

// #region analyze
// Analyze runs a single document. The seed is opts.Seed, else the document
// seed, else a fresh one; it is reported so the run can be repeated.
func Analyze(ctx context.Context, doc *document.Document, opts Options) (Outcome, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if err := ctx.Err(); err != nil {
		return Outcome{}, fmt.Errorf("analyze %s: %w", doc.Name, err)
	}

	seed, err := resolveSeed(doc, opts)
	if err != nil {
		return Outcome{}, err
	}
	out := Outcome{Name: doc.Name, Kind: doc.Kind, Seed: seed}
	streams := stats.PCGStreams{Seed: seed}
	gate := verdict.NewGate(opts.Verdict)
	start := time.Now()

	var result map[string]any
	var iterations int
	switch doc.Kind {
	case document.KindStackup:
		result, iterations, err = runStackup(doc, opts, streams, gate, &out)
	case document.KindMate:
		result, err = runMate(doc, opts, gate, &out)
	case document.KindBounds:
		result, err = runBounds(doc, opts, gate, &out)
	case document.KindChain:
		result, iterations, err = runChain(doc, opts, streams, gate, &out)
	default:
		err = domainerr.WithMetadata(domainerr.CodeUnknownKind,
			fmt.Sprintf("unknown document kind %q", doc.Kind), map[string]string{"field": "kind"})
	}
	if err != nil {
		opts.Metrics.observe(string(doc.Kind), "error", 0)
		logger.Warn("analysis failed", "kind", doc.Kind, "name", doc.Name, "error", err)
		return Outcome{}, fmt.Errorf("analyze %s: %w", doc.Name, err)
	}

	out.Report = map[string]any{
		"kind":     string(doc.Kind),
		"name":     doc.Name,
		"seed":     strconv.FormatUint(seed, 10),
		"result":   result,
		"warnings": stringList(out.Warnings),
		"verdict":  report.Decision(out.Decision),
	}
	opts.Metrics.observe(string(doc.Kind), string(out.Decision.Disposition), iterations)
	logger.Info("analysis complete",
		"kind", doc.Kind,
		"name", doc.Name,
		"seed", seed,
		"disposition", out.Decision.Disposition,
		"warnings", len(out.Warnings),
		"duration", time.Since(start),
	)
	return out, nil
}

func resolveSeed(doc *document.Document, opts Options) (uint64, error) {
	switch {
	case opts.Seed != nil:
		return *opts.Seed, nil
	case doc.Seed != nil:
		return uint64(*doc.Seed), nil
	}
	seed, err := stats.NewSeed()
	if err != nil {
		return 0, domainerr.Wrap(domainerr.CodeInternal, "seed", err)
	}
	return seed, nil
}

func (o Options) override(iterations, workers *int) {
	if o.Iterations != nil {
		*iterations = *o.Iterations
	}
	if o.Workers != nil {
		*workers = *o.Workers
	}
}

// #endregion analyze

// #region kinds
func runStackup(doc *document.Document, opts Options, streams stats.Streams, gate *verdict.Gate, out *Outcome) (map[string]any, int, error) {
	s, cfg, err := doc.ToStackup(opts.Stackup)
	if err != nil {
		return nil, 0, err
	}
	opts.override(&cfg.Iterations, &cfg.Workers)

	res, err := stackup.NewAnalyzer(cfg).Analyze(s, streams)
	if err != nil {
		return nil, 0, err
	}
	out.Decision = gate.Stackup(s.Target, res)
	return report.Stackup(s, res), cfg.Iterations, nil
}

func runMate(doc *document.Document, opts Options, gate *verdict.Gate, out *Outcome) (map[string]any, error) {
	a, b, err := doc.ToMate()
	if err != nil {
		return nil, err
	}
	expected, err := doc.ExpectedFit()
	if err != nil {
		return nil, err
	}
	sigma := opts.SigmaLevel
	if doc.Config != nil && doc.Config.SigmaLevel != nil {
		sigma = *doc.Config.SigmaLevel
	}
	fit, err := mate.AnalyzeStatistical(a, b, sigma)
	if err != nil {
		return nil, err
	}
	out.Decision = gate.Mate(fit, expected)
	return report.Mate(fit), nil
}

func runBounds(doc *document.Document, opts Options, gate *verdict.Gate, out *Outcome) (map[string]any, error) {
	features, err := doc.ToFeatures()
	if err != nil {
		return nil, err
	}
	conv := gdt.NewConverter(opts.Gdt)

	items := make([]report.FeatureBounds, len(features))
	for i, f := range features {
		res := conv.Compute(f, doc.ActualSize)
		warnings := res.Warnings
		if f.Bounds != nil {
			if msg := gdt.CheckStale(f.Bounds, res.Bounds, gdt.DefaultStaleEpsilon); msg != "" {
				warnings = append(warnings, msg)
			}
		}
		items[i] = report.FeatureBounds{
			FeatureID: f.ID,
			Class:     f.GeometryClass(),
			Bounds:    res.Bounds,
			HasBonus:  res.HasBonus,
			Warnings:  warnings,
		}
		for _, w := range warnings {
			out.Warnings = append(out.Warnings, f.ID+": "+w)
		}
	}
	out.Decision = gate.Bounds(out.Warnings)
	return report.FeatureBoundsList(items), nil
}

func runChain(doc *document.Document, opts Options, streams stats.Streams, gate *verdict.Gate, out *Outcome) (map[string]any, int, error) {
	in, err := doc.ToChain(opts.Chain, opts.SigmaLevel)
	if err != nil {
		return nil, 0, err
	}
	opts.override(&in.Config.Iterations, &in.Config.Workers)
	if !in.Config.Enabled {
		return nil, 0, domainerr.WithMetadata(domainerr.CodeInvalidInput,
			"3-D analysis is disabled; set analysis_3d.enabled",
			map[string]string{"field": "analysis_3d.enabled"})
	}

	if err := chain.Validate(in.Links, in.SigmaLevel); err != nil {
		return nil, 0, err
	}

	built := chain.NewBuilder(in.Features, gdt.NewConverter(opts.Gdt)).Build(in.Links, in.SigmaLevel)
	res, err := chain.Analyze(built.Contributors, in.Config, streams)
	if err != nil {
		return nil, 0, err
	}
	out.Warnings = append(out.Warnings, built.Warnings...)

	var proj *chain.Projection
	if in.Target != nil {
		p := chain.Project(res.Torsor, in.Direction, *in.Target, in.SigmaLevel)
		proj = &p
	}
	out.Decision = gate.Chain(proj, built.Warnings)

	iterations := 0
	if res.MonteCarlo != nil {
		iterations = res.MonteCarlo.Iterations
	}
	return report.Chain(built, res, proj), iterations, nil
}

// #endregion kinds

// #region batch
// RunBatch analyses documents concurrently, at most limit at a time, and
// returns outcomes in input order. A failed document records its error in
// Outcome.Err and does not stop the others.
func RunBatch(ctx context.Context, docs []*document.Document, opts Options, limit int) []Outcome {
	outcomes := make([]Outcome, len(docs))
	g, gctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, doc := range docs {
		g.Go(func() error {
			out, err := Analyze(gctx, doc, opts)
			if err != nil {
				out = Outcome{Name: doc.Name, Kind: doc.Kind, Err: err}
			}
			outcomes[i] = out
			return nil
		})
	}
	_ = g.Wait()
	return outcomes
}

// Summarize computes aggregate counts from batch outcomes.
func Summarize(outcomes []Outcome) Summary {
	s := Summary{
		Total:         len(outcomes),
		ByKind:        make(map[document.Kind]int),
		ByDisposition: make(map[verdict.Disposition]int),
	}
	for _, o := range outcomes {
		s.ByKind[o.Kind]++
		if o.Err != nil {
			s.Failed++
			continue
		}
		s.ByDisposition[o.Decision.Disposition]++
	}
	return s
}

// #endregion batch

// #region record
// Record stores an outcome and its warnings in the run log.
func Record(store *runlog.Store, doc *document.Document, out Outcome) (runlog.Run, error) {
	docJSON, err := json.Marshal(doc)
	if err != nil {
		return runlog.Run{}, fmt.Errorf("marshal document: %w", err)
	}
	reportJSON, err := json.Marshal(out.Report)
	if err != nil {
		return runlog.Run{}, fmt.Errorf("marshal report: %w", err)
	}
	rec, err := store.SaveRun(runlog.Run{
		Kind:         string(out.Kind),
		Name:         out.Name,
		Seed:         out.Seed,
		Disposition:  string(out.Decision.Disposition),
		DocumentJSON: string(docJSON),
		ReportJSON:   string(reportJSON),
	}, out.Warnings)
	if err != nil {
		return runlog.Run{}, fmt.Errorf("record run: %w", err)
	}
	return rec, nil
}

// #endregion record

func stringList(xs []string) []any {
	out := make([]any, len(xs))
	for i, x := range xs {
		out[i] = x
	}
	return out
}
