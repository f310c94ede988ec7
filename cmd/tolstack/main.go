// Command tolstack runs tolerance analyses on YAML/JSON documents and
// inspects the recorded runs.
package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/danielpatrickdp/tolstack/internal/config"
	"github.com/danielpatrickdp/tolstack/internal/runner"
)

// errRejected makes the process exit 1 after reports have been printed.
var errRejected = errors.New("one or more documents were rejected or failed")

// #region main
func main() {
	cmd, err := newRootCmd()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(2)
	}
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// #endregion main

// #region root
// app carries the environment config and the flags shared by subcommands.
type app struct {
	cfg    config.Config
	logger *slog.Logger

	format     string
	dbPath     string
	seed       uint64
	iterations int
	workers    int
	limit      int
	last       int
}

func newRootCmd() (*cobra.Command, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, logger: cfg.Logger()}

	root := &cobra.Command{
		Use:          "tolstack",
		Short:        "Mechanical tolerance stack-up, fit and 3-D chain analysis",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&a.dbPath, "db", "", "record runs in this SQLite database")

	analyze := &cobra.Command{
		Use:   "analyze <file...>",
		Short: "Analyze one or more documents and print their reports",
		Args:  cobra.MinimumNArgs(1),
		RunE:  a.runAnalyze,
	}
	a.analysisFlags(analyze)
	analyze.Flags().StringVar(&a.format, "format", "yaml", "output format: json or yaml")

	batch := &cobra.Command{
		Use:   "batch <dir>",
		Short: "Analyze every document in a directory and print a summary table",
		Args:  cobra.ExactArgs(1),
		RunE:  a.runBatch,
	}
	a.analysisFlags(batch)
	batch.Flags().IntVar(&a.limit, "limit", cfg.BatchLimit, "documents analysed concurrently")

	runs := &cobra.Command{
		Use:   "runs",
		Short: "Inspect recorded runs",
	}
	list := &cobra.Command{
		Use:   "list",
		Short: "List the most recent runs",
		Args:  cobra.NoArgs,
		RunE:  a.runList,
	}
	list.Flags().IntVar(&a.last, "last", 20, "show N most recent runs")
	show := &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show one run with its report and warnings",
		Args:  cobra.ExactArgs(1),
		RunE:  a.runShow,
	}
	show.Flags().StringVar(&a.format, "format", "yaml", "output format: json or yaml")
	runs.AddCommand(list, show)

	root.AddCommand(analyze, batch, runs)
	return root, nil
}

func (a *app) analysisFlags(cmd *cobra.Command) {
	cmd.Flags().Uint64Var(&a.seed, "seed", 0, "override the document seed")
	cmd.Flags().IntVar(&a.iterations, "iterations", 0, "override Monte Carlo iterations")
	cmd.Flags().IntVar(&a.workers, "workers", 0, "override Monte Carlo workers")
}

// options layers CLI flags over the environment defaults. Only flags the
// user set take effect.
func (a *app) options(cmd *cobra.Command) runner.Options {
	opts := runner.DefaultOptions()
	opts.Stackup = a.cfg.Stackup()
	opts.Chain = a.cfg.Chain()
	opts.Verdict = a.cfg.Verdict()
	opts.SigmaLevel = a.cfg.SigmaLevel
	opts.Logger = a.logger

	if cmd.Flags().Changed("seed") {
		opts.Seed = &a.seed
	}
	if cmd.Flags().Changed("iterations") {
		opts.Iterations = &a.iterations
	}
	if cmd.Flags().Changed("workers") {
		opts.Workers = &a.workers
	}
	return opts
}

// #endregion root
