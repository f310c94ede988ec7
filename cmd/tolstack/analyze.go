package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/danielpatrickdp/tolstack/internal/document"
	"github.com/danielpatrickdp/tolstack/internal/runlog"
	"github.com/danielpatrickdp/tolstack/internal/runner"
	"github.com/danielpatrickdp/tolstack/internal/verdict"
)

// #region analyze
func (a *app) runAnalyze(cmd *cobra.Command, args []string) error {
	store, err := a.openStore()
	if err != nil {
		return err
	}
	if store != nil {
		defer store.Close()
	}

	opts := a.options(cmd)
	failed := false
	for _, path := range args {
		doc, err := document.Load(path)
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "%v\n", err)
			failed = true
			continue
		}
		out, err := runner.Analyze(cmd.Context(), doc, opts)
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", path, err)
			failed = true
			continue
		}
		rep := out.Report
		if store != nil {
			rec, err := runner.Record(store, doc, out)
			if err != nil {
				return err
			}
			rep["run_id"] = rec.RunID
		}
		if err := writeOutput(cmd.OutOrStdout(), a.format, rep); err != nil {
			return err
		}
		if out.Decision.Disposition == verdict.Rejected {
			failed = true
		}
	}
	if failed {
		return errRejected
	}
	return nil
}

// #endregion analyze

// #region batch
func (a *app) runBatch(cmd *cobra.Command, args []string) error {
	paths, err := documentFiles(args[0])
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		fmt.Fprintf(cmd.ErrOrStderr(), "no documents found in %s\n", args[0])
		return nil
	}

	store, err := a.openStore()
	if err != nil {
		return err
	}
	if store != nil {
		defer store.Close()
	}

	var docs []*document.Document
	var loaded []string
	loadFailed := 0
	for _, p := range paths {
		doc, err := document.Load(p)
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "%v\n", err)
			loadFailed++
			continue
		}
		docs = append(docs, doc)
		loaded = append(loaded, p)
	}

	outcomes := runner.RunBatch(cmd.Context(), docs, a.options(cmd), a.limit)
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "%-28s| %-8s| %-13s| %s\n", "Document", "Kind", "Disposition", "Reason")
	fmt.Fprintf(w, "%-28s+%-9s+%-14s+%s\n",
		"----------------------------", "---------", "--------------", "------------------------")
	for i, o := range outcomes {
		disp, reason := string(o.Decision.Disposition), o.Decision.Reason
		if o.Err != nil {
			disp, reason = "error", o.Err.Error()
		} else if store != nil {
			if _, err := runner.Record(store, docs[i], o); err != nil {
				return err
			}
		}
		fmt.Fprintf(w, "%-28s| %-8s| %-13s| %s\n", filepath.Base(loaded[i]), o.Kind, disp, reason)
	}

	s := runner.Summarize(outcomes)
	fmt.Fprintf(w, "\nSummary: %d total, %d approved, %d under review, %d rejected, %d failed\n",
		s.Total+loadFailed,
		s.ByDisposition[verdict.Approved],
		s.ByDisposition[verdict.UnderReview],
		s.ByDisposition[verdict.Rejected],
		s.Failed+loadFailed,
	)
	if s.Failed+loadFailed > 0 || s.ByDisposition[verdict.Rejected] > 0 {
		return errRejected
	}
	return nil
}

// documentFiles lists the YAML and JSON files in dir, sorted by name.
func documentFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read dir %s: %w", dir, err)
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".yaml", ".yml", ".json":
			out = append(out, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(out)
	return out, nil
}

// #endregion batch

func (a *app) openStore() (*runlog.Store, error) {
	if a.dbPath == "" {
		return nil, nil
	}
	store, err := runlog.NewStore(a.dbPath)
	if err != nil {
		return nil, fmt.Errorf("open run log: %w", err)
	}
	return store, nil
}
