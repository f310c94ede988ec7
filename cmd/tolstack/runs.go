package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/danielpatrickdp/tolstack/internal/rpc"
	"github.com/danielpatrickdp/tolstack/internal/runlog"
)

// #region list-mode
func (a *app) runList(cmd *cobra.Command, _ []string) error {
	store, err := a.requireStore()
	if err != nil {
		return err
	}
	defer store.Close()

	runs, err := store.ListRuns(a.last)
	if err != nil {
		return err
	}
	w := cmd.OutOrStdout()
	if len(runs) == 0 {
		fmt.Fprintln(cmd.ErrOrStderr(), "no runs found")
		return nil
	}
	printRunTable(w, runs)
	return nil
}

func printRunTable(w io.Writer, runs []runlog.Run) {
	fmt.Fprintf(w, "%-10s  %-8s  %-24s  %-13s  %-10s  %s\n",
		"Run", "Kind", "Name", "Disposition", "Parent", "Time")
	fmt.Fprintf(w, "%-10s+-%-8s+-%-24s+-%-13s+-%-10s+-%s\n",
		"----------", "--------", "------------------------", "-------------", "----------", "--------------------")
	for _, r := range runs {
		parent := "-"
		if r.ParentID != "" {
			parent = shortID(r.ParentID)
		}
		fmt.Fprintf(w, "%-10s  %-8s  %-24s  %-13s  %-10s  %s\n",
			shortID(r.RunID), r.Kind, r.Name, r.Disposition, parent,
			r.CreatedAt.Format("2006-01-02T15:04:05Z"))
	}
}

// #endregion list-mode

// #region detail-mode
func (a *app) runShow(cmd *cobra.Command, args []string) error {
	store, err := a.requireStore()
	if err != nil {
		return err
	}
	defer store.Close()

	rec, err := store.GetRun(args[0])
	if err != nil {
		return err
	}
	warnings, err := store.Warnings(rec.RunID)
	if err != nil {
		return err
	}
	m, err := rpc.RunMap(rec, warnings)
	if err != nil {
		return err
	}
	return writeOutput(cmd.OutOrStdout(), a.format, m)
}

// #endregion detail-mode

func (a *app) requireStore() (*runlog.Store, error) {
	if a.dbPath == "" {
		a.dbPath = a.cfg.DBPath
	}
	store, err := a.openStore()
	if err != nil {
		return nil, err
	}
	if store == nil {
		return nil, errors.New("no run log configured")
	}
	return store, nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
