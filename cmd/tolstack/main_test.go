package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const testdata = "../../internal/document/testdata"

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("TOLSTACK_LOG_LEVEL", "error")
	cmd, err := newRootCmd()
	if err != nil {
		t.Fatalf("newRootCmd: %v", err)
	}
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err = cmd.Execute()
	return out.String(), err
}

func TestAnalyzeJSON(t *testing.T) {
	out, err := run(t, "analyze", "--format", "json", filepath.Join(testdata, "bore_pin.yaml"))
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	var rep map[string]any
	if err := json.Unmarshal([]byte(out), &rep); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if rep["kind"] != "mate" {
		t.Errorf("kind = %v", rep["kind"])
	}
}

func TestAnalyzeYAMLWithSeedOverride(t *testing.T) {
	out, err := run(t, "analyze", "--seed", "5", "--iterations", "500", filepath.Join(testdata, "pin_in_hole.yaml"))
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if !strings.Contains(out, `seed: "5"`) {
		t.Errorf("seed override missing:\n%s", out)
	}
	if !strings.Contains(out, "iterations: 500") {
		t.Errorf("iterations override missing:\n%s", out)
	}
}

func TestAnalyzeMissingFile(t *testing.T) {
	_, err := run(t, "analyze", filepath.Join(t.TempDir(), "nope.yaml"))
	if !errors.Is(err, errRejected) {
		t.Fatalf("expected errRejected, got %v", err)
	}
}

func TestBatchAndRuns(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"pin_in_hole.yaml", "bore_pin.yaml", "bracket_bounds.yaml"} {
		data, err := os.ReadFile(filepath.Join(testdata, name))
		if err != nil {
			t.Fatalf("read %s: %v", name, err)
		}
		if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	db := filepath.Join(t.TempDir(), "runs.db")

	out, err := run(t, "batch", "--db", db, "--limit", "2", dir)
	if err != nil {
		t.Fatalf("batch: %v\n%s", err, out)
	}
	if !strings.Contains(out, "Summary: 3 total, 2 approved, 1 under review, 0 rejected, 0 failed") {
		t.Errorf("summary missing:\n%s", out)
	}

	out, err = run(t, "runs", "list", "--db", db)
	if err != nil {
		t.Fatalf("runs list: %v", err)
	}
	if strings.Count(out, "\n") != 5 {
		t.Errorf("expected header, rule and 3 rows:\n%s", out)
	}
}

func TestRunsShowUnknown(t *testing.T) {
	db := filepath.Join(t.TempDir(), "runs.db")
	if _, err := run(t, "runs", "show", "--db", db, "missing"); err == nil {
		t.Fatal("expected not found error")
	}
}
