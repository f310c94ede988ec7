package config

import (
	"context"
	"log/slog"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Addr != ":50061" || cfg.DBPath != "tolstack.db" {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.SigmaLevel != 6 || cfg.Iterations != 10000 || cfg.BatchLimit != 4 {
		t.Errorf("analysis defaults = %+v", cfg)
	}
	if v := cfg.Verdict(); v.MinCpk != 1.33 || v.MinYield != 99.73 {
		t.Errorf("verdict = %+v", v)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("TOLSTACK_ITERATIONS", "500")
	t.Setenv("TOLSTACK_WORKERS", "3")
	t.Setenv("TOLSTACK_SIGMA_LEVEL", "8")
	t.Setenv("TOLSTACK_LOG_LEVEL", "debug")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	s := cfg.Stackup()
	if s.Iterations != 500 || s.Workers != 3 || s.SigmaLevel != 8 {
		t.Errorf("stackup config = %+v", s)
	}
	if ch := cfg.Chain(); ch.Iterations != 500 || ch.Enabled {
		t.Errorf("chain config = %+v", ch)
	}
	if !cfg.Logger().Enabled(context.Background(), slog.LevelDebug) {
		t.Error("debug level should be enabled")
	}
}

func TestLoadRejectsBadNumber(t *testing.T) {
	t.Setenv("TOLSTACK_ITERATIONS", "many")
	if _, err := Load(); err == nil {
		t.Fatal("expected parse error")
	}
}
