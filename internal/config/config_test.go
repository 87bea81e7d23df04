package config

import (
	"path/filepath"
	"strings"
	"testing"
)

func base() Server {
	return Server{
		Addr:               ":8080",
		EngineID:           "game_1",
		ConfigDir:          "./configs",
		DataDir:            "./data",
		LoadLatestSnapshot: true,
		TurnSeconds:        -1,
	}
}

func TestApplyEnv_KeepsFlagsWhenUnset(t *testing.T) {
	cfg := base()
	if err := cfg.ApplyEnv(); err != nil {
		t.Fatalf("apply env: %v", err)
	}
	if cfg.Addr != ":8080" || !cfg.LoadLatestSnapshot || cfg.TurnSeconds != -1 {
		t.Fatalf("expected flag values to survive, got %+v", cfg)
	}
}

func TestApplyEnv_Overrides(t *testing.T) {
	t.Setenv("IMP_ADDR", "127.0.0.1:9000")
	t.Setenv("IMP_DATA_DIR", "/var/lib/imp")
	t.Setenv("IMP_DISABLE_DB", "true")
	t.Setenv("IMP_LOAD_LATEST_SNAPSHOT", "false")
	t.Setenv("IMP_TURN_SECONDS", "0")

	cfg := base()
	if err := cfg.ApplyEnv(); err != nil {
		t.Fatalf("apply env: %v", err)
	}
	if cfg.Addr != "127.0.0.1:9000" || cfg.DataDir != "/var/lib/imp" {
		t.Fatalf("unexpected addr/data %+v", cfg)
	}
	if !cfg.DisableDB || cfg.LoadLatestSnapshot || cfg.TurnSeconds != 0 {
		t.Fatalf("unexpected bools/turn seconds %+v", cfg)
	}
	if got := cfg.SnapshotDir(); got != filepath.Join("/var/lib/imp", "games", "game_1", "snapshots") {
		t.Fatalf("unexpected snapshot dir %s", got)
	}
}

func TestApplyEnv_Errors(t *testing.T) {
	t.Setenv("IMP_TURN_SECONDS", "soon")
	cfg := base()
	err := cfg.ApplyEnv()
	if err == nil || !strings.Contains(err.Error(), "parse env:") {
		t.Fatalf("expected parse env error, got %v", err)
	}

	t.Setenv("IMP_TURN_SECONDS", "5")
	t.Setenv("IMP_ADDR", " ")
	cfg = base()
	if err := cfg.ApplyEnv(); err == nil {
		t.Fatalf("expected empty address to be rejected")
	}
}

func TestTuningPath(t *testing.T) {
	cfg := base()
	if got := cfg.Tuning(); got != filepath.Join("./configs", "tuning.yaml") {
		t.Fatalf("expected default tuning path, got %s", got)
	}
	cfg.TuningPath = "/etc/imp/tuning.yaml"
	if got := cfg.Tuning(); got != "/etc/imp/tuning.yaml" {
		t.Fatalf("expected explicit tuning path, got %s", got)
	}
}
