package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	persistlog "imperialism.ai/internal/persistence/log"
	"imperialism.ai/internal/persistence/snapshot"
	"imperialism.ai/internal/scenario"
	"imperialism.ai/internal/sim/catalogs"
	"imperialism.ai/internal/sim/engine"
	"imperialism.ai/internal/sim/tuning"
)

func findRepoRoot(t *testing.T) string {
	t.Helper()
	dir, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			t.Fatalf("could not find repo root from %s", dir)
		}
		dir = parent
	}
}

// playScenario runs two_nations for turns turns with a turn log under
// dataDir and returns the snapshot taken after snapAt.
func playScenario(t *testing.T, configDir, dataDir string, turns int, snapAt uint64) snapshot.SnapshotV1 {
	t.Helper()
	sc, err := scenario.Load(filepath.Join(configDir, "scenarios", "two_nations.yaml"))
	if err != nil {
		t.Fatalf("load scenario: %v", err)
	}
	cats, err := catalogs.Load(configDir)
	if err != nil {
		t.Fatalf("load catalogs: %v", err)
	}
	tune, err := tuning.Load(filepath.Join(configDir, "tuning.yaml"))
	if err != nil {
		t.Fatalf("load tuning: %v", err)
	}
	cfg := engine.ConfigFromTuning(sc.Name, tune)
	cfg.TurnDuration = 0
	cfg.SnapshotEveryTurns = 0
	e := engine.New(cfg, cats, tune, nil)
	if err := sc.Apply(e); err != nil {
		t.Fatalf("apply scenario: %v", err)
	}
	turnLog := persistlog.NewTurnLogger(dataDir)
	defer turnLog.Close()
	e.SetTurnLogger(turnLog)

	var snap snapshot.SnapshotV1
	for i := 0; i < turns; i++ {
		e.EndTurn()
		for _, no := range sc.OrdersFor(e.CurrentTurn()) {
			e.Apply(no.Nation, no.Order)
		}
		for e.Phase() != engine.Processing {
			e.Advance()
		}
		if e.CurrentTurn() == snapAt {
			snap = e.ExportSnapshot()
		}
	}
	return snap
}

func TestReplayMatchesLoggedDigests(t *testing.T) {
	configDir := filepath.Join(findRepoRoot(t), "configs")
	dataDir := t.TempDir()
	snap := playScenario(t, configDir, dataDir, 4, 2)

	logged, err := persistlog.ReadTurns(dataDir)
	if err != nil {
		t.Fatalf("read turns: %v", err)
	}
	if len(logged) != 4 || len(logged[0].Orders) == 0 {
		t.Fatalf("expected 4 logged turns with orders, got %d", len(logged))
	}

	checked, err := replay(replayOptions{DataDir: dataDir, ConfigDir: configDir}, snap)
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if checked != 2 {
		t.Fatalf("expected 2 turns checked, got %d", checked)
	}

	checked, err = replay(replayOptions{DataDir: dataDir, ConfigDir: configDir, ToTurn: 3}, snap)
	if err != nil || checked != 1 {
		t.Fatalf("expected 1 turn checked with -to_turn 3, got %d err %v", checked, err)
	}
}

func TestReplayRejectsPlayerTurnSnapshot(t *testing.T) {
	snap := snapshot.SnapshotV1{
		Header: snapshot.Header{Version: snapshot.Version, Turn: 3},
		Phase:  string(engine.PlayerTurn),
	}
	_, err := replay(replayOptions{DataDir: t.TempDir(), ConfigDir: "unused"}, snap)
	if err == nil || !strings.Contains(err.Error(), "cannot be replayed") {
		t.Fatalf("expected player-turn snapshot error, got %v", err)
	}
}

func TestReplayDetectsDigestMismatch(t *testing.T) {
	configDir := filepath.Join(findRepoRoot(t), "configs")
	dataDir := t.TempDir()
	playScenario(t, configDir, dataDir, 3, 0)

	// State is one processed turn ahead of what the header claims.
	snap := playScenario(t, configDir, t.TempDir(), 1, 1)
	snap.Header.Turn = 0
	_, err := replay(replayOptions{DataDir: dataDir, ConfigDir: configDir}, snap)
	if err == nil || !strings.Contains(err.Error(), "digest mismatch at turn 1") {
		t.Fatalf("expected digest mismatch at turn 1, got %v", err)
	}
}
