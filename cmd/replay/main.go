package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	persistlog "imperialism.ai/internal/persistence/log"
	"imperialism.ai/internal/persistence/snapshot"
	"imperialism.ai/internal/sim/catalogs"
	"imperialism.ai/internal/sim/engine"
	"imperialism.ai/internal/sim/tuning"
)

type replayOptions struct {
	SnapshotPath string
	// DataDir holds turns/turns-*.jsonl.zst.
	DataDir    string
	ConfigDir  string
	TuningPath string
	ToTurn     uint64
}

func main() {
	var opts replayOptions
	flag.StringVar(&opts.SnapshotPath, "snapshot", "", "path to .snap.zst")
	flag.StringVar(&opts.DataDir, "data", "", "game data dir containing turns/ (optional)")
	flag.StringVar(&opts.ConfigDir, "configs", "./configs", "config directory")
	flag.StringVar(&opts.TuningPath, "tuning", "", "tuning yaml (default: <configs>/tuning.yaml)")
	flag.Uint64Var(&opts.ToTurn, "to_turn", 0, "stop at turn (inclusive, optional)")
	flag.Parse()

	if opts.SnapshotPath == "" {
		fmt.Fprintln(os.Stderr, "missing -snapshot")
		os.Exit(2)
	}

	snap, err := snapshot.ReadSnapshot(opts.SnapshotPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "read snapshot:", err)
		os.Exit(1)
	}
	fmt.Printf("snapshot v%d engine=%s turn=%d phase=%s nations=%d structures=%d rails=%d\n",
		snap.Header.Version, snap.Header.EngineID, snap.Header.Turn, snap.Phase,
		len(snap.Nations), len(snap.Structures), len(snap.Rails))

	if opts.DataDir == "" {
		return
	}
	checked, err := replay(opts, snap)
	if err != nil {
		fmt.Fprintln(os.Stderr, "replay:", err)
		os.Exit(1)
	}
	fmt.Printf("replay ok: checked=%d turns (from snapshot turn=%d)\n", checked, snap.Header.Turn)
}

// replay restores snap and re-applies every logged turn after it, comparing
// each turn's state digest with the logged one.
func replay(opts replayOptions, snap snapshot.SnapshotV1) (int, error) {
	if engine.Phase(snap.Phase) == engine.PlayerTurn {
		return 0, fmt.Errorf("snapshot turn %d was taken during %s; orders for that turn cannot be replayed", snap.Header.Turn, snap.Phase)
	}
	cats, err := catalogs.Load(opts.ConfigDir)
	if err != nil {
		return 0, fmt.Errorf("load catalogs: %w", err)
	}
	tuningPath := opts.TuningPath
	if tuningPath == "" {
		tuningPath = filepath.Join(opts.ConfigDir, "tuning.yaml")
	}
	tune, err := tuning.Load(tuningPath)
	if err != nil {
		return 0, fmt.Errorf("load tuning: %w", err)
	}

	cfg := engine.ConfigFromTuning(snap.Header.EngineID, tune)
	cfg.TurnDuration = 0
	cfg.SnapshotEveryTurns = 0
	e := engine.New(cfg, cats, tune, nil)
	if err := e.ImportSnapshot(snap); err != nil {
		return 0, fmt.Errorf("import snapshot: %w", err)
	}

	entries, err := persistlog.ReadTurns(opts.DataDir)
	if err != nil {
		return 0, fmt.Errorf("read turns: %w", err)
	}

	checked := 0
	for _, entry := range entries {
		if entry.Turn <= snap.Header.Turn {
			continue
		}
		if opts.ToTurn != 0 && entry.Turn > opts.ToTurn {
			break
		}
		if want := e.CurrentTurn() + 1; entry.Turn != want {
			return checked, fmt.Errorf("turn gap: want=%d got=%d", want, entry.Turn)
		}

		e.EndTurn()
		for _, no := range entry.Orders {
			e.Apply(no.Nation, no.Order)
		}
		for e.Phase() != engine.Processing {
			e.Advance()
		}
		got, ok := e.LastTurn()
		if !ok || got.Turn != entry.Turn {
			return checked, fmt.Errorf("turn %d was not processed", entry.Turn)
		}
		if got.Digest != entry.Digest {
			return checked, fmt.Errorf("digest mismatch at turn %d: got=%s want=%s", entry.Turn, got.Digest, entry.Digest)
		}
		checked++
	}
	return checked, nil
}
