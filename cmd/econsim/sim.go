package main

import (
	"fmt"
	"path/filepath"

	persistlog "imperialism.ai/internal/persistence/log"
	"imperialism.ai/internal/persistence/snapshot"
	"imperialism.ai/internal/protocol"
	"imperialism.ai/internal/scenario"
	"imperialism.ai/internal/sim/catalogs"
	"imperialism.ai/internal/sim/engine"
	"imperialism.ai/internal/sim/tuning"
)

type simOptions struct {
	ConfigDir string
	Scenario  string
	// Turns overrides the scenario's turn count when > 0.
	Turns int
	// DataDir, when set, receives turn/audit logs and a final snapshot.
	DataDir string
}

type rejection struct {
	Turn   uint64
	Nation string
	Result protocol.OrderResult
}

type simResult struct {
	Name       string
	Turns      []engine.TurnLogEntry
	Rejections []rejection
	Final      *engine.Status
	Snapshot   string
}

// simulate plays a scenario start to finish without a network: each turn
// it submits the scripted orders during the player turn and advances
// through processing.
func simulate(opts simOptions) (simResult, error) {
	var res simResult
	sc, err := scenario.Load(opts.Scenario)
	if err != nil {
		return res, err
	}
	res.Name = sc.Name
	cats, err := catalogs.Load(opts.ConfigDir)
	if err != nil {
		return res, fmt.Errorf("load catalogs: %w", err)
	}
	tune, err := tuning.Load(filepath.Join(opts.ConfigDir, "tuning.yaml"))
	if err != nil {
		return res, fmt.Errorf("load tuning: %w", err)
	}
	cfg := engine.ConfigFromTuning(sc.Name, tune)
	cfg.TurnDuration = 0
	cfg.SnapshotEveryTurns = 0
	e := engine.New(cfg, cats, tune, nil)
	if err := sc.Apply(e); err != nil {
		return res, err
	}

	if opts.DataDir != "" {
		turnLog := persistlog.NewTurnLogger(opts.DataDir)
		auditLog := persistlog.NewAuditLogger(opts.DataDir)
		defer turnLog.Close()
		defer auditLog.Close()
		e.SetTurnLogger(turnLog)
		e.SetAuditLogger(auditLog)
	}

	turns := sc.Turns
	if opts.Turns > 0 {
		turns = opts.Turns
	}
	for i := 0; i < turns; i++ {
		e.EndTurn()
		turn := e.CurrentTurn()
		for _, no := range sc.OrdersFor(turn) {
			ack := e.Apply(no.Nation, no.Order)
			for _, r := range ack.Results {
				if !r.Accepted {
					res.Rejections = append(res.Rejections, rejection{Turn: turn, Nation: no.Nation, Result: r})
				}
			}
		}
		for e.Phase() != engine.Processing {
			e.Advance()
		}
		if last, ok := e.LastTurn(); ok {
			res.Turns = append(res.Turns, last)
		}
	}
	res.Final = e.Status()

	if opts.DataDir != "" {
		snap := e.ExportSnapshot()
		path := snapshot.PathFor(filepath.Join(opts.DataDir, "snapshots"), snap.Header.Turn)
		if err := snapshot.WriteSnapshot(path, snap); err != nil {
			return res, fmt.Errorf("write snapshot: %w", err)
		}
		res.Snapshot = path
	}
	return res, nil
}
