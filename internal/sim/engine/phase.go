package engine

import (
	"golang.org/x/sync/errgroup"

	"imperialism.ai/internal/sim/economy/market"
	"imperialism.ai/internal/sim/economy/production"
	"imperialism.ai/internal/sim/economy/transport"
	"imperialism.ai/internal/sim/goods"
	"imperialism.ai/internal/sim/nation"
)

type Phase string

const (
	PlayerTurn Phase = "PLAYER_TURN"
	Processing Phase = "PROCESSING"
	EnemyTurn  Phase = "ENEMY_TURN"
)

func (p Phase) Next() Phase {
	switch p {
	case PlayerTurn:
		return Processing
	case Processing:
		return EnemyTurn
	default:
		return PlayerTurn
	}
}

func (p Phase) Valid() bool {
	return p == PlayerTurn || p == Processing || p == EnemyTurn
}

// Advance moves to the next phase and runs its entry work. It returns the
// phase entered.
func (e *Engine) Advance() Phase {
	next := e.phase.Next()
	switch next {
	case PlayerTurn:
		e.enterPlayerTurn()
	case Processing:
		e.phase = Processing
		e.process()
	case EnemyTurn:
		e.phase = EnemyTurn
	}
	e.broadcastPhase()
	e.publishStatus()
	return e.phase
}

// EndTurn advances until the next player turn begins.
func (e *Engine) EndTurn() {
	for {
		if e.Advance() == PlayerTurn {
			return
		}
	}
}

func (e *Engine) enterPlayerTurn() {
	e.turn.Add(1)
	e.phase = PlayerTurn
	e.orders = nil
	e.startReports = map[string]nation.StartTurnReport{}
	for _, id := range e.NationIDs() {
		e.startReports[id] = e.nations[id].StartTurn()
	}
	e.refreshTransport()
}

// refreshTransport recomputes rail connectivity and capacity, rebuilds the
// demand snapshot, re-clamps stored requests and regrants.
func (e *Engine) refreshTransport() {
	capitals := make(map[string]transport.Tile, len(e.nations))
	for id, n := range e.nations {
		capitals[id] = n.Capital
	}
	e.structures = transport.ComputeConnectivity(e.rails, capitals, e.structures)
	e.transport.RecomputeCapacity(e.structures)

	snap := make(map[string]map[transport.Commodity]transport.DemandEntry, len(e.nations))
	for _, id := range e.NationIDs() {
		n := e.nations[id]
		snap[id] = transport.BuildDemand(n.Workforce.Len(), n.ProductionInputs(), e.supply[id])
	}
	e.transport.SetDemandSnapshot(snap)
	for _, id := range e.transport.Nations() {
		for c, r := range e.transport.Requests(id) {
			e.transport.SetRequest(id, c, r)
		}
	}
	e.transport.Apply()
}

type nationResult struct {
	finalize   nation.FinalizeReport
	production []production.Report
	transport  uint32
}

func (e *Engine) process() {
	turn := e.turn.Load()
	ids := e.NationIDs()

	// Nations share nothing during this step.
	results := make([]nationResult, len(ids))
	var g errgroup.Group
	g.SetLimit(e.cfg.ProcessingWorkers)
	for i, id := range ids {
		i, n := i, e.nations[id]
		g.Go(func() error {
			results[i] = processNation(n)
			return nil
		})
	}
	_ = g.Wait()

	entry := TurnLogEntry{Turn: turn, Orders: e.orders}
	for i, id := range ids {
		r := results[i]
		e.transport.AddBonus(id, r.transport)
		nr := NationTurnReport{
			Nation:         id,
			Start:          e.startReports[id],
			Recruited:      r.finalize.Recruited,
			Trained:        r.finalize.Trained,
			Production:     r.production,
			TransportBuilt: r.transport,
		}
		for _, pr := range r.production {
			if pr.Shortfall != nil {
				nr.Shortfalls = append(nr.Shortfalls, *pr.Shortfall)
				e.logger.Printf("turn %d %s: %s", turn, id, pr.Shortfall.String())
			}
		}
		entry.Nations = append(entry.Nations, nr)
	}

	mr := e.clearMarket()
	entry.Trades = mr.Committed
	entry.FailedTrades = mr.Failed
	entry.Volumes = mr.volumes
	entry.Prices = e.prices.Table()
	for _, f := range mr.Failed {
		e.audit(AuditEntry{Turn: turn, Nation: f.Trade.Buyer, Action: "TRADE", Reason: f.Reason})
	}

	entry.Digest = e.StateDigest()
	e.lastTurn = &entry
	if e.turnLogger != nil {
		if err := e.turnLogger.WriteTurn(entry); err != nil {
			e.logger.Printf("turn log: %v", err)
		}
	}

	if e.snapshotSink != nil && e.cfg.SnapshotEveryTurns > 0 && turn%uint64(e.cfg.SnapshotEveryTurns) == 0 {
		snap := e.ExportSnapshot()
		select {
		case e.snapshotSink <- snap:
		default:
			// Drop snapshot if sink is backed up.
		}
	}
}

func processNation(n *nation.Nation) nationResult {
	var r nationResult
	r.finalize = n.FinalizeRecruitmentAndTraining()
	r.production = n.RunProduction()
	r.transport = n.Stockpile.TakeUpTo(goods.Transport, n.Stockpile.Available(goods.Transport))
	return r
}

type marketReport struct {
	market.CommitReport
	volumes map[goods.Good]market.Volume
}

// clearMarket matches every market good across all nations, commits the
// plan and moves persistent prices.
func (e *Engine) clearMarket() marketReport {
	ids := e.NationIDs()
	orders := make([]market.NationOrders, 0, len(ids))
	for _, id := range ids {
		orders = append(orders, e.nations[id].MarketOrders())
	}
	res := market.Match(goods.MarketGoods(), orders, e.prices)
	rep := market.Commit(res.Trades, market.LookupFunc(e.ledger), e.logger)
	for _, g := range goods.MarketGoods() {
		if v, ok := res.Volumes[g]; ok {
			e.prices.UpdateFromVolume(g, v)
		}
	}
	return marketReport{CommitReport: rep, volumes: res.Volumes}
}

func (e *Engine) ledger(id string) (market.Ledger, bool) {
	n, ok := e.nations[id]
	if !ok {
		return market.Ledger{}, false
	}
	return n.Ledger(), true
}
