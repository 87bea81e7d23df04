package nation

import (
	"imperialism.ai/internal/sim/economy/allocation"
	"imperialism.ai/internal/sim/economy/production"
	"imperialism.ai/internal/sim/economy/workforce"
	"imperialism.ai/internal/sim/goods"
)

// ResetAllocations releases every tracked reservation in ID order, clears
// all buckets and sweeps whatever is left in the ledger.
func (n *Nation) ResetAllocations() {
	for _, id := range n.Allocations.AllReservationIDs() {
		n.release(id)
	}
	n.Allocations.Clear()
	n.Reservations.ConsumeAll()
}

// StartTurnReport summarizes the PlayerTurn preparation of one nation.
type StartTurnReport struct {
	Feed    workforce.FeedReport `json:"feed"`
	Labor   uint32               `json:"labor"`
	Renewed []RenewResult        `json:"renewed,omitempty"`
}

type RenewResult struct {
	Key      allocation.ProductionKey `json:"key"`
	Target   uint32                   `json:"target"`
	Achieved uint32                   `json:"achieved"`
	Err      string                   `json:"error,omitempty"`
}

// StartTurn prepares the nation for a new PlayerTurn: allocations reset,
// workers eat, labor refreshes, and last turn's production orders are
// reserved again as far as stock and labor allow.
func (n *Nation) StartTurn() StartTurnReport {
	n.ResetAllocations()
	var r StartTurnReport
	r.Feed = n.Workforce.Feed(n.Stockpile)
	n.Workforce.RefreshLabor(n.Labor)
	r.Labor = n.Labor.Total
	r.Renewed = n.RenewProduction()
	return r
}

// RenewProduction re-reserves every persisted production target. Outputs
// are visited in catalog order so the outcome is deterministic when
// stock runs short.
func (n *Nation) RenewProduction() []RenewResult {
	var out []RenewResult
	for _, kind := range n.BuildingKinds() {
		b, def, err := n.building(kind)
		if err != nil {
			continue
		}
		for _, g := range def.Outputs() {
			target := b.Target(g)
			if target == 0 {
				continue
			}
			got, err := n.AdjustProduction(kind, g, "", target)
			rr := RenewResult{Key: allocation.ProductionKey{Building: kind, Output: g}, Target: target, Achieved: got}
			if err != nil {
				rr.Err = err.Error()
			}
			out = append(out, rr)
		}
	}
	return out
}

type FinalizeReport struct {
	Recruited uint32                     `json:"recruited"`
	Trained   map[workforce.Skill]uint32 `json:"trained,omitempty"`
}

// FinalizeRecruitmentAndTraining commits recruitment and training
// reservations and applies them to the workforce.
func (n *Nation) FinalizeRecruitmentAndTraining() FinalizeReport {
	r := FinalizeReport{Trained: map[workforce.Skill]uint32{}}
	for _, id := range n.Allocations.TakeRecruitment() {
		if n.Reservations.Consume(id, n.Stockpile, n.Labor, n.Treasury) {
			n.Workforce.AddUntrained(1)
			r.Recruited++
		}
	}
	for _, sk := range workforce.Skills {
		for _, id := range n.Allocations.TakeTraining(sk) {
			if !n.Reservations.Consume(id, n.Stockpile, n.Labor, n.Treasury) {
				continue
			}
			if n.Workforce.Train(sk) {
				r.Trained[sk]++
			}
		}
	}
	return r
}

// RunProduction executes every building for the turn. Each output's
// target is the number of units reserved for it. Afterwards every
// production hold is settled: labor goes back to the pool and reserved
// inputs that were not consumed are unreserved.
func (n *Nation) RunProduction() []production.Report {
	var reports []production.Report
	consumed := map[allocation.ProductionKey]map[goods.Good]uint32{}
	laborLeft := n.Workforce.AvailableLabor()

	for _, kind := range n.BuildingKinds() {
		b, def, err := n.building(kind)
		if err != nil {
			continue
		}
		capLeft := b.Limit()
		for _, g := range def.Outputs() {
			count := n.Allocations.ProductionCount(kind, g)
			s := b.Setting(g)
			s.TargetOutput = count
			if count == 0 {
				continue
			}
			r := production.Execute(def, g, s, laborLeft, capLeft, n.Stockpile)
			reports = append(reports, r)
			consumed[allocation.ProductionKey{Building: kind, Output: g}] = r.Consumed
			laborLeft -= minU32(r.Desired, laborLeft)
			capLeft -= minU32(r.Produced, capLeft)
		}
	}

	for _, key := range sortedKeys(n.Allocations.Production) {
		held := map[goods.Good]uint32{}
		var labor uint32
		for _, id := range n.Allocations.TakeProduction(key) {
			h, ok := n.Reservations.Forget(id)
			if !ok {
				continue
			}
			for _, it := range h.Goods {
				held[it.Good] += it.Qty
			}
			labor += h.Labor
		}
		n.Labor.Release(labor)
		used := consumed[key]
		for g, q := range held {
			if c := used[g]; c < q {
				n.Stockpile.Unreserve(g, q-c)
			}
		}
	}
	return reports
}

func minU32(a, b uint32) uint32 {
	if a < b {
		return a
	}
	return b
}
