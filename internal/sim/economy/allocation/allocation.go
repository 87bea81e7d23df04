package allocation

import (
	"sort"

	"imperialism.ai/internal/sim/catalogs"
	"imperialism.ai/internal/sim/economy/reservation"
	"imperialism.ai/internal/sim/economy/workforce"
	"imperialism.ai/internal/sim/goods"
)

type ProductionKey struct {
	Building catalogs.BuildingKind
	Output   goods.Good
}

// Allocations records which reservation backs which intent. It never
// touches pools; the owner keeps it consistent with the ledger.
type Allocations struct {
	Production  map[ProductionKey][]reservation.ID
	Recruitment []reservation.ID
	Training    map[workforce.Skill][]reservation.ID
	// MarketBuys holds buy interest with its requested quantity. A good is
	// in the buy-interest set iff its quantity is non-zero.
	MarketBuys  map[goods.Good]uint32
	MarketSells map[goods.Good][]reservation.ID
}

func New() *Allocations {
	a := &Allocations{}
	a.init()
	return a
}

func (a *Allocations) init() {
	if a.Production == nil {
		a.Production = map[ProductionKey][]reservation.ID{}
	}
	if a.Training == nil {
		a.Training = map[workforce.Skill][]reservation.ID{}
	}
	if a.MarketBuys == nil {
		a.MarketBuys = map[goods.Good]uint32{}
	}
	if a.MarketSells == nil {
		a.MarketSells = map[goods.Good][]reservation.ID{}
	}
}

func (a *Allocations) ProductionCount(b catalogs.BuildingKind, g goods.Good) uint32 {
	return uint32(len(a.Production[ProductionKey{Building: b, Output: g}]))
}

// BuildingProductionTotal sums production counts across every output of b.
func (a *Allocations) BuildingProductionTotal(b catalogs.BuildingKind) uint32 {
	var n uint32
	for k, ids := range a.Production {
		if k.Building == b {
			n += uint32(len(ids))
		}
	}
	return n
}

func (a *Allocations) RecruitmentCount() uint32 { return uint32(len(a.Recruitment)) }

func (a *Allocations) TrainingCount(s workforce.Skill) uint32 { return uint32(len(a.Training[s])) }

func (a *Allocations) HasBuyInterest(g goods.Good) bool { return a.MarketBuys[g] > 0 }

func (a *Allocations) BuyQuantity(g goods.Good) uint32 { return a.MarketBuys[g] }

func (a *Allocations) MarketSellCount(g goods.Good) uint32 { return uint32(len(a.MarketSells[g])) }

func (a *Allocations) PushProduction(k ProductionKey, id reservation.ID) {
	a.init()
	a.Production[k] = append(a.Production[k], id)
}

// PopProduction removes the newest reservation for k.
func (a *Allocations) PopProduction(k ProductionKey) (reservation.ID, bool) {
	ids := a.Production[k]
	if len(ids) == 0 {
		return 0, false
	}
	id := ids[len(ids)-1]
	if len(ids) == 1 {
		delete(a.Production, k)
	} else {
		a.Production[k] = ids[:len(ids)-1]
	}
	return id, true
}

func (a *Allocations) TakeProduction(k ProductionKey) []reservation.ID {
	ids := a.Production[k]
	delete(a.Production, k)
	return ids
}

func (a *Allocations) PushRecruitment(id reservation.ID) { a.Recruitment = append(a.Recruitment, id) }

func (a *Allocations) PopRecruitment() (reservation.ID, bool) {
	n := len(a.Recruitment)
	if n == 0 {
		return 0, false
	}
	id := a.Recruitment[n-1]
	a.Recruitment = a.Recruitment[:n-1]
	return id, true
}

func (a *Allocations) TakeRecruitment() []reservation.ID {
	ids := a.Recruitment
	a.Recruitment = nil
	return ids
}

func (a *Allocations) PushTraining(s workforce.Skill, id reservation.ID) {
	a.init()
	a.Training[s] = append(a.Training[s], id)
}

func (a *Allocations) PopTraining(s workforce.Skill) (reservation.ID, bool) {
	ids := a.Training[s]
	if len(ids) == 0 {
		return 0, false
	}
	id := ids[len(ids)-1]
	if len(ids) == 1 {
		delete(a.Training, s)
	} else {
		a.Training[s] = ids[:len(ids)-1]
	}
	return id, true
}

func (a *Allocations) TakeTraining(s workforce.Skill) []reservation.ID {
	ids := a.Training[s]
	delete(a.Training, s)
	return ids
}

func (a *Allocations) SetBuyQuantity(g goods.Good, qty uint32) {
	a.init()
	if qty == 0 {
		delete(a.MarketBuys, g)
		return
	}
	a.MarketBuys[g] = qty
}

func (a *Allocations) PushSell(g goods.Good, id reservation.ID) {
	a.init()
	a.MarketSells[g] = append(a.MarketSells[g], id)
}

func (a *Allocations) PopSell(g goods.Good) (reservation.ID, bool) {
	ids := a.MarketSells[g]
	if len(ids) == 0 {
		return 0, false
	}
	id := ids[len(ids)-1]
	if len(ids) == 1 {
		delete(a.MarketSells, g)
	} else {
		a.MarketSells[g] = ids[:len(ids)-1]
	}
	return id, true
}

func (a *Allocations) TakeSells(g goods.Good) []reservation.ID {
	ids := a.MarketSells[g]
	delete(a.MarketSells, g)
	return ids
}

// RemoveSell removes one specific sell reservation for g.
func (a *Allocations) RemoveSell(g goods.Good, id reservation.ID) bool {
	ids := a.MarketSells[g]
	for i, v := range ids {
		if v != id {
			continue
		}
		rest := append(ids[:i:i], ids[i+1:]...)
		if len(rest) == 0 {
			delete(a.MarketSells, g)
		} else {
			a.MarketSells[g] = rest
		}
		return true
	}
	return false
}

// AllReservationIDs lists every tracked ID in ascending order.
func (a *Allocations) AllReservationIDs() []reservation.ID {
	var out []reservation.ID
	for _, ids := range a.Production {
		out = append(out, ids...)
	}
	out = append(out, a.Recruitment...)
	for _, ids := range a.Training {
		out = append(out, ids...)
	}
	for _, ids := range a.MarketSells {
		out = append(out, ids...)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Clear drops every bucket and all buy interest.
func (a *Allocations) Clear() {
	a.Production = map[ProductionKey][]reservation.ID{}
	a.Recruitment = nil
	a.Training = map[workforce.Skill][]reservation.ID{}
	a.MarketBuys = map[goods.Good]uint32{}
	a.MarketSells = map[goods.Good][]reservation.ID{}
}

type ProductionSummary struct {
	Building catalogs.BuildingKind `json:"building"`
	Output   goods.Good            `json:"output"`
	Count    uint32                `json:"count"`
}

type Summary struct {
	Production  []ProductionSummary        `json:"production,omitempty"`
	Recruitment uint32                     `json:"recruitment"`
	Training    map[workforce.Skill]uint32 `json:"training,omitempty"`
	MarketBuys  map[goods.Good]uint32      `json:"market_buys,omitempty"`
	MarketSells map[goods.Good]uint32      `json:"market_sells,omitempty"`
}

// Summary is the count view published to clients.
func (a *Allocations) Summary() Summary {
	s := Summary{
		Recruitment: a.RecruitmentCount(),
		Training:    map[workforce.Skill]uint32{},
		MarketBuys:  map[goods.Good]uint32{},
		MarketSells: map[goods.Good]uint32{},
	}
	for k, ids := range a.Production {
		if len(ids) == 0 {
			continue
		}
		s.Production = append(s.Production, ProductionSummary{Building: k.Building, Output: k.Output, Count: uint32(len(ids))})
	}
	sort.Slice(s.Production, func(i, j int) bool {
		if s.Production[i].Building != s.Production[j].Building {
			return s.Production[i].Building < s.Production[j].Building
		}
		return goods.Less(s.Production[i].Output, s.Production[j].Output)
	})
	for sk, ids := range a.Training {
		if len(ids) > 0 {
			s.Training[sk] = uint32(len(ids))
		}
	}
	for g, q := range a.MarketBuys {
		if q > 0 {
			s.MarketBuys[g] = q
		}
	}
	for g, ids := range a.MarketSells {
		if len(ids) > 0 {
			s.MarketSells[g] = uint32(len(ids))
		}
	}
	return s
}
