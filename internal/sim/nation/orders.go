package nation

import (
	"fmt"

	"imperialism.ai/internal/sim/catalogs"
	"imperialism.ai/internal/sim/economy/allocation"
	"imperialism.ai/internal/sim/economy/production"
	"imperialism.ai/internal/sim/economy/reservation"
	"imperialism.ai/internal/sim/economy/workforce"
	"imperialism.ai/internal/sim/goods"
)

type MarketOrderKind string

const (
	Buy  MarketOrderKind = "BUY"
	Sell MarketOrderKind = "SELL"
)

// AdjustProduction moves the number of units reserved for one output of a
// building toward target. Each unit holds one labor; variant inputs are
// held once per batch, on the first unit of each batch. The combined
// count of all outputs of the building never exceeds its capacity.
//
// An empty choice keeps the persisted one; if there is none, the variant
// best covered by available stock is picked. Switching choice releases the old reservations first.
//
// It returns the count reached and the first error that stopped it.
func (n *Nation) AdjustProduction(kind catalogs.BuildingKind, output goods.Good, choice string, target uint32) (uint32, error) {
	b, def, err := n.building(kind)
	if err != nil {
		return 0, err
	}
	if !def.Produces(output) {
		return 0, fmt.Errorf("%w: %s %s", ErrUnknownOutput, kind, output)
	}
	key := allocation.ProductionKey{Building: kind, Output: output}
	setting := b.Setting(output)

	if choice == "" {
		choice = setting.Choice
	}
	if choice == "" {
		if vs := def.VariantsFor(output); len(vs) > 0 {
			if v, ok := production.SelectVariant(vs, n.Stockpile); ok {
				choice = v.Tag
			}
		}
	}
	if choice != setting.Choice {
		for _, id := range n.Allocations.TakeProduction(key) {
			n.release(id)
		}
		setting.Choice = choice
	}

	v, err := production.ResolveVariant(def, output, choice)
	if err != nil {
		cur := n.Allocations.ProductionCount(kind, output)
		setting.TargetOutput = cur
		return cur, fmt.Errorf("%s %s choice %q: %w", kind, output, choice, err)
	}

	var capErr error
	if def.Capacity > 0 {
		others := n.Allocations.BuildingProductionTotal(kind) - n.Allocations.ProductionCount(kind, output)
		allowed := uint32(0)
		if def.Capacity > others {
			allowed = def.Capacity - others
		}
		if target > allowed {
			capErr = fmt.Errorf("%w: %s can run %d more units", ErrCapacity, kind, allowed)
			target = allowed
		}
	}

	perBatch := v.Primary().Amount
	if perBatch == 0 {
		perBatch = 1
	}
	cur := n.Allocations.ProductionCount(kind, output)
	for cur > target {
		id, ok := n.Allocations.PopProduction(key)
		if !ok {
			break
		}
		n.release(id)
		cur--
	}
	var reserveErr error
	for cur < target {
		var items []reservation.GoodQty
		if cur%perBatch == 0 {
			for _, in := range v.Inputs {
				if in.Amount > 0 {
					items = append(items, reservation.GoodQty{Good: in.Good, Qty: in.Amount})
				}
			}
		}
		id, err := n.Reservations.TryReserve(items, 1, 0, n.Stockpile, n.Labor, n.Treasury)
		if err != nil {
			reserveErr = err
			break
		}
		n.Allocations.PushProduction(key, id)
		cur++
	}
	setting.TargetOutput = cur
	if reserveErr != nil {
		return cur, reserveErr
	}
	return cur, capErr
}

// AdjustRecruitment reserves recruitment costs for requested new workers,
// clamped to the nation's per-turn recruitment cap.
func (n *Nation) AdjustRecruitment(requested uint32) (uint32, error) {
	var capErr error
	if c := n.RecruitCap(); requested > c {
		capErr = fmt.Errorf("%w: recruitment cap %d", ErrCapacity, c)
		requested = c
	}
	cur := n.Allocations.RecruitmentCount()
	for cur > requested {
		id, ok := n.Allocations.PopRecruitment()
		if !ok {
			break
		}
		n.release(id)
		cur--
	}
	for cur < requested {
		id, err := n.Reservations.TryReserve(n.rules.RecruitCost, 0, 0, n.Stockpile, n.Labor, n.Treasury)
		if err != nil {
			return cur, err
		}
		n.Allocations.PushRecruitment(id)
		cur++
	}
	return cur, capErr
}

// AdjustTraining reserves paper and money to promote requested workers
// out of from. Experts cannot be trained.
func (n *Nation) AdjustTraining(from workforce.Skill, requested uint32) (uint32, error) {
	if _, err := workforce.ParseSkill(string(from)); err != nil {
		return 0, fmt.Errorf("%w: %s", ErrBadSkill, from)
	}
	limit := n.Workforce.CountBySkill(from)
	if from == workforce.Expert {
		limit = 0
	}
	var capErr error
	if requested > limit {
		capErr = fmt.Errorf("%w: %d %s workers", ErrCapacity, limit, from)
		requested = limit
	}
	cur := n.Allocations.TrainingCount(from)
	for cur > requested {
		id, ok := n.Allocations.PopTraining(from)
		if !ok {
			break
		}
		n.release(id)
		cur--
	}
	var items []reservation.GoodQty
	if n.rules.TrainingPaper > 0 {
		items = []reservation.GoodQty{{Good: goods.Paper, Qty: n.rules.TrainingPaper}}
	}
	for cur < requested {
		id, err := n.Reservations.TryReserve(items, 0, n.rules.TrainingMoney, n.Stockpile, n.Labor, n.Treasury)
		if err != nil {
			return cur, err
		}
		n.Allocations.PushTraining(from, id)
		cur++
	}
	return cur, capErr
}

// AdjustMarketOrder sets the nation's buy or sell position for a market
// good. Buying and selling the same good are mutually exclusive: a buy
// releases every sell reservation for the good, a sell drops buy
// interest. Each sell reservation holds one unit.
func (n *Nation) AdjustMarketOrder(g goods.Good, kind MarketOrderKind, requested uint32) (uint32, error) {
	if !g.IsMarketGood() {
		return 0, fmt.Errorf("%w: %s", ErrNotMarketGood, g)
	}
	switch kind {
	case Buy:
		for _, id := range n.Allocations.TakeSells(g) {
			n.release(id)
		}
		n.Allocations.SetBuyQuantity(g, requested)
		return requested, nil
	case Sell:
		n.Allocations.SetBuyQuantity(g, 0)
		cur := n.Allocations.MarketSellCount(g)
		for cur > requested {
			id, ok := n.Allocations.PopSell(g)
			if !ok {
				break
			}
			n.release(id)
			cur--
		}
		unit := []reservation.GoodQty{{Good: g, Qty: 1}}
		for cur < requested {
			id, err := n.Reservations.TryReserve(unit, 0, 0, n.Stockpile, n.Labor, n.Treasury)
			if err != nil {
				return cur, err
			}
			n.Allocations.PushSell(g, id)
			cur++
		}
		return cur, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrBadOrderKind, kind)
	}
}

func (n *Nation) release(id reservation.ID) bool {
	return n.Reservations.Release(id, n.Stockpile, n.Labor, n.Treasury)
}
