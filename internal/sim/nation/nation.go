package nation

import (
	"errors"
	"sort"

	"imperialism.ai/internal/sim/catalogs"
	"imperialism.ai/internal/sim/economy/allocation"
	"imperialism.ai/internal/sim/economy/market"
	"imperialism.ai/internal/sim/economy/pool"
	"imperialism.ai/internal/sim/economy/production"
	"imperialism.ai/internal/sim/economy/reservation"
	"imperialism.ai/internal/sim/economy/transport"
	"imperialism.ai/internal/sim/economy/workforce"
	"imperialism.ai/internal/sim/goods"
	"imperialism.ai/internal/sim/tuning"
)

var (
	ErrUnknownBuilding = errors.New("unknown building")
	ErrUnknownOutput   = errors.New("building does not produce that good")
	ErrCapacity        = errors.New("capacity exceeded")
	ErrNotMarketGood   = errors.New("good is not traded on the market")
	ErrBadSkill        = errors.New("bad skill")
	ErrBadOrderKind    = errors.New("bad market order kind")
)

// Rules are the per-nation economic parameters taken from tuning.
type Rules struct {
	RecruitCost                 []reservation.GoodQty
	ProvincesPerRecruit         uint32
	UpgradedProvincesPerRecruit uint32
	TrainingPaper               uint32
	TrainingMoney               uint32
}

func RulesFromTuning(t tuning.Tuning) Rules {
	r := Rules{
		ProvincesPerRecruit:         t.Recruitment.ProvincesPerRecruit,
		UpgradedProvincesPerRecruit: t.Recruitment.UpgradedProvincesPerRecruit,
		TrainingPaper:               t.Training.Paper,
		TrainingMoney:               t.Training.Money,
	}
	for _, c := range t.RecruitmentCost() {
		r.RecruitCost = append(r.RecruitCost, reservation.GoodQty{Good: c.Good, Qty: c.Amount})
	}
	return r
}

// Nation owns one player's economy. Every operation on a nation's pools
// goes through this context.
type Nation struct {
	ID              string
	Name            string
	Provinces       uint32
	RecruitUpgraded bool
	Capital         transport.Tile

	Stockpile    *pool.Stockpile
	Treasury     *pool.Treasury
	Labor        *pool.LaborPool
	Workforce    *workforce.Workforce
	Reservations *reservation.System
	Allocations  *allocation.Allocations
	Buildings    map[catalogs.BuildingKind]*production.Building

	catalog *catalogs.BuildingCatalog
	rules   Rules
}

func New(id, name string, catalog *catalogs.BuildingCatalog, rules Rules) *Nation {
	return &Nation{
		ID:           id,
		Name:         name,
		Stockpile:    pool.NewStockpile(),
		Treasury:     pool.NewTreasury(0),
		Labor:        &pool.LaborPool{},
		Workforce:    &workforce.Workforce{},
		Reservations: reservation.NewSystem(),
		Allocations:  allocation.New(),
		Buildings:    map[catalogs.BuildingKind]*production.Building{},
		catalog:      catalog,
		rules:        rules,
	}
}

// AddBuilding gives the nation a building of kind. Adding an existing
// kind is a no-op.
func (n *Nation) AddBuilding(kind catalogs.BuildingKind) error {
	def, ok := n.catalog.Get(kind)
	if !ok {
		return ErrUnknownBuilding
	}
	if _, ok := n.Buildings[kind]; !ok {
		n.Buildings[kind] = production.NewBuilding(def)
	}
	return nil
}

// BuildingKinds lists owned buildings in catalog order.
func (n *Nation) BuildingKinds() []catalogs.BuildingKind {
	out := make([]catalogs.BuildingKind, 0, len(n.Buildings))
	for _, k := range n.catalog.Order {
		if _, ok := n.Buildings[k]; ok {
			out = append(out, k)
		}
	}
	return out
}

func (n *Nation) building(kind catalogs.BuildingKind) (*production.Building, catalogs.BuildingDef, error) {
	b, ok := n.Buildings[kind]
	if !ok {
		return nil, catalogs.BuildingDef{}, ErrUnknownBuilding
	}
	def, ok := n.catalog.Get(kind)
	if !ok {
		return nil, catalogs.BuildingDef{}, ErrUnknownBuilding
	}
	return b, def, nil
}

func (n *Nation) RecruitCap() uint32 {
	return workforce.RecruitCap(n.Provinces, n.RecruitUpgraded, n.rules.ProvincesPerRecruit, n.rules.UpgradedProvincesPerRecruit)
}

// Ledger exposes the pools the market commit step mutates.
func (n *Nation) Ledger() market.Ledger {
	return market.Ledger{
		Stockpile:    n.Stockpile,
		Labor:        n.Labor,
		Treasury:     n.Treasury,
		Reservations: n.Reservations,
		Allocations:  n.Allocations,
	}
}

// MarketOrders snapshots the nation's market position for matching.
func (n *Nation) MarketOrders() market.NationOrders {
	o := market.NationOrders{
		Nation: n.ID,
		Cash:   n.Treasury.Available(),
		Buys:   map[goods.Good]uint32{},
		Sells:  map[goods.Good][]reservation.ID{},
	}
	for g, q := range n.Allocations.MarketBuys {
		if q > 0 {
			o.Buys[g] = q
		}
	}
	for g, ids := range n.Allocations.MarketSells {
		if len(ids) > 0 {
			o.Sells[g] = append([]reservation.ID(nil), ids...)
		}
	}
	return o
}

// ProductionInputs is the input demand of this turn's production
// allocations: chosen variant inputs times allocated units.
func (n *Nation) ProductionInputs() map[goods.Good]uint32 {
	out := map[goods.Good]uint32{}
	for k, ids := range n.Allocations.Production {
		if len(ids) == 0 {
			continue
		}
		b, def, err := n.building(k.Building)
		if err != nil {
			continue
		}
		v, err := production.ResolveVariant(def, k.Output, b.Setting(k.Output).Choice)
		if err != nil {
			continue
		}
		for _, in := range v.Inputs {
			out[in.Good] += in.Amount * uint32(len(ids))
		}
	}
	return out
}

type BuildingSummary struct {
	Kind     catalogs.BuildingKind             `json:"kind"`
	Capacity uint32                            `json:"capacity"`
	Outputs  map[goods.Good]production.Setting `json:"outputs,omitempty"`
}

type Summary struct {
	ID                string                     `json:"id"`
	Name              string                     `json:"name"`
	Provinces         uint32                     `json:"provinces"`
	Treasury          uint32                     `json:"treasury"`
	TreasuryAvailable uint32                     `json:"treasury_available"`
	Labor             pool.ResourcePool          `json:"labor"`
	Workers           map[workforce.Skill]uint32 `json:"workers"`
	RecruitCap        uint32                     `json:"recruit_cap"`
	Stockpile         []pool.Entry               `json:"stockpile"`
	Allocations       allocation.Summary         `json:"allocations"`
	Buildings         []BuildingSummary          `json:"buildings,omitempty"`
}

// Summary is the outbound view of the nation.
func (n *Nation) Summary() Summary {
	s := Summary{
		ID:                n.ID,
		Name:              n.Name,
		Provinces:         n.Provinces,
		Treasury:          n.Treasury.Total,
		TreasuryAvailable: n.Treasury.Available(),
		Labor:             *n.Labor,
		Workers:           map[workforce.Skill]uint32{},
		RecruitCap:        n.RecruitCap(),
		Stockpile:         n.Stockpile.SortedEntries(),
		Allocations:       n.Allocations.Summary(),
	}
	for _, sk := range workforce.Skills {
		if c := n.Workforce.CountBySkill(sk); c > 0 {
			s.Workers[sk] = c
		}
	}
	for _, k := range n.BuildingKinds() {
		b := n.Buildings[k]
		bs := BuildingSummary{Kind: k, Capacity: b.Capacity, Outputs: map[goods.Good]production.Setting{}}
		for g, st := range b.Outputs {
			if st != nil {
				bs.Outputs[g] = *st
			}
		}
		s.Buildings = append(s.Buildings, bs)
	}
	return s
}

func sortedKeys(m map[allocation.ProductionKey][]reservation.ID) []allocation.ProductionKey {
	keys := make([]allocation.ProductionKey, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Building != keys[j].Building {
			return keys[i].Building < keys[j].Building
		}
		return goods.Less(keys[i].Output, keys[j].Output)
	})
	return keys
}
