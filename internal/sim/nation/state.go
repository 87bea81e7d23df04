package nation

import (
	"imperialism.ai/internal/sim/catalogs"
	"imperialism.ai/internal/sim/economy/production"
	"imperialism.ai/internal/sim/economy/transport"
	"imperialism.ai/internal/sim/economy/workforce"
	"imperialism.ai/internal/sim/goods"
)

// State is the persisted form of a nation. Reservations, reserved
// amounts and reservation buckets are not part of it; a restored nation
// starts with an empty ledger.
type State struct {
	ID              string         `json:"id"`
	Name            string         `json:"name"`
	Provinces       uint32         `json:"provinces"`
	RecruitUpgraded bool           `json:"recruit_upgraded,omitempty"`
	Capital         transport.Tile `json:"capital"`

	Stock       map[goods.Good]uint32 `json:"stock"`
	Treasury    uint32                `json:"treasury"`
	Workers     []workforce.Worker    `json:"workers"`
	Buildings   []BuildingState       `json:"buildings"`
	BuyInterest map[goods.Good]uint32 `json:"buy_interest,omitempty"`
}

type BuildingState struct {
	Kind    catalogs.BuildingKind             `json:"kind"`
	Outputs map[goods.Good]production.Setting `json:"outputs,omitempty"`
}

func (n *Nation) Export() State {
	s := State{
		ID:              n.ID,
		Name:            n.Name,
		Provinces:       n.Provinces,
		RecruitUpgraded: n.RecruitUpgraded,
		Capital:         n.Capital,
		Stock:           map[goods.Good]uint32{},
		Treasury:        n.Treasury.Total,
		Workers:         append([]workforce.Worker(nil), n.Workforce.Workers...),
		BuyInterest:     map[goods.Good]uint32{},
	}
	for g, t := range n.Stockpile.Totals() {
		if t > 0 {
			s.Stock[g] = t
		}
	}
	for _, k := range n.BuildingKinds() {
		bs := BuildingState{Kind: k, Outputs: map[goods.Good]production.Setting{}}
		for g, st := range n.Buildings[k].Outputs {
			if st != nil && (st.TargetOutput > 0 || st.Choice != "") {
				bs.Outputs[g] = *st
			}
		}
		s.Buildings = append(s.Buildings, bs)
	}
	for g, q := range n.Allocations.MarketBuys {
		if q > 0 {
			s.BuyInterest[g] = q
		}
	}
	return s
}

// Restore rebuilds a nation from its persisted state.
func Restore(s State, catalog *catalogs.BuildingCatalog, rules Rules) (*Nation, error) {
	n := New(s.ID, s.Name, catalog, rules)
	n.Provinces = s.Provinces
	n.RecruitUpgraded = s.RecruitUpgraded
	n.Capital = s.Capital
	for g, t := range s.Stock {
		n.Stockpile.SetTotal(g, t)
	}
	n.Treasury.Total = s.Treasury
	n.Workforce.Workers = append([]workforce.Worker(nil), s.Workers...)
	n.Workforce.RefreshLabor(n.Labor)
	for _, bs := range s.Buildings {
		if err := n.AddBuilding(bs.Kind); err != nil {
			return nil, err
		}
		b := n.Buildings[bs.Kind]
		for g, st := range bs.Outputs {
			cp := st
			b.Outputs[g] = &cp
		}
	}
	for g, q := range s.BuyInterest {
		n.Allocations.SetBuyQuantity(g, q)
	}
	return n, nil
}
