package market

import (
	"sort"

	"imperialism.ai/internal/sim/economy/reservation"
	"imperialism.ai/internal/sim/goods"
)

// NationOrders is one nation's market position at the start of clearing.
type NationOrders struct {
	Nation string
	Cash   uint32
	Buys   map[goods.Good]uint32
	Sells  map[goods.Good][]reservation.ID
}

type PlannedTrade struct {
	Good        goods.Good     `json:"good"`
	Price       uint32         `json:"price"`
	Seller      string         `json:"seller"`
	Buyer       string         `json:"buyer"`
	Reservation reservation.ID `json:"reservation"`
}

type Result struct {
	Trades  []PlannedTrade
	Volumes map[goods.Good]Volume
	Prices  map[goods.Good]uint32
	// Pending is the money each seller is owed once trades commit.
	Pending map[string]uint32
}

type sellerSlot struct {
	nation string
	ids    []reservation.ID
}

type buyerSlot struct {
	nation string
	qty    uint32
}

// Match plans the turn's trades without touching any nation. Goods are
// cleared in the order given. Within a good, buyers in nation ID order
// pull one unit at a time from a rotating seller queue; a buyer stops when
// filled, when its cash drops below the price, or when only its own sell
// orders remain. Proceeds count toward the seller's cash for later goods.
func Match(goodsOrder []goods.Good, orders []NationOrders, model PriceModel) Result {
	res := Result{
		Volumes: map[goods.Good]Volume{},
		Prices:  map[goods.Good]uint32{},
		Pending: map[string]uint32{},
	}
	cash := make(map[string]uint32, len(orders))
	for _, o := range orders {
		cash[o.Nation] = o.Cash
	}

	for _, g := range goodsOrder {
		var sellers []*sellerSlot
		var buyers []buyerSlot
		var vol Volume
		for _, o := range orders {
			if ids := o.Sells[g]; len(ids) > 0 {
				cp := append([]reservation.ID(nil), ids...)
				sellers = append(sellers, &sellerSlot{nation: o.Nation, ids: cp})
				vol.Supply += uint32(len(ids))
			}
			if q := o.Buys[g]; q > 0 {
				buyers = append(buyers, buyerSlot{nation: o.Nation, qty: q})
				vol.Demand += q
			}
		}
		if len(sellers) == 0 || len(buyers) == 0 {
			// One-sided: nothing clears, but the volume still moves the price.
			if vol.Supply > 0 || vol.Demand > 0 {
				res.Volumes[g] = vol
			}
			continue
		}
		price := model.Price(g, vol)
		if price == 0 {
			continue
		}
		res.Volumes[g] = vol
		res.Prices[g] = price

		sort.SliceStable(sellers, func(i, j int) bool { return sellers[i].nation < sellers[j].nation })
		sort.SliceStable(buyers, func(i, j int) bool { return buyers[i].nation < buyers[j].nation })

		queue := sellers
		for _, b := range buyers {
			want := b.qty
			for want > 0 && cash[b.nation] >= price {
				idx := -1
				for i, s := range queue {
					if s.nation != b.nation {
						idx = i
						break
					}
				}
				if idx < 0 {
					break
				}
				s := queue[idx]
				queue = append(queue[:idx:idx], queue[idx+1:]...)

				id := s.ids[len(s.ids)-1]
				s.ids = s.ids[:len(s.ids)-1]
				if len(s.ids) > 0 {
					queue = append(queue, s)
				}

				cash[b.nation] -= price
				cash[s.nation] += price
				res.Pending[s.nation] += price
				want--
				res.Trades = append(res.Trades, PlannedTrade{
					Good:        g,
					Price:       price,
					Seller:      s.nation,
					Buyer:       b.nation,
					Reservation: id,
				})
			}
		}
	}
	return res
}
