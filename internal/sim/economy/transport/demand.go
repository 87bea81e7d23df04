package transport

import "imperialism.ai/internal/sim/goods"

var workerFood = [3]Commodity{Grain, Fruit, Meat}

// BuildDemand assembles one nation's supply/demand hints. Each worker
// eats one unit, cycling Grain, Fruit, Meat by worker index; inputs are
// the goods reserved for this turn's production. Goods without a
// transport bucket are ignored.
func BuildDemand(workers int, inputs map[goods.Good]uint32, supply map[goods.Good]uint32) map[Commodity]DemandEntry {
	out := map[Commodity]DemandEntry{}
	for g, n := range supply {
		c, ok := CommodityForGood(g)
		if !ok || n == 0 {
			continue
		}
		e := out[c]
		e.Supply += n
		out[c] = e
	}
	for i := 0; i < workers; i++ {
		c := workerFood[i%len(workerFood)]
		e := out[c]
		e.Demand++
		out[c] = e
	}
	for g, n := range inputs {
		c, ok := CommodityForGood(g)
		if !ok || n == 0 {
			continue
		}
		e := out[c]
		e.Demand += n
		out[c] = e
	}
	return out
}
