package transport

import "imperialism.ai/internal/sim/goods"

// Commodity is a transport bucket. Several goods can share one bucket.
type Commodity string

const (
	Grain      Commodity = "GRAIN"
	Fruit      Commodity = "FRUIT"
	Fiber      Commodity = "FIBER"
	Meat       Commodity = "MEAT"
	Timber     Commodity = "TIMBER"
	Coal       Commodity = "COAL"
	Iron       Commodity = "IRON"
	Precious   Commodity = "PRECIOUS"
	Oil        Commodity = "OIL"
	Fabric     Commodity = "FABRIC"
	Lumber     Commodity = "LUMBER"
	Paper      Commodity = "PAPER"
	Steel      Commodity = "STEEL"
	Fuel       Commodity = "FUEL"
	Clothing   Commodity = "CLOTHING"
	Furniture  Commodity = "FURNITURE"
	Hardware   Commodity = "HARDWARE"
	Armaments  Commodity = "ARMAMENTS"
	CannedFood Commodity = "CANNED_FOOD"
	Horses     Commodity = "HORSES"
)

// ordered is the grant priority under scarcity. Changing it changes which
// commodities get capacity first.
var ordered = [...]Commodity{
	Grain, Fruit, Fiber, Meat, Timber, Coal, Iron, Precious, Oil,
	Fabric, Lumber, Paper, Steel, Fuel,
	Clothing, Furniture, Hardware, Armaments, CannedFood, Horses,
}

var commodityIndex = func() map[Commodity]int {
	m := make(map[Commodity]int, len(ordered))
	for i, c := range ordered {
		m[c] = i
	}
	return m
}()

// Ordered returns the canonical commodity order.
func Ordered() []Commodity {
	out := make([]Commodity, len(ordered))
	copy(out, ordered[:])
	return out
}

func (c Commodity) Valid() bool {
	_, ok := commodityIndex[c]
	return ok
}

func (c Commodity) Ordinal() int {
	if i, ok := commodityIndex[c]; ok {
		return i
	}
	return len(ordered)
}

var byGood = map[goods.Good]Commodity{
	goods.Grain:      Grain,
	goods.Fruit:      Fruit,
	goods.Cotton:     Fiber,
	goods.Wool:       Fiber,
	goods.Livestock:  Meat,
	goods.Fish:       Meat,
	goods.Timber:     Timber,
	goods.Coal:       Coal,
	goods.Iron:       Iron,
	goods.Gold:       Precious,
	goods.Gems:       Precious,
	goods.Oil:        Oil,
	goods.Fabric:     Fabric,
	goods.Lumber:     Lumber,
	goods.Paper:      Paper,
	goods.Steel:      Steel,
	goods.Fuel:       Fuel,
	goods.Clothing:   Clothing,
	goods.Furniture:  Furniture,
	goods.Hardware:   Hardware,
	goods.Armaments:  Armaments,
	goods.CannedFood: CannedFood,
	goods.Horses:     Horses,
}

// CommodityForGood maps a good to its bucket. Transport itself has none.
func CommodityForGood(g goods.Good) (Commodity, bool) {
	c, ok := byGood[g]
	return c, ok
}

// Goods lists the goods carried in bucket c, in goods order.
func (c Commodity) Goods() []goods.Good {
	var out []goods.Good
	for _, g := range goods.All() {
		if byGood[g] == c {
			out = append(out, g)
		}
	}
	return out
}

func ParseCommodity(s string) (Commodity, bool) {
	c := Commodity(s)
	return c, c.Valid()
}
