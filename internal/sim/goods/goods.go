package goods

// Good identifies a tradable or producible commodity kind.
// The string value is the wire/config ID.
type Good string

const (
	Grain     Good = "GRAIN"
	Fruit     Good = "FRUIT"
	Livestock Good = "LIVESTOCK"
	Fish      Good = "FISH"
	Cotton    Good = "COTTON"
	Wool      Good = "WOOL"
	Timber    Good = "TIMBER"
	Coal      Good = "COAL"
	Iron      Good = "IRON"
	Gold      Good = "GOLD"
	Gems      Good = "GEMS"
	Oil       Good = "OIL"

	Fabric Good = "FABRIC"
	Paper  Good = "PAPER"
	Lumber Good = "LUMBER"
	Steel  Good = "STEEL"
	Fuel   Good = "FUEL"

	Clothing   Good = "CLOTHING"
	Furniture  Good = "FURNITURE"
	Hardware   Good = "HARDWARE"
	Armaments  Good = "ARMAMENTS"
	CannedFood Good = "CANNED_FOOD"

	Horses    Good = "HORSES"
	Transport Good = "TRANSPORT"
)

// Declaration order is the deterministic iteration order for goods.
var all = []Good{
	Grain, Fruit, Livestock, Fish,
	Cotton, Wool,
	Timber, Coal, Iron, Gold, Gems, Oil,
	Fabric, Paper, Lumber, Steel, Fuel,
	Clothing, Furniture, Hardware, Armaments, CannedFood,
	Horses, Transport,
}

var marketGoods = []Good{
	Grain, Fruit, Livestock, Fish,
	Cotton, Wool,
	Timber, Coal, Iron, Oil,
}

var (
	index = func() map[Good]int {
		m := make(map[Good]int, len(all))
		for i, g := range all {
			m[g] = i
		}
		return m
	}()
	marketSet = func() map[Good]bool {
		m := make(map[Good]bool, len(marketGoods))
		for _, g := range marketGoods {
			m[g] = true
		}
		return m
	}()
)

var displayNames = map[Good]string{
	Grain:      "Grain",
	Fruit:      "Fruit",
	Livestock:  "Livestock",
	Fish:       "Fish",
	Cotton:     "Cotton",
	Wool:       "Wool",
	Timber:     "Timber",
	Coal:       "Coal",
	Iron:       "Iron",
	Gold:       "Gold",
	Gems:       "Gems",
	Oil:        "Oil",
	Fabric:     "Fabric",
	Paper:      "Paper",
	Lumber:     "Lumber",
	Steel:      "Steel",
	Fuel:       "Fuel",
	Clothing:   "Clothing",
	Furniture:  "Furniture",
	Hardware:   "Hardware",
	Armaments:  "Armaments",
	CannedFood: "Canned Food",
	Horses:     "Horses",
	Transport:  "Transport",
}

// All returns every good in declaration order. The slice is a copy.
func All() []Good {
	out := make([]Good, len(all))
	copy(out, all)
	return out
}

// MarketGoods returns the goods cleared by the market, in clearing order.
func MarketGoods() []Good {
	out := make([]Good, len(marketGoods))
	copy(out, marketGoods)
	return out
}

func (g Good) Valid() bool {
	_, ok := index[g]
	return ok
}

// Ordinal is the position of g in declaration order, or -1.
func (g Good) Ordinal() int {
	i, ok := index[g]
	if !ok {
		return -1
	}
	return i
}

func (g Good) Name() string {
	if n, ok := displayNames[g]; ok {
		return n
	}
	return string(g)
}

func (g Good) String() string { return string(g) }

func (g Good) IsMarketGood() bool { return marketSet[g] }

func (g Good) IsRawFood() bool {
	switch g {
	case Grain, Fruit, Livestock, Fish:
		return true
	}
	return false
}

func (g Good) IsResource() bool {
	switch g {
	case Grain, Fruit, Livestock, Fish, Cotton, Wool, Timber, Coal, Iron, Gold, Gems, Oil:
		return true
	}
	return false
}

func (g Good) IsMaterial() bool {
	switch g {
	case Fabric, Paper, Lumber, Steel, Fuel:
		return true
	}
	return false
}

func (g Good) IsFinished() bool {
	switch g {
	case Clothing, Furniture, Hardware, Armaments, CannedFood:
		return true
	}
	return false
}

// Less orders goods by declaration order; unknown goods sort last by ID.
func Less(a, b Good) bool {
	ia, ib := a.Ordinal(), b.Ordinal()
	switch {
	case ia >= 0 && ib >= 0:
		return ia < ib
	case ia >= 0:
		return true
	case ib >= 0:
		return false
	default:
		return a < b
	}
}
