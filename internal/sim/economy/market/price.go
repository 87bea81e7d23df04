package market

import (
	"math"

	"imperialism.ai/internal/sim/goods"
)

const fallbackPrice uint32 = 100

// Volume is one turn's cleared supply and demand for a good, in units.
type Volume struct {
	Supply uint32 `json:"supply"`
	Demand uint32 `json:"demand"`
}

// PriceModel turns a good's volume into a per-unit clearing price. Prices
// must not fall when demand rises or rise when supply rises.
type PriceModel interface {
	Price(g goods.Good, v Volume) uint32
}

// DefaultBasePrices is the opening price table.
func DefaultBasePrices() map[goods.Good]uint32 {
	return map[goods.Good]uint32{
		goods.Grain:     60,
		goods.Fruit:     60,
		goods.Livestock: 80,
		goods.Fish:      80,
		goods.Cotton:    90,
		goods.Wool:      90,
		goods.Timber:    70,
		goods.Coal:      100,
		goods.Iron:      100,
		goods.Oil:       110,
	}
}

// Prices is the default price model. Base prices drift turn to turn with
// cleared volume, bounded to 20%-300% of the opening table.
type Prices struct {
	opening map[goods.Good]uint32
	base    map[goods.Good]uint32
	last    map[goods.Good]Volume
}

func NewPrices(opening map[goods.Good]uint32) *Prices {
	if len(opening) == 0 {
		opening = DefaultBasePrices()
	}
	p := &Prices{
		opening: map[goods.Good]uint32{},
		base:    map[goods.Good]uint32{},
		last:    map[goods.Good]Volume{},
	}
	for g, v := range opening {
		if v == 0 {
			v = 1
		}
		p.opening[g] = v
		p.base[g] = v
	}
	return p
}

func (p *Prices) Base(g goods.Good) uint32 {
	if v, ok := p.base[g]; ok {
		return v
	}
	return fallbackPrice
}

func (p *Prices) opened(g goods.Good) uint32 {
	if v, ok := p.opening[g]; ok {
		return v
	}
	return fallbackPrice
}

func (p *Prices) SetBase(g goods.Good, price uint32) {
	if price == 0 {
		price = 1
	}
	p.base[g] = price
}

func (p *Prices) LastVolume(g goods.Good) (Volume, bool) {
	v, ok := p.last[g]
	return v, ok
}

// Price adjusts the base price by at most 12.5% toward the side of the
// market that is short.
func (p *Prices) Price(g goods.Good, v Volume) uint32 {
	base := p.Base(g)
	if v.Supply == 0 || v.Demand == 0 {
		return base
	}
	adjusted := uint32(math.Round(float64(base) * factor(float64(v.Supply), float64(v.Demand))))
	if adjusted < 1 {
		adjusted = 1
	}
	return adjusted
}

// UpdateFromVolume moves the persistent base price after a clearing pass.
func (p *Prices) UpdateFromVolume(g goods.Good, v Volume) {
	p.last[g] = v
	if v.Supply == 0 && v.Demand == 0 {
		return
	}
	supply := math.Max(float64(v.Supply), 1)
	demand := math.Max(float64(v.Demand), 1)
	next := uint32(math.Round(float64(p.Base(g)) * factor(supply, demand)))

	orig := float64(p.opened(g))
	lo := uint32(math.Max(orig*0.2, 1))
	hi := uint32(orig * 3)
	if next < lo {
		next = lo
	}
	if next > hi {
		next = hi
	}
	p.base[g] = next
}

func factor(supply, demand float64) float64 {
	imbalance := (demand - supply) / (supply + demand)
	if imbalance > 0.5 {
		imbalance = 0.5
	}
	if imbalance < -0.5 {
		imbalance = -0.5
	}
	return 1 + imbalance*0.25
}

// Table returns current base prices for every good with a known price.
func (p *Prices) Table() map[goods.Good]uint32 {
	out := make(map[goods.Good]uint32, len(p.base))
	for g, v := range p.base {
		out[g] = v
	}
	return out
}

// Volumes returns the volumes seen by the last clearing pass.
func (p *Prices) Volumes() map[goods.Good]Volume {
	out := make(map[goods.Good]Volume, len(p.last))
	for g, v := range p.last {
		out[g] = v
	}
	return out
}

// SetLastVolume restores a recorded volume without moving the price.
func (p *Prices) SetLastVolume(g goods.Good, v Volume) { p.last[g] = v }
