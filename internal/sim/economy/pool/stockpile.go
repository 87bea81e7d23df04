package pool

import (
	"sort"

	"imperialism.ai/internal/sim/goods"
)

// Stockpile maps goods to pools. Pools are created zeroed on first access.
type Stockpile struct {
	pools map[goods.Good]*ResourcePool
}

type Entry struct {
	Good      goods.Good `json:"good"`
	Total     uint32     `json:"total"`
	Reserved  uint32     `json:"reserved"`
	Available uint32     `json:"available"`
}

func NewStockpile() *Stockpile {
	return &Stockpile{pools: map[goods.Good]*ResourcePool{}}
}

func (s *Stockpile) pool(g goods.Good) *ResourcePool {
	if s.pools == nil {
		s.pools = map[goods.Good]*ResourcePool{}
	}
	p := s.pools[g]
	if p == nil {
		p = &ResourcePool{}
		s.pools[g] = p
	}
	return p
}

func (s *Stockpile) peek(g goods.Good) ResourcePool {
	if p := s.pools[g]; p != nil {
		return *p
	}
	return ResourcePool{}
}

func (s *Stockpile) Get(g goods.Good) uint32 { return s.peek(g).Total }

func (s *Stockpile) Reserved(g goods.Good) uint32 { return s.peek(g).Reserved }

func (s *Stockpile) Available(g goods.Good) uint32 {
	p := s.peek(g)
	return p.Available()
}

func (s *Stockpile) HasAvailable(g goods.Good, qty uint32) bool { return s.Available(g) >= qty }

func (s *Stockpile) HasAtLeast(g goods.Good, qty uint32) bool { return s.Get(g) >= qty }

func (s *Stockpile) Add(g goods.Good, qty uint32) { s.pool(g).Add(qty) }

func (s *Stockpile) Reserve(g goods.Good, qty uint32) bool { return s.pool(g).TryReserve(qty) }

func (s *Stockpile) Unreserve(g goods.Good, qty uint32) { s.pool(g).Release(qty) }

// ConsumeReserved commits min(reserved, qty) units of g and returns the
// amount actually consumed.
func (s *Stockpile) ConsumeReserved(g goods.Good, qty uint32) uint32 {
	p := s.pool(g)
	n := qty
	if n > p.Reserved {
		n = p.Reserved
	}
	p.Release(n)
	return p.Take(n)
}

// TakeUpTo removes up to qty units of g directly from the total.
func (s *Stockpile) TakeUpTo(g goods.Good, qty uint32) uint32 { return s.pool(g).Take(qty) }

// SetTotal overwrites the total for g and clears its reservations.
// Used when restoring persisted state.
func (s *Stockpile) SetTotal(g goods.Good, total uint32) {
	*s.pool(g) = ResourcePool{Total: total}
}

// Entries returns unordered snapshots of every pool seen so far.
func (s *Stockpile) Entries() []Entry {
	out := make([]Entry, 0, len(s.pools))
	for g, p := range s.pools {
		out = append(out, Entry{Good: g, Total: p.Total, Reserved: p.Reserved, Available: p.Available()})
	}
	return out
}

// SortedEntries is Entries in goods declaration order.
func (s *Stockpile) SortedEntries() []Entry {
	out := s.Entries()
	sort.Slice(out, func(i, j int) bool { return goods.Less(out[i].Good, out[j].Good) })
	return out
}

// Totals returns non-zero totals keyed by good.
func (s *Stockpile) Totals() map[goods.Good]uint32 {
	out := make(map[goods.Good]uint32, len(s.pools))
	for g, p := range s.pools {
		if p.Total > 0 {
			out[g] = p.Total
		}
	}
	return out
}
