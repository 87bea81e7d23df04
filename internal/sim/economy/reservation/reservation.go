package reservation

import (
	"errors"
	"fmt"
	"sort"

	"imperialism.ai/internal/sim/economy/pool"
	"imperialism.ai/internal/sim/goods"
)

var (
	ErrInsufficientGoods = errors.New("insufficient goods")
	ErrInsufficientLabor = errors.New("insufficient labor")
	ErrInsufficientFunds = errors.New("insufficient funds")
)

// ID identifies a reservation within one nation's ledger. IDs increase
// monotonically and are never handed out twice.
type ID uint64

type GoodQty struct {
	Good goods.Good `json:"good"`
	Qty  uint32     `json:"qty"`
}

// Hold is the set of resources a reservation keeps out of circulation.
type Hold struct {
	Goods []GoodQty `json:"goods,omitempty"`
	Labor uint32    `json:"labor,omitempty"`
	Money uint32    `json:"money,omitempty"`
}

// System is a per-nation ledger of atomic multi-resource holds.
type System struct {
	next    ID
	records map[ID]Hold
}

func NewSystem() *System {
	return &System{next: 1, records: map[ID]Hold{}}
}

// TryReserve holds every listed good, then labor, then money. On any
// failure everything held by this call is released and the returned
// error wraps ErrInsufficientGoods, ErrInsufficientLabor or
// ErrInsufficientFunds.
func (s *System) TryReserve(items []GoodQty, labor, money uint32, stock *pool.Stockpile, laborPool *pool.LaborPool, treasury *pool.Treasury) (ID, error) {
	held := make([]GoodQty, 0, len(items))
	rollbackGoods := func() {
		for _, it := range held {
			stock.Unreserve(it.Good, it.Qty)
		}
	}

	for _, it := range items {
		if !stock.Reserve(it.Good, it.Qty) {
			avail := stock.Available(it.Good)
			rollbackGoods()
			return 0, fmt.Errorf("%w: %s need %d have %d", ErrInsufficientGoods, it.Good, it.Qty, avail)
		}
		held = append(held, it)
	}

	if labor > 0 {
		if laborPool == nil || !laborPool.TryReserve(labor) {
			rollbackGoods()
			return 0, fmt.Errorf("%w: need %d have %d", ErrInsufficientLabor, labor, availableOf(laborPool))
		}
	}

	if money > 0 {
		if treasury == nil || !treasury.TryReserve(money) {
			rollbackGoods()
			if labor > 0 {
				laborPool.Release(labor)
			}
			var have uint32
			if treasury != nil {
				have = treasury.Available()
			}
			return 0, fmt.Errorf("%w: need %d have %d", ErrInsufficientFunds, money, have)
		}
	}

	if s.records == nil {
		s.records = map[ID]Hold{}
	}
	if s.next == 0 {
		s.next = 1
	}
	id := s.next
	s.next++
	s.records[id] = Hold{Goods: held, Labor: labor, Money: money}
	return id, nil
}

func availableOf(p *pool.LaborPool) uint32 {
	if p == nil {
		return 0
	}
	return p.Available()
}

// Release drops the record and returns its resources to their pools.
// Unknown IDs are treated as already settled.
func (s *System) Release(id ID, stock *pool.Stockpile, laborPool *pool.LaborPool, treasury *pool.Treasury) bool {
	h, ok := s.records[id]
	if !ok {
		return false
	}
	delete(s.records, id)
	for _, it := range h.Goods {
		stock.Unreserve(it.Good, it.Qty)
	}
	if h.Labor > 0 && laborPool != nil {
		laborPool.Release(h.Labor)
	}
	if h.Money > 0 && treasury != nil {
		treasury.Release(h.Money)
	}
	return true
}

// Consume drops the record and commits its hold: held goods leave the
// stockpile, held labor and money are spent. Only this reservation's
// share is committed; other holds on the same pools stay reserved.
func (s *System) Consume(id ID, stock *pool.Stockpile, laborPool *pool.LaborPool, treasury *pool.Treasury) bool {
	h, ok := s.records[id]
	if !ok {
		return false
	}
	delete(s.records, id)
	for _, it := range h.Goods {
		stock.ConsumeReserved(it.Good, it.Qty)
	}
	if h.Labor > 0 && laborPool != nil {
		laborPool.Commit(h.Labor)
	}
	if h.Money > 0 && treasury != nil {
		treasury.Commit(h.Money)
	}
	return true
}

// Forget removes the record without touching any pool and returns it.
func (s *System) Forget(id ID) (Hold, bool) {
	h, ok := s.records[id]
	if ok {
		delete(s.records, id)
	}
	return h, ok
}

// ConsumeAll clears the ledger without touching any pool.
func (s *System) ConsumeAll() {
	for id := range s.records {
		delete(s.records, id)
	}
}

func (s *System) Get(id ID) (Hold, bool) {
	h, ok := s.records[id]
	return h, ok
}

func (s *System) Has(id ID) bool {
	_, ok := s.records[id]
	return ok
}

func (s *System) Count() int { return len(s.records) }

// IDs returns the active IDs in ascending order.
func (s *System) IDs() []ID {
	out := make([]ID, 0, len(s.records))
	for id := range s.records {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// NextID is the ID the next successful reservation will receive.
func (s *System) NextID() ID {
	if s.next == 0 {
		return 1
	}
	return s.next
}
