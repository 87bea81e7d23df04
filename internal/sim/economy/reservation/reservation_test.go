package reservation

import (
	"errors"
	"testing"

	"imperialism.ai/internal/sim/economy/pool"
	"imperialism.ai/internal/sim/goods"
)

type pools struct {
	stock    *pool.Stockpile
	labor    *pool.LaborPool
	treasury *pool.Treasury
}

func newPools(t *testing.T) pools {
	t.Helper()
	s := pool.NewStockpile()
	s.Add(goods.Iron, 10)
	s.Add(goods.Coal, 10)
	l := pool.New(5)
	return pools{stock: s, labor: &l, treasury: pool.NewTreasury(1000)}
}

func TestTryReserve_Success(t *testing.T) {
	p := newPools(t)
	sys := NewSystem()
	id, err := sys.TryReserve([]GoodQty{{goods.Iron, 2}, {goods.Coal, 3}}, 2, 100, p.stock, p.labor, p.treasury)
	if err != nil {
		t.Fatalf("reserve: %v", err)
	}
	if id == 0 {
		t.Fatalf("expected non-zero id")
	}
	if p.stock.Available(goods.Iron) != 8 || p.stock.Available(goods.Coal) != 7 {
		t.Fatalf("goods not reserved")
	}
	if p.labor.Available() != 3 || p.treasury.Available() != 900 {
		t.Fatalf("labor/money not reserved: labor=%d money=%d", p.labor.Available(), p.treasury.Available())
	}
	if sys.Count() != 1 {
		t.Fatalf("expected 1 record, got %d", sys.Count())
	}
}

func TestTryReserve_AllOrNothing(t *testing.T) {
	cases := []struct {
		name  string
		items []GoodQty
		labor uint32
		money uint32
		want  error
	}{
		{"goods", []GoodQty{{goods.Iron, 2}, {goods.Coal, 11}}, 1, 1, ErrInsufficientGoods},
		{"labor", []GoodQty{{goods.Iron, 2}, {goods.Coal, 2}}, 6, 1, ErrInsufficientLabor},
		{"funds", []GoodQty{{goods.Iron, 2}, {goods.Coal, 2}}, 5, 1001, ErrInsufficientFunds},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			p := newPools(t)
			sys := NewSystem()
			id, err := sys.TryReserve(c.items, c.labor, c.money, p.stock, p.labor, p.treasury)
			if !errors.Is(err, c.want) {
				t.Fatalf("expected %v, got %v", c.want, err)
			}
			if id != 0 || sys.Count() != 0 {
				t.Fatalf("expected no record on failure")
			}
			if p.stock.Available(goods.Iron) != 10 || p.stock.Available(goods.Coal) != 10 {
				t.Fatalf("goods left reserved after rollback: iron=%d coal=%d", p.stock.Available(goods.Iron), p.stock.Available(goods.Coal))
			}
			if p.labor.Available() != 5 || p.treasury.Available() != 1000 {
				t.Fatalf("labor/money left reserved after rollback")
			}
		})
	}
}

func TestIDsAreMonotonicAndNeverReused(t *testing.T) {
	p := newPools(t)
	sys := NewSystem()
	a, _ := sys.TryReserve([]GoodQty{{goods.Iron, 1}}, 0, 0, p.stock, p.labor, p.treasury)
	sys.Release(a, p.stock, p.labor, p.treasury)
	if _, err := sys.TryReserve([]GoodQty{{goods.Iron, 99}}, 0, 0, p.stock, p.labor, p.treasury); err == nil {
		t.Fatalf("expected failure")
	}
	b, _ := sys.TryReserve([]GoodQty{{goods.Iron, 1}}, 0, 0, p.stock, p.labor, p.treasury)
	if b <= a {
		t.Fatalf("expected id after %d, got %d", a, b)
	}
}

func TestRelease_Idempotent(t *testing.T) {
	p := newPools(t)
	sys := NewSystem()
	id, _ := sys.TryReserve([]GoodQty{{goods.Iron, 4}}, 2, 50, p.stock, p.labor, p.treasury)
	if !sys.Release(id, p.stock, p.labor, p.treasury) {
		t.Fatalf("expected first release to find the record")
	}
	if sys.Release(id, p.stock, p.labor, p.treasury) {
		t.Fatalf("expected second release to be a no-op")
	}
	if p.stock.Available(goods.Iron) != 10 || p.labor.Available() != 5 || p.treasury.Available() != 1000 {
		t.Fatalf("pools not restored")
	}
	if sys.Release(ID(999), p.stock, p.labor, p.treasury) {
		t.Fatalf("unknown id must be a no-op")
	}
}

func TestConsume_CommitsOnlyOwnShare(t *testing.T) {
	p := newPools(t)
	sys := NewSystem()
	a, _ := sys.TryReserve([]GoodQty{{goods.Iron, 2}}, 1, 10, p.stock, p.labor, p.treasury)
	b, _ := sys.TryReserve([]GoodQty{{goods.Iron, 3}}, 0, 0, p.stock, p.labor, p.treasury)

	if !sys.Consume(a, p.stock, p.labor, p.treasury) {
		t.Fatalf("expected consume to find the record")
	}
	if sys.Consume(a, p.stock, p.labor, p.treasury) {
		t.Fatalf("expected second consume to be a no-op")
	}
	if p.stock.Get(goods.Iron) != 8 || p.stock.Reserved(goods.Iron) != 3 {
		t.Fatalf("expected iron total 8 reserved 3, got %d/%d", p.stock.Get(goods.Iron), p.stock.Reserved(goods.Iron))
	}
	if p.labor.Total != 4 || p.treasury.Total != 990 {
		t.Fatalf("labor/money not committed: labor=%+v money=%+v", *p.labor, p.treasury.ResourcePool)
	}
	if !sys.Has(b) {
		t.Fatalf("other reservation must survive")
	}
}

func TestForgetAndConsumeAll(t *testing.T) {
	p := newPools(t)
	sys := NewSystem()
	a, _ := sys.TryReserve([]GoodQty{{goods.Coal, 1}}, 0, 0, p.stock, p.labor, p.treasury)
	sys.TryReserve([]GoodQty{{goods.Coal, 1}}, 0, 0, p.stock, p.labor, p.treasury)
	h, ok := sys.Forget(a)
	if !ok || len(h.Goods) != 1 || h.Goods[0].Qty != 1 {
		t.Fatalf("unexpected forget result: %+v %v", h, ok)
	}
	sys.ConsumeAll()
	if sys.Count() != 0 {
		t.Fatalf("expected empty ledger")
	}
	if p.stock.Reserved(goods.Coal) != 2 {
		t.Fatalf("ledger sweep must not touch pools")
	}
}
