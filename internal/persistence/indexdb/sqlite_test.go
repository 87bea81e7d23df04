package indexdb

import (
	"path/filepath"
	"testing"

	"imperialism.ai/internal/persistence/snapshot"
	"imperialism.ai/internal/sim/catalogs"
	"imperialism.ai/internal/sim/economy/market"
	"imperialism.ai/internal/sim/engine"
	"imperialism.ai/internal/sim/goods"
	"imperialism.ai/internal/sim/nation"
	"imperialism.ai/internal/sim/tuning"
)

func TestSQLiteIndex_TurnsTradesPrices(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.db")
	idx, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	for turn := uint64(1); turn <= 2; turn++ {
		_ = idx.WriteTurn(engine.TurnLogEntry{
			Turn:    turn,
			Nations: []engine.NationTurnReport{{Nation: "A"}, {Nation: "B"}},
			Trades: []market.PlannedTrade{
				{Good: goods.Coal, Price: 94, Seller: "A", Buyer: "B"},
				{Good: goods.Coal, Price: 94, Seller: "A", Buyer: "B"},
			},
			Volumes: map[goods.Good]market.Volume{goods.Coal: {Supply: 5, Demand: 3}},
			Prices:  map[goods.Good]uint32{goods.Coal: 94 + uint32(turn)},
			Digest:  "d",
		})
	}
	_ = idx.WriteAudit(engine.AuditEntry{Turn: 1, Nation: "A", Action: "SET_PRODUCTION", Code: "E_CAPACITY"})
	_ = idx.WriteAudit(engine.AuditEntry{Turn: 1, Nation: "A", Action: "TRADE", Reason: "insufficient funds"})
	idx.RecordSnapshot("/data/snapshots/2.snap.zst", snapshot.SnapshotV1{
		Header:  snapshot.Header{Version: snapshot.Version, Turn: 2},
		Phase:   "PROCESSING",
		Nations: []nation.State{{ID: "A"}, {ID: "B"}},
	})
	if err := idx.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	idx, err = OpenSQLite(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer idx.Close()

	turns, err := idx.Turns(10)
	if err != nil {
		t.Fatalf("Turns: %v", err)
	}
	if len(turns) != 2 || turns[0].Turn != 2 || turns[0].Trades != 2 || turns[0].Nations != 2 {
		t.Fatalf("unexpected turns %+v", turns)
	}

	trades, err := idx.Trades(1)
	if err != nil {
		t.Fatalf("Trades: %v", err)
	}
	if len(trades) != 2 || trades[1].Seq != 2 || trades[0].Seller != "A" || trades[0].Price != 94 {
		t.Fatalf("unexpected trades %+v", trades)
	}

	hist, err := idx.PriceHistory("COAL")
	if err != nil {
		t.Fatalf("PriceHistory: %v", err)
	}
	if len(hist) != 2 || hist[0].Price != 95 || hist[1].Price != 96 || hist[0].Supply != 5 || hist[0].Demand != 3 {
		t.Fatalf("unexpected price history %+v", hist)
	}

	audits, err := idx.Audits("A")
	if err != nil {
		t.Fatalf("Audits: %v", err)
	}
	if len(audits) != 2 || audits[0].Seq != 1 || audits[1].Action != "TRADE" {
		t.Fatalf("unexpected audits %+v", audits)
	}

	snaps, err := idx.Snapshots()
	if err != nil {
		t.Fatalf("Snapshots: %v", err)
	}
	if len(snaps) != 1 || snaps[0].Turn != 2 || snaps[0].Nations != 2 {
		t.Fatalf("unexpected snapshots %+v", snaps)
	}
}

func TestSQLiteIndex_UpsertCatalogs(t *testing.T) {
	idx, err := OpenSQLite(filepath.Join(t.TempDir(), "index.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	defer idx.Close()

	cats := &catalogs.Catalogs{
		Goods:     catalogs.GoodsCatalog{Palette: []goods.Good{goods.Grain, goods.Coal}, Digest: "g"},
		Buildings: catalogs.BuildingCatalog{Digest: "b"},
	}
	if err := idx.UpsertCatalogs("", cats, tuning.Defaults()); err != nil {
		t.Fatalf("UpsertCatalogs: %v", err)
	}
	var n int
	if err := idx.db.Get(&n, `SELECT COUNT(*) FROM catalogs`); err != nil {
		t.Fatalf("count: %v", err)
	}
	// goods and tuning; buildings.json is only read from a config dir
	if n != 2 {
		t.Fatalf("expected 2 catalog rows, got %d", n)
	}
}
