package nation

import (
	"errors"
	"path/filepath"
	"testing"

	"imperialism.ai/internal/sim/catalogs"
	"imperialism.ai/internal/sim/economy/reservation"
	"imperialism.ai/internal/sim/economy/workforce"
	"imperialism.ai/internal/sim/goods"
	"imperialism.ai/internal/sim/tuning"
)

func newTestNation(t *testing.T, workers uint32, kinds ...catalogs.BuildingKind) *Nation {
	t.Helper()
	cats, err := catalogs.Load(filepath.Join("..", "..", "..", "configs"))
	if err != nil {
		t.Fatalf("load catalogs: %v", err)
	}
	n := New("N1", "Testland", &cats.Buildings, RulesFromTuning(tuning.Defaults()))
	n.Provinces = 8
	n.Treasury.Total = 1000
	for _, k := range kinds {
		if err := n.AddBuilding(k); err != nil {
			t.Fatalf("add building %s: %v", k, err)
		}
	}
	n.Workforce.AddUntrained(workers)
	n.Workforce.RefreshLabor(n.Labor)
	return n
}

func TestBuyInterestClearsSells(t *testing.T) {
	n := newTestNation(t, 0)
	n.Stockpile.Add(goods.Grain, 10)
	if got, err := n.AdjustMarketOrder(goods.Grain, Sell, 3); err != nil || got != 3 {
		t.Fatalf("sell: got %d err %v", got, err)
	}
	if n.Stockpile.Available(goods.Grain) != 7 {
		t.Fatalf("expected 7 available after sells, got %d", n.Stockpile.Available(goods.Grain))
	}
	if _, err := n.AdjustMarketOrder(goods.Grain, Buy, 2); err != nil {
		t.Fatalf("buy: %v", err)
	}
	if !n.Allocations.HasBuyInterest(goods.Grain) {
		t.Fatalf("expected buy interest")
	}
	if c := n.Allocations.MarketSellCount(goods.Grain); c != 0 {
		t.Fatalf("expected sells cleared, got %d", c)
	}
	if n.Stockpile.Available(goods.Grain) != 10 || n.Reservations.Count() != 0 {
		t.Fatalf("expected all grain available again, got %d (ledger %d)", n.Stockpile.Available(goods.Grain), n.Reservations.Count())
	}

	if _, err := n.AdjustMarketOrder(goods.Grain, Sell, 1); err != nil {
		t.Fatalf("sell: %v", err)
	}
	if n.Allocations.HasBuyInterest(goods.Grain) {
		t.Fatalf("expected sell to clear buy interest")
	}
}

func TestMarketOrderRejections(t *testing.T) {
	n := newTestNation(t, 0)
	if _, err := n.AdjustMarketOrder(goods.Steel, Buy, 1); !errors.Is(err, ErrNotMarketGood) {
		t.Fatalf("expected not market good, got %v", err)
	}
	if _, err := n.AdjustMarketOrder(goods.Coal, "HOLD", 1); !errors.Is(err, ErrBadOrderKind) {
		t.Fatalf("expected bad kind, got %v", err)
	}
	n.Stockpile.Add(goods.Coal, 2)
	got, err := n.AdjustMarketOrder(goods.Coal, Sell, 5)
	if !errors.Is(err, reservation.ErrInsufficientGoods) || got != 2 {
		t.Fatalf("expected 2 sells and insufficient goods, got %d %v", got, err)
	}
	got, _ = n.AdjustMarketOrder(goods.Coal, Sell, 1)
	if got != 1 || n.Stockpile.Available(goods.Coal) != 1 {
		t.Fatalf("expected shrink to 1, got %d", got)
	}
}

func TestCapacitySharedAcrossOutputs(t *testing.T) {
	n := newTestNation(t, 10, catalogs.LumberMill)
	n.Stockpile.Add(goods.Timber, 40)

	if got, err := n.AdjustProduction(catalogs.LumberMill, goods.Lumber, "", 3); err != nil || got != 3 {
		t.Fatalf("lumber: got %d err %v", got, err)
	}
	got, err := n.AdjustProduction(catalogs.LumberMill, goods.Paper, "", 3)
	if !errors.Is(err, ErrCapacity) || got != 1 {
		t.Fatalf("expected paper clamped to 1, got %d %v", got, err)
	}
	if total := n.Allocations.BuildingProductionTotal(catalogs.LumberMill); total > 4 {
		t.Fatalf("expected total <= 4, got %d", total)
	}
	if got, _ := n.AdjustProduction(catalogs.LumberMill, goods.Lumber, "", 1); got != 1 {
		t.Fatalf("expected shrink to 1, got %d", got)
	}
	if got, err := n.AdjustProduction(catalogs.LumberMill, goods.Paper, "", 3); err != nil || got != 3 {
		t.Fatalf("expected paper to grow into freed capacity, got %d %v", got, err)
	}
	if n.Labor.Reserved != 4 || n.Stockpile.Reserved(goods.Timber) != 8 {
		t.Fatalf("unexpected holds: labor=%d timber=%d", n.Labor.Reserved, n.Stockpile.Reserved(goods.Timber))
	}
}

func TestAdjustProduction_BatchHolds(t *testing.T) {
	n := newTestNation(t, 10, catalogs.FoodProcessing)
	n.Stockpile.Add(goods.Grain, 10)
	n.Stockpile.Add(goods.Fruit, 10)
	n.Stockpile.Add(goods.Fish, 10)

	got, err := n.AdjustProduction(catalogs.FoodProcessing, goods.CannedFood, "use_fish", 3)
	if err != nil || got != 3 {
		t.Fatalf("got %d err %v", got, err)
	}
	if n.Stockpile.Reserved(goods.Grain) != 4 || n.Stockpile.Reserved(goods.Fish) != 2 {
		t.Fatalf("expected two batches held, got grain=%d fish=%d", n.Stockpile.Reserved(goods.Grain), n.Stockpile.Reserved(goods.Fish))
	}

	// Switching the choice releases the fish batches first.
	n.Stockpile.Add(goods.Livestock, 1)
	got, err = n.AdjustProduction(catalogs.FoodProcessing, goods.CannedFood, "use_livestock", 3)
	if !errors.Is(err, reservation.ErrInsufficientGoods) || got != 2 {
		t.Fatalf("expected 2 units with livestock, got %d %v", got, err)
	}
	if n.Stockpile.Reserved(goods.Fish) != 0 || n.Stockpile.Reserved(goods.Livestock) != 1 {
		t.Fatalf("expected fish released and livestock held")
	}
	if n.Buildings[catalogs.FoodProcessing].Setting(goods.CannedFood).Choice != "use_livestock" {
		t.Fatalf("expected choice persisted")
	}
}

func TestAdjustProduction_BadChoiceClearsTarget(t *testing.T) {
	n := newTestNation(t, 10, catalogs.FoodProcessing)
	n.Stockpile.Add(goods.Grain, 10)
	n.Stockpile.Add(goods.Fruit, 10)
	n.Stockpile.Add(goods.Fish, 10)
	if got, err := n.AdjustProduction(catalogs.FoodProcessing, goods.CannedFood, "use_fish", 2); err != nil || got != 2 {
		t.Fatalf("got %d err %v", got, err)
	}

	got, err := n.AdjustProduction(catalogs.FoodProcessing, goods.CannedFood, "use_eels", 2)
	if err == nil || got != 0 {
		t.Fatalf("expected unknown choice to fail with nothing held, got %d %v", got, err)
	}
	setting := n.Buildings[catalogs.FoodProcessing].Setting(goods.CannedFood)
	if setting.TargetOutput != 0 {
		t.Fatalf("expected target cleared, got %d", setting.TargetOutput)
	}
	if n.Stockpile.Reserved(goods.Fish) != 0 || n.Allocations.ProductionCount(catalogs.FoodProcessing, goods.CannedFood) != 0 {
		t.Fatalf("expected fish batches released")
	}
}

func TestAdjustProduction_Errors(t *testing.T) {
	n := newTestNation(t, 2, catalogs.SteelMill)
	if _, err := n.AdjustProduction(catalogs.Refinery, goods.Fuel, "", 1); !errors.Is(err, ErrUnknownBuilding) {
		t.Fatalf("expected unknown building, got %v", err)
	}
	if _, err := n.AdjustProduction(catalogs.SteelMill, goods.Paper, "", 1); !errors.Is(err, ErrUnknownOutput) {
		t.Fatalf("expected unknown output, got %v", err)
	}
	n.Stockpile.Add(goods.Iron, 5)
	n.Stockpile.Add(goods.Coal, 5)
	got, err := n.AdjustProduction(catalogs.SteelMill, goods.Steel, "", 4)
	if !errors.Is(err, reservation.ErrInsufficientLabor) || got != 2 {
		t.Fatalf("expected labor to stop at 2, got %d %v", got, err)
	}
	if n.Stockpile.Available(goods.Iron) != 3 {
		t.Fatalf("failed unit must not hold iron, got available %d", n.Stockpile.Available(goods.Iron))
	}
}

func TestRunProduction_SteelScenario(t *testing.T) {
	n := newTestNation(t, 4, catalogs.SteelMill)
	n.Stockpile.Add(goods.Iron, 10)
	n.Stockpile.Add(goods.Coal, 10)
	if got, err := n.AdjustProduction(catalogs.SteelMill, goods.Steel, "", 4); err != nil || got != 4 {
		t.Fatalf("adjust: %d %v", got, err)
	}
	reports := n.RunProduction()
	if len(reports) != 1 || reports[0].Shortfall != nil {
		t.Fatalf("unexpected reports %+v", reports)
	}
	if n.Stockpile.Get(goods.Steel) != 4 || n.Stockpile.Get(goods.Iron) != 6 || n.Stockpile.Get(goods.Coal) != 6 {
		t.Fatalf("unexpected stock after production")
	}
	if n.Buildings[catalogs.SteelMill].Target(goods.Steel) != 4 {
		t.Fatalf("expected target to stay 4")
	}
	if n.Reservations.Count() != 0 || n.Labor.Reserved != 0 || n.Stockpile.Reserved(goods.Iron) != 0 {
		t.Fatalf("expected holds settled")
	}
	if n.Allocations.ProductionCount(catalogs.SteelMill, goods.Steel) != 0 {
		t.Fatalf("expected production buckets cleared")
	}
}

func TestRunProduction_UnusedInputsReleased(t *testing.T) {
	n := newTestNation(t, 3, catalogs.FoodProcessing)
	n.Stockpile.Add(goods.Grain, 4)
	n.Stockpile.Add(goods.Fruit, 2)
	n.Stockpile.Add(goods.Livestock, 2)
	if got, err := n.AdjustProduction(catalogs.FoodProcessing, goods.CannedFood, "use_livestock", 3); err != nil || got != 3 {
		t.Fatalf("adjust: %d %v", got, err)
	}
	// One worker dies before processing, so only two units of labor remain.
	n.Workforce.Workers[0].Health = workforce.Dead

	n.RunProduction()
	if n.Stockpile.Get(goods.CannedFood) != 2 {
		t.Fatalf("expected one batch, got %d canned food", n.Stockpile.Get(goods.CannedFood))
	}
	if n.Stockpile.Get(goods.Grain) != 2 || n.Stockpile.Reserved(goods.Grain) != 0 || n.Stockpile.Available(goods.Grain) != 2 {
		t.Fatalf("expected unused grain back in circulation, got total=%d reserved=%d", n.Stockpile.Get(goods.Grain), n.Stockpile.Reserved(goods.Grain))
	}
}

func TestRecruitmentAndTraining(t *testing.T) {
	n := newTestNation(t, 2)
	for _, g := range []goods.Good{goods.CannedFood, goods.Clothing, goods.Furniture} {
		n.Stockpile.Add(g, 5)
	}
	n.Stockpile.Add(goods.Paper, 1)

	got, err := n.AdjustRecruitment(3)
	if !errors.Is(err, ErrCapacity) || got != 2 {
		t.Fatalf("expected cap of 2, got %d %v", got, err)
	}
	got, err = n.AdjustTraining(workforce.Untrained, 2)
	if !errors.Is(err, reservation.ErrInsufficientGoods) || got != 1 {
		t.Fatalf("expected one training slot, got %d %v", got, err)
	}
	if _, err := n.AdjustTraining(workforce.Expert, 1); !errors.Is(err, ErrCapacity) {
		t.Fatalf("experts cannot train, got %v", err)
	}
	if _, err := n.AdjustTraining("WIZARD", 1); !errors.Is(err, ErrBadSkill) {
		t.Fatalf("expected bad skill, got %v", err)
	}

	rep := n.FinalizeRecruitmentAndTraining()
	if rep.Recruited != 2 || rep.Trained[workforce.Untrained] != 1 {
		t.Fatalf("unexpected finalize report %+v", rep)
	}
	if n.Workforce.Len() != 4 || n.Workforce.CountBySkill(workforce.Trained) != 1 {
		t.Fatalf("unexpected workforce %+v", n.Workforce.Workers)
	}
	if n.Stockpile.Get(goods.CannedFood) != 3 || n.Stockpile.Get(goods.Paper) != 0 || n.Treasury.Total != 900 {
		t.Fatalf("unexpected costs: canned=%d paper=%d money=%d", n.Stockpile.Get(goods.CannedFood), n.Stockpile.Get(goods.Paper), n.Treasury.Total)
	}
}

func TestStartTurn_ResetsAndRenews(t *testing.T) {
	n := newTestNation(t, 4, catalogs.SteelMill)
	n.Stockpile.Add(goods.Grain, 2)
	n.Stockpile.Add(goods.Fruit, 1)
	n.Stockpile.Add(goods.Iron, 10)
	n.Stockpile.Add(goods.Coal, 10)
	n.Stockpile.Add(goods.Wool, 3)
	n.AdjustMarketOrder(goods.Wool, Sell, 3)
	n.Buildings[catalogs.SteelMill].Setting(goods.Steel).TargetOutput = 2

	r := n.StartTurn()
	if r.Feed.Fed != 3 || r.Feed.Sick != 0 || r.Feed.Dead != 1 {
		t.Fatalf("unexpected feed report %+v", r.Feed)
	}
	if n.Allocations.MarketSellCount(goods.Wool) != 0 || n.Stockpile.Reserved(goods.Wool) != 0 {
		t.Fatalf("expected sells reset")
	}
	if len(r.Renewed) != 1 || r.Renewed[0].Achieved != 2 {
		t.Fatalf("expected steel renewed at 2, got %+v", r.Renewed)
	}
	if n.Labor.Total != 3 || n.Labor.Reserved != 2 {
		t.Fatalf("unexpected labor %+v", *n.Labor)
	}
}

func TestExportRestore(t *testing.T) {
	n := newTestNation(t, 3, catalogs.SteelMill, catalogs.TextileMill)
	n.Stockpile.Add(goods.Iron, 5)
	n.Stockpile.Add(goods.Coal, 5)
	n.Stockpile.Add(goods.Fish, 2)
	n.AdjustProduction(catalogs.SteelMill, goods.Steel, "", 2)
	n.AdjustMarketOrder(goods.Oil, Buy, 4)

	st := n.Export()
	r, err := Restore(st, n.catalog, n.rules)
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if r.Reservations.Count() != 0 || r.Stockpile.Reserved(goods.Iron) != 0 {
		t.Fatalf("expected empty ledger after restore")
	}
	if r.Stockpile.Get(goods.Iron) != 5 || r.Treasury.Total != 1000 || r.Workforce.Len() != 3 {
		t.Fatalf("unexpected restored state")
	}
	if r.Buildings[catalogs.SteelMill].Target(goods.Steel) != 2 {
		t.Fatalf("expected target persisted")
	}
	if r.Allocations.BuyQuantity(goods.Oil) != 4 {
		t.Fatalf("expected buy interest persisted")
	}
	if r.Labor.Total != 3 {
		t.Fatalf("expected labor refreshed, got %d", r.Labor.Total)
	}
	if len(r.BuildingKinds()) != 2 || r.BuildingKinds()[0] != catalogs.TextileMill {
		t.Fatalf("expected catalog order, got %v", r.BuildingKinds())
	}
}
