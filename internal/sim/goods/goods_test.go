package goods

import (
	"strings"
	"testing"
)

func TestAllOrderAndValidity(t *testing.T) {
	got := All()
	if len(got) != 24 {
		t.Fatalf("expected 24 goods, got %d", len(got))
	}
	if got[0] != Grain || got[len(got)-1] != Transport {
		t.Fatalf("unexpected order: first=%s last=%s", got[0], got[len(got)-1])
	}
	for i, g := range got {
		if !g.Valid() {
			t.Fatalf("expected %s valid", g)
		}
		if g.Ordinal() != i {
			t.Fatalf("ordinal for %s: expected %d got %d", g, i, g.Ordinal())
		}
	}
	got[0] = Oil
	if All()[0] != Grain {
		t.Fatalf("All must return a copy")
	}
	if Good("SPICE").Valid() {
		t.Fatalf("expected unknown good invalid")
	}
}

func TestMarketGoods(t *testing.T) {
	want := []Good{Grain, Fruit, Livestock, Fish, Cotton, Wool, Timber, Coal, Iron, Oil}
	got := MarketGoods()
	if len(got) != len(want) {
		t.Fatalf("expected %d market goods, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("market good %d: expected %s got %s", i, want[i], got[i])
		}
		if !got[i].IsMarketGood() {
			t.Fatalf("expected %s to be a market good", got[i])
		}
	}
	if Steel.IsMarketGood() || Gold.IsMarketGood() {
		t.Fatalf("steel and gold are not cleared by the market")
	}
}

func TestClassification(t *testing.T) {
	cases := []struct {
		g                                   Good
		rawFood, resource, material, finish bool
	}{
		{Grain, true, true, false, false},
		{Fish, true, true, false, false},
		{Gems, false, true, false, false},
		{Steel, false, false, true, false},
		{CannedFood, false, false, false, true},
		{Transport, false, false, false, false},
	}
	for _, c := range cases {
		if c.g.IsRawFood() != c.rawFood || c.g.IsResource() != c.resource ||
			c.g.IsMaterial() != c.material || c.g.IsFinished() != c.finish {
			t.Fatalf("classification mismatch for %s", c.g)
		}
	}
}

func TestParse(t *testing.T) {
	t.Run("forms", func(t *testing.T) {
		for _, in := range []string{"CANNED_FOOD", "canned food", "CannedFood", " Canned-Food "} {
			g, err := Parse(in)
			if err != nil {
				t.Fatalf("parse %q: %v", in, err)
			}
			if g != CannedFood {
				t.Fatalf("parse %q: expected CANNED_FOOD got %s", in, g)
			}
		}
	})
	t.Run("suggestion", func(t *testing.T) {
		_, err := Parse("grian")
		if err == nil {
			t.Fatalf("expected error")
		}
		if !strings.Contains(err.Error(), "did you mean GRAIN") {
			t.Fatalf("expected suggestion, got %v", err)
		}
	})
	t.Run("no suggestion", func(t *testing.T) {
		_, err := Parse("zzzzzzzzzz")
		if err == nil || strings.Contains(err.Error(), "did you mean") {
			t.Fatalf("expected plain error, got %v", err)
		}
	})
	t.Run("empty", func(t *testing.T) {
		if _, err := Parse("  "); err == nil {
			t.Fatalf("expected error for empty input")
		}
	})
}

func TestLess(t *testing.T) {
	if !Less(Grain, Transport) || Less(Transport, Grain) {
		t.Fatalf("declaration order not respected")
	}
	if !Less(Oil, Good("ZZZ")) {
		t.Fatalf("known goods sort before unknown")
	}
	if Name := CannedFood.Name(); Name != "Canned Food" {
		t.Fatalf("expected display name, got %q", Name)
	}
}
