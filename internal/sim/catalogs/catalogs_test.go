package catalogs

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"imperialism.ai/internal/sim/goods"
)

func TestLoad_DefaultConfigs(t *testing.T) {
	cats, err := Load(filepath.Join("..", "..", "..", "configs"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cats.Buildings.Digest == "" || cats.Goods.Digest == "" {
		t.Fatalf("expected digests")
	}
	if len(cats.Buildings.Order) != 9 || cats.Buildings.Order[0] != TextileMill {
		t.Fatalf("unexpected building order: %v", cats.Buildings.Order)
	}

	steel, ok := cats.Buildings.Get(SteelMill)
	if !ok || steel.Capacity != 4 {
		t.Fatalf("expected steel mill with capacity 4, got %+v", steel)
	}
	if v := steel.VariantsFor(goods.Steel); len(v) != 1 || v[0].Tag != "" || len(v[0].Inputs) != 2 {
		t.Fatalf("unexpected steel variants: %+v", v)
	}

	lumber, _ := cats.Buildings.Get(LumberMill)
	outs := lumber.Outputs()
	if len(outs) != 2 || outs[0] != goods.Lumber || outs[1] != goods.Paper {
		t.Fatalf("unexpected lumber mill outputs: %v", outs)
	}

	food, _ := cats.Buildings.Get(FoodProcessing)
	if p := food.Variants[0].Primary(); p.Good != goods.CannedFood || p.Amount != 2 {
		t.Fatalf("unexpected canned food primary: %+v", p)
	}

	rail, _ := cats.Buildings.Get(Railyard)
	if rail.Capacity != 0 || !rail.Produces(goods.Transport) {
		t.Fatalf("expected unlimited railyard producing transport, got %+v", rail)
	}
}

func TestFromBuildingsJSON_Validation(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want string
	}{
		{"bad json", `{`, "buildings.json"},
		{"empty kind", `[{"kind":"","variants":[{"outputs":[{"good":"STEEL","amount":1}]}]}]`, "empty kind"},
		{"no variants", `[{"kind":"X"}]`, "no variants"},
		{"no outputs", `[{"kind":"X","variants":[{"inputs":[]}]}]`, "no outputs"},
		{"unknown good", `[{"kind":"X","variants":[{"outputs":[{"good":"SPICE","amount":1}]}]}]`, "unknown good"},
		{"duplicate tag", `[{"kind":"X","variants":[{"tag":"a","outputs":[{"good":"STEEL","amount":1}]},{"tag":"a","outputs":[{"good":"STEEL","amount":1}]}]}]`, "duplicate tag"},
		{"duplicate kind", `[{"kind":"X","variants":[{"outputs":[{"good":"STEEL","amount":1}]}]},{"kind":"X","variants":[{"outputs":[{"good":"STEEL","amount":1}]}]}]`, "duplicate kind"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := FromBuildingsJSON([]byte(c.raw))
			if err == nil || !strings.Contains(err.Error(), c.want) {
				t.Fatalf("expected error containing %q, got %v", c.want, err)
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	dir := t.TempDir()
	if _, err := Load(dir); err == nil || !os.IsNotExist(err) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
}
