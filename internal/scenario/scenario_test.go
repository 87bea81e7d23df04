package scenario

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"imperialism.ai/internal/sim/catalogs"
	"imperialism.ai/internal/sim/engine"
	"imperialism.ai/internal/sim/goods"
	"imperialism.ai/internal/sim/tuning"
)

func findRepoRoot(t *testing.T) string {
	t.Helper()
	dir, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			t.Fatalf("could not find repo root from %s", dir)
		}
		dir = parent
	}
}

func TestLoadAndApplyTwoNations(t *testing.T) {
	root := findRepoRoot(t)
	sc, err := Load(filepath.Join(root, "configs", "scenarios", "two_nations.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if sc.Name != "two_nations" || sc.Turns != 4 || len(sc.Nations) != 2 {
		t.Fatalf("unexpected scenario %+v", sc)
	}

	cats, err := catalogs.Load(filepath.Join(root, "configs"))
	if err != nil {
		t.Fatalf("load catalogs: %v", err)
	}
	tun, err := tuning.Load(filepath.Join(root, "configs", "tuning.yaml"))
	if err != nil {
		t.Fatalf("load tuning: %v", err)
	}
	e := engine.New(engine.Config{ID: "sc"}, cats, tun, nil)
	if err := sc.Apply(e); err != nil {
		t.Fatalf("apply: %v", err)
	}

	a, ok := e.Nation("A")
	if !ok {
		t.Fatalf("expected nation A")
	}
	if _, ok := a.Buildings[catalogs.Railyard]; !ok {
		t.Fatalf("expected A to own a railyard")
	}
	if a.Stockpile.Get(goods.Coal) != 20 {
		t.Fatalf("expected A coal 20, got %d", a.Stockpile.Get(goods.Coal))
	}
	b, _ := e.Nation("B")
	if b.Treasury.Total != 20000 {
		t.Fatalf("expected B treasury 20000, got %d", b.Treasury.Total)
	}
	if got := len(e.Structures()); got != 3 {
		t.Fatalf("expected 3 structures, got %d", got)
	}

	if e.Advance() != engine.PlayerTurn {
		t.Fatalf("expected player turn")
	}
	batches := sc.OrdersFor(1)
	if len(batches) != 2 || batches[0].Nation != "A" || batches[1].Nation != "B" {
		t.Fatalf("unexpected turn 1 orders %+v", batches)
	}
	for _, no := range batches {
		ack := e.Apply(no.Nation, no.Order)
		if ack.Code != "" {
			t.Fatalf("expected batch for %s to be applied, got %s", no.Nation, ack.Code)
		}
	}
	e.Advance()

	last, ok := e.LastTurn()
	if !ok {
		t.Fatalf("expected a turn log entry")
	}
	if len(last.Trades) != 6 {
		t.Fatalf("expected 6 coal trades, got %d", len(last.Trades))
	}
	if b.Stockpile.Get(goods.Coal) != 6 {
		t.Fatalf("expected B coal 6, got %d", b.Stockpile.Get(goods.Coal))
	}
	if len(sc.OrdersFor(3)) != 0 {
		t.Fatalf("expected no scripted orders for turn 3")
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name string
		yaml string
		want string
	}{
		{"no nations", "name: x\n", "no nations"},
		{"duplicate", "nations: [{id: A}, {id: A}]\n", "duplicate nation"},
		{"bad structure", "nations: [{id: A}]\nstructures: [{kind: FORT, owner: A}]\n", "structure kind"},
		{"foreign owner", "nations: [{id: A}]\nstructures: [{kind: DEPOT, owner: B}]\n", "not a nation"},
		{"turn zero", "nations: [{id: A}]\norders: [{turn: 0, nation: A}]\n", "turn must be"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "s.yaml")
			if err := os.WriteFile(path, []byte(tc.yaml), 0o644); err != nil {
				t.Fatalf("write: %v", err)
			}
			_, err := Load(path)
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error containing %q, got %v", tc.want, err)
			}
		})
	}
}
