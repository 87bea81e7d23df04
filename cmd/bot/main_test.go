package main

import (
	"context"
	"io"
	"log"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"imperialism.ai/internal/protocol"
	"imperialism.ai/internal/sim/catalogs"
	"imperialism.ai/internal/sim/economy/transport"
	"imperialism.ai/internal/sim/engine"
	"imperialism.ai/internal/sim/goods"
	"imperialism.ai/internal/sim/tuning"
	"imperialism.ai/internal/transport/ws"
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

func TestParseGoodQty(t *testing.T) {
	got, err := parseGoodQty(" coal:2, IRON:1 ,")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(got) != 2 || got[goods.Coal] != 2 || got[goods.Iron] != 1 {
		t.Fatalf("unexpected result %v", got)
	}
	for _, bad := range []string{"COAL", "COAL:x", "UNOBTAINIUM:1"} {
		if _, err := parseGoodQty(bad); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}

func TestPlanOrder(t *testing.T) {
	p := plan{
		Buy:     map[goods.Good]uint32{goods.Coal: 2},
		Sell:    map[goods.Good]uint32{goods.Iron: 1},
		Recruit: 1,
	}
	msg := p.order(7)
	if msg.Type != protocol.TypeOrder || !strings.HasPrefix(msg.OrderID, "bot-7-") {
		t.Fatalf("unexpected header %+v", msg)
	}
	if len(msg.Orders) != 3 {
		t.Fatalf("expected 3 items, got %d", len(msg.Orders))
	}
	if msg.Orders[0].Side != "SELL" || msg.Orders[1].Side != "BUY" || msg.Orders[2].Kind != protocol.OrderAdjustRecruitment {
		t.Fatalf("unexpected item order %+v", msg.Orders)
	}
}

func TestRunSubmitsOnPlayerTurn(t *testing.T) {
	cats, err := catalogs.Load(filepath.Join(findRepoRoot(t), "configs"))
	if err != nil {
		t.Fatalf("load catalogs: %v", err)
	}
	e := engine.New(engine.Config{ID: "bot-test"}, cats, tuning.Defaults(), nil)
	if _, err := e.AddNation("A", "Aland", transport.Tile{}); err != nil {
		t.Fatalf("add nation: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	go func() { _ = e.Run(ctx) }()
	srv := httptest.NewServer(ws.NewServer(e, nil).Handler())
	defer srv.Close()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")

	logger := log.New(io.Discard, "", 0)
	p := plan{Buy: map[goods.Good]uint32{goods.Coal: 2}}
	if err := run(ctx, url, "A", "test", p, 1, logger); err != nil {
		t.Fatalf("run: %v", err)
	}
	if err := run(ctx, url, "ZZ", "test", p, 1, logger); err == nil || !strings.Contains(err.Error(), protocol.ErrNoNation) {
		t.Fatalf("expected %s, got %v", protocol.ErrNoNation, err)
	}
}
