package observer

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"imperialism.ai/internal/sim/catalogs"
	"imperialism.ai/internal/sim/economy/transport"
	"imperialism.ai/internal/sim/engine"
	"imperialism.ai/internal/sim/tuning"
)

func newEngine(t *testing.T) *engine.Engine {
	t.Helper()
	dir, _ := os.Getwd()
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			break
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			t.Fatalf("could not find repo root")
		}
		dir = parent
	}
	cats, err := catalogs.Load(filepath.Join(dir, "configs"))
	if err != nil {
		t.Fatalf("load catalogs: %v", err)
	}
	e := engine.New(engine.Config{ID: "obs"}, cats, tuning.Defaults(), nil)
	if _, err := e.AddNation("A", "Aland", transport.Tile{}); err != nil {
		t.Fatalf("add nation: %v", err)
	}
	return e
}

func TestStatusHandler(t *testing.T) {
	e := newEngine(t)
	s := NewServer(e, nil)

	rec := httptest.NewRecorder()
	s.StatusHandler()(rec, httptest.NewRequest(http.MethodGet, "/v1/status", nil))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected non-loopback to be forbidden, got %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/v1/status", nil)
	req.RemoteAddr = "127.0.0.1:5555"
	rec = httptest.NewRecorder()
	s.StatusHandler()(rec, req)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 before first phase, got %d", rec.Code)
	}

	e.Advance()
	rec = httptest.NewRecorder()
	s.StatusHandler()(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var st engine.Status
	if err := json.Unmarshal(rec.Body.Bytes(), &st); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if st.Turn != 1 || st.Phase != engine.PlayerTurn || len(st.Nations) != 1 || st.Nations[0].ID != "A" {
		t.Fatalf("unexpected status %+v", st)
	}
}

func TestWSHandlerPushesStatus(t *testing.T) {
	e := newEngine(t)
	e.Advance()
	s := NewServer(e, nil)
	s.poll = 10 * time.Millisecond

	srv := httptest.NewServer(s.WSHandler())
	defer srv.Close()
	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	_ = conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var st engine.Status
	if err := json.Unmarshal(msg, &st); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if st.Turn != 1 || st.EngineID != "obs" {
		t.Fatalf("unexpected status %+v", st)
	}
}
