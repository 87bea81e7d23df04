package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"time"

	"imperialism.ai/internal/config"
	"imperialism.ai/internal/persistence/indexdb"
	persistlog "imperialism.ai/internal/persistence/log"
	"imperialism.ai/internal/persistence/snapshot"
	"imperialism.ai/internal/scenario"
	"imperialism.ai/internal/sim/catalogs"
	"imperialism.ai/internal/sim/engine"
	"imperialism.ai/internal/sim/tuning"
	"imperialism.ai/internal/transport/observer"
	"imperialism.ai/internal/transport/ws"
)

func main() {
	var cfg config.Server
	flag.StringVar(&cfg.Addr, "addr", ":8080", "http listen address")
	flag.StringVar(&cfg.EngineID, "game", "game_1", "game id")
	flag.StringVar(&cfg.ConfigDir, "configs", "./configs", "config directory")
	flag.StringVar(&cfg.DataDir, "data", "./data", "runtime data directory")
	flag.StringVar(&cfg.TuningPath, "tuning", "", "path to tuning.yaml (default: <configs>/tuning.yaml)")
	flag.StringVar(&cfg.ScenarioPath, "scenario", "./configs/scenarios/two_nations.yaml", "scenario used to seed a fresh game")
	flag.StringVar(&cfg.SnapshotPath, "snapshot", "", "path to snapshot to load (optional)")
	flag.BoolVar(&cfg.LoadLatestSnapshot, "load_latest_snapshot", true, "load latest snapshot from data dir if present (when -snapshot is empty)")
	flag.BoolVar(&cfg.DisableDB, "disable_db", false, "disable the sqlite index (turns, trades, prices, audit)")
	flag.BoolVar(&cfg.EnableAdminHTTP, "admin_http", defaultEnableAdminHTTP(), "enable loopback-only admin endpoints")
	flag.IntVar(&cfg.TurnSeconds, "turn_seconds", -1, "player turn length in seconds (0 = advance only on request, -1 = tuning value)")
	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lmicroseconds)

	if err := cfg.ApplyEnv(); err != nil {
		logger.Fatalf("config: %v", err)
	}

	cats, err := catalogs.Load(cfg.ConfigDir)
	if err != nil {
		logger.Fatalf("load catalogs: %v", err)
	}

	gameDir := cfg.GameDir()
	_ = os.MkdirAll(gameDir, 0o755)

	snapshotToLoad := strings.TrimSpace(cfg.SnapshotPath)
	if snapshotToLoad == "" && cfg.LoadLatestSnapshot {
		snapshotToLoad = snapshot.Latest(cfg.SnapshotDir())
	}

	tune, tuneErr := tuning.Load(cfg.Tuning())
	if tuneErr != nil {
		if snapshotToLoad == "" || !os.IsNotExist(tuneErr) {
			logger.Fatalf("load tuning: %v", tuneErr)
		}
		logger.Printf("tuning not found (%s); using defaults", cfg.Tuning())
		tune = tuning.Defaults()
	}
	if cfg.TurnSeconds >= 0 {
		tune.TurnSeconds = cfg.TurnSeconds
	}

	var idx *indexdb.SQLiteIndex
	if !cfg.DisableDB {
		idx, err = indexdb.OpenSQLite(filepath.Join(gameDir, "index.db"))
		if err != nil {
			logger.Fatalf("open index: %v", err)
		}
		defer idx.Close()
		if err := idx.UpsertCatalogs(cfg.ConfigDir, cats, tune); err != nil {
			logger.Printf("index: upsert catalogs: %v", err)
		}
	}

	e := engine.New(engine.ConfigFromTuning(cfg.EngineID, tune), cats, tune, logger)

	if snapshotToLoad != "" {
		snap, err := snapshot.ReadSnapshot(snapshotToLoad)
		if err != nil {
			logger.Fatalf("read snapshot: %v", err)
		}
		if snap.Header.EngineID != "" && snap.Header.EngineID != cfg.EngineID {
			logger.Fatalf("snapshot game id mismatch: flag=%s snap=%s", cfg.EngineID, snap.Header.EngineID)
		}
		if err := e.ImportSnapshot(snap); err != nil {
			logger.Fatalf("import snapshot: %v", err)
		}
		logger.Printf("resumed from snapshot=%s turn=%d phase=%s", filepath.Base(snapshotToLoad), e.CurrentTurn(), e.Phase())
	} else {
		sc, err := scenario.Load(cfg.ScenarioPath)
		if err != nil {
			logger.Fatalf("load scenario: %v", err)
		}
		if err := sc.Apply(e); err != nil {
			logger.Fatalf("apply scenario: %v", err)
		}
		logger.Printf("new game from scenario=%s nations=%d", sc.Name, len(e.NationIDs()))
	}

	ctx, cancel := signalContext()
	defer cancel()

	turnLog := persistlog.NewTurnLogger(gameDir)
	auditLog := persistlog.NewAuditLogger(gameDir)
	defer turnLog.Close()
	defer auditLog.Close()
	var turnIdx engine.TurnLogger
	var auditIdx engine.AuditLogger
	if idx != nil {
		turnIdx, auditIdx = idx, idx
	}
	e.SetTurnLogger(multiTurnLogger{a: turnLog, b: turnIdx})
	e.SetAuditLogger(multiAuditLogger{a: auditLog, b: auditIdx})

	// Snapshot writer.
	snapCh := make(chan snapshot.SnapshotV1, 2)
	e.SetSnapshotSink(snapCh)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case snap := <-snapCh:
				path := snapshot.PathFor(cfg.SnapshotDir(), snap.Header.Turn)
				if err := snapshot.WriteSnapshot(path, snap); err != nil {
					logger.Printf("snapshot write: %v", err)
					continue
				}
				if idx != nil {
					idx.RecordSnapshot(path, snap)
				}
			}
		}
	}()

	go func() {
		if err := e.Run(ctx); err != nil && err != context.Canceled {
			logger.Printf("engine stopped: %v", err)
		}
	}()

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(200)
		_, _ = rw.Write([]byte("ok"))
	})
	mux.HandleFunc("/metrics", func(rw http.ResponseWriter, r *http.Request) {
		rw.Header().Set("Content-Type", "text/plain; version=0.0.4")
		writeMetrics(rw, cfg.EngineID, e.Status(), idx)
	})

	if cfg.EnableAdminHTTP {
		obsSrv := observer.NewServer(e, logger)
		mux.HandleFunc("/admin/v1/status", obsSrv.StatusHandler())
		mux.HandleFunc("/admin/v1/observer/ws", obsSrv.WSHandler())
		mux.HandleFunc("/admin/v1/advance", func(rw http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				rw.WriteHeader(http.StatusMethodNotAllowed)
				return
			}
			if !isLoopbackRequest(r) {
				http.Error(rw, "forbidden", http.StatusForbidden)
				return
			}
			e.RequestAdvance()
			rw.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(rw).Encode(map[string]any{"ok": true, "turn": e.CurrentTurn()})
		})
		mux.HandleFunc("/debug/pprof/", pprof.Index)
		mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
		mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
		mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	} else {
		logger.Printf("admin endpoints disabled (IMP_ENABLE_ADMIN_HTTP=false)")
	}
	mux.HandleFunc("/v1/ws", ws.NewServer(e, logger).Handler())

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel2()
		_ = srv.Shutdown(ctx2)
	}()

	logger.Printf("listening on %s game=%s turn_seconds=%d", cfg.Addr, cfg.EngineID, tune.TurnSeconds)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("ListenAndServe: %v", err)
	}
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ch
		cancel()
	}()
	return ctx, cancel
}

func defaultEnableAdminHTTP() bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv("DEPLOY_ENV"))) {
	case "staging", "production":
		return false
	default:
		return true
	}
}

// writeMetrics renders the Prometheus text format by hand; the server has
// a handful of gauges.
func writeMetrics(rw http.ResponseWriter, id string, st *engine.Status, idx *indexdb.SQLiteIndex) {
	if st == nil {
		return
	}
	fmt.Fprintf(rw, "# HELP imperialism_turn Current turn.\n")
	fmt.Fprintf(rw, "# TYPE imperialism_turn gauge\n")
	fmt.Fprintf(rw, "imperialism_turn{game=%q} %d\n", id, st.Turn)

	fmt.Fprintf(rw, "# HELP imperialism_clients Connected client sessions.\n")
	fmt.Fprintf(rw, "# TYPE imperialism_clients gauge\n")
	fmt.Fprintf(rw, "imperialism_clients{game=%q} %d\n", id, st.Clients)

	fmt.Fprintf(rw, "# HELP imperialism_last_trades Trades committed in the last processing phase.\n")
	fmt.Fprintf(rw, "# TYPE imperialism_last_trades gauge\n")
	fmt.Fprintf(rw, "imperialism_last_trades{game=%q} %d\n", id, st.Trades)

	fmt.Fprintf(rw, "# HELP imperialism_treasury Nation treasury total.\n")
	fmt.Fprintf(rw, "# TYPE imperialism_treasury gauge\n")
	for _, n := range st.Nations {
		fmt.Fprintf(rw, "imperialism_treasury{game=%q,nation=%q} %d\n", id, n.ID, n.Treasury)
	}

	fmt.Fprintf(rw, "# HELP imperialism_price Persistent market price per good.\n")
	fmt.Fprintf(rw, "# TYPE imperialism_price gauge\n")
	for _, g := range sortedKeys(st.Prices) {
		fmt.Fprintf(rw, "imperialism_price{game=%q,good=%q} %d\n", id, g, st.Prices[g])
	}

	if idx != nil {
		fmt.Fprintf(rw, "# HELP imperialism_index_dropped_total Index writes dropped under backpressure.\n")
		fmt.Fprintf(rw, "# TYPE imperialism_index_dropped_total counter\n")
		fmt.Fprintf(rw, "imperialism_index_dropped_total{game=%q} %d\n", id, idx.Dropped())
	}
}

type multiTurnLogger struct {
	a engine.TurnLogger
	b engine.TurnLogger
}

func (m multiTurnLogger) WriteTurn(entry engine.TurnLogEntry) error {
	if m.a != nil {
		_ = m.a.WriteTurn(entry)
	}
	if m.b != nil {
		_ = m.b.WriteTurn(entry)
	}
	return nil
}

type multiAuditLogger struct {
	a engine.AuditLogger
	b engine.AuditLogger
}

func (m multiAuditLogger) WriteAudit(entry engine.AuditEntry) error {
	if m.a != nil {
		_ = m.a.WriteAudit(entry)
	}
	if m.b != nil {
		_ = m.b.WriteAudit(entry)
	}
	return nil
}

func isLoopbackRequest(r *http.Request) bool {
	host := r.RemoteAddr
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	host = strings.TrimSuffix(strings.TrimPrefix(host, "["), "]")
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

func sortedKeys(m map[string]uint32) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
