package engine

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"sort"
	"sync/atomic"
	"time"

	"imperialism.ai/internal/persistence/snapshot"
	"imperialism.ai/internal/protocol"
	"imperialism.ai/internal/sim/catalogs"
	"imperialism.ai/internal/sim/economy/market"
	"imperialism.ai/internal/sim/economy/transport"
	"imperialism.ai/internal/sim/goods"
	"imperialism.ai/internal/sim/nation"
	"imperialism.ai/internal/sim/tuning"
)

type Config struct {
	ID string
	// ProcessingWorkers bounds concurrent per-nation processing.
	ProcessingWorkers  int
	SnapshotEveryTurns int
	// TurnDuration ends the player turn on a timer when > 0. Otherwise
	// phases only move on Advance.
	TurnDuration time.Duration
}

// ConfigFromTuning fills engine parameters from tuning.
func ConfigFromTuning(id string, t tuning.Tuning) Config {
	return Config{
		ID:                 id,
		ProcessingWorkers:  t.ProcessingWorkers,
		SnapshotEveryTurns: t.SnapshotEveryTurns,
		TurnDuration:       time.Duration(t.TurnSeconds) * time.Second,
	}
}

type JoinRequest struct {
	SessionID  string
	NationID   string
	ClientName string
	Out        chan []byte
	Resp       chan JoinResponse
}

type JoinResponse struct {
	Welcome protocol.WelcomeMsg
	State   protocol.StateMsg
	// Code is set when the join was refused.
	Code string
}

type OrderEnvelope struct {
	SessionID string
	Order     protocol.OrderMsg
}

type clientState struct {
	Nation string
	Out    chan []byte
}

// Engine is the authoritative turn simulation. All state is owned by the
// goroutine running Run; the synchronous methods are for tests, tools and
// the loop itself.
type Engine struct {
	cfg          Config
	catalogs     *catalogs.Catalogs
	tuning       tuning.Tuning
	tuningDigest string
	rules        nation.Rules
	logger       *log.Logger

	turn  atomic.Uint64
	phase Phase

	nations    map[string]*nation.Nation
	structures []transport.Structure
	rails      []transport.Rail
	transport  *transport.State
	prices     *market.Prices
	// supply is the host's per-nation report of connected production.
	supply map[string]map[goods.Good]uint32

	startReports map[string]nation.StartTurnReport
	lastTurn     *TurnLogEntry
	// orders applied this player turn
	orders []NationOrder

	clients map[string]*clientState

	inbox   chan OrderEnvelope
	join    chan JoinRequest
	leave   chan string
	advance chan struct{}
	stop    chan struct{}

	// Optional loggers (may be nil). Implemented in internal/persistence/log.
	turnLogger  TurnLogger
	auditLogger AuditLogger

	// Optional snapshot sink (may be nil). Snapshot writing should be off-thread.
	snapshotSink chan<- snapshot.SnapshotV1

	status atomic.Pointer[Status]
}

func New(cfg Config, cats *catalogs.Catalogs, t tuning.Tuning, logger *log.Logger) *Engine {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	if cfg.ProcessingWorkers <= 0 {
		cfg.ProcessingWorkers = 1
	}
	e := &Engine{
		cfg:          cfg,
		catalogs:     cats,
		tuning:       t,
		tuningDigest: digestJSON(t),
		rules:        nation.RulesFromTuning(t),
		logger:       logger,
		phase:        EnemyTurn,
		nations:      map[string]*nation.Nation{},
		transport:    transport.NewState(t.Transport.DepotCapacity, t.Transport.PortCapacity),
		prices:       market.NewPrices(t.BasePrices()),
		supply:       map[string]map[goods.Good]uint32{},
		startReports: map[string]nation.StartTurnReport{},
		clients:      map[string]*clientState{},
		inbox:        make(chan OrderEnvelope, 1024),
		join:         make(chan JoinRequest, 64),
		leave:        make(chan string, 64),
		advance:      make(chan struct{}, 8),
		stop:         make(chan struct{}),
	}
	return e
}

func (e *Engine) SetTurnLogger(l TurnLogger)                    { e.turnLogger = l }
func (e *Engine) SetAuditLogger(l AuditLogger)                  { e.auditLogger = l }
func (e *Engine) SetSnapshotSink(ch chan<- snapshot.SnapshotV1) { e.snapshotSink = ch }

func (e *Engine) Inbox() chan<- OrderEnvelope { return e.inbox }
func (e *Engine) Join() chan<- JoinRequest    { return e.join }
func (e *Engine) Leave() chan<- string        { return e.leave }

// RequestAdvance asks the loop to move to the next phase.
func (e *Engine) RequestAdvance() {
	select {
	case e.advance <- struct{}{}:
	default:
	}
}

func (e *Engine) CurrentTurn() uint64 { return e.turn.Load() }

func (e *Engine) Phase() Phase { return e.phase }

func (e *Engine) ID() string { return e.cfg.ID }

func (e *Engine) Catalogs() *catalogs.Catalogs { return e.catalogs }

func (e *Engine) Prices() *market.Prices { return e.prices }

func (e *Engine) Transport() *transport.State { return e.transport }

// LastTurn is the log entry of the most recent processing phase.
func (e *Engine) LastTurn() (TurnLogEntry, bool) {
	if e.lastTurn == nil {
		return TurnLogEntry{}, false
	}
	return *e.lastTurn, true
}

func (e *Engine) Run(ctx context.Context) error {
	if e.turn.Load() == 0 {
		e.Advance()
	}
	var timer <-chan time.Time
	if e.cfg.TurnDuration > 0 {
		ticker := time.NewTicker(e.cfg.TurnDuration)
		defer ticker.Stop()
		timer = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-e.stop:
			return nil
		case req := <-e.join:
			e.handleJoin(req)
		case id := <-e.leave:
			delete(e.clients, id)
			e.publishStatus()
		case env := <-e.inbox:
			e.handleOrder(env)
		case <-e.advance:
			e.Advance()
		case <-timer:
			e.EndTurn()
		}
	}
}

func (e *Engine) Stop() { close(e.stop) }

func (e *Engine) handleJoin(req JoinRequest) {
	resp := JoinResponse{}
	if _, ok := e.nations[req.NationID]; !ok {
		resp.Code = protocol.ErrNoNation
	} else {
		e.clients[req.SessionID] = &clientState{Nation: req.NationID, Out: req.Out}
		e.publishStatus()
		resp.Welcome = protocol.WelcomeMsg{
			Type:            protocol.TypeWelcome,
			ProtocolVersion: protocol.Version,
			SessionID:       req.SessionID,
			NationID:        req.NationID,
			Turn:            e.turn.Load(),
			Phase:           string(e.phase),
			Catalogs: protocol.CatalogDigests{
				GoodsDigest:     e.catalogs.Goods.Digest,
				BuildingsDigest: e.catalogs.Buildings.Digest,
				TuningDigest:    e.tuningDigest,
			},
		}
		resp.State = e.StateFor(req.NationID)
	}
	if req.Resp != nil {
		req.Resp <- resp
	}
}

func (e *Engine) handleOrder(env OrderEnvelope) {
	cl := e.clients[env.SessionID]
	if cl == nil {
		return
	}
	ack := e.Apply(cl.Nation, env.Order)
	e.send(cl.Out, ack)
	if ack.Code == "" {
		e.send(cl.Out, e.StateFor(cl.Nation))
	}
}

// StateFor builds the STATE message for one nation.
func (e *Engine) StateFor(nationID string) protocol.StateMsg {
	msg := protocol.StateMsg{
		Type:            protocol.TypeState,
		ProtocolVersion: protocol.Version,
		Turn:            e.turn.Load(),
		Phase:           string(e.phase),
		Prices:          map[string]uint32{},
	}
	if n := e.nations[nationID]; n != nil {
		msg.Nation = n.Summary()
		msg.Transport = e.transport.View(nationID)
	}
	for g, p := range e.prices.Table() {
		msg.Prices[string(g)] = p
	}
	return msg
}

func (e *Engine) broadcastPhase() {
	phase := protocol.PhaseMsg{
		Type:            protocol.TypePhase,
		ProtocolVersion: protocol.Version,
		Turn:            e.turn.Load(),
		Phase:           string(e.phase),
	}
	for _, id := range sortedKeys(e.clients) {
		cl := e.clients[id]
		e.send(cl.Out, phase)
		e.send(cl.Out, e.StateFor(cl.Nation))
	}
}

func (e *Engine) send(out chan []byte, v any) {
	if out == nil {
		return
	}
	b, err := json.Marshal(v)
	if err != nil {
		e.logger.Printf("marshal outbound: %v", err)
		return
	}
	sendLatest(out, b)
}

// sendLatest never blocks the loop: when the client is behind, the oldest
// queued message is dropped.
func sendLatest(ch chan []byte, b []byte) {
	select {
	case ch <- b:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- b:
	default:
	}
}

// AddNation creates a nation with the tuning's starting treasury, workers,
// provinces and buildings.
func (e *Engine) AddNation(id, name string, capital transport.Tile) (*nation.Nation, error) {
	if id == "" {
		return nil, fmt.Errorf("empty nation id")
	}
	if _, ok := e.nations[id]; ok {
		return nil, fmt.Errorf("nation %s already exists", id)
	}
	n := nation.New(id, name, &e.catalogs.Buildings, e.rules)
	n.Capital = capital
	n.Provinces = e.tuning.StartingProvinces
	n.Treasury.Total = e.tuning.StartingTreasury
	n.Workforce.AddUntrained(e.tuning.StartingWorkers)
	n.Workforce.RefreshLabor(n.Labor)
	for _, k := range e.tuning.StartingBuildings {
		if err := n.AddBuilding(catalogs.BuildingKind(k)); err != nil {
			return nil, fmt.Errorf("nation %s: building %s: %w", id, k, err)
		}
	}
	e.nations[id] = n
	return n, nil
}

func (e *Engine) Nation(id string) (*nation.Nation, bool) {
	n, ok := e.nations[id]
	return n, ok
}

// NationIDs lists nations in ID order, the engine's canonical order.
func (e *Engine) NationIDs() []string { return sortedKeys(e.nations) }

func (e *Engine) AddStructure(s transport.Structure) { e.structures = append(e.structures, s) }

func (e *Engine) AddRail(r transport.Rail) { e.rails = append(e.rails, r.Normalized()) }

func (e *Engine) Structures() []transport.Structure {
	return append([]transport.Structure(nil), e.structures...)
}

// SetConnectedSupply records how much of each good a nation produced in
// rail-connected provinces. It feeds the next demand snapshot.
func (e *Engine) SetConnectedSupply(nationID string, supply map[goods.Good]uint32) {
	cp := make(map[goods.Good]uint32, len(supply))
	for g, q := range supply {
		if q > 0 {
			cp[g] = q
		}
	}
	e.supply[nationID] = cp
}

func sortedKeys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func digestJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
