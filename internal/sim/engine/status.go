package engine

import (
	"imperialism.ai/internal/sim/economy/transport"
	"imperialism.ai/internal/sim/nation"
)

// Status is a read-only copy of the engine published after every phase
// change. It is safe to read from any goroutine.
type Status struct {
	EngineID  string                          `json:"engine_id"`
	Turn      uint64                          `json:"turn"`
	Phase     Phase                           `json:"phase"`
	Nations   []nation.Summary                `json:"nations"`
	Transport map[string]transport.NationView `json:"transport"`
	Prices    map[string]uint32               `json:"prices"`
	Trades    int                             `json:"last_trades"`
	Digest    string                          `json:"last_digest,omitempty"`
	Clients   int                             `json:"clients"`
}

// Status returns the latest published status, or nil before the first
// phase change.
func (e *Engine) Status() *Status { return e.status.Load() }

func (e *Engine) publishStatus() {
	st := &Status{
		EngineID:  e.cfg.ID,
		Turn:      e.turn.Load(),
		Phase:     e.phase,
		Transport: map[string]transport.NationView{},
		Prices:    map[string]uint32{},
		Clients:   len(e.clients),
	}
	for _, id := range e.NationIDs() {
		st.Nations = append(st.Nations, e.nations[id].Summary())
		st.Transport[id] = e.transport.View(id)
	}
	for g, p := range e.prices.Table() {
		st.Prices[string(g)] = p
	}
	if e.lastTurn != nil {
		st.Trades = len(e.lastTurn.Trades)
		st.Digest = e.lastTurn.Digest
	}
	e.status.Store(st)
}
