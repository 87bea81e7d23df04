package engine

import (
	"imperialism.ai/internal/protocol"
	"imperialism.ai/internal/sim/economy/market"
	"imperialism.ai/internal/sim/economy/production"
	"imperialism.ai/internal/sim/economy/workforce"
	"imperialism.ai/internal/sim/goods"
	"imperialism.ai/internal/sim/nation"
)

type TurnLogger interface {
	WriteTurn(entry TurnLogEntry) error
}

type AuditLogger interface {
	WriteAudit(entry AuditEntry) error
}

// TurnLogEntry is written once per processing phase.
type TurnLogEntry struct {
	Turn         uint64                       `json:"turn"`
	Nations      []NationTurnReport           `json:"nations"`
	Trades       []market.PlannedTrade        `json:"trades,omitempty"`
	FailedTrades []market.FailedTrade         `json:"failed_trades,omitempty"`
	Volumes      map[goods.Good]market.Volume `json:"volumes,omitempty"`
	Prices       map[goods.Good]uint32        `json:"prices"`

	// Orders are the batches applied during the player turn, in arrival
	// order. Replaying them over the previous turn's state reproduces Digest.
	Orders []NationOrder `json:"orders,omitempty"`
	Digest string        `json:"digest"`
}

type NationTurnReport struct {
	Nation         string                     `json:"nation"`
	Start          nation.StartTurnReport     `json:"start"`
	Recruited      uint32                     `json:"recruited,omitempty"`
	Trained        map[workforce.Skill]uint32 `json:"trained,omitempty"`
	Production     []production.Report        `json:"production,omitempty"`
	Shortfalls     []production.Shortfall     `json:"shortfalls,omitempty"`
	TransportBuilt uint32                     `json:"transport_built,omitempty"`
}

// NationOrder is an order batch attributed to a nation without a session,
// as submitted by scripted runs.
type NationOrder struct {
	Nation string            `json:"nation"`
	Order  protocol.OrderMsg `json:"order"`
}

type AuditEntry struct {
	Turn    uint64 `json:"turn"`
	Nation  string `json:"nation"`
	Action  string `json:"action"` // order kind, or TRADE
	OrderID string `json:"order_id,omitempty"`
	Code    string `json:"code,omitempty"`
	Reason  string `json:"reason,omitempty"`
}

func (e *Engine) audit(a AuditEntry) {
	if e.auditLogger == nil {
		return
	}
	if err := e.auditLogger.WriteAudit(a); err != nil {
		e.logger.Printf("audit log: %v", err)
	}
}
