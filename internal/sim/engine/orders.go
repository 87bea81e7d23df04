package engine

import (
	"errors"
	"fmt"
	"strings"

	"imperialism.ai/internal/protocol"
	"imperialism.ai/internal/sim/catalogs"
	"imperialism.ai/internal/sim/economy/production"
	"imperialism.ai/internal/sim/economy/reservation"
	"imperialism.ai/internal/sim/economy/transport"
	"imperialism.ai/internal/sim/economy/workforce"
	"imperialism.ai/internal/sim/goods"
	"imperialism.ai/internal/sim/nation"
)

var (
	errBadRequest  = errors.New("bad request")
	errUnknownGood = errors.New("unknown good")
)

// Apply runs an order batch for a nation and returns the ACK. Items are
// applied in order; a rejected item does not stop the rest.
func (e *Engine) Apply(nationID string, msg protocol.OrderMsg) protocol.AckMsg {
	turn := e.turn.Load()
	ack := protocol.AckMsg{
		Type:            protocol.TypeAck,
		ProtocolVersion: protocol.Version,
		OrderID:         msg.OrderID,
		Turn:            turn,
		Results:         make([]protocol.OrderResult, 0, len(msg.Orders)),
	}
	n, ok := e.nations[nationID]
	if !ok {
		ack.Code = protocol.ErrNoNation
		ack.Message = fmt.Sprintf("unknown nation %q", nationID)
		return ack
	}
	if e.phase != PlayerTurn {
		ack.Code = protocol.ErrPhase
		ack.Message = fmt.Sprintf("orders are accepted only during %s (now %s)", PlayerTurn, e.phase)
		for i, it := range msg.Orders {
			ack.Results = append(ack.Results, protocol.OrderResult{Index: i, Kind: it.Kind, Code: protocol.ErrPhase})
		}
		e.audit(AuditEntry{Turn: turn, Nation: nationID, Action: "ORDER", OrderID: msg.OrderID, Code: protocol.ErrPhase, Reason: ack.Message})
		return ack
	}

	e.orders = append(e.orders, NationOrder{Nation: nationID, Order: msg})
	for i, it := range msg.Orders {
		applied, err := e.applyItem(n, it)
		res := protocol.OrderResult{Index: i, Kind: it.Kind, Accepted: err == nil, Applied: applied}
		if err != nil {
			res.Code = codeForError(err)
			res.Message = err.Error()
			e.audit(AuditEntry{Turn: turn, Nation: nationID, Action: it.Kind, OrderID: msg.OrderID, Code: res.Code, Reason: res.Message})
		}
		ack.Results = append(ack.Results, res)
	}
	return ack
}

func (e *Engine) applyItem(n *nation.Nation, it protocol.OrderItem) (uint32, error) {
	switch it.Kind {
	case protocol.OrderAdjustProduction:
		g, err := parseGood(it.Output)
		if err != nil {
			return 0, err
		}
		kind := catalogs.BuildingKind(strings.ToUpper(strings.TrimSpace(it.Building)))
		return n.AdjustProduction(kind, g, strings.TrimSpace(it.Choice), it.Target)

	case protocol.OrderAdjustRecruitment:
		return n.AdjustRecruitment(it.Requested)

	case protocol.OrderAdjustTraining:
		sk, err := workforce.ParseSkill(it.FromSkill)
		if err != nil {
			return 0, fmt.Errorf("%w: %v", nation.ErrBadSkill, err)
		}
		return n.AdjustTraining(sk, it.Requested)

	case protocol.OrderAdjustMarketOrder:
		g, err := parseGood(it.Good)
		if err != nil {
			return 0, err
		}
		side := nation.MarketOrderKind(strings.ToUpper(strings.TrimSpace(it.Side)))
		return n.AdjustMarketOrder(g, side, it.Requested)

	case protocol.OrderTransportAllocation:
		c, ok := transport.ParseCommodity(strings.ToUpper(strings.TrimSpace(it.Commodity)))
		if !ok {
			return 0, fmt.Errorf("%w: unknown commodity %q", errBadRequest, it.Commodity)
		}
		return e.transport.SetRequest(n.ID, c, it.Requested), nil

	default:
		return 0, fmt.Errorf("%w: unknown order kind %q", errBadRequest, it.Kind)
	}
}

func parseGood(s string) (goods.Good, error) {
	g, err := goods.Parse(s)
	if err != nil {
		return "", fmt.Errorf("%w: %v", errUnknownGood, err)
	}
	return g, nil
}

func codeForError(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, reservation.ErrInsufficientGoods):
		return protocol.ErrInsufficientGoods
	case errors.Is(err, reservation.ErrInsufficientLabor):
		return protocol.ErrInsufficientLabor
	case errors.Is(err, reservation.ErrInsufficientFunds):
		return protocol.ErrInsufficientFunds
	case errors.Is(err, nation.ErrCapacity):
		return protocol.ErrCapacity
	case errors.Is(err, production.ErrMissingRecipeVariant):
		return protocol.ErrMissingVariant
	case errors.Is(err, errUnknownGood), errors.Is(err, nation.ErrNotMarketGood):
		return protocol.ErrUnknownGood
	case errors.Is(err, errBadRequest),
		errors.Is(err, nation.ErrUnknownBuilding),
		errors.Is(err, nation.ErrUnknownOutput),
		errors.Is(err, nation.ErrBadSkill),
		errors.Is(err, nation.ErrBadOrderKind):
		return protocol.ErrBadRequest
	default:
		return protocol.ErrInternal
	}
}
