package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"imperialism.ai/internal/protocol"
	"imperialism.ai/internal/sim/engine"
	"imperialism.ai/internal/sim/goods"
)

// plan is the standing order batch the bot submits every player turn.
type plan struct {
	Buy     map[goods.Good]uint32
	Sell    map[goods.Good]uint32
	Recruit uint32
}

func main() {
	var (
		url     = flag.String("url", "ws://localhost:8080/v1/ws", "ws url")
		nation  = flag.String("nation", "", "nation id to play")
		name    = flag.String("name", "bot", "client name")
		buy     = flag.String("buy", "", "standing buy interest, e.g. COAL:2,IRON:1")
		sell    = flag.String("sell", "", "standing sell offers, e.g. TIMBER:4")
		recruit = flag.Uint("recruit", 0, "workers to recruit each turn")
		turns   = flag.Int("turns", 0, "stop after this many player turns (0 = run until interrupted)")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[bot] ", log.LstdFlags|log.Lmicroseconds)
	if strings.TrimSpace(*nation) == "" {
		logger.Fatalf("missing -nation")
	}
	p := plan{Recruit: uint32(*recruit)}
	var err error
	if p.Buy, err = parseGoodQty(*buy); err != nil {
		logger.Fatalf("-buy: %v", err)
	}
	if p.Sell, err = parseGoodQty(*sell); err != nil {
		logger.Fatalf("-sell: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := run(ctx, *url, *nation, *name, p, *turns, logger); err != nil {
		logger.Fatalf("%v", err)
	}
}

// parseGoodQty parses GOOD:N pairs separated by commas.
func parseGoodQty(s string) (map[goods.Good]uint32, error) {
	out := map[goods.Good]uint32{}
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, qty, ok := strings.Cut(part, ":")
		if !ok {
			return nil, fmt.Errorf("%q: want GOOD:N", part)
		}
		g, err := goods.Parse(name)
		if err != nil {
			return nil, err
		}
		n, err := strconv.ParseUint(strings.TrimSpace(qty), 10, 32)
		if err != nil {
			return nil, fmt.Errorf("%q: %w", part, err)
		}
		out[g] = uint32(n)
	}
	return out, nil
}

func (p plan) order(turn uint64) protocol.OrderMsg {
	msg := protocol.OrderMsg{
		Type:            protocol.TypeOrder,
		ProtocolVersion: protocol.Version,
		OrderID:         fmt.Sprintf("bot-%d-%s", turn, uuid.NewString()[:8]),
	}
	add := func(side string, m map[goods.Good]uint32) {
		for _, g := range goods.MarketGoods() {
			if q, ok := m[g]; ok {
				msg.Orders = append(msg.Orders, protocol.OrderItem{
					Kind: protocol.OrderAdjustMarketOrder, Good: string(g), Side: side, Requested: q,
				})
			}
		}
	}
	add("SELL", p.Sell)
	add("BUY", p.Buy)
	if p.Recruit > 0 {
		msg.Orders = append(msg.Orders, protocol.OrderItem{Kind: protocol.OrderAdjustRecruitment, Requested: p.Recruit})
	}
	return msg
}

// run plays nationID until ctx ends, the connection drops or maxTurns player
// turns have been acknowledged.
func run(ctx context.Context, url, nationID, clientName string, p plan, maxTurns int, logger *log.Logger) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close()
	go func() {
		<-ctx.Done()
		_ = conn.SetReadDeadline(time.Now())
	}()

	hello := protocol.HelloMsg{
		Type:            protocol.TypeHello,
		ProtocolVersion: protocol.Version,
		NationID:        nationID,
		ClientName:      clientName,
	}
	if err := conn.WriteJSON(hello); err != nil {
		return fmt.Errorf("send HELLO: %w", err)
	}

	var lastOrdered uint64
	acked := 0
	submit := func(turn uint64) error {
		if turn == lastOrdered {
			return nil
		}
		lastOrdered = turn
		msg := p.order(turn)
		if len(msg.Orders) == 0 {
			acked++
			return nil
		}
		return conn.WriteJSON(msg)
	}

	for {
		if maxTurns > 0 && acked >= maxTurns {
			return nil
		}
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		base, err := protocol.DecodeBase(msg)
		if err != nil {
			continue
		}
		switch base.Type {
		case protocol.TypeWelcome:
			var w protocol.WelcomeMsg
			if err := json.Unmarshal(msg, &w); err != nil {
				continue
			}
			logger.Printf("WELCOME session=%s nation=%s turn=%d phase=%s", w.SessionID, w.NationID, w.Turn, w.Phase)
			if w.Phase == string(engine.PlayerTurn) {
				if err := submit(w.Turn); err != nil {
					return err
				}
			}

		case protocol.TypePhase:
			var ph protocol.PhaseMsg
			if err := json.Unmarshal(msg, &ph); err != nil {
				continue
			}
			if ph.Phase == string(engine.PlayerTurn) {
				if err := submit(ph.Turn); err != nil {
					return err
				}
			}

		case protocol.TypeAck:
			var ack protocol.AckMsg
			if err := json.Unmarshal(msg, &ack); err != nil {
				continue
			}
			if ack.Code != "" {
				return fmt.Errorf("order %s refused: %s %s", ack.OrderID, ack.Code, ack.Message)
			}
			for _, r := range ack.Results {
				if !r.Accepted {
					logger.Printf("turn %d: %s rejected: %s %s", ack.Turn, r.Kind, r.Code, r.Message)
				}
			}
			acked++
		}
	}
}
