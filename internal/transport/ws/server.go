package ws

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"imperialism.ai/internal/protocol"
	"imperialism.ai/internal/sim/engine"
)

const outQueue = 32

type Server struct {
	engine *engine.Engine
	log    *log.Logger

	upgrader websocket.Upgrader
}

func NewServer(e *engine.Engine, logger *log.Logger) *Server {
	return &Server{
		engine: e,
		log:    logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  16 * 1024,
			WriteBufferSize: 16 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
	}
}

func (s *Server) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		sessionID, out := s.handshake(conn)
		if sessionID == "" {
			return
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		// Writer goroutine. Protocol errors are written here too so only one
		// goroutine touches the connection for writes.
		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case b, ok := <-out:
					if !ok {
						return
					}
					_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
					if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
						cancel()
						return
					}
				}
			}
		}()

		for {
			_ = conn.SetReadDeadline(time.Now().Add(5 * time.Minute))
			_, msg, err := conn.ReadMessage()
			if err != nil {
				cancel()
				break
			}
			order, code, reason := decodeOrder(msg)
			if code != "" {
				s.reject(out, order.OrderID, code, reason)
				continue
			}
			select {
			case s.engine.Inbox() <- engine.OrderEnvelope{SessionID: sessionID, Order: order}:
			case <-ctx.Done():
			}
		}

		s.engine.Leave() <- sessionID
	}
}

// decodeOrder checks an inbound frame against the ORDER schema. Frames of
// other types are refused with a protocol error.
func decodeOrder(msg []byte) (protocol.OrderMsg, string, string) {
	var order protocol.OrderMsg
	base, err := protocol.DecodeBase(msg)
	if err != nil {
		return order, protocol.ErrProtoBadRequest, "invalid json"
	}
	if base.Type != protocol.TypeOrder {
		return order, protocol.ErrProtoBadRequest, "unexpected message type " + base.Type
	}
	if base.ProtocolVersion != protocol.Version {
		return order, protocol.ErrProtoBadRequest, "bad protocol_version"
	}
	if err := protocol.Validate(protocol.TypeOrder, msg); err != nil {
		_ = json.Unmarshal(msg, &order)
		return order, protocol.ErrProtoBadRequest, err.Error()
	}
	if err := json.Unmarshal(msg, &order); err != nil {
		return order, protocol.ErrProtoBadRequest, err.Error()
	}
	return order, "", ""
}

func (s *Server) reject(out chan []byte, orderID, code, reason string) {
	b, err := json.Marshal(protocol.AckMsg{
		Type:            protocol.TypeAck,
		ProtocolVersion: protocol.Version,
		OrderID:         orderID,
		Turn:            s.engine.CurrentTurn(),
		Code:            code,
		Message:         reason,
	})
	if err != nil {
		return
	}
	select {
	case out <- b:
	default:
	}
}

func (s *Server) handshake(conn *websocket.Conn) (sessionID string, out chan []byte) {
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		return "", nil
	}

	base, err := protocol.DecodeBase(msg)
	if err != nil || base.Type != protocol.TypeHello {
		closeWith(conn, "expected HELLO")
		return "", nil
	}
	if base.ProtocolVersion != protocol.Version {
		closeWith(conn, "bad protocol_version")
		return "", nil
	}
	if err := protocol.Validate(protocol.TypeHello, msg); err != nil {
		closeWith(conn, protocol.ErrProtoBadRequest)
		return "", nil
	}
	var hello protocol.HelloMsg
	if err := json.Unmarshal(msg, &hello); err != nil {
		return "", nil
	}
	if hello.ClientName == "" {
		hello.ClientName = "client"
	}

	sessionID = uuid.NewString()
	out = make(chan []byte, outQueue)
	respCh := make(chan engine.JoinResponse, 1)
	s.engine.Join() <- engine.JoinRequest{
		SessionID:  sessionID,
		NationID:   strings.TrimSpace(hello.NationID),
		ClientName: hello.ClientName,
		Out:        out,
		Resp:       respCh,
	}
	resp := <-respCh
	if resp.Code != "" {
		_ = writeJSON(conn, protocol.AckMsg{
			Type:            protocol.TypeAck,
			ProtocolVersion: protocol.Version,
			Turn:            s.engine.CurrentTurn(),
			Code:            resp.Code,
			Message:         "unknown nation " + hello.NationID,
		})
		closeWith(conn, resp.Code)
		return "", nil
	}
	if s.log != nil {
		s.log.Printf("session %s joined as %s (%s)", sessionID, hello.NationID, hello.ClientName)
	}

	if err := writeJSON(conn, resp.Welcome); err != nil {
		s.engine.Leave() <- sessionID
		return "", nil
	}
	if err := writeJSON(conn, resp.State); err != nil {
		s.engine.Leave() <- sessionID
		return "", nil
	}
	return sessionID, out
}

func closeWith(conn *websocket.Conn, reason string) {
	_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, reason), time.Now().Add(time.Second))
}

func writeJSON(conn *websocket.Conn, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	return conn.WriteMessage(websocket.TextMessage, b)
}
