package protocol

import "encoding/json"

const Version = "1.0"

// Message types.
const (
	TypeHello   = "HELLO"
	TypeWelcome = "WELCOME"
	TypeOrder   = "ORDER"
	TypeAck     = "ACK"
	TypeState   = "STATE"
	TypePhase   = "PHASE"
)

// Order item kinds.
const (
	OrderAdjustProduction    = "ADJUST_PRODUCTION"
	OrderAdjustRecruitment   = "ADJUST_RECRUITMENT"
	OrderAdjustTraining      = "ADJUST_TRAINING"
	OrderAdjustMarketOrder   = "ADJUST_MARKET_ORDER"
	OrderTransportAllocation = "TRANSPORT_ALLOCATION"
)

// BaseMessage lets us route unknown JSON messages by type.
type BaseMessage struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version,omitempty"`
}

func DecodeBase(b []byte) (BaseMessage, error) {
	var m BaseMessage
	err := json.Unmarshal(b, &m)
	return m, err
}
