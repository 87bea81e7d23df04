package protocol

// HELLO (client -> server)
type HelloMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	NationID        string `json:"nation_id"`
	ClientName      string `json:"client_name,omitempty"`
}

// WELCOME (server -> client)
type WelcomeMsg struct {
	Type            string         `json:"type"`
	ProtocolVersion string         `json:"protocol_version"`
	SessionID       string         `json:"session_id"`
	NationID        string         `json:"nation_id"`
	Turn            uint64         `json:"turn"`
	Phase           string         `json:"phase"`
	Catalogs        CatalogDigests `json:"catalogs"`
}

type CatalogDigests struct {
	GoodsDigest     string `json:"goods_digest,omitempty"`
	BuildingsDigest string `json:"buildings_digest"`
	TuningDigest    string `json:"tuning_digest,omitempty"`
}

// ORDER (client -> server): a batch of order items applied in order.
type OrderMsg struct {
	Type            string      `json:"type"`
	ProtocolVersion string      `json:"protocol_version"`
	OrderID         string      `json:"order_id"`
	Orders          []OrderItem `json:"orders"`
}

// OrderItem is one order. Fields used depend on Kind:
//
//	ADJUST_PRODUCTION     building, output, choice, target
//	ADJUST_RECRUITMENT    requested
//	ADJUST_TRAINING       from_skill, requested
//	ADJUST_MARKET_ORDER   good, side, requested
//	TRANSPORT_ALLOCATION  commodity, requested
type OrderItem struct {
	Kind string `json:"kind"`

	Building string `json:"building,omitempty"`
	Output   string `json:"output,omitempty"`
	Choice   string `json:"choice,omitempty"`
	Target   uint32 `json:"target,omitempty"`

	Requested uint32 `json:"requested,omitempty"`
	FromSkill string `json:"from_skill,omitempty"`
	Good      string `json:"good,omitempty"`
	Side      string `json:"side,omitempty"` // BUY or SELL
	Commodity string `json:"commodity,omitempty"`
}

type OrderResult struct {
	Index    int    `json:"index"`
	Kind     string `json:"kind"`
	Accepted bool   `json:"accepted"`
	// Applied is the quantity actually in effect after the order.
	Applied uint32 `json:"applied"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

// ACK (server -> client)
type AckMsg struct {
	Type            string        `json:"type"`
	ProtocolVersion string        `json:"protocol_version"`
	OrderID         string        `json:"order_id"`
	Turn            uint64        `json:"turn"`
	Results         []OrderResult `json:"results"`
	Code            string        `json:"code,omitempty"`
	Message         string        `json:"message,omitempty"`
}

// STATE (server -> client): the nation's view after a phase change or an
// accepted order batch.
type StateMsg struct {
	Type            string            `json:"type"`
	ProtocolVersion string            `json:"protocol_version"`
	Turn            uint64            `json:"turn"`
	Phase           string            `json:"phase"`
	Nation          interface{}       `json:"nation"`
	Transport       interface{}       `json:"transport,omitempty"`
	Prices          map[string]uint32 `json:"prices,omitempty"`
}

// PHASE (server -> client)
type PhaseMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Turn            uint64 `json:"turn"`
	Phase           string `json:"phase"`
}
