package protocol

const (
	// Protocol/transport validation.
	ErrProtoBadRequest = "E_PROTO_BAD_REQUEST"

	// Turn routing.
	ErrPhase    = "E_PHASE"
	ErrNoNation = "E_NO_NATION"

	// Order layer.
	ErrBadRequest        = "E_BAD_REQUEST"
	ErrUnknownGood       = "E_UNKNOWN_GOOD"
	ErrInsufficientGoods = "E_INSUFFICIENT_GOODS"
	ErrInsufficientLabor = "E_INSUFFICIENT_LABOR"
	ErrInsufficientFunds = "E_INSUFFICIENT_FUNDS"
	ErrCapacity          = "E_CAPACITY"
	ErrMissingVariant    = "E_MISSING_VARIANT"
	ErrInternal          = "E_INTERNAL"
)

var knownCodes = map[string]struct{}{
	ErrProtoBadRequest:   {},
	ErrPhase:             {},
	ErrNoNation:          {},
	ErrBadRequest:        {},
	ErrUnknownGood:       {},
	ErrInsufficientGoods: {},
	ErrInsufficientLabor: {},
	ErrInsufficientFunds: {},
	ErrCapacity:          {},
	ErrMissingVariant:    {},
	ErrInternal:          {},
}

func IsKnownCode(code string) bool {
	if code == "" {
		return true
	}
	_, ok := knownCodes[code]
	return ok
}
