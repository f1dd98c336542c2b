package protocol

const (
	// Protocol/transport validation.
	ErrProtoBadRequest = "E_PROTO_BAD_REQUEST"
	ErrProtoVersion    = "E_PROTO_VERSION"

	// Session state.
	ErrAuthRejected = "E_AUTH_REJECTED"
	ErrNotSpawned   = "E_NOT_SPAWNED"

	// Command layer.
	ErrBadRequest     = "E_BAD_REQUEST"
	ErrUnknownCommand = "E_UNKNOWN_COMMAND"
	ErrNoPermission   = "E_NO_PERMISSION"
	ErrNoResource     = "E_NO_RESOURCE"
	ErrInvalidTarget  = "E_INVALID_TARGET"
	ErrRateLimit      = "E_RATE_LIMIT"
	ErrBlocked        = "E_BLOCKED"
	ErrInternal       = "E_INTERNAL"
)

var knownCodes = map[string]struct{}{
	ErrProtoBadRequest: {},
	ErrProtoVersion:    {},
	ErrAuthRejected:    {},
	ErrNotSpawned:      {},
	ErrBadRequest:      {},
	ErrUnknownCommand:  {},
	ErrNoPermission:    {},
	ErrNoResource:      {},
	ErrInvalidTarget:   {},
	ErrRateLimit:       {},
	ErrBlocked:         {},
	ErrInternal:        {},
}

func IsKnownCode(code string) bool {
	if code == "" {
		return true
	}
	_, ok := knownCodes[code]
	return ok
}
