package protocol

const (
	// Protocol/transport validation.
	ErrProtoBadRequest = "E_PROTO_BAD_REQUEST"
	ErrProtoVersion    = "E_PROTO_VERSION"

	// Request layer.
	ErrBadRequest   = "E_BAD_REQUEST"
	ErrNotFound     = "E_NOT_FOUND"
	ErrUnknownTrait = "E_UNKNOWN_TRAIT"
	ErrBadPayload   = "E_BAD_PAYLOAD"
	ErrInternal     = "E_INTERNAL"
)

var knownCodes = map[string]struct{}{
	ErrProtoBadRequest: {},
	ErrProtoVersion:    {},
	ErrBadRequest:      {},
	ErrNotFound:        {},
	ErrUnknownTrait:    {},
	ErrBadPayload:      {},
	ErrInternal:        {},
}

func IsKnownCode(code string) bool {
	if code == "" {
		return true
	}
	_, ok := knownCodes[code]
	return ok
}

// ErrorResponse is the body of a failed HTTP API call.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
