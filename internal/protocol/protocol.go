package protocol

import "encoding/json"

const Version = "1.0"

// Message types.
const (
	TypeHello   = "HELLO"
	TypeWelcome = "WELCOME"
	TypeAck     = "ACK"

	// Client requests.
	TypeLoad     = "LOAD"
	TypeRemove   = "REMOVE"
	TypeSelect   = "SELECT"
	TypeRestore  = "RESTORE"
	TypeRotate   = "ROTATE"
	TypeShowMore = "SHOW_MORE"
	TypeSetOwned = "SET_OWNED"

	// Server pushes.
	TypeView    = "VIEW"
	TypeRemoved = "REMOVED"
	TypeOwned   = "OWNED"
)

// BaseMessage lets us route unknown JSON messages by type.
type BaseMessage struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version,omitempty"`
	ReqID           string `json:"req_id,omitempty"`
}

func DecodeBase(b []byte) (BaseMessage, error) {
	var m BaseMessage
	err := json.Unmarshal(b, &m)
	return m, err
}

// IsRequest reports whether t is a client request type handled after the
// handshake.
func IsRequest(t string) bool {
	switch t {
	case TypeLoad, TypeRemove, TypeSelect, TypeRestore, TypeRotate, TypeShowMore, TypeSetOwned:
		return true
	}
	return false
}
