package protocol

// HELLO (client -> server)
type HelloMsg struct {
	Type            string            `json:"type"`
	ProtocolVersion string            `json:"protocol_version"`
	ClientName      string            `json:"client_name,omitempty"`
	Capabilities    HelloCapabilities `json:"capabilities"`
	// Imager optionally picks a built-in rendering endpoint by name.
	Imager string `json:"imager,omitempty"`
}

type HelloCapabilities struct {
	MaxQueue int `json:"max_queue,omitempty"`
	// Options asks for per-option flags and hints in every VIEW.
	Options bool `json:"options,omitempty"`
}

// WELCOME (server -> client)
type WelcomeMsg struct {
	Type            string         `json:"type"`
	ProtocolVersion string         `json:"protocol_version"`
	SessionID       string         `json:"session_id"`
	Imager          string         `json:"imager"`
	PageSize        int            `json:"page_size"`
	Catalogs        CatalogDigests `json:"catalogs"`
}

type CatalogDigests struct {
	FigurePartsDigest string    `json:"figureparts_digest"`
	TraitColorsDigest string    `json:"traitcolors_digest"`
	Metadata          DigestRef `json:"metadata"`
}

type DigestRef struct {
	Digest string `json:"digest"`
	Count  int    `json:"count"`
}

// LOAD (client -> server): open a card for a token.
type LoadMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	ReqID           string `json:"req_id,omitempty"`
	TokenID         int    `json:"token_id"`
}

// CardMsg addresses one card: REMOVE, ROTATE and SHOW_MORE.
type CardMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	ReqID           string `json:"req_id,omitempty"`
	CardKey         string `json:"card_key"`
}

// SELECT (client -> server)
type SelectMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	ReqID           string `json:"req_id,omitempty"`
	CardKey         string `json:"card_key"`
	Trait           string `json:"trait"`
	Value           string `json:"value"`
}

// RESTORE (client -> server)
type RestoreMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	ReqID           string `json:"req_id,omitempty"`
	CardKey         string `json:"card_key"`
	Trait           string `json:"trait"`
}

// SET_OWNED (client -> server). Either TokenIDs or the raw tokensOfOwner
// result in Payload; an empty message disconnects the wallet.
type SetOwnedMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	ReqID           string `json:"req_id,omitempty"`
	TokenIDs        []int  `json:"token_ids,omitempty"`
	Payload         string `json:"payload,omitempty"`
}

type AckMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	AckFor          string `json:"ack_for"`
	Accepted        bool   `json:"accepted"`
	Code            string `json:"code,omitempty"`
	Message         string `json:"message,omitempty"`
}

// VIEW (server -> client): the current state of one card.
type ViewMsg struct {
	Type            string      `json:"type"`
	ProtocolVersion string      `json:"protocol_version"`
	CardKey         string      `json:"card_key"`
	Card            interface{} `json:"card"`
	View            interface{} `json:"view"`
}

// REMOVED (server -> client)
type RemovedMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	CardKey         string `json:"card_key"`
}

// OWNED (server -> client): the ranked owned tokens.
type OwnedMsg struct {
	Type            string      `json:"type"`
	ProtocolVersion string      `json:"protocol_version"`
	Tokens          interface{} `json:"tokens"`
}
