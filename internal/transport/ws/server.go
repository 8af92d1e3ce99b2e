package ws

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"figurebuilder.app/internal/figure"
	"figurebuilder.app/internal/protocol"
	"figurebuilder.app/internal/session"
	"figurebuilder.app/internal/traits"
	"figurebuilder.app/internal/wallet"
)

type Options struct {
	ReadBufferSize  int
	WriteBufferSize int
	MaxQueue        int
	MaxMessageBytes int64
	// AllowedOrigins restricts browser origins; empty allows any.
	AllowedOrigins []string
	// Events, when set, receives one entry per request.
	Events EventLogger
}

// Event records one editor request and its outcome.
type Event struct {
	Time     time.Time `json:"time"`
	Session  string    `json:"session"`
	Type     string    `json:"type"`
	ReqID    string    `json:"req_id,omitempty"`
	CardKey  string    `json:"card_key,omitempty"`
	TokenID  *int      `json:"token_id,omitempty"`
	Trait    string    `json:"trait,omitempty"`
	Value    string    `json:"value,omitempty"`
	TokenIDs []int     `json:"token_ids,omitempty"`
	Payload  string    `json:"payload,omitempty"`
	Accepted bool      `json:"accepted"`
	Code     string    `json:"code,omitempty"`
}

type EventLogger interface {
	WriteEvent(Event) error
}

type Server struct {
	env     session.Env
	digests protocol.CatalogDigests
	log     *log.Logger
	opts    Options

	upgrader websocket.Upgrader
	active   atomic.Int64
	total    atomic.Int64
}

func NewServer(env session.Env, digests protocol.CatalogDigests, logger *log.Logger, opts Options) *Server {
	if opts.MaxQueue <= 0 {
		opts.MaxQueue = 16
	}
	if opts.MaxMessageBytes <= 0 {
		opts.MaxMessageBytes = 64 * 1024
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	s := &Server{
		env:     env,
		digests: digests,
		log:     logger,
		opts:    opts,
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  opts.ReadBufferSize,
		WriteBufferSize: opts.WriteBufferSize,
		CheckOrigin:     s.checkOrigin,
	}
	return s
}

func (s *Server) checkOrigin(r *http.Request) bool {
	if len(s.opts.AllowedOrigins) == 0 {
		return true
	}
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, o := range s.opts.AllowedOrigins {
		if strings.EqualFold(o, origin) {
			return true
		}
	}
	return false
}

// Active is the number of open editor sessions.
func (s *Server) Active() int64 { return s.active.Load() }

// Total is the number of sessions accepted since start.
func (s *Server) Total() int64 { return s.total.Load() }

func (s *Server) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		conn.SetReadLimit(s.opts.MaxMessageBytes)

		c := s.handshake(conn)
		if c == nil {
			return
		}
		s.active.Add(1)
		s.total.Add(1)
		defer s.active.Add(-1)

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		// Writer goroutine.
		done := make(chan struct{})
		go func() {
			defer close(done)
			for {
				select {
				case <-ctx.Done():
					return
				case b := <-c.out:
					_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
					if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
						cancel()
						return
					}
				}
			}
		}()

		// Reader loop.
		for {
			_ = conn.SetReadDeadline(time.Now().Add(120 * time.Second))
			_, msg, err := conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					s.log.Printf("ws session %s: read: %v", c.id, err)
				}
				break
			}
			replies := c.handle(msg)
			s.record(c, msg, replies)
			for _, reply := range replies {
				if !c.send(ctx, reply) {
					break
				}
			}
			if ctx.Err() != nil {
				break
			}
		}
		cancel()
		<-done
	}
}

func (s *Server) record(c *client, msg []byte, replies []any) {
	if s.opts.Events == nil || len(replies) == 0 {
		return
	}
	ack, ok := replies[0].(protocol.AckMsg)
	if !ok {
		return
	}
	var f struct {
		Type    string `json:"type"`
		CardKey string `json:"card_key"`
		TokenID *int   `json:"token_id"`
		Trait   string `json:"trait"`
		Value   string `json:"value"`
		IDs     []int  `json:"token_ids"`
		Payload string `json:"payload"`
	}
	_ = json.Unmarshal(msg, &f)
	ev := Event{
		Time:     time.Now().UTC(),
		Session:  c.id,
		Type:     f.Type,
		ReqID:    ack.AckFor,
		CardKey:  f.CardKey,
		TokenID:  f.TokenID,
		Trait:    f.Trait,
		Value:    f.Value,
		TokenIDs: f.IDs,
		Payload:  f.Payload,
		Accepted: ack.Accepted,
		Code:     ack.Code,
	}
	if ev.CardKey == "" && f.Type == protocol.TypeLoad {
		for _, r := range replies[1:] {
			if v, ok := r.(protocol.ViewMsg); ok {
				ev.CardKey = v.CardKey
				break
			}
		}
	}
	if err := s.opts.Events.WriteEvent(ev); err != nil {
		s.log.Printf("ws session %s: event log: %v", c.id, err)
	}
}

type client struct {
	id  string
	ws  *session.Workspace
	out chan []byte
	log *log.Logger
}

func (s *Server) handshake(conn *websocket.Conn) *client {
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		return nil
	}

	base, err := protocol.DecodeBase(msg)
	if err != nil || base.Type != protocol.TypeHello {
		closeWith(conn, "expected HELLO")
		return nil
	}
	var hello protocol.HelloMsg
	if err := json.Unmarshal(msg, &hello); err != nil {
		closeWith(conn, "bad HELLO")
		return nil
	}
	if hello.ProtocolVersion != protocol.Version {
		closeWith(conn, "bad protocol_version")
		return nil
	}

	env := s.env
	env.Options = hello.Capabilities.Options
	if im, ok := figure.ImagerByName(hello.Imager); ok {
		env.Imager = im
	}

	maxQ := hello.Capabilities.MaxQueue
	if maxQ <= 0 || maxQ > s.opts.MaxQueue {
		maxQ = s.opts.MaxQueue
	}
	c := &client{
		id:  uuid.NewString(),
		ws:  session.New(env),
		out: make(chan []byte, maxQ),
		log: s.log,
	}

	welcome := protocol.WelcomeMsg{
		Type:            protocol.TypeWelcome,
		ProtocolVersion: protocol.Version,
		SessionID:       c.id,
		Imager:          env.Imager.Name,
		PageSize:        env.PageSize,
		Catalogs:        s.digests,
	}
	if welcome.PageSize <= 0 {
		welcome.PageSize = 16
	}
	if err := writeJSON(conn, welcome); err != nil {
		return nil
	}
	return c
}

func closeWith(conn *websocket.Conn, reason string) {
	_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, reason), time.Now().Add(time.Second))
}

func (c *client) send(ctx context.Context, v any) bool {
	b, err := json.Marshal(v)
	if err != nil {
		c.log.Printf("ws session %s: marshal %T: %v", c.id, v, err)
		return false
	}
	select {
	case c.out <- b:
		return true
	case <-ctx.Done():
		return false
	}
}

func (c *client) handle(msg []byte) []any { return Apply(c.ws, msg) }

// Apply decodes one request and applies it to w. The ACK always comes
// first, followed by the pushes the request caused.
func Apply(w *session.Workspace, msg []byte) []any {
	base, err := protocol.DecodeBase(msg)
	if err != nil {
		return []any{reject("", protocol.ErrProtoBadRequest, "malformed json")}
	}
	if base.ProtocolVersion != protocol.Version {
		return []any{reject(base.ReqID, protocol.ErrProtoVersion, "bad protocol_version")}
	}
	var raw any
	if err := json.Unmarshal(msg, &raw); err != nil {
		return []any{reject(base.ReqID, protocol.ErrProtoBadRequest, "malformed json")}
	}
	if err := protocol.Validate(protocol.SchemaRequest, raw); err != nil {
		return []any{reject(base.ReqID, protocol.ErrProtoBadRequest, err.Error())}
	}

	switch base.Type {
	case protocol.TypeLoad:
		var m protocol.LoadMsg
		if err := json.Unmarshal(msg, &m); err != nil {
			return []any{reject(base.ReqID, protocol.ErrProtoBadRequest, err.Error())}
		}
		card := w.Load(m.TokenID)
		return withView(w, base.ReqID, card.Key)

	case protocol.TypeRemove:
		var m protocol.CardMsg
		if err := json.Unmarshal(msg, &m); err != nil {
			return []any{reject(base.ReqID, protocol.ErrProtoBadRequest, err.Error())}
		}
		if err := w.Remove(m.CardKey); err != nil {
			return []any{rejectErr(base.ReqID, err)}
		}
		return []any{accept(base.ReqID), protocol.RemovedMsg{
			Type:            protocol.TypeRemoved,
			ProtocolVersion: protocol.Version,
			CardKey:         m.CardKey,
		}}

	case protocol.TypeSelect:
		var m protocol.SelectMsg
		if err := json.Unmarshal(msg, &m); err != nil {
			return []any{reject(base.ReqID, protocol.ErrProtoBadRequest, err.Error())}
		}
		if _, err := w.Select(m.CardKey, traits.Trait(m.Trait), m.Value); err != nil {
			return []any{rejectErr(base.ReqID, err)}
		}
		return withView(w, base.ReqID, m.CardKey)

	case protocol.TypeRestore:
		var m protocol.RestoreMsg
		if err := json.Unmarshal(msg, &m); err != nil {
			return []any{reject(base.ReqID, protocol.ErrProtoBadRequest, err.Error())}
		}
		if _, err := w.Restore(m.CardKey, traits.Trait(m.Trait)); err != nil {
			return []any{rejectErr(base.ReqID, err)}
		}
		return withView(w, base.ReqID, m.CardKey)

	case protocol.TypeRotate, protocol.TypeShowMore:
		var m protocol.CardMsg
		if err := json.Unmarshal(msg, &m); err != nil {
			return []any{reject(base.ReqID, protocol.ErrProtoBadRequest, err.Error())}
		}
		op := w.Rotate
		if base.Type == protocol.TypeShowMore {
			op = w.ShowMore
		}
		if _, err := op(m.CardKey); err != nil {
			return []any{rejectErr(base.ReqID, err)}
		}
		return withView(w, base.ReqID, m.CardKey)

	case protocol.TypeSetOwned:
		var m protocol.SetOwnedMsg
		if err := json.Unmarshal(msg, &m); err != nil {
			return []any{reject(base.ReqID, protocol.ErrProtoBadRequest, err.Error())}
		}
		ids := m.TokenIDs
		if m.Payload != "" {
			decoded, err := wallet.DecodeTokenIDs(m.Payload)
			if err != nil {
				return []any{rejectErr(base.ReqID, err)}
			}
			ids = decoded
		}
		ranked := w.SetOwned(ids)
		out := []any{accept(base.ReqID), protocol.OwnedMsg{
			Type:            protocol.TypeOwned,
			ProtocolVersion: protocol.Version,
			Tokens:          ranked,
		}}
		// Ownership reorders every card's suggestions.
		for _, cv := range w.Views() {
			out = append(out, viewMsg(cv))
		}
		return out
	}
	return []any{reject(base.ReqID, protocol.ErrBadRequest, "unsupported type "+base.Type)}
}

func withView(w *session.Workspace, reqID, key string) []any {
	cv, err := w.View(key)
	if err != nil {
		return []any{rejectErr(reqID, err)}
	}
	return []any{accept(reqID), viewMsg(cv)}
}

func viewMsg(cv session.CardView) protocol.ViewMsg {
	return protocol.ViewMsg{
		Type:            protocol.TypeView,
		ProtocolVersion: protocol.Version,
		CardKey:         cv.Card.Key,
		Card:            cv.Card,
		View:            cv.View,
	}
}

func accept(reqID string) protocol.AckMsg {
	return protocol.AckMsg{Type: protocol.TypeAck, ProtocolVersion: protocol.Version, AckFor: reqID, Accepted: true}
}

func reject(reqID, code, message string) protocol.AckMsg {
	return protocol.AckMsg{
		Type:            protocol.TypeAck,
		ProtocolVersion: protocol.Version,
		AckFor:          reqID,
		Code:            code,
		Message:         message,
	}
}

func rejectErr(reqID string, err error) protocol.AckMsg {
	switch {
	case errors.Is(err, session.ErrNoCard):
		return reject(reqID, protocol.ErrNotFound, err.Error())
	case errors.Is(err, session.ErrUnknownTrait):
		return reject(reqID, protocol.ErrUnknownTrait, err.Error())
	case errors.Is(err, wallet.ErrBadPayload):
		return reject(reqID, protocol.ErrBadPayload, err.Error())
	default:
		return reject(reqID, protocol.ErrInternal, err.Error())
	}
}

func writeJSON(conn *websocket.Conn, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	return conn.WriteMessage(websocket.TextMessage, b)
}
