// Package httpapi serves the stateless JSON endpoints: catalog listing,
// avatar lookup, one-shot view derivation, option search and owned-token
// ranking. Editing sessions use the websocket transport instead.
package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"figurebuilder.app/internal/figure"
	"figurebuilder.app/internal/protocol"
	"figurebuilder.app/internal/search"
	"figurebuilder.app/internal/session"
	"figurebuilder.app/internal/traits"
	"figurebuilder.app/internal/view"
	"figurebuilder.app/internal/wallet"
)

const maxBody = 64 * 1024

type API struct {
	env     session.Env
	digests protocol.CatalogDigests
	search  *search.Index
}

func New(env session.Env, digests protocol.CatalogDigests) *API {
	if env.PageSize <= 0 {
		env.PageSize = view.PageSize
	}
	return &API{env: env, digests: digests, search: search.New(env.Catalog)}
}

// Register mounts the endpoints under /v1/.
func (a *API) Register(mux *http.ServeMux) {
	mux.HandleFunc("/v1/catalog", a.handleCatalog)
	mux.HandleFunc("/v1/avatars/", a.handleAvatar)
	mux.HandleFunc("/v1/derive", a.handleDerive)
	mux.HandleFunc("/v1/search", a.handleSearch)
	mux.HandleFunc("/v1/owned", a.handleOwned)
	mux.HandleFunc("/v1/wallet/call", a.handleWalletCall)
}

type TraitOptions struct {
	Trait   traits.Trait `json:"trait"`
	Options []string     `json:"options"`
}

type CatalogResponse struct {
	Traits   []TraitOptions          `json:"traits"`
	Hues     []string                `json:"hues"`
	Digests  protocol.CatalogDigests `json:"digests"`
	Imager   string                  `json:"imager"`
	PageSize int                     `json:"page_size"`
}

func (a *API) handleCatalog(rw http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		rw.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	c := a.env.Catalog
	resp := CatalogResponse{
		Hues:     c.Options(traits.Hues),
		Digests:  a.digests,
		Imager:   a.env.Imager.Name,
		PageSize: a.env.PageSize,
	}
	for _, t := range c.Traits() {
		resp.Traits = append(resp.Traits, TraitOptions{Trait: t, Options: c.Options(t)})
	}
	writeJSON(rw, http.StatusOK, resp)
}

type AvatarResponse struct {
	ID             int        `json:"id"`
	Catalogued     bool       `json:"catalogued"`
	Traits         traits.Set `json:"traits"`
	Figure         string     `json:"figure"`
	ImageURL       string     `json:"image_url"`
	MarketplaceURL string     `json:"marketplace_url"`
	TokenImageURL  string     `json:"token_image_url"`
}

// GET /v1/avatars/{id}
func (a *API) handleAvatar(rw http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		rw.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	id, err := parseID(strings.TrimPrefix(r.URL.Path, "/v1/avatars/"))
	if err != nil {
		writeError(rw, http.StatusBadRequest, protocol.ErrBadRequest, err.Error())
		return
	}
	s, ok := a.base(id)
	fig := figure.Compile(s, a.env.Catalog)
	writeJSON(rw, http.StatusOK, AvatarResponse{
		ID:             id,
		Catalogued:     ok,
		Traits:         s,
		Figure:         fig,
		ImageURL:       a.env.Imager.URL(fig, figure.DefaultDirection, figure.DefaultDirection),
		MarketplaceURL: a.env.Links.Marketplace(id),
		TokenImageURL:  a.env.Links.TokenImage(id),
	})
}

// base is the loaded form of a token: catalogued or default, with Legs
// explicit.
func (a *API) base(id int) (traits.Set, bool) {
	s, ok := a.env.Metadata.Lookup(id)
	return s.With(traits.Legs, s.Get(traits.Legs)), ok
}

// DeriveRequest edits token TokenID by Set and derives the resulting view.
type DeriveRequest struct {
	TokenID   int               `json:"token_id"`
	Set       map[string]string `json:"set"`
	Owned     []int             `json:"owned,omitempty"`
	Direction int               `json:"direction,omitempty"`
	Limit     int               `json:"limit,omitempty"`
	Options   bool              `json:"options,omitempty"`
}

func (a *API) handleDerive(rw http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		rw.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var req DeriveRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(rw, http.StatusBadRequest, protocol.ErrBadRequest, err.Error())
		return
	}
	if req.TokenID < 0 {
		writeError(rw, http.StatusBadRequest, protocol.ErrBadRequest, "token_id must be >= 0")
		return
	}
	base, _ := a.base(req.TokenID)
	working := base
	for name, v := range req.Set {
		t, ok := traits.Parse(name)
		if !ok {
			writeError(rw, http.StatusBadRequest, protocol.ErrUnknownTrait, fmt.Sprintf("unknown trait %q", name))
			return
		}
		working = working.With(t, v)
	}
	limit := req.Limit
	if limit <= 0 {
		limit = a.env.PageSize
	}
	v := view.Derive(view.Input{
		Working:   working,
		Base:      base,
		Catalog:   a.env.Catalog,
		Metadata:  a.env.Metadata,
		Owned:     req.Owned,
		Imager:    a.env.Imager,
		Links:     a.env.Links,
		Direction: req.Direction,
		Limit:     limit,
		Options:   req.Options,
	})
	writeJSON(rw, http.StatusOK, v)
}

// GET /v1/search?q=...&limit=N
func (a *API) handleSearch(rw http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		rw.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	limit := 20
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			writeError(rw, http.StatusBadRequest, protocol.ErrBadRequest, "bad limit")
			return
		}
		limit = n
	}
	res := a.search.Query(r.URL.Query().Get("q"), limit)
	if res == nil {
		res = []search.Result{}
	}
	writeJSON(rw, http.StatusOK, map[string]any{"results": res})
}

// OwnedRequest carries either token IDs or a raw tokensOfOwner result.
type OwnedRequest struct {
	TokenIDs []int  `json:"token_ids,omitempty"`
	Payload  string `json:"payload,omitempty"`
}

func (a *API) handleOwned(rw http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		rw.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var req OwnedRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(rw, http.StatusBadRequest, protocol.ErrBadRequest, err.Error())
		return
	}
	ids := req.TokenIDs
	if req.Payload != "" {
		decoded, err := wallet.DecodeTokenIDs(req.Payload)
		if err != nil {
			writeError(rw, http.StatusBadRequest, protocol.ErrBadPayload, err.Error())
			return
		}
		ids = decoded
	}
	ranked := wallet.Rank(ids, a.env.Metadata, a.env.Catalog)
	if ranked == nil {
		ranked = []wallet.Token{}
	}
	writeJSON(rw, http.StatusOK, map[string]any{"tokens": ranked})
}

// GET /v1/wallet/call?owner=0x...
func (a *API) handleWalletCall(rw http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		rw.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	call, err := wallet.TokensOfOwnerCall(r.URL.Query().Get("owner"))
	if err != nil {
		writeError(rw, http.StatusBadRequest, protocol.ErrBadRequest, err.Error())
		return
	}
	writeJSON(rw, http.StatusOK, call)
}

func parseID(s string) (int, error) {
	id, err := strconv.Atoi(s)
	if err != nil || id < 0 {
		return 0, fmt.Errorf("bad token id %q", s)
	}
	return id, nil
}

func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("empty body")
		}
		return fmt.Errorf("bad json: %w", err)
	}
	return nil
}

func writeJSON(rw http.ResponseWriter, status int, v any) {
	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(status)
	_ = json.NewEncoder(rw).Encode(v)
}

func writeError(rw http.ResponseWriter, status int, code, message string) {
	writeJSON(rw, status, protocol.ErrorResponse{Code: code, Message: message})
}
