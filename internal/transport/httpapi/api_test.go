package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"figurebuilder.app/internal/figure"
	"figurebuilder.app/internal/fixture"
	"figurebuilder.app/internal/protocol"
	"figurebuilder.app/internal/session"
)

func newTestMux() *http.ServeMux {
	api := New(session.Env{
		Catalog:  fixture.Catalog(),
		Metadata: fixture.Index(),
		Imager:   figure.Nitro,
		Links:    figure.DefaultLinks(),
	}, protocol.CatalogDigests{})
	mux := http.NewServeMux()
	api.Register(mux)
	return mux
}

func do(t *testing.T, mux *http.ServeMux, method, path, body string, out any) int {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if out != nil && rec.Body.Len() > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), out); err != nil {
			t.Fatalf("%s %s: decode %q: %v", method, path, rec.Body.String(), err)
		}
	}
	return rec.Code
}

func TestCatalog(t *testing.T) {
	mux := newTestMux()
	var resp CatalogResponse
	if code := do(t, mux, http.MethodGet, "/v1/catalog", "", &resp); code != http.StatusOK {
		t.Fatalf("status %d", code)
	}
	if len(resp.Hues) != 2 || resp.Hues[0] != "Mysterious" || resp.Hues[1] != "Sunny" {
		t.Fatalf("hues: %v", resp.Hues)
	}
	if resp.PageSize != 16 || resp.Imager != "nitro" || len(resp.Traits) == 0 {
		t.Fatalf("catalog: %+v", resp)
	}
	if code := do(t, mux, http.MethodPost, "/v1/catalog", "{}", nil); code != http.StatusMethodNotAllowed {
		t.Fatalf("POST catalog: %d", code)
	}
}

func TestAvatar(t *testing.T) {
	mux := newTestMux()
	var resp struct {
		ID         int               `json:"id"`
		Catalogued bool              `json:"catalogued"`
		Traits     map[string]string `json:"traits"`
		Figure     string            `json:"figure"`
		Market     string            `json:"marketplace_url"`
	}
	if code := do(t, mux, http.MethodGet, "/v1/avatars/2", "", &resp); code != http.StatusOK {
		t.Fatalf("status %d", code)
	}
	if !resp.Catalogued || resp.Traits["Shirt"] != "Polka Shirt" || resp.Traits["Legs"] != "None" {
		t.Fatalf("avatar 2: %+v", resp)
	}
	if !strings.HasSuffix(resp.Market, "/2") || resp.Figure == "" {
		t.Fatalf("avatar 2 links: %+v", resp)
	}

	resp.Catalogued = true
	do(t, mux, http.MethodGet, "/v1/avatars/99", "", &resp)
	if resp.Catalogued || resp.Traits["Shirt"] != "Classic T-Shirt" {
		t.Fatalf("uncatalogued avatar: %+v", resp)
	}

	var e protocol.ErrorResponse
	if code := do(t, mux, http.MethodGet, "/v1/avatars/abc", "", &e); code != http.StatusBadRequest || e.Code != protocol.ErrBadRequest {
		t.Fatalf("bad id: %d %+v", code, e)
	}
}

func TestDerive(t *testing.T) {
	mux := newTestMux()
	var v struct {
		Figure      string `json:"figure"`
		Total       int    `json:"total"`
		NoMatch     string `json:"no_match"`
		Suggestions []struct {
			ID    int  `json:"id"`
			Owned bool `json:"owned"`
		} `json:"suggestions"`
	}
	body := `{"token_id":99,"set":{"Shirt":"Striped Shirt"},"owned":[5]}`
	if code := do(t, mux, http.MethodPost, "/v1/derive", body, &v); code != http.StatusOK {
		t.Fatalf("status %d", code)
	}
	if v.Figure != "hd-180-1.ch-215-.lg-270-110" || v.Total != 3 {
		t.Fatalf("derive: %+v", v)
	}
	if v.Suggestions[0].ID != 5 || !v.Suggestions[0].Owned || v.Suggestions[1].ID != 4 {
		t.Fatalf("suggestions: %+v", v.Suggestions)
	}

	do(t, mux, http.MethodPost, "/v1/derive", `{"token_id":99,"set":{"Shirt":"Lab Coat"}}`, &v)
	if v.Total != 0 || v.NoMatch == "" {
		t.Fatalf("no match: %+v", v)
	}

	var e protocol.ErrorResponse
	if code := do(t, mux, http.MethodPost, "/v1/derive", `{"token_id":1,"set":{"Wings":"x"}}`, &e); code != http.StatusBadRequest || e.Code != protocol.ErrUnknownTrait {
		t.Fatalf("unknown trait: %d %+v", code, e)
	}
	if code := do(t, mux, http.MethodPost, "/v1/derive", `{"token":1}`, &e); code != http.StatusBadRequest || e.Code != protocol.ErrBadRequest {
		t.Fatalf("unknown field: %d %+v", code, e)
	}
	if code := do(t, mux, http.MethodPost, "/v1/derive", "", &e); code != http.StatusBadRequest {
		t.Fatalf("empty body: %d", code)
	}
}

func TestSearch(t *testing.T) {
	mux := newTestMux()
	var resp struct {
		Results []struct {
			Trait  string  `json:"trait"`
			Value  string  `json:"value"`
			Score  float64 `json:"score"`
			Source string  `json:"source"`
		} `json:"results"`
	}
	do(t, mux, http.MethodGet, "/v1/search?q=beanie", "", &resp)
	if len(resp.Results) == 0 || resp.Results[0].Value != "Beanie" || resp.Results[0].Source != "exact" {
		t.Fatalf("beanie: %+v", resp.Results)
	}
	do(t, mux, http.MethodGet, "/v1/search?q=&limit=2", "", &resp)
	if len(resp.Results) != 2 {
		t.Fatalf("limit: %+v", resp.Results)
	}
	if code := do(t, mux, http.MethodGet, "/v1/search?q=x&limit=zero", "", nil); code != http.StatusBadRequest {
		t.Fatalf("bad limit: %d", code)
	}
}

func TestOwned(t *testing.T) {
	mux := newTestMux()
	var resp struct {
		Tokens []struct {
			ID      int  `json:"id"`
			HueGaps bool `json:"hue_gaps"`
		} `json:"tokens"`
	}
	do(t, mux, http.MethodPost, "/v1/owned", `{"token_ids":[5,2,1,99,4]}`, &resp)
	want := []int{1, 4, 5, 99, 2}
	if len(resp.Tokens) != len(want) {
		t.Fatalf("tokens: %+v", resp.Tokens)
	}
	for i, id := range want {
		if resp.Tokens[i].ID != id {
			t.Fatalf("tokens: %+v", resp.Tokens)
		}
	}

	payload := "0x" + strings.Repeat("0", 62) + "20" + strings.Repeat("0", 63) + "1" + strings.Repeat("0", 63) + "3"
	do(t, mux, http.MethodPost, "/v1/owned", `{"payload":"`+payload+`"}`, &resp)
	if len(resp.Tokens) != 1 || resp.Tokens[0].ID != 3 {
		t.Fatalf("payload tokens: %+v", resp.Tokens)
	}

	var e protocol.ErrorResponse
	if code := do(t, mux, http.MethodPost, "/v1/owned", `{"payload":"0x12"}`, &e); code != http.StatusBadRequest || e.Code != protocol.ErrBadPayload {
		t.Fatalf("bad payload: %d %+v", code, e)
	}
}

func TestWalletCall(t *testing.T) {
	mux := newTestMux()
	var call struct {
		To   string `json:"to"`
		Data string `json:"data"`
	}
	owner := "0x" + strings.Repeat("ab", 20)
	if code := do(t, mux, http.MethodGet, "/v1/wallet/call?owner="+owner, "", &call); code != http.StatusOK {
		t.Fatalf("status %d", code)
	}
	if !strings.HasPrefix(call.Data, "0x8462151c") || !strings.HasSuffix(call.Data, owner[2:]) {
		t.Fatalf("call: %+v", call)
	}
	if code := do(t, mux, http.MethodGet, "/v1/wallet/call?owner=0x12", "", nil); code != http.StatusBadRequest {
		t.Fatalf("bad owner: %d", code)
	}
}
