package protocol_test

import (
	"encoding/json"
	"testing"

	"figurebuilder.app/internal/protocol"
)

func decode(t *testing.T, raw string) any {
	t.Helper()
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		t.Fatalf("decode sample: %v", err)
	}
	return v
}

func TestSchemas_ValidateSamples(t *testing.T) {
	validate := func(name, raw string) {
		t.Helper()
		if err := protocol.Validate(name, decode(t, raw)); err != nil {
			t.Fatalf("%s: %v", name, err)
		}
	}

	validate(protocol.SchemaHello, `{
	  "type":"HELLO",
	  "protocol_version":"1.0",
	  "client_name":"editor",
	  "capabilities":{"max_queue":8,"options":true}
	}`)

	validate(protocol.SchemaWelcome, `{
	  "type":"WELCOME",
	  "protocol_version":"1.0",
	  "session_id":"2f1c7a1e-0d1b-4a8e-9d0b-6f5b7ad7f0a1",
	  "imager":"nitro",
	  "page_size":16,
	  "catalogs":{
	    "figureparts_digest":"deadbeef",
	    "traitcolors_digest":"deadbeef",
	    "metadata":{"digest":"deadbeef","count":3}
	  }
	}`)

	for _, raw := range []string{
		`{"type":"LOAD","protocol_version":"1.0","req_id":"r1","token_id":42}`,
		`{"type":"SELECT","protocol_version":"1.0","card_key":"k","trait":"Shirt","value":"Striped Shirt"}`,
		`{"type":"RESTORE","protocol_version":"1.0","card_key":"k","trait":"Shirt"}`,
		`{"type":"ROTATE","protocol_version":"1.0","card_key":"k"}`,
		`{"type":"SET_OWNED","protocol_version":"1.0","token_ids":[10,3]}`,
	} {
		validate(protocol.SchemaRequest, raw)
	}

	validate(protocol.SchemaView, `{
	  "type":"VIEW",
	  "protocol_version":"1.0",
	  "card_key":"k",
	  "card":{"key":"k","token_id":1,"base":{},"working":{},"direction":4},
	  "view":{
	    "figure":"hd-180-1",
	    "image_url":"https://imager.habboon.pw/?size=l&figure=hd-180-1&direction=4&head_direction=4",
	    "direction":4,
	    "edited":{"Shirt":"Striped Shirt"},
	    "qualifying":{"Shirt":"Striped Shirt"},
	    "suggestions":[{"id":4,"owned":false,"marketplace_url":"m","image_url":"i"}],
	    "total":1,
	    "has_more":false
	  }
	}`)
}

func TestSchemas_RejectMalformedRequests(t *testing.T) {
	for _, raw := range []string{
		`{"type":"SELECT","protocol_version":"1.0","card_key":"k","trait":"Shirt"}`,
		`{"type":"LOAD","protocol_version":"1.0"}`,
		`{"type":"LOAD","protocol_version":"1.0","token_id":-1}`,
		`{"type":"ROTATE","protocol_version":"1.0"}`,
		`{"type":"ACT","protocol_version":"1.0"}`,
		`{"type":"SET_OWNED","protocol_version":"1.0","token_ids":["3"]}`,
	} {
		if err := protocol.Validate(protocol.SchemaRequest, decode(t, raw)); err == nil {
			t.Fatalf("expected rejection: %s", raw)
		}
	}
	if _, err := protocol.Schema("missing.schema.json"); err == nil {
		t.Fatalf("expected unknown schema error")
	}
}

func TestDecodeBase(t *testing.T) {
	b, err := protocol.DecodeBase([]byte(`{"type":"SELECT","protocol_version":"1.0","req_id":"r9","trait":"Hat"}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if b.Type != protocol.TypeSelect || b.ReqID != "r9" || b.ProtocolVersion != protocol.Version {
		t.Fatalf("base: %+v", b)
	}
}
