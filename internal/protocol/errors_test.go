package protocol

import "testing"

func TestIsKnownCode(t *testing.T) {
	cases := []string{
		"",
		ErrProtoBadRequest,
		ErrProtoVersion,
		ErrBadRequest,
		ErrNotFound,
		ErrUnknownTrait,
		ErrBadPayload,
		ErrInternal,
	}
	for _, c := range cases {
		if !IsKnownCode(c) {
			t.Fatalf("expected known code: %q", c)
		}
	}
	if IsKnownCode("E_NOT_DEFINED") {
		t.Fatalf("expected unknown code rejected")
	}
}

func TestIsRequest(t *testing.T) {
	for _, typ := range []string{TypeLoad, TypeRemove, TypeSelect, TypeRestore, TypeRotate, TypeShowMore, TypeSetOwned} {
		if !IsRequest(typ) {
			t.Fatalf("%s should be a request", typ)
		}
	}
	for _, typ := range []string{TypeHello, TypeWelcome, TypeView, TypeAck, ""} {
		if IsRequest(typ) {
			t.Fatalf("%s should not be a request", typ)
		}
	}
}
