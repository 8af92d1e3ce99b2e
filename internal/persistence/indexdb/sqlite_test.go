package indexdb

import (
	"context"
	"path/filepath"
	"testing"

	"figurebuilder.app/internal/fixture"
	"figurebuilder.app/internal/match"
	"figurebuilder.app/internal/metadata"
	"figurebuilder.app/internal/traits"
)

func openImported(t *testing.T) (*SQLiteIndex, *metadata.Index) {
	t.Helper()
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "index.sqlite"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	x := fixture.Index()
	x.Digest = "deadbeef"
	if err := db.Import(context.Background(), x); err != nil {
		t.Fatalf("import: %v", err)
	}
	return db, x
}

func TestImportLoadRoundTrip(t *testing.T) {
	db, x := openImported(t)
	ctx := context.Background()

	got, err := db.LoadIndex(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.Len() != x.Len() || got.Digest != "deadbeef" {
		t.Fatalf("len=%d digest=%q", got.Len(), got.Digest)
	}
	for _, id := range x.IDs() {
		want, _ := x.Get(id)
		have, ok := got.Get(id)
		if !ok || !have.Equal(want) {
			t.Fatalf("token %d: got %v want %v", id, have, want)
		}
	}
	if v, _ := db.Meta(ctx, "schema_version"); v != schemaVersion {
		t.Fatalf("schema_version=%q", v)
	}

	// Import replaces rather than appends.
	if err := db.Import(ctx, metadata.New(map[int]traits.Set{7: traits.DefaultAvatar()})); err != nil {
		t.Fatalf("reimport: %v", err)
	}
	got, _ = db.LoadIndex(ctx)
	if ids := got.IDs(); len(ids) != 1 || ids[0] != 7 {
		t.Fatalf("after reimport: %v", ids)
	}
}

func TestMatchIDs_NoneSemantics(t *testing.T) {
	db, _ := openImported(t)
	ctx := context.Background()

	cases := []struct {
		c    match.Edits
		want []int
	}{
		{match.Edits{traits.Shirt: "Striped Shirt"}, []int{3, 4, 5}},
		{match.Edits{traits.Shirt: "Striped Shirt", traits.Hues: "Sunny"}, []int{3, 4}},
		{match.Edits{traits.Legs: traits.None}, []int{2, 5}},
		{match.Edits{traits.Hat: traits.None, traits.Legs: "Cargo Pants"}, []int{3, 4}},
		{match.Edits{traits.Shirt: "Lab Coat"}, nil},
	}
	for _, c := range cases {
		got, err := db.MatchIDs(ctx, c.c)
		if err != nil {
			t.Fatalf("%v: %v", c.c, err)
		}
		if len(got) != len(c.want) {
			t.Fatalf("%v: got %v want %v", c.c, got, c.want)
		}
		for i := range got {
			if got[i] != c.want[i] {
				t.Fatalf("%v: got %v want %v", c.c, got, c.want)
			}
		}
	}
}

// The SQL path must agree with the in-memory scan.
func TestFind_AgreesWithMemory(t *testing.T) {
	db, x := openImported(t)
	ctx := context.Background()

	edits := []match.Edits{
		{traits.Shirt: "Striped Shirt"},
		{traits.Legs: "Cargo Pants"},
		{traits.Legs: traits.None, traits.Gender: traits.Female},
		{traits.Hat: traits.None},
		{traits.Eyewear: "Laser Eyes"},
	}
	for _, e := range edits {
		want := match.Find(e, x, []int{5})
		got, err := db.Find(ctx, e, []int{5})
		if err != nil {
			t.Fatalf("%v: %v", e, err)
		}
		if len(got) != len(want) {
			t.Fatalf("%v: got %d matches want %d", e, len(got), len(want))
		}
		for i := range got {
			if got[i].ID != want[i].ID || got[i].Owned != want[i].Owned || got[i].EffectRank != want[i].EffectRank {
				t.Fatalf("%v[%d]: got %+v want %+v", e, i, got[i], want[i])
			}
			if !got[i].Traits.Equal(want[i].Traits) {
				t.Fatalf("%v[%d]: traits differ", e, i)
			}
		}
	}
}

func TestOpenSQLite_EmptyPath(t *testing.T) {
	if _, err := OpenSQLite(""); err == nil {
		t.Fatalf("expected error")
	}
}
