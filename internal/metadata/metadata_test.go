package metadata

import (
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"figurebuilder.app/internal/traits"
)

func TestLoad_ObjectAndArrayShapesAgree(t *testing.T) {
	obj, err := Load(filepath.Join("testdata", "metadata.json"))
	if err != nil {
		t.Fatalf("load object form: %v", err)
	}
	arr, err := Load(filepath.Join("testdata", "metadata_array.json"))
	if err != nil {
		t.Fatalf("load array form: %v", err)
	}
	if !reflect.DeepEqual(obj.IDs(), []int{1, 2}) || !reflect.DeepEqual(arr.IDs(), []int{1, 2}) {
		t.Fatalf("ids: obj=%v arr=%v", obj.IDs(), arr.IDs())
	}
	for _, id := range obj.IDs() {
		a, _ := obj.Get(id)
		b, _ := arr.Get(id)
		if !a.Equal(b) {
			t.Fatalf("token %d differs: %s vs %s", id, a.Key(), b.Key())
		}
	}
	two, _ := obj.Get(2)
	if two.Get(traits.Hat) != "Fedora" || two.Get(traits.Legs) != traits.None {
		t.Fatalf("token 2: %s", two.Key())
	}
}

func TestLookup_UncataloguedUsesDefault(t *testing.T) {
	x, err := Load(filepath.Join("testdata", "metadata.json"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	s, ok := x.Lookup(7)
	if ok {
		t.Fatalf("token 7 is a null hole and must not be catalogued")
	}
	if !s.Equal(traits.DefaultAvatar()) {
		t.Fatalf("expected default avatar, got %s", s.Key())
	}
	if _, ok := x.Get(999); ok {
		t.Fatalf("unexpected token 999")
	}
}

func TestWriteFile_ZstdRoundTrip(t *testing.T) {
	x, err := Load(filepath.Join("testdata", "metadata.json"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	path := filepath.Join(t.TempDir(), "meta", "metadata.json.zst")
	if err := WriteFile(path, x); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	y, err := Load(path)
	if err != nil {
		t.Fatalf("load zst: %v", err)
	}
	if y.Len() != x.Len() {
		t.Fatalf("len: %d want %d", y.Len(), x.Len())
	}
	for _, id := range x.IDs() {
		a, _ := x.Get(id)
		b, _ := y.Get(id)
		if !a.Equal(b) {
			t.Fatalf("token %d differs after round trip", id)
		}
	}
}

func TestDecode_Rejects(t *testing.T) {
	cases := map[string]string{
		"bad key":     `{"abc": {"Gender": "Male"}}`,
		"negative":    `{"-1": {"Gender": "Male"}}`,
		"number val":  `{"1": {"Gender": 3}}`,
		"scalar root": `"nope"`,
		"empty":       ``,
	}
	for name, doc := range cases {
		if _, err := Decode(strings.NewReader(doc)); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestScan_AscendingAndStoppable(t *testing.T) {
	x := New(map[int]traits.Set{
		9: traits.DefaultAvatar(),
		3: traits.DefaultAvatar(),
		5: traits.DefaultAvatar(),
	})
	var seen []int
	x.Scan(func(id int, _ traits.Set) bool {
		seen = append(seen, id)
		return len(seen) < 2
	})
	if !reflect.DeepEqual(seen, []int{3, 5}) {
		t.Fatalf("scan order: %v", seen)
	}
}
