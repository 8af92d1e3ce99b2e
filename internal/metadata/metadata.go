package metadata

import (
	"bufio"
	"bytes"
	"crypto/sha256"
	_ "embed"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"figurebuilder.app/internal/traits"
)

var ErrNotFound = errors.New("token not catalogued")

//go:embed metadata.schema.json
var entrySchemaJSON string

var (
	entrySchemaOnce sync.Once
	entrySchema     *jsonschema.Schema
	entrySchemaErr  error
)

// Index is the collection's token ID to Trait-Set table. It is immutable
// after construction and safe for concurrent readers.
type Index struct {
	byID map[int]traits.Set
	ids  []int

	Digest string
}

// New builds an Index from in-memory entries.
func New(entries map[int]traits.Set) *Index {
	x := &Index{byID: make(map[int]traits.Set, len(entries))}
	for id, s := range entries {
		x.byID[id] = s.Clone()
	}
	x.sortIDs()
	return x
}

func (x *Index) sortIDs() {
	x.ids = make([]int, 0, len(x.byID))
	for id := range x.byID {
		x.ids = append(x.ids, id)
	}
	sort.Ints(x.ids)
}

// Load reads a metadata document. Paths ending in .zst are zstd compressed.
func Load(path string) (*Index, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var r io.Reader = bufio.NewReaderSize(f, 256*1024)
	if strings.HasSuffix(path, ".zst") {
		dec, err := zstd.NewReader(r)
		if err != nil {
			return nil, err
		}
		defer dec.Close()
		r = dec
	}
	x, err := Decode(r)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return x, nil
}

// Decode reads a metadata document in either top-level shape: an object
// keyed by token ID, or an array indexed by token ID with null holes. Each
// entry is a trait record, a trait attribute list, or null.
func Decode(r io.Reader) (*Index, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	x := &Index{byID: map[int]traits.Set{}, Digest: sha256Hex(raw)}

	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("empty document")
	}
	switch trimmed[0] {
	case '[':
		var rows []json.RawMessage
		if err := json.Unmarshal(trimmed, &rows); err != nil {
			return nil, err
		}
		for id, row := range rows {
			if err := x.add(id, row); err != nil {
				return nil, err
			}
		}
	case '{':
		var rows map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &rows); err != nil {
			return nil, err
		}
		for key, row := range rows {
			id, err := strconv.Atoi(strings.TrimSpace(key))
			if err != nil || id < 0 {
				return nil, fmt.Errorf("bad token id %q", key)
			}
			if err := x.add(id, row); err != nil {
				return nil, err
			}
		}
	default:
		return nil, fmt.Errorf("document must be an object or an array")
	}
	x.sortIDs()
	return x, nil
}

func (x *Index) add(id int, row json.RawMessage) error {
	if err := validateEntry(row); err != nil {
		return fmt.Errorf("token %d: %w", id, err)
	}
	if bytes.Equal(bytes.TrimSpace(row), []byte("null")) {
		return nil
	}
	var s traits.Set
	if err := json.Unmarshal(row, &s); err != nil {
		return fmt.Errorf("token %d: %w", id, err)
	}
	x.byID[id] = s
	return nil
}

func validateEntry(row json.RawMessage) error {
	entrySchemaOnce.Do(func() {
		entrySchema, entrySchemaErr = jsonschema.CompileString("metadata.schema.json", entrySchemaJSON)
	})
	if entrySchemaErr != nil {
		return entrySchemaErr
	}
	var v any
	if err := json.Unmarshal(row, &v); err != nil {
		return err
	}
	return entrySchema.Validate(v)
}

func sha256Hex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// Get returns the catalogued Trait-Set of id.
func (x *Index) Get(id int) (traits.Set, bool) {
	s, ok := x.byID[id]
	if !ok {
		return traits.Set{}, false
	}
	return s.Clone(), true
}

// Lookup returns the Trait-Set of id, or the default avatar when id is not
// catalogued.
func (x *Index) Lookup(id int) (traits.Set, bool) {
	if s, ok := x.Get(id); ok {
		return s, true
	}
	return traits.DefaultAvatar(), false
}

// Scan calls fn for every entry in ascending ID order until fn returns
// false. The sets handed to fn are shared with the index.
func (x *Index) Scan(fn func(id int, s traits.Set) bool) {
	for _, id := range x.ids {
		if !fn(id, x.byID[id]) {
			return
		}
	}
}

// IDs returns the catalogued token IDs in ascending order.
func (x *Index) IDs() []int {
	out := make([]int, len(x.ids))
	copy(out, x.ids)
	return out
}

func (x *Index) Len() int { return len(x.ids) }

