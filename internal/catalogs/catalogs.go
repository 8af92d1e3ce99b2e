package catalogs

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"figurebuilder.app/internal/traits"
)

const (
	PartsFile  = "figureparts.json"
	ColorsFile = "traitcolors.json"
)

// Catalog is the static trait lookup data: per-trait options and their
// fragments, the hue colour table and the required colour counts. It is
// immutable after construction and safe for concurrent readers.
type Catalog struct {
	parts   map[traits.Trait]map[string]Fragment
	options map[traits.Trait][]string

	hues     map[string]map[traits.Trait]string
	hueOrder []string

	required map[traits.Trait]map[string]int

	PartsDigest  string
	ColorsDigest string
}

// Spec holds the raw tables for building a Catalog in code.
type Spec struct {
	Parts    map[traits.Trait]map[string]Fragment
	Hues     map[string]map[traits.Trait]string
	Required map[traits.Trait]map[string]int
}

// New builds a Catalog from in-memory tables. Option order is lexical with
// None first; Load keeps document order instead.
func New(s Spec) *Catalog {
	c := &Catalog{
		parts:    map[traits.Trait]map[string]Fragment{},
		options:  map[traits.Trait][]string{},
		hues:     map[string]map[traits.Trait]string{},
		required: map[traits.Trait]map[string]int{},
	}
	for t, opts := range s.Parts {
		m := make(map[string]Fragment, len(opts))
		keys := make([]string, 0, len(opts))
		for v, f := range opts {
			m[v] = f
			keys = append(keys, v)
		}
		c.parts[t] = m
		c.options[t] = sortOptions(keys)
	}
	for hue, row := range s.Hues {
		m := make(map[traits.Trait]string, len(row))
		for t, colors := range row {
			m[t] = colors
		}
		c.hues[hue] = m
		c.hueOrder = append(c.hueOrder, hue)
	}
	c.hueOrder = sortOptions(c.hueOrder)
	for t, row := range s.Required {
		m := make(map[string]int, len(row))
		for v, n := range row {
			m[v] = n
		}
		c.required[t] = m
	}
	return c
}

func sortOptions(in []string) []string {
	sort.Slice(in, func(i, j int) bool {
		if (in[i] == traits.None) != (in[j] == traits.None) {
			return in[i] == traits.None
		}
		return in[i] < in[j]
	})
	return in
}

// Load reads figureparts.json and traitcolors.json from dir.
func Load(dir string) (*Catalog, error) {
	c := &Catalog{
		parts:    map[traits.Trait]map[string]Fragment{},
		options:  map[traits.Trait][]string{},
		hues:     map[string]map[traits.Trait]string{},
		required: map[traits.Trait]map[string]int{},
	}
	if err := loadParts(filepath.Join(dir, PartsFile), c); err != nil {
		return nil, err
	}
	if err := loadColors(filepath.Join(dir, ColorsFile), c); err != nil {
		return nil, err
	}
	return c, nil
}

func sha256Hex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

func loadParts(path string, c *Catalog) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	c.PartsDigest = sha256Hex(raw)
	if err := validateDoc(partsSchema, raw); err != nil {
		return fmt.Errorf("%s: %w", PartsFile, err)
	}

	order, doc, err := orderedObject(raw)
	if err != nil {
		return fmt.Errorf("%s: %w", PartsFile, err)
	}
	for _, name := range order {
		t, ok := traits.Parse(name)
		if !ok {
			return fmt.Errorf("%s: unknown trait %q", PartsFile, name)
		}
		optOrder, optRaw, err := orderedObject(doc[name])
		if err != nil {
			return fmt.Errorf("%s: %s: %w", PartsFile, name, err)
		}
		if t == traits.Hues {
			for _, hue := range optOrder {
				var row map[string]string
				if err := json.Unmarshal(optRaw[hue], &row); err != nil {
					return fmt.Errorf("%s: Hues %q: %w", PartsFile, hue, err)
				}
				m := make(map[traits.Trait]string, len(row))
				for tn, colors := range row {
					ht, ok := traits.Parse(tn)
					if !ok {
						return fmt.Errorf("%s: Hues %q: unknown trait %q", PartsFile, hue, tn)
					}
					m[ht] = colors
				}
				c.hues[hue] = m
			}
			c.hueOrder = optOrder
			continue
		}
		m := make(map[string]Fragment, len(optOrder))
		for _, opt := range optOrder {
			var f Fragment
			if err := json.Unmarshal(optRaw[opt], &f); err != nil {
				return fmt.Errorf("%s: %s %q: %w", PartsFile, name, opt, err)
			}
			m[opt] = f
		}
		c.parts[t] = m
		c.options[t] = optOrder
	}
	return nil
}

func loadColors(path string, c *Catalog) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	c.ColorsDigest = sha256Hex(raw)
	if err := validateDoc(colorsSchema, raw); err != nil {
		return fmt.Errorf("%s: %w", ColorsFile, err)
	}
	var doc map[string]map[string]int
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("%s: %w", ColorsFile, err)
	}
	for name, row := range doc {
		t, ok := traits.Parse(name)
		if !ok {
			return fmt.Errorf("%s: unknown trait %q", ColorsFile, name)
		}
		c.required[t] = row
	}
	return nil
}

// orderedObject decodes a JSON object keeping its key order.
func orderedObject(raw []byte) ([]string, map[string]json.RawMessage, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return nil, nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, nil, fmt.Errorf("expected object")
	}
	var keys []string
	vals := map[string]json.RawMessage{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, nil, fmt.Errorf("expected object key")
		}
		var v json.RawMessage
		if err := dec.Decode(&v); err != nil {
			return nil, nil, fmt.Errorf("%q: %w", key, err)
		}
		if _, dup := vals[key]; !dup {
			keys = append(keys, key)
		}
		vals[key] = v
	}
	if _, err := dec.Token(); err != nil {
		return nil, nil, err
	}
	return keys, vals, nil
}

// Traits lists the traits that have an option table, in enumeration order.
// Hues is included when the hue table is non-empty.
func (c *Catalog) Traits() []traits.Trait {
	var out []traits.Trait
	for _, t := range traits.All() {
		if c.HasTrait(t) {
			out = append(out, t)
		}
	}
	return out
}

// HasTrait reports whether t has an option table.
func (c *Catalog) HasTrait(t traits.Trait) bool {
	if t == traits.Hues {
		return len(c.hues) > 0
	}
	_, ok := c.parts[t]
	return ok
}

// Options returns the registered option values of t.
func (c *Catalog) Options(t traits.Trait) []string {
	src := c.options[t]
	if t == traits.Hues {
		src = c.hueOrder
	}
	out := make([]string, len(src))
	copy(out, src)
	return out
}

// Fragment returns the fragment registered for (t, value).
func (c *Catalog) Fragment(t traits.Trait, value string) (Fragment, bool) {
	opts, ok := c.parts[t]
	if !ok {
		return Fragment{}, false
	}
	f, ok := opts[value]
	return f, ok
}

// HueColors returns the hyphen separated colour codes that hue provides for
// t. ok is false when the hue or its entry for t is absent.
func (c *Catalog) HueColors(hue string, t traits.Trait) (string, bool) {
	row, ok := c.hues[hue]
	if !ok {
		return "", false
	}
	colors, ok := row[t]
	return colors, ok
}

// AvailableColors counts the colour channels hue provides for t. Absent and
// empty entries count as zero.
func (c *Catalog) AvailableColors(hue string, t traits.Trait) int {
	colors, _ := c.HueColors(hue, t)
	return countChannels(colors)
}

func countChannels(colors string) int {
	if colors == "" {
		return 0
	}
	return len(strings.Split(colors, "-"))
}

// ColorSource returns the colour string registered as the plain fragment of
// a colour-providing trait option (Complexion, Hair Color).
func (c *Catalog) ColorSource(t traits.Trait, value string) (string, bool) {
	f, ok := c.Fragment(t, value)
	if !ok {
		return "", false
	}
	return f.Resolve(traits.Male), true
}

// RequiredColors is how many colour channels option value of t needs.
func (c *Catalog) RequiredColors(t traits.Trait, value string) int {
	return c.required[t][value]
}
