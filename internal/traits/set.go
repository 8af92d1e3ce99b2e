package traits

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Set is one avatar's trait selections. It is sparse: a trait without an
// entry reads as None through Get, and every comparison goes through Get.
// A Set is a value; With and Without return modified copies.
type Set struct {
	m map[Trait]string
}

// NewSet builds a Set from explicit entries. Entries for traits outside the
// closed set are dropped.
func NewSet(entries map[Trait]string) Set {
	s := Set{m: make(map[Trait]string, len(entries))}
	for t, v := range entries {
		if !t.Valid() {
			continue
		}
		s.m[t] = v
	}
	return s
}

// FromRecord builds a Set from the fixed-shape record form. Unknown trait
// names are returned rather than failing the whole record.
func FromRecord(rec map[string]string) (Set, []string) {
	s := Set{m: make(map[Trait]string, len(rec))}
	var unknown []string
	for name, v := range rec {
		t, ok := Parse(name)
		if !ok {
			unknown = append(unknown, name)
			continue
		}
		s.m[t] = v
	}
	return s, unknown
}

// FromAttributes builds a Set from the sparse {trait_type, value} list form.
// Later duplicates win.
func FromAttributes(attrs []Attribute) (Set, []string) {
	s := Set{m: make(map[Trait]string, len(attrs))}
	var unknown []string
	for _, a := range attrs {
		t, ok := Parse(a.TraitType)
		if !ok {
			unknown = append(unknown, a.TraitType)
			continue
		}
		s.m[t] = a.Value
	}
	return s, unknown
}

// DefaultAvatar is substituted for token IDs missing from the metadata
// catalog.
func DefaultAvatar() Set {
	return NewSet(map[Trait]string{
		Gender:     Male,
		Complexion: "Vanilla",
		Hues:       "Mysterious",
		Face:       "Default",
		Shirt:      "Classic T-Shirt",
		Effect:     "Basic H",
	})
}

// Get returns the value of t with missing and empty entries read as None.
func (s Set) Get(t Trait) string {
	v, ok := s.m[t]
	if !ok || v == "" {
		return None
	}
	return v
}

// Has reports whether t has an explicit entry.
func (s Set) Has(t Trait) bool {
	_, ok := s.m[t]
	return ok
}

// With returns a copy of s with t set to v.
func (s Set) With(t Trait, v string) Set {
	out := s.Clone()
	if t.Valid() {
		out.m[t] = v
	}
	return out
}

// Without returns a copy of s with no explicit entry for t.
func (s Set) Without(t Trait) Set {
	out := s.Clone()
	delete(out.m, t)
	return out
}

func (s Set) Clone() Set {
	out := Set{m: make(map[Trait]string, len(s.m)+1)}
	for t, v := range s.m {
		out.m[t] = v
	}
	return out
}

// Len is the number of explicit entries.
func (s Set) Len() int { return len(s.m) }

// Equal compares two sets after normalization.
func (s Set) Equal(o Set) bool {
	for _, t := range order {
		if s.Get(t) != o.Get(t) {
			return false
		}
	}
	return true
}

// Key is a canonical encoding of the normalized set, usable as a memo key.
func (s Set) Key() string {
	var b strings.Builder
	for i, t := range order {
		if i > 0 {
			b.WriteByte(';')
		}
		b.WriteString(string(t))
		b.WriteByte('=')
		b.WriteString(s.Get(t))
	}
	return b.String()
}

// Normalized returns every trait with its normalized value.
func (s Set) Normalized() map[Trait]string {
	out := make(map[Trait]string, len(order))
	for _, t := range order {
		out[t] = s.Get(t)
	}
	return out
}

// Attributes returns the explicit entries in enumeration order.
func (s Set) Attributes() []Attribute {
	out := make([]Attribute, 0, len(s.m))
	for _, t := range order {
		if v, ok := s.m[t]; ok {
			out = append(out, Attribute{TraitType: string(t), Value: v})
		}
	}
	return out
}

// MarshalJSON encodes the record form of the explicit entries.
func (s Set) MarshalJSON() ([]byte, error) {
	rec := make(map[string]string, len(s.m))
	for t, v := range s.m {
		rec[string(t)] = v
	}
	return json.Marshal(rec)
}

// UnmarshalJSON accepts either the record form or the attribute list form.
// Unknown trait names are ignored.
func (s *Set) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("null")):
		*s = Set{m: map[Trait]string{}}
		return nil
	case len(b) > 0 && b[0] == '[':
		var attrs []Attribute
		if err := json.Unmarshal(b, &attrs); err != nil {
			return fmt.Errorf("trait list: %w", err)
		}
		*s, _ = FromAttributes(attrs)
		return nil
	default:
		var rec map[string]string
		if err := json.Unmarshal(b, &rec); err != nil {
			return fmt.Errorf("trait record: %w", err)
		}
		*s, _ = FromRecord(rec)
		return nil
	}
}
