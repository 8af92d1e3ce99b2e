// Package match finds catalogued avatars that satisfy a set of trait edits
// and ranks them for suggestion.
package match

import (
	"sort"

	"figurebuilder.app/internal/traits"
)

// Edits maps a trait to the value it was changed to.
type Edits map[traits.Trait]string

// Traits returns the edited traits in enumeration order.
func (e Edits) Traits() []traits.Trait {
	out := make([]traits.Trait, 0, len(e))
	for t := range e {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Ordinal() < out[j].Ordinal() })
	return out
}

func (e Edits) clone() Edits {
	out := make(Edits, len(e)+1)
	for t, v := range e {
		out[t] = v
	}
	return out
}

// Edited returns every trait whose working value differs from base, both
// read through the None normalisation.
func Edited(working, base traits.Set) Edits {
	out := Edits{}
	for _, t := range traits.All() {
		if v := working.Get(t); v != base.Get(t) {
			out[t] = v
		}
	}
	return out
}

// Qualifying keeps the edits that constrain a match. Gender never does,
// None on an allow-None trait is neutral, and master generation values are
// excluded because no catalogued avatar carries them.
func Qualifying(e Edits) Edits {
	out := Edits{}
	for t, v := range e {
		switch {
		case t == traits.Gender:
		case v == traits.None && AllowsNone(t):
		case IsMasterGen(t, v):
		default:
			out[t] = v
		}
	}
	return out
}

// Source is a scannable metadata catalog. Scan visits entries in ascending
// ID order until fn returns false.
type Source interface {
	Scan(fn func(id int, s traits.Set) bool)
}

type Match struct {
	ID         int        `json:"id"`
	Traits     traits.Set `json:"traits"`
	Owned      bool       `json:"owned"`
	Effect     string     `json:"effect"`
	EffectRank int        `json:"effect_rank"`
}

func satisfies(s traits.Set, constraints Edits) bool {
	for t, v := range constraints {
		if s.Get(t) != v {
			return false
		}
	}
	return true
}

// Find returns the catalogued avatars satisfying every qualifying edit of
// edits. An edit set with nothing qualifying yields no matches. Owned tokens
// sort first, then by effect rank, then by ID.
func Find(edits Edits, src Source, owned []int) []Match {
	q := Qualifying(edits)
	if len(q) == 0 {
		return nil
	}
	own := make(map[int]bool, len(owned))
	for _, id := range owned {
		own[id] = true
	}
	var out []Match
	src.Scan(func(id int, s traits.Set) bool {
		if satisfies(s, q) {
			eff := s.Get(traits.Effect)
			out = append(out, Match{
				ID:         id,
				Traits:     s,
				Owned:      own[id],
				Effect:     eff,
				EffectRank: EffectRank(eff),
			})
		}
		return true
	})
	Sort(out)
	return out
}

// Sort orders matches by ownership, effect rank and ID.
func Sort(ms []Match) {
	sort.SliceStable(ms, func(i, j int) bool {
		a, b := ms[i], ms[j]
		if a.Owned != b.Owned {
			return a.Owned
		}
		if a.EffectRank != b.EffectRank {
			return a.EffectRank < b.EffectRank
		}
		return a.ID < b.ID
	})
}

// Exists reports whether any catalogued avatar satisfies constraints as
// given. It applies no qualifying filter.
func Exists(constraints Edits, src Source) bool {
	found := false
	src.Scan(func(_ int, s traits.Set) bool {
		if satisfies(s, constraints) {
			found = true
			return false
		}
		return true
	})
	return found
}

type Hint int

const (
	HintNeutral Hint = iota
	// HintUnreachable: no catalogued avatar carries the option together with
	// the other required edits.
	HintUnreachable
)

func (h Hint) String() string {
	if h == HintUnreachable {
		return "unreachable"
	}
	return "neutral"
}

func (h Hint) MarshalText() ([]byte, error) { return []byte(h.String()), nil }

// TraitColor tints option opt of trait t. required is the current
// qualifying edit set and suggestions the matches it produced.
//
// The base value, anything on Gender, None on an allow-None trait and master
// generation values are neutral. When t is not among the required edits and
// there are suggestions, opt is neutral if some suggestion carries it.
// Otherwise the catalog is scanned with t swapped to opt while the other
// required edits stay fixed.
func TraitColor(t traits.Trait, opt string, base traits.Set, required Edits, suggestions []Match, src Source) Hint {
	switch {
	case IsMasterGen(t, opt):
		return HintNeutral
	case base.Get(t) == opt:
		return HintNeutral
	case t == traits.Gender:
		return HintNeutral
	case opt == traits.None && AllowsNone(t):
		return HintNeutral
	}
	if _, ok := required[t]; !ok && len(suggestions) > 0 {
		for _, m := range suggestions {
			if m.Traits.Get(t) == opt {
				return HintNeutral
			}
		}
		return HintUnreachable
	}
	c := required.clone()
	c[t] = opt
	if Exists(c, src) {
		return HintNeutral
	}
	return HintUnreachable
}
