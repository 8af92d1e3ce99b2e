// Package wallet ranks the tokens a connected account holds and converts the
// tokensOfOwner call payloads exchanged with the wallet provider.
package wallet

import (
	"sort"

	"figurebuilder.app/internal/catalogs"
	"figurebuilder.app/internal/classify"
	"figurebuilder.app/internal/traits"
)

// Lookup resolves a token to its trait set. ok is false for uncatalogued
// tokens, which still get a usable set.
type Lookup interface {
	Lookup(id int) (traits.Set, bool)
}

type Token struct {
	ID         int        `json:"id"`
	Traits     traits.Set `json:"traits"`
	Catalogued bool       `json:"catalogued"`
	HueGaps    bool       `json:"hue_gaps"`
}

// Rank orders owned tokens so that those whose hue lacks colour channels for
// their own traits come first, then by ascending ID. Uncatalogued tokens are
// evaluated with the default avatar.
func Rank(ids []int, meta Lookup, c *catalogs.Catalog) []Token {
	out := make([]Token, 0, len(ids))
	for _, id := range ids {
		s, ok := meta.Lookup(id)
		out = append(out, Token{
			ID:         id,
			Traits:     s,
			Catalogued: ok,
			HueGaps:    classify.HueHasGaps(c, s.Get(traits.Hues), s),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].HueGaps != out[j].HueGaps {
			return out[i].HueGaps
		}
		return out[i].ID < out[j].ID
	})
	return out
}
