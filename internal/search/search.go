// Package search implements the trait option autocomplete. A query matches
// an option when it appears in the "<trait> <value>" label, and falls back
// to edit distance against the value for typos.
package search

import (
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
	"golang.org/x/text/cases"

	"figurebuilder.app/internal/catalogs"
	"figurebuilder.app/internal/traits"
)

type Option struct {
	Trait traits.Trait `json:"trait"`
	Value string       `json:"value"`
}

// Label is the text an option is listed and searched under.
func (o Option) Label() string { return string(o.Trait) + " " + o.Value }

type Result struct {
	Option
	Score  float64 `json:"score"`
	Source string  `json:"source"`
}

type entry struct {
	opt   Option
	label string
	value string
	pos   int
}

// Index holds every catalog option in catalog order, pre-folded for
// matching. It is immutable and safe for concurrent queries.
type Index struct {
	entries []entry
}

func New(c *catalogs.Catalog) *Index {
	fold := cases.Fold()
	x := &Index{}
	for _, t := range c.Traits() {
		for _, v := range c.Options(t) {
			o := Option{Trait: t, Value: v}
			x.entries = append(x.entries, entry{
				opt:   o,
				label: fold.String(o.Label()),
				value: fold.String(v),
				pos:   len(x.entries),
			})
		}
	}
	return x
}

func (x *Index) Len() int { return len(x.entries) }

// Options returns every option in catalog order, grouped by trait.
func (x *Index) Options() []Option {
	out := make([]Option, len(x.entries))
	for i, e := range x.entries {
		out[i] = e.opt
	}
	return out
}

// Query returns up to limit options ranked by score. limit <= 0 means no
// limit. An empty query lists every option in catalog order.
func (x *Index) Query(q string, limit int) []Result {
	q = strings.Join(strings.Fields(cases.Fold().String(q)), " ")
	type scored struct {
		Result
		pos int
	}
	var hits []scored
	for _, e := range x.entries {
		r, ok := score(e, q)
		if !ok {
			continue
		}
		r.Option = e.opt
		hits = append(hits, scored{Result: r, pos: e.pos})
	}
	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].pos < hits[j].pos
	})
	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}
	out := make([]Result, len(hits))
	for i, h := range hits {
		out[i] = h.Result
	}
	return out
}

func score(e entry, q string) (Result, bool) {
	switch {
	case q == "":
		return Result{Score: 0.5, Source: "all"}, true
	case e.value == q || e.label == q:
		return Result{Score: 1.0, Source: "exact"}, true
	case strings.HasPrefix(e.value, q):
		return Result{Score: 0.9, Source: "prefix"}, true
	case strings.Contains(e.label, q):
		return Result{Score: 0.8, Source: "label"}, true
	}
	if len(q) < 3 {
		return Result{}, false
	}
	dist := levenshtein.ComputeDistance(q, e.value)
	if dist > distanceLimit(len(e.value)) {
		return Result{}, false
	}
	return Result{Score: 0.72 - 0.08*float64(dist), Source: "lev"}, true
}

func distanceLimit(length int) int {
	switch {
	case length <= 4:
		return 1
	case length <= 8:
		return 2
	default:
		return 3
	}
}
