// Package view composes the engine into a single derivation: given the
// working and base trait sets of one avatar it produces everything an editor
// needs to render that avatar.
package view

import (
	"figurebuilder.app/internal/catalogs"
	"figurebuilder.app/internal/classify"
	"figurebuilder.app/internal/figure"
	"figurebuilder.app/internal/match"
	"figurebuilder.app/internal/traits"
)

// PageSize is the default number of suggestions shown at once.
const PageSize = 16

const NoMatchMessage = "Sorry, no avatar matches selected criteria."

type Input struct {
	Working traits.Set
	Base    traits.Set

	Catalog  *catalogs.Catalog
	Metadata match.Source
	Owned    []int

	Imager    figure.Imager
	Links     figure.Links
	Direction int

	// Limit caps the suggestions returned; <= 0 means PageSize.
	Limit int
	// Options requests per-option flags and hints for every catalog trait.
	Options bool
}

type Suggestion struct {
	match.Match
	MarketplaceURL string `json:"marketplace_url"`
	ImageURL       string `json:"image_url"`
}

type OptionView struct {
	Value     string         `json:"value"`
	Flags     classify.Flags `json:"flags"`
	Message   string         `json:"message,omitempty"`
	Hint      match.Hint     `json:"hint"`
	MasterGen bool           `json:"master_gen,omitempty"`
	Selected  bool           `json:"selected,omitempty"`
}

type TraitView struct {
	Trait   traits.Trait `json:"trait"`
	Value   string       `json:"value"`
	Edited  bool         `json:"edited,omitempty"`
	Hint    match.Hint   `json:"hint"`
	Options []OptionView `json:"options,omitempty"`
}

// ColorNote is the colour deficiency of one current trait value under the
// current hue.
type ColorNote struct {
	Trait   traits.Trait `json:"trait"`
	Value   string       `json:"value"`
	Message string       `json:"message"`
}

type View struct {
	Figure        string `json:"figure"`
	ImageURL      string `json:"image_url"`
	Direction     int    `json:"direction"`
	HeadDirection int    `json:"head_direction"`

	Edited     match.Edits `json:"edited"`
	Qualifying match.Edits `json:"qualifying"`

	Suggestions []Suggestion `json:"suggestions"`
	Total       int          `json:"total"`
	HasMore     bool         `json:"has_more"`
	// NoMatch is set when qualifying edits exist but nothing satisfies them.
	NoMatch string `json:"no_match,omitempty"`

	Colors []ColorNote `json:"colors,omitempty"`
	Traits []TraitView `json:"traits,omitempty"`
}

// Derive runs the full pipeline. It is pure: equal inputs give equal views.
func Derive(in Input) View {
	dir := in.Direction
	if dir < 1 || dir > 8 {
		dir = figure.DefaultDirection
	}
	imager := in.Imager
	if imager.Base == "" {
		imager = figure.Nitro
	}
	limit := in.Limit
	if limit <= 0 {
		limit = PageSize
	}

	fig := figure.Compile(in.Working, in.Catalog)
	edited := match.Edited(in.Working, in.Base)
	required := match.Qualifying(edited)
	all := match.Find(edited, in.Metadata, in.Owned)

	v := View{
		Figure:        fig,
		ImageURL:      imager.URL(fig, dir, dir),
		Direction:     dir,
		HeadDirection: dir,
		Edited:        edited,
		Qualifying:    required,
		Total:         len(all),
		HasMore:       len(all) > limit,
		Suggestions:   []Suggestion{},
	}
	if len(required) > 0 && len(all) == 0 {
		v.NoMatch = NoMatchMessage
	}
	shown := all
	if len(shown) > limit {
		shown = shown[:limit]
	}
	for _, m := range shown {
		v.Suggestions = append(v.Suggestions, Suggestion{
			Match:          m,
			MarketplaceURL: in.Links.Marketplace(m.ID),
			ImageURL:       in.Links.TokenImage(m.ID),
		})
	}

	for _, d := range classify.TraitDeficiencies(in.Catalog, in.Working) {
		v.Colors = append(v.Colors, ColorNote{Trait: d.Trait, Value: d.Value, Message: d.Message()})
	}

	if in.Options {
		v.Traits = traitViews(in, edited, required, all)
	}
	return v
}

func traitViews(in Input, edited, required match.Edits, suggestions []match.Match) []TraitView {
	c := in.Catalog
	out := make([]TraitView, 0, len(c.Traits()))
	for _, t := range c.Traits() {
		cur := in.Working.Get(t)
		_, isEdited := edited[t]
		tv := TraitView{
			Trait:  t,
			Value:  cur,
			Edited: isEdited,
			Hint:   match.TraitColor(t, cur, in.Base, required, suggestions, in.Metadata),
		}
		for _, opt := range c.Options(t) {
			f := classify.OptionFlags(c, in.Working, t, opt)
			tv.Options = append(tv.Options, OptionView{
				Value:     opt,
				Flags:     f,
				Message:   f.Message(),
				Hint:      match.TraitColor(t, opt, in.Base, required, suggestions, in.Metadata),
				MasterGen: match.IsMasterGen(t, opt),
				Selected:  opt == cur,
			})
		}
		out = append(out, tv)
	}
	return out
}
