package view_test

import (
	"reflect"
	"strings"
	"testing"

	"figurebuilder.app/internal/classify"
	"figurebuilder.app/internal/figure"
	"figurebuilder.app/internal/fixture"
	"figurebuilder.app/internal/match"
	"figurebuilder.app/internal/traits"
	"figurebuilder.app/internal/view"
)

func input(working traits.Set) view.Input {
	return view.Input{
		Working:  working,
		Base:     fixture.Avatar(traits.DefaultAvatar().Normalized()),
		Catalog:  fixture.Catalog(),
		Metadata: fixture.Index(),
		Links:    figure.DefaultLinks(),
	}
}

func base() traits.Set {
	return fixture.Avatar(traits.DefaultAvatar().Normalized())
}

func TestDerive_EditedShirt(t *testing.T) {
	v := view.Derive(input(base().With(traits.Shirt, "Striped Shirt")))

	if v.Figure != "hd-180-1.ch-215-.lg-270-110" {
		t.Fatalf("figure: %q", v.Figure)
	}
	if want := figure.Nitro.Base + v.Figure + "&direction=4&head_direction=4"; v.ImageURL != want {
		t.Fatalf("image url: %s", v.ImageURL)
	}
	if len(v.Edited) != 1 || len(v.Qualifying) != 1 {
		t.Fatalf("edited %v qualifying %v", v.Edited, v.Qualifying)
	}
	if v.Total != 3 || v.HasMore || len(v.Suggestions) != 3 || v.NoMatch != "" {
		t.Fatalf("suggestions: total=%d more=%v n=%d msg=%q", v.Total, v.HasMore, len(v.Suggestions), v.NoMatch)
	}
	first := v.Suggestions[0]
	if first.ID != 4 || !strings.HasSuffix(first.MarketplaceURL, "/4") || !strings.HasSuffix(first.ImageURL, "/4.png") {
		t.Fatalf("first suggestion: %+v", first)
	}
	if len(v.Colors) != 1 || v.Colors[0].Trait != traits.Shirt || v.Colors[0].Message != "Missing primary color." {
		t.Fatalf("colour notes: %+v", v.Colors)
	}
	if v.Traits != nil {
		t.Fatalf("options were not requested")
	}
}

func TestDerive_Paging(t *testing.T) {
	in := input(base().With(traits.Shirt, "Striped Shirt"))
	in.Limit = 2
	v := view.Derive(in)
	if len(v.Suggestions) != 2 || !v.HasMore || v.Total != 3 {
		t.Fatalf("paging: n=%d more=%v total=%d", len(v.Suggestions), v.HasMore, v.Total)
	}
}

func TestDerive_NoMatchMessage(t *testing.T) {
	v := view.Derive(input(base().With(traits.Shirt, "Lab Coat")))
	if v.NoMatch != view.NoMatchMessage || len(v.Suggestions) != 0 || v.Total != 0 {
		t.Fatalf("no match: %+v", v)
	}

	// Without qualifying edits there is no search and so no message.
	v = view.Derive(input(base().With(traits.Gender, traits.Female)))
	if v.NoMatch != "" || len(v.Suggestions) != 0 || len(v.Qualifying) != 0 {
		t.Fatalf("gender only: %+v", v)
	}
}

func TestDerive_Deterministic(t *testing.T) {
	in := input(base().With(traits.Shirt, "Striped Shirt").With(traits.Hat, "Beanie"))
	in.Options = true
	a, b := view.Derive(in), view.Derive(in)
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("derive is not deterministic")
	}
}

func TestDerive_OptionViews(t *testing.T) {
	in := input(base().With(traits.Shirt, "Striped Shirt"))
	in.Options = true
	in.Direction = 9
	v := view.Derive(in)
	if v.Direction != figure.DefaultDirection {
		t.Fatalf("out of range direction should reset: %d", v.Direction)
	}

	byTrait := map[traits.Trait]view.TraitView{}
	for _, tv := range v.Traits {
		byTrait[tv.Trait] = tv
	}
	opt := func(tr traits.Trait, value string) view.OptionView {
		t.Helper()
		for _, o := range byTrait[tr].Options {
			if o.Value == value {
				return o
			}
		}
		t.Fatalf("%s has no option %s", tr, value)
		return view.OptionView{}
	}

	shirt := byTrait[traits.Shirt]
	if !shirt.Edited || shirt.Value != "Striped Shirt" {
		t.Fatalf("shirt view: %+v", shirt)
	}
	if o := opt(traits.Shirt, "Striped Shirt"); !o.Selected {
		t.Fatalf("current option not selected")
	}
	if o := opt(traits.Shirt, "Polka Shirt"); o.Flags.Status != classify.StatusGenderIncompatible || o.Hint != match.HintNeutral {
		t.Fatalf("polka shirt: %+v", o)
	}
	if o := opt(traits.Shirt, "Lab Coat"); o.Hint != match.HintUnreachable || o.Message != "Trait info missing" {
		t.Fatalf("lab coat: %+v", o)
	}
	if o := opt(traits.Hat, "Propeller Hat"); !o.MasterGen || o.Hint != match.HintNeutral {
		t.Fatalf("propeller hat: %+v", o)
	}
	if o := opt(traits.Complexion, "Cocoa"); o.Hint != match.HintUnreachable {
		t.Fatalf("cocoa: %+v", o)
	}
	if o := opt(traits.Hues, "Mysterious"); !o.Flags.HueGaps {
		t.Fatalf("mysterious hue: %+v", o)
	}
}
