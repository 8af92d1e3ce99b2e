// Package fixture provides a small synthetic trait catalog and metadata
// index for black-box tests of the engine packages.
//
// Catalogued tokens:
//
//	1  Male   Mysterious  Classic T-Shirt  Cargo Pants  Beanie  Basic H
//	2  Female Sunny       Polka Shirt      None        -       Golden H
//	3  Male   Sunny       Striped Shirt    Cargo Pants  -       Diamond H
//	4  Male   Sunny       Striped Shirt    Cargo Pants  -       Basic H
//	5  Male   Mysterious  Striped Shirt    None        Beanie  Rainbow H
package fixture

import (
	"figurebuilder.app/internal/catalogs"
	"figurebuilder.app/internal/metadata"
	"figurebuilder.app/internal/traits"
)

// Catalog returns the synthetic trait catalog.
func Catalog() *catalogs.Catalog {
	return catalogs.New(catalogs.Spec{
		Parts: map[traits.Trait]map[string]catalogs.Fragment{
			traits.Gender: {
				traits.Male:   catalogs.Plain("M"),
				traits.Female: catalogs.Plain("F"),
			},
			traits.Complexion: {
				"Vanilla": catalogs.Plain("1"),
				"Cocoa":   catalogs.Plain("8"),
			},
			traits.Face: {
				"Default":    catalogs.Plain("hd-180-{0}"),
				"Mummy Face": catalogs.Split("hd-3091-{0}", ""),
			},
			traits.Shirt: {
				"Classic T-Shirt": catalogs.Plain("ch-210-{0}"),
				"Striped Shirt":   catalogs.Plain("ch-215-{0}"),
				"Polka Shirt":     catalogs.Split("", "ch-3185-{0}"),
				"Missing Shirt":   catalogs.Plain(""),
				"Lab Coat":        catalogs.Split("", ""),
			},
			traits.Hair: {
				traits.None: catalogs.Plain(""),
				"Mohawk":    catalogs.Plain("hr-155-{0}"),
			},
			traits.HairColor: {
				traits.None: catalogs.Plain("45"),
				"Black":     catalogs.Plain("61"),
			},
			traits.Hat: {
				traits.None:     catalogs.Plain(""),
				"Beanie":        catalogs.Plain("ha-1003-{0}"),
				"Propeller Hat": catalogs.Plain("ha-3402-{0}"),
			},
			traits.Legs: {
				traits.None:   catalogs.Plain("lg-270-{0}"),
				"Cargo Pants": catalogs.Plain("lg-3023-{0}"),
			},
			traits.Eyewear: {
				traits.None:  catalogs.Plain(""),
				"Shades":     catalogs.Plain("ea-1401-{0}"),
				"Laser Eyes": catalogs.Plain("ea-3577-{0}"),
			},
		},
		Hues: map[string]map[traits.Trait]string{
			"Mysterious": {
				traits.Shirt:   "",
				traits.Legs:    "110",
				traits.Hat:     "1408-110",
				traits.Eyewear: "92",
			},
			"Sunny": {
				traits.Shirt:   "1320-1321",
				traits.Legs:    "1320",
				traits.Hat:     "1320",
				traits.Eyewear: "1321",
			},
		},
		Required: map[traits.Trait]map[string]int{
			traits.Shirt:   {"Classic T-Shirt": 2, "Striped Shirt": 1, "Polka Shirt": 1},
			traits.Legs:    {traits.None: 1, "Cargo Pants": 2},
			traits.Hat:     {"Beanie": 2, "Propeller Hat": 1},
			traits.Eyewear: {"Shades": 1},
		},
	})
}

// Avatar builds a Set with Legs defaulted to None, as loaded avatars are.
func Avatar(entries map[traits.Trait]string) traits.Set {
	s := traits.NewSet(entries)
	if !s.Has(traits.Legs) {
		s = s.With(traits.Legs, traits.None)
	}
	return s
}

// Entries returns the synthetic metadata rows.
func Entries() map[int]traits.Set {
	return map[int]traits.Set{
		1: traits.NewSet(map[traits.Trait]string{
			traits.Gender: traits.Male, traits.Hues: "Mysterious", traits.Complexion: "Vanilla",
			traits.Face: "Default", traits.Shirt: "Classic T-Shirt", traits.Legs: "Cargo Pants",
			traits.Hat: "Beanie", traits.Effect: "Basic H",
		}),
		2: traits.NewSet(map[traits.Trait]string{
			traits.Gender: traits.Female, traits.Hues: "Sunny", traits.Complexion: "Cocoa",
			traits.Face: "Default", traits.Shirt: "Polka Shirt", traits.Effect: "Golden H",
		}),
		3: traits.NewSet(map[traits.Trait]string{
			traits.Gender: traits.Male, traits.Hues: "Sunny", traits.Complexion: "Vanilla",
			traits.Face: "Default", traits.Shirt: "Striped Shirt", traits.Legs: "Cargo Pants",
			traits.Effect: "Diamond H",
		}),
		4: traits.NewSet(map[traits.Trait]string{
			traits.Gender: traits.Male, traits.Hues: "Sunny", traits.Complexion: "Vanilla",
			traits.Face: "Default", traits.Shirt: "Striped Shirt", traits.Legs: "Cargo Pants",
			traits.Effect: "Basic H",
		}),
		5: traits.NewSet(map[traits.Trait]string{
			traits.Gender: traits.Male, traits.Hues: "Mysterious", traits.Complexion: "Vanilla",
			traits.Face: "Default", traits.Shirt: "Striped Shirt", traits.Hat: "Beanie",
			traits.Effect: "Rainbow H",
		}),
	}
}

// Index returns the synthetic metadata index.
func Index() *metadata.Index {
	return metadata.New(Entries())
}
