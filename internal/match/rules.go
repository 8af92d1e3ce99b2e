package match

import "figurebuilder.app/internal/traits"

// allowNone lists traits where None is a neutral state: editing them to
// None never constrains a match.
var allowNone = map[traits.Trait]bool{
	traits.Belt:          true,
	traits.Eyewear:       true,
	traits.Hair:          true,
	traits.HairColor:     true,
	traits.Hat:           true,
	traits.HeadAccessory: true,
	traits.Jacket:        true,
	traits.Jewelry:       true,
	traits.Mask:          true,
}

func AllowsNone(t traits.Trait) bool { return allowNone[t] }

// masterGen holds values exclusive to the master generation tier. No
// catalogued avatar can carry them.
var masterGen = map[traits.Trait][]string{
	traits.Eyewear:       {"Laser Eyes", "Pirate Skull Patch", "Blindfold"},
	traits.Face:          {"Mummy Face", "Tentacle Dude", "Hairy Dude"},
	traits.Hat:           {"Propeller Hat", "Pirate Hat", "Fedora"},
	traits.HeadAccessory: {"Star Shades"},
	traits.Jacket:        {"Bankruptcy Barrel", "Pirate Jacket", "Bomber Jacket"},
	traits.Jewelry:       {"Headphones"},
	traits.Legs:          {"Checkered Shorts", "Wide Jeans", "Wrapped Pants"},
	traits.Mask:          {"Handlebar Mustache", "Phantom Mask"},
	traits.Shirt:         {"Grid Shirt", "Wider Stripes"},
	traits.Shoes:         {"Clown Shoes", "Mismatched Shoes", "HC Shoes"},
}

func IsMasterGen(t traits.Trait, value string) bool {
	for _, v := range masterGen[t] {
		if v == value {
			return true
		}
	}
	return false
}

var effectRanks = map[string]int{
	"Basic H":        0,
	"Golden H":       1,
	"Diamond H":      2,
	"Rainbow H":      3,
	"Trippy H":       4,
	"Ultra Trippy H": 5,
}

// EffectRank is the rarity ordinal of an Effect value. Unknown effects rank 0.
func EffectRank(effect string) int {
	return effectRanks[effect]
}
