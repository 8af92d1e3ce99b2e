package traits

// Trait is one avatar customization category. The set is closed.
type Trait string

const (
	Gender        Trait = "Gender"
	Hues          Trait = "Hues"
	Complexion    Trait = "Complexion"
	Face          Trait = "Face"
	Shirt         Trait = "Shirt"
	Hair          Trait = "Hair"
	HairColor     Trait = "Hair Color"
	Hat           Trait = "Hat"
	Eyewear       Trait = "Eyewear"
	Jacket        Trait = "Jacket"
	Jewelry       Trait = "Jewelry"
	Legs          Trait = "Legs"
	Mask          Trait = "Mask"
	Shoes         Trait = "Shoes"
	Belt          Trait = "Belt"
	HeadAccessory Trait = "Head Accessory"
	Effect        Trait = "Effect"
)

// None is the neutral value of every trait. Unset traits read as None.
const None = "None"

// Gender values.
const (
	Male   = "Male"
	Female = "Female"
)

// order is the enumeration order. Figure strings are assembled in it.
var order = []Trait{
	Gender,
	Hues,
	Complexion,
	Face,
	Shirt,
	Hair,
	HairColor,
	Hat,
	Eyewear,
	Jacket,
	Jewelry,
	Legs,
	Mask,
	Shoes,
	Belt,
	HeadAccessory,
	Effect,
}

var index = func() map[Trait]int {
	m := make(map[Trait]int, len(order))
	for i, t := range order {
		m[t] = i
	}
	return m
}()

// All returns every trait in enumeration order.
func All() []Trait {
	out := make([]Trait, len(order))
	copy(out, order)
	return out
}

// Parse resolves a trait by its display name.
func Parse(name string) (Trait, bool) {
	t := Trait(name)
	_, ok := index[t]
	return t, ok
}

// Valid reports whether t belongs to the closed trait set.
func (t Trait) Valid() bool {
	_, ok := index[t]
	return ok
}

// Ordinal is the position of t in enumeration order, or -1.
func (t Trait) Ordinal() int {
	if i, ok := index[t]; ok {
		return i
	}
	return -1
}

func (t Trait) String() string { return string(t) }

// Role says where a trait's fragment takes its colour from.
type Role int

const (
	// RoleControl traits never contribute a fragment of their own.
	RoleControl Role = iota
	// RoleHue traits are coloured from the hue's per-trait colour string.
	RoleHue
	// RoleComplexion is Face, coloured from the current complexion.
	RoleComplexion
	// RoleHairColor is Hair, coloured from the current hair colour.
	RoleHairColor
)

func (t Trait) Role() Role {
	switch t {
	case Belt, Eyewear, Hat, HeadAccessory, Jacket, Jewelry, Legs, Mask, Shirt, Shoes:
		return RoleHue
	case Face:
		return RoleComplexion
	case Hair:
		return RoleHairColor
	default:
		return RoleControl
	}
}

// Attribute is the sparse {trait_type, value} form used by token metadata.
type Attribute struct {
	TraitType string `json:"trait_type"`
	Value     string `json:"value"`
}
