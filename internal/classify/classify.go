// Package classify flags trait options that cannot render as selected. All
// results are advisory; nothing here blocks a selection.
package classify

import (
	"fmt"

	"figurebuilder.app/internal/catalogs"
	"figurebuilder.app/internal/traits"
)

type Status int

const (
	StatusOK Status = iota
	// StatusMissingData: no fragment is registered for the option.
	StatusMissingData
	// StatusGenderIncompatible: only the other gender's half is registered.
	StatusGenderIncompatible
)

func (s Status) String() string {
	switch s {
	case StatusMissingData:
		return "missing-data"
	case StatusGenderIncompatible:
		return "gender-incompatible"
	default:
		return "ok"
	}
}

func (s Status) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// Message is the hint text shown next to a flagged option.
func (s Status) Message() string {
	switch s {
	case StatusMissingData:
		return "Trait info missing"
	case StatusGenderIncompatible:
		return "Trait is incompatible with selected gender"
	default:
		return ""
	}
}

// Option checks that (t, value) has a fragment usable under gender. None is
// always ok. Traits without an option table have nothing to render and are
// ok as well.
func Option(c *catalogs.Catalog, t traits.Trait, value, gender string) Status {
	if value == traits.None || t == traits.Hues || !c.HasTrait(t) {
		return StatusOK
	}
	f, ok := c.Fragment(t, value)
	if !ok || !f.Defined() {
		return StatusMissingData
	}
	if f.Gendered && f.For(gender) == "" {
		return StatusGenderIncompatible
	}
	return StatusOK
}

// Deficiency describes colour channels an option needs but its hue lacks.
type Deficiency struct {
	Trait     traits.Trait `json:"trait"`
	Value     string       `json:"value"`
	Required  int          `json:"required"`
	Available int          `json:"available"`
}

func (d Deficiency) MissingPrimary() bool { return d.Available == 0 && d.Required > 0 }

func (d Deficiency) MissingSecondary() bool { return d.Required >= 2 && d.Available <= 1 }

// Missing is the number of absent channels.
func (d Deficiency) Missing() int { return d.Required - d.Available }

func (d Deficiency) Message() string {
	switch {
	case d.MissingPrimary() && d.MissingSecondary():
		return "Missing primary and secondary color."
	case d.MissingSecondary():
		return "Missing secondary color."
	case d.MissingPrimary():
		return "Missing primary color."
	default:
		return fmt.Sprintf("Missing %d of %d colors.", d.Missing(), d.Required)
	}
}

// MissingColors compares the channels option value of t requires against
// what hue provides for t. ok is false when nothing is missing.
func MissingColors(c *catalogs.Catalog, t traits.Trait, value, hue string) (Deficiency, bool) {
	required := c.RequiredColors(t, value)
	if required <= 0 {
		return Deficiency{}, false
	}
	available := c.AvailableColors(hue, t)
	if available >= required {
		return Deficiency{}, false
	}
	return Deficiency{Trait: t, Value: value, Required: required, Available: available}, true
}

// TraitDeficiencies lists the deficiencies of every current value of s under
// its own hue, in enumeration order.
func TraitDeficiencies(c *catalogs.Catalog, s traits.Set) []Deficiency {
	return deficiencies(c, s.Get(traits.Hues), s)
}

// HueHasGaps reports whether hue lacks channels for any current value of s.
func HueHasGaps(c *catalogs.Catalog, hue string, s traits.Set) bool {
	return len(deficiencies(c, hue, s)) > 0
}

func deficiencies(c *catalogs.Catalog, hue string, s traits.Set) []Deficiency {
	var out []Deficiency
	for _, t := range traits.All() {
		if d, ok := MissingColors(c, t, s.Get(t), hue); ok {
			out = append(out, d)
		}
	}
	return out
}

// Flags is the combined advisory state of one option.
type Flags struct {
	Status  Status      `json:"status"`
	Colors  *Deficiency `json:"colors,omitempty"`
	HueGaps bool        `json:"hue_gaps,omitempty"`
}

func (f Flags) Clean() bool {
	return f.Status == StatusOK && f.Colors == nil && !f.HueGaps
}

// Message is the hint text for the most severe flag, or "" when clean.
func (f Flags) Message() string {
	switch {
	case f.Status != StatusOK:
		return f.Status.Message()
	case f.HueGaps:
		return "Some colors are missing"
	case f.Colors != nil:
		return f.Colors.Message()
	default:
		return ""
	}
}

// OptionFlags evaluates selecting value for t on top of the working set s.
// Hue options are checked for gaps against the rest of s; other options for
// fragment availability and then colour completeness.
func OptionFlags(c *catalogs.Catalog, s traits.Set, t traits.Trait, value string) Flags {
	if value == traits.None {
		return Flags{}
	}
	if t == traits.Hues {
		return Flags{HueGaps: HueHasGaps(c, value, s)}
	}
	st := Option(c, t, value, s.Get(traits.Gender))
	if st != StatusOK {
		return Flags{Status: st}
	}
	if d, ok := MissingColors(c, t, value, s.Get(traits.Hues)); ok {
		return Flags{Colors: &d}
	}
	return Flags{}
}
