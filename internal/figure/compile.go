// Package figure derives the image service figure string from a Trait-Set
// and builds the URLs handed to the external collaborators.
package figure

import (
	"regexp"
	"strconv"
	"strings"

	"figurebuilder.app/internal/catalogs"
	"figurebuilder.app/internal/traits"
)

var placeholder = regexp.MustCompile(`\{(\d+)\}`)

// Format replaces positional {n} placeholders with args[n]. Placeholders
// without a matching argument are left as they are.
func Format(template string, args ...string) string {
	if !strings.Contains(template, "{") {
		return template
	}
	return placeholder.ReplaceAllStringFunc(template, func(m string) string {
		n, err := strconv.Atoi(m[1 : len(m)-1])
		if err != nil || n >= len(args) {
			return m
		}
		return args[n]
	})
}

// Compile maps s to the figure string: the non-empty fragments of every
// renderable trait, coloured and joined with "." in enumeration order.
// Options without a registered fragment contribute nothing.
func Compile(s traits.Set, c *catalogs.Catalog) string {
	gender := s.Get(traits.Gender)
	hue := s.Get(traits.Hues)
	complexion := s.Get(traits.Complexion)
	hairColor := s.Get(traits.HairColor)

	parts := make([]string, 0, 12)
	for _, t := range traits.All() {
		role := t.Role()
		if role == traits.RoleControl {
			continue
		}
		frag, ok := c.Fragment(t, s.Get(t))
		if !ok {
			continue
		}
		tmpl := frag.Resolve(gender)
		if tmpl == "" {
			continue
		}

		var colors string
		switch role {
		case traits.RoleHue:
			colors, ok = c.HueColors(hue, t)
		case traits.RoleComplexion:
			colors, ok = c.ColorSource(traits.Complexion, complexion)
		case traits.RoleHairColor:
			colors, ok = c.ColorSource(traits.HairColor, hairColor)
		}
		var part string
		if ok {
			part = Format(tmpl, colors)
		} else {
			part = Format(tmpl)
		}
		if part != "" {
			parts = append(parts, part)
		}
	}
	return strings.Join(parts, ".")
}
