package classify_test

import (
	"testing"

	"figurebuilder.app/internal/classify"
	"figurebuilder.app/internal/fixture"
	"figurebuilder.app/internal/traits"
)

func TestOption_GenderSplit(t *testing.T) {
	cat := fixture.Catalog()
	if got := classify.Option(cat, traits.Shirt, "Polka Shirt", traits.Male); got != classify.StatusGenderIncompatible {
		t.Fatalf("male polka shirt: %s", got)
	}
	if got := classify.Option(cat, traits.Shirt, "Polka Shirt", traits.Female); got != classify.StatusOK {
		t.Fatalf("female polka shirt: %s", got)
	}
	if got := classify.Option(cat, traits.Face, "Mummy Face", traits.Female); got != classify.StatusGenderIncompatible {
		t.Fatalf("female mummy face: %s", got)
	}
}

func TestOption_MissingData(t *testing.T) {
	cat := fixture.Catalog()
	cases := []struct {
		trait traits.Trait
		value string
		want  classify.Status
	}{
		{traits.Shirt, "Missing Shirt", classify.StatusMissingData},
		{traits.Shirt, "Lab Coat", classify.StatusMissingData},
		{traits.Shirt, "Not In Catalog", classify.StatusMissingData},
		{traits.Shirt, traits.None, classify.StatusOK},
		{traits.Hat, traits.None, classify.StatusOK},
		{traits.Effect, "Basic H", classify.StatusOK},
		{traits.Hues, "Mysterious", classify.StatusOK},
		{traits.Shirt, "Classic T-Shirt", classify.StatusOK},
	}
	for _, c := range cases {
		if got := classify.Option(cat, c.trait, c.value, traits.Male); got != c.want {
			t.Fatalf("%s=%s: got %s want %s", c.trait, c.value, got, c.want)
		}
	}
}

func TestMissingColors_Messages(t *testing.T) {
	cat := fixture.Catalog()

	d, ok := classify.MissingColors(cat, traits.Shirt, "Classic T-Shirt", "Mysterious")
	if !ok {
		t.Fatalf("expected deficiency")
	}
	if got := d.Message(); got != "Missing primary and secondary color." {
		t.Fatalf("message: %q", got)
	}

	d, ok = classify.MissingColors(cat, traits.Hat, "Beanie", "Sunny")
	if !ok || d.Message() != "Missing secondary color." || d.Missing() != 1 {
		t.Fatalf("beanie/sunny: %+v ok=%v", d, ok)
	}

	d, ok = classify.MissingColors(cat, traits.Shirt, "Striped Shirt", "Mysterious")
	if !ok || d.Message() != "Missing primary color." {
		t.Fatalf("striped/mysterious: %+v ok=%v", d, ok)
	}

	// Absent hue entries count as zero channels.
	d, ok = classify.MissingColors(cat, traits.Eyewear, "Shades", "Nowhere")
	if !ok || !d.MissingPrimary() {
		t.Fatalf("unknown hue: %+v ok=%v", d, ok)
	}

	if _, ok := classify.MissingColors(cat, traits.Shirt, "Classic T-Shirt", "Sunny"); ok {
		t.Fatalf("sunny provides both shirt channels")
	}
	if _, ok := classify.MissingColors(cat, traits.Shirt, "Polka Shirt", "Nowhere"); !ok {
		t.Fatalf("polka shirt needs one channel")
	}
	if _, ok := classify.MissingColors(cat, traits.Face, "Default", "Mysterious"); ok {
		t.Fatalf("face has no channel requirement")
	}
}

func TestMissingColors_NoneWhenRequirementMet(t *testing.T) {
	cat := fixture.Catalog()
	for _, tr := range traits.All() {
		for _, opt := range cat.Options(tr) {
			for _, hue := range cat.Options(traits.Hues) {
				_, missing := classify.MissingColors(cat, tr, opt, hue)
				met := cat.RequiredColors(tr, opt) <= cat.AvailableColors(hue, tr)
				if met && missing {
					t.Fatalf("%s=%s hue=%s: deficiency reported though requirement is met", tr, opt, hue)
				}
				if !met && !missing {
					t.Fatalf("%s=%s hue=%s: deficiency not reported", tr, opt, hue)
				}
			}
		}
	}
}

func TestHueHasGaps(t *testing.T) {
	cat := fixture.Catalog()
	s := fixture.Avatar(traits.DefaultAvatar().Normalized())
	if !classify.HueHasGaps(cat, "Mysterious", s) {
		t.Fatalf("Mysterious lacks shirt colours for the default avatar")
	}
	if classify.HueHasGaps(cat, "Sunny", s) {
		t.Fatalf("Sunny covers the default avatar")
	}
	defs := classify.TraitDeficiencies(cat, s)
	if len(defs) != 1 || defs[0].Trait != traits.Shirt {
		t.Fatalf("deficiencies: %+v", defs)
	}
}

func TestOptionFlags(t *testing.T) {
	cat := fixture.Catalog()
	s := fixture.Avatar(traits.DefaultAvatar().Normalized())

	if f := classify.OptionFlags(cat, s, traits.Hues, "Mysterious"); !f.HueGaps || f.Message() != "Some colors are missing" {
		t.Fatalf("expected hue gaps flag: %+v", f)
	}
	if f := classify.OptionFlags(cat, s, traits.Hues, "Sunny"); !f.Clean() {
		t.Fatalf("expected clean hue: %+v", f)
	}
	if f := classify.OptionFlags(cat, s, traits.Shirt, "Polka Shirt"); f.Status != classify.StatusGenderIncompatible || f.Colors != nil || f.Message() != "Trait is incompatible with selected gender" {
		t.Fatalf("polka shirt flags: %+v", f)
	}
	if f := classify.OptionFlags(cat, s, traits.Hat, "Beanie"); f.Colors != nil {
		t.Fatalf("Mysterious has two hat channels: %+v", f)
	}
	if f := classify.OptionFlags(cat, s, traits.Shirt, "Striped Shirt"); f.Colors == nil || f.Colors.Message() != "Missing primary color." {
		t.Fatalf("striped shirt flags: %+v", f)
	}
	if f := classify.OptionFlags(cat, s, traits.Legs, traits.None); !f.Clean() {
		t.Fatalf("None is never flagged: %+v", f)
	}
}
