package catalogs

import (
	"bytes"
	"encoding/json"
	"fmt"

	"figurebuilder.app/internal/traits"
)

// Fragment is the render template registered for one trait option: either a
// plain string or a gender split pair where either half may be empty.
type Fragment struct {
	Plain    string
	Male     string
	Female   string
	Gendered bool
}

func Plain(s string) Fragment { return Fragment{Plain: s} }

func Split(male, female string) Fragment {
	return Fragment{Male: male, Female: female, Gendered: true}
}

// Resolve picks the template for gender. A split fragment prefers the half
// matching gender and falls back to the other one.
func (f Fragment) Resolve(gender string) string {
	if !f.Gendered {
		return f.Plain
	}
	if gender == traits.Male {
		if f.Male != "" {
			return f.Male
		}
		return f.Female
	}
	if f.Female != "" {
		return f.Female
	}
	return f.Male
}

// For returns only the half matching gender, without fallback.
func (f Fragment) For(gender string) string {
	if !f.Gendered {
		return f.Plain
	}
	if gender == traits.Male {
		return f.Male
	}
	return f.Female
}

// Defined reports whether any template text is registered.
func (f Fragment) Defined() bool {
	if f.Gendered {
		return f.Male != "" || f.Female != ""
	}
	return f.Plain != ""
}

func (f Fragment) MarshalJSON() ([]byte, error) {
	if !f.Gendered {
		return json.Marshal(f.Plain)
	}
	return json.Marshal(struct {
		M string `json:"m,omitempty"`
		F string `json:"f,omitempty"`
	}{f.Male, f.Female})
}

func (f *Fragment) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 {
		return fmt.Errorf("empty fragment")
	}
	switch b[0] {
	case '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = Plain(s)
		return nil
	case '{':
		var g struct {
			M *string `json:"m"`
			F *string `json:"f"`
		}
		if err := json.Unmarshal(b, &g); err != nil {
			return err
		}
		out := Fragment{Gendered: true}
		if g.M != nil {
			out.Male = *g.M
		}
		if g.F != nil {
			out.Female = *g.F
		}
		*f = out
		return nil
	case 'n':
		*f = Fragment{}
		return nil
	default:
		return fmt.Errorf("fragment must be a string or {m,f} object")
	}
}
