// Command figure loads one avatar, applies trait edits and prints the
// resulting figure string, image URL, colour deficiencies and ranked
// suggestions.
//
//	figure -id 1234 -set Shirt="Striped Shirt" -set Hat=None -owned 5,17
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"

	"figurebuilder.app/internal/catalogs"
	"figurebuilder.app/internal/figure"
	"figurebuilder.app/internal/match"
	"figurebuilder.app/internal/metadata"
	"figurebuilder.app/internal/persistence/indexdb"
	"figurebuilder.app/internal/traits"
	"figurebuilder.app/internal/view"
)

type edits []string

func (e *edits) String() string     { return strings.Join(*e, ",") }
func (e *edits) Set(v string) error { *e = append(*e, v); return nil }

func main() {
	var (
		configDir = flag.String("configs", "./configs", "catalog directory")
		metaPath  = flag.String("metadata", "./configs/metadata.json", "metadata document (.json or .json.zst)")
		dbPath    = flag.String("db", "", "find suggestions through this SQLite index instead of the document")
		id        = flag.Int("id", 0, "token id to load")
		owned     = flag.String("owned", "", "comma separated owned token ids")
		limit     = flag.Int("limit", view.PageSize, "suggestions to print")
		imager    = flag.String("imager", "nitro", "imager endpoint name")
		options   = flag.String("options", "", "print every option of this trait with its flags and hint")
		noColor   = flag.Bool("no_color", false, "disable ANSI colours")
	)
	var set edits
	flag.Var(&set, "set", "Trait=Value edit (repeatable)")
	flag.Parse()

	cat, err := catalogs.Load(*configDir)
	if err != nil {
		fail("load catalogs: %v", err)
	}
	meta, err := metadata.Load(*metaPath)
	if err != nil {
		fail("load metadata: %v", err)
	}
	im, ok := figure.ImagerByName(*imager)
	if !ok {
		fail("unknown imager %q", *imager)
	}
	ownedIDs, err := parseIDs(*owned)
	if err != nil {
		fail("-owned: %v", err)
	}

	base, catalogued := meta.Lookup(*id)
	base = base.With(traits.Legs, base.Get(traits.Legs))
	working := base
	for _, kv := range set {
		name, value, ok := strings.Cut(kv, "=")
		t, known := traits.Parse(strings.TrimSpace(name))
		if !ok || !known {
			fail("-set %q: want Trait=Value with a known trait", kv)
		}
		working = working.With(t, strings.TrimSpace(value))
	}

	optTrait := traits.Trait("")
	if *options != "" {
		t, ok := traits.Parse(*options)
		if !ok {
			fail("-options: unknown trait %q", *options)
		}
		optTrait = t
	}

	v := view.Derive(view.Input{
		Working:  working,
		Base:     base,
		Catalog:  cat,
		Metadata: meta,
		Owned:    ownedIDs,
		Imager:   im,
		Links:    figure.DefaultLinks(),
		Limit:    *limit,
		Options:  optTrait != "",
	})

	if *dbPath != "" {
		if err := fromSQLite(*dbPath, v.Edited, ownedIDs, *limit, &v); err != nil {
			fail("sqlite: %v", err)
		}
	}

	p := printer{w: os.Stdout, color: !*noColor && isatty.IsTerminal(os.Stdout.Fd())}
	p.report(*id, catalogued, v, optTrait)
}

// fromSQLite replaces the suggestions of v with the SQL index's answer.
func fromSQLite(path string, edited match.Edits, owned []int, limit int, v *view.View) error {
	db, err := indexdb.OpenSQLite(path)
	if err != nil {
		return err
	}
	defer db.Close()
	ms, err := db.Find(context.Background(), edited, owned)
	if err != nil {
		return err
	}
	useMatches(v, ms, limit)
	return nil
}

// useMatches swaps the suggestion block of v for ms. Trait hints still come
// from the in-memory scan.
func useMatches(v *view.View, ms []match.Match, limit int) {
	links := figure.DefaultLinks()
	v.Total = len(ms)
	v.HasMore = len(ms) > limit
	v.NoMatch = ""
	if len(v.Qualifying) > 0 && len(ms) == 0 {
		v.NoMatch = view.NoMatchMessage
	}
	if len(ms) > limit {
		ms = ms[:limit]
	}
	v.Suggestions = v.Suggestions[:0]
	for _, m := range ms {
		v.Suggestions = append(v.Suggestions, view.Suggestion{
			Match:          m,
			MarketplaceURL: links.Marketplace(m.ID),
			ImageURL:       links.TokenImage(m.ID),
		})
	}
}

func parseIDs(s string) ([]int, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	var out []int
	for _, part := range strings.Split(s, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || n < 0 {
			return nil, fmt.Errorf("bad token id %q", part)
		}
		out = append(out, n)
	}
	return out, nil
}

func fail(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

const (
	ansiReset  = "\x1b[0m"
	ansiDim    = "\x1b[2m"
	ansiRed    = "\x1b[31m"
	ansiOrange = "\x1b[33m"
	ansiGreen  = "\x1b[32m"
)

type printer struct {
	w     io.Writer
	color bool
}

func (p printer) tint(code, s string) string {
	if !p.color {
		return s
	}
	return code + s + ansiReset
}

func (p printer) report(id int, catalogued bool, v view.View, optTrait traits.Trait) {
	src := "catalogued"
	if !catalogued {
		src = "default avatar"
	}
	fmt.Fprintf(p.w, "token     %d (%s)\n", id, src)
	fmt.Fprintf(p.w, "figure    %s\n", v.Figure)
	fmt.Fprintf(p.w, "image     %s\n", v.ImageURL)

	for _, t := range v.Edited.Traits() {
		mark := ""
		if _, ok := v.Qualifying[t]; !ok {
			mark = p.tint(ansiDim, " (not a search constraint)")
		}
		fmt.Fprintf(p.w, "edited    %s=%s%s\n", t, v.Edited[t], mark)
	}
	for _, c := range v.Colors {
		fmt.Fprintf(p.w, "colors    %s %s: %s\n", c.Trait, c.Value, p.tint(ansiOrange, c.Message))
	}

	switch {
	case v.NoMatch != "":
		fmt.Fprintln(p.w, p.tint(ansiRed, v.NoMatch))
	case len(v.Qualifying) == 0:
		fmt.Fprintln(p.w, "no search constraints; edit a trait to see suggestions")
	default:
		fmt.Fprintf(p.w, "suggestions: %s %s (showing %s)\n",
			humanize.Comma(int64(v.Total)), plural(v.Total, "match", "matches"), humanize.Comma(int64(len(v.Suggestions))))
		for i, s := range v.Suggestions {
			own := ""
			if s.Owned {
				own = p.tint(ansiGreen, " owned")
			}
			fmt.Fprintf(p.w, "  %s #%-6d %-16s%s  %s\n", humanize.Ordinal(i+1), s.ID, s.Effect, own, s.MarketplaceURL)
		}
		if v.HasMore {
			fmt.Fprintln(p.w, p.tint(ansiDim, "  ... more available, raise -limit"))
		}
	}

	for _, tv := range v.Traits {
		if tv.Trait != optTrait {
			continue
		}
		fmt.Fprintf(p.w, "options   %s\n", tv.Trait)
		for _, o := range tv.Options {
			label := o.Value
			switch {
			case o.MasterGen:
				label = p.tint(ansiOrange, label)
			case o.Hint == match.HintUnreachable:
				label = p.tint(ansiRed, label)
			}
			sel := " "
			if o.Selected {
				sel = "*"
			}
			note := ""
			if o.Message != "" {
				note = p.tint(ansiDim, "  "+o.Message)
			}
			fmt.Fprintf(p.w, "  %s %s%s\n", sel, label, note)
		}
	}
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
