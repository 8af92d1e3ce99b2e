// Package session holds the avatar cards of one editor session. Each card
// owns its working trait set; the catalogs are shared and read-only.
package session

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"figurebuilder.app/internal/catalogs"
	"figurebuilder.app/internal/figure"
	"figurebuilder.app/internal/match"
	"figurebuilder.app/internal/traits"
	"figurebuilder.app/internal/view"
	"figurebuilder.app/internal/wallet"
)

var (
	ErrNoCard       = errors.New("session: no such card")
	ErrUnknownTrait = errors.New("session: unknown trait")
)

// Metadata is the catalog of existing avatars as the workspace needs it.
type Metadata interface {
	match.Source
	wallet.Lookup
}

// Env is the read-only state shared by every workspace.
type Env struct {
	Catalog  *catalogs.Catalog
	Metadata Metadata
	Imager   figure.Imager
	Links    figure.Links
	PageSize int
	// Options adds per-option flags and hints to derived views.
	Options bool
}

// Card is one loaded avatar.
type Card struct {
	Key        string     `json:"key"`
	TokenID    int        `json:"token_id"`
	Catalogued bool       `json:"catalogued"`
	Base       traits.Set `json:"base"`
	Working    traits.Set `json:"working"`
	Direction  int        `json:"direction"`
	Limit      int        `json:"limit"`
}

type memo struct {
	key string
	v   view.View
}

// Workspace is safe for concurrent use.
type Workspace struct {
	env Env

	mu    sync.Mutex
	cards []*Card
	owned []wallet.Token
	ids   []int
	// ownedGen changes whenever the owned list does; it is part of every
	// memo key.
	ownedGen int
	memo     map[string]memo
}

func New(env Env) *Workspace {
	if env.PageSize <= 0 {
		env.PageSize = view.PageSize
	}
	return &Workspace{env: env, memo: map[string]memo{}}
}

// Load prepends a card for token id. Uncatalogued IDs get the default
// avatar. Legs is always made explicit because it renders even when None.
func (w *Workspace) Load(id int) Card {
	base, ok := w.env.Metadata.Lookup(id)
	base = base.With(traits.Legs, base.Get(traits.Legs))
	c := &Card{
		Key:        uuid.NewString(),
		TokenID:    id,
		Catalogued: ok,
		Base:       base,
		Working:    base,
		Direction:  figure.DefaultDirection,
		Limit:      w.env.PageSize,
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.cards = append([]*Card{c}, w.cards...)
	return *c
}

func (w *Workspace) Remove(key string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	for i, c := range w.cards {
		if c.Key == key {
			w.cards = append(w.cards[:i], w.cards[i+1:]...)
			delete(w.memo, key)
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrNoCard, key)
}

// Select sets trait t of a card's working set to value. Any value is
// accepted; compatibility problems surface as flags in the view.
func (w *Workspace) Select(key string, t traits.Trait, value string) (Card, error) {
	if !t.Valid() {
		return Card{}, fmt.Errorf("%w: %q", ErrUnknownTrait, t)
	}
	return w.update(key, func(c *Card) {
		c.Working = c.Working.With(t, value)
		c.Limit = w.env.PageSize
	})
}

// Restore sets t back to the card's base value.
func (w *Workspace) Restore(key string, t traits.Trait) (Card, error) {
	if !t.Valid() {
		return Card{}, fmt.Errorf("%w: %q", ErrUnknownTrait, t)
	}
	return w.update(key, func(c *Card) {
		c.Working = c.Working.With(t, c.Base.Get(t))
		c.Limit = w.env.PageSize
	})
}

func (w *Workspace) Rotate(key string) (Card, error) {
	return w.update(key, func(c *Card) { c.Direction = figure.Rotate(c.Direction) })
}

// ShowMore extends the card's suggestion list by one page.
func (w *Workspace) ShowMore(key string) (Card, error) {
	return w.update(key, func(c *Card) { c.Limit += w.env.PageSize })
}

func (w *Workspace) update(key string, fn func(*Card)) (Card, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	c := w.find(key)
	if c == nil {
		return Card{}, fmt.Errorf("%w: %s", ErrNoCard, key)
	}
	fn(c)
	return *c, nil
}

func (w *Workspace) find(key string) *Card {
	for _, c := range w.cards {
		if c.Key == key {
			return c
		}
	}
	return nil
}

// SetOwned replaces the connected wallet's token list and returns it ranked.
func (w *Workspace) SetOwned(ids []int) []wallet.Token {
	ranked := wallet.Rank(ids, w.env.Metadata, w.env.Catalog)
	w.mu.Lock()
	defer w.mu.Unlock()
	w.owned = ranked
	w.ids = append([]int(nil), ids...)
	w.ownedGen++
	return append([]wallet.Token(nil), ranked...)
}

// Owned returns the ranked owned tokens.
func (w *Workspace) Owned() []wallet.Token {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]wallet.Token(nil), w.owned...)
}

// Cards returns the cards, newest first.
func (w *Workspace) Cards() []Card {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]Card, len(w.cards))
	for i, c := range w.cards {
		out[i] = *c
	}
	return out
}

type CardView struct {
	Card Card      `json:"card"`
	View view.View `json:"view"`
}

// View derives the view of one card, reusing the previous result when the
// card and the owned list are unchanged.
func (w *Workspace) View(key string) (CardView, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	c := w.find(key)
	if c == nil {
		return CardView{}, fmt.Errorf("%w: %s", ErrNoCard, key)
	}
	return CardView{Card: *c, View: w.derive(c)}, nil
}

// Views derives every card's view, newest first.
func (w *Workspace) Views() []CardView {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]CardView, 0, len(w.cards))
	for _, c := range w.cards {
		out = append(out, CardView{Card: *c, View: w.derive(c)})
	}
	return out
}

func (w *Workspace) derive(c *Card) view.View {
	k := fmt.Sprintf("%s|%s|%d|%d|%d", c.Working.Key(), c.Base.Key(), c.Direction, c.Limit, w.ownedGen)
	if m, ok := w.memo[c.Key]; ok && m.key == k {
		return m.v
	}
	v := view.Derive(view.Input{
		Working:   c.Working,
		Base:      c.Base,
		Catalog:   w.env.Catalog,
		Metadata:  w.env.Metadata,
		Owned:     w.ids,
		Imager:    w.env.Imager,
		Links:     w.env.Links,
		Direction: c.Direction,
		Limit:     c.Limit,
		Options:   w.env.Options,
	})
	w.memo[c.Key] = memo{key: k, v: v}
	return v
}
