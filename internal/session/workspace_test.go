package session_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"figurebuilder.app/internal/figure"
	"figurebuilder.app/internal/fixture"
	"figurebuilder.app/internal/session"
	"figurebuilder.app/internal/traits"
	"figurebuilder.app/internal/view"
)

func newWorkspace() *session.Workspace {
	return session.New(session.Env{
		Catalog:  fixture.Catalog(),
		Metadata: fixture.Index(),
		Imager:   figure.Nitro,
		Links:    figure.DefaultLinks(),
	})
}

func suggestionIDs(v view.View) []int {
	out := make([]int, len(v.Suggestions))
	for i, s := range v.Suggestions {
		out[i] = s.ID
	}
	return out
}

func TestLoad_PrependsAndDefaults(t *testing.T) {
	w := newWorkspace()

	missing := w.Load(99)
	require.False(t, missing.Catalogued)
	require.True(t, missing.Base.Equal(traits.DefaultAvatar()))
	require.True(t, missing.Base.Has(traits.Legs), "Legs must be explicit")
	require.Equal(t, traits.None, missing.Base.Get(traits.Legs))
	require.Equal(t, figure.DefaultDirection, missing.Direction)
	require.Equal(t, view.PageSize, missing.Limit)

	loaded := w.Load(2)
	require.True(t, loaded.Catalogued)
	require.NotEqual(t, missing.Key, loaded.Key)

	cards := w.Cards()
	require.Len(t, cards, 2)
	require.Equal(t, 2, cards[0].TokenID, "newest card first")
	require.Equal(t, 99, cards[1].TokenID)
}

func TestSelectRestore_RoundTrip(t *testing.T) {
	w := newWorkspace()
	c := w.Load(99)

	_, err := w.Select(c.Key, traits.Shirt, "Striped Shirt")
	require.NoError(t, err)
	cv, err := w.View(c.Key)
	require.NoError(t, err)
	require.Equal(t, map[traits.Trait]string{traits.Shirt: "Striped Shirt"}, map[traits.Trait]string(cv.View.Edited))
	require.Equal(t, []int{4, 3, 5}, suggestionIDs(cv.View))

	_, err = w.Restore(c.Key, traits.Shirt)
	require.NoError(t, err)
	cv, err = w.View(c.Key)
	require.NoError(t, err)
	require.Empty(t, cv.View.Edited)
	require.Empty(t, cv.View.Suggestions)
}

func TestSelect_Errors(t *testing.T) {
	w := newWorkspace()
	c := w.Load(1)

	_, err := w.Select(c.Key, traits.Trait("Tail"), "Long")
	require.ErrorIs(t, err, session.ErrUnknownTrait)
	_, err = w.Select("nope", traits.Shirt, "Striped Shirt")
	require.ErrorIs(t, err, session.ErrNoCard)

	// Unknown values are accepted and simply match nothing.
	_, err = w.Select(c.Key, traits.Shirt, "Not In Catalog")
	require.NoError(t, err)
	cv, err := w.View(c.Key)
	require.NoError(t, err)
	require.Equal(t, view.NoMatchMessage, cv.View.NoMatch)
}

func TestRemove(t *testing.T) {
	w := newWorkspace()
	a := w.Load(1)
	b := w.Load(2)

	require.NoError(t, w.Remove(a.Key))
	require.ErrorIs(t, w.Remove(a.Key), session.ErrNoCard)
	_, err := w.View(a.Key)
	require.ErrorIs(t, err, session.ErrNoCard)

	cards := w.Cards()
	require.Len(t, cards, 1)
	require.Equal(t, b.Key, cards[0].Key)
}

func TestRotateAndShowMore(t *testing.T) {
	w := newWorkspace()
	c := w.Load(1)

	c, err := w.Rotate(c.Key)
	require.NoError(t, err)
	require.Equal(t, 3, c.Direction)
	cv, err := w.View(c.Key)
	require.NoError(t, err)
	require.Contains(t, cv.View.ImageURL, "&direction=3&head_direction=3")

	c, err = w.ShowMore(c.Key)
	require.NoError(t, err)
	require.Equal(t, 2*view.PageSize, c.Limit)

	c, err = w.Select(c.Key, traits.Hat, traits.None)
	require.NoError(t, err)
	require.Equal(t, view.PageSize, c.Limit, "a new selection resets paging")
}

func TestSetOwned_ReranksSuggestions(t *testing.T) {
	w := newWorkspace()
	c := w.Load(99)
	_, err := w.Select(c.Key, traits.Shirt, "Striped Shirt")
	require.NoError(t, err)

	cv, err := w.View(c.Key)
	require.NoError(t, err)
	require.Equal(t, []int{4, 3, 5}, suggestionIDs(cv.View))

	ranked := w.SetOwned([]int{5, 2})
	require.Len(t, ranked, 2)
	require.Equal(t, 5, ranked[0].ID, "token 5 has hue gaps")
	require.Equal(t, ranked, w.Owned())

	cv, err = w.View(c.Key)
	require.NoError(t, err)
	require.Equal(t, []int{5, 4, 3}, suggestionIDs(cv.View))
	require.True(t, cv.View.Suggestions[0].Owned)

	views := w.Views()
	require.Len(t, views, 1)
	require.Equal(t, cv.View.Figure, views[0].View.Figure)
}
