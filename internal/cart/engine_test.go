package cart

import (
	"testing"

	"github.com/Beka01247/kwaaka-table/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func burger() domain.MenuItem {
	return domain.MenuItem{
		ID:         "burger",
		Name:       "Burger",
		PriceCents: 1500,
		Available:  true,
		Groups: []domain.ModifierGroup{
			{
				ID:         "size",
				Name:       "Size",
				IsRequired: true,
				Options: []domain.ModifierOption{
					{ID: "small", Name: "Small"},
					{ID: "large", Name: "Large", PriceCents: 300},
				},
			},
			{
				ID:   "extras",
				Name: "Extras",
				Options: []domain.ModifierOption{
					{ID: "cheese", Name: "Cheese", PriceCents: 100},
				},
			},
		},
	}
}

func water() domain.MenuItem {
	return domain.MenuItem{ID: "water", Name: "Water", PriceCents: 250, Available: true}
}

func TestAddAndDecrementTotals(t *testing.T) {
	e := New()
	item := domain.MenuItem{ID: "soup", Name: "Soup", PriceCents: 1500}

	for i := 0; i < 3; i++ {
		e.AddOrIncrement(item)
	}
	assert.Equal(t, int64(4500), e.TotalCents())

	e.Decrement("soup")
	assert.Equal(t, int64(3000), e.TotalCents())
	assert.Equal(t, 2, e.quantity("soup"))
}

func TestDecrementToZeroRemovesLine(t *testing.T) {
	e := New()
	e.AddOrIncrement(water())

	e.Decrement("water")

	assert.True(t, e.Empty())
	assert.Empty(t, e.Lines())

	// absent line is a no-op
	e.Decrement("water")
	assert.True(t, e.Empty())
}

func TestAddFlagsRequiredGroups(t *testing.T) {
	e := New()

	assert.True(t, e.AddOrIncrement(burger()))
	assert.False(t, e.AddOrIncrement(water()))
}

func TestIsSubmittable(t *testing.T) {
	e := New()
	assert.False(t, e.IsSubmittable(), "empty cart")

	e.AddOrIncrement(water())
	assert.True(t, e.IsSubmittable())

	e.AddOrIncrement(burger())
	assert.False(t, e.IsSubmittable(), "size not chosen")
	assert.Equal(t, map[string][]string{"burger": {"Size"}}, e.Missing())

	require.True(t, e.SetSelection("burger", "size", "small", true))
	assert.True(t, e.IsSubmittable())
}

func TestSetSelectionSingleChoice(t *testing.T) {
	e := New()
	e.AddOrIncrement(burger())

	e.SetSelection("burger", "size", "small", true)
	e.SetSelection("burger", "size", "large", true)
	e.SetSelection("burger", "extras", "cheese", true)

	lines := e.Lines()
	require.Len(t, lines, 1)
	require.Len(t, lines[0].Selected, 2)
	assert.Equal(t, "large", lines[0].Selected[0].OptionID)
	assert.Equal(t, "Size: Large; Extras: Cheese", lines[0].Summary)
	assert.False(t, lines[0].NeedsAttention)
}

func TestSetSelectionUnknownTargets(t *testing.T) {
	e := New()
	e.AddOrIncrement(burger())

	assert.False(t, e.SetSelection("pizza", "size", "small", true))
	assert.False(t, e.SetSelection("burger", "crust", "thin", true))
}

func TestTotalExcludesModifierIncrements(t *testing.T) {
	e := New()
	e.AddOrIncrement(burger())
	e.AddOrIncrement(burger())
	e.SetSelection("burger", "size", "large", true)

	assert.Equal(t, int64(3000), e.TotalCents())
	assert.Equal(t, int64(600), e.ModifierCents())
}

func TestSetComment(t *testing.T) {
	e := New()
	e.AddOrIncrement(water())

	assert.True(t, e.SetComment("water", "no ice"))
	assert.False(t, e.SetComment("soda", "x"))
	assert.Equal(t, "no ice", e.Lines()[0].Comment)
}

func TestOrderItemsCarryModifiers(t *testing.T) {
	e := New()
	e.AddOrIncrement(burger())
	e.SetSelection("burger", "size", "large", true)
	e.SetComment("burger", "well done")

	items := e.OrderItems()
	require.Len(t, items, 1)
	assert.Equal(t, "burger", items[0].MenuItemID)
	assert.Equal(t, int64(1500), items[0].UnitPriceCents)
	assert.Equal(t, "well done", items[0].Comment)
	require.Len(t, items[0].Modifiers, 1)
	assert.Equal(t, int64(300), items[0].Modifiers[0].PriceCents)
}

func TestResolveGroupsDiscardsStaleResults(t *testing.T) {
	t.Run("line removed before fetch resolves", func(t *testing.T) {
		e := New()
		e.AddOrIncrement(burger())
		f, ok := e.BeginGroupsFetch("burger")
		require.True(t, ok)

		e.Decrement("burger")

		assert.False(t, e.ResolveGroups(f, nil))
	})

	t.Run("line re-created before fetch resolves", func(t *testing.T) {
		e := New()
		e.AddOrIncrement(burger())
		f, _ := e.BeginGroupsFetch("burger")

		e.Decrement("burger")
		e.AddOrIncrement(burger())

		assert.False(t, e.ResolveGroups(f, nil))
		assert.Len(t, e.Lines()[0].Missing, 1)
	})

	t.Run("superseded by a newer fetch", func(t *testing.T) {
		e := New()
		e.AddOrIncrement(burger())
		older, _ := e.BeginGroupsFetch("burger")
		newer, _ := e.BeginGroupsFetch("burger")

		assert.False(t, e.ResolveGroups(older, nil))
		assert.True(t, e.ResolveGroups(newer, nil))
		assert.True(t, e.IsSubmittable())
	})

	t.Run("fresh result prunes vanished options", func(t *testing.T) {
		e := New()
		e.AddOrIncrement(burger())
		e.SetSelection("burger", "extras", "cheese", true)
		f, _ := e.BeginGroupsFetch("burger")

		groups := burger().Groups[:1]
		require.True(t, e.ResolveGroups(f, groups))

		assert.Empty(t, e.Lines()[0].Selected)
		assert.True(t, e.Lines()[0].NeedsAttention)
	})

	t.Run("unknown line", func(t *testing.T) {
		e := New()
		_, ok := e.BeginGroupsFetch("burger")
		assert.False(t, ok)
	})
}
