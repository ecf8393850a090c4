// Package cart holds a guest's in-progress selection. The engine is not safe for
// concurrent use; guest.Context serializes access to it.
package cart

import (
	"github.com/Beka01247/kwaaka-table/internal/domain"
	"github.com/Beka01247/kwaaka-table/internal/modifier"
)

type Line struct {
	Item           domain.MenuItem
	Quantity       int
	Comment        string
	Selected       modifier.Selection
	Summary        string
	NeedsAttention bool

	generation uint64
	fetch      uint64
}

// LineView is a read-only copy of a line.
type LineView struct {
	ItemID         string                    `json:"item_id"`
	Name           string                    `json:"name"`
	PriceCents     int64                     `json:"price_cents"`
	Quantity       int                       `json:"quantity"`
	Comment        string                    `json:"comment,omitempty"`
	Selected       []domain.SelectedModifier `json:"selected"`
	Summary        string                    `json:"summary,omitempty"`
	ModifierCents  int64                     `json:"modifier_cents"`
	NeedsAttention bool                      `json:"needs_attention"`
	Missing        []string                  `json:"missing,omitempty"`
}

// Fetch tags an outstanding catalog read for one line.
type Fetch struct {
	ItemID     string
	generation uint64
	seq        uint64
}

type Engine struct {
	lines []*Line
	gen   uint64
	seq   uint64
}

func New() *Engine {
	return &Engine{}
}

func (e *Engine) find(itemID string) (int, *Line) {
	for i, l := range e.lines {
		if l.Item.ID == itemID {
			return i, l
		}
	}
	return -1, nil
}

// AddOrIncrement adds one unit of item and reports whether the line needs modifier input.
func (e *Engine) AddOrIncrement(item domain.MenuItem) bool {
	if _, l := e.find(item.ID); l != nil {
		l.Quantity++
		return l.NeedsAttention
	}

	e.gen++
	l := &Line{
		Item:           item,
		Quantity:       1,
		Selected:       modifier.NewSelection(),
		NeedsAttention: modifier.NeedsInput(item.Groups),
		generation:     e.gen,
	}
	e.lines = append(e.lines, l)
	return l.NeedsAttention
}

// Decrement removes one unit; the line disappears at zero. Unknown items are ignored.
func (e *Engine) Decrement(itemID string) {
	i, l := e.find(itemID)
	if l == nil {
		return
	}
	l.Quantity--
	if l.Quantity <= 0 {
		e.lines = append(e.lines[:i], e.lines[i+1:]...)
	}
}

func (e *Engine) SetSelection(itemID, groupID, optionID string, on bool) bool {
	_, l := e.find(itemID)
	if l == nil {
		return false
	}
	g, ok := l.Item.Group(groupID)
	if !ok {
		return false
	}

	l.Selected = modifier.Apply(g, l.Selected, optionID, on)
	l.Summary = modifier.Summary(l.Item.Groups, l.Selected)
	l.NeedsAttention = len(modifier.MissingRequired(l.Item.Groups, l.Selected)) > 0
	return true
}

func (e *Engine) SetComment(itemID, text string) bool {
	_, l := e.find(itemID)
	if l == nil {
		return false
	}
	l.Comment = text
	return true
}

// TotalCents sums base prices only. Modifier increments are reported by ModifierCents and
// are deliberately left out of this total.
func (e *Engine) TotalCents() int64 {
	var total int64
	for _, l := range e.lines {
		total += l.Item.PriceCents * int64(l.Quantity)
	}
	return total
}

func (e *Engine) ModifierCents() int64 {
	var total int64
	for _, l := range e.lines {
		total += modifier.PriceCents(l.Item.Groups, l.Selected) * int64(l.Quantity)
	}
	return total
}

func (e *Engine) Empty() bool {
	return len(e.lines) == 0
}

// Missing maps item id to the names of its groups with an unmet minimum.
func (e *Engine) Missing() map[string][]string {
	out := make(map[string][]string)
	for _, l := range e.lines {
		if m := modifier.MissingRequired(l.Item.Groups, l.Selected); len(m) > 0 {
			out[l.Item.ID] = m
		}
	}
	return out
}

func (e *Engine) IsSubmittable() bool {
	return !e.Empty() && len(e.Missing()) == 0
}

func (e *Engine) quantity(itemID string) int {
	if _, l := e.find(itemID); l != nil {
		return l.Quantity
	}
	return 0
}

func (e *Engine) Lines() []LineView {
	out := make([]LineView, 0, len(e.lines))
	for _, l := range e.lines {
		out = append(out, LineView{
			ItemID:         l.Item.ID,
			Name:           l.Item.Name,
			PriceCents:     l.Item.PriceCents,
			Quantity:       l.Quantity,
			Comment:        l.Comment,
			Selected:       modifier.Selected(l.Item.Groups, l.Selected),
			Summary:        l.Summary,
			ModifierCents:  modifier.PriceCents(l.Item.Groups, l.Selected),
			NeedsAttention: l.NeedsAttention,
			Missing:        modifier.MissingRequired(l.Item.Groups, l.Selected),
		})
	}
	return out
}

// OrderItems converts the cart into unattributed order items.
func (e *Engine) OrderItems() []domain.OrderItem {
	out := make([]domain.OrderItem, 0, len(e.lines))
	for _, l := range e.lines {
		out = append(out, domain.OrderItem{
			MenuItemID:     l.Item.ID,
			Name:           l.Item.Name,
			UnitPriceCents: l.Item.PriceCents,
			Quantity:       l.Quantity,
			Modifiers:      modifier.Selected(l.Item.Groups, l.Selected),
			Comment:        l.Comment,
		})
	}
	return out
}

func (e *Engine) Clear() {
	e.lines = nil
}

// BeginGroupsFetch tags a catalog refresh for itemID. Only the latest fetch of a line that
// still exists can be applied.
func (e *Engine) BeginGroupsFetch(itemID string) (Fetch, bool) {
	_, l := e.find(itemID)
	if l == nil {
		return Fetch{}, false
	}
	e.seq++
	l.fetch = e.seq
	return Fetch{ItemID: itemID, generation: l.generation, seq: e.seq}, true
}

// ResolveGroups applies refreshed modifier groups unless f is stale. The selection is pruned
// to options that still exist.
func (e *Engine) ResolveGroups(f Fetch, groups []domain.ModifierGroup) bool {
	_, l := e.find(f.ItemID)
	if l == nil || l.generation != f.generation || l.fetch != f.seq {
		return false
	}

	l.Item.Groups = groups
	l.Selected = modifier.Prune(groups, l.Selected)
	l.Summary = modifier.Summary(groups, l.Selected)
	l.NeedsAttention = len(modifier.MissingRequired(groups, l.Selected)) > 0
	return true
}
