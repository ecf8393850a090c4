// Package modifier validates option selections against modifier group constraints.
// Every function is total: invalid selections are reported, never rejected.
package modifier

import (
	"strings"

	"github.com/Beka01247/kwaaka-table/internal/domain"
)

// Selection is a set of selected option ids.
type Selection map[string]struct{}

func NewSelection(ids ...string) Selection {
	s := make(Selection, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

func (s Selection) Has(id string) bool {
	_, ok := s[id]
	return ok
}

func (s Selection) Clone() Selection {
	c := make(Selection, len(s))
	for id := range s {
		c[id] = struct{}{}
	}
	return c
}

// Bounds returns the effective selection bounds of g. bounded is false when there is no
// upper limit.
func Bounds(g domain.ModifierGroup) (min int, max int, bounded bool) {
	switch {
	case g.MinSelect != nil:
		min = *g.MinSelect
	case g.IsRequired:
		min = 1
	}

	switch {
	case g.MaxSelect != nil:
		return min, *g.MaxSelect, true
	case g.IsRequired:
		return min, 1, true
	}
	return min, 0, false
}

func SingleChoice(g domain.ModifierGroup) bool {
	_, max, bounded := Bounds(g)
	return bounded && max == 1
}

// Count returns how many options of g are in sel. Ids of other groups are ignored.
func Count(g domain.ModifierGroup, sel Selection) int {
	n := 0
	for _, o := range g.Options {
		if sel.Has(o.ID) {
			n++
		}
	}
	return n
}

func Valid(g domain.ModifierGroup, sel Selection) bool {
	min, max, bounded := Bounds(g)
	n := Count(g, sel)
	if n < min {
		return false
	}
	return !bounded || n <= max
}

// MissingRequired returns the names of the groups whose minimum is not met, in catalog order.
func MissingRequired(groups []domain.ModifierGroup, sel Selection) []string {
	var missing []string
	for _, g := range groups {
		min, _, _ := Bounds(g)
		if Count(g, sel) < min {
			missing = append(missing, g.Name)
		}
	}
	return missing
}

// NeedsInput reports whether any group demands at least one selection.
func NeedsInput(groups []domain.ModifierGroup) bool {
	for _, g := range groups {
		if min, _, _ := Bounds(g); min > 0 {
			return true
		}
	}
	return false
}

// Apply toggles optionID within g and returns the resulting selection; sel is not
// modified. Selecting in a single-choice group replaces the previous choice of that group.
func Apply(g domain.ModifierGroup, sel Selection, optionID string, on bool) Selection {
	next := sel.Clone()
	if _, ok := g.Option(optionID); !ok {
		return next
	}

	if !on {
		delete(next, optionID)
		return next
	}

	if SingleChoice(g) {
		for _, o := range g.Options {
			delete(next, o.ID)
		}
	}
	next[optionID] = struct{}{}
	return next
}

// Prune drops ids that do not belong to any of groups.
func Prune(groups []domain.ModifierGroup, sel Selection) Selection {
	next := make(Selection, len(sel))
	for _, g := range groups {
		for _, o := range g.Options {
			if sel.Has(o.ID) {
				next[o.ID] = struct{}{}
			}
		}
	}
	return next
}

// Selected expands sel into the ordered list of chosen options with their group.
func Selected(groups []domain.ModifierGroup, sel Selection) []domain.SelectedModifier {
	var out []domain.SelectedModifier
	for _, g := range groups {
		for _, o := range g.Options {
			if sel.Has(o.ID) {
				out = append(out, domain.SelectedModifier{
					GroupID:    g.ID,
					OptionID:   o.ID,
					Name:       o.Name,
					PriceCents: o.PriceCents,
				})
			}
		}
	}
	return out
}

// PriceCents sums the price increments of the selected options.
func PriceCents(groups []domain.ModifierGroup, sel Selection) int64 {
	var total int64
	for _, m := range Selected(groups, sel) {
		total += m.PriceCents
	}
	return total
}

// Summary renders sel as "Size: Large; Extras: Cheese, Bacon".
func Summary(groups []domain.ModifierGroup, sel Selection) string {
	var parts []string
	for _, g := range groups {
		var names []string
		for _, o := range g.Options {
			if sel.Has(o.ID) {
				names = append(names, o.Name)
			}
		}
		if len(names) > 0 {
			parts = append(parts, g.Name+": "+strings.Join(names, ", "))
		}
	}
	return strings.Join(parts, "; ")
}
