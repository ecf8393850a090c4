package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Menu struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name      string             `bson:"name" json:"name"`
	BranchID  string             `bson:"branch_id" json:"branch_id"`
	Items     []MenuItem         `bson:"items" json:"items"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at" json:"updated_at"`
}

type MenuItem struct {
	ID          string          `bson:"id" json:"id"`
	Name        string          `bson:"name" json:"name"`
	PriceCents  int64           `bson:"price_cents" json:"price_cents"`
	Category    string          `bson:"category" json:"category"`
	Description string          `bson:"description" json:"description"`
	Available   bool            `bson:"available" json:"available"`
	Groups      []ModifierGroup `bson:"modifier_groups" json:"modifier_groups"`
}

// ModifierGroup is a customization axis of a menu item. MinSelect and MaxSelect are
// optional; see modifier.Bounds for the effective values.
type ModifierGroup struct {
	ID         string           `bson:"id" json:"id"`
	Name       string           `bson:"name" json:"name"`
	IsRequired bool             `bson:"is_required" json:"is_required"`
	MinSelect  *int             `bson:"min_select,omitempty" json:"min_select,omitempty"`
	MaxSelect  *int             `bson:"max_select,omitempty" json:"max_select,omitempty"`
	Options    []ModifierOption `bson:"options" json:"options"`
}

type ModifierOption struct {
	ID         string `bson:"id" json:"id"`
	Name       string `bson:"name" json:"name"`
	PriceCents int64  `bson:"price_cents" json:"price_cents"`
}

func (m *Menu) Item(id string) (MenuItem, bool) {
	for _, item := range m.Items {
		if item.ID == id {
			return item, true
		}
	}
	return MenuItem{}, false
}

func (i MenuItem) Group(id string) (ModifierGroup, bool) {
	for _, g := range i.Groups {
		if g.ID == id {
			return g, true
		}
	}
	return ModifierGroup{}, false
}

func (g ModifierGroup) Option(id string) (ModifierOption, bool) {
	for _, o := range g.Options {
		if o.ID == id {
			return o, true
		}
	}
	return ModifierOption{}, false
}
