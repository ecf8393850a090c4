package domain

import "time"

type Order struct {
	ID        string      `bson:"_id" json:"id"`
	SessionID string      `bson:"session_id" json:"session_id"`
	TableID   string      `bson:"table_id" json:"table_id"`
	BranchID  string      `bson:"branch_id" json:"branch_id"`
	Items     []OrderItem `bson:"-" json:"items"`
	CreatedAt time.Time   `bson:"created_at" json:"created_at"`
}

type OrderItem struct {
	ID             string             `bson:"_id" json:"id"`
	OrderID        string             `bson:"order_id" json:"order_id"`
	SessionID      string             `bson:"session_id" json:"session_id"`
	TableID        string             `bson:"table_id" json:"table_id"`
	BranchID       string             `bson:"branch_id" json:"branch_id"`
	MenuItemID     string             `bson:"menu_item_id" json:"menu_item_id"`
	Name           string             `bson:"name" json:"name"`
	UnitPriceCents int64              `bson:"unit_price_cents" json:"unit_price_cents"`
	Quantity       int                `bson:"quantity" json:"quantity"`
	Modifiers      []SelectedModifier `bson:"modifiers" json:"modifiers"`
	Comment        string             `bson:"comment,omitempty" json:"comment,omitempty"`
	Paid           bool               `bson:"paid" json:"paid"`
	CreatedAt      time.Time          `bson:"created_at" json:"created_at"`
}

type SelectedModifier struct {
	GroupID    string `bson:"group_id" json:"group_id"`
	OptionID   string `bson:"option_id" json:"option_id"`
	Name       string `bson:"name" json:"name"`
	PriceCents int64  `bson:"price_cents" json:"price_cents"`
}

func (i OrderItem) TotalCents() int64 {
	return i.UnitPriceCents * int64(i.Quantity)
}
