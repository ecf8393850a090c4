package domain

import "time"

type BillMode string

const (
	BillModeMy         BillMode = "MY"
	BillModeSelected   BillMode = "SELECTED"
	BillModeWholeTable BillMode = "WHOLE_TABLE"
)

func (m BillMode) Valid() bool {
	switch m {
	case BillModeMy, BillModeSelected, BillModeWholeTable:
		return true
	}
	return false
}

type PaymentMethod string

const (
	PaymentCash     PaymentMethod = "CASH"
	PaymentTerminal PaymentMethod = "TERMINAL"
)

type BillStatus string

const (
	BillCreated   BillStatus = "CREATED"
	BillPaid      BillStatus = "PAID"
	BillCancelled BillStatus = "CANCELLED"
)

func (s BillStatus) Terminal() bool {
	return s == BillPaid || s == BillCancelled
}

type BillRequest struct {
	ID              string        `bson:"_id" json:"id"`
	SessionID       string        `bson:"session_id" json:"session_id"`
	BranchID        string        `bson:"branch_id" json:"branch_id"`
	TableID         string        `bson:"table_id" json:"table_id"`
	Mode            BillMode      `bson:"mode" json:"mode"`
	PaymentMethod   PaymentMethod `bson:"payment_method" json:"payment_method"`
	TipsPercent     *int          `bson:"tips_percent,omitempty" json:"tips_percent,omitempty"`
	TargetItemIDs   []string      `bson:"target_item_ids,omitempty" json:"target_item_ids,omitempty"`
	BillableItemIDs []string      `bson:"billable_item_ids" json:"billable_item_ids"`
	SubtotalCents   int64         `bson:"subtotal_cents" json:"subtotal_cents"`
	Status          BillStatus    `bson:"status" json:"status"`
	CreatedAt       time.Time     `bson:"created_at" json:"created_at"`
	CancelledAt     *time.Time    `bson:"cancelled_at,omitempty" json:"cancelled_at,omitempty"`
	PaidAt          *time.Time    `bson:"paid_at,omitempty" json:"paid_at,omitempty"`
}
