package domain

import "time"

type OrderPlacedEvent struct {
	EventType  string    `json:"event_type"`
	OrderID    string    `json:"order_id"`
	SessionID  string    `json:"session_id"`
	TableID    string    `json:"table_id"`
	BranchID   string    `json:"branch_id"`
	ItemCount  int       `json:"item_count"`
	TotalCents int64     `json:"total_cents"`
	Timestamp  time.Time `json:"timestamp"`
}

type BillRequestEvent struct {
	EventType     string        `json:"event_type"`
	BillID        string        `json:"bill_id"`
	SessionID     string        `json:"session_id"`
	TableID       string        `json:"table_id"`
	BranchID      string        `json:"branch_id"`
	Mode          BillMode      `json:"mode"`
	PaymentMethod PaymentMethod `json:"payment_method"`
	TipsPercent   *int          `json:"tips_percent,omitempty"`
	ItemIDs       []string      `json:"item_ids"`
	SubtotalCents int64         `json:"subtotal_cents"`
	Status        BillStatus    `json:"status"`
	Timestamp     time.Time     `json:"timestamp"`
}

// PaymentConfirmation is published by the payment side (POS, terminal) once a bill
// request has been settled.
type PaymentConfirmation struct {
	BillID    string    `json:"bill_id"`
	Reference string    `json:"reference"`
	Timestamp time.Time `json:"timestamp"`
}

const (
	EventOrderPlaced   = "order.placed"
	EventBillCreated   = "bill.created"
	EventBillCancelled = "bill.cancelled"
	EventBillPaid      = "bill.paid"
)
