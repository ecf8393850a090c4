// Package bill computes what a bill request covers and the legal status transitions.
package bill

import (
	"github.com/Beka01247/kwaaka-table/internal/domain"
)

// Scope is the set of unpaid order items a session can see when it asks for the bill.
// Party is nil when the session has no active party; otherwise it holds the unpaid items
// of every member, the requester included.
type Scope struct {
	Own   []domain.OrderItem
	Party []domain.OrderItem
}

func (s Scope) partyOrOwn() []domain.OrderItem {
	if s.Party != nil {
		return s.Party
	}
	return s.Own
}

type Request struct {
	Mode          domain.BillMode
	PaymentMethod domain.PaymentMethod
	TipsPercent   *int
	ItemIDs       []string
}

// Validate applies the checks that need no order data.
func Validate(policy *domain.BranchPolicy, req Request) error {
	if !req.Mode.Valid() {
		return domain.ErrInvalidMode
	}
	if req.Mode == domain.BillModeWholeTable && !policy.AllowPayWholeTable {
		return domain.ErrWholeTableDisabled
	}
	if req.Mode == domain.BillModeSelected && len(req.ItemIDs) == 0 {
		return domain.ErrEmptySelection
	}
	if !policy.PaymentMethodEnabled(req.PaymentMethod) {
		return domain.ErrPaymentMethodDisabled
	}
	if req.TipsPercent != nil && !policy.TipAllowed(*req.TipsPercent) {
		return domain.ErrTipsNotAllowed
	}
	return nil
}

// Billable returns the unpaid items req covers, in scope order.
func Billable(policy *domain.BranchPolicy, req Request, scope Scope) ([]domain.OrderItem, error) {
	if err := Validate(policy, req); err != nil {
		return nil, err
	}

	var items []domain.OrderItem
	switch req.Mode {
	case domain.BillModeMy:
		items = unpaid(scope.Own)

	case domain.BillModeSelected:
		pool := scope.Own
		if policy.AllowPayOtherGuestsItems {
			pool = scope.partyOrOwn()
		}
		wanted := make(map[string]struct{}, len(req.ItemIDs))
		for _, id := range req.ItemIDs {
			wanted[id] = struct{}{}
		}
		for _, it := range unpaid(pool) {
			if _, ok := wanted[it.ID]; ok {
				items = append(items, it)
			}
		}
		if len(items) == 0 {
			return nil, domain.ErrEmptySelection
		}

	case domain.BillModeWholeTable:
		items = unpaid(scope.partyOrOwn())
	}

	if len(items) == 0 {
		return nil, domain.ErrNothingToPay
	}
	return items, nil
}

func unpaid(items []domain.OrderItem) []domain.OrderItem {
	out := make([]domain.OrderItem, 0, len(items))
	seen := make(map[string]struct{}, len(items))
	for _, it := range items {
		if it.Paid {
			continue
		}
		if _, dup := seen[it.ID]; dup {
			continue
		}
		seen[it.ID] = struct{}{}
		out = append(out, it)
	}
	return out
}

func SubtotalCents(items []domain.OrderItem) int64 {
	var total int64
	for _, it := range items {
		total += it.TotalCents()
	}
	return total
}

func IDs(items []domain.OrderItem) []string {
	ids := make([]string, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ID)
	}
	return ids
}

// CanTransition reports whether from -> to is a legal bill request transition.
func CanTransition(from, to domain.BillStatus) bool {
	return from == domain.BillCreated && (to == domain.BillPaid || to == domain.BillCancelled)
}
