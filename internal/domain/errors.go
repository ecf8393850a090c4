package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// validation
var (
	ErrEmptyCart             = errors.New("cart is empty")
	ErrEmptySelection        = errors.New("no billable items selected")
	ErrNothingToPay          = errors.New("no unpaid items to pay")
	ErrInvalidMode           = errors.New("unknown bill mode")
	ErrPaymentMethodDisabled = errors.New("payment method is not enabled for this branch")
	ErrTipsNotAllowed        = errors.New("tips percentage is not allowed")
	ErrItemUnavailable       = errors.New("menu item is not available")
)

// gate
var (
	ErrVerificationRequired = errors.New("phone verification required")
	ErrChallengeMismatch    = errors.New("verification challenge does not match")
	ErrCodeRejected         = errors.New("verification code rejected")
	ErrPINNotFound          = errors.New("party PIN not found or expired")
	ErrPINTaken             = errors.New("party PIN already in use")
	ErrPartyDisabled        = errors.New("parties are disabled for this branch")
	ErrAlreadyInParty       = errors.New("session already belongs to an active party")
	ErrNotPartyMember       = errors.New("session is not a member of an active party")
	ErrWholeTableDisabled   = errors.New("whole table payment is disabled for this branch")
	ErrInvalidTransition    = errors.New("invalid bill request transition")
	ErrBillOutstanding      = errors.New("session already has an outstanding bill request")
	ErrSessionExpired       = errors.New("guest session expired")
	ErrInvalidTableLink     = errors.New("invalid table link")
	ErrUnauthorized         = errors.New("invalid session credentials")
	ErrRateLimited          = errors.New("too many attempts")
)

var (
	ErrNotFound    = errors.New("not found")
	ErrUnavailable = errors.New("collaborator unavailable")
)

// MissingModifiersError lists, per menu item, the modifier groups whose minimum is unmet.
type MissingModifiersError struct {
	Missing map[string][]string
}

func (e *MissingModifiersError) Error() string {
	ids := make([]string, 0, len(e.Missing))
	for id := range e.Missing {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, fmt.Sprintf("%s: %s", id, strings.Join(e.Missing[id], ", ")))
	}
	return "required modifiers missing (" + strings.Join(parts, "; ") + ")"
}
