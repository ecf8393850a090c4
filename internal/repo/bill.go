package repo

import (
	"context"
	"time"

	"github.com/Beka01247/kwaaka-table/internal/domain"
)

// BillRequestRepository stores bill requests. Create fails with domain.ErrBillOutstanding
// while the session has a CREATED request; Transition is a compare-and-set on status and
// fails with domain.ErrInvalidTransition when the current status is not from.
type BillRequestRepository interface {
	Create(ctx context.Context, req *domain.BillRequest) error
	GetByID(ctx context.Context, id string) (*domain.BillRequest, error)
	FindOutstanding(ctx context.Context, sessionID string) (*domain.BillRequest, error)
	Transition(ctx context.Context, id string, from, to domain.BillStatus, at time.Time) (*domain.BillRequest, error)
}
