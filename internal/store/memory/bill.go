package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Beka01247/kwaaka-table/internal/domain"
)

type BillRequestRepository struct {
	mu       sync.Mutex
	requests map[string]domain.BillRequest
}

func NewBillRequestRepository() *BillRequestRepository {
	return &BillRequestRepository{
		requests: make(map[string]domain.BillRequest),
	}
}

func (r *BillRequestRepository) Create(ctx context.Context, req *domain.BillRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.requests {
		if existing.SessionID == req.SessionID && existing.Status == domain.BillCreated {
			return domain.ErrBillOutstanding
		}
	}
	if req.CreatedAt.IsZero() {
		req.CreatedAt = time.Now()
	}
	r.requests[req.ID] = *req
	return nil
}

func (r *BillRequestRepository) GetByID(ctx context.Context, id string) (*domain.BillRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	req, ok := r.requests[id]
	if !ok {
		return nil, fmt.Errorf("bill request: %w", domain.ErrNotFound)
	}
	return &req, nil
}

func (r *BillRequestRepository) FindOutstanding(ctx context.Context, sessionID string) (*domain.BillRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, req := range r.requests {
		if req.SessionID == sessionID && req.Status == domain.BillCreated {
			return &req, nil
		}
	}
	return nil, fmt.Errorf("bill request: %w", domain.ErrNotFound)
}

func (r *BillRequestRepository) Transition(ctx context.Context, id string, from, to domain.BillStatus, at time.Time) (*domain.BillRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	req, ok := r.requests[id]
	if !ok {
		return nil, fmt.Errorf("bill request: %w", domain.ErrNotFound)
	}
	if req.Status != from {
		return nil, domain.ErrInvalidTransition
	}

	req.Status = to
	switch to {
	case domain.BillPaid:
		req.PaidAt = &at
	case domain.BillCancelled:
		req.CancelledAt = &at
	}
	r.requests[id] = req
	return &req, nil
}
