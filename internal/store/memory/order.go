package memory

import (
	"context"
	"sync"
	"time"

	"github.com/Beka01247/kwaaka-table/internal/domain"
)

type OrderRepository struct {
	mu     sync.RWMutex
	orders map[string]domain.Order
	items  []domain.OrderItem
}

func NewOrderRepository() *OrderRepository {
	return &OrderRepository{
		orders: make(map[string]domain.Order),
	}
}

func (r *OrderRepository) Create(ctx context.Context, order *domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if order.CreatedAt.IsZero() {
		order.CreatedAt = time.Now()
	}
	for i := range order.Items {
		order.Items[i].OrderID = order.ID
		order.Items[i].CreatedAt = order.CreatedAt
		r.items = append(r.items, order.Items[i])
	}
	r.orders[order.ID] = *order
	return nil
}

func (r *OrderRepository) UnpaidItems(ctx context.Context, sessionIDs []string) ([]domain.OrderItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	want := make(map[string]struct{}, len(sessionIDs))
	for _, id := range sessionIDs {
		want[id] = struct{}{}
	}

	out := []domain.OrderItem{}
	for _, it := range r.items {
		if _, ok := want[it.SessionID]; ok && !it.Paid {
			out = append(out, it)
		}
	}
	return out, nil
}

func (r *OrderRepository) MarkItemsPaid(ctx context.Context, itemIDs []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	paid := make(map[string]struct{}, len(itemIDs))
	for _, id := range itemIDs {
		paid[id] = struct{}{}
	}
	for i := range r.items {
		if _, ok := paid[r.items[i].ID]; ok {
			r.items[i].Paid = true
		}
	}
	return nil
}
