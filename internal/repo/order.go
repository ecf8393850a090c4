package repo

import (
	"context"

	"github.com/Beka01247/kwaaka-table/internal/domain"
)

type OrderRepository interface {
	Create(ctx context.Context, order *domain.Order) error
	UnpaidItems(ctx context.Context, sessionIDs []string) ([]domain.OrderItem, error)
	MarkItemsPaid(ctx context.Context, itemIDs []string) error
}
