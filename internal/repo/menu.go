package repo

import (
	"context"

	"github.com/Beka01247/kwaaka-table/internal/domain"
)

type CatalogRepository interface {
	GetMenu(ctx context.Context, branchID string) (*domain.Menu, error)
	GetItem(ctx context.Context, branchID, itemID string) (*domain.MenuItem, error)
}

type PolicyRepository interface {
	Get(ctx context.Context, branchID string) (*domain.BranchPolicy, error)
}
