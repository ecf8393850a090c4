// Package memory implements the repositories in process. It backs the tests and the
// STORAGE=memory development mode.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/Beka01247/kwaaka-table/internal/domain"
)

type CatalogRepository struct {
	mu    sync.RWMutex
	menus map[string]domain.Menu // branchID -> menu
}

func NewCatalogRepository() *CatalogRepository {
	return &CatalogRepository{
		menus: make(map[string]domain.Menu),
	}
}

func (r *CatalogRepository) Put(menu domain.Menu) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.menus[menu.BranchID] = menu
}

func (r *CatalogRepository) GetMenu(ctx context.Context, branchID string) (*domain.Menu, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	menu, ok := r.menus[branchID]
	if !ok {
		return nil, fmt.Errorf("menu: %w", domain.ErrNotFound)
	}
	return &menu, nil
}

func (r *CatalogRepository) GetItem(ctx context.Context, branchID, itemID string) (*domain.MenuItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	menu, ok := r.menus[branchID]
	if !ok {
		return nil, fmt.Errorf("menu item: %w", domain.ErrNotFound)
	}
	item, ok := menu.Item(itemID)
	if !ok {
		return nil, fmt.Errorf("menu item: %w", domain.ErrNotFound)
	}
	return &item, nil
}

type PolicyRepository struct {
	mu       sync.RWMutex
	policies map[string]domain.BranchPolicy
}

func NewPolicyRepository(policies ...domain.BranchPolicy) *PolicyRepository {
	r := &PolicyRepository{policies: make(map[string]domain.BranchPolicy)}
	for _, p := range policies {
		r.policies[p.BranchID] = p
	}
	return r
}

func (r *PolicyRepository) Put(policy domain.BranchPolicy) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.policies[policy.BranchID] = policy
}

func (r *PolicyRepository) Get(ctx context.Context, branchID string) (*domain.BranchPolicy, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.policies[branchID]
	if !ok {
		return nil, fmt.Errorf("branch policy: %w", domain.ErrNotFound)
	}
	return &p, nil
}
