// Package guest holds the live state of guest sessions: cart, verification gate, policy
// snapshot and the latest bill request.
package guest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Beka01247/kwaaka-table/internal/cart"
	"github.com/Beka01247/kwaaka-table/internal/domain"
	"github.com/Beka01247/kwaaka-table/internal/repo"
	"github.com/Beka01247/kwaaka-table/internal/verification"
)

// State is the mutable part of a guest session. It is only reachable through Context.Do.
type State struct {
	Session *domain.GuestSession
	Cart    *cart.Engine
	Gate    *verification.Gate

	// PendingPhone is the number the outstanding challenge was sent to.
	PendingPhone string
}

// Context is one guest session. Guest actions run to completion one at a time through Do.
type Context struct {
	id       string
	tableID  string
	branchID string
	policy   domain.BranchPolicy

	mu    sync.Mutex
	state State

	billMu sync.RWMutex
	bill   *domain.BillRequest
	billCh chan struct{}
}

func New(session *domain.GuestSession, policy *domain.BranchPolicy) *Context {
	s := *session
	return &Context{
		id:       s.ID,
		tableID:  s.TableID,
		branchID: s.BranchID,
		policy:   *policy,
		state: State{
			Session: &s,
			Cart:    cart.New(),
			Gate:    verification.NewGate(s.OTPRequired, s.IsVerified),
		},
		billCh: make(chan struct{}),
	}
}

func (c *Context) ID() string       { return c.id }
func (c *Context) TableID() string  { return c.tableID }
func (c *Context) BranchID() string { return c.branchID }

// Policy returns the branch policy captured when the session was loaded.
func (c *Context) Policy() *domain.BranchPolicy {
	p := c.policy
	p.TipsPercentages = append([]int(nil), c.policy.TipsPercentages...)
	return &p
}

// Do runs fn with exclusive access to the session state.
func (c *Context) Do(fn func(st *State) error) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return fn(&c.state)
}

// Session returns a copy of the session record.
func (c *Context) Session() domain.GuestSession {
	c.mu.Lock()
	defer c.mu.Unlock()

	return *c.state.Session
}

func (c *Context) Expired(now time.Time) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.state.Session.Expired(now)
}

// RefreshGroups re-reads the modifier groups of a cart line from the catalog. The read
// happens outside the session lock; the result is dropped when the line changed meanwhile.
func (c *Context) RefreshGroups(ctx context.Context, catalog repo.CatalogRepository, itemID string) (bool, error) {
	var (
		fetch cart.Fetch
		ok    bool
	)
	_ = c.Do(func(st *State) error {
		fetch, ok = st.Cart.BeginGroupsFetch(itemID)
		return nil
	})
	if !ok {
		return false, fmt.Errorf("cart line: %w", domain.ErrNotFound)
	}

	item, err := catalog.GetItem(ctx, c.branchID, itemID)
	if err != nil {
		return false, fmt.Errorf("failed to refresh modifier groups: %w", err)
	}

	var applied bool
	_ = c.Do(func(st *State) error {
		applied = st.Cart.ResolveGroups(fetch, item.Groups)
		return nil
	})
	return applied, nil
}

// SetBill records the latest known state of the session's bill request and wakes every
// BillChanged waiter. A non-terminal update never replaces a terminal status of the same
// request.
func (c *Context) SetBill(b *domain.BillRequest) {
	if b == nil {
		return
	}
	cp := *b

	c.billMu.Lock()
	defer c.billMu.Unlock()

	if c.bill != nil && c.bill.ID == cp.ID {
		if c.bill.Status == cp.Status {
			return
		}
		if c.bill.Status.Terminal() {
			return
		}
	}
	c.bill = &cp
	close(c.billCh)
	c.billCh = make(chan struct{})
}

func (c *Context) Bill() *domain.BillRequest {
	c.billMu.RLock()
	defer c.billMu.RUnlock()

	if c.bill == nil {
		return nil
	}
	cp := *c.bill
	return &cp
}

// BillChanged returns a channel that is closed on the next SetBill that changes the bill.
func (c *Context) BillChanged() <-chan struct{} {
	c.billMu.RLock()
	defer c.billMu.RUnlock()

	return c.billCh
}
