package service

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/Beka01247/kwaaka-table/internal/domain"
	"github.com/Beka01247/kwaaka-table/internal/guest"
	"github.com/Beka01247/kwaaka-table/internal/otp"
	"github.com/Beka01247/kwaaka-table/internal/queue"
	"github.com/Beka01247/kwaaka-table/internal/store/memory"
	"github.com/Beka01247/kwaaka-table/internal/tablelink"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const linkSecret = "test-link-secret"

type fixture struct {
	sessions *memory.SessionRepository
	policies *memory.PolicyRepository
	catalog  *memory.CatalogRepository
	parties  *memory.PartyRepository
	orders   *memory.OrderRepository
	bills    *memory.BillRequestRepository
	broker   *queue.MemoryBroker
	signer   *tablelink.Signer
	registry *guest.Registry

	sessionSvc *SessionService
	orderSvc   *OrderService
	partySvc   *PartyService
	billSvc    *BillService
}

func defaultPolicy() domain.BranchPolicy {
	return domain.BranchPolicy{
		BranchID:           "b1",
		PartyEnabled:       true,
		AllowPayWholeTable: true,
		TipsEnabled:        true,
		TipsPercentages:    []int{5, 10, 15},
		CashEnabled:        true,
		TerminalEnabled:    true,
	}
}

func testMenu() domain.Menu {
	one := 1
	return domain.Menu{
		Name:     "Main",
		BranchID: "b1",
		Items: []domain.MenuItem{
			{ID: "burger", Name: "Burger", PriceCents: 1500, Available: true},
			{ID: "soup", Name: "Soup", PriceCents: 900, Available: false},
			{
				ID: "pizza", Name: "Pizza", PriceCents: 2000, Available: true,
				Groups: []domain.ModifierGroup{{
					ID: "size", Name: "Size", IsRequired: true, MinSelect: &one, MaxSelect: &one,
					Options: []domain.ModifierOption{
						{ID: "s", Name: "Small"},
						{ID: "l", Name: "Large", PriceCents: 300},
					},
				}},
			},
		},
	}
}

func newFixture(t *testing.T, policy domain.BranchPolicy) *fixture {
	t.Helper()

	logger := zap.NewNop().Sugar()
	f := &fixture{
		sessions: memory.NewSessionRepository(),
		policies: memory.NewPolicyRepository(policy),
		catalog:  memory.NewCatalogRepository(),
		parties:  memory.NewPartyRepository(),
		orders:   memory.NewOrderRepository(),
		bills:    memory.NewBillRequestRepository(),
		broker:   queue.NewMemoryBroker(),
		signer:   tablelink.NewSigner(linkSecret),
	}
	f.catalog.Put(testMenu())
	f.registry = guest.NewRegistry(f.sessions, f.policies, logger)

	f.sessionSvc = NewSessionService(f.sessions, f.policies, f.signer, f.registry, 0, logger)
	f.orderSvc = NewOrderService(f.catalog, f.orders, f.broker, logger)
	f.partySvc = NewPartyService(f.parties, nil, logger)
	f.billSvc = NewBillService(f.bills, f.orders, f.partySvc, f.broker, logger)
	return f
}

// join activates a new session at table t1 of branch b1.
func (f *fixture) join(t *testing.T) *guest.Context {
	t.Helper()
	return f.joinTable(t, "t1")
}

func (f *fixture) joinTable(t *testing.T, tableID string) *guest.Context {
	t.Helper()

	token, err := f.signer.Sign(tablelink.Table{TableID: tableID, BranchID: "b1"}, 0)
	require.NoError(t, err)

	session, err := f.sessionSvc.Activate(context.Background(), token, "en")
	require.NoError(t, err)

	gctx, err := f.sessionSvc.Authenticate(context.Background(), session.ID, session.Secret)
	require.NoError(t, err)
	return gctx
}

// order places an order of the given menu items for gctx.
func (f *fixture) order(t *testing.T, gctx *guest.Context, itemIDs ...string) *domain.Order {
	t.Helper()

	ctx := context.Background()
	for _, id := range itemIDs {
		_, err := f.orderSvc.AddItem(ctx, gctx, id)
		require.NoError(t, err)
	}
	order, err := f.orderSvc.Submit(ctx, gctx)
	require.NoError(t, err)
	return order
}

type fakeOTP struct {
	mu        sync.Mutex
	code      string
	issued    int
	down      bool
	challenge string
	onVerify  func()
}

func (f *fakeOTP) IssueChallenge(ctx context.Context, phone string) (*otp.Challenge, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.down {
		return nil, fmt.Errorf("%w: otp: connection refused", domain.ErrUnavailable)
	}
	f.issued++
	f.challenge = "ch-" + string(rune('0'+f.issued))
	return &otp.Challenge{ID: f.challenge, DevCode: f.code}, nil
}

func (f *fakeOTP) Verify(ctx context.Context, challengeID, code string) (bool, error) {
	f.mu.Lock()
	if f.down {
		f.mu.Unlock()
		return false, fmt.Errorf("%w: otp: connection refused", domain.ErrUnavailable)
	}
	ok := challengeID == f.challenge && code == f.code
	hook := f.onVerify
	f.mu.Unlock()

	if hook != nil {
		hook()
	}
	return ok, nil
}

type failingOrders struct {
	*memory.OrderRepository
	err error
}

func (r *failingOrders) Create(ctx context.Context, order *domain.Order) error {
	if r.err != nil {
		return r.err
	}
	return r.OrderRepository.Create(ctx, order)
}
