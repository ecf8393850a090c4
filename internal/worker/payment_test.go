package worker

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Beka01247/kwaaka-table/internal/bill"
	"github.com/Beka01247/kwaaka-table/internal/domain"
	"github.com/Beka01247/kwaaka-table/internal/guest"
	"github.com/Beka01247/kwaaka-table/internal/queue"
	"github.com/Beka01247/kwaaka-table/internal/service"
	"github.com/Beka01247/kwaaka-table/internal/store/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func confirmation(t *testing.T, billID string) []byte {
	t.Helper()

	b, err := json.Marshal(domain.PaymentConfirmation{BillID: billID, Reference: "pos-42", Timestamp: time.Now()})
	require.NoError(t, err)
	return b
}

func TestPaymentWorker(t *testing.T) {
	ctx := context.Background()
	logger := zap.NewNop().Sugar()

	orders := memory.NewOrderRepository()
	bills := memory.NewBillRequestRepository()
	broker := queue.NewMemoryBroker()
	parties := service.NewPartyService(memory.NewPartyRepository(), nil, logger)
	billSvc := service.NewBillService(bills, orders, parties, broker, logger)

	session := &domain.GuestSession{ID: "s1", TableID: "t1", BranchID: "b1", ExpiresAt: time.Now().Add(time.Hour)}
	gctx := guest.New(session, &domain.BranchPolicy{BranchID: "b1", CashEnabled: true})

	require.NoError(t, orders.Create(ctx, &domain.Order{
		ID:        "o1",
		SessionID: "s1",
		Items:     []domain.OrderItem{{ID: "i1", SessionID: "s1", UnitPriceCents: 1500, Quantity: 1}},
	}))

	br, err := billSvc.Create(ctx, gctx, bill.Request{Mode: domain.BillModeMy, PaymentMethod: domain.PaymentCash})
	require.NoError(t, err)

	w := NewPaymentWorker(billSvc, broker, logger)
	require.NoError(t, w.Start())
	defer w.Stop()

	require.NoError(t, broker.Publish(ctx, queue.QueueBillPayments, confirmation(t, br.ID)))

	stored, err := bills.GetByID(ctx, br.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.BillPaid, stored.Status)

	unpaid, err := orders.UnpaidItems(ctx, []string{"s1"})
	require.NoError(t, err)
	assert.Empty(t, unpaid)

	// redelivery is acknowledged
	assert.NoError(t, broker.Publish(ctx, queue.QueueBillPayments, confirmation(t, br.ID)))

	assert.ErrorIs(t, broker.Publish(ctx, queue.QueueBillPayments, confirmation(t, "unknown")), domain.ErrNotFound)
	assert.Error(t, broker.Publish(ctx, queue.QueueBillPayments, []byte("{")))
}

type flakyOrders struct {
	*memory.OrderRepository

	mu    sync.Mutex
	fails int
}

func (r *flakyOrders) MarkItemsPaid(ctx context.Context, itemIDs []string) error {
	r.mu.Lock()
	if r.fails > 0 {
		r.fails--
		r.mu.Unlock()
		return errors.New("mongo: timeout")
	}
	r.mu.Unlock()
	return r.OrderRepository.MarkItemsPaid(ctx, itemIDs)
}

func TestPaymentWorkerRedeliveryAfterFailedSettle(t *testing.T) {
	ctx := context.Background()
	logger := zap.NewNop().Sugar()

	orders := &flakyOrders{OrderRepository: memory.NewOrderRepository(), fails: 1}
	bills := memory.NewBillRequestRepository()
	broker := queue.NewMemoryBroker()
	parties := service.NewPartyService(memory.NewPartyRepository(), nil, logger)
	billSvc := service.NewBillService(bills, orders, parties, broker, logger)

	session := &domain.GuestSession{ID: "s1", TableID: "t1", BranchID: "b1", ExpiresAt: time.Now().Add(time.Hour)}
	gctx := guest.New(session, &domain.BranchPolicy{BranchID: "b1", CashEnabled: true})

	require.NoError(t, orders.Create(ctx, &domain.Order{
		ID:        "o1",
		SessionID: "s1",
		Items:     []domain.OrderItem{{ID: "i1", SessionID: "s1", UnitPriceCents: 1500, Quantity: 1}},
	}))

	br, err := billSvc.Create(ctx, gctx, bill.Request{Mode: domain.BillModeMy, PaymentMethod: domain.PaymentCash})
	require.NoError(t, err)

	w := NewPaymentWorker(billSvc, broker, logger)
	require.NoError(t, w.Start())
	defer w.Stop()

	err = broker.Publish(ctx, queue.QueueBillPayments, confirmation(t, br.ID))
	require.ErrorIs(t, err, domain.ErrUnavailable)

	stored, err := bills.GetByID(ctx, br.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.BillCreated, stored.Status, "failed settle must leave the request outstanding")

	require.NoError(t, broker.Publish(ctx, queue.QueueBillPayments, confirmation(t, br.ID)))

	stored, err = bills.GetByID(ctx, br.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.BillPaid, stored.Status)

	unpaid, err := orders.UnpaidItems(ctx, []string{"s1"})
	require.NoError(t, err)
	assert.Empty(t, unpaid)

	_, err = billSvc.Create(ctx, gctx, bill.Request{Mode: domain.BillModeMy, PaymentMethod: domain.PaymentCash})
	assert.ErrorIs(t, err, domain.ErrNothingToPay)
}
