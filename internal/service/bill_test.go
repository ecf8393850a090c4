package service

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/Beka01247/kwaaka-table/internal/bill"
	"github.com/Beka01247/kwaaka-table/internal/domain"
	"github.com/Beka01247/kwaaka-table/internal/queue"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
)

func tipsPercent(v int) *int { return &v }

func TestCreateBill(t *testing.T) {
	ctx := context.Background()

	t.Run("my items", func(t *testing.T) {
		f := newFixture(t, defaultPolicy())
		gctx := f.join(t)
		order := f.order(t, gctx, "burger", "burger")

		br, err := f.billSvc.Create(ctx, gctx, bill.Request{
			Mode:          domain.BillModeMy,
			PaymentMethod: domain.PaymentTerminal,
			TipsPercent:   tipsPercent(10),
		})
		require.NoError(t, err)
		assert.Equal(t, domain.BillCreated, br.Status)
		assert.Equal(t, []string{order.Items[0].ID}, br.BillableItemIDs)
		assert.Equal(t, int64(3000), br.SubtotalCents)
		assert.Equal(t, 10, *br.TipsPercent)
		assert.Equal(t, br.ID, gctx.Bill().ID)

		msgs := f.broker.Messages(queue.QueueBillRequests)
		require.Len(t, msgs, 1)
		var event domain.BillRequestEvent
		require.NoError(t, json.Unmarshal(msgs[0], &event))
		assert.Equal(t, domain.EventBillCreated, event.EventType)
		assert.Equal(t, br.ID, event.BillID)
	})

	t.Run("one outstanding request per session", func(t *testing.T) {
		f := newFixture(t, defaultPolicy())
		gctx := f.join(t)
		f.order(t, gctx, "burger")

		req := bill.Request{Mode: domain.BillModeMy, PaymentMethod: domain.PaymentCash}
		first, err := f.billSvc.Create(ctx, gctx, req)
		require.NoError(t, err)

		_, err = f.billSvc.Create(ctx, gctx, req)
		assert.ErrorIs(t, err, domain.ErrBillOutstanding)

		_, err = f.billSvc.Cancel(ctx, gctx, first.ID)
		require.NoError(t, err)

		_, err = f.billSvc.Create(ctx, gctx, req)
		assert.NoError(t, err)
	})

	t.Run("policy rejections", func(t *testing.T) {
		p := defaultPolicy()
		p.AllowPayWholeTable = false
		p.CashEnabled = false
		f := newFixture(t, p)
		gctx := f.join(t)
		f.order(t, gctx, "burger")

		_, err := f.billSvc.Create(ctx, gctx, bill.Request{Mode: domain.BillModeWholeTable, PaymentMethod: domain.PaymentTerminal})
		assert.ErrorIs(t, err, domain.ErrWholeTableDisabled)

		_, err = f.billSvc.Create(ctx, gctx, bill.Request{Mode: domain.BillModeMy, PaymentMethod: domain.PaymentCash})
		assert.ErrorIs(t, err, domain.ErrPaymentMethodDisabled)

		_, err = f.billSvc.Create(ctx, gctx, bill.Request{Mode: domain.BillModeMy, PaymentMethod: domain.PaymentTerminal, TipsPercent: tipsPercent(12)})
		assert.ErrorIs(t, err, domain.ErrTipsNotAllowed)

		_, err = f.billSvc.Create(ctx, gctx, bill.Request{Mode: domain.BillModeSelected, PaymentMethod: domain.PaymentTerminal})
		assert.ErrorIs(t, err, domain.ErrEmptySelection)

		assert.Empty(t, f.broker.Messages(queue.QueueBillRequests))
	})

	t.Run("nothing to pay", func(t *testing.T) {
		f := newFixture(t, defaultPolicy())
		_, err := f.billSvc.Create(ctx, f.join(t), bill.Request{Mode: domain.BillModeMy, PaymentMethod: domain.PaymentCash})
		assert.ErrorIs(t, err, domain.ErrNothingToPay)
	})
}

func TestCreateBillSelected(t *testing.T) {
	ctx := context.Background()
	p := defaultPolicy()
	f := newFixture(t, p)
	f.partySvc.pin = fixedPINs("4821")

	a, b := f.join(t), f.join(t)
	own := f.order(t, a, "burger")
	other := f.order(t, b, "burger")

	_, err := f.partySvc.Create(ctx, a)
	require.NoError(t, err)
	_, err = f.partySvc.Join(ctx, b, "4821")
	require.NoError(t, err)

	ids := []string{own.Items[0].ID, other.Items[0].ID}

	br, err := f.billSvc.Create(ctx, a, bill.Request{Mode: domain.BillModeSelected, PaymentMethod: domain.PaymentCash, ItemIDs: ids})
	require.NoError(t, err)
	assert.Equal(t, []string{own.Items[0].ID}, br.BillableItemIDs, "other guests' items need policy permission")
	assert.Equal(t, ids, br.TargetItemIDs)

	p.AllowPayOtherGuestsItems = true
	f.policies.Put(p)
	f.registry.Drop(b.ID())
	session := b.Session()
	b, err = f.sessionSvc.Authenticate(ctx, session.ID, session.Secret)
	require.NoError(t, err)

	br, err = f.billSvc.Create(ctx, b, bill.Request{Mode: domain.BillModeSelected, PaymentMethod: domain.PaymentCash, ItemIDs: ids})
	require.NoError(t, err)
	assert.ElementsMatch(t, ids, br.BillableItemIDs)
}

func TestCancelBill(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, defaultPolicy())
	a, b := f.join(t), f.join(t)
	f.order(t, a, "burger")

	br, err := f.billSvc.Create(ctx, a, bill.Request{Mode: domain.BillModeMy, PaymentMethod: domain.PaymentCash})
	require.NoError(t, err)

	_, err = f.billSvc.Cancel(ctx, b, br.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound, "only the owner may cancel")

	cancelled, err := f.billSvc.Cancel(ctx, a, br.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.BillCancelled, cancelled.Status)
	assert.NotNil(t, cancelled.CancelledAt)
	assert.Equal(t, domain.BillCancelled, a.Bill().Status)

	_, err = f.billSvc.Cancel(ctx, a, br.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	_, err = f.billSvc.MarkPaid(ctx, br.ID, "pos-1")
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	_, err = f.billSvc.Cancel(ctx, a, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestMarkPaid(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, defaultPolicy())
	gctx := f.join(t)
	f.order(t, gctx, "burger")

	br, err := f.billSvc.Create(ctx, gctx, bill.Request{Mode: domain.BillModeMy, PaymentMethod: domain.PaymentCash})
	require.NoError(t, err)

	paid, err := f.billSvc.MarkPaid(ctx, br.ID, "pos-1")
	require.NoError(t, err)
	assert.Equal(t, domain.BillPaid, paid.Status)
	assert.NotNil(t, paid.PaidAt)

	_, err = f.billSvc.Cancel(ctx, gctx, br.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	_, err = f.billSvc.Create(ctx, gctx, bill.Request{Mode: domain.BillModeMy, PaymentMethod: domain.PaymentCash})
	assert.ErrorIs(t, err, domain.ErrNothingToPay, "paid items are not billed again")

	msgs := f.broker.Messages(queue.QueueBillRequests)
	require.Len(t, msgs, 2)
	var event domain.BillRequestEvent
	require.NoError(t, json.Unmarshal(msgs[1], &event))
	assert.Equal(t, domain.EventBillPaid, event.EventType)

	current, err := f.billSvc.Current(ctx, gctx)
	require.NoError(t, err)
	assert.Equal(t, br.ID, current.ID)
	assert.Equal(t, domain.BillPaid, current.Status)
}

func TestCancelRacesPayment(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, defaultPolicy())
	gctx := f.join(t)

	for i := 0; i < 20; i++ {
		f.order(t, gctx, "burger")
		br, err := f.billSvc.Create(ctx, gctx, bill.Request{Mode: domain.BillModeMy, PaymentMethod: domain.PaymentCash})
		require.NoError(t, err)

		var (
			wg                 sync.WaitGroup
			cancelErr, paidErr error
		)
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, cancelErr = f.billSvc.Cancel(ctx, gctx, br.ID)
		}()
		go func() {
			defer wg.Done()
			_, paidErr = f.billSvc.MarkPaid(ctx, br.ID, "pos")
		}()
		wg.Wait()

		if cancelErr == nil {
			assert.ErrorIs(t, paidErr, domain.ErrInvalidTransition)
		} else {
			assert.ErrorIs(t, cancelErr, domain.ErrInvalidTransition)
			assert.NoError(t, paidErr)
		}

		final, err := f.billSvc.Status(ctx, br.ID)
		require.NoError(t, err)
		assert.True(t, final.Status.Terminal())
	}
}

func TestBillPolling(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	ctx := context.Background()
	f := newFixture(t, defaultPolicy())

	poller := bill.NewPoller(f.billSvc.Status, 5*time.Millisecond, zap.NewNop().Sugar())
	defer poller.Close()
	f.billSvc.WithPoller(poller)

	gctx := f.join(t)
	f.order(t, gctx, "burger")

	changed := gctx.BillChanged()
	br, err := f.billSvc.Create(ctx, gctx, bill.Request{Mode: domain.BillModeMy, PaymentMethod: domain.PaymentCash})
	require.NoError(t, err)
	<-changed
	assert.Equal(t, domain.BillCreated, gctx.Bill().Status)

	changed = gctx.BillChanged()
	_, err = f.billSvc.MarkPaid(ctx, br.ID, "pos-1")
	require.NoError(t, err)

	select {
	case <-changed:
	case <-time.After(time.Second):
		t.Fatal("paid status was not pushed")
	}
	assert.Equal(t, domain.BillPaid, gctx.Bill().Status)
}
