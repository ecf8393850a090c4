package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/Beka01247/kwaaka-table/internal/domain"
	"github.com/Beka01247/kwaaka-table/internal/queue"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestCartOperations(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, defaultPolicy())
	gctx := f.join(t)

	needs, err := f.orderSvc.AddItem(ctx, gctx, "burger")
	require.NoError(t, err)
	assert.False(t, needs)
	_, err = f.orderSvc.AddItem(ctx, gctx, "burger")
	require.NoError(t, err)
	_, err = f.orderSvc.AddItem(ctx, gctx, "burger")
	require.NoError(t, err)

	snap := f.orderSvc.Cart(gctx)
	assert.Equal(t, int64(4500), snap.TotalCents)

	snap = f.orderSvc.RemoveItem(gctx, "burger")
	assert.Equal(t, int64(3000), snap.TotalCents)

	needs, err = f.orderSvc.AddItem(ctx, gctx, "pizza")
	require.NoError(t, err)
	assert.True(t, needs)

	snap, err = f.orderSvc.SetModifier(gctx, "pizza", "size", "l", true)
	require.NoError(t, err)
	assert.Equal(t, int64(5000), snap.TotalCents, "modifier increments stay out of the total")
	assert.Equal(t, int64(300), snap.ModifierCents)
	assert.True(t, snap.Submittable)

	snap, err = f.orderSvc.SetComment(gctx, "pizza", "no onions")
	require.NoError(t, err)
	assert.Equal(t, "no onions", snap.Lines[1].Comment)

	_, err = f.orderSvc.SetComment(gctx, "salad", "x")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.orderSvc.AddItem(ctx, gctx, "soup")
	assert.ErrorIs(t, err, domain.ErrItemUnavailable)

	_, err = f.orderSvc.AddItem(ctx, gctx, "salad")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSubmit(t *testing.T) {
	ctx := context.Background()

	t.Run("empty cart", func(t *testing.T) {
		f := newFixture(t, defaultPolicy())
		_, err := f.orderSvc.Submit(ctx, f.join(t))
		assert.ErrorIs(t, err, domain.ErrEmptyCart)
	})

	t.Run("missing modifiers", func(t *testing.T) {
		f := newFixture(t, defaultPolicy())
		gctx := f.join(t)

		_, err := f.orderSvc.AddItem(ctx, gctx, "pizza")
		require.NoError(t, err)

		_, err = f.orderSvc.Submit(ctx, gctx)
		var missing *domain.MissingModifiersError
		require.ErrorAs(t, err, &missing)
		assert.Equal(t, map[string][]string{"pizza": {"Size"}}, missing.Missing)
		items, err := f.orders.UnpaidItems(ctx, []string{gctx.ID()})
		require.NoError(t, err)
		assert.Empty(t, items)
	})

	t.Run("placed order clears cart and publishes", func(t *testing.T) {
		f := newFixture(t, defaultPolicy())
		gctx := f.join(t)

		_, err := f.orderSvc.AddItem(ctx, gctx, "pizza")
		require.NoError(t, err)
		_, err = f.orderSvc.SetModifier(gctx, "pizza", "size", "l", true)
		require.NoError(t, err)
		_, err = f.orderSvc.AddItem(ctx, gctx, "burger")
		require.NoError(t, err)

		order, err := f.orderSvc.Submit(ctx, gctx)
		require.NoError(t, err)
		require.Len(t, order.Items, 2)
		assert.Equal(t, gctx.ID(), order.SessionID)
		assert.Equal(t, []domain.SelectedModifier{{GroupID: "size", OptionID: "l", Name: "Large", PriceCents: 300}}, order.Items[0].Modifiers)
		for _, it := range order.Items {
			assert.NotEmpty(t, it.ID)
			assert.Equal(t, order.ID, it.OrderID)
		}

		assert.Empty(t, f.orderSvc.Cart(gctx).Lines)

		msgs := f.broker.Messages(queue.QueueOrderPlaced)
		require.Len(t, msgs, 1)
		var event domain.OrderPlacedEvent
		require.NoError(t, json.Unmarshal(msgs[0], &event))
		assert.Equal(t, domain.EventOrderPlaced, event.EventType)
		assert.Equal(t, order.ID, event.OrderID)
		assert.Equal(t, int64(3500), event.TotalCents)

		items, err := f.orders.UnpaidItems(ctx, []string{gctx.ID()})
		require.NoError(t, err)
		assert.Len(t, items, 2)
	})

	t.Run("store failure keeps the cart", func(t *testing.T) {
		f := newFixture(t, defaultPolicy())
		broken := &failingOrders{OrderRepository: f.orders, err: errors.New("connection reset")}
		svc := NewOrderService(f.catalog, broken, f.broker, zap.NewNop().Sugar())
		gctx := f.join(t)

		_, err := svc.AddItem(ctx, gctx, "burger")
		require.NoError(t, err)

		_, err = svc.Submit(ctx, gctx)
		assert.ErrorIs(t, err, domain.ErrUnavailable)
		assert.Equal(t, 1, len(svc.Cart(gctx).Lines))
		assert.Empty(t, f.broker.Messages(queue.QueueOrderPlaced))

		broken.err = nil
		_, err = svc.Submit(ctx, gctx)
		require.NoError(t, err)
		items, err := f.orders.UnpaidItems(ctx, []string{gctx.ID()})
		require.NoError(t, err)
		assert.Len(t, items, 1)
	})
}
