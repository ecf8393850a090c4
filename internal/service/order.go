package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Beka01247/kwaaka-table/internal/cart"
	"github.com/Beka01247/kwaaka-table/internal/domain"
	"github.com/Beka01247/kwaaka-table/internal/guest"
	"github.com/Beka01247/kwaaka-table/internal/metrics"
	"github.com/Beka01247/kwaaka-table/internal/queue"
	"github.com/Beka01247/kwaaka-table/internal/repo"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CartSnapshot is the cart as shown to the guest.
type CartSnapshot struct {
	Lines         []cart.LineView     `json:"lines"`
	TotalCents    int64               `json:"total_cents"`
	ModifierCents int64               `json:"modifier_cents"`
	Submittable   bool                `json:"submittable"`
	Missing       map[string][]string `json:"missing,omitempty"`
}

type OrderService struct {
	catalog repo.CatalogRepository
	orders  repo.OrderRepository
	broker  queue.Broker
	logger  *zap.SugaredLogger
}

func NewOrderService(
	catalog repo.CatalogRepository,
	orders repo.OrderRepository,
	broker queue.Broker,
	logger *zap.SugaredLogger,
) *OrderService {
	return &OrderService{
		catalog: catalog,
		orders:  orders,
		broker:  broker,
		logger:  logger,
	}
}

func (s *OrderService) Menu(ctx context.Context, gctx *guest.Context) (*domain.Menu, error) {
	menu, err := s.catalog.GetMenu(ctx, gctx.BranchID())
	if err != nil {
		return nil, fmt.Errorf("failed to get menu: %w", err)
	}
	return menu, nil
}

func (s *OrderService) Cart(gctx *guest.Context) CartSnapshot {
	var snap CartSnapshot
	_ = gctx.Do(func(st *guest.State) error {
		snap = snapshot(st.Cart)
		return nil
	})
	return snap
}

// AddItem puts one unit of itemID in the cart. The returned flag is true when the line
// needs modifier choices before the cart can be submitted.
func (s *OrderService) AddItem(ctx context.Context, gctx *guest.Context, itemID string) (bool, error) {
	item, err := s.catalog.GetItem(ctx, gctx.BranchID(), itemID)
	if err != nil {
		return false, fmt.Errorf("failed to get menu item: %w", err)
	}
	if !item.Available {
		return false, domain.ErrItemUnavailable
	}

	var needsAttention bool
	_ = gctx.Do(func(st *guest.State) error {
		needsAttention = st.Cart.AddOrIncrement(*item)
		return nil
	})
	return needsAttention, nil
}

func (s *OrderService) RemoveItem(gctx *guest.Context, itemID string) CartSnapshot {
	var snap CartSnapshot
	_ = gctx.Do(func(st *guest.State) error {
		st.Cart.Decrement(itemID)
		snap = snapshot(st.Cart)
		return nil
	})
	return snap
}

func (s *OrderService) SetModifier(gctx *guest.Context, itemID, groupID, optionID string, on bool) (CartSnapshot, error) {
	var snap CartSnapshot
	err := gctx.Do(func(st *guest.State) error {
		if !st.Cart.SetSelection(itemID, groupID, optionID, on) {
			return fmt.Errorf("cart line: %w", domain.ErrNotFound)
		}
		snap = snapshot(st.Cart)
		return nil
	})
	return snap, err
}

func (s *OrderService) SetComment(gctx *guest.Context, itemID, text string) (CartSnapshot, error) {
	var snap CartSnapshot
	err := gctx.Do(func(st *guest.State) error {
		if !st.Cart.SetComment(itemID, text) {
			return fmt.Errorf("cart line: %w", domain.ErrNotFound)
		}
		snap = snapshot(st.Cart)
		return nil
	})
	return snap, err
}

// RefreshItem re-reads the modifier groups of a cart line.
func (s *OrderService) RefreshItem(ctx context.Context, gctx *guest.Context, itemID string) (bool, error) {
	return gctx.RefreshGroups(ctx, s.catalog, itemID)
}

// Submit places the cart as an order. The cart is cleared only once the order is stored.
func (s *OrderService) Submit(ctx context.Context, gctx *guest.Context) (*domain.Order, error) {
	var order *domain.Order

	err := gctx.Do(func(st *guest.State) error {
		if err := st.Gate.Check(); err != nil {
			return err
		}
		if st.Cart.Empty() {
			return domain.ErrEmptyCart
		}
		if missing := st.Cart.Missing(); len(missing) > 0 {
			return &domain.MissingModifiersError{Missing: missing}
		}

		now := time.Now()
		order = &domain.Order{
			ID:        uuid.NewString(),
			SessionID: gctx.ID(),
			TableID:   gctx.TableID(),
			BranchID:  gctx.BranchID(),
			Items:     st.Cart.OrderItems(),
			CreatedAt: now,
		}
		for i := range order.Items {
			order.Items[i].ID = uuid.NewString()
			order.Items[i].OrderID = order.ID
			order.Items[i].SessionID = order.SessionID
			order.Items[i].TableID = order.TableID
			order.Items[i].BranchID = order.BranchID
			order.Items[i].CreatedAt = now
		}

		if err := s.orders.Create(ctx, order); err != nil {
			s.logger.Errorw("failed to create order", "session_id", gctx.ID(), "error", err)
			return fmt.Errorf("%w: failed to create order: %v", domain.ErrUnavailable, err)
		}

		st.Cart.Clear()
		return nil
	})
	if err != nil {
		metrics.OrdersTotal.WithLabelValues(orderResult(err)).Inc()
		return nil, err
	}

	metrics.OrdersTotal.WithLabelValues("ok").Inc()
	s.publishOrderPlaced(ctx, order)

	s.logger.Infow("order placed", "order_id", order.ID, "session_id", order.SessionID, "items", len(order.Items))

	return order, nil
}

func (s *OrderService) publishOrderPlaced(ctx context.Context, order *domain.Order) {
	var total int64
	for _, it := range order.Items {
		total += it.TotalCents()
	}

	event := domain.OrderPlacedEvent{
		EventType:  domain.EventOrderPlaced,
		OrderID:    order.ID,
		SessionID:  order.SessionID,
		TableID:    order.TableID,
		BranchID:   order.BranchID,
		ItemCount:  len(order.Items),
		TotalCents: total,
		Timestamp:  order.CreatedAt,
	}

	eventBytes, err := json.Marshal(event)
	if err != nil {
		s.logger.Errorw("failed to marshal order event", "order_id", order.ID, "error", err)
		return
	}

	// the order is already stored; a lost event is logged, not surfaced to the guest
	if err := s.broker.Publish(ctx, queue.QueueOrderPlaced, eventBytes); err != nil {
		s.logger.Errorw("failed to publish order event", "order_id", order.ID, "error", err)
	}
}

func snapshot(e *cart.Engine) CartSnapshot {
	return CartSnapshot{
		Lines:         e.Lines(),
		TotalCents:    e.TotalCents(),
		ModifierCents: e.ModifierCents(),
		Submittable:   e.IsSubmittable(),
		Missing:       e.Missing(),
	}
}

func orderResult(err error) string {
	var missing *domain.MissingModifiersError
	switch {
	case errors.Is(err, domain.ErrVerificationRequired):
		return "verification_required"
	case errors.Is(err, domain.ErrEmptyCart):
		return "empty_cart"
	case errors.As(err, &missing):
		return "missing_modifiers"
	default:
		return "error"
	}
}
