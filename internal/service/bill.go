package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Beka01247/kwaaka-table/internal/bill"
	"github.com/Beka01247/kwaaka-table/internal/domain"
	"github.com/Beka01247/kwaaka-table/internal/guest"
	"github.com/Beka01247/kwaaka-table/internal/metrics"
	"github.com/Beka01247/kwaaka-table/internal/queue"
	"github.com/Beka01247/kwaaka-table/internal/repo"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type BillService struct {
	bills   repo.BillRequestRepository
	orders  repo.OrderRepository
	parties *PartyService
	broker  queue.Broker
	poller  *bill.Poller
	logger  *zap.SugaredLogger
}

func NewBillService(
	bills repo.BillRequestRepository,
	orders repo.OrderRepository,
	parties *PartyService,
	broker queue.Broker,
	logger *zap.SugaredLogger,
) *BillService {
	return &BillService{
		bills:   bills,
		orders:  orders,
		parties: parties,
		broker:  broker,
		logger:  logger,
	}
}

// WithPoller makes the service watch every request it creates until it settles, pushing
// status changes into the owning guest context.
func (s *BillService) WithPoller(p *bill.Poller) *BillService {
	s.poller = p
	return s
}

// Scope collects the unpaid items visible to the guest. The own and party reads run
// concurrently.
func (s *BillService) Scope(ctx context.Context, gctx *guest.Context) (bill.Scope, error) {
	members, party, err := s.parties.Scope(ctx, gctx)
	if err != nil {
		return bill.Scope{}, err
	}

	var scope bill.Scope
	g, readCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		items, err := s.orders.UnpaidItems(readCtx, []string{gctx.ID()})
		if err != nil {
			return fmt.Errorf("failed to read own items: %w", err)
		}
		scope.Own = items
		return nil
	})

	if party != nil {
		g.Go(func() error {
			items, err := s.orders.UnpaidItems(readCtx, members)
			if err != nil {
				return fmt.Errorf("failed to read party items: %w", err)
			}
			if items == nil {
				items = []domain.OrderItem{}
			}
			scope.Party = items
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return bill.Scope{}, fmt.Errorf("%w: %v", domain.ErrUnavailable, err)
	}
	return scope, nil
}

// Create validates req against the branch policy, resolves the billable items and stores
// a CREATED bill request.
func (s *BillService) Create(ctx context.Context, gctx *guest.Context, req bill.Request) (*domain.BillRequest, error) {
	policy := gctx.Policy()

	if err := bill.Validate(policy, req); err != nil {
		metrics.BillRequestsTotal.WithLabelValues(string(req.Mode), "rejected").Inc()
		return nil, err
	}

	scope, err := s.Scope(ctx, gctx)
	if err != nil {
		metrics.BillRequestsTotal.WithLabelValues(string(req.Mode), "error").Inc()
		return nil, err
	}

	items, err := bill.Billable(policy, req, scope)
	if err != nil {
		metrics.BillRequestsTotal.WithLabelValues(string(req.Mode), "rejected").Inc()
		return nil, err
	}

	br := &domain.BillRequest{
		ID:              uuid.NewString(),
		SessionID:       gctx.ID(),
		BranchID:        gctx.BranchID(),
		TableID:         gctx.TableID(),
		Mode:            req.Mode,
		PaymentMethod:   req.PaymentMethod,
		TipsPercent:     req.TipsPercent,
		BillableItemIDs: bill.IDs(items),
		SubtotalCents:   bill.SubtotalCents(items),
		Status:          domain.BillCreated,
		CreatedAt:       time.Now(),
	}
	if req.Mode == domain.BillModeSelected {
		br.TargetItemIDs = append([]string(nil), req.ItemIDs...)
	}

	if err := s.bills.Create(ctx, br); err != nil {
		if errors.Is(err, domain.ErrBillOutstanding) {
			metrics.BillRequestsTotal.WithLabelValues(string(req.Mode), "outstanding").Inc()
			return nil, err
		}
		metrics.BillRequestsTotal.WithLabelValues(string(req.Mode), "error").Inc()
		return nil, fmt.Errorf("%w: failed to create bill request: %v", domain.ErrUnavailable, err)
	}

	metrics.BillRequestsTotal.WithLabelValues(string(req.Mode), "created").Inc()
	s.publish(ctx, domain.EventBillCreated, br)

	gctx.SetBill(br)
	if s.poller != nil {
		s.poller.Watch(br, gctx.SetBill)
	}

	s.logger.Infow("bill request created",
		"bill_id", br.ID,
		"session_id", br.SessionID,
		"mode", br.Mode,
		"items", len(br.BillableItemIDs),
		"subtotal_cents", br.SubtotalCents,
	)

	return br, nil
}

// Cancel withdraws a CREATED request. Only the session that created it may cancel.
func (s *BillService) Cancel(ctx context.Context, gctx *guest.Context, billID string) (*domain.BillRequest, error) {
	current, err := s.bills.GetByID(ctx, billID)
	if err != nil {
		return nil, fmt.Errorf("failed to get bill request: %w", err)
	}
	if current.SessionID != gctx.ID() {
		return nil, fmt.Errorf("bill request: %w", domain.ErrNotFound)
	}

	br, err := s.transition(ctx, billID, domain.BillCancelled)
	if err != nil {
		return nil, err
	}

	gctx.SetBill(br)
	if s.poller != nil {
		s.poller.Stop(br.ID)
	}

	s.logger.Infow("bill request cancelled", "bill_id", br.ID, "session_id", br.SessionID)

	return br, nil
}

// MarkPaid settles a CREATED request and marks its items paid. Items are marked before the
// status changes, so a failed write leaves the request CREATED for redelivery. A request
// that is already PAID gets its items marked again and reports ErrInvalidTransition.
func (s *BillService) MarkPaid(ctx context.Context, billID, reference string) (*domain.BillRequest, error) {
	stored, err := s.bills.GetByID(ctx, billID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: failed to get bill request: %v", domain.ErrUnavailable, err)
	}
	if stored.Status == domain.BillCancelled {
		return nil, domain.ErrInvalidTransition
	}

	if err := s.orders.MarkItemsPaid(ctx, stored.BillableItemIDs); err != nil {
		s.logger.Errorw("failed to mark bill items paid", "bill_id", stored.ID, "error", err)
		return nil, fmt.Errorf("%w: failed to mark items paid: %v", domain.ErrUnavailable, err)
	}
	if stored.Status == domain.BillPaid {
		return nil, domain.ErrInvalidTransition
	}

	br, err := s.transition(ctx, billID, domain.BillPaid)
	if err != nil {
		return nil, err
	}

	s.logger.Infow("bill request paid", "bill_id", br.ID, "session_id", br.SessionID, "reference", reference)

	return br, nil
}

func (s *BillService) transition(ctx context.Context, billID string, to domain.BillStatus) (*domain.BillRequest, error) {
	br, err := s.bills.Transition(ctx, billID, domain.BillCreated, to, time.Now())
	if err != nil {
		outcome := "error"
		if errors.Is(err, domain.ErrInvalidTransition) {
			outcome = "invalid_transition"
		}
		metrics.BillRequestsTotal.WithLabelValues("unknown", outcome).Inc()

		if errors.Is(err, domain.ErrInvalidTransition) || errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: failed to update bill request: %v", domain.ErrUnavailable, err)
	}

	event := domain.EventBillPaid
	if to == domain.BillCancelled {
		event = domain.EventBillCancelled
	}
	metrics.BillRequestsTotal.WithLabelValues(string(br.Mode), string(to)).Inc()
	s.publish(ctx, event, br)

	return br, nil
}

// Status reads the stored state of a bill request.
func (s *BillService) Status(ctx context.Context, billID string) (*domain.BillRequest, error) {
	br, err := s.bills.GetByID(ctx, billID)
	if err != nil {
		return nil, fmt.Errorf("failed to get bill request: %w", err)
	}
	return br, nil
}

// Current returns the session's outstanding request, or the last one it saw settle.
func (s *BillService) Current(ctx context.Context, gctx *guest.Context) (*domain.BillRequest, error) {
	br, err := s.bills.FindOutstanding(ctx, gctx.ID())
	if err == nil {
		gctx.SetBill(br)
		return br, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("%w: failed to find bill request: %v", domain.ErrUnavailable, err)
	}

	last := gctx.Bill()
	if last == nil {
		return nil, err
	}
	fresh, ferr := s.bills.GetByID(ctx, last.ID)
	if ferr != nil {
		s.logger.Warnw("failed to refresh bill request", "bill_id", last.ID, "error", ferr)
		return last, nil
	}
	gctx.SetBill(fresh)
	return fresh, nil
}

func (s *BillService) publish(ctx context.Context, eventType string, br *domain.BillRequest) {
	event := domain.BillRequestEvent{
		EventType:     eventType,
		BillID:        br.ID,
		SessionID:     br.SessionID,
		TableID:       br.TableID,
		BranchID:      br.BranchID,
		Mode:          br.Mode,
		PaymentMethod: br.PaymentMethod,
		TipsPercent:   br.TipsPercent,
		ItemIDs:       br.BillableItemIDs,
		SubtotalCents: br.SubtotalCents,
		Status:        br.Status,
		Timestamp:     time.Now(),
	}

	eventBytes, err := json.Marshal(event)
	if err != nil {
		s.logger.Errorw("failed to marshal bill event", "bill_id", br.ID, "error", err)
		return
	}

	if err := s.broker.Publish(ctx, queue.QueueBillRequests, eventBytes); err != nil {
		s.logger.Errorw("failed to publish bill event", "bill_id", br.ID, "event", eventType, "error", err)
	}
}
