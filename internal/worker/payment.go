package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Beka01247/kwaaka-table/internal/domain"
	"github.com/Beka01247/kwaaka-table/internal/queue"
	"github.com/Beka01247/kwaaka-table/internal/service"
	"go.uber.org/zap"
)

// PaymentWorker settles bill requests from the confirmations the payment side publishes.
type PaymentWorker struct {
	billService *service.BillService
	broker      queue.Broker
	logger      *zap.SugaredLogger
	ctx         context.Context
	cancel      context.CancelFunc
}

func NewPaymentWorker(
	billService *service.BillService,
	broker queue.Broker,
	logger *zap.SugaredLogger,
) *PaymentWorker {
	ctx, cancel := context.WithCancel(context.Background())

	return &PaymentWorker{
		billService: billService,
		broker:      broker,
		logger:      logger,
		ctx:         ctx,
		cancel:      cancel,
	}
}

func (w *PaymentWorker) Start() error {
	w.logger.Info("starting payment worker")

	return w.broker.Subscribe(w.ctx, queue.QueueBillPayments, w.handleMessage)
}

func (w *PaymentWorker) Stop() {
	w.logger.Info("stopping payment worker")
	w.cancel()
}

func (w *PaymentWorker) handleMessage(ctx context.Context, message []byte) error {
	var confirmation domain.PaymentConfirmation
	if err := json.Unmarshal(message, &confirmation); err != nil {
		w.logger.Errorw("failed to unmarshal payment confirmation", "error", err)
		return fmt.Errorf("failed to unmarshal payment confirmation: %w", err)
	}
	if confirmation.BillID == "" {
		return errors.New("payment confirmation without bill_id")
	}

	if confirmation.Timestamp.IsZero() {
		confirmation.Timestamp = time.Now()
	}

	w.logger.Infow("processing payment confirmation", "bill_id", confirmation.BillID, "reference", confirmation.Reference)

	_, err := w.billService.MarkPaid(ctx, confirmation.BillID, confirmation.Reference)
	if errors.Is(err, domain.ErrInvalidTransition) {
		// settled or cancelled already; redelivery must not fail
		w.logger.Warnw("payment confirmation for settled bill request", "bill_id", confirmation.BillID)
		return nil
	}
	if err != nil {
		w.logger.Errorw("failed to mark bill request paid", "bill_id", confirmation.BillID, "error", err)
		return err
	}

	return nil
}
