package bill

import (
	"context"
	"sync"
	"time"

	"github.com/Beka01247/kwaaka-table/internal/domain"
	"go.uber.org/zap"
)

type FetchFunc func(ctx context.Context, billID string) (*domain.BillRequest, error)

// Poller re-reads bill requests on a fixed interval while they are outstanding. Each
// watched request has its own cancellable task that ends on a terminal status.
type Poller struct {
	interval time.Duration
	fetch    FetchFunc
	logger   *zap.SugaredLogger

	ctx    context.Context
	cancel context.CancelFunc
	mu     sync.Mutex
	tasks  map[string]context.CancelFunc
	wg     sync.WaitGroup
}

func NewPoller(fetch FetchFunc, interval time.Duration, logger *zap.SugaredLogger) *Poller {
	ctx, cancel := context.WithCancel(context.Background())

	return &Poller{
		interval: interval,
		fetch:    fetch,
		logger:   logger,
		ctx:      ctx,
		cancel:   cancel,
		tasks:    make(map[string]context.CancelFunc),
	}
}

// Watch starts polling req unless it is terminal or already watched. onUpdate runs on the
// polling goroutine whenever the status changes.
func (p *Poller) Watch(req *domain.BillRequest, onUpdate func(*domain.BillRequest)) bool {
	if req.Status.Terminal() {
		return false
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.ctx.Err() != nil {
		return false
	}
	if _, ok := p.tasks[req.ID]; ok {
		return false
	}

	ctx, cancel := context.WithCancel(p.ctx)
	p.tasks[req.ID] = cancel

	p.wg.Add(1)
	go p.run(ctx, req.ID, req.Status, onUpdate)

	return true
}

func (p *Poller) run(ctx context.Context, id string, last domain.BillStatus, onUpdate func(*domain.BillRequest)) {
	defer p.wg.Done()
	defer p.forget(id)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		req, err := p.fetch(ctx, id)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			p.logger.Warnw("failed to poll bill request", "bill_id", id, "error", err)
			continue
		}

		if req.Status != last {
			last = req.Status
			onUpdate(req)
		}

		if req.Status.Terminal() {
			p.logger.Infow("bill request reached terminal status", "bill_id", id, "status", req.Status)
			return
		}
	}
}

func (p *Poller) forget(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if cancel, ok := p.tasks[id]; ok {
		cancel()
		delete(p.tasks, id)
	}
}

func (p *Poller) Stop(id string) {
	p.forget(id)
}

func (p *Poller) watching(id string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	_, ok := p.tasks[id]
	return ok
}

// Close cancels every task and waits for them to exit.
func (p *Poller) Close() {
	p.mu.Lock()
	p.cancel()
	p.mu.Unlock()

	p.wg.Wait()
}
