package guest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Beka01247/kwaaka-table/internal/domain"
	"github.com/Beka01247/kwaaka-table/internal/metrics"
	"github.com/Beka01247/kwaaka-table/internal/repo"
	"go.uber.org/zap"
)

// Registry owns the live guest contexts of this process. Contexts missing from memory are
// rebuilt from the session and policy stores.
type Registry struct {
	sessions repo.SessionRepository
	policies repo.PolicyRepository
	logger   *zap.SugaredLogger

	mu   sync.Mutex
	live map[string]*Context
	now  func() time.Time
}

func NewRegistry(sessions repo.SessionRepository, policies repo.PolicyRepository, logger *zap.SugaredLogger) *Registry {
	return &Registry{
		sessions: sessions,
		policies: policies,
		logger:   logger,
		live:     make(map[string]*Context),
		now:      time.Now,
	}
}

// Add registers a freshly activated session.
func (r *Registry) Add(session *domain.GuestSession, policy *domain.BranchPolicy) *Context {
	gctx := New(session, policy)

	r.mu.Lock()
	defer r.mu.Unlock()

	r.live[gctx.ID()] = gctx
	metrics.ActiveSessions.Set(float64(len(r.live)))
	return gctx
}

// Get returns the live context for sessionID, loading it when needed. Expired sessions are
// dropped and reported as domain.ErrSessionExpired.
func (r *Registry) Get(ctx context.Context, sessionID string) (*Context, error) {
	now := r.now()

	r.mu.Lock()
	gctx, ok := r.live[sessionID]
	r.mu.Unlock()

	if ok {
		if gctx.Expired(now) {
			r.Drop(sessionID)
			return nil, domain.ErrSessionExpired
		}
		return gctx, nil
	}

	session, err := r.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load guest session: %w", err)
	}
	if session.Expired(now) {
		return nil, domain.ErrSessionExpired
	}

	policy, err := r.policies.Get(ctx, session.BranchID)
	if err != nil {
		return nil, fmt.Errorf("failed to load branch policy: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// another request may have loaded it meanwhile
	if existing, ok := r.live[sessionID]; ok {
		return existing, nil
	}
	gctx = New(session, policy)
	r.live[sessionID] = gctx
	metrics.ActiveSessions.Set(float64(len(r.live)))

	r.logger.Debugw("guest session loaded", "session_id", sessionID, "branch_id", session.BranchID)
	return gctx, nil
}

func (r *Registry) Drop(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.live, sessionID)
	metrics.ActiveSessions.Set(float64(len(r.live)))
}

// Sweep drops every expired context and returns how many were removed.
func (r *Registry) Sweep() int {
	now := r.now()

	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for id, gctx := range r.live {
		if gctx.Expired(now) {
			delete(r.live, id)
			removed++
		}
	}
	metrics.ActiveSessions.Set(float64(len(r.live)))
	return removed
}

func (r *Registry) size() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.live)
}

// Run sweeps expired contexts every interval until ctx is done.
func (r *Registry) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := r.Sweep(); n > 0 {
				r.logger.Infow("expired guest sessions dropped", "count", n)
			}
		}
	}
}
