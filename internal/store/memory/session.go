package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/Beka01247/kwaaka-table/internal/domain"
)

type SessionRepository struct {
	mu       sync.RWMutex
	sessions map[string]domain.GuestSession
}

func NewSessionRepository() *SessionRepository {
	return &SessionRepository{
		sessions: make(map[string]domain.GuestSession),
	}
}

func (r *SessionRepository) Create(ctx context.Context, session *domain.GuestSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[session.ID]; ok {
		return fmt.Errorf("guest session %s already exists", session.ID)
	}
	r.sessions[session.ID] = *session
	return nil
}

func (r *SessionRepository) GetByID(ctx context.Context, id string) (*domain.GuestSession, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sessions[id]
	if !ok {
		return nil, fmt.Errorf("guest session: %w", domain.ErrNotFound)
	}
	return &s, nil
}

func (r *SessionRepository) MarkVerified(ctx context.Context, id string, phone string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok {
		return fmt.Errorf("guest session: %w", domain.ErrNotFound)
	}
	s.IsVerified = true
	s.Phone = phone
	r.sessions[id] = s
	return nil
}
