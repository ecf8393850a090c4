package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Beka01247/kwaaka-table/internal/domain"
)

type PartyRepository struct {
	mu      sync.Mutex
	parties map[string]*domain.Party
}

func NewPartyRepository() *PartyRepository {
	return &PartyRepository{
		parties: make(map[string]*domain.Party),
	}
}

func clone(p *domain.Party) *domain.Party {
	c := *p
	c.Members = append([]string(nil), p.Members...)
	return &c
}

func (r *PartyRepository) Create(ctx context.Context, party *domain.Party) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, p := range r.parties {
		if p.BranchID == party.BranchID && p.PIN == party.PIN && p.Active(party.CreatedAt) {
			return domain.ErrPINTaken
		}
	}
	r.parties[party.ID] = clone(party)
	return nil
}

func (r *PartyRepository) FindOpenByPIN(ctx context.Context, branchID, pin string, now time.Time) (*domain.Party, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, p := range r.parties {
		if p.BranchID == branchID && p.PIN == pin && p.Active(now) {
			return clone(p), nil
		}
	}
	return nil, fmt.Errorf("party: %w", domain.ErrNotFound)
}

func (r *PartyRepository) FindActiveBySession(ctx context.Context, sessionID string, now time.Time) (*domain.Party, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, p := range r.parties {
		if p.Active(now) && p.HasMember(sessionID) {
			return clone(p), nil
		}
	}
	return nil, fmt.Errorf("party: %w", domain.ErrNotFound)
}

func (r *PartyRepository) AddMember(ctx context.Context, partyID, sessionID string, now time.Time) (*domain.Party, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.parties[partyID]
	if !ok || !p.Active(now) {
		return nil, fmt.Errorf("party: %w", domain.ErrNotFound)
	}
	if p.HasMember(sessionID) {
		return clone(p), nil
	}
	for _, other := range r.parties {
		if other.ID != partyID && other.Active(now) && other.HasMember(sessionID) {
			return nil, domain.ErrAlreadyInParty
		}
	}
	p.Members = append(p.Members, sessionID)
	return clone(p), nil
}

func (r *PartyRepository) Close(ctx context.Context, partyID, sessionID string, now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.parties[partyID]
	if !ok || !p.Active(now) || !p.HasMember(sessionID) {
		return fmt.Errorf("party: %w", domain.ErrNotFound)
	}
	p.Status = domain.PartyClosed
	p.ClosedAt = &now
	return nil
}
