package repo

import (
	"context"
	"time"

	"github.com/Beka01247/kwaaka-table/internal/domain"
)

// PartyRepository stores parties. Implementations must reject a Create whose PIN is held
// by another OPEN, unexpired party of the same branch with domain.ErrPINTaken, and must
// treat membership as a set. AddMember fails with domain.ErrAlreadyInParty when the session
// is a member of another active party.
type PartyRepository interface {
	Create(ctx context.Context, party *domain.Party) error
	FindOpenByPIN(ctx context.Context, branchID, pin string, now time.Time) (*domain.Party, error)
	FindActiveBySession(ctx context.Context, sessionID string, now time.Time) (*domain.Party, error)
	AddMember(ctx context.Context, partyID, sessionID string, now time.Time) (*domain.Party, error)
	Close(ctx context.Context, partyID, sessionID string, now time.Time) error
}
