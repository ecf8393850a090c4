package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/Beka01247/kwaaka-table/internal/domain"
	"github.com/Beka01247/kwaaka-table/internal/guest"
	"github.com/Beka01247/kwaaka-table/internal/metrics"
	"github.com/Beka01247/kwaaka-table/internal/ratelimiter"
	"github.com/Beka01247/kwaaka-table/internal/repo"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const pinAttempts = 10

type PartyService struct {
	parties repo.PartyRepository
	limiter ratelimiter.Limiter
	logger  *zap.SugaredLogger

	now func() time.Time
	pin func() (string, error)
}

func NewPartyService(parties repo.PartyRepository, limiter ratelimiter.Limiter, logger *zap.SugaredLogger) *PartyService {
	return &PartyService{
		parties: parties,
		limiter: limiter,
		logger:  logger,
		now:     time.Now,
		pin:     randomPIN,
	}
}

// Create opens a party with the calling session as its only member.
func (s *PartyService) Create(ctx context.Context, gctx *guest.Context) (*domain.Party, error) {
	policy := gctx.Policy()
	if !policy.PartyEnabled {
		metrics.PartyEventsTotal.WithLabelValues("create", "disabled").Inc()
		return nil, domain.ErrPartyDisabled
	}

	now := s.now()
	if _, err := s.active(ctx, gctx.ID(), now); err == nil {
		metrics.PartyEventsTotal.WithLabelValues("create", "already_in_party").Inc()
		return nil, domain.ErrAlreadyInParty
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	for attempt := 0; attempt < pinAttempts; attempt++ {
		pin, err := s.pin()
		if err != nil {
			return nil, err
		}

		party := &domain.Party{
			ID:        uuid.NewString(),
			BranchID:  gctx.BranchID(),
			TableID:   gctx.TableID(),
			PIN:       pin,
			Status:    domain.PartyOpen,
			CreatedBy: gctx.ID(),
			Members:   []string{gctx.ID()},
			ExpiresAt: now.Add(policy.EffectivePartyTTL()),
			CreatedAt: now,
		}

		err = s.parties.Create(ctx, party)
		if errors.Is(err, domain.ErrPINTaken) {
			s.logger.Debugw("party PIN collision", "branch_id", party.BranchID, "attempt", attempt+1)
			continue
		}
		if err != nil {
			metrics.PartyEventsTotal.WithLabelValues("create", "error").Inc()
			return nil, fmt.Errorf("%w: failed to create party: %v", domain.ErrUnavailable, err)
		}

		metrics.PartyEventsTotal.WithLabelValues("create", "ok").Inc()
		s.logger.Infow("party created", "party_id", party.ID, "branch_id", party.BranchID, "session_id", gctx.ID())
		return party, nil
	}

	metrics.PartyEventsTotal.WithLabelValues("create", "pin_exhausted").Inc()
	return nil, fmt.Errorf("%w: no free PIN after %d attempts", domain.ErrPINTaken, pinAttempts)
}

// Join adds the session to the open party holding pin. Joining a party the session already
// belongs to returns that party unchanged.
func (s *PartyService) Join(ctx context.Context, gctx *guest.Context, pin string) (*domain.Party, error) {
	if !gctx.Policy().PartyEnabled {
		metrics.PartyEventsTotal.WithLabelValues("join", "disabled").Inc()
		return nil, domain.ErrPartyDisabled
	}

	if s.limiter != nil {
		if ok, retryAfter := s.limiter.Allow("join:" + gctx.ID()); !ok {
			metrics.PartyEventsTotal.WithLabelValues("join", "rate_limited").Inc()
			return nil, fmt.Errorf("%w: retry in %s", domain.ErrRateLimited, retryAfter.Round(time.Second))
		}
	}

	now := s.now()
	party, err := s.parties.FindOpenByPIN(ctx, gctx.BranchID(), pin, now)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			metrics.PartyEventsTotal.WithLabelValues("join", "pin_not_found").Inc()
			return nil, domain.ErrPINNotFound
		}
		return nil, fmt.Errorf("%w: failed to find party: %v", domain.ErrUnavailable, err)
	}

	if party.TableID != gctx.TableID() {
		metrics.PartyEventsTotal.WithLabelValues("join", "other_table").Inc()
		s.logger.Warnw("party join from another table", "party_id", party.ID, "session_id", gctx.ID(), "table_id", gctx.TableID())
		return nil, domain.ErrPINNotFound
	}

	if party.HasMember(gctx.ID()) {
		return party, nil
	}

	current, err := s.active(ctx, gctx.ID(), now)
	if err == nil && current.ID != party.ID {
		metrics.PartyEventsTotal.WithLabelValues("join", "already_in_party").Inc()
		return nil, domain.ErrAlreadyInParty
	}
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	party, err = s.parties.AddMember(ctx, party.ID, gctx.ID(), now)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			// closed or expired between lookup and add
			metrics.PartyEventsTotal.WithLabelValues("join", "pin_not_found").Inc()
			return nil, domain.ErrPINNotFound
		}
		if errors.Is(err, domain.ErrAlreadyInParty) {
			metrics.PartyEventsTotal.WithLabelValues("join", "already_in_party").Inc()
			return nil, err
		}
		return nil, fmt.Errorf("%w: failed to join party: %v", domain.ErrUnavailable, err)
	}

	metrics.PartyEventsTotal.WithLabelValues("join", "ok").Inc()
	s.logger.Infow("party joined", "party_id", party.ID, "session_id", gctx.ID(), "members", len(party.Members))

	return party, nil
}

// Close ends the session's active party for every member.
func (s *PartyService) Close(ctx context.Context, gctx *guest.Context) error {
	now := s.now()

	party, err := s.active(ctx, gctx.ID(), now)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			metrics.PartyEventsTotal.WithLabelValues("close", "not_member").Inc()
			return domain.ErrNotPartyMember
		}
		return err
	}

	if err := s.parties.Close(ctx, party.ID, gctx.ID(), now); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			metrics.PartyEventsTotal.WithLabelValues("close", "not_member").Inc()
			return domain.ErrNotPartyMember
		}
		return fmt.Errorf("%w: failed to close party: %v", domain.ErrUnavailable, err)
	}

	metrics.PartyEventsTotal.WithLabelValues("close", "ok").Inc()
	s.logger.Infow("party closed", "party_id", party.ID, "session_id", gctx.ID())

	return nil
}

// Active returns the open, unexpired party sessionID belongs to, or an error wrapping
// domain.ErrNotFound.
func (s *PartyService) Active(ctx context.Context, sessionID string) (*domain.Party, error) {
	return s.active(ctx, sessionID, s.now())
}

func (s *PartyService) active(ctx context.Context, sessionID string, now time.Time) (*domain.Party, error) {
	party, err := s.parties.FindActiveBySession(ctx, sessionID, now)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: failed to find party: %v", domain.ErrUnavailable, err)
	}
	return party, nil
}

// Scope returns the sessions whose items the guest can see when billing: the members of
// its active party, or the session alone. The party is nil in the latter case.
func (s *PartyService) Scope(ctx context.Context, gctx *guest.Context) ([]string, *domain.Party, error) {
	party, err := s.Active(ctx, gctx.ID())
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return []string{gctx.ID()}, nil, nil
		}
		return nil, nil, err
	}
	return append([]string(nil), party.Members...), party, nil
}

func randomPIN() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(10000))
	if err != nil {
		return "", fmt.Errorf("failed to generate party PIN: %w", err)
	}
	return fmt.Sprintf("%04d", n.Int64()), nil
}
