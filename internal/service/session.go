package service

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/Beka01247/kwaaka-table/internal/domain"
	"github.com/Beka01247/kwaaka-table/internal/guest"
	"github.com/Beka01247/kwaaka-table/internal/repo"
	"github.com/Beka01247/kwaaka-table/internal/tablelink"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const DefaultSessionTTL = 12 * time.Hour

type SessionService struct {
	sessions repo.SessionRepository
	policies repo.PolicyRepository
	links    *tablelink.Signer
	registry *guest.Registry
	ttl      time.Duration
	logger   *zap.SugaredLogger
}

func NewSessionService(
	sessions repo.SessionRepository,
	policies repo.PolicyRepository,
	links *tablelink.Signer,
	registry *guest.Registry,
	ttl time.Duration,
	logger *zap.SugaredLogger,
) *SessionService {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &SessionService{
		sessions: sessions,
		policies: policies,
		links:    links,
		registry: registry,
		ttl:      ttl,
		logger:   logger,
	}
}

// Activate opens a guest session for the table encoded in token. The returned session
// carries the secret the guest authenticates with; it is not shown again.
func (s *SessionService) Activate(ctx context.Context, token, locale string) (*domain.GuestSession, error) {
	table, err := s.links.Parse(token)
	if err != nil {
		return nil, err
	}

	policy, err := s.policies.Get(ctx, table.BranchID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("%w: unknown branch", domain.ErrInvalidTableLink)
		}
		return nil, fmt.Errorf("failed to get branch policy: %w", err)
	}

	secret, err := newSecret()
	if err != nil {
		return nil, err
	}

	now := time.Now()
	session := &domain.GuestSession{
		ID:          uuid.NewString(),
		TableID:     table.TableID,
		BranchID:    table.BranchID,
		Locale:      locale,
		OTPRequired: policy.OTPRequired,
		IsVerified:  !policy.OTPRequired,
		Secret:      secret,
		CreatedAt:   now,
		ExpiresAt:   now.Add(s.ttl),
	}

	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("%w: failed to create guest session: %v", domain.ErrUnavailable, err)
	}

	s.registry.Add(session, policy)

	s.logger.Infow("guest session activated",
		"session_id", session.ID,
		"branch_id", session.BranchID,
		"table_id", session.TableID,
		"otp_required", session.OTPRequired,
	)

	return session, nil
}

// Authenticate resolves the live context of sessionID when secret matches.
func (s *SessionService) Authenticate(ctx context.Context, sessionID, secret string) (*guest.Context, error) {
	if sessionID == "" || secret == "" {
		return nil, domain.ErrUnauthorized
	}

	gctx, err := s.registry.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrUnauthorized
		}
		return nil, err
	}

	stored := gctx.Session().Secret
	if subtle.ConstantTimeCompare([]byte(stored), []byte(secret)) != 1 {
		return nil, domain.ErrUnauthorized
	}

	return gctx, nil
}

func newSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate session secret: %w", err)
	}
	return hex.EncodeToString(b), nil
}
