package service

import (
	"context"
	"fmt"
	"time"

	"github.com/Beka01247/kwaaka-table/internal/domain"
	"github.com/Beka01247/kwaaka-table/internal/guest"
	"github.com/Beka01247/kwaaka-table/internal/metrics"
	"github.com/Beka01247/kwaaka-table/internal/otp"
	"github.com/Beka01247/kwaaka-table/internal/ratelimiter"
	"github.com/Beka01247/kwaaka-table/internal/repo"
	"github.com/Beka01247/kwaaka-table/internal/verification"
	"go.uber.org/zap"
)

// OTPClient is the phone verification collaborator.
type OTPClient interface {
	IssueChallenge(ctx context.Context, phone string) (*otp.Challenge, error)
	Verify(ctx context.Context, challengeID, code string) (bool, error)
}

type VerificationService struct {
	otp      OTPClient
	sessions repo.SessionRepository
	limiter  ratelimiter.Limiter
	logger   *zap.SugaredLogger
}

func NewVerificationService(
	otp OTPClient,
	sessions repo.SessionRepository,
	limiter ratelimiter.Limiter,
	logger *zap.SugaredLogger,
) *VerificationService {
	return &VerificationService{
		otp:      otp,
		sessions: sessions,
		limiter:  limiter,
		logger:   logger,
	}
}

// RequestChallenge asks the collaborator to send a code to phone and records the challenge
// on the session gate. An already verified session gets no challenge.
func (s *VerificationService) RequestChallenge(ctx context.Context, gctx *guest.Context, phone string) (*otp.Challenge, error) {
	var verified bool
	_ = gctx.Do(func(st *guest.State) error {
		verified = st.Gate.State() == verification.Verified
		return nil
	})
	if verified {
		return nil, nil
	}

	if s.limiter != nil {
		if ok, retryAfter := s.limiter.Allow("otp:" + gctx.ID()); !ok {
			metrics.VerificationsTotal.WithLabelValues("challenge", "rate_limited").Inc()
			return nil, fmt.Errorf("%w: retry in %s", domain.ErrRateLimited, retryAfter.Round(time.Second))
		}
	}

	challenge, err := s.otp.IssueChallenge(ctx, phone)
	if err != nil {
		metrics.VerificationsTotal.WithLabelValues("challenge", "error").Inc()
		s.logger.Warnw("failed to issue otp challenge", "session_id", gctx.ID(), "error", err)
		return nil, err
	}

	_ = gctx.Do(func(st *guest.State) error {
		st.Gate.Begin(challenge.ID)
		st.PendingPhone = phone
		return nil
	})
	metrics.VerificationsTotal.WithLabelValues("challenge", "ok").Inc()

	s.logger.Infow("otp challenge issued", "session_id", gctx.ID(), "challenge_id", challenge.ID)

	return challenge, nil
}

// Verify checks code against challengeID. On success the session is persisted as verified
// together with the phone the challenge was sent to.
func (s *VerificationService) Verify(ctx context.Context, gctx *guest.Context, challengeID, code string) error {
	var (
		done    bool
		pending string
	)
	_ = gctx.Do(func(st *guest.State) error {
		done = st.Gate.State() == verification.Verified
		pending = st.Gate.Pending()
		return nil
	})
	if done {
		return nil
	}
	if challengeID == "" || challengeID != pending {
		metrics.VerificationsTotal.WithLabelValues("verify", "mismatch").Inc()
		return domain.ErrChallengeMismatch
	}

	ok, err := s.otp.Verify(ctx, challengeID, code)
	if err != nil {
		metrics.VerificationsTotal.WithLabelValues("verify", "error").Inc()
		s.logger.Warnw("failed to verify otp code", "session_id", gctx.ID(), "error", err)
		return err
	}

	err = gctx.Do(func(st *guest.State) error {
		if !ok {
			return st.Gate.Complete(challengeID, false)
		}
		if st.Gate.State() == verification.Verified {
			return nil
		}
		// a newer challenge may have been issued while the code was checked
		if st.Gate.Pending() != challengeID {
			return domain.ErrChallengeMismatch
		}

		phone := st.PendingPhone
		if err := s.sessions.MarkVerified(ctx, gctx.ID(), phone); err != nil {
			return fmt.Errorf("%w: failed to mark session verified: %v", domain.ErrUnavailable, err)
		}
		if err := st.Gate.Complete(challengeID, true); err != nil {
			return err
		}
		st.Session.IsVerified = true
		st.Session.Phone = phone
		st.PendingPhone = ""
		return nil
	})
	if err != nil {
		metrics.VerificationsTotal.WithLabelValues("verify", "rejected").Inc()
		return err
	}

	metrics.VerificationsTotal.WithLabelValues("verify", "ok").Inc()
	s.logger.Infow("guest session verified", "session_id", gctx.ID())

	return nil
}
