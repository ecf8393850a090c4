package service

import (
	"context"
	"testing"
	"time"

	"github.com/Beka01247/kwaaka-table/internal/domain"
	"github.com/Beka01247/kwaaka-table/internal/guest"
	"github.com/Beka01247/kwaaka-table/internal/ratelimiter"
	"github.com/Beka01247/kwaaka-table/internal/verification"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func otpFixture(t *testing.T) (*fixture, *fakeOTP, *VerificationService) {
	t.Helper()

	p := defaultPolicy()
	p.OTPRequired = true
	f := newFixture(t, p)

	client := &fakeOTP{code: "1234"}
	svc := NewVerificationService(client, f.sessions, ratelimiter.NewFixedWindowLimiter(3, time.Minute), zap.NewNop().Sugar())
	return f, client, svc
}

func gateState(gctx *guest.Context) verification.State {
	var s verification.State
	_ = gctx.Do(func(st *guest.State) error {
		s = st.Gate.State()
		return nil
	})
	return s
}

func TestVerificationUnlocksSubmission(t *testing.T) {
	ctx := context.Background()
	f, _, svc := otpFixture(t)
	gctx := f.join(t)

	_, err := f.orderSvc.AddItem(ctx, gctx, "burger")
	require.NoError(t, err)

	_, err = f.orderSvc.Submit(ctx, gctx)
	require.ErrorIs(t, err, domain.ErrVerificationRequired)
	assert.Len(t, f.orderSvc.Cart(gctx).Lines, 1)

	challenge, err := svc.RequestChallenge(ctx, gctx, "+77010000000")
	require.NoError(t, err)
	assert.Equal(t, "1234", challenge.DevCode)

	err = svc.Verify(ctx, gctx, challenge.ID, "0000")
	require.ErrorIs(t, err, domain.ErrCodeRejected)
	assert.Equal(t, verification.Unverified, gateState(gctx))

	require.NoError(t, svc.Verify(ctx, gctx, challenge.ID, "1234"))
	assert.Equal(t, verification.Verified, gateState(gctx))

	stored, err := f.sessions.GetByID(ctx, gctx.ID())
	require.NoError(t, err)
	assert.True(t, stored.IsVerified)
	assert.Equal(t, "+77010000000", stored.Phone)

	_, err = f.orderSvc.Submit(ctx, gctx)
	require.NoError(t, err)

	// verified is absorbing
	again, err := svc.RequestChallenge(ctx, gctx, "+77010000000")
	require.NoError(t, err)
	assert.Nil(t, again)
	assert.NoError(t, svc.Verify(ctx, gctx, "whatever", "0000"))
}

func TestVerifyRejectsUnknownChallenge(t *testing.T) {
	ctx := context.Background()
	f, _, svc := otpFixture(t)
	gctx := f.join(t)

	assert.ErrorIs(t, svc.Verify(ctx, gctx, "ch-1", "1234"), domain.ErrChallengeMismatch)

	first, err := svc.RequestChallenge(ctx, gctx, "+77010000000")
	require.NoError(t, err)
	second, err := svc.RequestChallenge(ctx, gctx, "+77010000000")
	require.NoError(t, err)

	assert.ErrorIs(t, svc.Verify(ctx, gctx, first.ID, "1234"), domain.ErrChallengeMismatch)
	assert.NoError(t, svc.Verify(ctx, gctx, second.ID, "1234"))
}

func TestVerificationCollaboratorDown(t *testing.T) {
	ctx := context.Background()
	f, client, svc := otpFixture(t)
	gctx := f.join(t)

	challenge, err := svc.RequestChallenge(ctx, gctx, "+77010000000")
	require.NoError(t, err)

	client.down = true

	_, err = svc.RequestChallenge(ctx, gctx, "+77010000000")
	assert.ErrorIs(t, err, domain.ErrUnavailable)

	err = svc.Verify(ctx, gctx, challenge.ID, "1234")
	assert.ErrorIs(t, err, domain.ErrUnavailable)
	assert.Equal(t, verification.Unverified, gateState(gctx))

	client.down = false
	assert.NoError(t, svc.Verify(ctx, gctx, challenge.ID, "1234"))
}

func TestChallengeRateLimit(t *testing.T) {
	ctx := context.Background()
	f, client, svc := otpFixture(t)
	gctx := f.join(t)

	for i := 0; i < 3; i++ {
		_, err := svc.RequestChallenge(ctx, gctx, "+77010000000")
		require.NoError(t, err)
	}

	_, err := svc.RequestChallenge(ctx, gctx, "+77010000000")
	assert.ErrorIs(t, err, domain.ErrRateLimited)
	assert.Equal(t, 3, client.issued)

	// limits are per session
	_, err = svc.RequestChallenge(ctx, f.join(t), "+77010000001")
	assert.NoError(t, err)
}

func TestVerifySupersededWhileChecking(t *testing.T) {
	ctx := context.Background()
	f, client, svc := otpFixture(t)
	gctx := f.join(t)

	first, err := svc.RequestChallenge(ctx, gctx, "+77010000000")
	require.NoError(t, err)

	var second string
	client.onVerify = func() {
		client.onVerify = nil
		ch, err := svc.RequestChallenge(ctx, gctx, "+77010000001")
		require.NoError(t, err)
		second = ch.ID
	}

	err = svc.Verify(ctx, gctx, first.ID, "1234")
	require.ErrorIs(t, err, domain.ErrChallengeMismatch)
	assert.Equal(t, verification.Unverified, gateState(gctx))

	stored, err := f.sessions.GetByID(ctx, gctx.ID())
	require.NoError(t, err)
	assert.False(t, stored.IsVerified, "session must not be stored as verified")

	require.NoError(t, svc.Verify(ctx, gctx, second, "1234"))
	stored, err = f.sessions.GetByID(ctx, gctx.ID())
	require.NoError(t, err)
	assert.True(t, stored.IsVerified)
	assert.Equal(t, "+77010000001", stored.Phone)
}
