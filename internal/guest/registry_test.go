package guest

import (
	"context"
	"testing"
	"time"

	"github.com/Beka01247/kwaaka-table/internal/domain"
	"github.com/Beka01247/kwaaka-table/internal/store/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestRegistryLoadsFromStore(t *testing.T) {
	ctx := context.Background()
	sessions := memory.NewSessionRepository()
	policies := memory.NewPolicyRepository(domain.BranchPolicy{BranchID: "b1", CashEnabled: true})

	require.NoError(t, sessions.Create(ctx, session("s1")))

	r := NewRegistry(sessions, policies, zap.NewNop().Sugar())

	gctx, err := r.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "b1", gctx.BranchID())
	assert.True(t, gctx.Policy().CashEnabled)

	again, err := r.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Same(t, gctx, again)
	assert.Equal(t, 1, r.size())

	_, err = r.Get(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRegistryDropsExpired(t *testing.T) {
	ctx := context.Background()
	sessions := memory.NewSessionRepository()
	policies := memory.NewPolicyRepository(domain.BranchPolicy{BranchID: "b1"})

	r := NewRegistry(sessions, policies, zap.NewNop().Sugar())
	r.Add(session("s1"), &domain.BranchPolicy{BranchID: "b1"})
	r.Add(session("s2"), &domain.BranchPolicy{BranchID: "b1"})

	r.now = func() time.Time { return time.Now().Add(2 * time.Hour) }

	_, err := r.Get(ctx, "s1")
	assert.ErrorIs(t, err, domain.ErrSessionExpired)
	assert.Equal(t, 1, r.size())

	assert.Equal(t, 1, r.Sweep())
	assert.Equal(t, 0, r.size())
}
