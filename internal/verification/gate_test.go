package verification

import (
	"testing"

	"github.com/Beka01247/kwaaka-table/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewGate(t *testing.T) {
	assert.Equal(t, Verified, NewGate(false, false).State())
	assert.Equal(t, Verified, NewGate(true, true).State())
	assert.Equal(t, Unverified, NewGate(true, false).State())
}

func TestGateBlocksUntilVerified(t *testing.T) {
	g := NewGate(true, false)
	require.ErrorIs(t, g.Check(), domain.ErrVerificationRequired)

	g.Begin("ch-1")
	require.ErrorIs(t, g.Complete("ch-1", false), domain.ErrCodeRejected)
	require.ErrorIs(t, g.Check(), domain.ErrVerificationRequired)

	require.NoError(t, g.Complete("ch-1", true))
	assert.NoError(t, g.Check())
	assert.Equal(t, Verified, g.State())
}

func TestGateRejectsForeignChallenge(t *testing.T) {
	g := NewGate(true, false)

	assert.ErrorIs(t, g.Complete("ch-1", true), domain.ErrChallengeMismatch)

	g.Begin("ch-1")
	g.Begin("ch-2")
	assert.ErrorIs(t, g.Complete("ch-1", true), domain.ErrChallengeMismatch)
	assert.NoError(t, g.Complete("ch-2", true))
}

func TestVerifiedIsAbsorbing(t *testing.T) {
	g := NewGate(false, false)

	g.Begin("ch-1")
	assert.Empty(t, g.Pending())
	assert.NoError(t, g.Complete("other", false))
	assert.Equal(t, Verified, g.State())
}
