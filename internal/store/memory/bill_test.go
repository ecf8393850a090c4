package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/Beka01247/kwaaka-table/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBillTransitionIsCompareAndSet(t *testing.T) {
	ctx := context.Background()
	r := NewBillRequestRepository()
	require.NoError(t, r.Create(ctx, &domain.BillRequest{ID: "bill-1", SessionID: "s1", Status: domain.BillCreated}))

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins []domain.BillStatus
	)
	for _, to := range []domain.BillStatus{domain.BillPaid, domain.BillCancelled, domain.BillPaid, domain.BillCancelled} {
		wg.Add(1)
		go func(to domain.BillStatus) {
			defer wg.Done()
			_, err := r.Transition(ctx, "bill-1", domain.BillCreated, to, time.Now())
			if err != nil {
				assert.ErrorIs(t, err, domain.ErrInvalidTransition)
				return
			}
			mu.Lock()
			wins = append(wins, to)
			mu.Unlock()
		}(to)
	}
	wg.Wait()

	require.Len(t, wins, 1)
	stored, err := r.GetByID(ctx, "bill-1")
	require.NoError(t, err)
	assert.Equal(t, wins[0], stored.Status)

	_, err = r.Transition(ctx, "missing", domain.BillCreated, domain.BillPaid, time.Now())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestBillOneOutstandingPerSession(t *testing.T) {
	ctx := context.Background()
	r := NewBillRequestRepository()

	require.NoError(t, r.Create(ctx, &domain.BillRequest{ID: "bill-1", SessionID: "s1", Status: domain.BillCreated}))
	assert.ErrorIs(t, r.Create(ctx, &domain.BillRequest{ID: "bill-2", SessionID: "s1", Status: domain.BillCreated}), domain.ErrBillOutstanding)
	require.NoError(t, r.Create(ctx, &domain.BillRequest{ID: "bill-3", SessionID: "s2", Status: domain.BillCreated}))

	out, err := r.FindOutstanding(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "bill-1", out.ID)

	_, err = r.Transition(ctx, "bill-1", domain.BillCreated, domain.BillCancelled, time.Now())
	require.NoError(t, err)

	_, err = r.FindOutstanding(ctx, "s1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.NoError(t, r.Create(ctx, &domain.BillRequest{ID: "bill-2", SessionID: "s1", Status: domain.BillCreated}))
}
