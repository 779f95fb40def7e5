package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/applause/dashboard/internal/dashboard"
	"github.com/applause/dashboard/internal/store"
)

type countingRefresher struct {
	insights atomic.Int32
	coins    atomic.Int32
	deadline atomic.Bool
}

func (r *countingRefresher) LoadInsights(ctx context.Context) (*store.QuantInsights, error) {
	r.insights.Add(1)
	_, ok := ctx.Deadline()
	r.deadline.Store(ok)
	return &store.QuantInsights{}, nil
}

func (r *countingRefresher) RefreshCurrent(context.Context) (*dashboard.CoinView, error) {
	r.coins.Add(1)
	return nil, dashboard.ErrNoSelection
}

func TestRunNow(t *testing.T) {
	r := &countingRefresher{}
	New(r, time.Second).RunNow(context.Background())

	assert.Equal(t, int32(1), r.insights.Load())
	assert.Equal(t, int32(1), r.coins.Load())
	assert.True(t, r.deadline.Load())
}

func TestRegisterRejectsBadSpec(t *testing.T) {
	s := New(&countingRefresher{}, time.Second)
	assert.Error(t, s.Register(context.Background(), "every day"))
	assert.Error(t, s.Register(context.Background(), "0 */5 * * *"), "five-field specs lack seconds")
}

func TestScheduledRun(t *testing.T) {
	r := &countingRefresher{}
	s := New(r, time.Second)
	require.NoError(t, s.Register(context.Background(), "@every 1s"))

	s.Start()
	defer s.Stop()

	assert.Eventually(t, func() bool { return r.insights.Load() > 0 }, 3*time.Second, 50*time.Millisecond)
}
