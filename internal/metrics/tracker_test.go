package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrackerLoads(t *testing.T) {
	m := NewTracker()
	m.RecordLoad(LoadHistory, "ABC", 100*time.Millisecond, nil)
	m.RecordLoad(LoadHistory, "XYZ", 300*time.Millisecond, nil)
	m.RecordLoad(LoadInsights, "", time.Second, errors.New("status 500"))

	snap := m.Snapshot()
	assert.Equal(t, int64(2), snap.LoadsByKind[LoadHistory])
	assert.Equal(t, int64(1), snap.FailuresByKind[LoadInsights])
	assert.Equal(t, 200*time.Millisecond, snap.AvgLoadLatency)
	assert.Equal(t, "status 500", snap.LastError)
	require.Len(t, snap.RecentLoads, 3)
	assert.Equal(t, LoadInsights, snap.RecentLoads[0].Kind, "newest first")
}

func TestTrackerRecentLoadsBounded(t *testing.T) {
	m := NewTracker()
	for i := 0; i < maxRecentLoads+5; i++ {
		m.RecordLoad(LoadCoins, "", time.Millisecond, nil)
	}
	assert.Len(t, m.Snapshot().RecentLoads, maxRecentLoads)
}

func TestTrackerCharts(t *testing.T) {
	m := NewTracker()
	m.ChartsReplaced(0, 4)
	m.ChartsReplaced(4, 2)
	m.IncrementStale()
	m.SetDetailOpen(true)
	m.SetDetailOpen(false)

	snap := m.Snapshot()
	assert.Equal(t, 2, snap.LiveCharts)
	assert.Equal(t, int64(6), snap.ChartsCreated)
	assert.Equal(t, int64(4), snap.ChartsDestroyed)
	assert.Equal(t, int64(1), snap.StaleResponses)
	assert.Equal(t, int64(1), snap.DetailOpens)
	assert.False(t, snap.DetailOpen)
}

func TestSnapshotIsACopy(t *testing.T) {
	m := NewTracker()
	m.RecordLoad(LoadCoins, "", time.Millisecond, nil)
	snap := m.Snapshot()
	snap.LoadsByKind[LoadCoins] = 99
	assert.Equal(t, int64(1), m.Snapshot().LoadsByKind[LoadCoins])
}
