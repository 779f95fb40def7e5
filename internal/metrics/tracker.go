// Package metrics tracks load and chart-lifecycle counters for the dashboard.
package metrics

import (
	"sync"
	"time"
)

// LoadKind names the document a load fetched.
type LoadKind string

const (
	LoadCoins    LoadKind = "coins"
	LoadHistory  LoadKind = "history"
	LoadInsights LoadKind = "insights"
)

// LoadSample is one completed fetch.
type LoadSample struct {
	Kind     LoadKind
	Target   string
	Duration time.Duration
	Err      string
	At       time.Time
}

// Snapshot is a point-in-time view of the counters.
type Snapshot struct {
	LoadsByKind     map[LoadKind]int64
	FailuresByKind  map[LoadKind]int64
	StaleResponses  int64
	ChartsCreated   int64
	ChartsDestroyed int64
	LiveCharts      int
	DetailOpens     int64
	DetailOpen      bool
	AvgLoadLatency  time.Duration
	RecentLoads     []LoadSample // newest first
	LastError       string
	Uptime          time.Duration
	Source          string
}

// maxRecentLoads bounds the load history kept for display.
const maxRecentLoads = 20

// Tracker provides thread-safe metrics tracking.
type Tracker struct {
	mu              sync.RWMutex
	loadsByKind     map[LoadKind]int64
	failuresByKind  map[LoadKind]int64
	staleResponses  int64
	chartsCreated   int64
	chartsDestroyed int64
	liveCharts      int
	detailOpens     int64
	detailOpen      bool
	totalLatency    time.Duration
	latencyCount    int64
	recent          []LoadSample
	lastError       string
	startTime       time.Time
	source          string
}

// NewTracker creates a new Tracker.
func NewTracker() *Tracker {
	return &Tracker{
		loadsByKind:    make(map[LoadKind]int64),
		failuresByKind: make(map[LoadKind]int64),
		recent:         make([]LoadSample, 0, maxRecentLoads),
		startTime:      time.Now(),
	}
}

// SetSource records the data root description.
func (m *Tracker) SetSource(source string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.source = source
}

// RecordLoad records a completed fetch. A non-nil err counts as a failure.
func (m *Tracker) RecordLoad(kind LoadKind, target string, d time.Duration, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sample := LoadSample{Kind: kind, Target: target, Duration: d, At: time.Now()}
	m.loadsByKind[kind]++
	if err != nil {
		sample.Err = err.Error()
		m.failuresByKind[kind]++
		m.lastError = sample.Err
	} else {
		m.totalLatency += d
		m.latencyCount++
	}

	m.recent = append(m.recent, sample)
	if len(m.recent) > maxRecentLoads {
		m.recent = m.recent[len(m.recent)-maxRecentLoads:]
	}
}

// IncrementStale counts a response discarded because a newer request superseded it.
func (m *Tracker) IncrementStale() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.staleResponses++
}

// ChartsReplaced records destroyed old instances and created new ones.
func (m *Tracker) ChartsReplaced(destroyed, created int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.chartsDestroyed += int64(destroyed)
	m.chartsCreated += int64(created)
	m.liveCharts = m.liveCharts - destroyed + created
}

// SetDetailOpen records a detail view transition.
func (m *Tracker) SetDetailOpen(open bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if open {
		m.detailOpens++
	}
	m.detailOpen = open
}

// Snapshot returns a point-in-time snapshot of metrics.
func (m *Tracker) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	loads := make(map[LoadKind]int64, len(m.loadsByKind))
	for k, v := range m.loadsByKind {
		loads[k] = v
	}
	failures := make(map[LoadKind]int64, len(m.failuresByKind))
	for k, v := range m.failuresByKind {
		failures[k] = v
	}

	recent := make([]LoadSample, len(m.recent))
	for i, s := range m.recent {
		recent[len(m.recent)-1-i] = s
	}

	var avg time.Duration
	if m.latencyCount > 0 {
		avg = m.totalLatency / time.Duration(m.latencyCount)
	}

	return Snapshot{
		LoadsByKind:     loads,
		FailuresByKind:  failures,
		StaleResponses:  m.staleResponses,
		ChartsCreated:   m.chartsCreated,
		ChartsDestroyed: m.chartsDestroyed,
		LiveCharts:      m.liveCharts,
		DetailOpens:     m.detailOpens,
		DetailOpen:      m.detailOpen,
		AvgLoadLatency:  avg,
		RecentLoads:     recent,
		LastError:       m.lastError,
		Uptime:          time.Since(m.startTime),
		Source:          m.source,
	}
}
