package metrics

import (
	"sync"
	"time"
)

// Metrics counts emitted lines per level and per sink.
type Metrics struct {
	mutex     sync.RWMutex
	levels    map[string]int64
	written   map[string]int64
	failed    map[string]int64
	lastError map[string]string
	dropped   int64
	startTime time.Time
}

type Snapshot struct {
	Logger     string                 `json:"logger"`
	TotalLines int64                  `json:"total_lines"`
	Dropped    int64                  `json:"dropped_events"`
	Uptime     time.Duration          `json:"uptime"`
	Levels     map[string]int64       `json:"levels"`
	Sinks      map[string]SinkMetrics `json:"sinks"`
}

type SinkMetrics struct {
	Written   int64  `json:"written"`
	Failed    int64  `json:"failed"`
	LastError string `json:"last_error,omitempty"`
}

func NewMetrics() *Metrics {
	return &Metrics{
		levels:    make(map[string]int64),
		written:   make(map[string]int64),
		failed:    make(map[string]int64),
		lastError: make(map[string]string),
		startTime: time.Now(),
	}
}

func (m *Metrics) RecordLine(level, sink string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.levels[level]++
	m.written[sink]++
}

func (m *Metrics) RecordFailure(sink, reason string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.failed[sink]++
	m.lastError[sink] = reason
}

func (m *Metrics) RecordDropped(n int64) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.dropped += n
}

func (m *Metrics) Snapshot(logger string) Snapshot {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	snap := Snapshot{
		Logger:  logger,
		Dropped: m.dropped,
		Uptime:  time.Since(m.startTime),
		Levels:  make(map[string]int64, len(m.levels)),
		Sinks:   make(map[string]SinkMetrics),
	}

	for level, n := range m.levels {
		snap.Levels[level] = n
		snap.TotalLines += n
	}

	for sink, n := range m.written {
		sm := snap.Sinks[sink]
		sm.Written = n
		snap.Sinks[sink] = sm
	}
	for sink, n := range m.failed {
		sm := snap.Sinks[sink]
		sm.Failed = n
		sm.LastError = m.lastError[sink]
		snap.Sinks[sink] = sm
	}

	return snap
}
