package metrics

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"
)

type EventType string

const (
	EventLineWritten EventType = "line_written"
	EventWriteFailed EventType = "write_failed"
)

type MetricEvent struct {
	Type      EventType
	Timestamp time.Time
	Level     string
	Sink      string
	Err       string
}

// Collector aggregates MetricEvents on its own goroutine. It implements the
// logger observer interface; sends never block, events that do not fit in
// the buffer are counted as dropped.
type Collector struct {
	eventCh chan MetricEvent
	metrics *Metrics
	dropped atomic.Int64
}

func NewCollector(bufferSize int) *Collector {
	return &Collector{
		eventCh: make(chan MetricEvent, bufferSize),
		metrics: NewMetrics(),
	}
}

func (c *Collector) LineWritten(level, sink string) {
	c.emit(MetricEvent{Type: EventLineWritten, Timestamp: time.Now(), Level: level, Sink: sink})
}

func (c *Collector) WriteFailed(sink string, err error) {
	c.emit(MetricEvent{Type: EventWriteFailed, Timestamp: time.Now(), Sink: sink, Err: err.Error()})
}

func (c *Collector) emit(event MetricEvent) {
	select {
	case c.eventCh <- event:
	default:
		c.dropped.Add(1)
	}
}

// Start processes events until ctx is cancelled. log may be the logger being
// observed; the collector only ever enqueues from it without blocking.
func (c *Collector) Start(ctx context.Context, log *slog.Logger) {
	go c.run(ctx, log)
}

func (c *Collector) run(ctx context.Context, log *slog.Logger) {
	log.Debug("Metrics collector started")
	defer log.Debug("Metrics collector stopped")

	for {
		select {
		case event := <-c.eventCh:
			c.processEvent(event)
		case <-ctx.Done():
			// Drain remaining events before shutdown
			c.drain()
			return
		}
	}
}

func (c *Collector) processEvent(event MetricEvent) {
	switch event.Type {
	case EventLineWritten:
		c.metrics.RecordLine(event.Level, event.Sink)

	case EventWriteFailed:
		c.metrics.RecordFailure(event.Sink, event.Err)
	}
}

func (c *Collector) drain() {
	for {
		select {
		case event := <-c.eventCh:
			c.processEvent(event)
		default:
			return
		}
	}
}

func (c *Collector) Snapshot(logger string) Snapshot {
	if n := c.dropped.Swap(0); n > 0 {
		c.metrics.RecordDropped(n)
	}
	return c.metrics.Snapshot(logger)
}
