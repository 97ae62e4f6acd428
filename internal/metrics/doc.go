// Package metrics counts the lines the application logger emits.
//
// The Collector is registered as the logger's observer. Every accepted or
// failed sink write becomes a MetricEvent sent on a buffered channel without
// blocking the logging call; a dedicated goroutine aggregates the events:
//   - lines per level
//   - lines written per sink
//   - write failures per sink, with the last error
//   - events dropped because the buffer was full
//
// Example usage:
//
//	collector := metrics.NewCollector(1024)
//	factory := logger.NewFactory(logger.WithObserver(collector))
//	log := factory.GetLogger(cfg)
//	collector.Start(ctx, log.Logger)
//
//	snapshot := collector.Snapshot(log.Name())
//
// Pending events are drained when the context is cancelled.
package metrics
