// Package logger configures the application-wide "app_tracer" logger.
//
// A Factory owns the logger for the lifetime of the process. The first call
// to GetLogger creates it with a console sink; every later call re-applies
// the severity threshold to the logger and all of its sinks and attaches a
// file sink only when none targets the resolved path yet, so repeated
// configuration never duplicates output.
//
// Every sink writes the same fixed line format:
//
//	2006-01-02 15:04:05 [LEVEL] [package:function] - message key=value
//
// Usage:
//
//	factory := logger.NewFactory()
//	log := factory.GetLogger(logger.Config{Level: "DEBUG", ToFile: true, Dir: "./logs"})
//	defer log.Close()
//
//	log.Info("service started", slog.Int("port", 8080))
//	log.Critical("cannot continue")
//
// Configuration failures never propagate: an unknown level falls back to
// INFO with a notice printed on stdout, and a directory or file that cannot
// be created leaves the logger console-only with a single warning line.
package logger
