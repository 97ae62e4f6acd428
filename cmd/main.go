package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/angeloszaimis/apptracer/config"
	"github.com/angeloszaimis/apptracer/internal/httpserver"
	"github.com/angeloszaimis/apptracer/internal/metrics"
	"github.com/angeloszaimis/apptracer/pkg/logger"
)

const metricsBuffer = 1024

// app is the process-scoped state shared with the admin handlers.
type app struct {
	factory   *logger.Factory
	log       *logger.Logger
	collector *metrics.Collector
}

func newApp(cfg *config.Config, opts ...logger.Option) *app {
	collector := metrics.NewCollector(metricsBuffer)
	factory := logger.NewFactory(append([]logger.Option{logger.WithObserver(collector)}, opts...)...)
	log := factory.GetLogger(cfg.LoggerConfig())

	log.Info(fmt.Sprintf("Logger configured. Log level: %s", logger.LevelName(log.Level())))

	return &app{
		factory:   factory,
		log:       log,
		collector: collector,
	}
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stdout, "Using defaults for part of the logging configuration: %v\n", err)
	}
	if cfg == nil {
		cfg = config.Default()
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	a := newApp(cfg)
	defer a.log.Close()

	a.collector.Start(ctx, a.log.Logger)

	a.demo()

	if cfg.AdminAddr == "" {
		return
	}

	srv, err := httpserver.New(cfg.AdminAddr, setupRouter(a), a.log.Logger)
	if err != nil {
		a.log.Error("Failed to create admin server", slog.Any("err", err))
		return
	}

	srvErrCh := make(chan error, 1)

	go func() {
		srvErrCh <- srv.Start()
	}()

	select {
	case <-ctx.Done():
		a.log.Info("Shutting down gracefully...")
		if err := srv.Shutdown(context.Background()); err != nil {
			a.log.Error("Error during shutdown", slog.Any("err", err))
		}
	case err := <-srvErrCh:
		if err != nil {
			a.log.Error("Admin server stopped", slog.Any("err", err))
		}
	}
}

// demo emits one line per severity; the threshold decides which appear.
func (a *app) demo() {
	a.log.Debug("This message is shown at DEBUG")
	a.log.Info("This message is shown at INFO and below")
	a.log.Warning("This message is shown at WARNING and below")
	a.log.Error("This message is shown at ERROR and below")
	a.log.Critical("This message is always shown")
}
