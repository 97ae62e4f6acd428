package httpserver

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/angeloszaimis/apptracer/config"
)

const shutdownTimeout = 5 * time.Second

// Server is the admin listener of the host application.
type Server struct {
	server *http.Server
	log    *slog.Logger
}

// New validates addr and returns a server for handler. Errors from the
// listener are logged to log.
func New(addr string, handler http.Handler, log *slog.Logger) (*Server, error) {
	if err := validation.Validate(addr, validation.Required, validation.By(config.ValidateAddr)); err != nil {
		return nil, err
	}

	srv := &Server{
		server: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       10 * time.Second,
			WriteTimeout:      10 * time.Second,
			IdleTimeout:       60 * time.Second,
			ErrorLog:          slog.NewLogLogger(log.Handler(), slog.LevelError),
		},
		log: log,
	}

	return srv, nil
}

// Start listens until Shutdown is called; a clean shutdown returns nil.
func (s *Server) Start() error {
	s.log.Info("admin server listening", slog.String("addr", s.server.Addr))

	err := s.server.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

// Shutdown stops the server, waiting at most five seconds for open requests.
func (s *Server) Shutdown(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()

	s.log.Info("admin server stopping", slog.String("addr", s.server.Addr))
	return s.server.Shutdown(shutdownCtx)
}
