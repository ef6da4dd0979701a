// Package server exposes the shopping assistant over HTTP: streaming
// chat, the product search proxy, and CRUD for wishlist, reviews,
// saved queries, and chat history.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/shopassist/internal/chat"
	"git.home.luguber.info/inful/shopassist/internal/config"
	derrors "git.home.luguber.info/inful/shopassist/internal/errors"
	"git.home.luguber.info/inful/shopassist/internal/marketplace"
	"git.home.luguber.info/inful/shopassist/internal/observability"
	"git.home.luguber.info/inful/shopassist/internal/store"
	"git.home.luguber.info/inful/shopassist/internal/version"
)

// Server wires the HTTP surface.
type Server struct {
	cfg          config.ServerConfig
	chatSvc      *chat.Service
	search       *marketplace.Client
	store        store.Store
	registry     *prometheus.Registry
	errorAdapter *derrors.HTTPErrorAdapter
	logger       *slog.Logger
	tracer       *observability.TracerProvider
	startTime    time.Time

	httpServer *http.Server
}

// New builds the server. registry may be nil when metrics are
// disabled; the /metrics route then serves the default registry.
func New(cfg config.ServerConfig, chatSvc *chat.Service, search *marketplace.Client, st store.Store, registry *prometheus.Registry, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		cfg:          cfg,
		chatSvc:      chatSvc,
		search:       search,
		store:        st,
		registry:     registry,
		errorAdapter: derrors.NewHTTPErrorAdapter(logger),
		logger:       logger,
		tracer:       observability.NewTracerProvider(),
		startTime:    time.Now(),
	}
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
}

// Start runs the HTTP server until ctx is canceled, then shuts down
// gracefully within the configured timeout.
func (s *Server) Start(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:              s.Addr(),
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP server listening", slog.String("addr", s.Addr()))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return derrors.DaemonError("HTTP server failed").WithContext("addr", s.Addr()).WithContext("cause", err.Error())
		}
		return nil
	case <-ctx.Done():
		return s.Shutdown()
	}
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown() error {
	if s.httpServer == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	s.logger.Info("HTTP server shutting down")
	return s.httpServer.Shutdown(ctx)
}

// uptime in seconds for the health payload.
func (s *Server) uptime() float64 {
	return time.Since(s.startTime).Seconds()
}

// versionString is exposed in health responses.
func versionString() string {
	return version.Version
}
