// Package server exposes the dataset over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/athanius07/EMESRT11/internal/config"
	"github.com/athanius07/EMESRT11/internal/dataset"
	"github.com/athanius07/EMESRT11/internal/metrics"
	"github.com/athanius07/EMESRT11/internal/refresh"
)

// Route paths. The .netlify aliases keep existing clients working.
const (
	PathRead         = "/emesrt"
	PathReadAlias    = "/.netlify/functions/emesrt"
	PathRefresh      = "/refresh"
	PathRefreshAlias = "/.netlify/functions/refresh"
	PathHealth       = "/health"
)

// Server is the HTTP front end. Each request gets its own store from the
// opener and its own orchestrator; the server holds no dataset state.
type Server struct {
	cfg        *config.Config
	provider   dataset.Provider
	openStore  StoreOpener
	metrics    *metrics.Metrics
	clock      refresh.Clock
	logger     *zap.Logger
	errors     *ErrorHandler
	router     *mux.Router
	handler    http.Handler
	httpServer *http.Server
}

// Option configures a Server.
type Option func(*Server)

// WithMetrics enables request and refresh metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Server) {
		s.metrics = m
	}
}

// WithLogger sets the logger. Default: zap.NewNop().
func WithLogger(l *zap.Logger) Option {
	return func(s *Server) {
		s.logger = l
	}
}

// WithClock fixes the clock used for changelog timestamps.
func WithClock(c refresh.Clock) Option {
	return func(s *Server) {
		s.clock = c
	}
}

// New creates a server and registers its routes.
func New(cfg *config.Config, provider dataset.Provider, open StoreOpener, opts ...Option) *Server {
	s := &Server{
		cfg:       cfg,
		provider:  provider,
		openStore: open,
		logger:    zap.NewNop(),
		router:    mux.NewRouter(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.errors = NewErrorHandler(s.logger)

	s.routes()
	s.httpServer = &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      s.handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}
	return s
}

func (s *Server) routes() {
	if s.metrics != nil {
		s.router.Use(Instrument(s.metrics))
	}

	s.router.HandleFunc(PathRead, s.handleRead).Methods(http.MethodGet)
	s.router.HandleFunc(PathReadAlias, s.handleRead).Methods(http.MethodGet)
	s.router.HandleFunc(PathRefresh, s.handleRefresh).Methods(http.MethodGet, http.MethodPost)
	s.router.HandleFunc(PathRefreshAlias, s.handleRefresh).Methods(http.MethodGet, http.MethodPost)
	s.router.HandleFunc(PathHealth, s.handleHealth).Methods(http.MethodGet)

	if s.metrics != nil && s.cfg.Metrics.Enabled {
		s.router.Handle(s.cfg.Metrics.Path, s.metrics.Handler()).Methods(http.MethodGet)
	}

	s.router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.errors.Write(w, r, http.StatusNotFound, CodeNotFound, "endpoint not found")
	})
	s.router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.errors.Write(w, r, http.StatusMethodNotAllowed, CodeMethodNotAllowed, "method not allowed")
	})

	// The chain wraps the router rather than using router.Use so that
	// preflight and unmatched requests pass through it too.
	chain := []func(http.Handler) http.Handler{
		RequestID,
		Recovery(s.logger, s.errors),
		Logging(s.logger),
		CORS,
	}
	if rl := s.cfg.RateLimiter; rl.Enabled {
		chain = append(chain, NewRateLimiter(rl.RequestsPerSecond, rl.BurstSize, s.errors, s.logger).Limit)
	}
	s.handler = Chain(chain...)(s.router)
}

// Handler returns the fully wrapped handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Serve accepts connections on l until Shutdown.
func (s *Server) Serve(l net.Listener) error {
	s.logger.Info("starting HTTP server", zap.String("addr", l.Addr().String()))
	if err := s.httpServer.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve http: %w", err)
	}
	return nil
}

// Shutdown stops accepting connections and waits for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

// Run listens on the configured address, starts the refresh schedule if
// one is configured, and blocks until ctx is cancelled or serving fails.
func (s *Server) Run(ctx context.Context) error {
	l, err := net.Listen("tcp", s.cfg.Server.Addr())
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.cfg.Server.Addr(), err)
	}
	return s.RunListener(ctx, l)
}

// RunListener is Run on an existing listener.
func (s *Server) RunListener(ctx context.Context, l net.Listener) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return s.Serve(l)
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout)
		defer cancel()
		return s.Shutdown(shutdownCtx)
	})
	if interval := s.cfg.Refresh.ScheduleInterval; interval > 0 {
		g.Go(func() error {
			refresh.NewScheduler(interval, s.scheduledRefresh, s.logger).Start(gctx)
			return nil
		})
	}

	return g.Wait()
}

func (s *Server) scheduledRefresh(ctx context.Context) error {
	st := s.openStore(ctx)
	defer st.Close()
	_, err := s.orchestrator(st, s.logger).Refresh(ctx)
	return err
}
