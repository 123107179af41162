package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/getmockd/mockapi/pkg/admin"
	"github.com/getmockd/mockapi/pkg/cache"
	"github.com/getmockd/mockapi/pkg/config"
	"github.com/getmockd/mockapi/pkg/logging"
	"github.com/getmockd/mockapi/pkg/metrics"
)

// AdminPrefix is the path prefix of the administrative API.
const AdminPrefix = "/__mockapi"

// Server is the mock HTTP server: mock traffic on every path, the admin API
// under AdminPrefix.
type Server struct {
	cfg      config.ServerConfig
	cors     config.CORSConfig
	pipeline *Pipeline
	admin    *admin.Handler
	adminRPM int
	metrics  *metrics.Metrics
	sweeper  *cache.Sweeper
	log      *slog.Logger

	router     chi.Router
	httpServer *http.Server
	listener   net.Listener

	mu        sync.RWMutex
	running   bool
	startTime time.Time
}

// ServerOption is a functional option for configuring a Server.
type ServerOption func(*Server)

// WithLogger sets the operational logger for the server.
func WithLogger(log *slog.Logger) ServerOption {
	return func(s *Server) {
		s.log = logging.OrNop(log)
	}
}

// WithAdmin mounts the admin API. requestsPerMinute limits each client IP;
// zero disables limiting.
func WithAdmin(h *admin.Handler, requestsPerMinute int) ServerOption {
	return func(s *Server) {
		s.admin = h
		s.adminRPM = requestsPerMinute
	}
}

// WithMetrics records request metrics and serves them on AdminPrefix/metrics.
func WithMetrics(m *metrics.Metrics) ServerOption {
	return func(s *Server) {
		s.metrics = m
	}
}

// WithSweeper runs a cache sweeper while the server is running.
func WithSweeper(sw *cache.Sweeper) ServerOption {
	return func(s *Server) {
		s.sweeper = sw
	}
}

// WithCORS sets the CORS configuration.
func WithCORS(cfg config.CORSConfig) ServerOption {
	return func(s *Server) {
		s.cors = cfg
	}
}

// NewServer creates a Server serving p.
func NewServer(cfg config.ServerConfig, p *Pipeline, opts ...ServerOption) *Server {
	s := &Server{
		cfg:      cfg,
		cors:     config.DefaultCORSConfig(),
		pipeline: p,
		log:      logging.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer, RequestID, AccessLog(s.log), CORS(s.cors))

	r.Route(AdminPrefix, func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		if s.metrics != nil {
			r.Handle("/metrics", s.metrics.Handler())
		}
		if s.admin != nil {
			r.Group(func(r chi.Router) {
				r.Use(admin.RateLimiter(s.adminRPM))
				r.Options("/*", func(w http.ResponseWriter, _ *http.Request) {
					w.WriteHeader(http.StatusOK)
				})
				s.admin.Routes(r)
			})
		}
	})

	mock := NewHandler(s.pipeline, s.log, s.cfg.MaxBodySize)
	r.With(MetricsMiddleware(s.metrics)).Handle("/*", mock)
	return r
}

// Handler returns the server's root handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start listens on the configured address and serves in the background.
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return errors.New("server is already running")
	}

	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.cfg.Addr, err)
	}

	if s.sweeper != nil {
		if err := s.sweeper.Start(); err != nil {
			_ = ln.Close()
			return err
		}
	}

	s.listener = ln
	s.httpServer = &http.Server{
		Handler:           s.router,
		ReadTimeout:       s.cfg.ReadTimeout,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      s.cfg.WriteTimeout,
	}

	s.log.Info("starting HTTP server", "addr", ln.Addr().String())
	go func() {
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("HTTP server error", "error", err)
		}
	}()

	s.running = true
	s.startTime = time.Now()
	return nil
}

// Addr returns the bound listen address, or "" when not running.
func (s *Server) Addr() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}

	timeout := s.cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var errs []error
	if err := s.httpServer.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("HTTP shutdown: %w", err))
	}
	if s.sweeper != nil {
		s.sweeper.Stop()
	}

	s.running = false
	s.listener = nil
	s.log.Info("server stopped")
	return errors.Join(errs...)
}

// IsRunning reports whether the server is serving.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// Uptime returns the server uptime in seconds.
func (s *Server) Uptime() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.running {
		return 0
	}
	return int(time.Since(s.startTime).Seconds())
}
