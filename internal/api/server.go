// Package api serves the journal over HTTP.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"trade-journal/internal/analytics"
	"trade-journal/internal/config"
	"trade-journal/internal/journal"
	"trade-journal/internal/metrics"
	"trade-journal/internal/performance"
)

const shutdownTimeout = 10 * time.Second

// Server is the HTTP API over a journal service.
type Server struct {
	journal       *journal.Service
	pool          *performance.WorkerPool
	cfg           config.ServerConfig
	logger        zerolog.Logger
	now           func() time.Time
	defaultFilter analytics.DateFilter
	engine        *gin.Engine
}

// Option configures a Server.
type Option func(*Server)

// WithPool reports the pool's stats on /health.
func WithPool(pool *performance.WorkerPool) Option {
	return func(s *Server) { s.pool = pool }
}

// WithClock overrides the clock used for date filters and new trades.
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

// WithDefaultFilter sets the date filter GET /api/v1/trades applies when
// the request has no ?filter=. AllTime keeps offset paging.
func WithDefaultFilter(f analytics.DateFilter) Option {
	return func(s *Server) { s.defaultFilter = f }
}

// NewServer builds the gin engine and registers every route.
func NewServer(svc *journal.Service, cfg config.ServerConfig, logger zerolog.Logger, opts ...Option) *Server {
	s := &Server{
		journal:       svc,
		cfg:           cfg,
		logger:        logger.With().Str("component", "api").Logger(),
		now:           time.Now,
		defaultFilter: analytics.AllTime,
	}
	for _, opt := range opts {
		opt(s)
	}

	metrics.Init()

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(requestMiddleware(s.logger))
	engine.Use(rateLimitMiddleware(rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.Burst)))

	engine.GET("/health", s.health)
	engine.GET("/metrics", gin.WrapH(metrics.Handler()))

	v1 := engine.Group("/api/v1")
	s.registerTrades(v1)
	s.registerAnalytics(v1)

	engine.NoRoute(func(c *gin.Context) {
		Error(c, http.StatusNotFound, "route not found", nil)
	})

	s.engine = engine
	return s
}

// Handler returns the server's HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.cfg.Addr,
		Handler:      s.engine,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", s.cfg.Addr).Msg("HTTP server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		s.logger.Info().Msg("Shutdown requested")
	case err, ok := <-errCh:
		if ok {
			return err
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func (s *Server) health(c *gin.Context) {
	mem := performance.MemoryStats()
	data := gin.H{
		"status":    "ok",
		"time":      s.now().UTC(),
		"read_only": s.journal.ReadOnly(),
		"memory":    mem,
		"heap":      performance.FormatBytes(mem.HeapAlloc),
	}
	if s.pool != nil {
		data["pool"] = s.pool.Stats()
	}
	Ok(c, data, nil)
}
