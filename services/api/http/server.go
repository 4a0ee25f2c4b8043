package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/klauspost/compress/gzhttp"

	"github.com/02loveslollipop/climate-observations-api/services/api/config"
	"github.com/02loveslollipop/climate-observations-api/services/api/db"
)

// Store is the read side the handlers depend on. *db.Store satisfies it.
type Store interface {
	Precipitation(ctx context.Context, start, end string) (map[string]*float64, error)
	StationIDs(ctx context.Context) ([]*string, error)
	Temperatures(ctx context.Context, start, end string) ([]*float64, error)
	TemperatureStats(ctx context.Context, start string, end *string) (db.TemperatureStats, error)
	Ping(ctx context.Context) error
}

// Server bundles router and dependencies for the REST API.
type Server struct {
	cfg    config.Config
	store  Store
	logger *slog.Logger
	engine *gin.Engine
}

// New constructs a server with routes and middleware. The gin mode is left to
// the caller.
func New(cfg config.Config, store Store, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.QueryTimeout <= 0 {
		cfg.QueryTimeout = 10 * time.Second
	}

	engine := gin.New()
	engine.Use(recoveryMiddleware(logger))
	engine.Use(requestIDMiddleware())
	engine.Use(requestLogMiddleware(logger))
	engine.Use(corsMiddleware())

	server := &Server{cfg: cfg, store: store, logger: logger, engine: engine}
	server.registerRoutes()
	return server
}

// Engine exposes the underlying gin engine (for tests).
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// Handler is the full HTTP handler, including response compression.
func (s *Server) Handler() http.Handler {
	return gzhttp.GzipHandler(s.engine)
}

// Run starts the HTTP server and blocks until shutdown.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.ListenAddr(),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		timeout := s.cfg.ShutdownTimeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		s.logger.Info("http shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) registerRoutes() {
	s.engine.GET("/", s.handleHome)
	s.engine.GET("/healthz", s.handleHealthz)
	s.registerV1Routes()
}

func (s *Server) handleHealthz(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := s.store.Ping(ctx); err != nil {
		s.logger.ErrorContext(ctx, "health check failed", "error", err, "request_id", requestID(c))
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
