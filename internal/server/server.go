// =============================================================================
// Revenue XML - HTTP Server
// =============================================================================
//
// This module exposes the two core operations over a small local JSON API,
// for use by a desktop or browser shell.
//
// ROUTES:
//   GET  /health              - liveness
//   GET  /api/v1/outlets      - configured outlet names
//   GET  /api/v1/days         - days available in a workbook
//   POST /api/v1/generate     - generate documents for selected days
//
// Generation calls are serialized: only one run touches the output
// directory at a time. The generate route is additionally throttled.
//
// =============================================================================

package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/ginjaninja78/revenue-xml/internal/catalog"
	"github.com/ginjaninja78/revenue-xml/internal/config"
	"github.com/ginjaninja78/revenue-xml/internal/converter"
)

// shutdownTimeout bounds the graceful shutdown.
const shutdownTimeout = 5 * time.Second

// Server serves the JSON API.
type Server struct {
	cfg     *config.Config
	catalog *catalog.Catalog
	conv    *converter.Converter
	logger  *slog.Logger

	limiter *rate.Limiter

	// generateMu serializes generation runs.
	generateMu sync.Mutex

	engine *gin.Engine
}

// New creates a Server and registers its routes.
//
// PARAMETERS:
//   - cfg: The loaded configuration (server section and outlet catalog).
//   - cat: The outlet catalog.
//   - conv: The converter running generations.
//   - logger: Request and run logger; nil means slog.Default().
func New(cfg *config.Config, cat *catalog.Catalog, conv *converter.Converter, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	perMinute := cfg.Server.GeneratePerMinute
	if perMinute <= 0 {
		perMinute = 30
	}

	s := &Server{
		cfg:     cfg,
		catalog: cat,
		conv:    conv,
		logger:  logger,
		limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), perMinute),
	}
	s.engine = s.routes()
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) routes() *gin.Engine {
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(requestLogger(s.logger))
	router.Use(corsMiddleware(s.cfg.Server.AllowedOrigins))

	router.GET("/health", s.health)

	v1 := router.Group("/api/v1")
	{
		v1.GET("/outlets", s.listOutlets)
		v1.GET("/days", s.listDays)
		v1.POST("/generate", throttle(s.limiter), s.generate)
	}

	return router
}

// Run listens on addr until ctx is cancelled, then shuts down gracefully.
// An empty addr uses the configured server address.
func (s *Server) Run(ctx context.Context, addr string) error {
	if addr == "" {
		addr = s.cfg.Server.Addr
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", "addr", srv.Addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	s.logger.Info("server shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}
