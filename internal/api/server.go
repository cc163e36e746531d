// Package api exposes instruments, alerts and crawls over HTTP.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"kabuka-watcher/internal/models"
	"kabuka-watcher/internal/store"
)

// Crawler runs a single crawl on demand.
type Crawler interface {
	Crawl(ctx context.Context, instrumentID int64) (*models.Crawl, error)
}

// Config holds HTTP server settings.
type Config struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	CrawlTimeout time.Duration
}

// Server wires the gin router to the store and crawler.
type Server struct {
	cfg     Config
	store   store.DataStore
	crawler Crawler
	logger  zerolog.Logger
	engine  *gin.Engine
}

// NewServer creates a new Server with all routes registered.
func NewServer(cfg Config, ds store.DataStore, crawler Crawler, logger zerolog.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)

	s := &Server{
		cfg:     cfg,
		store:   ds,
		crawler: crawler,
		logger:  logger.With().Str("component", "api").Logger(),
		engine:  gin.New(),
	}
	s.engine.Use(gin.Recovery(), requestLogger(s.logger))
	s.routes()
	return s
}

func (s *Server) routes() {
	s.engine.GET("/healthz", s.health)

	stocks := s.engine.Group("/stocks")
	{
		stocks.GET("", s.listStocks)
		stocks.POST("", s.createStock)
		stocks.GET("/:id", s.getStock)
		stocks.DELETE("/:id", s.deleteStock)
		stocks.POST("/:id/crawling", s.crawlStock)
		stocks.GET("/:id/amount_alerts", s.listStockAlerts)
		stocks.POST("/:id/amount_alerts", s.createStockAlert)
	}

	s.engine.DELETE("/amount_alerts/:id", s.deleteAlert)
}

// Handler returns the underlying http.Handler.
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
		s.logger.Info().Str("addr", s.cfg.Addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info().Msg("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}

func requestLogger(logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		event := logger.Info()
		if c.Writer.Status() >= http.StatusInternalServerError {
			event = logger.Error()
		} else if c.Writer.Status() >= http.StatusBadRequest {
			event = logger.Warn()
		}
		event.
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Int("status", c.Writer.Status()).
			Dur("duration", time.Since(start)).
			Msg("HTTP request")
	}
}
