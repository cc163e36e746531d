package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "kabuka-watcher/internal/errors"
	"kabuka-watcher/internal/models"
)

type createStockRequest struct {
	Code int64  `json:"code" binding:"required"`
	Name string `json:"name" binding:"required"`
	URL  string `json:"url" binding:"required"`
}

type createAlertRequest struct {
	Mode   string `json:"mode" binding:"required"`
	Amount int64  `json:"amount"`
}

// GET /healthz
func (s *Server) health(c *gin.Context) {
	start := time.Now()
	if err := s.store.Ping(c.Request.Context()); err != nil {
		s.logger.Error().Err(err).Msg("Database ping failed")
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "database": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":           "ok",
		"database_latency": time.Since(start).String(),
	})
}

// GET /stocks
func (s *Server) listStocks(c *gin.Context) {
	stocks, err := s.store.ListInstruments(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	if stocks == nil {
		stocks = []models.Instrument{}
	}
	c.JSON(http.StatusOK, gin.H{"stocks": stocks})
}

// POST /stocks
func (s *Server) createStock(c *gin.Context) {
	var req createStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	stock, err := s.store.CreateInstrument(c.Request.Context(), req.Code, req.Name, req.URL)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"stock": stock})
}

// GET /stocks/:id
func (s *Server) getStock(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	stock, err := s.store.GetInstrumentByID(c.Request.Context(), id)
	if apperrors.Is(err, apperrors.ErrInstrumentNotFound) {
		c.JSON(http.StatusOK, gin.H{"stock": nil})
		return
	}
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"stock": stock})
}

// DELETE /stocks/:id
func (s *Server) deleteStock(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := s.store.DeleteInstrument(c.Request.Context(), id); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// POST /stocks/:id/crawling
func (s *Server) crawlStock(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	if s.cfg.CrawlTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.CrawlTimeout)
		defer cancel()
	}

	res, err := s.crawler.Crawl(ctx, id)
	if err != nil {
		s.fail(c, err)
		return
	}

	triggered := res.Triggered
	if triggered == nil {
		triggered = []models.TriggeredAlert{}
	}
	c.JSON(http.StatusOK, gin.H{
		"crawling_responses": triggered,
		"current_amount":     res.Quote,
	})
}

// GET /stocks/:id/amount_alerts
func (s *Server) listStockAlerts(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	stock, err := s.store.GetInstrumentByID(ctx, id)
	if err != nil {
		s.fail(c, err)
		return
	}
	alerts, err := s.store.GetAlertsByInstrumentCode(ctx, stock.Code)
	if err != nil {
		s.fail(c, err)
		return
	}
	if alerts == nil {
		alerts = []models.AlertRule{}
	}
	c.JSON(http.StatusOK, gin.H{"amount_alerts": alerts})
}

// POST /stocks/:id/amount_alerts
func (s *Server) createStockAlert(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req createAlertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	direction, ok := models.ParseDirection(req.Mode)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "mode must be \"up\" or \"down\""})
		return
	}

	alert, err := s.store.CreateAlert(c.Request.Context(), id, direction, req.Amount)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"amount_alert": alert})
}

// DELETE /amount_alerts/:id
func (s *Server) deleteAlert(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := s.store.DeleteAlert(c.Request.Context(), id); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return id, true
}

// fail maps domain errors onto HTTP statuses.
func (s *Server) fail(c *gin.Context, err error) {
	var ve *apperrors.ValidationError
	switch {
	case apperrors.As(err, &ve):
		c.JSON(http.StatusBadRequest, gin.H{"error": ve.Error()})
	case apperrors.IsCrawlKind(err, apperrors.CrawlNotFound),
		apperrors.Is(err, apperrors.ErrInstrumentNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Stock not found"})
	case apperrors.Is(err, apperrors.ErrAlertNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Alert not found"})
	case apperrors.Is(err, apperrors.ErrDuplicateInstrument):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case apperrors.IsCrawlKind(err, apperrors.CrawlUpstream):
		s.logger.Warn().Err(err).Msg("Crawl failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": "crawl failed"})
	case apperrors.Is(err, apperrors.ErrDatabaseError):
		s.logger.Error().Err(err).Msg("Database request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Unexpected error"})
	default:
		s.logger.Error().Err(err).Msg("Request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Unexpected error"})
	}
}
