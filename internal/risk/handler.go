package risk

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	apperrors "github.com/loginsentry/loginsentry/internal/common/errors"
)

const (
	statsCacheKey = "risk-level-stats"
	statsCacheTTL = 10 * time.Minute
)

// EventRecorder persists raw login events before analysis. Both the
// PostgreSQL and the Elasticsearch login stores satisfy it.
type EventRecorder interface {
	Record(ctx context.Context, event LoginEvent) error
}

// StatsProvider exposes aggregate counts for the stats endpoint.
type StatsProvider interface {
	CountByLevel(ctx context.Context) (map[RiskLevel]int, error)
}

// Handler exposes the risk engine over HTTP.
type Handler struct {
	analyzer  *Analyzer
	recorder  EventRecorder
	summaries SummaryStore
	stats     StatsProvider
	cache     Cache
	logger    *zap.Logger
}

// NewHandler creates the HTTP handler for the risk service.
func NewHandler(analyzer *Analyzer, recorder EventRecorder, summaries SummaryStore, stats StatsProvider, cache Cache, logger *zap.Logger) *Handler {
	return &Handler{
		analyzer:  analyzer,
		recorder:  recorder,
		summaries: summaries,
		stats:     stats,
		cache:     cache,
		logger:    logger.With(zap.String("component", "risk_handler")),
	}
}

// RegisterRoutes mounts the risk API under /v1.
func (h *Handler) RegisterRoutes(router *gin.Engine) {
	v1 := router.Group("/v1")
	{
		v1.POST("/events", h.handleIngestEvent)
		v1.GET("/users/:id/risk-summary", h.handleGetRiskSummary)
		v1.GET("/stats", h.handleGetStats)
	}
}

// handleIngestEvent records a login event and runs the full analysis,
// returning the per-event result.
func (h *Handler) handleIngestEvent(c *gin.Context) {
	var event LoginEvent
	if err := c.ShouldBindJSON(&event); err != nil {
		apperrors.HandleError(c, apperrors.BadRequest(err.Error()))
		return
	}
	if event.UserID == "" {
		apperrors.HandleError(c, apperrors.ValidationError("user_id is required"))
		return
	}
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.LoginTimeUTC.IsZero() {
		event.LoginTimeUTC = time.Now().UTC()
	}

	ctx := c.Request.Context()
	if err := h.recorder.Record(ctx, event); err != nil {
		h.logger.Error("Failed to record login event", zap.Error(err))
		apperrors.HandleError(c, apperrors.DatabaseError("record login event", err))
		return
	}

	analysis, err := h.analyzer.AnalyzeLoginEvent(ctx, event)
	if err != nil {
		h.logger.Error("Login analysis failed",
			zap.String("event_id", event.ID), zap.Error(err))
		apperrors.HandleError(c, apperrors.Internal("Login analysis failed", err))
		return
	}

	c.JSON(http.StatusOK, analysis)
}

// handleGetRiskSummary returns the stored per-user summary.
func (h *Handler) handleGetRiskSummary(c *gin.Context) {
	userID := c.Param("id")

	summary, err := h.summaries.Get(c.Request.Context(), userID)
	if err != nil {
		apperrors.HandleError(c, apperrors.DatabaseError("load risk summary", err))
		return
	}
	if summary == nil {
		apperrors.HandleError(c, apperrors.NotFound("risk summary"))
		return
	}

	c.JSON(http.StatusOK, summary)
}

// handleGetStats returns per-level user counts, cached under the statistics
// tag so analyses that change a user's level invalidate it.
func (h *Handler) handleGetStats(c *gin.Context) {
	ctx := c.Request.Context()

	if cached, found, err := h.cache.TryGet(ctx, statsCacheKey); err == nil && found {
		c.Data(http.StatusOK, "application/json", []byte(cached))
		return
	}

	counts, err := h.stats.CountByLevel(ctx)
	if err != nil {
		apperrors.HandleError(c, apperrors.DatabaseError("load risk stats", err))
		return
	}

	payload := gin.H{
		"low":      counts[RiskLevelLow],
		"medium":   counts[RiskLevelMedium],
		"high":     counts[RiskLevelHigh],
		"critical": counts[RiskLevelCritical],
	}
	body, err := json.Marshal(payload)
	if err != nil {
		apperrors.HandleError(c, apperrors.Internal("Failed to encode stats", err))
		return
	}

	if err := h.cache.SetTagged(ctx, statsCacheKey, string(body), statsCacheTTL, TagStatistics); err != nil {
		h.logger.Warn("Failed to cache risk stats", zap.Error(err))
	}

	c.Data(http.StatusOK, "application/json", body)
}
