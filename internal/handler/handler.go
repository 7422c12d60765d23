package handler

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/spacesedan/tickerflow/internal/metrics"
	"github.com/spacesedan/tickerflow/internal/models"
	"github.com/spacesedan/tickerflow/internal/sentiment"
)

const noMentionsMessage = "No mentions found"

type MentionSource interface {
	Aggregate(ctx context.Context, communities, terms []string, limit int) models.MentionBatch
}

type PriceSource interface {
	Get(ctx context.Context) ([]models.PriceBar, error)
}

// Settings carries the request defaults the handlers apply.
type Settings struct {
	CompanyName    string
	Communities    []string
	Terms          []string
	DefaultLimit   int
	MaxLimit       int
	RequestTimeout time.Duration
}

type Handler struct {
	mentions  MentionSource
	sentiment sentiment.Aggregator
	prices    PriceSource
	healthy   *atomic.Bool
	settings  Settings
}

func New(mentions MentionSource, aggregator sentiment.Aggregator, prices PriceSource, healthy *atomic.Bool, settings Settings) *Handler {
	if healthy == nil {
		healthy = &atomic.Bool{}
		healthy.Store(true)
	}
	return &Handler{
		mentions:  mentions,
		sentiment: aggregator,
		prices:    prices,
		healthy:   healthy,
		settings:  settings,
	}
}

func (h *Handler) GetRoot(c *gin.Context) {
	c.JSON(http.StatusOK, MessageResponse{Message: h.settings.CompanyName + " Mentions Tracker API"})
}

func (h *Handler) GetHealth(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:             "ok",
		PriceSourceHealthy: h.healthy.Load(),
	})
}

func (h *Handler) GetMentions(c *gin.Context) {
	limit, err := h.queryLimit(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Detail: err.Error()})
		return
	}

	ctx, cancel := h.requestContext(c)
	defer cancel()

	batch := h.mentions.Aggregate(ctx, h.settings.Communities, h.settings.Terms, limit)

	if batch.Unavailable() {
		slog.Error("[MentionsHandler] No community could be searched",
			slog.Any("failed_sources", batch.FailedSources))
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{
			Detail: "mention sources unavailable: " + strings.Join(batch.FailedSources, ", "),
		})
		return
	}

	res := MentionsResponse{
		Mentions:      toMentionResponses(batch.Mentions),
		Count:         batch.Count,
		Timestamp:     batch.GeneratedAt.Format(time.RFC3339),
		FailedSources: batch.FailedSources,
	}

	if batch.Empty() {
		// an empty result only means "nothing matched" when every source answered
		if len(batch.FailedSources) == 0 {
			res.Message = noMentionsMessage
		}
		c.JSON(http.StatusOK, res)
		return
	}

	final, err := h.sentiment.Aggregate(ctx, batch.SentimentRecords())
	if err != nil {
		metrics.ScoreFailures.WithLabelValues("aggregate").Inc()
		slog.Warn("[MentionsHandler] Failed to aggregate sentiment, omitting final_sentiment",
			slog.Int("mentions", batch.Count),
			slog.String("error", err.Error()))
	} else {
		res.FinalSentiment = final
	}

	c.JSON(http.StatusOK, res)
}

func (h *Handler) GetStockData(c *gin.Context) {
	ctx, cancel := h.requestContext(c)
	defer cancel()

	bars, err := h.prices.Get(ctx)
	if err != nil {
		slog.Error("[StockDataHandler] Failed to get price series", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Detail: err.Error()})
		return
	}

	c.JSON(http.StatusOK, bars)
}

func (h *Handler) queryLimit(c *gin.Context) (int, error) {
	raw := c.Query("limit")
	if raw == "" {
		return h.settings.DefaultLimit, nil
	}

	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 1 || limit > h.settings.MaxLimit {
		slog.Debug("[MentionsHandler] Rejected limit", slog.String("value", raw))
		return 0, fmt.Errorf("limit must be an integer between 1 and %d", h.settings.MaxLimit)
	}
	return limit, nil
}

func (h *Handler) requestContext(c *gin.Context) (context.Context, context.CancelFunc) {
	if h.settings.RequestTimeout <= 0 {
		return context.WithCancel(c.Request.Context())
	}
	return context.WithTimeout(c.Request.Context(), h.settings.RequestTimeout)
}
