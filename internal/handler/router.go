package handler

import (
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/spacesedan/tickerflow/internal/metrics"
)

const requestIDHeader = "X-Request-ID"

// NewRouter wires the query routes, the metrics endpoint and the shared
// middleware. A panic in any handler is answered with 500 {detail}.
func NewRouter(h *Handler, allowedOrigins []string) *gin.Engine {
	r := gin.New()

	r.Use(
		requestID(),
		accessLog(),
		gin.CustomRecovery(func(c *gin.Context, recovered any) {
			slog.Error("[HTTP] Recovered from panic",
				slog.String("path", c.Request.URL.Path),
				slog.Any("panic", recovered))
			c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{Detail: fmt.Sprint(recovered)})
		}),
		cors.New(corsConfig(allowedOrigins)),
	)

	r.GET("/", h.GetRoot)
	r.GET("/health", h.GetHealth)
	r.GET("/mentions", h.GetMentions)
	r.GET("/stock-data", h.GetStockData)
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	return r
}

func corsConfig(allowedOrigins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods: []string{"GET", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", requestIDHeader},
		MaxAge:       12 * time.Hour,
	}
	if len(allowedOrigins) == 0 || slices.Contains(allowedOrigins, "*") {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = allowedOrigins
	return cfg
}

func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

func accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		duration := time.Since(start)
		status := c.Writer.Status()
		metrics.RecordHTTPRequest(c.FullPath(), c.Request.Method, status, duration)

		slog.Info("[HTTP] Request served",
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.Int("status", status),
			slog.Duration("duration", duration),
			slog.String("request_id", c.GetString("request_id")))
	}
}
