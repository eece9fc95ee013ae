// Package handler provides HTTP request handlers for the application.
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/ad-tracker/youtube-digest-go/internal/service/quota"
	"github.com/gin-gonic/gin"
)

// Pinger checks a backing store.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthReporter reports the state of a long-lived connection.
type HealthReporter interface {
	IsHealthy() bool
}

// QuotaReporter exposes Data API quota usage.
type QuotaReporter interface {
	GetQuotaInfo() quota.Info
	IsQuotaExhausted() bool
}

// HealthHandler handles health check endpoints. Either dependency may be nil
// when the corresponding feature is disabled.
type HealthHandler struct {
	db        Pinger
	publisher HealthReporter
	quota     QuotaReporter
}

type quotaStatus struct {
	quota.Info
	Exhausted bool `json:"exhausted"`
}

// NewHealthHandler creates a new HealthHandler instance.
func NewHealthHandler(db Pinger, publisher HealthReporter) *HealthHandler {
	return &HealthHandler{
		db:        db,
		publisher: publisher,
	}
}

// SetQuotaReporter adds Data API quota usage to the readiness response. An
// exhausted quota is reported but does not fail readiness.
func (h *HealthHandler) SetQuotaReporter(q QuotaReporter) {
	h.quota = q
}

// LivenessProbe checks if the application is running.
func (h *HealthHandler) LivenessProbe(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "UP",
		"time":   time.Now(),
	})
}

// ReadinessProbe checks if the application is ready to serve traffic.
func (h *HealthHandler) ReadinessProbe(c *gin.Context) {
	ctx := c.Request.Context()
	body := gin.H{
		"status":   "UP",
		"database": "disabled",
		"rabbitmq": "disabled",
	}

	if h.db != nil {
		if err := h.db.Ping(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "DOWN",
				"database": "unhealthy",
				"error":    err.Error(),
				"time":     time.Now(),
			})
			return
		}
		body["database"] = "healthy"
	}

	if h.publisher != nil {
		if !h.publisher.IsHealthy() {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "DOWN",
				"rabbitmq": "unhealthy",
				"time":     time.Now(),
			})
			return
		}
		body["rabbitmq"] = "healthy"
	}

	if h.quota != nil {
		body["youtube_quota"] = quotaStatus{
			Info:      h.quota.GetQuotaInfo(),
			Exhausted: h.quota.IsQuotaExhausted(),
		}
	}

	body["time"] = time.Now()
	c.JSON(http.StatusOK, body)
}
