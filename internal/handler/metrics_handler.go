package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/account-console/internal/service"
	appErrors "github.com/noah-isme/account-console/pkg/errors"
	"github.com/noah-isme/account-console/pkg/response"
)

// readyTimeout bounds the account API probe.
const readyTimeout = 3 * time.Second

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// MetricsHandler exposes observability endpoints.
type MetricsHandler struct {
	metrics *service.MetricsService
	checks  map[string]Pinger
}

// NewMetricsHandler constructs a metrics handler. checks are probed by Ready.
func NewMetricsHandler(metrics *service.MetricsService, checks map[string]Pinger) *MetricsHandler {
	return &MetricsHandler{metrics: metrics, checks: checks}
}

// Prometheus serves the Prometheus metrics endpoint.
func (h *MetricsHandler) Prometheus(c *gin.Context) {
	if h.metrics == nil {
		c.Status(http.StatusServiceUnavailable)
		return
	}
	h.metrics.Handler().ServeHTTP(c.Writer, c.Request)
}

// Health answers liveness probes.
func (h *MetricsHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Ready probes every dependency and fails when any is unreachable.
func (h *MetricsHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), readyTimeout)
	defer cancel()

	results := make(map[string]string, len(h.checks))
	var failed error
	for name, check := range h.checks {
		if err := check.Ping(ctx); err != nil {
			results[name] = appErrors.FromError(err).Message
			failed = err
			continue
		}
		results[name] = "ok"
	}

	if failed != nil {
		response.JSON(c, http.StatusServiceUnavailable, gin.H{"status": "unavailable", "checks": results}, nil)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"status": "ok", "checks": results}, nil)
}
