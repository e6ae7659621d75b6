package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/Payphone-Digital/auth-service/internal/constants"
	"github.com/Payphone-Digital/auth-service/pkg/health"
	"github.com/Payphone-Digital/auth-service/pkg/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type HealthHandler struct {
	monitor *health.Monitor
}

type HealthCheckResponse struct {
	Status    string                 `json:"status"`
	Version   string                 `json:"version"`
	Timestamp time.Time              `json:"timestamp"`
	Checks    map[string]HealthCheck `json:"checks"`
}

type HealthCheck struct {
	Status    string `json:"status"`
	Critical  bool   `json:"critical"`
	LatencyMs int64  `json:"latency_ms"`
	Message   string `json:"message,omitempty"`
}

func NewHealthHandler(monitor *health.Monitor) *HealthHandler {
	return &HealthHandler{monitor: monitor}
}

// HealthCheck runs every registered check. Only critical failures turn the
// answer into 503.
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	results := h.monitor.CheckAll(ctx)

	response := HealthCheckResponse{
		Status:    health.StatusHealthy.String(),
		Version:   constants.AppVersion,
		Timestamp: time.Now(),
		Checks:    make(map[string]HealthCheck, len(results)),
	}

	for _, r := range results {
		check := HealthCheck{
			Status:    r.Status.String(),
			Critical:  r.Critical,
			LatencyMs: r.Latency.Milliseconds(),
		}
		if r.LastError != nil {
			check.Message = r.LastError.Error()
		}
		response.Checks[r.Name] = check
	}

	statusCode := http.StatusOK
	message := "Service is healthy"
	if !health.Healthy(results) {
		response.Status = health.StatusUnhealthy.String()
		statusCode = http.StatusServiceUnavailable
		message = constants.MsgServiceUnavailable
	}

	logger.GetLogger().Debug("Health check performed",
		zap.String("overall_status", response.Status),
		zap.Int("status_code", statusCode),
	)

	constants.Respond(c, statusCode, message, response)
}

// BasicHealth returns a simple health check (for load balancers)
func (h *HealthHandler) BasicHealth(c *gin.Context) {
	constants.Respond(c, http.StatusOK, "Service is up", gin.H{
		"status":    health.StatusHealthy.String(),
		"version":   constants.AppVersion,
		"timestamp": time.Now(),
	})
}
