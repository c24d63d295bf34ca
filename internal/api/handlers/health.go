package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type HealthResponse struct {
	Status         string            `json:"status"`
	Timestamp      string            `json:"timestamp"`
	ActiveSessions int               `json:"active_sessions"`
	Services       map[string]string `json:"services"`
}

func (h *Handler) HealthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	services := map[string]string{
		"api": "healthy",
	}

	if h.cfg.DeepgramAPIKey != "" {
		services["agent_credentials"] = "configured"
	} else {
		services["agent_credentials"] = "missing"
	}

	// Redis is optional; the relay path works without it
	if h.redisClient != nil {
		if err := h.redisClient.Ping(ctx).Err(); err != nil {
			services["redis"] = "unhealthy"
		} else {
			services["redis"] = "healthy"
		}
	} else {
		services["redis"] = "disabled"
	}

	overallStatus := "healthy"
	for _, status := range services {
		if status == "unhealthy" || status == "missing" {
			overallStatus = "degraded"
			break
		}
	}

	c.JSON(http.StatusOK, HealthResponse{
		Status:         overallStatus,
		Timestamp:      time.Now().Format(time.RFC3339),
		ActiveSessions: h.registry.Len(),
		Services:       services,
	})
}
