package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

type HealthHandler struct {
	ServiceName string
	Version     string
	started     time.Time
}

func NewHealthHandler(serviceName, version string) *HealthHandler {
	return &HealthHandler{ServiceName: serviceName, Version: version, started: time.Now()}
}

// HealthCheck handles the health check endpoint
func (h *HealthHandler) HealthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{
		"status":    "healthy",
		"service":   h.ServiceName,
		"version":   h.Version,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"uptime":    time.Since(h.started).Round(time.Second).String(),
	})
}
