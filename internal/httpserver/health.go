package httpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/Skotchmaster/ecom_api/pkg/db"
	"github.com/Skotchmaster/ecom_api/pkg/logging"
)

type HealthHTTP struct {
	DB *gorm.DB
}

func (h *HealthHTTP) Live(c echo.Context) error {
	return c.NoContent(http.StatusOK)
}

// Ready reports 503 until the database answers a ping.
func (h *HealthHTTP) Ready(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	if err := db.Ping(ctx, h.DB); err != nil {
		logging.FromContext(ctx).Error("readiness_failed", "handler", "health.ready", "error", err)
		return c.NoContent(http.StatusServiceUnavailable)
	}
	return c.NoContent(http.StatusOK)
}
