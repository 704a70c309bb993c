package health

import (
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/naka-gawa/repo-profiles/internal/api/web"
)

// Configure sets up the health routes
func Configure(e *echo.Echo, l *zap.Logger) {
	e.GET("/healthcheck", web.Wrap(Get, l))
}
