package profiles

import (
	"context"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/naka-gawa/repo-profiles/internal/api/web"
	"github.com/naka-gawa/repo-profiles/internal/domain"
)

// Aggregator builds the profile for an account.
type Aggregator interface {
	Aggregate(ctx context.Context, profile string) (*domain.Profile, error)
}

// Configure sets up the profile routes
func Configure(e *echo.Echo, l *zap.Logger, a Aggregator) {
	h := &handler{aggregator: a}
	e.GET("/v1/profiles/:profile", web.Wrap(h.Get, l))
}

type handler struct {
	aggregator Aggregator
}
