package profiles

import (
	"errors"

	"go.uber.org/zap"

	"github.com/naka-gawa/repo-profiles/internal/api/web"
	"github.com/naka-gawa/repo-profiles/internal/domain"
)

// Get handles GET /v1/profiles/:profile
func (h *handler) Get(c web.Context) error {
	ctx := c.Request().Context()
	profile := c.Param("profile")

	result, err := h.aggregator.Aggregate(ctx, profile)
	switch {
	case errors.Is(err, domain.ErrResourceNotFound):
		return c.NotFound("Resource not found")
	case errors.Is(err, domain.ErrRateLimited):
		c.L.Warn("provider rate limit reached", zap.String("profile", profile), zap.Error(err))
		return c.TooManyRequests("Rate limit exceeded")
	case err != nil:
		c.L.Error("failed to aggregate profile", zap.String("profile", profile), zap.Error(err))
		return c.InternalError("Internal server error")
	}

	return c.OK(result)
}
