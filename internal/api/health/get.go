package health

import (
	"github.com/naka-gawa/repo-profiles/internal/api/web"
)

// Get handles GET /healthcheck. It never reaches out to the providers.
func Get(c web.Context) error {
	return c.Empty()
}
