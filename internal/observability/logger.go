package observability

import (
	"github.com/rs/zerolog"
)

// ServiceLogger tags base with the service and node a long-running process
// reports as, matching the labels on its metrics.
func ServiceLogger(base zerolog.Logger, service, node string) zerolog.Logger {
	ctx := base.With().Str("service", service)
	if node != "" {
		ctx = ctx.Str("node", node)
	}
	return ctx.Logger()
}
