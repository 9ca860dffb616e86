package http

import (
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/nats-io/nats.go"

	"github.com/samirrijal/geocover/internal/adapters/valkey"
	"github.com/samirrijal/geocover/internal/core/usecases"
)

// Dependencies holds all services needed by HTTP handlers.
type Dependencies struct {
	Coverage *usecases.CoverageService
	NATS     *nats.Conn    // optional, only checked by /v1/ready
	Limiter  *valkey.Store // optional shared rate-limit storage
	Clock    clockwork.Clock
	Version  string

	// OpenAPIPath defaults to api/openapi.yaml relative to the working dir.
	OpenAPIPath string

	RateLimitMax    int
	RateLimitWindow time.Duration
}

func (d *Dependencies) clock() clockwork.Clock {
	if d.Clock == nil {
		d.Clock = clockwork.NewRealClock()
	}
	return d.Clock
}
