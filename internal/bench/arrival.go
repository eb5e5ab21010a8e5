package bench

import (
	"context"

	"golang.org/x/time/rate"
)

// releaseGate decides when the next planned submission may start.
type releaseGate interface {
	Wait(ctx context.Context) error
}

// burstGate releases item k at roughly k/perSecond after the first release,
// independent of whether earlier submissions have completed. Burst of one
// keeps the spacing uniform instead of front-loading.
type burstGate struct {
	limiter *rate.Limiter
}

func newBurstGate(perSecond float64) *burstGate {
	if perSecond <= 0 {
		perSecond = 1
	}
	return &burstGate{limiter: rate.NewLimiter(rate.Limit(perSecond), 1)}
}

func (g *burstGate) Wait(ctx context.Context) error {
	return g.limiter.Wait(ctx)
}
