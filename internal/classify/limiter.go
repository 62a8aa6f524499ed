package classify

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// LimitedOracle spaces oracle calls to at most perMinute per minute.
type LimitedOracle struct {
	next Oracle
	lim  *rate.Limiter
}

// NewLimitedOracle returns next unchanged when perMinute <= 0.
func NewLimitedOracle(next Oracle, perMinute int) Oracle {
	if perMinute <= 0 {
		return next
	}
	return &LimitedOracle{
		next: next,
		lim:  rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), 1),
	}
}

func (o *LimitedOracle) Complete(ctx context.Context, req Request) (string, error) {
	if err := o.lim.Wait(ctx); err != nil {
		return "", err
	}
	return o.next.Complete(ctx, req)
}
