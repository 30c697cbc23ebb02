package mailer

import (
	"context"

	"golang.org/x/time/rate"
)

// Throttled caps the outbound send rate across all workers so a large
// fan-out does not trip provider limits.
type Throttled struct {
	next    Transport
	limiter *rate.Limiter
}

// Throttle wraps next with a per-second rate limit. ratePerSec <= 0
// returns next unchanged.
func Throttle(next Transport, ratePerSec float64) Transport {
	if ratePerSec <= 0 {
		return next
	}
	burst := int(ratePerSec)
	if burst < 1 {
		burst = 1
	}
	return &Throttled{
		next:    next,
		limiter: rate.NewLimiter(rate.Limit(ratePerSec), burst),
	}
}

func (t *Throttled) Send(ctx context.Context, m Message) error {
	if err := t.limiter.Wait(ctx); err != nil {
		return err
	}
	return t.next.Send(ctx, m)
}

var _ Transport = (*Throttled)(nil)
