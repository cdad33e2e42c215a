package ratelimiter

import (
	"context"

	"golang.org/x/time/rate"

	"github.com/subwatch/reminder-dispatch/internal/domain"
)

// ChannelLimiters holds one token bucket per delivery channel. Burst
// equals the per-second rate, so a batch never sends more than
// ratePerSec requests to a provider in any one-second slice.
type ChannelLimiters struct {
	limiters map[domain.Channel]*rate.Limiter
}

// New creates limiters allowing ratePerSec sends per second per channel.
func New(ratePerSec int) *ChannelLimiters {
	r := rate.Limit(ratePerSec)
	burst := ratePerSec

	return &ChannelLimiters{
		limiters: map[domain.Channel]*rate.Limiter{
			domain.ChannelPush:  rate.NewLimiter(r, burst),
			domain.ChannelEmail: rate.NewLimiter(r, burst),
		},
	}
}

// Wait blocks until the channel's limiter grants a token.
// Called by the orchestrator immediately before each dispatcher send.
// Returns a non-nil error only if ctx is cancelled while waiting.
func (cl *ChannelLimiters) Wait(ctx context.Context, ch domain.Channel) error {
	return cl.limiters[ch].Wait(ctx)
}
