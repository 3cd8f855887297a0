package tts

import (
	"context"
	"errors"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/agentsay/internal/ttypes"
	"golang.org/x/time/rate"
)

// Limited throttles a synthesizer and retries retryable provider errors.
type Limited struct {
	next    ttypes.Synthesizer
	limiter *rate.Limiter
	retries int
	logger  *log.Logger
}

// NewLimited wraps next with a token bucket of perSecond requests and the
// given burst. A perSecond of zero or less disables throttling.
func NewLimited(next ttypes.Synthesizer, perSecond float64, burst, retries int, logger *log.Logger) *Limited {
	limit := rate.Inf
	if perSecond > 0 {
		limit = rate.Limit(perSecond)
	}
	if burst < 1 {
		burst = 1
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Limited{
		next:    next,
		limiter: rate.NewLimiter(limit, burst),
		retries: max(retries, 0),
		logger:  logger,
	}
}

func (l *Limited) Name() string   { return l.next.Name() }
func (l *Limited) Format() string { return l.next.Format() }

// Synthesize waits for a token, then calls the wrapped synthesizer.
func (l *Limited) Synthesize(ctx context.Context, req ttypes.SynthesisRequest) ([]byte, error) {
	for attempt := 0; ; attempt++ {
		if err := l.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		audio, err := l.next.Synthesize(ctx, req)
		if err == nil {
			return audio, nil
		}

		var pe *ProviderError
		if attempt >= l.retries || !errors.As(err, &pe) || !pe.Retryable() {
			return nil, err
		}
		l.logger.Debug("retrying synthesis", "provider", l.next.Name(), "attempt", attempt+1, "error", err)
	}
}
