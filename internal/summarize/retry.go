package summarize

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.uber.org/zap"

	"github.com/thywilljoshua/pdf-summarizer/internal/ai"
	"github.com/thywilljoshua/pdf-summarizer/internal/metrics"
)

// call runs one provider request with rate limiting and retries. Only
// transient errors are retried. The request itself is detached from ctx so
// an in-flight call survives cancellation; ctx still stops waits between
// attempts.
func (p *Pipeline) call(ctx context.Context, req ai.Request) (string, int, error) {
	attempts := 0
	var last error
	op := func() (string, error) {
		if err := p.wait(ctx); err != nil {
			return "", backoff.Permanent(err)
		}
		attempts++
		callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.opts.CallTimeout)
		defer cancel()

		start := time.Now()
		out, err := p.s.Summarize(callCtx, req)
		metrics.ProviderCallDuration.WithLabelValues(p.opts.Provider).Observe(time.Since(start).Seconds())
		if err != nil {
			last = err
			kind := ai.KindOf(err)
			metrics.ProviderCallsTotal.WithLabelValues(p.opts.Provider, kind.String()).Inc()
			if kind != ai.Transient {
				return "", backoff.Permanent(err)
			}
			return "", err
		}
		metrics.ProviderCallsTotal.WithLabelValues(p.opts.Provider, "ok").Inc()
		return out, nil
	}

	out, err := backoff.Retry(ctx, op,
		backoff.WithBackOff(p.opts.BackOff()),
		backoff.WithMaxTries(uint(p.opts.MaxAttempts)),
		backoff.WithMaxElapsedTime(0),
		backoff.WithNotify(func(err error, next time.Duration) {
			metrics.ProviderRetriesTotal.WithLabelValues(p.opts.Provider).Inc()
			p.log.Warn("retrying provider call", zap.Error(err), zap.Duration("wait", next), zap.Int("attempt", attempts))
		}),
	)
	if err == nil {
		return out, attempts, nil
	}
	var perm *backoff.PermanentError
	if errors.As(err, &perm) {
		err = perm.Err
	}
	if last != nil && !errors.Is(err, last) {
		err = fmt.Errorf("%w (last error: %v)", err, last)
	}
	return "", attempts, err
}

func (p *Pipeline) wait(ctx context.Context) error {
	if p.limiter == nil {
		return ctx.Err()
	}
	return p.limiter.Wait(ctx)
}
