package assets

import (
	"context"
	"errors"
	"time"

	"github.com/juju/clock"
	"github.com/juju/retry"
	"github.com/rs/zerolog/log"

	"github.com/portfolio-site/backend/errs"
)

// Retrying gives an inner Store a bounded number of attempts. Exhaustion surfaces as
// errs.ErrAssetUpload; validation and context errors are returned on the first attempt.
type Retrying struct {
	inner    Store
	attempts int
	delay    time.Duration
	clock    clock.Clock
}

func NewRetrying(inner Store, attempts int, delay time.Duration, clk clock.Clock) *Retrying {
	if attempts < 1 {
		attempts = 1
	}
	if delay <= 0 {
		delay = time.Millisecond
	}
	if clk == nil {
		clk = clock.WallClock
	}
	return &Retrying{inner: inner, attempts: attempts, delay: delay, clock: clk}
}

func (r *Retrying) Put(ctx context.Context, u Upload) (string, error) {
	logger := log.With().Str("component", "assets").Str("filename", u.Filename).Logger()

	var url string
	var lastErr error
	err := retry.Call(retry.CallArgs{
		Func: func() error {
			url, lastErr = r.inner.Put(ctx, u)
			return lastErr
		},
		IsFatalError: func(err error) bool {
			return ctx.Err() != nil || errs.IsValidationError(err) ||
				errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
		},
		NotifyFunc: func(err error, attempt int) {
			logger.Warn().Err(err).Int("attempt", attempt).Msg("asset upload attempt failed")
		},
		Attempts: r.attempts,
		Delay:    r.delay,
		Clock:    r.clock,
		Stop:     ctx.Done(),
	})
	if err == nil {
		return url, nil
	}

	if ctx.Err() != nil {
		return "", ctx.Err()
	}
	if retry.IsAttemptsExceeded(err) {
		return "", errs.NewAssetUploadError(r.attempts, retry.LastError(err))
	}
	if errs.IsValidationError(lastErr) {
		return "", lastErr
	}
	return "", errs.NewAssetUploadError(r.attempts, err)
}
