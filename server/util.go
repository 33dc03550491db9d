package server

import (
	"context"
	"errors"
	"time"

	"github.com/SaiNageswarS/go-bucket-browser/logger"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// RetryWithExponentialBackoff calls fn until it succeeds or maxRetries attempts fail,
// doubling the wait after each failure.
func RetryWithExponentialBackoff(ctx context.Context, maxRetries int, baseDelay time.Duration, fn func() error) error {
	limiter := rate.NewLimiter(rate.Every(baseDelay), 1)
	retries := 0

	for retries < maxRetries {
		// Wait for the next retry attempt
		if err := limiter.Wait(ctx); err != nil {
			return err
		}

		if err := fn(); err != nil {
			logger.Error("Failed attempt. ", zap.Int("Try", retries+1), zap.Error(err))
			retries++
			// Increase delay exponentially
			limiter.SetLimit(rate.Every(baseDelay * time.Duration(1<<retries)))
		} else {
			return nil
		}
	}

	return errors.New("all attempts failed")
}
