package middleware

import (
	"context"
	"fmt"
	"strings"
	"time"

	"bloommarbella_api/metrics"
	"bloommarbella_api/pkg/logger"

	"golang.org/x/time/rate"
)

// RequestFunc - сигнатура исходящего запроса клиента поставщика.
type RequestFunc func(ctx context.Context, method, endpoint string, requestBody, response interface{}) error

type Middleware func(next RequestFunc) RequestFunc

// Chain applies middlewares so that the first one listed runs outermost.
func Chain(f RequestFunc, mws ...Middleware) RequestFunc {
	for i := len(mws) - 1; i >= 0; i-- {
		f = mws[i](f)
	}
	return f
}

// RateLimit blocks until the limiter admits the request or ctx ends.
func RateLimit(limiter *rate.Limiter) Middleware {
	return func(next RequestFunc) RequestFunc {
		return func(ctx context.Context, method, endpoint string, requestBody, response interface{}) error {
			if limiter != nil {
				if err := limiter.Wait(ctx); err != nil {
					return fmt.Errorf("rate limiter: %w", err)
				}
			}
			return next(ctx, method, endpoint, requestBody, response)
		}
	}
}

func Logging(log logger.Logger) Middleware {
	return func(next RequestFunc) RequestFunc {
		return func(ctx context.Context, method, endpoint string, requestBody, response interface{}) error {
			start := time.Now()
			err := next(ctx, method, endpoint, requestBody, response)
			if err != nil {
				log.Warn("%s %s failed after %v: %v", method, endpoint, time.Since(start), err)
				return err
			}
			log.Log("%s %s done in %v", method, endpoint, time.Since(start))
			return nil
		}
	}
}

// Metrics считает вызовы поставщика; query-часть в метку не попадает.
func Metrics() Middleware {
	return func(next RequestFunc) RequestFunc {
		return func(ctx context.Context, method, endpoint string, requestBody, response interface{}) error {
			start := time.Now()
			err := next(ctx, method, endpoint, requestBody, response)
			path, _, _ := strings.Cut(endpoint, "?")
			metrics.RecordSupplierRequest(path, err, time.Since(start))
			return err
		}
	}
}
