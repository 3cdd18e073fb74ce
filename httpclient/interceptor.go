package httpclient

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// Interceptor wraps the next round tripper in the chain.
type Interceptor func(next http.RoundTripper) http.RoundTripper

// RoundTripperFunc adapts a function to http.RoundTripper.
type RoundTripperFunc func(*http.Request) (*http.Response, error)

func (f RoundTripperFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

// Logging logs every exchange at debug level and failures at warn level.
func Logging(logger *slog.Logger) Interceptor {
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(req *http.Request) (*http.Response, error) {
			start := time.Now()
			resp, err := next.RoundTrip(req)
			elapsed := time.Since(start)

			if err != nil {
				logger.Warn("HTTP request failed",
					"method", req.Method,
					"url", req.URL.String(),
					"elapsed", elapsed,
					"error", err,
				)
				return nil, err
			}

			logger.Debug("HTTP request",
				"method", req.Method,
				"url", req.URL.String(),
				"status", resp.StatusCode,
				"elapsed", elapsed,
			)
			return resp, nil
		})
	}
}

// RateLimit blocks each request until limiter admits it or the request context ends.
func RateLimit(limiter *rate.Limiter) Interceptor {
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(req *http.Request) (*http.Response, error) {
			if err := limiter.Wait(req.Context()); err != nil {
				return nil, err
			}
			return next.RoundTrip(req)
		})
	}
}

// RequestID sets header to a random UUID unless the request already carries one.
func RequestID(header string) Interceptor {
	if header == "" {
		header = "X-Request-Id"
	}

	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(req *http.Request) (*http.Response, error) {
			if req.Header.Get(header) != "" {
				return next.RoundTrip(req)
			}

			req = req.Clone(req.Context())
			req.Header.Set(header, uuid.NewString())
			return next.RoundTrip(req)
		})
	}
}
