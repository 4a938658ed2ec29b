package ratelimit

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"agristack/pkg/platform/httputil"
	"agristack/pkg/requestcontext"
)

// Middleware limits expensive endpoints per operator, falling back to the
// client IP for requests that carry no principal.
type Middleware struct {
	windows  *Windows
	logger   *slog.Logger
	disabled bool
}

type Option func(*Middleware)

// WithDisabled turns every limit into a pass-through.
func WithDisabled(disabled bool) Option {
	return func(m *Middleware) { m.disabled = disabled }
}

func New(windows *Windows, logger *slog.Logger, opts ...Option) *Middleware {
	m := &Middleware{windows: windows, logger: logger}
	for _, opt := range opts {
		opt(m)
	}
	if m.disabled {
		logger.Info("rate limiting disabled")
	}
	return m
}

type exceededResponse struct {
	Error       string `json:"error"`
	Description string `json:"error_description"`
	RetryAfter  int    `json:"retry_after"`
}

// PerOperator allows limit requests per caller in every trailing window.
// class namespaces the counters so separate endpoints do not share quota.
func (m *Middleware) PerOperator(class string, limit int, window time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if m.disabled || limit <= 0 {
				next.ServeHTTP(w, r)
				return
			}

			ctx := r.Context()
			key := class + ":ip:" + requestcontext.ClientIP(ctx)
			if p := requestcontext.Principal(ctx); p.IsAuthenticated() {
				key = class + ":op:" + p.OperatorID.String()
			}

			res := m.windows.Allow(key, limit, window)
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(res.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(res.ResetAt.Unix(), 10))

			if !res.Allowed {
				m.logger.WarnContext(ctx, "rate limit exceeded",
					"class", class,
					"key", key,
					"request_id", requestcontext.RequestID(ctx),
				)
				w.Header().Set("Retry-After", strconv.Itoa(res.RetryAfter))
				httputil.WriteJSON(w, http.StatusTooManyRequests, exceededResponse{
					Error:       "rate_limit_exceeded",
					Description: "Too many requests. Please try again later.",
					RetryAfter:  res.RetryAfter,
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
