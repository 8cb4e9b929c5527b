package middleware

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/thom899g/autonomous-cross-domain-knowledge-integration-engine/pkg/api"
)

// Timeout bounds each request with a deadline. Handlers observe it through
// the request context; a handler that overruns gets a 408 written on its
// behalf.
func Timeout(timeout time.Duration, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), timeout)
			defer cancel()

			r = r.WithContext(ctx)
			done := make(chan struct{})

			go func() {
				defer func() {
					if err := recover(); err != nil {
						logger.Error("Panic in request handler",
							zap.String("request_id", GetRequestIDFromRequest(r)),
							zap.Any("panic", err),
						)
					}
				}()

				next.ServeHTTP(w, r)
				close(done)
			}()

			select {
			case <-done:
			case <-ctx.Done():
				logger.Warn("Request timed out",
					zap.String("request_id", GetRequestIDFromRequest(r)),
					zap.String("path", r.URL.Path),
					zap.Duration("timeout", timeout),
				)
				if w.Header().Get("Content-Type") == "" {
					api.Error(w, http.StatusRequestTimeout, "Request timeout")
				}
			}
		})
	}
}
