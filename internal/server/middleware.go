package server

import (
	"context"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/stagegraph/pkg/observability"
)

// RequestIDHeader carries the request id in both directions.
const RequestIDHeader = "X-Request-ID"

type requestIDKey struct{}

// RequestID returns the request id stored in ctx, or "".
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// requestLogger assigns each request an id, echoes it in the response and
// logs the request with its final status.
func requestLogger(logger *log.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := r.Header.Get(RequestIDHeader)
			if requestID == "" {
				requestID = uuid.New().String()
			}
			ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)
			r = r.WithContext(ctx)
			w.Header().Set(RequestIDHeader, requestID)

			wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
			reqLog := logger.With("request_id", requestID, "method", r.Method, "path", r.URL.Path)

			start := time.Now()
			observability.HTTP().OnRequest(ctx, r.Method, r.URL.Path)
			reqLog.Debug("request started", "remote", r.RemoteAddr)

			next.ServeHTTP(wrapped, r)

			duration := time.Since(start)
			observability.HTTP().OnResponse(ctx, r.Method, r.URL.Path, wrapped.statusCode, duration)
			if wrapped.statusCode >= 500 {
				reqLog.Error("request failed", "status", wrapped.statusCode, "duration", duration)
			} else {
				reqLog.Info("request completed", "status", wrapped.statusCode, "duration", duration)
			}
		})
	}
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
