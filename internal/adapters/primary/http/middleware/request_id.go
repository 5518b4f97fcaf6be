package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/quickbite/order-hub/internal/infrastructure/logging"
)

const (
	// RequestIDKey is the context key under which the request ID is stored.
	RequestIDKey contextKey = "request_id"
	// RequestIDHeader carries the request ID on the wire.
	RequestIDHeader = "X-Request-ID"
)

// RequestID guarantees every request has an ID: an inbound X-Request-ID is
// trusted and echoed back, otherwise a fresh UUID is minted. The ID lands in
// the context twice, once for the access log line and once for the slog
// context handler so downstream records carry it too.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}

		w.Header().Set(RequestIDHeader, requestID)

		ctx := context.WithValue(r.Context(), RequestIDKey, requestID)
		ctx = logging.WithRequestID(ctx, requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetRequestID returns the request ID from ctx, or "" outside a request.
func GetRequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(RequestIDKey).(string); ok {
		return requestID
	}
	return ""
}
