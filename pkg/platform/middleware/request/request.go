// Package request assigns each incoming request a correlation ID. The ID is
// honored from the X-Request-ID header when a gateway already set one, echoed
// back on the response, and stored in the context for log and audit lines.
package request

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"opsdesk/pkg/requestcontext"
)

const headerName = "X-Request-ID"

// Middleware ensures every request carries a request ID.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(headerName)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set(headerName, requestID)
		ctx := requestcontext.WithRequestID(r.Context(), requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetRequestID retrieves the request ID from the context.
func GetRequestID(ctx context.Context) string {
	return requestcontext.RequestID(ctx)
}
