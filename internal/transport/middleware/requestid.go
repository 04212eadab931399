package middleware

import (
	"net/http"

	"github.com/frahmantamala/leave-management/pkg/logger"
	"github.com/google/uuid"
)

const TraceHeader = "X-Trace-ID"

// RequestID propagates the caller's trace id, minting one when absent, into
// the request logger and the response headers.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceID := r.Header.Get(TraceHeader)
		if _, err := uuid.Parse(traceID); err != nil {
			traceID = uuid.NewString()
		}

		ctx := logger.With(r.Context(), "trace_id", traceID)
		w.Header().Set(TraceHeader, traceID)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
