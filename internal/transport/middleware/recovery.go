package middleware

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/frahmantamala/leave-management/internal"
)

// RecoveryMiddleware turns a panic into a 500 without leaking the panic
// value to the client.
func RecoveryMiddleware(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					if err == http.ErrAbortHandler {
						panic(err)
					}
					logger.Error("panic recovered",
						"error", err,
						"method", r.Method,
						"url", r.URL.String(),
						"trace_id", w.Header().Get(TraceHeader),
						"stack", string(debug.Stack()))

					writeAppError(w, internal.NewInternalError("internal server error", nil))
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}

func writeAppError(w http.ResponseWriter, appErr *internal.AppError) {
	status, body := appErr.ToHTTPResponse()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
