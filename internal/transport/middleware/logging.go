package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/frahmantamala/leave-management/internal/core/metrics"
	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
)

// sensitiveFields are redacted from request and response logs. Leave
// reasons and approver remarks can carry medical or personal detail.
var sensitiveFields = []string{
	"authorization",
	"token",
	"secret",
	"key",
	"cookie",
	"reason",
	"remarks",
}

// maxLoggedBody caps how much of a body is parsed for logging.
const maxLoggedBody = 8 << 10

func LoggingMiddleware(base *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			reqID := middleware.GetReqID(r.Context())

			lg := base.With("trace_id", w.Header().Get(TraceHeader))
			logRequest(lg, r, reqID)

			ww := &responseWriter{ResponseWriter: w}
			next.ServeHTTP(ww, r)

			duration := time.Since(start)
			status := ww.status()
			metrics.RecordHTTPRequest(r.Method, routePattern(r), status, duration)
			logResponse(r.Context(), lg, ww, status, duration, reqID)
		})
	}
}

func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}

// responseWriter records the status and the leading bytes of the body.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	size       int
	body       bytes.Buffer
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	if room := maxLoggedBody - rw.body.Len(); room > 0 {
		rw.body.Write(b[:min(room, len(b))])
	}
	rw.size += len(b)
	return rw.ResponseWriter.Write(b)
}

func (rw *responseWriter) status() int {
	if rw.statusCode == 0 {
		return http.StatusOK
	}
	return rw.statusCode
}

func logRequest(lg *slog.Logger, r *http.Request, reqID string) {
	var bodyBytes []byte
	if r.Body != nil {
		bodyBytes, _ = io.ReadAll(r.Body)
		r.Body = io.NopCloser(bytes.NewReader(bodyBytes))
	}

	lg.Info("incoming request",
		"request_id", reqID,
		"method", r.Method,
		"path", r.URL.Path,
		"query", r.URL.RawQuery,
		"remote_addr", r.RemoteAddr,
		"user_agent", r.UserAgent(),
		"headers", filterSensitiveHeaders(r.Header),
		"body", filterSensitiveBody(bodyBytes),
	)
}

func logResponse(ctx context.Context, lg *slog.Logger, rw *responseWriter, status int, duration time.Duration, reqID string) {
	level := slog.LevelInfo
	switch {
	case status >= 500:
		level = slog.LevelError
	case status >= 400:
		level = slog.LevelWarn
	}

	attrs := []any{
		"request_id", reqID,
		"status_code", status,
		"duration_ms", duration.Milliseconds(),
		"response_size", rw.size,
	}
	// Successful bodies are lists and records already covered by the
	// service logs; only errors are worth echoing.
	if status >= 400 {
		attrs = append(attrs, "body", filterSensitiveBody(rw.body.Bytes()))
	}
	lg.Log(ctx, level, "response", attrs...)
}

func isSensitive(name string) bool {
	lower := strings.ToLower(name)
	for _, field := range sensitiveFields {
		if strings.Contains(lower, field) {
			return true
		}
	}
	return false
}

func filterSensitiveHeaders(headers http.Header) map[string]string {
	filtered := make(map[string]string, len(headers))
	for name, values := range headers {
		if isSensitive(name) {
			filtered[name] = "[FILTERED]"
			continue
		}
		filtered[name] = strings.Join(values, ", ")
	}
	return filtered
}

// filterSensitiveBody masks sensitive keys in a JSON body. Anything that
// is not JSON is logged only by size.
func filterSensitiveBody(body []byte) string {
	if len(body) == 0 {
		return ""
	}
	if len(body) > maxLoggedBody {
		return "[TRUNCATED]"
	}

	var data interface{}
	if err := json.Unmarshal(body, &data); err != nil {
		return "[NON-JSON BODY]"
	}

	out, err := json.Marshal(filterSensitiveJSON(data))
	if err != nil {
		return "[ERROR - Failed to marshal filtered JSON]"
	}
	return string(out)
}

func filterSensitiveJSON(data interface{}) interface{} {
	switch v := data.(type) {
	case map[string]interface{}:
		filtered := make(map[string]interface{}, len(v))
		for key, value := range v {
			if isSensitive(key) {
				filtered[key] = "[FILTERED]"
				continue
			}
			filtered[key] = filterSensitiveJSON(value)
		}
		return filtered
	case []interface{}:
		filtered := make([]interface{}, len(v))
		for i, item := range v {
			filtered[i] = filterSensitiveJSON(item)
		}
		return filtered
	default:
		return v
	}
}
