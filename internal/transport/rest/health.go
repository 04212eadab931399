package rest

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

type HealthStatus string

const (
	HealthHealthy   HealthStatus = "healthy"
	HealthUnhealthy HealthStatus = "unhealthy"
)

type HealthResponse struct {
	Status     HealthStatus          `json:"status"`
	CheckedAt  time.Time             `json:"checked_at"`
	Components map[string]CheckEntry `json:"components"`
}

type CheckEntry struct {
	Status     HealthStatus `json:"status"`
	Message    string       `json:"message,omitempty"`
	CheckedAt  time.Time    `json:"checked_at"`
	DurationMs int64        `json:"duration_ms"`
}

// Pinger is any dependency with a readiness probe: *sql.DB, a redis client
// adapter and so on.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// PingFunc adapts a plain function to Pinger.
type PingFunc func(ctx context.Context) error

func (f PingFunc) PingContext(ctx context.Context) error { return f(ctx) }

type HealthHandler struct {
	components map[string]Pinger
	timeout    time.Duration
}

func NewHealthHandler(components map[string]Pinger) *HealthHandler {
	return &HealthHandler{components: components, timeout: 2 * time.Second}
}

func (h *HealthHandler) pingHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "OK"})
}

// healthCheckHandler probes every component; any failure makes the whole
// service unhealthy.
func (h *HealthHandler) healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	resp := HealthResponse{
		Status:     HealthHealthy,
		Components: make(map[string]CheckEntry, len(h.components)),
	}
	for name, p := range h.components {
		start := time.Now()
		err := p.PingContext(ctx)
		entry := CheckEntry{
			Status:     HealthHealthy,
			CheckedAt:  time.Now(),
			DurationMs: time.Since(start).Milliseconds(),
		}
		if err != nil {
			entry.Status = HealthUnhealthy
			entry.Message = err.Error()
			resp.Status = HealthUnhealthy
		}
		resp.Components[name] = entry
	}
	resp.CheckedAt = time.Now()

	statusCode := http.StatusOK
	if resp.Status == HealthUnhealthy {
		statusCode = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(resp)
}
