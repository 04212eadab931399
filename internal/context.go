package internal

import (
	"context"
	"time"
)

// ShutdownTimeout bounds how long a stopping process waits for in-flight
// requests and async event handlers.
const ShutdownTimeout = 30 * time.Second

// ShutdownContext is detached from ctx's cancellation, which has usually
// fired by the time a process shuts down, and keeps its values.
func ShutdownContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), ShutdownTimeout)
}
