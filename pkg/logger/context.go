package logger

import "context"

type logCtxKey struct{}

var tracerKey = logCtxKey{}

// Tracer is request-scoped data that every log line carries.
type Tracer struct {
	RemoteAddr string `json:"remote_addr,omitempty"`
	AppTraceID string `json:"app_trace_id,omitempty"`
}

// Inject put Tracer object into context.
func Inject(ctx context.Context, stuff Tracer) context.Context {
	return context.WithValue(ctx, tracerKey, stuff)
}

// Extract get Tracer information from context.
func Extract(ctx context.Context) (Tracer, bool) {
	stuff, ok := ctx.Value(tracerKey).(Tracer)
	if !ok {
		return Tracer{}, false
	}

	return stuff, ok
}

// MustExtract like Extract but return empty Tracer instead of false condition.
func MustExtract(ctx context.Context) Tracer {
	stuff, _ := Extract(ctx)
	return stuff
}
