package events

import "context"

type traceKey struct{}

// WithTrace stores the request id that ends up in Envelope.TraceID.
func WithTrace(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, traceKey{}, id)
}

func TraceID(ctx context.Context) string {
	id, _ := ctx.Value(traceKey{}).(string)
	return id
}
