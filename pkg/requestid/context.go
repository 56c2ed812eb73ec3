package requestid

import "context"

type contextKey struct{ name string }

var idKey = contextKey{"request_id"}

// WithContext stores id in ctx.
func WithContext(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, idKey, id)
}

// FromContext returns the request id set by Middleware, or "" when absent.
func FromContext(ctx context.Context) string {
	id, _ := ctx.Value(idKey).(string)
	return id
}
