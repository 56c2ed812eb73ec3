package session

import "context"

type contextKey struct{ name string }

var sessionKey = contextKey{"session"}

// WithSession stores the request's local session in ctx.
func WithSession(ctx context.Context, session *Session) context.Context {
	return context.WithValue(ctx, sessionKey, session)
}

func FromContext(ctx context.Context) (*Session, bool) {
	session, ok := ctx.Value(sessionKey).(*Session)
	return session, ok && session != nil
}
