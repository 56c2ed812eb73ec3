package clientip

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/dmitrymomot/ssokit/pkg/logger"
)

type contextKey struct{ name string }

var ipKey = contextKey{"client_ip"}

// Middleware resolves the client address once per request and stores it in
// the request context; read it back with FromContext.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ip := GetIP(r); ip != "" {
			r = r.WithContext(WithIP(r.Context(), ip))
		}
		next.ServeHTTP(w, r)
	})
}

func WithIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, ipKey, ip)
}

// FromContext returns the address stored by Middleware, or "".
func FromContext(ctx context.Context) string {
	ip, _ := ctx.Value(ipKey).(string)
	return ip
}

// LoggerExtractor adds the resolved client IP to log records.
func LoggerExtractor() logger.ContextExtractor {
	return func(ctx context.Context) (slog.Attr, bool) {
		if ip := FromContext(ctx); ip != "" {
			return slog.String("client_ip", ip), true
		}
		return slog.Attr{}, false
	}
}
