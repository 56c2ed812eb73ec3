package httpserver

import (
	"log/slog"
	"net/http"
	"time"
)

type Option func(*Server)

func WithAddr(addr string) Option {
	if addr == "" {
		panic("httpserver: empty address")
	}
	return func(s *Server) { s.addr = addr }
}

func WithReadTimeout(d time.Duration) Option {
	mustPositive("read timeout", d)
	return func(s *Server) { s.readTimeout = d }
}

func WithWriteTimeout(d time.Duration) Option {
	mustPositive("write timeout", d)
	return func(s *Server) { s.writeTimeout = d }
}

func WithIdleTimeout(d time.Duration) Option {
	mustPositive("idle timeout", d)
	return func(s *Server) { s.idleTimeout = d }
}

func WithShutdownTimeout(d time.Duration) Option {
	mustPositive("shutdown timeout", d)
	return func(s *Server) { s.shutdownTimeout = d }
}

// WithServer runs srv instead of a fresh http.Server. Addr and timeouts
// already set on srv win over the options.
func WithServer(srv *http.Server) Option {
	if srv == nil {
		panic("httpserver: nil http.Server")
	}
	return func(s *Server) { s.base = srv }
}

// WithLogger sets the logger for lifecycle events. Nil keeps the discard logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithShutdownHook runs fn after the listener closed, e.g. to close the
// session backend once in-flight requests are done.
func WithShutdownHook(fn func()) Option {
	if fn == nil {
		panic("httpserver: nil shutdown hook")
	}
	return func(s *Server) { s.onShutdown = append(s.onShutdown, fn) }
}

// WithStartHook runs fn once the server is about to accept connections.
func WithStartHook(fn func(addr string)) Option {
	if fn == nil {
		panic("httpserver: nil start hook")
	}
	return func(s *Server) { s.onStart = append(s.onStart, fn) }
}

func mustPositive(name string, d time.Duration) {
	if d <= 0 {
		panic("httpserver: " + name + " must be positive")
	}
}
