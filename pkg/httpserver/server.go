package httpserver

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrymomot/ssokit/pkg/logger"
)

// Server runs an http.Server until its context ends or the process receives
// SIGINT/SIGTERM, then drains in-flight requests.
type Server struct {
	addr            string
	readTimeout     time.Duration
	writeTimeout    time.Duration
	idleTimeout     time.Duration
	shutdownTimeout time.Duration
	base            *http.Server
	logger          *slog.Logger
	onStart         []func(addr string)
	onShutdown      []func()

	mu   sync.Mutex
	srv  *http.Server
	once sync.Once
}

func New(opts ...Option) *Server {
	s := &Server{
		addr:            ":8080",
		shutdownTimeout: 10 * time.Second,
		logger:          logger.Noop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run serves handler and blocks until shutdown. Listen failures are joined
// with ErrStart.
func (s *Server) Run(ctx context.Context, handler http.Handler) error {
	srv, err := s.prepare(handler)
	if err != nil {
		return err
	}

	for _, fn := range s.onStart {
		fn(srv.Addr)
	}
	s.logger.InfoContext(ctx, "http server listening", slog.String("addr", srv.Addr))

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sig)

	var runErr error
	select {
	case runErr = <-errCh:
	case <-ctx.Done():
		_ = s.Shutdown(context.WithoutCancel(ctx))
		runErr = <-errCh
	case <-sig:
		_ = s.Shutdown(context.WithoutCancel(ctx))
		runErr = <-errCh
	}

	if runErr != nil && !errors.Is(runErr, http.ErrServerClosed) {
		s.logger.ErrorContext(ctx, "http server failed", logger.Error(runErr))
		return errors.Join(ErrStart, runErr)
	}
	return nil
}

func (s *Server) prepare(handler http.Handler) (*http.Server, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.srv != nil {
		return nil, errors.Join(ErrStart, errors.New("server already running"))
	}
	if handler == nil {
		handler = http.NotFoundHandler()
	}

	srv := s.base
	if srv == nil {
		srv = &http.Server{}
	}
	if srv.Addr == "" {
		srv.Addr = s.addr
	}
	if srv.ReadTimeout == 0 {
		srv.ReadTimeout = s.readTimeout
	}
	if srv.WriteTimeout == 0 {
		srv.WriteTimeout = s.writeTimeout
	}
	if srv.IdleTimeout == 0 {
		srv.IdleTimeout = s.idleTimeout
	}
	srv.Handler = handler
	s.srv = srv
	return srv, nil
}

// Shutdown drains the server within the shutdown timeout and runs the
// shutdown hooks. Only the first call has an effect.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	srv := s.srv
	s.mu.Unlock()
	if srv == nil {
		return nil
	}

	var err error
	s.once.Do(func() {
		ctx, cancel := context.WithTimeout(ctx, s.shutdownTimeout)
		defer cancel()
		err = srv.Shutdown(ctx)
		for _, fn := range s.onShutdown {
			fn()
		}
		s.logger.InfoContext(ctx, "http server stopped", slog.String("addr", srv.Addr))
	})

	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Join(ErrShutdown, err)
	}
	return nil
}
