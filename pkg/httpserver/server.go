package httpserver

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrymomot/kbm/pkg/logger"
)

type closer struct {
	name string
	fn   func() error
}

type config struct {
	addr            string
	readTimeout     time.Duration
	writeTimeout    time.Duration
	idleTimeout     time.Duration
	shutdownTimeout time.Duration
	logger          *slog.Logger
	onStart         []func(addr string)
	closers         []closer
}

func defaultConfig() *config {
	return &config{
		addr:            ":8080",
		readTimeout:     15 * time.Second,
		shutdownTimeout: 10 * time.Second,
	}
}

// Server wraps http.Server with graceful shutdown and ordered release of
// the resources the handlers depend on.
type Server struct {
	cfg  *config
	log  *slog.Logger
	once sync.Once

	mu  sync.Mutex
	srv *http.Server
	ln  net.Listener
}

func New(opts ...Option) *Server {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	log := cfg.logger
	if log == nil {
		log = logger.Discard()
	}
	return &Server{cfg: cfg, log: log.With(logger.Component("httpserver"))}
}

// Addr returns the bound address once Run is listening.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return ""
	}
	return s.ln.Addr().String()
}

// Run serves handler until ctx is done, SIGINT or SIGTERM arrives, or
// Shutdown is called. Registered closers run before Run returns.
func (s *Server) Run(ctx context.Context, handler http.Handler) error {
	if handler == nil {
		handler = http.NotFoundHandler()
	}

	s.mu.Lock()
	if s.srv != nil {
		s.mu.Unlock()
		return errors.Join(ErrStart, ErrAlreadyRunning)
	}
	ln, err := net.Listen("tcp", s.cfg.addr)
	if err != nil {
		s.mu.Unlock()
		return errors.Join(ErrStart, err)
	}
	srv := &http.Server{
		Handler:           handler,
		ReadTimeout:       s.cfg.readTimeout,
		ReadHeaderTimeout: s.cfg.readTimeout,
		WriteTimeout:      s.cfg.writeTimeout,
		IdleTimeout:       s.cfg.idleTimeout,
		ErrorLog:          slog.NewLogLogger(s.log.Handler(), slog.LevelWarn),
	}
	s.srv, s.ln = srv, ln
	s.mu.Unlock()

	addr := ln.Addr().String()
	s.log.InfoContext(ctx, "http server started", slog.String("addr", addr))
	for _, fn := range s.cfg.onStart {
		fn(addr)
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(stop)

	var runErr error
	select {
	case <-ctx.Done():
		runErr = s.Shutdown(context.WithoutCancel(ctx))
	case sig := <-stop:
		s.log.InfoContext(ctx, "received signal", slog.String("signal", sig.String()))
		runErr = s.Shutdown(context.WithoutCancel(ctx))
	case err := <-errCh:
		_ = s.Shutdown(context.WithoutCancel(ctx))
		return errors.Join(ErrStart, err)
	}

	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		runErr = errors.Join(runErr, ErrStart, err)
	}
	return runErr
}

// Shutdown drains in-flight requests within the shutdown timeout and then
// runs the closers. Repeated calls are no-ops.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.once.Do(func() {
		s.mu.Lock()
		srv := s.srv
		s.mu.Unlock()

		if srv != nil {
			sctx, cancel := context.WithTimeout(ctx, s.cfg.shutdownTimeout)
			defer cancel()
			if serr := srv.Shutdown(sctx); serr != nil && !errors.Is(serr, http.ErrServerClosed) {
				err = errors.Join(ErrShutdown, serr)
			}
		}
		s.closeResources(ctx)
		s.log.InfoContext(ctx, "http server stopped")
	})
	return err
}

func (s *Server) closeResources(ctx context.Context) {
	for _, c := range slices.Backward(s.cfg.closers) {
		if err := c.fn(); err != nil {
			s.log.ErrorContext(ctx, "failed to close resource", slog.String("resource", c.name), logger.Error(err))
		}
	}
}
