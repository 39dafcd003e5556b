// Package server exposes the Mailgun-compatible HTTP API and hands message
// requests to the dispatcher.
package server

import (
	"context"
	"crypto/tls"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/shineum/mailgun-ses-bridge/internal/dispatch"
	"github.com/shineum/mailgun-ses-bridge/internal/logging"
)

// shutdownTimeout is the maximum time to wait for in-flight requests
// during graceful shutdown.
const shutdownTimeout = 30 * time.Second

// defaultMaxMemory bounds the in-memory part of multipart bodies.
const defaultMaxMemory = 32 << 20

// Dispatcher delivers a normalized send request.
type Dispatcher interface {
	Dispatch(ctx context.Context, req *dispatch.Request) *dispatch.Result
}

// ServerConfig holds the configuration for an HTTP server.
type ServerConfig struct {
	// ListenAddr is the address to listen on (e.g., "0.0.0.0:3001").
	ListenAddr string

	// Dispatcher delivers accepted message requests.
	Dispatcher Dispatcher

	// DefaultSender is used when a request has no "from" field.
	DefaultSender string

	// TLSConfig enables HTTPS when set.
	TLSConfig *tls.Config

	// Logger receives request and lifecycle logs. Nil discards them.
	Logger *slog.Logger

	// MaxMemory bounds multipart parsing; zero means 32 MB.
	MaxMemory int64

	// Now is the clock used for synthetic message ids; nil means time.Now.
	Now func() time.Time
}

// Server is an HTTP server that speaks the Mailgun messages API and
// delegates delivery to a Dispatcher.
type Server struct {
	config ServerConfig
	logger *slog.Logger
	router chi.Router

	mu       sync.Mutex
	listener net.Listener
}

// New creates a new Server with the given configuration.
func New(cfg ServerConfig) *Server {
	if cfg.Logger == nil {
		cfg.Logger = logging.Discard()
	}
	if cfg.MaxMemory <= 0 {
		cfg.MaxMemory = defaultMaxMemory
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	s := &Server{
		config: cfg,
		logger: cfg.Logger,
	}
	s.router = s.routes()
	return s
}

// Handler returns the HTTP handler serving every route.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.NotFound(s.handleCatchAll)
	r.MethodNotAllowed(s.handleCatchAll)

	r.Get("/health", s.handleHealth)

	r.Route("/v3/{domain}", func(r chi.Router) {
		r.Post("/messages", s.handleSendMessage)
		r.Post("/messages.mime", s.handleSendMIME)
		r.Get("/messages", s.handleListMessages)
		r.Get("/events", s.handleEvents)
	})

	return r
}

// ListenAndServe starts the HTTP server and blocks until the context is cancelled.
// On context cancellation, it stops accepting new connections and waits up to
// 30 seconds for in-flight requests to complete.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.ListenAddr)
	if err != nil {
		return err
	}
	if s.config.TLSConfig != nil {
		ln = tls.NewListener(ln, s.config.TLSConfig)
	}

	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()

	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		ErrorLog:          slog.NewLogLogger(s.logger.Handler(), slog.LevelError),
	}

	logging.Minimal(s.logger, "HTTP server listening",
		"addr", ln.Addr().String(),
		"tls_enabled", s.config.TLSConfig != nil,
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logging.Minimal(s.logger, "shutting down HTTP server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.logger.Warn("shutdown timeout reached, forcing close", "error", err)
		srv.Close()
	}

	<-errCh
	return nil
}

// Addr returns the listener address, or empty string if not listening.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return ""
}
