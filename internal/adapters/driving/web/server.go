// Package web serves the question page and its JSON API.
package web

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
	"github.com/custodia-labs/docqa/internal/logger"
)

//go:embed templates/index.html
var templates embed.FS

// Default server values.
const (
	DefaultAddr        = "127.0.0.1:8501"
	DefaultTitle       = "docqa"
	DefaultReadTimeout = 10 * time.Second

	// shutdownTimeout bounds waiting for in-flight requests on shutdown.
	shutdownTimeout = 5 * time.Second
)

// Config configures the web server.
type Config struct {
	Addr        string
	Title       string
	RateLimit   float64
	RateBurst   int
	ReadTimeout time.Duration

	// Fallback is shown when a request is rate limited.
	Fallback string
}

// ConfigFromSettings builds a Config from server settings.
func ConfigFromSettings(s domain.ServerSettings) Config {
	return Config{
		Addr:        s.Addr,
		Title:       s.Title,
		RateLimit:   s.RateLimit,
		RateBurst:   s.RateBurst,
		ReadTimeout: s.ReadTimeout,
	}
}

// Server exposes a query pipeline over HTTP.
type Server struct {
	cfg      Config
	pipeline driving.QueryPipeline
	page     *template.Template
	limiter  *rateLimiter

	mu       sync.Mutex
	server   *http.Server
	listener net.Listener
}

// New creates a server for pipeline.
func New(cfg Config, pipeline driving.QueryPipeline) (*Server, error) {
	if pipeline == nil {
		return nil, fmt.Errorf("%w: web server needs a pipeline", domain.ErrInvalidInput)
	}
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}
	if cfg.Title == "" {
		cfg.Title = DefaultTitle
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = DefaultReadTimeout
	}
	if cfg.Fallback == "" {
		cfg.Fallback = domain.DefaultFallbackAnswer
	}

	page, err := template.ParseFS(templates, "templates/index.html")
	if err != nil {
		return nil, fmt.Errorf("parse page template: %w", err)
	}

	return &Server{
		cfg:      cfg,
		pipeline: pipeline,
		page:     page,
		limiter:  newRateLimiter(cfg.RateLimit, cfg.RateBurst),
	}, nil
}

// Handler returns the routes. The page and the ask endpoint are rate limited;
// a limited request still gets the fallback answer.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	page := s.limiter.Middleware(http.HandlerFunc(s.handlePage), http.HandlerFunc(s.handlePageLimited))
	ask := http.HandlerFunc(s.handleAskLimited)

	mux.Handle("GET /{$}", page)
	mux.Handle("GET /api/ask", s.limiter.Middleware(http.HandlerFunc(s.handleAskGet), ask))
	mux.Handle("POST /api/ask", s.limiter.Middleware(http.HandlerFunc(s.handleAskPost), ask))
	mux.HandleFunc("GET /api/stats", s.handleStats)
	mux.HandleFunc("GET /healthz", s.handleHealth)

	return mux
}

// Start listens on the configured address and serves in the background.
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.server != nil {
		return errors.New("web server already started")
	}

	listener, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.cfg.Addr, err)
	}

	s.listener = listener
	s.server = &http.Server{
		Handler:           s.Handler(),
		ReadTimeout:       s.cfg.ReadTimeout,
		ReadHeaderTimeout: s.cfg.ReadTimeout,
		IdleTimeout:       2 * time.Minute,
	}

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("web server: %v", err)
		}
	}()

	logger.Info("Serving on http://%s", listener.Addr())
	return nil
}

// Run starts the server and blocks until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	if err := s.Start(); err != nil {
		return err
	}
	<-ctx.Done()
	return s.Stop()
}

// Stop shuts the server down, waiting briefly for in-flight requests.
func (s *Server) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	err := s.server.Shutdown(ctx)
	s.server = nil
	return err
}

// Addr returns the address the server listens on, or the configured
// address before Start.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.cfg.Addr
}
