// Package http serves the WhatsApp webhook and the health endpoints.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"

	"fiado/internal/core"
	applog "fiado/internal/log"
	"fiado/internal/middleware/ratelimit"
	"fiado/internal/middleware/security"
	"fiado/internal/middleware/trace"
	"fiado/internal/services"
)

// MaxBodyBytes caps webhook payloads.
const MaxBodyBytes = 1 << 20

// MessageHandler processes one inbound chat message.
type MessageHandler interface {
	Handle(ctx context.Context, msg core.InboundMessage) services.Outcome
}

// Config wires the server to the rest of the application.
type Config struct {
	Addr           string
	VerifyToken    string
	AppSecret      string        // Enables X-Hub-Signature-256 checks when set
	ProcessTimeout time.Duration // Budget for handling one message after the 200 is sent
	Handler        MessageHandler
	Ready          func(ctx context.Context) error
	Logger         *applog.Logger
	RateLimit      ratelimit.Config
}

type Server struct {
	http.Server

	cfg         Config
	logger      *applog.Logger
	rateLimiter *ratelimit.Limiter
	detector    *security.Detector
	tracer      *trace.Middleware
	started     time.Time

	mu           sync.Mutex
	closing      bool
	inflight     sync.WaitGroup
	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(cfg Config) *Server {
	if cfg.Logger == nil {
		cfg.Logger = applog.New(applog.DefaultConfig())
	}
	if cfg.ProcessTimeout <= 0 {
		cfg.ProcessTimeout = 30 * time.Second
	}
	if cfg.RateLimit.RequestsPerMinute <= 0 {
		cfg.RateLimit = ratelimit.DefaultConfig()
	}

	logger := cfg.Logger.WithComponent(applog.ComponentHTTP)
	s := &Server{
		cfg:         cfg,
		logger:      logger,
		rateLimiter: ratelimit.NewLimiter(cfg.RateLimit),
		detector:    security.NewDetector(),
		started:     time.Now(),
	}
	s.tracer = trace.NewMiddleware(logger, s.detector.ExtractClientIP)

	r := mux.NewRouter()
	r.HandleFunc("/webhook", s.handleVerify).Methods(http.MethodGet)
	r.HandleFunc("/webhook", s.handleWebhook).Methods(http.MethodPost)
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/readyz", s.handleReady).Methods(http.MethodGet)

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	limit := s.rateLimiter.Middleware(s.detector.ExtractClientIP, s.onRateLimit)

	var h http.Handler = r
	h = limit(h)
	h = s.flagSuspicious(h)
	h = headers.Middleware(h)
	h = s.tracer.Middleware(h)

	s.Server = http.Server{
		Addr:              cfg.Addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

func (s *Server) onRateLimit(w http.ResponseWriter, r *http.Request) {
	applog.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
		applog.FieldClientIP, s.detector.ExtractClientIP(r),
		applog.FieldPath, r.URL.Path)
	w.Header().Set("Retry-After", "60")
	http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
}

func (s *Server) flagSuspicious(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.detector.DetectSuspiciousRequest(r) {
			applog.FromContext(r.Context()).WarnContext(r.Context(), "Suspicious request",
				applog.FieldMethod, r.Method,
				applog.FieldPath, r.URL.Path)
		}
		next.ServeHTTP(w, r)
	})
}

// track registers one background message. It reports false once Shutdown
// has begun, so inflight.Add never races with inflight.Wait.
func (s *Server) track() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closing {
		return false
	}
	s.inflight.Add(1)
	return true
}

// Wait blocks until every message accepted so far has been processed.
func (s *Server) Wait() {
	s.inflight.Wait()
}

// Shutdown stops accepting requests, then waits for in-flight messages
// or ctx, whichever ends first.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.mu.Lock()
		s.closing = true
		s.mu.Unlock()

		s.rateLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)

		done := make(chan struct{})
		go func() {
			s.inflight.Wait()
			close(done)
		}()
		select {
		case <-done:
		case <-ctx.Done():
			s.logger.WarnContext(ctx, "Shutdown deadline reached with messages in flight")
			if shutdownErr == nil {
				shutdownErr = ctx.Err()
			}
		}
	})
	return shutdownErr
}
