package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"cruce/internal/log"
	"cruce/internal/middleware/ratelimit"
	"cruce/internal/middleware/security"
	"cruce/internal/middleware/trace"
	"cruce/internal/session"
	"cruce/internal/source"
)

// Config carries the optional collaborators of the server.
type Config struct {
	RateLimitRPM int
	// AllowOrigin is echoed in Access-Control-Allow-Origin when set.
	AllowOrigin string
	// Ready backs /readyz. Nil means always ready.
	Ready    func(ctx context.Context) error
	Notifier session.Notifier
	Logger   *log.Logger
}

type Server struct {
	http.Server
	src      source.Source
	ready    func(ctx context.Context) error
	notifier session.Notifier
	logger   *log.Logger
	limiter  *ratelimit.Limiter
	detector *security.Detector
	tracer   *trace.Middleware

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run
// http.Server.
func NewServer(addr string, src source.Source, cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = log.Discard()
	}

	s := &Server{
		src:      src,
		ready:    cfg.Ready,
		notifier: cfg.Notifier,
		logger:   logger.WithComponent(log.ComponentHTTP),
		limiter:  ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: cfg.RateLimitRPM}),
		detector: security.NewDetector(),
	}
	s.tracer = trace.NewMiddleware(logger, s.detector.ExtractClientIP)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.Handle("GET /api/timeline", s.api(s.handleTimeline))
	mux.Handle("GET /api/suggest", s.api(s.handleSuggest))
	mux.Handle("GET /api/declarantes", s.api(s.handleDeclarants))
	mux.Handle("GET /api/cruce", s.api(s.handleCross))
	mux.Handle("GET /api/conflicto", s.api(s.handleConflict))

	headersCfg := security.DefaultHeadersConfig()
	headersCfg.AllowOrigin = cfg.AllowOrigin
	headers := security.NewHeadersMiddleware(headersCfg)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           s.tracer.Middleware(headers.Middleware(mux)),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// api wraps an /api/ handler with probe rejection and the per-IP rate limit.
func (s *Server) api(h http.HandlerFunc) http.Handler {
	limited := s.limiter.Middleware(s.detector.ExtractClientIP, func(w http.ResponseWriter, r *http.Request) {
		log.FromContext(r.Context()).WithComponent(log.ComponentRateLimit).WarnContext(r.Context(), "Rate limit exceeded",
			log.FieldClientIP, s.detector.ExtractClientIP(r),
			log.FieldPath, r.URL.Path)
		_ = TooManyRequestsError("Demasiadas solicitudes. Intenta de nuevo en un minuto.").Write(w)
	})
	return limited(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.detector.DetectSuspiciousRequest(r) {
			log.FromContext(r.Context()).WarnContext(r.Context(), "Suspicious request rejected",
				log.FieldClientIP, s.detector.ExtractClientIP(r),
				log.FieldPath, r.URL.Path,
				log.FieldQuery, r.URL.RawQuery)
			_ = BadRequestError("Solicitud no válida").Write(w)
			return
		}
		h(w, r)
	}))
}

// Shutdown gracefully shuts down the server and cleanup routines
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.logger.Info("HTTP server shutting down", log.FieldOperation, log.OpShutdown)
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
