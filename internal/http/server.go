package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/rs/cors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"salestats/internal/log"
	"salestats/internal/middleware/security"
	"salestats/internal/middleware/trace"
	"salestats/internal/ports"
)

const (
	readHeaderTimeout = 10 * time.Second
	idleTimeout       = 120 * time.Second
)

type Server struct {
	http.Server
	queries        Queries
	store          ports.RowCounter
	logger         *log.Logger
	trustedProxies []string

	shutdownOnce sync.Once
}

type Option func(*Server)

// WithTrustedProxies adds proxy networks whose X-Forwarded-For and X-Real-IP
// headers identify the client in request logs.
func WithTrustedProxies(cidrs []string) Option {
	return func(s *Server) { s.trustedProxies = cidrs }
}

// NewServer configures routes and middleware, returning a ready-to-run http.Server.
// store backs the readiness probe and may be nil.
func NewServer(addr string, queries Queries, store ports.RowCounter, logger *log.Logger, opts ...Option) *Server {
	logger = logger.WithComponent(log.ComponentHTTP)
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:              addr,
			ReadHeaderTimeout: readHeaderTimeout,
			IdleTimeout:       idleTimeout,
		},
		queries: queries,
		store:   store,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(s)
	}

	mux.HandleFunc("GET /transactions", s.handleTransactions)
	mux.HandleFunc("GET /statistics", s.handleStatistics)
	mux.HandleFunc("GET /bar-chart", s.handleBarChart)
	mux.HandleFunc("GET /pie-chart", s.handlePieChart)
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	s.Handler = s.middleware(mux)
	return s
}

// middleware wraps h, outermost first: CORS, OpenTelemetry, request tracing,
// security headers, then the request-scoped logger.
func (s *Server) middleware(h http.Handler) http.Handler {
	clientIPs := security.NewClientIPResolver()
	for _, cidr := range s.trustedProxies {
		if err := clientIPs.AddTrustedProxy(cidr); err != nil {
			s.logger.Warn("Ignoring trusted proxy", log.FieldError, err.Error())
		}
	}

	h = log.RequestIDMiddleware(trace.RequestID)(h)
	h = log.Middleware(s.logger)(h)
	h = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(h)
	h = trace.NewMiddleware(s.logger, clientIPs.ClientIP).Middleware(h)
	h = otelhttp.NewHandler(h, "salestats",
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return r.Method + " " + r.URL.Path
		}))
	return cors.AllowAll().Handler(h)
}

// Shutdown gracefully stops the server. Only the first call has any effect.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.logger.InfoContext(ctx, "Shutting down HTTP server", log.FieldOperation, log.OpShutdown)
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
