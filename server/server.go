// Package server exposes the movie catalog and the producer interval report over HTTP.
package server

import (
	"context"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"

	"github.com/liznear/golden-raspberry/model"
	"github.com/liznear/golden-raspberry/observability"
	"github.com/liznear/golden-raspberry/table"
)

// Catalog is the movie store served by Server. *table.DB implements it.
type Catalog interface {
	Insert(m model.Movie) (model.Movie, error)
	Get(id int64) (model.Movie, error)
	Update(id int64, patch model.MoviePatch) (model.Movie, error)
	Delete(id int64) error
	List(f table.Filter) []model.Movie
	Producers() []model.ProducerSummary
	WinFacts(ctx context.Context) ([]model.WinFact, error)
	Ready(ctx context.Context) error
}

// Server routes HTTP requests to a Catalog.
type Server struct {
	catalog Catalog
	cfg     *Config
	handler http.Handler
}

// New builds the server and its middleware chain.
func New(catalog Catalog, opts ...Option) *Server {
	cfg := &Config{
		Logger: zap.NewNop(),
		Tracer: nooptrace.NewTracerProvider().Tracer("movies"),
	}
	for _, opt := range opts {
		opt(cfg)
	}

	s := &Server{catalog: catalog, cfg: cfg}

	var h http.Handler = s.routes()
	if cfg.Metrics != nil {
		h = observability.MetricsMiddleware(cfg.Metrics, h)
	}
	h = s.accessLog(h)
	h = observability.TracingMiddleware(cfg.Tracer, h)
	h = observability.RequestIDMiddleware(h)
	s.handler = h
	return s
}

func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /movies", s.listMovies)
	mux.HandleFunc("POST /movies", s.createMovie)
	mux.HandleFunc("GET /movies/{id}", s.getMovie)
	mux.HandleFunc("PUT /movies/{id}", s.updateMovie)
	mux.HandleFunc("DELETE /movies/{id}", s.deleteMovie)
	mux.HandleFunc("GET /movies/winners/intervals", s.intervals)
	mux.HandleFunc("GET /producers", s.producers)

	mux.Handle("GET /healthz", observability.HealthHandler())
	mux.Handle("GET /readyz", observability.ReadyHandler(func(ctx context.Context) error {
		return s.catalog.Ready(ctx)
	}))
	if s.cfg.Metrics != nil {
		mux.Handle("GET /metrics", s.cfg.Metrics.Handler())
	}
	return mux
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(rw http.ResponseWriter, hr *http.Request) {
	s.handler.ServeHTTP(rw, hr)
}

func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(rw http.ResponseWriter, hr *http.Request) {
		start := time.Now()
		sw := observability.NewStatusWriter(rw)

		next.ServeHTTP(sw, hr)

		s.cfg.Logger.Info("Request",
			zap.String("method", hr.Method),
			zap.String("path", hr.URL.Path),
			zap.Int("status", sw.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", observability.RequestID(hr.Context())),
		)
	})
}

type Config struct {
	Logger *zap.Logger
	Tracer trace.Tracer
	// Metrics enables request metrics and the /metrics endpoint when set.
	Metrics *observability.Metrics
}

type Option func(*Config)

func WithLogger(logger *zap.Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}

func WithTracer(tracer trace.Tracer) Option {
	return func(c *Config) {
		c.Tracer = tracer
	}
}

func WithMetrics(m *observability.Metrics) Option {
	return func(c *Config) {
		c.Metrics = m
	}
}
