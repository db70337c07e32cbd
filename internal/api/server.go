// Package api serves project reports and reconciliations over HTTP.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"golang.org/x/time/rate"

	"github.com/sells-group/underwrite/internal/model"
	"github.com/sells-group/underwrite/internal/reconcile"
)

// Reports builds the financial rollup for a project.
type Reports interface {
	GenerateID(ctx context.Context, projectID int64) (*model.Report, error)
}

// Reconciler reads and saves reconciliations.
type Reconciler interface {
	Get(ctx context.Context, projectID int64) (*reconcile.Outcome, error)
	Save(ctx context.Context, projectID int64, req reconcile.SaveRequest) (*reconcile.Outcome, error)
}

// Pinger checks backing store health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Options configures the HTTP surface.
type Options struct {
	AllowedOrigins    []string
	RequestsPerSecond float64
	Burst             int
	// RequestTimeout bounds each request. Zero means no limit.
	RequestTimeout time.Duration
}

// Server holds the API dependencies.
type Server struct {
	reports Reports
	recon   Reconciler
	pinger  Pinger
	opts    Options
}

// NewServer creates a Server. pinger may be nil.
func NewServer(reports Reports, recon Reconciler, pinger Pinger, opts Options) *Server {
	if len(opts.AllowedOrigins) == 0 {
		opts.AllowedOrigins = []string{"*"}
	}
	return &Server{reports: reports, recon: recon, pinger: pinger, opts: opts}
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(
		requestID,
		middleware.RealIP,
		requestLogger,
		middleware.Recoverer,
		cors.Handler(cors.Options{
			AllowedOrigins: s.opts.AllowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPut, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Content-Type", requestIDHeader},
			ExposedHeaders: []string{requestIDHeader},
			MaxAge:         300,
		}),
	)
	if s.opts.RequestsPerSecond > 0 {
		burst := s.opts.Burst
		if burst <= 0 {
			burst = 1
		}
		r.Use(rateLimit(rate.NewLimiter(rate.Limit(s.opts.RequestsPerSecond), burst)))
	}
	if s.opts.RequestTimeout > 0 {
		r.Use(middleware.Timeout(s.opts.RequestTimeout))
	}

	r.Get("/health", s.health)
	r.Route("/projects/{id}", func(r chi.Router) {
		r.Get("/report", s.getReport)
		r.Get("/reconciliation", s.getReconciliation)
		r.Put("/reconciliation", s.putReconciliation)
	})
	return r
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	if s.pinger != nil {
		if err := s.pinger.Ping(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "unavailable",
				"error":  err.Error(),
			})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
