// Package httpserver serves the OpenAlex explorer dashboard and its JSON API.
package httpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/helixir/openalex-explorer/internal/observability"
	"github.com/helixir/openalex-explorer/internal/openalex"
	"github.com/helixir/openalex-explorer/internal/query"
)

// Explorer is the subset of the OpenAlex client the server uses.
// *openalex.Client satisfies it.
type Explorer interface {
	ListWorks(ctx context.Context, params query.Params) (*openalex.Page[openalex.Work], error)
	GetWork(ctx context.Context, id string) (*openalex.Work, error)
	GetWorks(ctx context.Context, ids []string) ([]*openalex.Work, error)
	ListWorksFor(ctx context.Context, kind openalex.Kind, id string, params query.Params) (*openalex.Page[openalex.Work], error)
	GroupWorks(ctx context.Context, params query.Params, groupBy string) ([]openalex.GroupCount, error)

	ListAuthors(ctx context.Context, params query.Params) (*openalex.Page[openalex.Author], error)
	GetAuthor(ctx context.Context, id string) (*openalex.Author, error)
	ListInstitutions(ctx context.Context, params query.Params) (*openalex.Page[openalex.Institution], error)
	GetInstitution(ctx context.Context, id string) (*openalex.Institution, error)
	ListPublishers(ctx context.Context, params query.Params) (*openalex.Page[openalex.Publisher], error)
	GetPublisher(ctx context.Context, id string) (*openalex.Publisher, error)
	ListSources(ctx context.Context, params query.Params) (*openalex.Page[openalex.Source], error)
	GetSource(ctx context.Context, id string) (*openalex.Source, error)
	ListTopics(ctx context.Context, params query.Params) (*openalex.Page[openalex.Topic], error)
	GetTopic(ctx context.Context, id string) (*openalex.Topic, error)
	ListFunders(ctx context.Context, params query.Params) (*openalex.Page[openalex.Funder], error)
	GetFunder(ctx context.Context, id string) (*openalex.Funder, error)

	Countries(ctx context.Context) ([]openalex.CountryCount, error)
	CountryOutput(ctx context.Context, countryCode string) ([]openalex.YearCount, error)

	Ping(ctx context.Context) error
}

var _ Explorer = (*openalex.Client)(nil)

// Config holds HTTP server configuration.
type Config struct {
	Address         string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	// PerPage is the list page size when a request does not set one.
	PerPage int
	// RelatedWorks caps the related works shown on a work page.
	RelatedWorks int
	// OverviewWorks is the number of top works on the overview page.
	OverviewWorks int
}

func (c *Config) applyDefaults() {
	if c.PerPage == 0 {
		c.PerPage = query.DefaultPerPage
	}
	if c.RelatedWorks == 0 {
		c.RelatedWorks = 5
	}
	if c.OverviewWorks == 0 {
		c.OverviewWorks = 10
	}
}

// Server is the dashboard HTTP server.
type Server struct {
	router     chi.Router
	httpServer *http.Server
	explorer   Explorer
	views      *views
	metrics    *observability.Metrics
	logger     zerolog.Logger
	config     Config
}

// NewServer creates a new HTTP server. metrics may be nil.
func NewServer(cfg Config, explorer Explorer, metrics *observability.Metrics, logger zerolog.Logger) *Server {
	cfg.applyDefaults()

	s := &Server{
		explorer: explorer,
		views:    mustParseViews(),
		metrics:  metrics,
		logger:   logger.With().Str("component", "http-server").Logger(),
		config:   cfg,
	}

	s.router = s.buildRouter()

	s.httpServer = &http.Server{
		Addr:         cfg.Address,
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return s
}

// buildRouter creates the chi router with all middleware and routes.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(correlationIDMiddleware)
	r.Use(s.accessLogMiddleware)
	r.Use(s.metricsMiddleware)
	r.Use(middleware.Recoverer)

	// Health endpoints
	r.Get("/healthz", s.healthHandler)
	r.Get("/readyz", s.readinessHandler)

	// Dashboard
	r.Get("/", s.overviewPage)
	r.Get("/works", s.worksPage)
	r.Get("/works/{id}", s.workPage)
	for _, kind := range openalex.Kinds {
		if kind == openalex.KindWorks {
			continue
		}
		r.Get("/"+string(kind), s.entityListPage(kind))
		r.Get("/"+string(kind)+"/{id}", s.entityPage(kind))
	}
	r.Get("/geo", s.geoPage)
	r.Get("/geo/{code}", s.countryPage)

	// JSON API
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(jsonContentTypeMiddleware)

		r.Get("/pagination", s.apiPagination)
		r.Post("/abstract", s.apiReconstructAbstract)
		r.Post("/abstract/invert", s.apiInvertAbstract)
		r.Get("/geo", s.apiCountries)
		r.Get("/geo/{code}", s.apiCountryOutput)
		r.Get("/works/{id}/abstract", s.apiWorkAbstract)
		r.Get("/{kind}", s.apiList)
		r.Get("/{kind}/{id}", s.apiGet)
	})

	r.NotFound(s.notFoundHandler)

	return r
}

// Handler returns the root handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.logger.Info().Str("address", s.httpServer.Addr).Msg("HTTP server starting")
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("listen on HTTP address: %w", err)
	}
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// healthHandler returns basic liveness status.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// readinessHandler reports whether the response cache is reachable.
// OpenAlex itself is not probed.
func (s *Server) readinessHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.explorer.Ping(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("readiness check failed")
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not_ready",
			"cache":  "unreachable",
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ready",
		"cache":  "ok",
	})
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		// Best-effort log; headers already sent.
		_ = err
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{
		"error": message,
	})
}
