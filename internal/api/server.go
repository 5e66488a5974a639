package api

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/danielpatrickdp/rlhf-playground/internal/playground"
	"github.com/danielpatrickdp/rlhf-playground/internal/present"
	"github.com/danielpatrickdp/rlhf-playground/internal/scenario"
)

// StatusHeader carries the playground status line on bodiless responses.
const StatusHeader = "X-Playground-Status"

// #region server
// Server exposes a playground session and the scenario catalog over HTTP.
// The playground is not safe for concurrent use, so every handler that
// touches it holds mu. Chart rendering runs outside mu behind the export gate.
type Server struct {
	mu      sync.Mutex
	pg      *playground.Playground
	catalog *scenario.Registry
	charts  *present.Exporter
	metrics *Metrics
	logger  *zap.Logger
	places  int

	router chi.Router
}

// NewServer wires the routes. metrics should be the Observer the playground was built with.
func NewServer(pg *playground.Playground, catalog *scenario.Registry, metrics *Metrics, logger *zap.Logger, places int) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if metrics == nil {
		metrics = NewMetrics()
	}
	if catalog == nil {
		catalog = scenario.Default()
	}
	s := &Server{
		pg:      pg,
		catalog: catalog,
		charts:  present.NewExporter(pg.Gate(), logger),
		metrics: metrics,
		logger:  logger,
		places:  places,
		router:  chi.NewRouter(),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(s.requestLogger)
	s.router.Use(middleware.Recoverer)
}

func (s *Server) setupRoutes() {
	s.router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, statusDTO{Status: "ok"})
	})
	s.router.Handle("/metrics", s.metrics.Handler())

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/scenarios", s.handleListScenarios)
		r.Get("/scenarios/{id}", s.handleGetScenario)
		r.Post("/scenarios/{id}/derive", s.handleDerive)

		r.Get("/session", s.handleSession)
		r.Put("/session/scenario", s.handleSelect)
		r.Patch("/session/params", s.handleParams)
		r.Post("/session/reset", s.handleReset)
		r.Post("/session/record", s.handleRecord)
		r.Get("/session/log", s.handleLog)
		r.Delete("/session/log", s.handleClearLog)
		r.Get("/session/summary", s.handleSummary)
		r.Get("/session/export.csv", s.handleExportCSV)
		r.Get("/session/export.xlsx", s.handleExportXLSX)
		r.Get("/session/chart.{format}", s.handleChart)

		r.Get("/prefs/analogy", s.handleGetAnalogy)
		r.Put("/prefs/analogy", s.handleSetAnalogy)
	})
}

// requestLogger logs each request with zap and records its duration by route pattern.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		elapsed := time.Since(start)
		route := r.URL.Path
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		s.metrics.observeRequest(route, r.Method, elapsed)
		s.logger.Info("http request",
			zap.String("method", r.Method),
			zap.String("route", route),
			zap.Int("status", ww.Status()),
			zap.Duration("elapsed", elapsed),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}

// #endregion server

// #region helpers
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorDTO{Error: msg})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// #endregion helpers
