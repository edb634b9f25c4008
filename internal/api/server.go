package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/swaggo/swag"

	"github.com/edvin/multiregion/internal/api/docs"
	"github.com/edvin/multiregion/internal/api/handler"
	mw "github.com/edvin/multiregion/internal/api/middleware"
	"github.com/edvin/multiregion/internal/api/response"
	"github.com/edvin/multiregion/internal/core"
	"github.com/edvin/multiregion/internal/replay"
)

type Server struct {
	router   chi.Router
	logger   zerolog.Logger
	services *core.Services
	replayer *replay.Replayer
	db       core.Pinger
	// serveMetrics mounts /metrics on the API router when no dedicated
	// metrics listener is configured.
	serveMetrics bool
}

func NewServer(logger zerolog.Logger, db core.Pinger, services *core.Services, replayer *replay.Replayer, serveMetrics bool) *Server {
	s := &Server{
		router:       chi.NewRouter(),
		logger:       logger,
		services:     services,
		replayer:     replayer,
		db:           db,
		serveMetrics: serveMetrics,
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(mw.RequestLogger(s.logger))
	s.router.Use(middleware.Recoverer)
	s.router.Use(mw.Metrics)
}

func (s *Server) setupRoutes() {
	if s.serveMetrics {
		s.router.Handle("/metrics", promhttp.Handler())
	}

	s.router.Get("/healthz", s.handleHealthz)
	s.router.Get("/readyz", s.handleReadyz)

	// API documentation, answered locally like the health checks.
	s.router.Get("/docs/openapi.json", s.handleOpenAPI)
	s.router.Get("/docs", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(scalarHTML))
	})

	// Region status is always answered locally.
	status := handler.NewStatus(s.services.Status)
	s.router.Get("/regionz", status.Get)

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Use(s.replayer.Middleware)

		entry := handler.NewEntry(s.services.Entry, s.replayer)
		r.Get("/entries", entry.List)
		r.Post("/entries", entry.Create)
		r.Get("/entries/{id}", entry.Get)
		r.Delete("/entries/{id}", entry.Delete)
	})
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	response.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	checks := map[string]string{
		"region": string(s.replayer.Topology().Current),
	}
	status := http.StatusOK

	if err := s.db.Ping(ctx); err != nil {
		checks["database"] = err.Error()
		status = http.StatusServiceUnavailable
	} else {
		checks["database"] = "ok"
	}

	response.WriteJSON(w, status, checks)
}

func (s *Server) handleOpenAPI(w http.ResponseWriter, _ *http.Request) {
	doc, err := swag.ReadDoc(docs.SwaggerInfo.InstanceName())
	if err != nil {
		response.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(doc))
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

const scalarHTML = `<!DOCTYPE html>
<html>
<head>
  <title>Multi-Region Guestbook API</title>
  <meta charset="utf-8" />
  <meta name="viewport" content="width=device-width, initial-scale=1" />
</head>
<body>
  <script id="api-reference" data-url="/docs/openapi.json"></script>
  <script src="https://cdn.jsdelivr.net/npm/@scalar/api-reference"></script>
</body>
</html>`
