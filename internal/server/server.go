package server

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"github.com/hyperdocs/hyperdocs/internal/app"
	"github.com/hyperdocs/hyperdocs/internal/logging"
	"github.com/hyperdocs/hyperdocs/internal/metrics"

	_ "github.com/hyperdocs/hyperdocs/docs/swagger" // registers the API docs
)

// Server is the HTTP + WebSocket surface of Hyperdocs: public pages, the
// dashboard API, the pipeline event stream and operational endpoints.
type Server struct {
	cfg      Config
	app      *app.Application
	ownsApp  bool
	router   chi.Router
	upgrader websocket.Upgrader
	logger   logging.Logger
}

// NewServer creates a Server around cfg.Application, or around a new
// Application built from cfg.AppConfig.
func NewServer(cfg Config) (*Server, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.NewStdoutLogger("server")
	}

	application := cfg.Application
	owns := false
	if application == nil {
		if cfg.AppConfig == nil {
			cfg.AppConfig = app.DefaultConfig()
		}
		var err error
		application, err = app.NewApplication(cfg.AppConfig, logger)
		if err != nil {
			return nil, err
		}
		owns = true
	}
	cfg.AppConfig = application.Config

	s := &Server{
		cfg:     cfg,
		app:     application,
		ownsApp: owns,
		router:  chi.NewRouter(),
		logger:  logger.With(logging.Field{Key: "component", Value: "server"}),
	}
	s.upgrader = websocket.Upgrader{CheckOrigin: s.checkOrigin}
	s.routes()
	return s, nil
}

// Application returns the served application for advanced use (tests, etc.).
func (s *Server) Application() *app.Application {
	return s.app
}

func (s *Server) routes() {
	r := s.router

	r.Use(s.corsMiddleware)

	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", metrics.HTTPHandler(s.app.Metrics))
	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	// Pipeline events for the dashboard live view
	r.Get("/ws/sites/{site}/events", s.handleEventsWS)

	// Dashboard API
	r.Route("/api", func(r chi.Router) {
		r.Options("/*", s.optionsHandler("GET, POST, PATCH"))

		r.Group(func(r chi.Router) {
			r.Use(s.requireAdmin)

			r.Post("/sites", s.handleCreateSite)
			r.Get("/sites", s.handleListSites)
			r.Get("/sites/{id}", s.handleGetSite)
			r.Patch("/sites/{id}", s.handleUpdateSettings)
			r.Get("/sites/{id}/blogs", s.handleListBlogs)
			r.Post("/sites/{id}/revalidate", s.handleRevalidate)

			r.Post("/update/homepage", s.handleUpdateHomePage)
			r.Post("/update/navbar-cta", s.handleUpdateNavCTA)
			r.Post("/update/sidebar", s.handleUpdateSidebar)
			r.Post("/update/nav-links", s.handleUpdateNavLinks)

			r.Post("/blogs", s.handleCreateBlog)
			r.Get("/blogs/{id}", s.handleGetBlog)
			r.Patch("/blogs/{id}", s.handleUpdateBlog)
			r.Get("/blogs/{id}/revisions", s.handleListRevisions)
		})
	})

	// Public pages
	r.Get("/{site}", s.handleHome)
	r.Get("/{site}/docs", s.handleIndex)
	r.Get("/{site}/docs/{file}", s.handleDocsPage)
	r.Get("/{site}/blog/{blog}", s.handleBlog)
}

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	origin := s.cfg.AppConfig.Server.AllowedOrigin
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if origin != "" {
			w.Header().Set("Access-Control-Allow-Origin", origin)
		}
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Max-Age", "86400")

		next.ServeHTTP(w, r)
	})
}

func (s *Server) optionsHandler(methods string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Methods", methods)
		w.WriteHeader(http.StatusNoContent)
	}
}

// requireAdmin admits requests carrying the configured admin token as a
// bearer token. Without a configured token the API is disabled.
func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := s.cfg.AppConfig.Server.AdminToken
		if token == "" {
			writeError(w, http.StatusServiceUnavailable, "dashboard API disabled")
			return
		}
		got, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
			w.Header().Set("WWW-Authenticate", `Bearer realm="hyperdocs"`)
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) checkOrigin(r *http.Request) bool {
	allowed := s.cfg.AppConfig.Server.AllowedOrigin
	origin := r.Header.Get("Origin")
	return allowed == "*" || origin == "" || origin == allowed
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	fields := []logging.Field{
		{Key: "method", Value: r.Method},
		{Key: "path", Value: r.URL.Path},
	}
	if q := r.URL.Query(); len(q) > 0 {
		fields = append(fields, logging.Field{Key: "query", Value: q})
	}
	if r.ContentLength > 0 {
		fields = append(fields, logging.Field{Key: "body_bytes", Value: r.ContentLength})
	}

	s.logger.Debug("http_request", fields...)

	s.router.ServeHTTP(w, r)
}

// Close shuts down the application when the Server created it.
func (s *Server) Close() {
	if !s.ownsApp || s.app == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := s.app.Shutdown(ctx); err != nil {
		s.logger.Warn("application shutdown returned error", logging.Field{Key: "error", Value: err.Error()})
	}
}

// HTTPServer creates an *http.Server ready to ListenAndServe.
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:              s.cfg.AppConfig.Server.ListenAddr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      0, // allow streaming
	}
}

// @Summary Health check
// @Tags ops
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /healthz [get]
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok", CachedPages: s.app.Cache.Len()})
}

// --- JSON helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

// decodeJSON reads a JSON body into v, rejecting unknown fields.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if dec.More() {
		return errors.New("trailing data after JSON body")
	}
	return nil
}
