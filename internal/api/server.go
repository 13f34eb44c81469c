package api

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/filmoteca/chartfetch/internal/chart"
	"github.com/filmoteca/chartfetch/internal/config"
	"github.com/filmoteca/chartfetch/internal/export"
	"github.com/filmoteca/chartfetch/internal/metrics"
)

// Extractor runs one chart extraction per request.
type Extractor interface {
	Extract(ctx context.Context, f chart.Filters) (chart.Result, error)
}

// Server wires HTTP handlers to the extraction pipeline.
type Server struct {
	router    chi.Router
	extractor Extractor
	cfg       config.Config
	logger    *zap.Logger
}

// NewServer assembles the middleware chain and routes. When auth is enabled
// every route sits behind the key check, the health and metrics probes
// included.
func NewServer(extractor Extractor, cfg config.Config, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{extractor: extractor, cfg: cfg, logger: logger}

	timeout := cfg.RequestTimeout()
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	r := chi.NewRouter()
	r.Use(s.tagAndLog)
	r.Use(s.recoverPanics)
	r.Use(func(next http.Handler) http.Handler {
		return http.TimeoutHandler(next, timeout, "chart request timed out")
	})
	r.Use(metrics.Middleware)
	if cfg.Auth.Enabled {
		r.Use(s.requireKey(cfg.Auth.APIKey))
	}

	r.Get("/healthz", s.healthz)
	r.Get("/readyz", s.readyz)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Get("/", s.panelHome)
	r.Post("/preview", s.panelPreview)
	r.Get("/download.json", s.downloadJSON)
	r.Get("/api/movies", s.apiMovies)

	s.router = r
	return s
}

// Handler exposes the routing tree for an http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	s.respond(w, http.StatusOK, statusBody{Status: "ok"})
}

func (s *Server) readyz(w http.ResponseWriter, _ *http.Request) {
	// The pipeline holds no connections to warm up; ready as soon as we serve.
	s.respond(w, http.StatusOK, statusBody{Status: "ready"})
}

// panelHome renders the control panel with the default filters' preview.
func (s *Server) panelHome(w http.ResponseWriter, r *http.Request) {
	f := chart.NormalizeFilters("", "", "")
	s.renderPanel(w, r, f)
}

// panelPreview re-renders the panel with the submitted form filters.
// Malformed values fall back to defaults, never to an error page.
func (s *Server) panelPreview(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid form")
		return
	}
	f := chart.NormalizeFilters(
		r.PostFormValue("limit"),
		r.PostFormValue("sort"),
		r.PostFormValue("direction"),
	)
	s.renderPanel(w, r, f)
}

func (s *Server) renderPanel(w http.ResponseWriter, r *http.Request, f chart.Filters) {
	data := panelData{
		SortKeys:    chart.SortKeys,
		SortOptions: chart.SortOptions,
		Filters:     f,
	}
	result, err := s.extractor.Extract(r.Context(), f)
	if err != nil {
		// Fetch problems surface as a banner on the panel, not a 5xx.
		data.Error = err.Error()
	} else {
		data.Result = &result
	}
	s.renderHTML(w, data)
}

// downloadJSON serves the movies-only payload as a browser attachment.
func (s *Server) downloadJSON(w http.ResponseWriter, r *http.Request) {
	result, err := s.extractor.Extract(r.Context(), filtersFromQuery(r))
	if err != nil {
		s.respondError(w, http.StatusBadGateway, err.Error())
		return
	}
	if err := export.WriteAttachment(w, result.Movies); err != nil {
		s.logger.Error("attachment write failed", zap.Error(err))
	}
}

// apiMovies serves the full extraction result, diagnostics included.
func (s *Server) apiMovies(w http.ResponseWriter, r *http.Request) {
	result, err := s.extractor.Extract(r.Context(), filtersFromQuery(r))
	if err != nil {
		s.respondError(w, http.StatusBadGateway, err.Error())
		return
	}
	s.respond(w, http.StatusOK, result)
}

func filtersFromQuery(r *http.Request) chart.Filters {
	q := r.URL.Query()
	return chart.NormalizeFilters(q.Get("limit"), q.Get("sort"), q.Get("direction"))
}

type requestIDKey struct{}

// RequestID returns the request-scoped ID, empty when the middleware did
// not run.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// tagAndLog assigns each request an ID, echoes it in the X-Request-ID
// header, and emits one access log line when the handler returns.
func (s *Server) tagAndLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := uuid.NewString()
		w.Header().Set("X-Request-ID", id)

		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r.WithContext(context.WithValue(r.Context(), requestIDKey{}, id)))

		s.logger.Info("request completed",
			zap.String("request_id", id),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("elapsed", time.Since(start)),
		)
	})
}

// recoverPanics converts handler panics into plain 500 responses.
func (s *Server) recoverPanics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			s.logger.Error("panic recovered",
				zap.Any("error", rec),
				zap.String("path", r.URL.Path),
				zap.Stack("stack"),
			)
			s.respondError(w, http.StatusInternalServerError, "internal server error")
		}()
		next.ServeHTTP(w, r)
	})
}

// requireKey guards every route with the configured API key; clients send
// it via the X-API-Key header or the api_key query parameter.
func (s *Server) requireKey(expected string) func(http.Handler) http.Handler {
	want := []byte(expected)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			presented := r.Header.Get("X-API-Key")
			if presented == "" {
				presented = r.URL.Query().Get("api_key")
			}
			if subtle.ConstantTimeCompare([]byte(presented), want) != 1 {
				s.respondError(w, http.StatusForbidden, "unauthorized")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

type statusBody struct {
	Status string `json:"status"`
}

type errorBody struct {
	Error string `json:"error"`
}

func (s *Server) respond(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Warn("response encode failed", zap.Error(err))
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, msg string) {
	s.respond(w, status, errorBody{Error: msg})
}
