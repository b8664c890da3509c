// Package server exposes the HTTP API: upload notifications in, job status
// and detection results out.
package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"roomscan/internal/imaging"
	"roomscan/internal/logger"
	"roomscan/internal/status"
	"roomscan/internal/trigger"
)

// Server routes API requests to the trigger and status services.
type Server struct {
	trigger *trigger.Trigger
	status  *status.Service
	images  *imaging.ImageCache
	log     *slog.Logger
}

// New creates the API server.
func New(trig *trigger.Trigger, stat *status.Service, images *imaging.ImageCache, log *slog.Logger) *Server {
	return &Server{trigger: trig, status: stat, images: images, log: log}
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(s.requestLogger)

	r.Get("/healthz", s.handleHealth)
	r.Route("/v1", func(r chi.Router) {
		r.Post("/notifications", s.handleNotification)
		r.Route("/jobs/{jobID}", func(r chi.Router) {
			r.Get("/", s.handleStatus)
			r.Get("/result", s.handleResult)
			r.Get("/overlay", s.handleOverlay)
		})
	})
	return r
}

// requestLogger tags every request with an id and logs its outcome.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := uuid.NewString()
		ctx := logger.WithRequestID(r.Context(), reqID)
		w.Header().Set("X-Request-Id", reqID)

		ww := &statusWriter{ResponseWriter: w, code: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(ww, r.WithContext(ctx))

		s.log.Info("request",
			"request_id", reqID,
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.code,
			"duration_ms", time.Since(start).Milliseconds())
	})
}

type statusWriter struct {
	http.ResponseWriter
	code int
}

func (w *statusWriter) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}
