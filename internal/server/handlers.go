package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"roomscan/internal/imaging"
	"roomscan/internal/job"
	"roomscan/internal/logger"
	"roomscan/internal/overlay"
	"roomscan/internal/trigger"
)

// notificationSchema validates upload notification payloads before any
// state is touched.
const notificationSchema = `{
	"type": "object",
	"required": ["content_address"],
	"properties": {
		"content_address": {"type": "string", "minLength": 1}
	},
	"additionalProperties": false
}`

var compiledNotificationSchema = jsonschema.MustCompileString(
	"notification.json", notificationSchema)

// maxNotificationBytes bounds the notification body size.
const maxNotificationBytes = 64 << 10

type notificationResponse struct {
	JobID    string `json:"job_id"`
	Accepted bool   `json:"accepted"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// handleNotification registers an upload notification. Redeliveries return
// 200 with accepted=false; only the first delivery of a content address
// returns 202.
func (s *Server) handleNotification(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxNotificationBytes))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "reading request body failed")
		return
	}

	var payload any
	if err := json.Unmarshal(body, &payload); err != nil {
		s.writeError(w, http.StatusBadRequest, "request body is not valid JSON")
		return
	}
	if err := compiledNotificationSchema.Validate(payload); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid notification: "+err.Error())
		return
	}

	var n trigger.Notification
	if err := json.NewDecoder(bytes.NewReader(body)).Decode(&n); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid notification payload")
		return
	}

	jobID, accepted, err := s.trigger.Handle(r.Context(), n)
	if err != nil {
		logger.FromContext(r.Context(), s.log).Error("notification rejected", "error", err)
		s.writeError(w, http.StatusServiceUnavailable, "job registration failed")
		return
	}

	code := http.StatusOK
	if accepted {
		code = http.StatusAccepted
	}
	s.writeJSON(w, code, notificationResponse{JobID: jobID, Accepted: accepted})
}

// handleStatus reports the lifecycle state of one job.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	st, err := s.status.Get(r.Context(), jobID)
	if errors.Is(err, job.ErrNotFound) {
		s.writeError(w, http.StatusNotFound, "unknown job id")
		return
	}
	if err != nil {
		logger.FromContext(r.Context(), s.log).Error("status lookup failed", "job_id", jobID, "error", err)
		s.writeError(w, http.StatusInternalServerError, "status lookup failed")
		return
	}
	s.writeJSON(w, http.StatusOK, st)
}

// handleResult returns the detection result of a Completed job. A job that
// exists but is not Completed yet gets 409 so pollers can tell "try again
// later" from "no such job".
func (s *Server) handleResult(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	result, err := s.status.Result(r.Context(), jobID)
	if errors.Is(err, job.ErrNotFound) {
		s.writeError(w, http.StatusNotFound, "unknown job id")
		return
	}
	if errors.Is(err, job.ErrNoResult) {
		s.writeError(w, http.StatusConflict, "job has no result yet")
		return
	}
	if err != nil {
		logger.FromContext(r.Context(), s.log).Error("result lookup failed", "job_id", jobID, "error", err)
		s.writeError(w, http.StatusInternalServerError, "result lookup failed")
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

// handleOverlay renders the detection result over the source blueprint and
// returns it as PNG.
func (s *Server) handleOverlay(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")

	j, err := s.status.Job(r.Context(), jobID)
	if errors.Is(err, job.ErrNotFound) {
		s.writeError(w, http.StatusNotFound, "unknown job id")
		return
	}
	if err != nil {
		logger.FromContext(r.Context(), s.log).Error("overlay lookup failed", "job_id", jobID, "error", err)
		s.writeError(w, http.StatusInternalServerError, "overlay lookup failed")
		return
	}

	result, err := s.status.Result(r.Context(), jobID)
	if errors.Is(err, job.ErrNoResult) {
		s.writeError(w, http.StatusConflict, "job has no result yet")
		return
	}
	if err != nil {
		logger.FromContext(r.Context(), s.log).Error("overlay result lookup failed", "job_id", jobID, "error", err)
		s.writeError(w, http.StatusInternalServerError, "overlay lookup failed")
		return
	}

	img, err := s.images.Load(r.Context(), j.ContentAddress)
	if err != nil {
		if errors.Is(err, imaging.ErrNotFetched) {
			s.writeError(w, http.StatusNotFound, "source image no longer available")
			return
		}
		logger.FromContext(r.Context(), s.log).Error("overlay source load failed", "job_id", jobID, "error", err)
		s.writeError(w, http.StatusInternalServerError, "overlay rendering failed")
		return
	}

	data, err := overlay.EncodePNG(img, result.Rooms)
	if err != nil {
		logger.FromContext(r.Context(), s.log).Error("overlay encode failed", "job_id", jobID, "error", err)
		s.writeError(w, http.StatusInternalServerError, "overlay rendering failed")
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error("writing response failed", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, code int, msg string) {
	s.writeJSON(w, code, errorResponse{Error: msg})
}
