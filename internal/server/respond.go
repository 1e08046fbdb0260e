package server

import (
	"encoding/json"
	stderrors "errors"
	"net/http"

	"github.com/felixgeelhaar/waveplan/internal/errors"
	"github.com/felixgeelhaar/waveplan/internal/health"
	"github.com/felixgeelhaar/waveplan/internal/session"
)

// statusFor maps an error to its HTTP status.
func statusFor(err error) int {
	var tooLarge *http.MaxBytesError
	switch {
	case stderrors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge
	case stderrors.Is(err, session.ErrWaveNotFound):
		return http.StatusNotFound
	case stderrors.Is(err, session.ErrStoreFull):
		return http.StatusServiceUnavailable
	case errors.IsConstruction(err):
		return http.StatusUnprocessableEntity
	}

	switch errors.KindOf(err) {
	case errors.KindSessionNotFound, errors.KindUnknownUnit:
		return http.StatusNotFound
	case errors.KindInvalidTransition, errors.KindCancelled:
		return http.StatusConflict
	case errors.KindIO:
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

type errorResponse struct {
	Error any `json:"error"`
}

type plainError struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := statusFor(err)
	if s.metrics != nil {
		s.metrics.RecordError(err)
	}
	logger := s.logger.WithContext(r.Context()).WithError(err)
	if code >= http.StatusInternalServerError {
		logger.Error("request failed", "path", r.URL.Path, "status", code)
	} else {
		logger.Debug("request rejected", "path", r.URL.Path, "status", code)
	}

	if pe, ok := errors.As(err); ok {
		writeJSON(w, code, errorResponse{Error: pe})
		return
	}
	writeJSON(w, code, errorResponse{Error: plainError{Message: err.Error()}})
}

func writeProbe(w http.ResponseWriter, result *health.ProbeResult, unhealthy int) {
	code := http.StatusOK
	if result.Status == health.StatusUnhealthy {
		code = unhealthy
	}
	writeJSON(w, code, result)
}

// handleLiveness always answers 200; a draining process reports degraded.
func (s *Server) handleLiveness(w http.ResponseWriter, r *http.Request) {
	writeProbe(w, s.probes.CheckLiveness(r.Context()), http.StatusOK)
}

// handleReadiness answers 503 while shutting down or when a checker is unhealthy.
func (s *Server) handleReadiness(w http.ResponseWriter, r *http.Request) {
	writeProbe(w, s.probes.CheckReadiness(r.Context()), http.StatusServiceUnavailable)
}
