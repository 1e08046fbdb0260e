package server

import (
	"fmt"
	"mime"
	"net/http"
	"strconv"
	"time"

	"github.com/felixgeelhaar/waveplan/internal/domain"
	"github.com/felixgeelhaar/waveplan/internal/errors"
	"github.com/felixgeelhaar/waveplan/internal/plan"
	"github.com/felixgeelhaar/waveplan/internal/replan"
	"github.com/felixgeelhaar/waveplan/internal/session"
)

type sessionResponse struct {
	ID        string              `json:"id"`
	CreatedAt time.Time           `json:"created_at"`
	Cancelled bool                `json:"cancelled"`
	Ready     []string            `json:"ready"`
	Plan      *plan.ExecutionPlan `json:"plan"`
}

type sessionSummary struct {
	ID        string      `json:"id"`
	CreatedAt time.Time   `json:"created_at"`
	Version   int         `json:"version"`
	Status    plan.Status `json:"status"`
	Units     int         `json:"units"`
	Waves     int         `json:"waves"`
}

type waveUnit struct {
	ID     string        `json:"id"`
	Status domain.Status `json:"status"`
}

type waveResponse struct {
	Index   int        `json:"index"`
	Layer   int        `json:"layer"`
	Version int        `json:"version"`
	Units   []waveUnit `json:"units"`
}

type dispatchResponse struct {
	Dispatched []string            `json:"dispatched"`
	Plan       *plan.ExecutionPlan `json:"plan"`
}

type reportResponse struct {
	Blocked      []string            `json:"blocked"`
	ChangedWaves []int               `json:"changed_waves"`
	Exhausted    bool                `json:"exhausted"`
	Plan         *plan.ExecutionPlan `json:"plan"`
}

func newSessionResponse(s *session.Session) sessionResponse {
	p := s.Plan()
	return sessionResponse{
		ID:        s.ID(),
		CreatedAt: s.CreatedAt(),
		Cancelled: s.Cancelled(),
		Ready:     nonNil(p.Ready()),
		Plan:      p,
	}
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// bodyFormat picks the unit decoding from Content-Type. JSON is the default.
func bodyFormat(r *http.Request) (plan.Format, error) {
	ct := r.Header.Get("Content-Type")
	if ct == "" {
		return plan.FormatJSON, nil
	}
	mt, _, err := mime.ParseMediaType(ct)
	if err != nil {
		return "", err
	}
	switch mt {
	case "application/json":
		return plan.FormatJSON, nil
	case "application/yaml", "application/x-yaml", "text/yaml":
		return plan.FormatYAML, nil
	case "application/toml":
		return plan.FormatTOML, nil
	}
	return "", fmt.Errorf("unsupported content type %q", mt)
}

// POST /v1/sessions
func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	format, err := bodyFormat(r)
	if err != nil {
		writeJSON(w, http.StatusUnsupportedMediaType, errorResponse{Error: plainError{Message: err.Error()}})
		return
	}
	units, err := plan.DecodeUnits(r.Body, format)
	if err != nil {
		if statusFor(err) == http.StatusRequestEntityTooLarge {
			s.writeError(w, r, err)
			return
		}
		s.writeError(w, r, errors.Wrap(errors.KindIO, "invalid request body", err).
			WithCode(errors.ErrCodeFileUnmarshal))
		return
	}

	sess, err := s.store.Create(r.Context(), units)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Location", "/v1/sessions/"+sess.ID())
	writeJSON(w, http.StatusCreated, newSessionResponse(sess))
}

// GET /v1/sessions
func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	sessions := s.store.List()
	out := make([]sessionSummary, 0, len(sessions))
	for _, sess := range sessions {
		p := sess.Plan()
		out = append(out, sessionSummary{
			ID:        sess.ID(),
			CreatedAt: sess.CreatedAt(),
			Version:   p.Version,
			Status:    p.Status,
			Units:     p.Metrics.TotalUnits,
			Waves:     p.Metrics.WaveCount,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"sessions": out})
}

// GET /v1/sessions/{id}
func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.store.Get(r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newSessionResponse(sess))
}

// DELETE /v1/sessions/{id}
func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Delete(r.PathValue("id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) sessionAndWave(w http.ResponseWriter, r *http.Request) (*session.Session, int, bool) {
	sess, err := s.store.Get(r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return nil, 0, false
	}
	n, err := strconv.Atoi(r.PathValue("n"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: plainError{
			Message: fmt.Sprintf("wave index %q is not an integer", r.PathValue("n")),
		}})
		return nil, 0, false
	}
	return sess, n, true
}

// GET /v1/sessions/{id}/waves/{n}
func (s *Server) handleGetWave(w http.ResponseWriter, r *http.Request) {
	sess, n, ok := s.sessionAndWave(w, r)
	if !ok {
		return
	}
	p := sess.Plan()
	wave, found := p.Wave(n)
	if !found {
		s.writeError(w, r, fmt.Errorf("%w: %d", session.ErrWaveNotFound, n))
		return
	}

	resp := waveResponse{Index: wave.Index, Layer: wave.Layer, Version: p.Version, Units: make([]waveUnit, 0, len(wave.Units))}
	for _, id := range wave.Units {
		resp.Units = append(resp.Units, waveUnit{ID: id, Status: p.Units[id].Status})
	}
	writeJSON(w, http.StatusOK, resp)
}

// POST /v1/sessions/{id}/waves/{n}/dispatch
func (s *Server) handleDispatch(w http.ResponseWriter, r *http.Request) {
	sess, n, ok := s.sessionAndWave(w, r)
	if !ok {
		return
	}
	ids, p, err := sess.Dispatch(r.Context(), n)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dispatchResponse{Dispatched: nonNil(ids), Plan: p})
}

type outcome int

const (
	outcomeSuccess outcome = iota
	outcomeFailure
)

// POST /v1/sessions/{id}/units/{unit}/success|failure
func (s *Server) handleReport(o outcome) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := s.store.Get(r.PathValue("id"))
		if err != nil {
			s.writeError(w, r, err)
			return
		}

		var res *replan.Result
		if o == outcomeSuccess {
			res, err = sess.ReportSuccess(r.Context(), r.PathValue("unit"))
		} else {
			res, err = sess.ReportFailure(r.Context(), r.PathValue("unit"))
		}
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, reportResponse{
			Blocked:      nonNil(res.Blocked),
			ChangedWaves: nonNil(res.ChangedWaves),
			Exhausted:    res.Exhausted,
			Plan:         res.Plan,
		})
	}
}
