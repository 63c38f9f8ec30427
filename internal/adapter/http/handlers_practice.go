package adapthttp

import (
	"net/http"
	"strconv"

	"stressless/internal/app"
	"stressless/internal/domain"
)

type practiceState struct {
	Exercise         string  `json:"exercise"`
	StressBefore     int     `json:"stressBefore"`
	NominalSeconds   int     `json:"nominalSeconds"`
	RemainingSeconds int     `json:"remainingSeconds"`
	Running          bool    `json:"running"`
	PercentElapsed   float64 `json:"percentElapsed"`
}

func newPracticeState(sc domain.SessionContext) practiceState {
	return practiceState{
		Exercise:         sc.Exercise.Name,
		StressBefore:     sc.StressBefore,
		NominalSeconds:   sc.NominalSeconds,
		RemainingSeconds: sc.RemainingSeconds,
		Running:          sc.Running,
		PercentElapsed:   domain.RoundTenth(sc.PercentElapsed()),
	}
}

func (s *Server) handleRecommendation(w http.ResponseWriter, r *http.Request) {
	level, err := strconv.Atoi(r.URL.Query().Get("level"))
	if err != nil {
		writeError(w, http.StatusBadRequest, domain.ErrInvalidStressLevel)
		return
	}
	ex, err := s.svc.Recommend.Recommend(r.Context(), userFrom(r.Context()).ID, level)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"exercise": ex})
}

func (s *Server) handlePracticeBegin(w http.ResponseWriter, r *http.Request) {
	var body struct {
		StressBefore int `json:"stressBefore"`
	}
	if err := parseJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	sc, err := s.svc.Practice.Begin(r.Context(), userFrom(r.Context()).ID, body.StressBefore)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"exercise": sc.Exercise,
		"state":    newPracticeState(sc),
	})
}

func (s *Server) handlePracticeState(w http.ResponseWriter, r *http.Request) {
	sc, ok := s.svc.Practice.State(userFrom(r.Context()).ID)
	if !ok {
		writeError(w, http.StatusNotFound, domain.ErrNoActiveExercise)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"state": newPracticeState(sc)})
}

func (s *Server) handlePracticeEnd(w http.ResponseWriter, r *http.Request) {
	sc, err := s.svc.Practice.EndEarly(userFrom(r.Context()).ID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"state": newPracticeState(sc)})
}

type submitResponse struct {
	*app.FinalizeResult
	Warning string `json:"warning,omitempty"`
}

func (s *Server) handlePracticeSubmit(w http.ResponseWriter, r *http.Request) {
	var body struct {
		StressAfter int    `json:"stressAfter"`
		Notes       string `json:"notes"`
	}
	if err := parseJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	res, err := s.svc.Practice.Submit(r.Context(), userFrom(r.Context()).ID, body.StressAfter, body.Notes)
	if res == nil {
		s.writeServiceError(w, r, err)
		return
	}
	warning, _ := evaluationWarning(err)
	writeJSON(w, http.StatusOK, submitResponse{FinalizeResult: res, Warning: warning})
}

func (s *Server) handlePracticeAbandon(w http.ResponseWriter, r *http.Request) {
	s.svc.Practice.Abandon(userFrom(r.Context()).ID)
	w.WriteHeader(http.StatusNoContent)
}
