package adapthttp

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"stressless/internal/domain"
)

func (s *Server) handleListExercises(w http.ResponseWriter, r *http.Request) {
	items, err := s.svc.Exercises.List(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (s *Server) handleAddExercise(w http.ResponseWriter, r *http.Request) {
	var def domain.ExerciseDefinition
	if err := parseJSON(r, &def); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := s.svc.Exercises.Add(r.Context(), userFrom(r.Context()), def); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"status": "ok"})
}

func (s *Server) handleUpdateExercise(w http.ResponseWriter, r *http.Request) {
	var def domain.ExerciseDefinition
	if err := parseJSON(r, &def); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := s.svc.Exercises.Update(r.Context(), userFrom(r.Context()), chi.URLParam(r, "name"), def); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

func (s *Server) handleDeleteExercise(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Exercises.Delete(r.Context(), userFrom(r.Context()), chi.URLParam(r, "name")); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.svc.Auth.ListUsers(r.Context(), userFrom(r.Context()))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": users})
}

// handleGetUser returns a user with their sessions, trend and badges.
func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user, err := s.svc.Auth.GetUser(ctx, userFrom(ctx), chi.URLParam(r, "id"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	summary, err := s.svc.Dashboard.Summary(ctx, user.ID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	trend, err := s.svc.Dashboard.Trend(ctx, user.ID, intQuery(r, "days", 7))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	board, err := s.svc.Achievements.Board(ctx, user.ID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"user":         user,
		"summary":      summary,
		"trend":        trend,
		"achievements": board,
	})
}

func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Auth.DeleteUser(r.Context(), userFrom(r.Context()), chi.URLParam(r, "id")); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
