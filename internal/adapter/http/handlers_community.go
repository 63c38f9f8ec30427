package adapthttp

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"stressless/internal/app"
)

func (s *Server) handleListPosts(w http.ResponseWriter, r *http.Request) {
	posts, err := s.svc.Community.List(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": posts})
}

type shareResponse struct {
	*app.ShareResult
	Warning string `json:"warning,omitempty"`
}

func (s *Server) handleSharePost(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Content string `json:"content"`
	}
	if err := parseJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	res, err := s.svc.Community.Share(r.Context(), userFrom(r.Context()).ID, body.Content)
	if res == nil {
		s.writeServiceError(w, r, err)
		return
	}
	warning, _ := evaluationWarning(err)
	writeJSON(w, http.StatusCreated, shareResponse{ShareResult: res, Warning: warning})
}

func (s *Server) handleComment(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Text string `json:"text"`
	}
	if err := parseJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	post, err := s.svc.Community.Comment(r.Context(), chi.URLParam(r, "id"), body.Text)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"post": post})
}

func (s *Server) handleDeletePost(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Community.Delete(r.Context(), userFrom(r.Context()), chi.URLParam(r, "id")); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
