package adapthttp

import (
	"net/http"

	"go.uber.org/zap"
)

func (s *Server) handleAchievements(w http.ResponseWriter, r *http.Request) {
	board, err := s.svc.Achievements.Board(r.Context(), userFrom(r.Context()).ID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"achievements": board})
}

func (s *Server) handleDashboardSummary(w http.ResponseWriter, r *http.Request) {
	sum, err := s.svc.Dashboard.Summary(r.Context(), userFrom(r.Context()).ID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

func (s *Server) handleDashboardSessions(w http.ResponseWriter, r *http.Request) {
	day := r.URL.Query().Get("day")
	items, err := s.svc.Dashboard.SessionsForDay(r.Context(), userFrom(r.Context()).ID, day)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (s *Server) handleDashboardTrend(w http.ResponseWriter, r *http.Request) {
	days := intQuery(r, "days", 7)
	points, err := s.svc.Dashboard.Trend(r.Context(), userFrom(r.Context()).ID, days)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"points": points})
}

func (s *Server) handleQuote(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"quote": s.svc.Quotes.Random()})
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	if s.cfg.Events == nil {
		w.WriteHeader(http.StatusNotImplemented)
		return
	}
	// The upgrader writes its own error response.
	if err := s.cfg.Events.ServeWS(w, r, userFrom(r.Context()).ID); err != nil {
		s.logger.Debug("websocket upgrade failed", zap.Error(err))
	}
}
