// Package adapthttp implements the HTTP adapter for the application.
package adapthttp

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"stressless/internal/app"
)

// Services groups the application services the adapter drives.
type Services struct {
	Auth         *app.AuthService
	Recommend    *app.RecommendService
	Practice     *app.PracticeService
	Achievements *app.AchievementService
	Community    *app.CommunityService
	Exercises    *app.ExerciseAdminService
	Dashboard    *app.DashboardService
	Quotes       *app.QuoteService
}

// EventStream attaches a browser connection to a user's event feed.
type EventStream interface {
	ServeWS(w http.ResponseWriter, r *http.Request, userID string) error
}

// Config holds the optional collaborators of a Server.
type Config struct {
	WebDir        string
	Logger        *zap.Logger
	OIDC          *OIDCConfig
	Events        EventStream
	SecureCookies bool
	// Ping reports storage health for /api/health.
	Ping func(ctx context.Context) error
}

// Server is the driving HTTP adapter that routes requests to application
// services.
type Server struct {
	svc    Services
	cfg    Config
	logger *zap.Logger
}

// New creates a Server wired to the given application services.
func New(svc Services, cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.OIDC == nil {
		cfg.OIDC = &OIDCConfig{}
	}
	return &Server{svc: svc, cfg: cfg, logger: logger}
}

// Handler returns the root http.Handler for the application.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(s.loggingMiddleware)
	r.Use(chimiddleware.Recoverer)
	r.Use(metricsMiddleware)

	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(withNoCache)
		r.Get("/health", s.handleHealth)
		r.Get("/config", s.handleConfig)

		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", s.handleRegister)
			r.Post("/login", s.handleLogin)
			r.Post("/logout", s.handleLogout)
			r.Get("/sso/login", s.handleSSOLogin)
			r.Get("/sso/callback", s.handleSSOCallback)
		})

		r.Group(func(r chi.Router) {
			r.Use(s.authMiddleware)

			r.Get("/me", s.handleMe)
			r.Get("/quote", s.handleQuote)
			r.Get("/exercises", s.handleListExercises)
			r.Get("/recommendation", s.handleRecommendation)

			r.Route("/practice", func(r chi.Router) {
				r.Get("/", s.handlePracticeState)
				r.Post("/", s.handlePracticeBegin)
				r.Delete("/", s.handlePracticeAbandon)
				r.Post("/end", s.handlePracticeEnd)
				r.Post("/submit", s.handlePracticeSubmit)
			})

			r.Get("/achievements", s.handleAchievements)

			r.Route("/dashboard", func(r chi.Router) {
				r.Get("/summary", s.handleDashboardSummary)
				r.Get("/sessions", s.handleDashboardSessions)
				r.Get("/trend", s.handleDashboardTrend)
			})

			r.Route("/community/posts", func(r chi.Router) {
				r.Get("/", s.handleListPosts)
				r.Post("/", s.handleSharePost)
				r.Post("/{id}/comments", s.handleComment)
				r.Delete("/{id}", s.handleDeletePost)
			})

			r.Get("/ws", s.handleWS)

			r.Route("/admin", func(r chi.Router) {
				r.Use(requireAdmin)
				r.Get("/users", s.handleListUsers)
				r.Get("/users/{id}", s.handleGetUser)
				r.Delete("/users/{id}", s.handleDeleteUser)
				r.Post("/exercises", s.handleAddExercise)
				r.Put("/exercises/{name}", s.handleUpdateExercise)
				r.Delete("/exercises/{name}", s.handleDeleteExercise)
			})
		})
	})

	if s.cfg.WebDir != "" {
		r.Handle("/*", spaFromDisk(s.cfg.WebDir))
	}
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.cfg.Ping != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.cfg.Ping(ctx); err != nil {
			s.logger.Warn("health check failed", zap.Error(err))
			writeJSON(w, http.StatusServiceUnavailable, map[string]any{"ok": false})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}
