package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	adapthttp "stressless/internal/adapter/http"
	"stressless/internal/adapter/memory"
	"stressless/internal/adapter/postgres"
	"stressless/internal/adapter/redis"
	"stressless/internal/adapter/ws"
	"stressless/internal/app"
	"stressless/internal/config"
	"stressless/internal/domain"
	"stressless/internal/logger"
)

// store is everything the services need from persistence.
type store interface {
	domain.UserRepository
	domain.CatalogRepository
	domain.HistoryRepository
	domain.PostRepository
	domain.AchievementRepository
}

func main() {
	configFile := os.Getenv("STRESSLESS_CONFIG")
	cfg, err := config.Load(configFile)
	if err != nil {
		_, _ = os.Stderr.WriteString("config: " + err.Error() + "\n")
		os.Exit(1)
	}

	log, err := logger.New(cfg.Log.Level, cfg.Log.File, cfg.Debug())
	if err != nil {
		_, _ = os.Stderr.WriteString("logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if err := run(cfg, configFile, log); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, configFile string, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		db       store
		sessions domain.AuthSessionRepository
		ping     func(context.Context) error
	)
	if cfg.Database.URL != "" {
		pg, err := postgres.Open(cfg.Database.URL)
		if err != nil {
			return err
		}
		defer func() { _ = pg.Close() }()
		db, sessions, ping = pg, postgres.NewSessionRepo(pg), pg.Ping
		log.Info("using postgres storage")
	} else {
		mem := memory.New()
		db, sessions = mem, mem.NewSessionRepo()
		log.Warn("DATABASE_URL not set, using in-memory storage")
	}

	var rdb *goredis.Client
	var locker app.UserLocker = app.NewLocalLocker()
	if cfg.Redis.URL != "" {
		client, err := redis.Open(ctx, cfg.Redis.URL)
		if err != nil {
			return err
		}
		defer func() { _ = client.Close() }()
		rdb = client
		locker = redis.NewLocker(client, cfg.Lock.TTL, log)
		log.Info("using redis for user locks and event fan-out")
	}

	hub := ws.NewHub(rdb, log.Named("ws"))
	go hub.Run(ctx)

	opts := []app.Option{
		app.WithLogger(log),
		app.WithPresenter(hub),
		app.WithLocker(locker),
	}

	engine := app.NewAchievementService(db, db, opts...)
	selector := app.NewRecommendService(db, cfg.Recommendation.FallbackLevel, opts...)
	recorder := app.NewRecorder(db, db, engine, opts...)
	auth := app.NewAuthService(db, sessions, db, engine, cfg.Admin.Username, cfg.Session.TTL, opts...)

	if err := auth.EnsureAdmin(ctx, cfg.Admin.Password); err != nil {
		log.Warn("admin account not created", zap.Error(err))
	}

	if configFile != "" {
		stopWatch, err := config.Watch(configFile, log, func(next *config.Config) {
			selector.SetFallbackLevel(next.Recommendation.FallbackLevel)
			log.Info("config reloaded", zap.Int("fallback_level", next.Recommendation.FallbackLevel))
		})
		if err != nil {
			log.Warn("config watch disabled", zap.Error(err))
		} else {
			defer func() { _ = stopWatch() }()
		}
	}

	oidcCfg := &adapthttp.OIDCConfig{}
	if cfg.OIDC.Enabled() {
		var err error
		oidcCfg, err = adapthttp.NewOIDC(ctx, cfg.OIDC.Issuer, cfg.OIDC.ClientID, cfg.OIDC.ClientSecret, cfg.OIDC.RedirectURL)
		if err != nil {
			return err
		}
		log.Info("sso enabled", zap.String("issuer", cfg.OIDC.Issuer))
	}

	srv := adapthttp.New(adapthttp.Services{
		Auth:         auth,
		Recommend:    selector,
		Practice:     app.NewPracticeService(selector, recorder, opts...),
		Achievements: engine,
		Community:    app.NewCommunityService(db, engine, opts...),
		Exercises:    app.NewExerciseAdminService(db, opts...),
		Dashboard:    app.NewDashboardService(db, opts...),
		Quotes:       app.NewQuoteService(opts...),
	}, adapthttp.Config{
		WebDir:        cfg.Server.WebDir,
		Logger:        log.Named("http"),
		OIDC:          oidcCfg,
		Events:        hub,
		SecureCookies: cfg.Server.SecureCookies,
		Ping:          ping,
	})

	go purgeSessions(ctx, auth, log)

	httpServer := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", zap.String("addr", cfg.Server.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

func purgeSessions(ctx context.Context, auth *app.AuthService, log *zap.Logger) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := auth.PurgeExpiredSessions(ctx); err != nil {
				log.Warn("purge expired sessions", zap.Error(err))
			}
		}
	}
}
