// Package main is the entry point for the social profile and calendar server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/social-apps/backend/internal/api"
	"github.com/social-apps/backend/internal/api/handlers"
	"github.com/social-apps/backend/internal/api/middleware"
	"github.com/social-apps/backend/internal/auth"
	"github.com/social-apps/backend/internal/calendar"
	"github.com/social-apps/backend/internal/config"
	"github.com/social-apps/backend/internal/fields"
	"github.com/social-apps/backend/internal/i18n"
	"github.com/social-apps/backend/internal/logger"
	"github.com/social-apps/backend/internal/privacy"
	"github.com/social-apps/backend/internal/render"
	"github.com/social-apps/backend/internal/search"
	"github.com/social-apps/backend/internal/storage"
	"github.com/social-apps/backend/internal/stream"
	"github.com/social-apps/backend/internal/users"
	"github.com/social-apps/backend/internal/websocket"
)

// version is set at build time via -ldflags "-X main.version=x.y.z".
// Defaults to "dev" when not provided.
var version = "dev"

func main() {
	configPath := flag.String("config", "", "Path to the YAML configuration file")
	addr := flag.String("addr", "", "HTTP server address, overrides the configuration")
	dbPath := flag.String("db", "", "SQLite database path, overrides the configuration")
	staticDir := flag.String("static", "", "Directory for static frontend files")
	healthCheck := flag.Bool("health-check", false, "Run health check and exit")
	flag.Parse()

	cfg, err := config.LoadFromEnv(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "loading config: %v\n", err)
		os.Exit(1)
	}
	if *addr == "" {
		*addr = cfg.Server.Addr()
	}
	if *dbPath != "" {
		cfg.Database.Path = *dbPath
	}

	// Health check mode for Docker HEALTHCHECK
	if *healthCheck {
		if err := runHealthCheck(*addr); err != nil {
			fmt.Fprintf(os.Stderr, "health check failed: %v\n", err)
			os.Exit(1)
		}
		os.Exit(0)
	}

	lggr, err := logger.New(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
	if err != nil {
		fmt.Fprintf(os.Stderr, "creating logger: %v\n", err)
		os.Exit(1)
	}
	defer lggr.Sync()

	if err := run(cfg, *addr, *staticDir, lggr); err != nil {
		lggr.Errorw("server failed", "err", err)
		lggr.Sync()
		os.Exit(1)
	}
}

func run(cfg *config.Config, addr, staticDir string, lggr logger.Logger) error {
	if envVer := os.Getenv("VERSION"); envVer != "" {
		version = envVer
	}
	lggr.Infow("starting server", "version", version, "addr", addr)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := storage.NewDB(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	if err := storage.RunMigrations(ctx, db); err != nil {
		return err
	}
	lggr.Infow("database migrations complete", "path", db.Path())

	// Repositories
	userRepo := storage.NewUserRepository(db)
	privacyRepo := storage.NewPrivacyRepository(db)
	searchRepo := storage.NewSearchRepository(db)
	calendarRepo := storage.NewCalendarRepository(db)
	streamRepo := storage.NewStreamRepository(db)

	// WebSocket hub
	hub := websocket.NewHub(lggr)
	go hub.Run(ctx)
	events := websocket.NewEventBroadcaster(hub)

	// Activity stream sinks
	sinks := []stream.Sink{stream.NewBroadcastSink(events)}
	var redisPing handlers.Pinger
	if cfg.Redis.Enabled {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()
		sinks = append(sinks, stream.NewRedisSink(rdb, cfg.Redis.Stream, cfg.Redis.MaxLen))
		redisPing = handlers.PingFunc(func(ctx context.Context) error { return rdb.Ping(ctx).Err() })
		lggr.Infow("redis stream sink enabled", "addr", cfg.Redis.Addr, "stream", cfg.Redis.Stream)
	}
	streams := stream.NewService(streamRepo, lggr, sinks...)

	// Profile fields
	tr := i18n.New("en")
	renderer := render.New(tr)
	fieldDeps := fields.Deps{
		Renderer:   renderer,
		Translator: tr,
		Privacy:    privacy.NewService(privacyRepo),
		Logger:     lggr,
	}
	emailAsUsername := cfg.Registrations.EmailAsUsername
	dispatcher := fields.NewDispatcher(
		fields.NewEmailField(fields.EmailParams{
			Searchable:        cfg.Fields.Email.Searchable,
			AllowedDomains:    cfg.Fields.Email.AllowedDomains,
			DisallowedDomains: cfg.Fields.Email.DisallowedDomains,
			ForbiddenWords:    cfg.Fields.Email.ForbiddenWords,
		}, emailAsUsername, userRepo, fieldDeps),
		fields.NewUsernameField(fields.UsernameParams{
			MinLength: cfg.Fields.Username.MinLength,
		}, emailAsUsername, userRepo, fieldDeps),
	)

	// Services
	searchSvc := search.NewService(dispatcher, searchRepo, userRepo, cfg.Search.MaxResults, lggr)
	userSvc := users.NewService(users.Deps{
		Dispatcher: dispatcher,
		Users:      userRepo,
		Privacy:    privacyRepo,
		Indexer:    searchSvc,
		Notifier:   events,
		Translator: tr,
		Logger:     lggr,
	})
	calendarCtrl := calendar.NewController(calendar.Deps{
		Entries:    calendarRepo,
		Users:      userRepo,
		Stream:     streams,
		Renderer:   renderer,
		Translator: tr,
		Notifier:   events,
		Logger:     lggr,
	})

	// Reindex job
	scheduler := search.NewScheduler(searchSvc, lggr)
	if cfg.Search.ReindexSchedule != "" {
		if err := scheduler.Start(cfg.Search.ReindexSchedule); err != nil {
			return fmt.Errorf("starting reindex scheduler: %w", err)
		}
		defer scheduler.Stop()
	}

	// Auth
	if cfg.Auth.JWTSecret == "" {
		return errors.New("auth.jwt_secret (SOCIAL_JWT_SECRET) is required")
	}
	tokens := auth.NewTokenManager([]byte(cfg.Auth.JWTSecret), time.Duration(cfg.Auth.TokenTTLMinutes)*time.Minute)

	var oauthProvider *auth.OAuthProvider
	if cfg.OAuth.Enabled {
		scopes := append([]string{"openid", "profile"}, dispatcher.OAuthPermissions()...)
		oauthProvider = auth.NewOAuthProvider(auth.OAuthConfig{
			ClientID:     cfg.OAuth.ClientID,
			ClientSecret: cfg.OAuth.ClientSecret,
			AuthURL:      cfg.OAuth.AuthURL,
			TokenURL:     cfg.OAuth.TokenURL,
			UserInfoURL:  cfg.OAuth.UserInfoURL,
			RedirectURL:  cfg.OAuth.RedirectURL,
		}, scopes)
		lggr.Infow("oauth login enabled", "scopes", scopes)
	}

	if len(cfg.CSRF.Key) < 32 {
		return errors.New("csrf.key (SOCIAL_CSRF_KEY) must be at least 32 bytes")
	}
	csrfOpts := &middleware.CSRFOptions{
		Key:            []byte(cfg.CSRF.Key)[:32],
		Secure:         cfg.CSRF.Secure,
		TrustedOrigins: cfg.CSRF.TrustedOrigins,
		Message:        tr.T("csrf.invalid"),
	}

	router := api.NewRouter(api.Services{
		DB:         db,
		Redis:      redisPing,
		Hub:        hub,
		Scheduler:  scheduler,
		Calendar:   calendarCtrl,
		Users:      userSvc,
		Search:     searchSvc,
		Dispatcher: dispatcher,
		Tokens:     tokens,
		OAuth:      oauthProvider,
		Translator: tr,
		Logger:     lggr,
	}, api.Options{
		CookieName:     cfg.Auth.CookieName,
		SecureCookies:  cfg.CSRF.Secure,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		CSRF:           csrfOpts,
		StaticDir:      staticDir,
	})

	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		lggr.Infow("server listening", "addr", addr)
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	lggr.Infow("shutting down server")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	lggr.Infow("server stopped")
	return nil
}

// runHealthCheck performs a health check against the running server.
func runHealthCheck(addr string) error {
	url := "http://localhost" + addr + "/api/health"
	if addr != "" && addr[0] != ':' {
		url = "http://" + addr + "/api/health"
	}
	resp, err := http.Get(url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status %d", resp.StatusCode)
	}
	return nil
}
