package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/vendalocal/whatsapp-assistant/internal/config"
	"github.com/vendalocal/whatsapp-assistant/internal/database"
	"github.com/vendalocal/whatsapp-assistant/internal/handler"
	"github.com/vendalocal/whatsapp-assistant/internal/jobs"
	"github.com/vendalocal/whatsapp-assistant/internal/middleware"
	"github.com/vendalocal/whatsapp-assistant/internal/redis"
	"github.com/vendalocal/whatsapp-assistant/internal/repository"
	"github.com/vendalocal/whatsapp-assistant/internal/session"
	"github.com/vendalocal/whatsapp-assistant/internal/transport"
	"github.com/vendalocal/whatsapp-assistant/internal/whatsapp"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	setLogLevel(cfg.LogLevel)

	isProduction := os.Getenv("FLY_APP_NAME") != ""
	if err := cfg.Validate(isProduction); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	catalog, err := config.LoadCatalog(cfg.CatalogPath, cfg.DefaultLanguage)
	if err != nil {
		log.Warn().Err(err).Str("path", cfg.CatalogPath).Msg("catalog not loaded, using defaults")
		catalog = config.DefaultCatalog(cfg.DefaultLanguage)
	}

	if err := database.Migrate(cfg.DatabaseURL); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), config.DBPingTimeout)
	if err := db.Ping(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to ping database")
	}
	cancel()
	log.Info().Msg("database connected")

	redisClient, err := redis.NewClient(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer redisClient.Close()
	log.Info().Msg("redis connected")

	sessionRepo := repository.NewSessionRepository(db.DB)
	userRepo := repository.NewUserRepository(db.DB)

	phoneLock := redis.NewLock(
		redisClient.Client,
		config.SessionLockTTL,
		config.SessionLockRetries,
		config.SessionLockBackoff,
	)

	manager := session.NewManager(sessionRepo, userRepo, phoneLock, catalog, cfg.DefaultCountryCode)

	sender := transport.NewClient(cfg.WhatsAppAPIBaseURL, cfg.WhatsAppPhoneNumberID, cfg.WhatsAppToken)

	router := handler.NewRouter(manager, sender, catalog, demoShops())

	rateLimiter := middleware.NewRedisRateLimiter(redisClient.Client, cfg.RateLimitPerMin)
	signatureMiddleware := middleware.NewSignatureMiddleware(cfg.AppSecret)

	webhookHandler := handler.NewWebhookHandler(manager, router, rateLimiter, cfg.WebhookVerifyToken)

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(config.ServerRequestTimeout))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]any{
			"status":    "ok",
			"timestamp": time.Now().UnixMilli(),
		})
	})

	r.Route("/webhook", func(r chi.Router) {
		r.Use(signatureMiddleware.Handler)
		r.Get("/", webhookHandler.Verify)
		r.Post("/", webhookHandler.Receive)
	})

	cleanupJob := jobs.NewCleanupJob(sessionRepo, cfg.SessionRetention(), config.CleanupJobInterval)
	cleanupJob.Start()
	defer cleanupJob.Stop()

	server := &http.Server{
		Addr:        cfg.Addr(),
		Handler:     r,
		ReadTimeout: config.ServerReadTimeout,
		IdleTimeout: config.ServerIdleTimeout,
	}

	go func() {
		log.Info().Str("addr", cfg.Addr()).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), config.ServerShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}

// demoShops is the stand-in shop directory until the commerce backend
// provides a real one.
func demoShops() []whatsapp.Row {
	shops := make([]whatsapp.Row, 0, 23)
	for i := 1; i <= 23; i++ {
		shops = append(shops, whatsapp.Row{
			ID:          fmt.Sprintf("shop_%d", i),
			Title:       fmt.Sprintf("Tienda %d", i),
			Description: "Abierto hoy",
		})
	}
	return shops
}

func setLogLevel(level string) {
	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}
