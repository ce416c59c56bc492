package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/squadbook/squadbook-api/internal/config"
	"github.com/squadbook/squadbook-api/internal/domain/booking"
	"github.com/squadbook/squadbook-api/internal/domain/ledger"
	"github.com/squadbook/squadbook-api/internal/domain/purchase"
	"github.com/squadbook/squadbook-api/internal/domain/session"
	"github.com/squadbook/squadbook-api/internal/middleware"
	"github.com/squadbook/squadbook-api/internal/pkg/database"
	"github.com/squadbook/squadbook-api/internal/pkg/jwt"
	"github.com/squadbook/squadbook-api/internal/pkg/logger"
	pkgresponse "github.com/squadbook/squadbook-api/internal/pkg/response"
	"github.com/squadbook/squadbook-api/internal/pkg/storage"
)

func main() {
	cfg := config.Load()

	if err := logger.Init(logger.Config{Level: cfg.LogLevel, Environment: cfg.Env}); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize logger")
	}

	log.Info().
		Str("env", cfg.Env).
		Str("port", cfg.Port).
		Msg("Starting Squadbook API")

	db, err := database.NewPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer database.ClosePostgres(db)

	redis, err := database.NewRedis(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer database.CloseRedis(redis)

	jwtService := jwt.NewService(cfg.JWTSecret, cfg.JWTAccessTTL)

	if cfg.PurchaseWebhookSecret == "" {
		log.Warn().Msg("PURCHASE_WEBHOOK_SECRET not set, purchase webhook will reject all requests")
	}

	auditStore, err := storage.NewAuditStore(storage.Config{
		Endpoint:  cfg.S3Endpoint,
		Region:    cfg.S3Region,
		AccessKey: cfg.S3AccessKey,
		SecretKey: cfg.S3SecretKey,
		Bucket:    cfg.S3Bucket,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create audit store")
	}

	// ---------- Repositories ----------
	ledgerRepo := ledger.NewRepository(db)
	sessionRepo := session.NewRepository(db)
	bookingRepo := booking.NewRepository(db)

	// ---------- Services ----------
	availabilityCache := session.NewAvailabilityCache(redis, cfg.AvailabilityCacheTTL)
	ledgerService := ledger.NewService(ledgerRepo, auditStore)
	sessionService := session.NewService(sessionRepo, availabilityCache, session.Defaults{
		RefundWindow:    cfg.RefundWindow,
		RefundInsidePct: cfg.RefundInsidePct,
	})
	bookingService := booking.NewService(bookingRepo, ledgerRepo, availabilityCache, cfg.JoinRetryLimit)

	sweeper := session.NewSweeper(sessionService, cfg.SweepInterval)
	sweeper.Start()
	defer sweeper.Stop()

	// ---------- Handlers ----------
	ledgerHandler := ledger.NewHandler(ledgerService)
	sessionHandler := session.NewHandler(sessionService)
	bookingHandler := booking.NewHandler(bookingService)
	purchaseHandler := purchase.NewHandler(ledgerService, cfg.PurchaseWebhookSecret)

	authMiddleware := middleware.Auth(jwtService)
	organizerMiddleware := middleware.RequireOrganizer()
	adminMiddleware := middleware.RequireAdmin()

	// ---------- Router ----------
	r := chi.NewRouter()

	r.Use(chimw.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recover)
	r.Use(middleware.CORSHandler(cfg.AllowedOrigins))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		pkgresponse.OK(w, map[string]string{
			"status":  "ok",
			"version": "1.0.0",
		})
	})

	r.Route("/api/v1", func(r chi.Router) {
		sessionRoutes := sessionHandler.Routes(authMiddleware, organizerMiddleware, adminMiddleware)
		bookingHandler.RegisterSessionRoutes(sessionRoutes)
		r.Mount("/sessions", sessionRoutes)

		r.Mount("/participations", bookingHandler.Routes(authMiddleware))
		r.Mount("/ledger", ledgerHandler.Routes(authMiddleware))

		r.Route("/admin", func(r chi.Router) {
			r.Mount("/ledger", ledgerHandler.AdminRoutes(authMiddleware, adminMiddleware))
			r.Mount("/sessions", bookingHandler.AdminRoutes(authMiddleware, adminMiddleware))
		})
	})

	r.Mount("/webhooks/purchases", purchaseHandler.Routes())

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited properly")
}
