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
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "github.com/tranqh/tripflow/docs"
	"github.com/tranqh/tripflow/internal/approval"
	"github.com/tranqh/tripflow/internal/config"
	"github.com/tranqh/tripflow/internal/database"
	"github.com/tranqh/tripflow/internal/employee"
	"github.com/tranqh/tripflow/internal/joinrequest"
	"github.com/tranqh/tripflow/internal/location"
	"github.com/tranqh/tripflow/internal/logging"
	"github.com/tranqh/tripflow/internal/notify"
	"github.com/tranqh/tripflow/internal/optimizer"
	"github.com/tranqh/tripflow/internal/override"
	"github.com/tranqh/tripflow/internal/trip"
	mw "github.com/tranqh/tripflow/pkg/middleware"
)

// @title        Tripflow API
// @version      1.0
// @description  Corporate business-trip request, approval and optimization service.
// @BasePath     /api/v1
func main() {
	// .env is optional; deployed environments use real env vars
	_ = godotenv.Load()

	cfg := config.Load()
	logger := logging.NewLogger(cfg.LogLevel)

	db, err := database.NewPostgresConnection(cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to connect to database", "err", err)
		os.Exit(1)
	}
	defer db.Close()
	logger.Info("connected to database")

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	defer rdb.Close()

	var notifier notify.Notifier
	if len(cfg.KafkaBrokers) > 0 {
		kn := notify.NewKafkaNotifier(cfg.KafkaBrokers, cfg.KafkaTopic, logger)
		defer kn.Close()
		notifier = kn
	} else {
		logger.Warn("no kafka brokers configured, notifications are log-only")
		notifier = &notify.LogNotifier{Logger: logger}
	}

	tokens := approval.NewTokenStore(rdb, cfg.ApprovalLinkTTL)

	// Employee directory (read-only)
	employeeRepo := employee.NewRepository(db)

	// Trip feature
	tripRepo := trip.NewRepository(db)
	tripService := trip.NewService(tripRepo, employeeRepo, tokens, notifier, trip.Config{
		UrgentWindow:    cfg.UrgentWindow,
		ApprovalLinkTTL: cfg.ApprovalLinkTTL,
		PublicBaseURL:   cfg.PublicBaseURL,
	}, logger)
	tripHandler := trip.NewHandler(tripService)

	// Optimizer feature (thresholds injected at construction)
	optimizerCfg := optimizer.Config{
		MaxWait:           cfg.Optimizer.MaxWait,
		MinSavingsPercent: cfg.Optimizer.MinSavingsPercent,
	}
	groupRepo := optimizer.NewRepository(db)
	optimizerService := optimizer.NewService(tripRepo, groupRepo, notifier, optimizerCfg, logger)
	optimizerHandler := optimizer.NewHandler(optimizerService)

	// Manual override feature
	overrideRepo := override.NewRepository(db)
	overrideService := override.NewService(tripRepo, employeeRepo, overrideRepo, notifier, cfg.ApprovalLinkTTL, logger)
	overrideHandler := override.NewHandler(overrideService)

	// Join request feature
	joinRepo := joinrequest.NewRepository(db)
	joinService := joinrequest.NewService(joinRepo, tripRepo, notifier, logger)
	joinHandler := joinrequest.NewHandler(joinService)

	locationHandler := location.NewHandler()

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(mw.Metrics)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/swagger/*", httpSwagger.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(mw.IdentityMiddleware)

		r.Mount("/trips", tripHandler.Routes())
		r.Mount("/locations", locationHandler.Routes())
		r.Mount("/join-requests", joinHandler.Routes())

		r.Group(func(r chi.Router) {
			r.Use(mw.RequireAdmin)
			r.Mount("/optimizer", optimizerHandler.Routes())
			r.Mount("/admin/overrides", overrideHandler.Routes())
		})
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("server starting", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server failed", "err", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "err", err)
	}
	logger.Info("server stopped")
}
