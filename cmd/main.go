package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"curve_service/internal/auth"
	"curve_service/internal/config"
	"curve_service/internal/http_server/handlers/login"
	"curve_service/internal/http_server/handlers/register"
	"curve_service/internal/http_server/handlers/repetitions"
	"curve_service/internal/http_server/handlers/resend"
	"curve_service/internal/http_server/handlers/scopes"
	"curve_service/internal/http_server/handlers/topics"
	"curve_service/internal/http_server/handlers/verify"
	"curve_service/internal/http_server/middleware/authn"
	"curve_service/internal/http_server/middleware/ownership"
	"curve_service/internal/lib/validation"
	rateLimit "curve_service/internal/middleware/ratelimit"
	"curve_service/internal/rabbitmq"
	"curve_service/internal/storage/postgres"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-playground/validator/v10"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

func main() {
	cfg := config.MustLoad("./config/config.yaml")

	log := setupLogger(cfg.Env)

	log.Info("starting curve service", slog.String("env", cfg.Env))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigs
		log.Info("shutdown signal received")
		cancel()
	}()

	storage, err := postgres.New(ctx, cfg)
	if err != nil {
		log.Error("failed to connect postgres", slog.String("err", err.Error()))
		os.Exit(1)
	}
	defer storage.Close()

	msgBroker, err := rabbitmq.New(cfg.RabbitMQ.URL, cfg.RabbitMQ.QueueName)
	if err != nil {
		log.Error("failed to connect rabbitmq", slog.String("err", err.Error()))
		os.Exit(1)
	}
	defer msgBroker.Close()

	authService := auth.New(
		log,
		storage,
		storage,
		msgBroker,
		cfg.Tokens.SessionTokenTTL,
		cfg.Tokens.SessionTokenSecret,
		cfg.Tokens.VerificationTokenTTL,
		cfg.Security.MaxFailedLogins,
		cfg.Security.LockoutDuration,
		cfg.HTTPServer.BaseURL,
	)

	// One verifier per resource type; an unregistered type panics when
	// its route is declared, before the server starts listening.
	registry := ownership.NewRegistry(log)
	registry.Register(ownership.ResourceScope, ownership.VerifierFunc(storage.ScopeIsOwner))
	registry.Register(ownership.ResourceTopic, ownership.VerifierFunc(storage.TopicIsOwner))
	registry.Register(ownership.ResourceRepetition, ownership.VerifierFunc(storage.RepetitionIsOwner))

	validate := validation.New()

	router := setupRouter(log, validate, authService, registry, storage, cfg.Tokens.SessionTokenSecret)

	srv := &http.Server{
		Addr:         cfg.HTTPServer.Address,
		Handler:      router,
		ReadTimeout:  cfg.HTTPServer.Timeout,
		WriteTimeout: cfg.HTTPServer.Timeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	go func() {
		log.Info("HTTP server is running", slog.String("address", cfg.HTTPServer.Address))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server failed", slog.String("err", err.Error()))
			cancel()
		}
	}()

	<-ctx.Done()

	log.Info("shutting down HTTP server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown error", slog.String("err", err.Error()))
	} else {
		log.Info("server stopped gracefully")
	}

	log.Info("curve service stopped")
}

func setupRouter(
	log *slog.Logger,
	validate *validator.Validate,
	authService *auth.Auth,
	registry *ownership.Registry,
	storage *postgres.PostgresRepo,
	sessionSecret string,
) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.With(rateLimit.Register()).Post("/register",
		register.New(log, validate, authService),
	)
	r.With(rateLimit.Login()).Post("/login",
		login.New(log, validate, authService),
	)
	r.With(rateLimit.Verify()).Get("/verify",
		verify.New(log, authService),
	)
	r.With(rateLimit.ResendVerification()).Post("/resend-verification",
		resend.New(log, validate, authService),
	)

	r.Group(func(r chi.Router) {
		r.Use(rateLimit.Api())
		r.Use(authn.New(log, sessionSecret))

		r.Get("/scopes", scopes.NewList(log, storage))
		r.Post("/scopes", scopes.NewCreate(log, validate, storage))

		r.Route("/scopes/{scopeID}", func(r chi.Router) {
			r.Use(registry.Require("scopeID", ownership.ResourceScope))

			r.Get("/", scopes.NewGet(log, storage))
			r.Put("/", scopes.NewUpdate(log, validate, storage))
			r.Delete("/", scopes.NewDelete(log, storage))

			r.Get("/topics", topics.NewList(log, storage))
			r.Post("/topics", topics.NewCreate(log, validate, storage))
		})

		r.Route("/topics/{topicID}", func(r chi.Router) {
			r.Use(registry.Require("topicID", ownership.ResourceTopic))

			r.Get("/", topics.NewGet(log, storage))
			r.Put("/", topics.NewUpdate(log, validate, storage))
			r.Patch("/mastered", topics.NewMastered(log, storage))
			r.Delete("/", topics.NewDelete(log, storage))

			r.Get("/repetitions", repetitions.NewList(log, storage))
			r.Post("/repetitions", repetitions.NewCreate(log, validate, storage))
		})

		r.Route("/repetitions/{repetitionID}", func(r chi.Router) {
			r.Use(registry.Require("repetitionID", ownership.ResourceRepetition))

			r.Put("/", repetitions.NewUpdate(log, validate, storage))
			r.Patch("/complete", repetitions.NewComplete(log, storage))
			r.Delete("/", repetitions.NewDelete(log, storage))
		})
	})

	return r
}

func setupLogger(env string) *slog.Logger {
	var log *slog.Logger

	switch env {
	case envLocal:
		log = slog.New(
			slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envDev:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envProd:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	default:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	}

	return log
}
