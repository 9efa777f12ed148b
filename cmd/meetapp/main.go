package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/meetapp/internal/auth"
	"github.com/vasiliy-maslov/meetapp/internal/config"
	"github.com/vasiliy-maslov/meetapp/internal/db"
	"github.com/vasiliy-maslov/meetapp/internal/file"
	meetappHttp "github.com/vasiliy-maslov/meetapp/internal/handler/http"
	"github.com/vasiliy-maslov/meetapp/internal/mail"
	"github.com/vasiliy-maslov/meetapp/internal/meetup"
	"github.com/vasiliy-maslov/meetapp/internal/queue"
	"github.com/vasiliy-maslov/meetapp/internal/registration"
	"github.com/vasiliy-maslov/meetapp/internal/user"
)

func main() {
	configPath := flag.String("config", os.Getenv("CONFIG_PATH"), "path to the YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}

	setupLogger(cfg.Log)
	log.Info().Str("port", cfg.App.Port).Msg("Starting meetapp...")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := db.Migrate(cfg.Postgres); err != nil {
		log.Fatal().Err(err).Msg("Failed to apply migrations")
	}

	dbPool, err := db.New(ctx, cfg.Postgres)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer dbPool.Close()

	redisClient, err := queue.NewClient(ctx, cfg.Redis)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to redis")
	}
	defer redisClient.Close()

	storage, err := file.NewS3Storage(ctx, cfg.Storage)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize object storage")
	}

	jobs := queue.New(redisClient, cfg.Redis.QueuePrefix)
	mailer := mail.NewSMTPMailer(cfg.Mail)
	worker := queue.NewWorker(jobs, mail.NewRegistrationMail(mailer))

	userRepository := user.NewRepository(dbPool.Pool)
	meetupRepository := meetup.NewRepository(dbPool.Pool)

	userSvc := user.NewService(userRepository)
	fileSvc := file.NewService(file.NewRepository(dbPool.Pool), storage, cfg.Storage.PublicURL)
	meetupSvc := meetup.NewService(meetupRepository, fileSvc)
	registrationSvc := registration.NewService(
		registration.NewRepository(dbPool.Pool),
		meetupRepository,
		userRepository,
		jobs,
	)

	router := meetappHttp.NewRouter(meetappHttp.Deps{
		Users:         userSvc,
		Files:         fileSvc,
		Meetups:       meetupSvc,
		Registrations: registrationSvc,
		Tokens:        auth.NewTokenManager(cfg.Auth.Secret, cfg.Auth.TokenTTL),
		MaxUploadSize: cfg.Storage.MaxUploadSize,
	})

	server := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	workerDone := make(chan struct{})
	go func() {
		defer close(workerDone)
		if err := worker.Run(ctx); err != nil {
			log.Error().Err(err).Msg("Queue worker stopped with error")
		}
	}()

	go func() {
		log.Info().Str("addr", server.Addr).Msg("Starting HTTP server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Str("addr", server.Addr).Msg("Could not listen")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server shutdown failed")
	}

	select {
	case <-workerDone:
	case <-shutdownCtx.Done():
		log.Warn().Msg("Queue worker did not stop in time")
	}

	log.Info().Msg("Meetapp stopped gracefully.")
}

func setupLogger(cfg config.LogConfig) {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339

	if cfg.Pretty {
		log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
			With().Timestamp().Str("service", "meetapp").Logger()
		return
	}
	log.Logger = zerolog.New(os.Stderr).With().Timestamp().Str("service", "meetapp").Logger()
}
