package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/axokaze/kaze-api/internal/config"
	"github.com/axokaze/kaze-api/internal/handler"
	"github.com/axokaze/kaze-api/internal/ratelimit"
	"github.com/axokaze/kaze-api/internal/repository"
	"github.com/axokaze/kaze-api/internal/usecase"
	"github.com/axokaze/kaze-api/shared/auth"
	"github.com/axokaze/kaze-api/shared/mailer"
)

func main() {
	logger := zerolog.New(os.Stderr).With().Timestamp().Logger()

	cfg := config.Load(&logger)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	// The Mongo client is owned here and injected downward; the driver's
	// pool handles reconnects, there is no process-global connection state.
	mongoClient, err := mongo.Connect(options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create mongodb client")
	}
	defer func() {
		if err := mongoClient.Disconnect(context.Background()); err != nil {
			logger.Error().Err(err).Msg("failed to disconnect from mongodb")
		}
	}()

	if err := mongoClient.Ping(ctx, nil); err != nil {
		logger.Fatal().Err(err).Msg("failed to ping mongodb")
	}
	db := mongoClient.Database(cfg.MongoDatabase)

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer redisClient.Close()

	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Fatal().Err(err).Msg("failed to ping redis")
	}

	userRepo := repository.NewUserMongoRepository(ctx, &logger, db)

	jwtAuth := auth.NewJWTAuthenticator(auth.Config{
		AccessSecret:  cfg.Token.AccessTokenSecret,
		RefreshSecret: cfg.Token.RefreshTokenSecret,
		Issuer:        cfg.Token.Issuer,
		Audience:      cfg.Token.Audience,
		AccessTTL:     cfg.Token.AccessTokenExpiresIn,
		RefreshTTL:    cfg.Token.RefreshTokenExpiresIn,
	})

	authMailer := mailer.NewMailer(&logger)
	limiter := ratelimit.New(redisClient, nil)

	authUsecase := usecase.NewAuthUsecase(userRepo, &jwtAuth, authMailer)
	profileUsecase := usecase.NewProfileUsecase(userRepo, &jwtAuth)
	passwordResetUsecase := usecase.NewPasswordResetUsecase(userRepo, authMailer, cfg.AppPasswordResetURL)

	authHandler := handler.NewAuthHandler(
		authUsecase,
		profileUsecase,
		passwordResetUsecase,
		&jwtAuth,
		limiter,
		&logger,
	)

	r := chi.NewRouter()
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(handler.RequestLogger(&logger))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Mount("/api/auth", authHandler.Routes())

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", cfg.HTTPAddr).Msg("starting http server")
		errc <- server.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	case sig := <-stop:
		logger.Info().Str("signal", sig.String()).Msg("shutting down")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("failed to shut down http server")
		}
	}
}
