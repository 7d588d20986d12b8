package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/agileflow/user-service/internal/api"
	"github.com/agileflow/user-service/internal/core/ports"
	"github.com/agileflow/user-service/internal/core/service"
	"github.com/agileflow/user-service/internal/infrastructure/config"
	mongostore "github.com/agileflow/user-service/internal/infrastructure/db/mongo"
	redisstore "github.com/agileflow/user-service/internal/infrastructure/db/redis"
	"github.com/agileflow/user-service/internal/infrastructure/http/handlers"
	"github.com/agileflow/user-service/internal/infrastructure/queue"
	"github.com/agileflow/user-service/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		l := logger.Init(logger.Options{})
		l.Fatal().Err(err).Msg("load config")
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.Development(),
		Service: "users",
	})

	store, err := mongostore.Connect(ctx, mongostore.Config{
		URI:         cfg.Mongo.URI,
		Database:    cfg.Mongo.Database,
		Timeout:     cfg.Mongo.Timeout,
		MaxPoolSize: cfg.Mongo.MaxPoolSize,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("connect mongo")
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = store.Close(closeCtx)
	}()
	db := store.DB

	userRepo := mongostore.NewUserRepository(db, cfg.Mongo.Timeout)
	if err := userRepo.EnsureIndexes(ctx); err != nil {
		log.Fatal().Err(err).Msg("ensure user indexes")
	}
	auditRepo := mongostore.NewAuditRepository(db, cfg.Mongo.Timeout)
	if err := auditRepo.EnsureIndexes(ctx); err != nil {
		log.Fatal().Err(err).Msg("ensure audit indexes")
	}

	checks := map[string]handlers.Check{"mongodb": handlers.MongoCheck(db)}

	var ledger ports.RefreshLedger
	if cfg.Redis.Addr != "" {
		rdb, err := redisstore.Connect(ctx, redisstore.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			PoolSize: cfg.Redis.PoolSize,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("connect redis")
		}
		defer rdb.Close()

		checks["redis"] = handlers.RedisCheck(rdb)
		if cfg.Auth.RefreshRotation {
			ledger = redisstore.NewRefreshLedger(rdb)
		}
	}

	hashPool := queue.NewDispatcher(cfg.Auth.HashWorkers, log)
	hashPool.Start(ctx)

	hasher := service.NewBcryptHasher(cfg.Auth.BcryptCost, hashPool)
	tokens, err := service.NewTokenService(service.TokenConfig{
		AccessSecret:  cfg.Auth.JWTSecret,
		RefreshSecret: cfg.Auth.JWTRefreshSecret,
		AccessTTL:     cfg.Auth.AccessTokenTTL,
		RefreshTTL:    cfg.Auth.RefreshTokenTTL,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("token service")
	}

	authService := service.NewAuthService(userRepo, hasher, tokens, ledger, auditRepo, log)
	userService := service.NewUserService(userRepo, hasher, auditRepo, log)

	router := api.NewRouter(api.Dependencies{
		Logger:     log,
		Auth:       authService,
		Users:      userService,
		Tokens:     tokens,
		Checks:     checks,
		Registerer: prometheus.DefaultRegisterer,
		Gatherer:   prometheus.DefaultGatherer,
	})

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info().
			Str("addr", httpServer.Addr).
			Bool("refresh_rotation", ledger != nil).
			Msg("user service listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server")
		}
	}()

	<-ctx.Done()
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	log.Info().Msg("shutting down gracefully")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown")
	}
}
