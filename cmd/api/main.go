package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/geocoder89/authhub/internal/auth"
	"github.com/geocoder89/authhub/internal/cache"
	"github.com/geocoder89/authhub/internal/config"
	"github.com/geocoder89/authhub/internal/db"
	httpx "github.com/geocoder89/authhub/internal/http"
	"github.com/geocoder89/authhub/internal/http/handlers"
	"github.com/geocoder89/authhub/internal/observability"
	"github.com/geocoder89/authhub/internal/predict"
	"github.com/geocoder89/authhub/internal/repo/memory"
	"github.com/geocoder89/authhub/internal/repo/postgres"
	"github.com/geocoder89/authhub/internal/security"
	"github.com/prometheus/client_golang/prometheus"
)

const serviceName = "authhub"

type store interface {
	auth.UserStore
	Ping(ctx context.Context) error
}

func main() {
	// Load the config set up
	cfg := config.Load()

	// start up the observability logger
	log := observability.NewLogger(cfg.Env)
	slog.SetDefault(log)

	if err := run(cfg, log); err != nil {
		log.Error("server failed", "err", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx := context.Background()

	shutdownTracer, err := observability.InitTracer(ctx, observability.TracerConfig{
		Enabled:     cfg.OTelEnabled,
		ServiceName: serviceName,
		Env:         cfg.Env,
		Endpoint:    cfg.OTelEndpoint,
		SampleRatio: cfg.OTelSampleRatio,
	})
	if err != nil {
		return fmt.Errorf("init tracer: %w", err)
	}
	defer func() { _ = shutdownTracer(context.Background()) }()

	prom := observability.NewProm(prometheus.DefaultRegisterer)

	users, closeStore, err := openStore(ctx, cfg, prom, log)
	if err != nil {
		return err
	}
	defer closeStore()

	if cfg.Env == "prod" && cfg.JWTSecret == "change-me-in-prod" {
		log.Warn("JWT_SECRET is the built-in default, set a real secret")
	}

	hasher := security.NewHasher(cfg.BcryptCost)
	tokens := auth.NewManager(cfg.JWTSecret, cfg.AccessTTL())

	// effective values, after out-of-range config fell back to defaults
	log.Info("auth configured", authSettings(tokens, hasher)...)

	authSvc := auth.NewService(users, hasher, tokens, log).WithObserver(prom)
	usersSvc := auth.NewUsers(users, hasher, authSvc)

	created, err := db.EnsureUser(ctx, users, hasher, cfg.SeedUserEmail, cfg.SeedUserPassword)
	if err != nil {
		return fmt.Errorf("seed user: %w", err)
	}
	if created {
		log.Info("seed user created", "email", cfg.SeedUserEmail)
	}

	predictCache, closeCache := openCache(cfg, log)
	defer closeCache()
	predictor := predict.NewService(predictCache, cfg.PredictCacheTTL(), log).WithObserver(prom)
	predictor.Init(cfg.ModelDirs)

	// set up routers with the log
	router := httpx.NewRouter(log, httpx.Deps{
		Env:            cfg.Env,
		ServiceName:    serviceName,
		CORSOrigins:    cfg.CORSOrigins,
		MaxBodyBytes:   cfg.MaxBodyBytes,
		RequestTimeout: 3 * time.Second,
		Auth:           authSvc,
		Users:          usersSvc,
		Predictor:      predictor,
		Prom:           prom,
		Checks: map[string]handlers.Check{
			"store": users.Ping,
			"cache": predictCache.Ping,
		},
	})

	// server set up
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	// start server using a concurrent go-routine driven anonymous function.

	serveErr := make(chan error, 1)

	go func() {
		log.Info("Server starting", "port", cfg.Port, "env", cfg.Env, "store", cfg.StoreDriver)
		err := srv.ListenAndServe()

		if err != nil && err != http.ErrServerClosed {
			serveErr <- err
		}
	}()

	// Graceful shutdown

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serveErr:
		return err
	case <-stop:
	}

	log.Info("server shutting down")

	shutdownCtx, cancel := config.WithTimeout(10 * time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "err", err)
		return nil
	}

	log.Info("shutdown complete")

	return nil
}

func openStore(ctx context.Context, cfg config.Config, prom *observability.Prom, log *slog.Logger) (store, func(), error) {
	if cfg.StoreDriver == config.StoreMemory {
		log.Warn("using in-memory user store, data is lost on restart")
		return memory.NewUsersRepo(), func() {}, nil
	}

	if err := db.Migrate(ctx, cfg.DBURL); err != nil {
		return nil, nil, fmt.Errorf("migrate: %w", err)
	}

	pool, err := db.NewPool(ctx, cfg.DBURL, int32(cfg.DBMaxConns))
	if err != nil {
		return nil, nil, fmt.Errorf("db connect: %w", err)
	}

	return postgres.NewUsersRepo(pool, prom), pool.Close, nil
}

func openCache(cfg config.Config, log *slog.Logger) (cache.Cache, func()) {
	if cfg.RedisAddr == "" {
		return cache.NewMemory(cfg.PredictCacheTTL()), func() {}
	}

	rc := cache.NewRedis(cache.RedisConfig{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
		Prefix:   serviceName + ":",
	}, cfg.PredictCacheTTL())

	return rc, func() {
		if err := rc.Close(); err != nil {
			log.Warn("redis close failed", "err", err)
		}
	}
}

func authSettings(tokens *auth.Manager, hasher *security.Hasher) []any {
	return []any{
		"access_ttl", tokens.AccessTTL().String(),
		"bcrypt_cost", hasher.Cost(),
	}
}
