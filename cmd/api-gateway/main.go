package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	_ "github.com/noah-isme/alumni-directory/api/swagger"
	"github.com/noah-isme/alumni-directory/internal/handler"
	"github.com/noah-isme/alumni-directory/internal/repository"
	"github.com/noah-isme/alumni-directory/internal/service"
	"github.com/noah-isme/alumni-directory/pkg/cache"
	"github.com/noah-isme/alumni-directory/pkg/config"
	"github.com/noah-isme/alumni-directory/pkg/database"
	"github.com/noah-isme/alumni-directory/pkg/logger"
)

// @title Alumni Directory API
// @version 1.0.0
// @description Verified alumni listing with department, course and year filters
// @BasePath /
// @schemes http

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	bootCtx, cancelBoot := context.WithTimeout(ctx, 5*time.Second)
	db, err := database.NewPostgres(bootCtx, cfg.Database)
	cancelBoot()
	if err != nil {
		logr.Fatal("database unavailable", zap.Error(err))
	}
	defer db.Close() //nolint:errcheck

	var redisClient *redis.Client
	if cfg.Cache.Enabled {
		bootCtx, cancelBoot = context.WithTimeout(ctx, 5*time.Second)
		redisClient, err = cache.NewRedis(bootCtx, cfg.Redis)
		cancelBoot()
		if err != nil {
			logr.Warn("redis unavailable, serving without cache", zap.Error(err))
			redisClient = nil
		}
	}

	metrics := service.NewMetricsService()
	cacheRepo := repository.NewCacheRepository(redisClient, "directory:", logr)
	defer cacheRepo.Close() //nolint:errcheck
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Cache.TTL, logr, cfg.Cache.Enabled && redisClient != nil)
	cards := service.NewCardService(repository.NewCardRepository(db), cacheSvc, metrics, validator.New(), logr)

	// Verification status changes outside this service, so start from a cold cache.
	if err := cards.FlushCache(ctx); err != nil {
		logr.Warn("cache flush failed", zap.Error(err))
	}
	if cacheSvc.Enabled() && cfg.Cache.WarmWorkers > 0 {
		warmer := service.NewCacheWarmer(cards, cfg.Cache.WarmWorkers, logr)
		go func() {
			if _, err := warmer.Warm(ctx); err != nil {
				logr.Warn("cache warmup aborted", zap.Error(err))
			}
		}()
	}

	checks := map[string]handler.ReadinessCheck{"postgres": db.PingContext}
	if redisClient != nil {
		checks["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
	}

	var (
		auth  *service.AuthService
		login *handler.AuthHandler
	)
	if cfg.Auth.Enabled {
		auth = service.NewAuthService(repository.NewAccountRepository(db), validator.New(), logr, cfg.Auth.Secret, cfg.Auth.SessionTTL)
		login = handler.NewAuthHandler(auth, cfg.Env == config.EnvProduction, logr)
	}

	router := newRouter(cfg, logr, routerDeps{
		cards:   handler.NewCardHandler(cards, logr),
		metrics: handler.NewMetricsHandler(metrics, checks),
		service: metrics,
		auth:    auth,
		login:   login,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env), zap.Bool("auth", auth != nil))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}
