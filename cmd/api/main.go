package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"estate_analyzer/internal/estate"
	"estate_analyzer/internal/estate/service"
	"estate_analyzer/internal/estate/valuation"
	apphttp "estate_analyzer/internal/http"
	"estate_analyzer/internal/http/router"
	"estate_analyzer/platform/config"
	"estate_analyzer/platform/logger"
	"estate_analyzer/platform/validator"

	"github.com/gin-gonic/gin"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("estate analyzer starting", "env", cfg.Env, "addr", cfg.HTTPAddr)

	if cfg.Env != "development" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	assumptions, err := valuation.LoadAssumptions(cfg.GetAssumptionsFile())
	if err != nil {
		log.Error("failed to load assumptions", "error", err, "file", cfg.GetAssumptionsFile())
		panic("failed to load assumptions: " + err.Error())
	}
	if cfg.GetAssumptionsFile() != "" {
		log.Info("assumptions loaded", "file", cfg.GetAssumptionsFile())
	}

	cache, closeCache := initEvaluationCache(ctx, cfg, log)
	if closeCache != nil {
		defer closeCache()
	}

	// Modules and router.
	val := validator.New()
	var evaluationCache service.Cache
	var health apphttp.HealthChecker
	if cache != nil {
		evaluationCache = cache
		health = cache
	}
	estateModule := estate.NewModule(assumptions, evaluationCache, val, log)

	app := &apphttp.App{
		Config:  cfg,
		Logger:  log,
		Health:  health,
		Modules: []apphttp.Module{estateModule},
	}

	engine := router.New(app)
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	listenErr := make(chan error, 1)
	go func() {
		log.Info("listening", "addr", srv.Addr)
		listenErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-listenErr:
		if !errors.Is(err, http.ErrServerClosed) {
			log.Error("listener stopped", "error", err)
			panic("listen: " + err.Error())
		}
	case <-ctx.Done():
		log.Info("signal received, draining connections", "timeout", shutdownTimeout.String())
		drainCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(drainCtx); err != nil {
			log.Error("shutdown incomplete", "error", err)
		}
	}
}

func initEvaluationCache(ctx context.Context, cfg config.CacheConfig, log *logger.Logger) (*service.RedisCache, func()) {
	if !cfg.IsCacheEnabled() {
		log.Warn("REDIS_URL not configured; evaluation cache disabled")
		return nil, nil
	}

	var cache *service.RedisCache
	if err := withRetry(ctx, log, "redis connection", 3, time.Second, func() error {
		c, err := service.OpenRedisCache(ctx, cfg)
		if err != nil {
			return err
		}
		cache = c
		return nil
	}); err != nil {
		log.Error("failed to connect to redis; evaluation cache disabled", "error", err)
		return nil, nil
	}
	log.Info("evaluation cache enabled", "ttl", cfg.GetEvaluationCacheTTL().String())

	return cache, func() {
		_ = cache.Close()
	}
}

// withRetry calls fn up to attempts times, sleeping attempt² × baseDelay
// between failures. It gives up early when ctx is done.
func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: attempts must be positive", name)
	}

	var errs []error
	for attempt := range attempts {
		err := fn()
		if err == nil {
			return nil
		}
		errs = append(errs, err)
		log.Warn("retrying after failure", "operation", name, "attempt", attempt+1, "of", attempts, "error", err)

		if attempt+1 == attempts {
			break
		}
		wait := time.NewTimer(time.Duration((attempt+1)*(attempt+1)) * baseDelay)
		select {
		case <-ctx.Done():
			wait.Stop()
			return ctx.Err()
		case <-wait.C:
		}
	}
	return fmt.Errorf("%s: %w", name, errors.Join(errs...))
}
