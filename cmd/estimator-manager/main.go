// cmd/estimator-manager/main.go
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"renovation-estimator/internal/common/aws"
	"renovation-estimator/internal/common/camunda"
	"renovation-estimator/internal/common/config"
	"renovation-estimator/internal/common/database"
	apperrors "renovation-estimator/internal/common/errors"
	"renovation-estimator/internal/common/logger"
	"renovation-estimator/internal/common/observability"
	"renovation-estimator/pkg/registry"

	cre "renovation-estimator/internal/workers/estimate/calculate-renovation-estimate"
	ire "renovation-estimator/internal/workers/estimate/index-renovation-estimate"
	nre "renovation-estimator/internal/workers/estimate/notify-renovation-estimate"
	pre "renovation-estimator/internal/workers/estimate/persist-renovation-estimate"
	vri "renovation-estimator/internal/workers/estimate/validate-renovation-input"
)

const (
	connectTimeout  = 2 * time.Minute
	shutdownTimeout = 30 * time.Second
)

func workerTimeout(cfg *config.Config, taskType string, def time.Duration) time.Duration {
	if ms := cfg.Workers[taskType].Timeout; ms > 0 {
		return time.Duration(ms) * time.Millisecond
	}
	return def
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		zap.NewExample().Fatal("config load failed", zap.Error(err))
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting estimator manager...",
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	obs, err := observability.New(cfg.Observability, log)
	if err != nil {
		zapLog.Fatal("observability init failed", zap.Error(err))
	}

	ctx := context.Background()

	// --- Rate card and registry ---
	card, err := cfg.Pricing.RateCard()
	if err != nil {
		stdErr := apperrors.NewRateCardLoadFailedError(cfg.Pricing.RateCardPath, err)
		zapLog.Fatal(stdErr.Message, zap.String("errorCode", string(stdErr.Code)), zap.String("details", stdErr.Details))
	}
	zapLog.Info("Rate card loaded",
		zap.String("pricingVersion", card.Version),
		zap.String("currency", card.Currency),
	)

	reg, err := registry.LoadRegistry(cfg.Registry.Path)
	if err != nil {
		zapLog.Fatal("activity registry load failed", zap.Error(err))
	}
	if err := reg.Validate(); err != nil {
		zapLog.Fatal("activity registry invalid", zap.Error(err))
	}

	// --- Zeebe ---
	zeebe, err := camunda.NewClientWithConfig(&camunda.ClientConfig{
		GatewayAddress:         cfg.Camunda.BrokerAddress,
		UsePlaintextConnection: true,
		ConnectionTimeout:      time.Duration(cfg.Camunda.Timeout) * time.Millisecond,
		RequestTimeout:         time.Duration(cfg.Camunda.RequestTimeout) * time.Millisecond,
		RetryConfig: &camunda.RetryConfig{
			MaxRetries:     cfg.Camunda.ConnectRetries,
			BaseDelay:      2 * time.Second,
			MaxDelay:       15 * time.Second,
			MaxElapsedTime: connectTimeout,
		},
	}, log)
	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	zapLog.Info("Zeebe client connected successfully")

	// --- PostgreSQL ---
	pg, err := database.ConnectPostgres(ctx, cfg.Database.Postgres, connectTimeout, log)
	if err != nil {
		stdErr := apperrors.NewDatabaseConnectionFailedError(err)
		zapLog.Fatal(stdErr.Message, zap.String("errorCode", string(stdErr.Code)), zap.String("details", stdErr.Details))
	}
	defer pg.Close()
	if cfg.Database.Postgres.AutoMigrate {
		if err := database.Migrate(ctx, pg.DB.DB, log); err != nil {
			zapLog.Fatal("migrations failed", zap.Error(err))
		}
	}

	// --- Redis ---
	redis, err := database.NewRedis(cfg.Database.Redis)
	if err != nil {
		zapLog.Fatal("redis client failed", zap.Error(err))
	}
	defer redis.Close()
	if err := redis.Ping(ctx); err != nil {
		// The cache is optional; the calculate worker falls back to the engine.
		zapLog.Warn("Redis not reachable, estimates will not be cached", zap.Error(err))
	}

	// --- Elasticsearch ---
	esClient, err := database.NewElasticsearch(cfg.Database.Elasticsearch)
	if err != nil {
		zapLog.Fatal("elasticsearch client failed", zap.Error(err))
	}
	if err := esClient.EnsureIndex(ctx, cfg.Database.Elasticsearch.Index, database.EstimatesMapping); err != nil {
		zapLog.Warn("could not ensure search index", zap.Error(err))
	}

	// --- AWS ---
	awsCfg, err := aws.LoadConfig(ctx, cfg.Notifications.AWS.Region)
	if err != nil {
		zapLog.Fatal("aws config load failed", zap.Error(err))
	}

	// --- Workers ---
	pool := camunda.NewWorkerPool(zeebe.GetClient(), log)

	validateCfg := &vri.Config{Timeout: workerTimeout(cfg, vri.TaskType, vri.DefaultConfig().Timeout)}
	if activity, ok := reg.Find(vri.TaskType); ok && len(activity.InputSchema) > 0 {
		validateCfg.InputSchema = activity.InputSchema
	}
	pool.Start(vri.TaskType, cfg.Workers[vri.TaskType], vri.NewHandler(validateCfg, card, log))

	pool.Start(cre.TaskType, cfg.Workers[cre.TaskType], cre.NewHandler(
		&cre.Config{
			Timeout:  workerTimeout(cfg, cre.TaskType, cre.DefaultConfig().Timeout),
			CacheTTL: time.Duration(cfg.Pricing.CacheTTL) * time.Millisecond,
		},
		card, redis.Client, obs, log,
	))

	pool.Start(pre.TaskType, cfg.Workers[pre.TaskType], pre.NewHandler(
		&pre.Config{Timeout: workerTimeout(cfg, pre.TaskType, pre.DefaultConfig().Timeout)},
		database.NewEstimateStore(pg.DB), log,
	))

	pool.Start(ire.TaskType, cfg.Workers[ire.TaskType], ire.NewHandler(
		&ire.Config{
			Timeout: workerTimeout(cfg, ire.TaskType, ire.DefaultConfig().Timeout),
			Index:   cfg.Database.Elasticsearch.Index,
			Refresh: ire.DefaultConfig().Refresh,
		},
		esClient.Client, log,
	))

	pool.Start(nre.TaskType, cfg.Workers[nre.TaskType], nre.NewHandler(
		nre.ConfigFromApp(cfg.Notifications, workerTimeout(cfg, nre.TaskType, 0)),
		aws.NewSESClient(awsCfg), aws.NewSNSClient(awsCfg), log,
	))

	zapLog.Info("Workers registered", zap.Strings("taskTypes", pool.Running()))

	// --- Health & Metrics Server ---
	srv := &http.Server{
		Addr: cfg.Observability.MetricsAddress,
		Handler: newHealthMux(map[string]pinger{
			"postgres":      pg,
			"redis":         redis,
			"elasticsearch": esClient,
			"zeebe":         pingFunc(zeebe.HealthCheck),
		}),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		zapLog.Info("Health/Metrics server listening", zap.String("address", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping workers...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	pool.Close()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error stopping health server", zap.Error(err))
	}
	if err := zeebe.Close(); err != nil {
		zapLog.Error("Error closing Zeebe client", zap.Error(err))
	}
	if err := obs.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error flushing telemetry", zap.Error(err))
	}

	zapLog.Info("Estimator manager stopped gracefully")
}
