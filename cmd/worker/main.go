package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/mobil3801/dfs-manager-portal/internal/app"
	jobmetrics "github.com/mobil3801/dfs-manager-portal/internal/jobs"
	"github.com/mobil3801/dfs-manager-portal/internal/permissions"
	"github.com/mobil3801/dfs-manager-portal/internal/platform/cache"
	"github.com/mobil3801/dfs-manager-portal/internal/platform/db"
	"github.com/mobil3801/dfs-manager-portal/internal/shared"
	"github.com/mobil3801/dfs-manager-portal/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	metrics := jobmetrics.NewMetrics(prometheus.DefaultRegisterer)

	auditLogger := shared.NewAuditLogger(pool)
	auditJob := jobs.NewPermissionAuditJob(auditLogger, logger, metrics)

	permStore := permissions.NewPGStore(pool)
	integrityJob := jobs.NewOverrideIntegrityJob(permStore, logger, metrics)

	integrityTask, err := jobs.NewOverrideIntegrityTask(jobs.OverrideIntegrityPayload{ActiveOnly: true})
	if err != nil {
		logger.Error("build integrity task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskPermissionAudit, Handler: auditJob.Handle},
			{Type: jobs.TaskOverrideIntegrity, Handler: integrityJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: cfg.IntegrityCron, Task: integrityTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
