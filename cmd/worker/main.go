package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/scolaris-app/scolaris/internal/app"
	"github.com/scolaris-app/scolaris/internal/auth"
	"github.com/scolaris-app/scolaris/internal/grades"
	"github.com/scolaris-app/scolaris/internal/platform/db"
	"github.com/scolaris-app/scolaris/jobs"
	"github.com/scolaris-app/scolaris/report"
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

	if err := run(ctx, cfg, logger); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker exited", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *app.Config, logger *slog.Logger) error {
	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer pool.Close()

	gradeSheetJob := &jobs.GradeSheetProcessor{
		Grades:     grades.NewService(grades.NewRepository(pool), nil),
		Renderer:   report.NewClient(cfg.GotenbergURL),
		StorageDir: cfg.GradeSheetStorage,
		Logger:     logger,
	}
	sessionPurgeJob := &jobs.SessionPurgeProcessor{
		Auth:   auth.NewService(auth.NewRepository(pool)),
		Logger: logger,
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: map[string]asynq.HandlerFunc{
			jobs.TaskGradeSheetPDF: gradeSheetJob.Handle,
			jobs.TaskSessionPurge:  sessionPurgeJob.Handle,
		},
		Cron: []jobs.CronJob{
			{Expr: "0 3 * * *", Task: jobs.NewSessionPurgeTask(), Options: []asynq.Option{asynq.MaxRetry(3)}},
		},
	})
	if err != nil {
		return fmt.Errorf("init worker: %w", err)
	}

	logger.Info("worker started", slog.String("queue", jobs.QueueDefault))
	return worker.Run(ctx)
}
