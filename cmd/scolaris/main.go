package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/scolaris-app/scolaris/internal/app"
	"github.com/scolaris-app/scolaris/internal/assignments"
	"github.com/scolaris-app/scolaris/internal/attendance"
	"github.com/scolaris-app/scolaris/internal/audit"
	"github.com/scolaris-app/scolaris/internal/auth"
	"github.com/scolaris-app/scolaris/internal/dashboard"
	"github.com/scolaris-app/scolaris/internal/grades"
	"github.com/scolaris-app/scolaris/internal/platform/cache"
	"github.com/scolaris-app/scolaris/internal/platform/db"
	"github.com/scolaris-app/scolaris/internal/roles"
	"github.com/scolaris-app/scolaris/internal/shared"
	"github.com/scolaris-app/scolaris/internal/students"
	"github.com/scolaris-app/scolaris/jobs"
)

const shutdownGrace = 10 * time.Second

// gradeSheetQueue adapts the jobs client to the grades handler's enqueue
// interface.
type gradeSheetQueue struct {
	client *jobs.Client
}

func (q gradeSheetQueue) EnqueueGradeSheet(ctx context.Context, courseID int64) error {
	_, err := q.client.EnqueueGradeSheet(ctx, jobs.GradeSheetPayload{CourseID: courseID})
	return err
}

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
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
		logger.Error("scolaris exited", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *app.Config, logger *slog.Logger) error {
	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer dbpool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	jobClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		return fmt.Errorf("init job client: %w", err)
	}
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()

	sessionManager := shared.NewSessionManager(redisClient, "scolaris_session", cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)
	auditLogger := shared.NewAuditLogger(dbpool)
	rolesMW := roles.Middleware{Logger: logger}

	authService := auth.NewService(auth.NewRepository(dbpool))
	studentsService := students.NewService(students.NewRepository(dbpool), auditLogger)
	gradesService := grades.NewService(grades.NewRepository(dbpool), auditLogger)
	attendanceService := attendance.NewService(attendance.NewRepository(dbpool), auditLogger)
	assignmentsService := assignments.NewService(assignments.NewRepository(dbpool), auditLogger)
	auditService := audit.NewService(audit.NewRepository(dbpool))
	dashboardService := dashboard.NewService(dashboard.NewRepository(dbpool), redisClient, cfg.DashboardCacheTTL)

	router := app.NewRouter(app.RouterParams{
		Logger:             logger,
		Config:             cfg,
		SessionManager:     sessionManager,
		CSRFManager:        csrfManager,
		AuthHandler:        auth.NewHandler(logger, authService, sessionManager, csrfManager),
		StudentsHandler:    students.NewHandler(logger, studentsService, rolesMW),
		GradesHandler:      grades.NewHandler(logger, gradesService, rolesMW, gradeSheetQueue{client: jobClient}),
		AttendanceHandler:  attendance.NewHandler(logger, attendanceService, rolesMW),
		AssignmentsHandler: assignments.NewHandler(logger, assignmentsService, rolesMW),
		AuditHandler:       audit.NewHandler(logger, auditService, rolesMW),
		DashboardHandler:   dashboard.NewHandler(logger, dashboardService, rolesMW),
		JobHandler:         jobs.NewHandler(inspector, logger),
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	return ctx.Err()
}
