package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/scolaris-app/scolaris/internal/assignments"
	"github.com/scolaris-app/scolaris/internal/attendance"
	"github.com/scolaris-app/scolaris/internal/audit"
	"github.com/scolaris-app/scolaris/internal/auth"
	"github.com/scolaris-app/scolaris/internal/dashboard"
	"github.com/scolaris-app/scolaris/internal/grades"
	"github.com/scolaris-app/scolaris/internal/shared"
	"github.com/scolaris-app/scolaris/internal/students"
	"github.com/scolaris-app/scolaris/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	SessionManager *shared.SessionManager
	CSRFManager    *shared.CSRFManager

	AuthHandler        *auth.Handler
	StudentsHandler    *students.Handler
	GradesHandler      *grades.Handler
	AttendanceHandler  *attendance.Handler
	AssignmentsHandler *assignments.Handler
	AuditHandler       *audit.Handler
	DashboardHandler   *dashboard.Handler
	JobHandler         *jobs.Handler
}

// NewRouter constructs the chi.Router with Scolaris defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		CSRFManager:    params.CSRFManager,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/auth", params.AuthHandler.MountRoutes)
	r.Route("/students", params.StudentsHandler.MountRoutes)
	r.Route("/grades", params.GradesHandler.MountRoutes)
	r.Route("/attendance", params.AttendanceHandler.MountRoutes)
	r.Route("/assignments", params.AssignmentsHandler.MountRoutes)
	r.Route("/audit", params.AuditHandler.MountRoutes)
	r.Route("/dashboard", params.DashboardHandler.MountRoutes)
	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}

	return r
}
