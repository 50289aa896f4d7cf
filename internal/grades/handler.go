package grades

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/scolaris-app/scolaris/internal/editwindow"
	"github.com/scolaris-app/scolaris/internal/platform/httpx"
	"github.com/scolaris-app/scolaris/internal/roles"
	"github.com/scolaris-app/scolaris/internal/shared"
)

// SheetEnqueuer submits a grade-sheet PDF build to the job queue.
type SheetEnqueuer interface {
	EnqueueGradeSheet(ctx context.Context, courseID int64) error
}

// Handler wires HTTP endpoints for grades.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	roles     roles.Middleware
	sheets    SheetEnqueuer
	validator *validator.Validate
	now       func() time.Time
}

// NewHandler constructs a Handler instance. A nil enqueuer disables the
// grade-sheet PDF endpoint.
func NewHandler(logger *slog.Logger, service *Service, rolesMW roles.Middleware, sheets SheetEnqueuer) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		roles:     rolesMW,
		sheets:    sheets,
		validator: validator.New(),
		now:       time.Now,
	}
}

// MountRoutes registers grade routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.roles.RequireAuthenticated)
		r.Get("/{id}", h.getGrade)
		r.Get("/course/{courseID}", h.listCourse)
		r.Get("/student/{studentID}", h.listStudent)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.roles.RequireAny(editwindow.RoleTeacher))
		r.Post("/", h.createGrade)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.roles.RequireAny(editwindow.RoleTeacher, editwindow.RoleGuardian))
		r.Put("/{id}", h.updateGrade)
		r.Delete("/{id}", h.deleteGrade)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.roles.RequireAny(editwindow.RoleTeacher, editwindow.RoleStaff))
		r.Get("/course/{courseID}/export.csv", h.exportCourseCSV)
		r.Post("/course/{courseID}/gradesheet", h.enqueueGradeSheet)
	})
}

type gradeRequest struct {
	StudentID   int64   `json:"student_id" validate:"required"`
	CourseID    int64   `json:"course_id" validate:"required"`
	Value       float64 `json:"value" validate:"min=0,max=20"`
	Coefficient float64 `json:"coefficient" validate:"gt=0"`
	Comment     string  `json:"comment" validate:"max=500"`
}

func (h *Handler) createGrade(w http.ResponseWriter, r *http.Request) {
	principal, ok := roles.FromRequest(r)
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	req, err := h.decodeGrade(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	g, err := h.service.Create(r.Context(), principal, GradeInput{
		StudentID:   req.StudentID,
		CourseID:    req.CourseID,
		Value:       req.Value,
		Coefficient: req.Coefficient,
		Comment:     req.Comment,
	})
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, g)
}

func (h *Handler) getGrade(w http.ResponseWriter, r *http.Request) {
	principal, ok := roles.FromRequest(r)
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid grade id")
		return
	}
	view, err := h.service.View(r.Context(), principal, h.now(), id, locale(r))
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, view)
}

func (h *Handler) listCourse(w http.ResponseWriter, r *http.Request) {
	principal, ok := roles.FromRequest(r)
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	courseID, err := pathID(r, "courseID")
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid course id")
		return
	}
	views, err := h.service.ListCourse(r.Context(), principal, h.now(), courseID, locale(r))
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, views)
}

func (h *Handler) listStudent(w http.ResponseWriter, r *http.Request) {
	principal, ok := roles.FromRequest(r)
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	studentID, err := pathID(r, "studentID")
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid student id")
		return
	}
	views, err := h.service.ListStudent(r.Context(), principal, h.now(), studentID, locale(r))
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, views)
}

func (h *Handler) updateGrade(w http.ResponseWriter, r *http.Request) {
	principal, ok := roles.FromRequest(r)
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid grade id")
		return
	}
	req, err := h.decodeGrade(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	g, err := h.service.Update(r.Context(), principal, h.now(), id, GradeInput{
		StudentID:   req.StudentID,
		CourseID:    req.CourseID,
		Value:       req.Value,
		Coefficient: req.Coefficient,
		Comment:     req.Comment,
	})
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, g)
}

func (h *Handler) deleteGrade(w http.ResponseWriter, r *http.Request) {
	principal, ok := roles.FromRequest(r)
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid grade id")
		return
	}
	if err := h.service.Delete(r.Context(), principal, h.now(), id); err != nil {
		h.respondErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) exportCourseCSV(w http.ResponseWriter, r *http.Request) {
	courseID, err := pathID(r, "courseID")
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid course id")
		return
	}
	rows, err := h.service.ExportRows(r.Context(), courseID)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=grades-course-%d.csv", courseID))
	if err := WriteCourseCSV(w, rows); err != nil {
		h.logger.Error("write grades csv", slog.Any("error", err))
	}
}

func (h *Handler) enqueueGradeSheet(w http.ResponseWriter, r *http.Request) {
	if h.sheets == nil {
		httpx.Problem(w, http.StatusServiceUnavailable, "Unavailable", "grade sheet rendering is not configured")
		return
	}
	courseID, err := pathID(r, "courseID")
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid course id")
		return
	}
	if err := h.sheets.EnqueueGradeSheet(r.Context(), courseID); err != nil {
		h.logger.Error("enqueue grade sheet", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusAccepted, map[string]any{"course_id": courseID, "status": "queued"})
}

func (h *Handler) decodeGrade(r *http.Request) (gradeRequest, error) {
	var req gradeRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		return req, errors.New("invalid JSON body")
	}
	if err := h.validator.Struct(req); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			return req, fieldErrs
		}
		return req, err
	}
	return req, nil
}

func (h *Handler) respondErr(w http.ResponseWriter, r *http.Request, err error) {
	var denied *shared.EditDenied
	switch {
	case errors.As(err, &denied):
		shared.RespondEditDenied(w, r, denied)
	case errors.Is(err, ErrNotFound):
		httpx.RespondError(w, httpx.ErrNotFound)
	case errors.Is(err, ErrInvalidInput):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	default:
		h.logger.Error("grades request failed", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}

func pathID(r *http.Request, key string) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, key), 10, 64)
}

func locale(r *http.Request) string {
	return r.Header.Get("Accept-Language")
}
