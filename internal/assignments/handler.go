package assignments

import (
	"errors"
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

// Handler wires HTTP endpoints for assignments.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	roles     roles.Middleware
	validator *validator.Validate
	now       func() time.Time
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, rolesMW roles.Middleware) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		roles:     rolesMW,
		validator: validator.New(),
		now:       time.Now,
	}
}

// MountRoutes registers assignment routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.roles.RequireAuthenticated)
		r.Get("/{id}", h.getAssignment)
		r.Get("/course/{courseID}", h.listCourse)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.roles.RequireAny(editwindow.RoleTeacher))
		r.Post("/", h.createAssignment)
		r.Put("/{id}", h.updateAssignment)
		r.Delete("/{id}", h.deleteAssignment)
	})
}

type assignmentRequest struct {
	CourseID     int64     `json:"course_id" validate:"required"`
	Title        string    `json:"title" validate:"required,max=200"`
	Instructions string    `json:"instructions" validate:"max=5000"`
	DueAt        time.Time `json:"due_at" validate:"required"`
}

func (h *Handler) createAssignment(w http.ResponseWriter, r *http.Request) {
	principal, ok := roles.FromRequest(r)
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	req, err := h.decode(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	a, err := h.service.Create(r.Context(), principal, AssignmentInput{
		CourseID:     req.CourseID,
		Title:        req.Title,
		Instructions: req.Instructions,
		DueAt:        req.DueAt,
	})
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, a)
}

func (h *Handler) getAssignment(w http.ResponseWriter, r *http.Request) {
	principal, ok := roles.FromRequest(r)
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid assignment id")
		return
	}
	view, err := h.service.View(r.Context(), principal, h.now(), id, r.Header.Get("Accept-Language"))
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
	courseID, err := strconv.ParseInt(chi.URLParam(r, "courseID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid course id")
		return
	}
	views, err := h.service.ListCourse(r.Context(), principal, h.now(), courseID, r.Header.Get("Accept-Language"))
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, views)
}

func (h *Handler) updateAssignment(w http.ResponseWriter, r *http.Request) {
	principal, ok := roles.FromRequest(r)
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid assignment id")
		return
	}
	req, err := h.decode(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	a, err := h.service.Update(r.Context(), principal, h.now(), id, AssignmentInput{
		CourseID:     req.CourseID,
		Title:        req.Title,
		Instructions: req.Instructions,
		DueAt:        req.DueAt,
	})
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, a)
}

func (h *Handler) deleteAssignment(w http.ResponseWriter, r *http.Request) {
	principal, ok := roles.FromRequest(r)
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid assignment id")
		return
	}
	if err := h.service.Delete(r.Context(), principal, h.now(), id); err != nil {
		h.respondErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) decode(r *http.Request) (assignmentRequest, error) {
	var req assignmentRequest
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
		h.logger.Error("assignments request failed", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
