package students

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

// Handler wires HTTP endpoints for student master data.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	roles     roles.Middleware
	validator *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, rolesMW roles.Middleware) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		roles:     rolesMW,
		validator: validator.New(),
	}
}

// MountRoutes registers student routes. Staff manage, teachers view.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.roles.RequireAny(editwindow.RoleTeacher, editwindow.RoleStaff))
		r.Get("/", h.listStudents)
		r.Get("/{id}", h.getStudent)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.roles.RequireAny(editwindow.RoleStaff))
		r.Post("/", h.createStudent)
		r.Put("/{id}", h.updateStudent)
	})
}

type studentRequest struct {
	Number    string    `json:"number" validate:"required,max=20"`
	FirstName string    `json:"first_name" validate:"required,max=100"`
	LastName  string    `json:"last_name" validate:"required,max=100"`
	BirthDate time.Time `json:"birth_date" validate:"required"`
	ClassName string    `json:"class_name" validate:"required,max=30"`
}

type studentListResponse struct {
	Students   []Student         `json:"students"`
	Pagination shared.Pagination `json:"pagination"`
}

func (h *Handler) listStudents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	perPage, _ := strconv.Atoi(q.Get("per_page"))

	list, pagination, err := h.service.List(r.Context(), ListFilter{
		ClassName: q.Get("class"),
		Search:    q.Get("search"),
		Page:      page,
		PerPage:   perPage,
	})
	if err != nil {
		h.respondErr(w, err)
		return
	}
	if list == nil {
		list = []Student{}
	}
	httpx.JSON(w, http.StatusOK, studentListResponse{Students: list, Pagination: pagination})
}

func (h *Handler) getStudent(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid student id")
		return
	}
	st, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, st)
}

func (h *Handler) createStudent(w http.ResponseWriter, r *http.Request) {
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
	st, err := h.service.Create(r.Context(), principal, StudentInput{
		Number:    req.Number,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		BirthDate: req.BirthDate,
		ClassName: req.ClassName,
	})
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, st)
}

func (h *Handler) updateStudent(w http.ResponseWriter, r *http.Request) {
	principal, ok := roles.FromRequest(r)
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid student id")
		return
	}
	req, err := h.decode(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	st, err := h.service.Update(r.Context(), principal, id, StudentInput{
		Number:    req.Number,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		BirthDate: req.BirthDate,
		ClassName: req.ClassName,
	})
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, st)
}

func (h *Handler) decode(r *http.Request) (studentRequest, error) {
	var req studentRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		return req, errors.New("invalid JSON body")
	}
	if err := h.validator.Struct(req); err != nil {
		return req, err
	}
	return req, nil
}

func (h *Handler) respondErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.RespondError(w, httpx.ErrNotFound)
	case errors.Is(err, ErrDuplicateNumber):
		httpx.Problem(w, http.StatusConflict, "Duplicate", "student number already in use")
	case errors.Is(err, ErrInvalidInput):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	default:
		h.logger.Error("students request failed", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
