package attendance

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

// Handler wires HTTP endpoints for attendance.
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

// MountRoutes registers attendance routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.roles.RequireAuthenticated)
		r.Get("/sessions/course/{courseID}", h.listSessions)
		r.Get("/sessions/{sessionID}/records", h.sheet)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.roles.RequireAny(editwindow.RoleTeacher, editwindow.RoleStaff))
		r.Post("/sessions", h.createSession)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.roles.RequireAny(editwindow.RoleTeacher))
		r.Post("/records", h.createRecord)
		r.Post("/sessions/{sessionID}/records", h.recordSheet)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.roles.RequireAny(editwindow.RoleGuardian))
		r.Put("/records/{id}", h.updateRecord)
	})
}

type sessionRequest struct {
	CourseID int64     `json:"course_id" validate:"required"`
	StartsAt time.Time `json:"starts_at" validate:"required"`
	EndsAt   time.Time `json:"ends_at" validate:"required"`
}

type recordRequest struct {
	SessionID     int64  `json:"session_id" validate:"required"`
	StudentID     int64  `json:"student_id" validate:"required"`
	Status        string `json:"status" validate:"required"`
	Justification string `json:"justification" validate:"max=500"`
}

type recordUpdateRequest struct {
	Status        string `json:"status" validate:"required"`
	Justification string `json:"justification" validate:"max=500"`
}

func (h *Handler) createSession(w http.ResponseWriter, r *http.Request) {
	var req sessionRequest
	if err := h.decode(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	sess, err := h.service.ScheduleSession(r.Context(), SessionInput{
		CourseID: req.CourseID,
		StartsAt: req.StartsAt,
		EndsAt:   req.EndsAt,
	})
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, sess)
}

func (h *Handler) listSessions(w http.ResponseWriter, r *http.Request) {
	courseID, err := strconv.ParseInt(chi.URLParam(r, "courseID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid course id")
		return
	}
	sessions, err := h.service.ListSessions(r.Context(), courseID)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, sessions)
}

func (h *Handler) createRecord(w http.ResponseWriter, r *http.Request) {
	principal, ok := roles.FromRequest(r)
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	var req recordRequest
	if err := h.decode(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	rec, err := h.service.RecordAttendance(r.Context(), principal, RecordInput{
		SessionID:     req.SessionID,
		StudentID:     req.StudentID,
		Status:        Status(req.Status),
		Justification: req.Justification,
	})
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, rec)
}

type sheetRequest struct {
	Entries []sheetEntryRequest `json:"entries" validate:"required,min=1,dive"`
}

type sheetEntryRequest struct {
	StudentID     int64  `json:"student_id" validate:"required"`
	Status        string `json:"status" validate:"required"`
	Justification string `json:"justification" validate:"max=500"`
}

func (h *Handler) recordSheet(w http.ResponseWriter, r *http.Request) {
	principal, ok := roles.FromRequest(r)
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	sessionID, err := strconv.ParseInt(chi.URLParam(r, "sessionID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid session id")
		return
	}
	var req sheetRequest
	if err := h.decode(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	entries := make([]SheetEntry, 0, len(req.Entries))
	for _, e := range req.Entries {
		entries = append(entries, SheetEntry{
			StudentID:     e.StudentID,
			Status:        Status(e.Status),
			Justification: e.Justification,
		})
	}
	records, err := h.service.RecordSheet(r.Context(), principal, sessionID, entries)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, records)
}

func (h *Handler) sheet(w http.ResponseWriter, r *http.Request) {
	principal, ok := roles.FromRequest(r)
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	sessionID, err := strconv.ParseInt(chi.URLParam(r, "sessionID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid session id")
		return
	}
	views, err := h.service.Sheet(r.Context(), principal, h.now(), sessionID, r.Header.Get("Accept-Language"))
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, views)
}

func (h *Handler) updateRecord(w http.ResponseWriter, r *http.Request) {
	principal, ok := roles.FromRequest(r)
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid record id")
		return
	}
	var req recordUpdateRequest
	if err := h.decode(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	rec, err := h.service.UpdateRecord(r.Context(), principal, h.now(), id, Status(req.Status), req.Justification)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, rec)
}

func (h *Handler) decode(r *http.Request, target any) error {
	if err := httpx.DecodeJSON(r, target); err != nil {
		return errors.New("invalid JSON body")
	}
	if err := h.validator.Struct(target); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			return fieldErrs
		}
		return err
	}
	return nil
}

func (h *Handler) respondErr(w http.ResponseWriter, r *http.Request, err error) {
	var denied *shared.EditDenied
	switch {
	case errors.As(err, &denied):
		shared.RespondEditDenied(w, r, denied)
	case errors.Is(err, ErrNotFound):
		httpx.RespondError(w, httpx.ErrNotFound)
	case errors.Is(err, ErrDuplicateRecord):
		httpx.RespondError(w, httpx.ErrDuplicate)
	case errors.Is(err, ErrInvalidInput):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	default:
		h.logger.Error("attendance request failed", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
