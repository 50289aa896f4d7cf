package dashboard

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/scolaris-app/scolaris/internal/platform/httpx"
	"github.com/scolaris-app/scolaris/internal/roles"
)

// Handler wires the dashboard endpoint.
type Handler struct {
	logger  *slog.Logger
	service *Service
	roles   roles.Middleware
	now     func() time.Time
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, rolesMW roles.Middleware) *Handler {
	return &Handler{logger: logger, service: service, roles: rolesMW, now: time.Now}
}

// MountRoutes registers dashboard routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.roles.RequireAuthenticated)
		r.Get("/", h.counts)
	})
}

func (h *Handler) counts(w http.ResponseWriter, r *http.Request) {
	counts, err := h.service.Counts(r.Context(), h.now())
	if err != nil {
		h.logger.Error("dashboard counts failed", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusOK, counts)
}
