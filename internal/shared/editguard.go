package shared

import (
	"fmt"
	"net/http"
	"time"

	"github.com/scolaris-app/scolaris/internal/editwindow"
	"github.com/scolaris-app/scolaris/internal/platform/httpx"
)

// EditDenied is returned by service guards when the edit-window policy
// refuses a mutation. It carries the full decision so handlers can tell the
// caller why and for how long the record has been locked.
type EditDenied struct {
	Entity   string
	EntityID string
	Decision editwindow.Decision
}

func (e *EditDenied) Error() string {
	return fmt.Sprintf("%s %s: edit denied: %s", e.Entity, e.EntityID, e.Decision.Reason)
}

// editDeniedPayload is the 403 body for refused mutations.
type editDeniedPayload struct {
	httpx.ProblemDetail
	Reason        string `json:"reason"`
	ElapsedOverBy string `json:"elapsed_over_by,omitempty"`
	Label         string `json:"label"`
}

// RespondEditDenied writes the RFC7807 response for a refused mutation,
// including the machine-readable reason and a label localized for the
// request's Accept-Language.
func RespondEditDenied(w http.ResponseWriter, r *http.Request, denied *EditDenied) {
	payload := editDeniedPayload{
		ProblemDetail: httpx.ProblemDetail{
			Title:  "Edit Not Permitted",
			Status: http.StatusForbidden,
			Detail: denied.Error(),
		},
		Reason: string(denied.Decision.Reason),
		Label:  editwindow.Describe(denied.Decision, r.Header.Get("Accept-Language")),
	}
	if denied.Decision.ElapsedOverBy > 0 {
		payload.ElapsedOverBy = denied.Decision.ElapsedOverBy.Round(time.Second).String()
	}
	httpx.JSON(w, http.StatusForbidden, payload)
}
