// Package roles maps sessions to policy actors and gates routes by role.
package roles

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/scolaris-app/scolaris/internal/editwindow"
	"github.com/scolaris-app/scolaris/internal/shared"
)

// Principal is the authenticated identity attached to a request.
type Principal struct {
	UserID int64
	Role   editwindow.Role
}

// Actor builds the policy actor for an evaluation at the given instant.
func (p Principal) Actor(now time.Time) editwindow.Actor {
	return editwindow.Actor{Role: p.Role, Now: now}
}

// FromRequest extracts the principal from the request session. The second
// return is false for anonymous or malformed sessions.
func FromRequest(r *http.Request) (Principal, bool) {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil || sess.User() == "" {
		return Principal{}, false
	}
	id, err := strconv.ParseInt(sess.User(), 10, 64)
	if err != nil {
		return Principal{}, false
	}
	role := editwindow.Role(sess.Role())
	if !role.Valid() {
		return Principal{}, false
	}
	return Principal{UserID: id, Role: role}, true
}

// Middleware gates routes on the role stored in the session at login.
type Middleware struct {
	Logger *slog.Logger
}

// RequireAuthenticated rejects anonymous requests.
func (m Middleware) RequireAuthenticated(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := FromRequest(r); !ok {
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAny ensures the current user holds one of the listed roles.
// Admin passes every role gate.
func (m Middleware) RequireAny(allowed ...editwindow.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := FromRequest(r)
			if !ok {
				http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
				return
			}
			if principal.Role == editwindow.RoleAdmin {
				next.ServeHTTP(w, r)
				return
			}
			for _, role := range allowed {
				if principal.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			if m.Logger != nil {
				m.Logger.Warn("role gate refused request",
					slog.String("path", r.URL.Path),
					slog.String("role", string(principal.Role)))
			}
			http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
		})
	}
}
