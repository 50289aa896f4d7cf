package roles

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/scolaris-app/scolaris/internal/editwindow"
	"github.com/scolaris-app/scolaris/internal/shared"
)

func requestWithRole(t *testing.T, userID, role string) *http.Request {
	t.Helper()
	sess := &shared.Session{ID: "test"}
	sess.SetUser(userID, role)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	return req.WithContext(shared.ContextWithSession(req.Context(), sess))
}

func TestFromRequest(t *testing.T) {
	principal, ok := FromRequest(requestWithRole(t, "42", "teacher"))
	require.True(t, ok)
	require.Equal(t, int64(42), principal.UserID)
	require.Equal(t, editwindow.RoleTeacher, principal.Role)

	// Anonymous session.
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	_, ok = FromRequest(req.WithContext(shared.ContextWithSession(req.Context(), &shared.Session{})))
	require.False(t, ok)

	// Garbage role on the session denies rather than guessing.
	_, ok = FromRequest(requestWithRole(t, "42", "superuser"))
	require.False(t, ok)

	// Garbage user ID.
	_, ok = FromRequest(requestWithRole(t, "abc", "teacher"))
	require.False(t, ok)
}

func TestRequireAny(t *testing.T) {
	mw := Middleware{}
	handler := mw.RequireAny(editwindow.RoleTeacher)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	cases := []struct {
		role string
		want int
	}{
		{"teacher", http.StatusNoContent},
		{"admin", http.StatusNoContent},
		{"guardian", http.StatusForbidden},
		{"student", http.StatusForbidden},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, requestWithRole(t, "1", tc.role))
		require.Equal(t, tc.want, rec.Code, "role %s", tc.role)
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireAnyWithoutRolesIsAdminOnly(t *testing.T) {
	mw := Middleware{}
	handler := mw.RequireAny()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, requestWithRole(t, "1", "admin"))
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, requestWithRole(t, "2", "staff"))
	require.Equal(t, http.StatusForbidden, rec.Code)
}
