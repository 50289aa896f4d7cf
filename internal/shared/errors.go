package shared

import "errors"

// Cross-package sentinels. Domain packages define their own errors; these
// cover the concerns shared by auth and the session middleware.
var (
	ErrNotFound           = errors.New("not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrCSRFTokenMissing   = errors.New("csrf token missing")
	ErrCSRFTokenMismatch  = errors.New("csrf token mismatch")
)
