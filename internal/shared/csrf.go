package shared

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
)

const (
	// CSRFSessionKey is the session key the issued token is stored under.
	CSRFSessionKey = "csrf_token"
	// CSRFHeader is the request header mutating requests must carry. The
	// portals read the token from GET /auth/csrf or the login response and
	// echo it here; there are no HTML forms to embed it in.
	CSRFHeader = "X-CSRF-Token"

	csrfTokenBytes = 32
)

// CSRFManager issues per-session CSRF tokens and checks them on mutating
// requests. Tokens are random values stored in the Redis session, so a token
// is only ever valid together with the cookie it was issued against.
type CSRFManager struct {
	secret []byte
}

// NewCSRFManager returns a manager. The secret is kept for config parity
// with the session manager; token validity comes from session storage.
func NewCSRFManager(secret string) *CSRFManager {
	return &CSRFManager{secret: []byte(secret)}
}

// EnsureToken returns the session's CSRF token, minting one on first use.
func (m *CSRFManager) EnsureToken(ctx context.Context, sess *Session) (string, error) {
	if sess == nil {
		return "", errors.New("session missing")
	}
	if token := sess.Get(CSRFSessionKey); token != "" {
		return token, nil
	}
	token, err := newCSRFToken()
	if err != nil {
		return "", fmt.Errorf("csrf: mint token: %w", err)
	}
	sess.Set(CSRFSessionKey, token)
	return token, nil
}

// VerifyToken checks the supplied token against the session's stored one.
// It returns ErrCSRFTokenMissing when either side has no token and
// ErrCSRFTokenMismatch when they disagree.
func (m *CSRFManager) VerifyToken(ctx context.Context, sess *Session, token string) error {
	if sess == nil || token == "" {
		return ErrCSRFTokenMissing
	}
	expected := sess.Get(CSRFSessionKey)
	if expected == "" {
		return ErrCSRFTokenMissing
	}
	if !hmac.Equal([]byte(expected), []byte(token)) {
		return ErrCSRFTokenMismatch
	}
	return nil
}

func newCSRFToken() (string, error) {
	buf := make([]byte, csrfTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
