package auth

import (
	"time"

	"github.com/scolaris-app/scolaris/internal/editwindow"
)

// User represents an authenticated portal account. Role is fixed per
// account: each user signs into exactly one portal (admin, teacher,
// guardian, student or staff).
type User struct {
	ID           int64
	Email        string
	PasswordHash string
	FullName     string
	Role         editwindow.Role
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
