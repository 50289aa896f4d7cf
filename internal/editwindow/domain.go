// Package editwindow decides whether an actor may still modify a school
// record. Every mutable record carries an edit window measured from a
// reference timestamp; once the window closes the record is locked for that
// role. The package is pure: callers inject the evaluation instant and the
// evaluator performs no I/O.
package editwindow

import "time"

// Kind discriminates the mutable record types covered by the policy.
type Kind string

const (
	KindGrade            Kind = "grade"
	KindAttendanceRecord Kind = "attendance_record"
	KindAssignment       Kind = "assignment"

	// kindAny matches every kind in the policy table. Internal only;
	// entities never carry it.
	kindAny Kind = "*"
)

// Known reports whether the kind is one the policy reasons about.
func (k Kind) Known() bool {
	switch k {
	case KindGrade, KindAttendanceRecord, KindAssignment:
		return true
	}
	return false
}

// Role enumerates the actor roles of the application.
type Role string

const (
	RoleStudent  Role = "student"
	RoleTeacher  Role = "teacher"
	RoleGuardian Role = "guardian"
	RoleAdmin    Role = "admin"
	RoleStaff    Role = "staff"
)

// Valid reports whether the role is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleTeacher, RoleGuardian, RoleAdmin, RoleStaff:
		return true
	}
	return false
}

// Reason explains a denied decision.
type Reason string

const (
	// ReasonNoPermission means no rule grants the role edit rights on the
	// kind, or the input was malformed (fail closed).
	ReasonNoPermission Reason = "no-permission"
	// ReasonWindowExpired means the role had edit rights but the window
	// has closed.
	ReasonWindowExpired Reason = "window-expired"
)

// Entity is the view of a mutable record the evaluator needs. CreatedAt is
// the original creation instant and never changes on re-edit, so repeated
// edits do not extend the window.
type Entity struct {
	ID        string
	Kind      Kind
	CreatedAt time.Time

	// SessionStartsAt is the scheduled start of the course session an
	// attendance record belongs to. The guardian window runs from here,
	// not from CreatedAt, because teachers may record attendance late.
	SessionStartsAt time.Time

	// DueAt is the assignment due date; teacher edits are open until it
	// passes.
	DueAt time.Time
}

// Actor is the identity checking for edit rights. Now is injected so the
// evaluator never reads a system clock.
type Actor struct {
	Role Role
	Now  time.Time
}

// Decision is the outcome of one evaluation. It has no identity or
// lifecycle; callers recompute it on every check.
type Decision struct {
	Allowed bool
	Reason  Reason

	// Remaining is how long the window stays open when Allowed is true
	// and the rule is time bounded.
	Remaining time.Duration
	// ElapsedOverBy is how far past the window the check happened when
	// the reason is window-expired.
	ElapsedOverBy time.Duration
}
