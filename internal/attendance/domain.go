package attendance

import (
	"strconv"
	"time"

	"github.com/scolaris-app/scolaris/internal/editwindow"
)

// Status enumerates attendance statuses.
type Status string

const (
	StatusPresent Status = "present"
	StatusAbsent  Status = "absent"
	StatusLate    Status = "late"
	StatusExcused Status = "excused"
)

// Valid reports whether the status is one of the known values.
func (s Status) Valid() bool {
	switch s {
	case StatusPresent, StatusAbsent, StatusLate, StatusExcused:
		return true
	}
	return false
}

// CourseSession is one scheduled occurrence of a course. Its StartsAt is the
// reference point for guardian edits of attendance records: the window is
// "48h after the class happened", not after the teacher clicked save.
type CourseSession struct {
	ID        int64
	CourseID  int64
	StartsAt  time.Time
	EndsAt    time.Time
	CreatedAt time.Time
}

// Record is one student's attendance for a session. CreatedAt is when the
// teacher recorded it, possibly hours after the session; it never drives
// the edit window.
type Record struct {
	ID            int64
	SessionID     int64
	StudentID     int64
	Status        Status
	Justification string
	RecordedBy    int64
	CreatedAt     time.Time
	UpdatedAt     time.Time

	// SessionStartsAt is joined from the session row.
	SessionStartsAt time.Time
}

// RecordInput carries the mutable fields for create and update.
type RecordInput struct {
	SessionID     int64
	StudentID     int64
	Status        Status
	Justification string
	RecordedBy    int64
}

// SessionInput carries the fields to schedule a session.
type SessionInput struct {
	CourseID int64
	StartsAt time.Time
	EndsAt   time.Time
}

// RecordView decorates a record with the caller's edit decision.
type RecordView struct {
	Record
	CanEdit bool   `json:"can_edit"`
	Reason  string `json:"reason,omitempty"`
	Label   string `json:"label"`
}

func policyEntity(rec Record) editwindow.Entity {
	return editwindow.Entity{
		ID:              strconv.FormatInt(rec.ID, 10),
		Kind:            editwindow.KindAttendanceRecord,
		CreatedAt:       rec.CreatedAt,
		SessionStartsAt: rec.SessionStartsAt,
	}
}
