package grades

import (
	"strconv"
	"time"

	"github.com/scolaris-app/scolaris/internal/editwindow"
)

// Grade is one mark recorded for a student in a course. CreatedAt is set
// once at insert and never updated afterwards: the edit window always runs
// from the original creation, re-edits do not reset it.
type Grade struct {
	ID          int64
	StudentID   int64
	CourseID    int64
	Value       float64
	Coefficient float64
	Comment     string
	RecordedBy  int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// GradeInput carries the mutable fields for create and update.
type GradeInput struct {
	StudentID   int64
	CourseID    int64
	Value       float64
	Coefficient float64
	Comment     string
	RecordedBy  int64
}

// GradeView is a grade decorated with the caller's edit decision so the
// portals can disable controls. The flag is advisory; the service re-checks
// on every mutation.
type GradeView struct {
	Grade
	CanEdit bool   `json:"can_edit"`
	Reason  string `json:"reason,omitempty"`
	Label   string `json:"label"`
}

// ExportRow is one line of the course grade-list CSV.
type ExportRow struct {
	StudentName string
	CourseName  string
	Value       float64
	Coefficient float64
	Comment     string
	RecordedAt  time.Time
}

// policyEntity maps a grade onto the edit-window entity model.
func policyEntity(g Grade) editwindow.Entity {
	return editwindow.Entity{
		ID:        strconv.FormatInt(g.ID, 10),
		Kind:      editwindow.KindGrade,
		CreatedAt: g.CreatedAt,
	}
}
