package assignments

import (
	"strconv"
	"time"

	"github.com/scolaris-app/scolaris/internal/editwindow"
)

// Assignment is homework or coursework published for a course. The teacher
// edit window is tied to DueAt, not to creation time: the assignment stays
// editable until its due date passes, then locks.
type Assignment struct {
	ID           int64
	CourseID     int64
	Title        string
	Instructions string
	DueAt        time.Time
	CreatedBy    int64
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// AssignmentInput carries the mutable fields for create and update.
type AssignmentInput struct {
	CourseID     int64
	Title        string
	Instructions string
	DueAt        time.Time
	CreatedBy    int64
}

// AssignmentView decorates an assignment with the caller's edit decision.
type AssignmentView struct {
	Assignment
	CanEdit bool   `json:"can_edit"`
	Reason  string `json:"reason,omitempty"`
	Label   string `json:"label"`
}

func policyEntity(a Assignment) editwindow.Entity {
	return editwindow.Entity{
		ID:        strconv.FormatInt(a.ID, 10),
		Kind:      editwindow.KindAssignment,
		CreatedAt: a.CreatedAt,
		DueAt:     a.DueAt,
	}
}
