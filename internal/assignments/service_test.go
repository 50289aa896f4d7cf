package assignments

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/scolaris-app/scolaris/internal/editwindow"
	"github.com/scolaris-app/scolaris/internal/roles"
	"github.com/scolaris-app/scolaris/internal/shared"
)

type memoryAssignmentRepo struct {
	assignments map[int64]*Assignment
	nextID      int64
	createdAt   time.Time
}

func newMemoryAssignmentRepo(createdAt time.Time) *memoryAssignmentRepo {
	return &memoryAssignmentRepo{assignments: make(map[int64]*Assignment), createdAt: createdAt}
}

func (r *memoryAssignmentRepo) Create(ctx context.Context, input AssignmentInput) (*Assignment, error) {
	r.nextID++
	a := &Assignment{
		ID:           r.nextID,
		CourseID:     input.CourseID,
		Title:        input.Title,
		Instructions: input.Instructions,
		DueAt:        input.DueAt,
		CreatedBy:    input.CreatedBy,
		CreatedAt:    r.createdAt,
		UpdatedAt:    r.createdAt,
	}
	r.assignments[a.ID] = a
	return a, nil
}

func (r *memoryAssignmentRepo) Get(ctx context.Context, id int64) (*Assignment, error) {
	a, ok := r.assignments[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *a
	return &copied, nil
}

func (r *memoryAssignmentRepo) ListByCourse(ctx context.Context, courseID int64) ([]Assignment, error) {
	var out []Assignment
	for _, a := range r.assignments {
		if a.CourseID == courseID {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (r *memoryAssignmentRepo) Update(ctx context.Context, id int64, input AssignmentInput) (*Assignment, error) {
	a, ok := r.assignments[id]
	if !ok {
		return nil, ErrNotFound
	}
	a.Title = input.Title
	a.Instructions = input.Instructions
	a.DueAt = input.DueAt
	copied := *a
	return &copied, nil
}

func (r *memoryAssignmentRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := r.assignments[id]; !ok {
		return ErrNotFound
	}
	delete(r.assignments, id)
	return nil
}

type auditSpy struct {
	logs []shared.AuditLog
}

func (a *auditSpy) Record(ctx context.Context, log shared.AuditLog) error {
	a.logs = append(a.logs, log)
	return nil
}

var (
	publishedAt = time.Date(2025, time.April, 1, 9, 0, 0, 0, time.UTC)
	dueAt       = publishedAt.Add(7 * 24 * time.Hour)
)

func seedAssignment(t *testing.T) (*Service, *auditSpy, *Assignment) {
	t.Helper()
	audit := &auditSpy{}
	svc := NewService(newMemoryAssignmentRepo(publishedAt), audit)

	teacher := roles.Principal{UserID: 3, Role: editwindow.RoleTeacher}
	a, err := svc.Create(context.Background(), teacher, AssignmentInput{
		CourseID:     7,
		Title:        "Dissertation sur Molière",
		Instructions: "Quatre pages minimum.",
		DueAt:        dueAt,
	})
	require.NoError(t, err)
	return svc, audit, a
}

func TestTeacherEditsUntilDueDate(t *testing.T) {
	svc, _, a := seedAssignment(t)
	teacher := roles.Principal{UserID: 3, Role: editwindow.RoleTeacher}

	input := AssignmentInput{CourseID: a.CourseID, Title: "Dissertation sur Racine", DueAt: dueAt}

	// One hour before the deadline.
	updated, err := svc.Update(context.Background(), teacher, dueAt.Add(-time.Hour), a.ID, input)
	require.NoError(t, err)
	require.Equal(t, "Dissertation sur Racine", updated.Title)

	// Exactly at the deadline: still allowed.
	_, err = svc.Update(context.Background(), teacher, dueAt, a.ID, input)
	require.NoError(t, err)
}

func TestTeacherLockedAfterDueDate(t *testing.T) {
	svc, audit, a := seedAssignment(t)
	teacher := roles.Principal{UserID: 3, Role: editwindow.RoleTeacher}

	_, err := svc.Update(context.Background(), teacher, dueAt.Add(time.Minute), a.ID, AssignmentInput{
		CourseID: a.CourseID, Title: "Trop tard", DueAt: dueAt,
	})
	var denied *shared.EditDenied
	require.ErrorAs(t, err, &denied)
	require.Equal(t, editwindow.ReasonWindowExpired, denied.Decision.Reason)
	require.Equal(t, time.Minute, denied.Decision.ElapsedOverBy)

	last := audit.logs[len(audit.logs)-1]
	require.Equal(t, "assignment.update", last.Action)
	require.False(t, last.Allowed)

	// The record must be untouched after a denial.
	view, err := svc.View(context.Background(), teacher, dueAt.Add(time.Minute), a.ID, "fr")
	require.NoError(t, err)
	require.Equal(t, "Dissertation sur Molière", view.Title)
}

func TestExtendingDueDateReopensWindow(t *testing.T) {
	svc, _, a := seedAssignment(t)
	admin := roles.Principal{UserID: 1, Role: editwindow.RoleAdmin}
	teacher := roles.Principal{UserID: 3, Role: editwindow.RoleTeacher}

	// Admin pushes the deadline a week out after it passed.
	newDue := dueAt.Add(7 * 24 * time.Hour)
	_, err := svc.Update(context.Background(), admin, dueAt.Add(time.Hour), a.ID, AssignmentInput{
		CourseID: a.CourseID, Title: a.Title, DueAt: newDue,
	})
	require.NoError(t, err)

	// The teacher can edit again against the new deadline.
	_, err = svc.Update(context.Background(), teacher, dueAt.Add(2*time.Hour), a.ID, AssignmentInput{
		CourseID: a.CourseID, Title: "Sujet corrigé", DueAt: newDue,
	})
	require.NoError(t, err)
}

func TestStudentCannotDeleteAssignment(t *testing.T) {
	svc, audit, a := seedAssignment(t)
	student := roles.Principal{UserID: 50, Role: editwindow.RoleStudent}

	err := svc.Delete(context.Background(), student, publishedAt.Add(time.Hour), a.ID)
	var denied *shared.EditDenied
	require.ErrorAs(t, err, &denied)
	require.Equal(t, editwindow.ReasonNoPermission, denied.Decision.Reason)
	require.False(t, audit.logs[len(audit.logs)-1].Allowed)
}

func TestListCourseDecorations(t *testing.T) {
	svc, _, a := seedAssignment(t)
	teacher := roles.Principal{UserID: 3, Role: editwindow.RoleTeacher}

	views, err := svc.ListCourse(context.Background(), teacher, dueAt.Add(-48*time.Hour), a.CourseID, "fr")
	require.NoError(t, err)
	require.Len(t, views, 1)
	require.True(t, views[0].CanEdit)
	require.Equal(t, "2 jours restants", views[0].Label)
}

func TestAssignmentValidation(t *testing.T) {
	svc := NewService(newMemoryAssignmentRepo(publishedAt), nil)
	teacher := roles.Principal{UserID: 3, Role: editwindow.RoleTeacher}

	cases := []AssignmentInput{
		{Title: "Sans cours", DueAt: dueAt},
		{CourseID: 7, Title: "   ", DueAt: dueAt},
		{CourseID: 7, Title: "Sans échéance"},
	}
	for _, input := range cases {
		_, err := svc.Create(context.Background(), teacher, input)
		require.ErrorIs(t, err, ErrInvalidInput)
	}
}
