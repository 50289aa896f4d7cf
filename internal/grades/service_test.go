package grades

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/scolaris-app/scolaris/internal/editwindow"
	"github.com/scolaris-app/scolaris/internal/roles"
	"github.com/scolaris-app/scolaris/internal/shared"
)

type memoryGradeRepo struct {
	grades map[int64]*Grade
	nextID int64
	now    time.Time
}

func newMemoryGradeRepo(now time.Time) *memoryGradeRepo {
	return &memoryGradeRepo{grades: make(map[int64]*Grade), now: now}
}

func (r *memoryGradeRepo) Create(ctx context.Context, input GradeInput) (*Grade, error) {
	r.nextID++
	g := &Grade{
		ID:          r.nextID,
		StudentID:   input.StudentID,
		CourseID:    input.CourseID,
		Value:       input.Value,
		Coefficient: input.Coefficient,
		Comment:     input.Comment,
		RecordedBy:  input.RecordedBy,
		CreatedAt:   r.now,
		UpdatedAt:   r.now,
	}
	r.grades[g.ID] = g
	return g, nil
}

func (r *memoryGradeRepo) Get(ctx context.Context, id int64) (*Grade, error) {
	g, ok := r.grades[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *g
	return &copied, nil
}

func (r *memoryGradeRepo) ListByCourse(ctx context.Context, courseID int64) ([]Grade, error) {
	var out []Grade
	for _, g := range r.grades {
		if g.CourseID == courseID {
			out = append(out, *g)
		}
	}
	return out, nil
}

func (r *memoryGradeRepo) ListByStudent(ctx context.Context, studentID int64) ([]Grade, error) {
	var out []Grade
	for _, g := range r.grades {
		if g.StudentID == studentID {
			out = append(out, *g)
		}
	}
	return out, nil
}

func (r *memoryGradeRepo) Update(ctx context.Context, id int64, input GradeInput) (*Grade, error) {
	g, ok := r.grades[id]
	if !ok {
		return nil, ErrNotFound
	}
	// created_at stays untouched, as in the SQL repository.
	g.Value = input.Value
	g.Coefficient = input.Coefficient
	g.Comment = input.Comment
	copied := *g
	return &copied, nil
}

func (r *memoryGradeRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := r.grades[id]; !ok {
		return ErrNotFound
	}
	delete(r.grades, id)
	return nil
}

func (r *memoryGradeRepo) ListExportRows(ctx context.Context, courseID int64) ([]ExportRow, error) {
	return nil, nil
}

type recordedAudit struct {
	logs []shared.AuditLog
}

func (a *recordedAudit) Record(ctx context.Context, log shared.AuditLog) error {
	a.logs = append(a.logs, log)
	return nil
}

var createdAt = time.Date(2025, time.May, 5, 9, 0, 0, 0, time.UTC)

func teacherPrincipal() roles.Principal {
	return roles.Principal{UserID: 11, Role: editwindow.RoleTeacher}
}

func seedGrade(t *testing.T, repo *memoryGradeRepo, svc *Service) *Grade {
	t.Helper()
	g, err := svc.Create(context.Background(), teacherPrincipal(), GradeInput{
		StudentID: 1, CourseID: 2, Value: 14.5, Coefficient: 2,
	})
	require.NoError(t, err)
	return g
}

func TestUpdateInsideWindow(t *testing.T) {
	repo := newMemoryGradeRepo(createdAt)
	audit := &recordedAudit{}
	svc := NewService(repo, audit)
	g := seedGrade(t, repo, svc)

	updated, err := svc.Update(context.Background(), teacherPrincipal(), createdAt.Add(47*time.Hour), g.ID, GradeInput{
		StudentID: 1, CourseID: 2, Value: 15, Coefficient: 2,
	})
	require.NoError(t, err)
	require.Equal(t, 15.0, updated.Value)
	require.Equal(t, createdAt, updated.CreatedAt, "update must not reset the creation timestamp")

	last := audit.logs[len(audit.logs)-1]
	require.Equal(t, "grade.update", last.Action)
	require.True(t, last.Allowed)
}

func TestUpdateAfterWindowDenied(t *testing.T) {
	repo := newMemoryGradeRepo(createdAt)
	audit := &recordedAudit{}
	svc := NewService(repo, audit)
	g := seedGrade(t, repo, svc)

	_, err := svc.Update(context.Background(), teacherPrincipal(), createdAt.Add(49*time.Hour), g.ID, GradeInput{
		StudentID: 1, CourseID: 2, Value: 15, Coefficient: 2,
	})

	var denied *shared.EditDenied
	require.ErrorAs(t, err, &denied)
	require.Equal(t, editwindow.ReasonWindowExpired, denied.Decision.Reason)
	require.Equal(t, time.Hour, denied.Decision.ElapsedOverBy)

	// The record itself is untouched.
	current, err := repo.Get(context.Background(), g.ID)
	require.NoError(t, err)
	require.Equal(t, 14.5, current.Value)

	// The denial is on the audit trail.
	last := audit.logs[len(audit.logs)-1]
	require.False(t, last.Allowed)
	require.Equal(t, string(editwindow.ReasonWindowExpired), last.Reason)
}

func TestGuardianThirtyDayWindow(t *testing.T) {
	repo := newMemoryGradeRepo(createdAt)
	svc := NewService(repo, nil)
	g := seedGrade(t, repo, svc)

	guardian := roles.Principal{UserID: 42, Role: editwindow.RoleGuardian}

	_, err := svc.Update(context.Background(), guardian, createdAt.Add(29*24*time.Hour), g.ID, GradeInput{
		StudentID: 1, CourseID: 2, Value: 13, Coefficient: 2,
	})
	require.NoError(t, err)

	_, err = svc.Update(context.Background(), guardian, createdAt.Add(31*24*time.Hour), g.ID, GradeInput{
		StudentID: 1, CourseID: 2, Value: 12, Coefficient: 2,
	})
	var denied *shared.EditDenied
	require.ErrorAs(t, err, &denied)
}

func TestAdminOverridesClosedWindow(t *testing.T) {
	repo := newMemoryGradeRepo(createdAt)
	svc := NewService(repo, nil)
	g := seedGrade(t, repo, svc)

	admin := roles.Principal{UserID: 1, Role: editwindow.RoleAdmin}
	_, err := svc.Update(context.Background(), admin, createdAt.Add(400*24*time.Hour), g.ID, GradeInput{
		StudentID: 1, CourseID: 2, Value: 16, Coefficient: 2,
	})
	require.NoError(t, err)
}

func TestStudentCannotDelete(t *testing.T) {
	repo := newMemoryGradeRepo(createdAt)
	svc := NewService(repo, nil)
	g := seedGrade(t, repo, svc)

	student := roles.Principal{UserID: 9, Role: editwindow.RoleStudent}
	err := svc.Delete(context.Background(), student, createdAt, g.ID)

	var denied *shared.EditDenied
	require.ErrorAs(t, err, &denied)
	require.Equal(t, editwindow.ReasonNoPermission, denied.Decision.Reason)

	_, err = repo.Get(context.Background(), g.ID)
	require.NoError(t, err, "grade must survive a denied delete")
}

func TestViewCarriesDecision(t *testing.T) {
	repo := newMemoryGradeRepo(createdAt)
	svc := NewService(repo, nil)
	g := seedGrade(t, repo, svc)

	view, err := svc.View(context.Background(), teacherPrincipal(), createdAt.Add(46*time.Hour), g.ID, "fr")
	require.NoError(t, err)
	require.True(t, view.CanEdit)
	require.Equal(t, "2 heures restantes", view.Label)

	view, err = svc.View(context.Background(), teacherPrincipal(), createdAt.Add(100*time.Hour), g.ID, "fr")
	require.NoError(t, err)
	require.False(t, view.CanEdit)
	require.Equal(t, string(editwindow.ReasonWindowExpired), view.Reason)
}

func TestCreateValidation(t *testing.T) {
	svc := NewService(newMemoryGradeRepo(createdAt), nil)

	_, err := svc.Create(context.Background(), teacherPrincipal(), GradeInput{CourseID: 2, Value: 10, Coefficient: 1})
	require.True(t, errors.Is(err, ErrInvalidInput))

	_, err = svc.Create(context.Background(), teacherPrincipal(), GradeInput{StudentID: 1, CourseID: 2, Value: 25, Coefficient: 1})
	require.True(t, errors.Is(err, ErrInvalidInput))

	_, err = svc.Create(context.Background(), teacherPrincipal(), GradeInput{StudentID: 1, CourseID: 2, Value: 10})
	require.True(t, errors.Is(err, ErrInvalidInput))
}
