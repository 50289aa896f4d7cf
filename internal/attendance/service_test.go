package attendance

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/scolaris-app/scolaris/internal/editwindow"
	"github.com/scolaris-app/scolaris/internal/roles"
	"github.com/scolaris-app/scolaris/internal/shared"
)

type memoryAttendanceRepo struct {
	sessions   map[int64]*CourseSession
	records    map[int64]*Record
	nextID     int64
	recordedAt time.Time
}

func newMemoryAttendanceRepo(recordedAt time.Time) *memoryAttendanceRepo {
	return &memoryAttendanceRepo{
		sessions:   make(map[int64]*CourseSession),
		records:    make(map[int64]*Record),
		recordedAt: recordedAt,
	}
}

func (r *memoryAttendanceRepo) CreateSession(ctx context.Context, input SessionInput) (*CourseSession, error) {
	r.nextID++
	sess := &CourseSession{
		ID:        r.nextID,
		CourseID:  input.CourseID,
		StartsAt:  input.StartsAt,
		EndsAt:    input.EndsAt,
		CreatedAt: r.recordedAt,
	}
	r.sessions[sess.ID] = sess
	return sess, nil
}

func (r *memoryAttendanceRepo) GetSession(ctx context.Context, id int64) (*CourseSession, error) {
	sess, ok := r.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return sess, nil
}

func (r *memoryAttendanceRepo) ListSessionsByCourse(ctx context.Context, courseID int64) ([]CourseSession, error) {
	var out []CourseSession
	for _, sess := range r.sessions {
		if sess.CourseID == courseID {
			out = append(out, *sess)
		}
	}
	return out, nil
}

func (r *memoryAttendanceRepo) CreateRecord(ctx context.Context, input RecordInput) (*Record, error) {
	for _, rec := range r.records {
		if rec.SessionID == input.SessionID && rec.StudentID == input.StudentID {
			return nil, ErrDuplicateRecord
		}
	}
	sess, ok := r.sessions[input.SessionID]
	if !ok {
		return nil, ErrNotFound
	}
	r.nextID++
	rec := &Record{
		ID:              r.nextID,
		SessionID:       input.SessionID,
		StudentID:       input.StudentID,
		Status:          input.Status,
		Justification:   input.Justification,
		RecordedBy:      input.RecordedBy,
		CreatedAt:       r.recordedAt,
		UpdatedAt:       r.recordedAt,
		SessionStartsAt: sess.StartsAt,
	}
	r.records[rec.ID] = rec
	return rec, nil
}

func (r *memoryAttendanceRepo) CreateRecords(ctx context.Context, inputs []RecordInput) ([]Record, error) {
	// All or nothing, mirroring the transactional repository.
	for _, input := range inputs {
		for _, rec := range r.records {
			if rec.SessionID == input.SessionID && rec.StudentID == input.StudentID {
				return nil, ErrDuplicateRecord
			}
		}
	}
	out := make([]Record, 0, len(inputs))
	for _, input := range inputs {
		rec, err := r.CreateRecord(ctx, input)
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	return out, nil
}

func (r *memoryAttendanceRepo) GetRecord(ctx context.Context, id int64) (*Record, error) {
	rec, ok := r.records[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *rec
	return &copied, nil
}

func (r *memoryAttendanceRepo) ListRecordsBySession(ctx context.Context, sessionID int64) ([]Record, error) {
	var out []Record
	for _, rec := range r.records {
		if rec.SessionID == sessionID {
			out = append(out, *rec)
		}
	}
	return out, nil
}

func (r *memoryAttendanceRepo) UpdateRecord(ctx context.Context, id int64, status Status, justification string) (*Record, error) {
	rec, ok := r.records[id]
	if !ok {
		return nil, ErrNotFound
	}
	rec.Status = status
	rec.Justification = justification
	copied := *rec
	return &copied, nil
}

type auditSpy struct {
	logs []shared.AuditLog
}

func (a *auditSpy) Record(ctx context.Context, log shared.AuditLog) error {
	a.logs = append(a.logs, log)
	return nil
}

var sessionStart = time.Date(2025, time.June, 2, 14, 0, 0, 0, time.UTC)

// seedRecord schedules a session at sessionStart and records attendance
// recordedLag after it, mimicking a teacher marking the sheet late.
func seedRecord(t *testing.T, recordedLag time.Duration) (*Service, *memoryAttendanceRepo, *auditSpy, *Record) {
	t.Helper()
	repo := newMemoryAttendanceRepo(sessionStart.Add(recordedLag))
	audit := &auditSpy{}
	svc := NewService(repo, audit)

	sess, err := svc.ScheduleSession(context.Background(), SessionInput{
		CourseID: 7,
		StartsAt: sessionStart,
		EndsAt:   sessionStart.Add(time.Hour),
	})
	require.NoError(t, err)

	teacher := roles.Principal{UserID: 3, Role: editwindow.RoleTeacher}
	rec, err := svc.RecordAttendance(context.Background(), teacher, RecordInput{
		SessionID: sess.ID,
		StudentID: 21,
		Status:    StatusAbsent,
	})
	require.NoError(t, err)
	return svc, repo, audit, rec
}

func TestGuardianWindowRunsFromSessionStart(t *testing.T) {
	// Teacher recorded 10 hours after the class.
	svc, _, _, rec := seedRecord(t, 10*time.Hour)
	guardian := roles.Principal{UserID: 30, Role: editwindow.RoleGuardian}

	// 47h after the session start: still open, regardless of recording lag.
	updated, err := svc.UpdateRecord(context.Background(), guardian, sessionStart.Add(47*time.Hour), rec.ID, StatusExcused, "medical certificate")
	require.NoError(t, err)
	require.Equal(t, StatusExcused, updated.Status)

	// 49h after the session start: locked, even though the record itself
	// is only 39h old.
	_, err = svc.UpdateRecord(context.Background(), guardian, sessionStart.Add(49*time.Hour), rec.ID, StatusExcused, "late excuse")
	var denied *shared.EditDenied
	require.ErrorAs(t, err, &denied)
	require.Equal(t, editwindow.ReasonWindowExpired, denied.Decision.Reason)
}

func TestRecordingLagDoesNotExtendWindow(t *testing.T) {
	check := sessionStart.Add(47 * time.Hour)
	guardian := roles.Principal{UserID: 30, Role: editwindow.RoleGuardian}

	for _, lag := range []time.Duration{0, 10 * time.Hour, 46 * time.Hour} {
		svc, _, _, rec := seedRecord(t, lag)
		_, err := svc.UpdateRecord(context.Background(), guardian, check, rec.ID, StatusExcused, "ok")
		require.NoError(t, err, "lag %s changed the decision", lag)
	}
}

func TestTeacherCannotEditRecords(t *testing.T) {
	svc, _, audit, rec := seedRecord(t, 0)
	teacher := roles.Principal{UserID: 3, Role: editwindow.RoleTeacher}

	_, err := svc.UpdateRecord(context.Background(), teacher, sessionStart.Add(time.Hour), rec.ID, StatusPresent, "")
	var denied *shared.EditDenied
	require.ErrorAs(t, err, &denied)
	require.Equal(t, editwindow.ReasonNoPermission, denied.Decision.Reason)

	last := audit.logs[len(audit.logs)-1]
	require.Equal(t, "attendance.update", last.Action)
	require.False(t, last.Allowed)
}

func TestAdminEditsAnyRecord(t *testing.T) {
	svc, _, _, rec := seedRecord(t, 0)
	admin := roles.Principal{UserID: 1, Role: editwindow.RoleAdmin}

	_, err := svc.UpdateRecord(context.Background(), admin, sessionStart.Add(90*24*time.Hour), rec.ID, StatusExcused, "admin correction")
	require.NoError(t, err)
}

func TestSheetDecorations(t *testing.T) {
	svc, _, _, rec := seedRecord(t, 2*time.Hour)
	guardian := roles.Principal{UserID: 30, Role: editwindow.RoleGuardian}

	views, err := svc.Sheet(context.Background(), guardian, sessionStart.Add(24*time.Hour), rec.SessionID, "fr")
	require.NoError(t, err)
	require.Len(t, views, 1)
	require.True(t, views[0].CanEdit)
	require.Equal(t, "1 jour restant", views[0].Label)
}

func TestDuplicateRecordRejected(t *testing.T) {
	svc, _, _, rec := seedRecord(t, 0)
	teacher := roles.Principal{UserID: 3, Role: editwindow.RoleTeacher}

	_, err := svc.RecordAttendance(context.Background(), teacher, RecordInput{
		SessionID: rec.SessionID,
		StudentID: rec.StudentID,
		Status:    StatusPresent,
	})
	require.ErrorIs(t, err, ErrDuplicateRecord)
}

func TestRecordSheetBulk(t *testing.T) {
	svc, repo, audit, rec := seedRecord(t, 0)
	teacher := roles.Principal{UserID: 3, Role: editwindow.RoleTeacher}

	records, err := svc.RecordSheet(context.Background(), teacher, rec.SessionID, []SheetEntry{
		{StudentID: 22, Status: StatusPresent},
		{StudentID: 23, Status: StatusLate, Justification: "bus en retard"},
	})
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.Equal(t, sessionStart, records[0].SessionStartsAt)

	created := 0
	for _, log := range audit.logs {
		if log.Action == "attendance.create" {
			created++
		}
	}
	require.Equal(t, 3, created)

	// A duplicate line rejects the whole sheet.
	before := len(repo.records)
	_, err = svc.RecordSheet(context.Background(), teacher, rec.SessionID, []SheetEntry{
		{StudentID: 24, Status: StatusPresent},
		{StudentID: rec.StudentID, Status: StatusPresent},
	})
	require.ErrorIs(t, err, ErrDuplicateRecord)
	require.Len(t, repo.records, before)
}

func TestRecordSheetValidation(t *testing.T) {
	svc, _, _, rec := seedRecord(t, 0)
	teacher := roles.Principal{UserID: 3, Role: editwindow.RoleTeacher}

	_, err := svc.RecordSheet(context.Background(), teacher, rec.SessionID, nil)
	require.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.RecordSheet(context.Background(), teacher, rec.SessionID, []SheetEntry{
		{StudentID: 25, Status: Status("vanished")},
	})
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestScheduleSessionValidation(t *testing.T) {
	svc := NewService(newMemoryAttendanceRepo(sessionStart), nil)

	_, err := svc.ScheduleSession(context.Background(), SessionInput{
		CourseID: 7,
		StartsAt: sessionStart,
		EndsAt:   sessionStart.Add(-time.Hour),
	})
	require.ErrorIs(t, err, ErrInvalidInput)
}
