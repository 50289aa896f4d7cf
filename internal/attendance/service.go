package attendance

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/scolaris-app/scolaris/internal/editwindow"
	"github.com/scolaris-app/scolaris/internal/roles"
	"github.com/scolaris-app/scolaris/internal/shared"
)

// ErrInvalidInput indicates a rejected attendance payload.
var ErrInvalidInput = errors.New("attendance: invalid input")

// RepositoryPort defines data access methods for attendance.
type RepositoryPort interface {
	CreateSession(ctx context.Context, input SessionInput) (*CourseSession, error)
	GetSession(ctx context.Context, id int64) (*CourseSession, error)
	ListSessionsByCourse(ctx context.Context, courseID int64) ([]CourseSession, error)
	CreateRecord(ctx context.Context, input RecordInput) (*Record, error)
	CreateRecords(ctx context.Context, inputs []RecordInput) ([]Record, error)
	GetRecord(ctx context.Context, id int64) (*Record, error)
	ListRecordsBySession(ctx context.Context, sessionID int64) ([]Record, error)
	UpdateRecord(ctx context.Context, id int64, status Status, justification string) (*Record, error)
}

// AuditRecorder receives mutation attempts, allowed and denied alike.
type AuditRecorder interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service handles attendance business logic with server-side edit-window
// enforcement on record updates.
type Service struct {
	repo  RepositoryPort
	audit AuditRecorder
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, audit AuditRecorder) *Service {
	return &Service{repo: repo, audit: audit}
}

// ScheduleSession creates a course session.
func (s *Service) ScheduleSession(ctx context.Context, input SessionInput) (*CourseSession, error) {
	if input.CourseID == 0 {
		return nil, fmt.Errorf("%w: course ID required", ErrInvalidInput)
	}
	if input.StartsAt.IsZero() || input.EndsAt.IsZero() {
		return nil, fmt.Errorf("%w: session start and end required", ErrInvalidInput)
	}
	if !input.EndsAt.After(input.StartsAt) {
		return nil, fmt.Errorf("%w: session must end after it starts", ErrInvalidInput)
	}
	return s.repo.CreateSession(ctx, input)
}

// ListSessions returns the sessions of one course.
func (s *Service) ListSessions(ctx context.Context, courseID int64) ([]CourseSession, error) {
	if courseID == 0 {
		return nil, fmt.Errorf("%w: course ID required", ErrInvalidInput)
	}
	return s.repo.ListSessionsByCourse(ctx, courseID)
}

// RecordAttendance creates one attendance record. Creation is not windowed:
// teachers may record late, the window only gates later edits.
func (s *Service) RecordAttendance(ctx context.Context, principal roles.Principal, input RecordInput) (*Record, error) {
	if input.SessionID == 0 || input.StudentID == 0 {
		return nil, fmt.Errorf("%w: session and student required", ErrInvalidInput)
	}
	if !input.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, input.Status)
	}
	if _, err := s.repo.GetSession(ctx, input.SessionID); err != nil {
		return nil, err
	}
	input.RecordedBy = principal.UserID
	rec, err := s.repo.CreateRecord(ctx, input)
	if err != nil {
		return nil, err
	}
	s.recordAudit(ctx, principal, "attendance.create", rec.ID, editwindow.Decision{Allowed: true})
	return rec, nil
}

// SheetEntry is one student's line in a bulk sheet submission.
type SheetEntry struct {
	StudentID     int64
	Status        Status
	Justification string
}

// RecordSheet records the whole session sheet atomically. One bad line
// rejects the whole submission.
func (s *Service) RecordSheet(ctx context.Context, principal roles.Principal, sessionID int64, entries []SheetEntry) ([]Record, error) {
	if sessionID == 0 {
		return nil, fmt.Errorf("%w: session ID required", ErrInvalidInput)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: empty sheet", ErrInvalidInput)
	}
	if _, err := s.repo.GetSession(ctx, sessionID); err != nil {
		return nil, err
	}

	inputs := make([]RecordInput, 0, len(entries))
	for _, entry := range entries {
		if entry.StudentID == 0 {
			return nil, fmt.Errorf("%w: student required on every line", ErrInvalidInput)
		}
		if !entry.Status.Valid() {
			return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, entry.Status)
		}
		inputs = append(inputs, RecordInput{
			SessionID:     sessionID,
			StudentID:     entry.StudentID,
			Status:        entry.Status,
			Justification: entry.Justification,
			RecordedBy:    principal.UserID,
		})
	}

	records, err := s.repo.CreateRecords(ctx, inputs)
	if err != nil {
		return nil, err
	}
	for _, rec := range records {
		s.recordAudit(ctx, principal, "attendance.create", rec.ID, editwindow.Decision{Allowed: true})
	}
	return records, nil
}

// Sheet returns a session's attendance records with edit decisions.
func (s *Service) Sheet(ctx context.Context, principal roles.Principal, now time.Time, sessionID int64, locale string) ([]RecordView, error) {
	if sessionID == 0 {
		return nil, fmt.Errorf("%w: session ID required", ErrInvalidInput)
	}
	records, err := s.repo.ListRecordsBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	actor := principal.Actor(now)
	out := make([]RecordView, 0, len(records))
	for _, rec := range records {
		decision := editwindow.Evaluate(policyEntity(rec), actor)
		out = append(out, RecordView{
			Record:  rec,
			CanEdit: decision.Allowed,
			Reason:  string(decision.Reason),
			Label:   editwindow.Describe(decision, locale),
		})
	}
	return out, nil
}

// UpdateRecord rewrites a record if the caller's window, measured from the
// session start, is still open.
func (s *Service) UpdateRecord(ctx context.Context, principal roles.Principal, now time.Time, id int64, status Status, justification string) (*Record, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, status)
	}
	rec, err := s.repo.GetRecord(ctx, id)
	if err != nil {
		return nil, err
	}
	decision := editwindow.Evaluate(policyEntity(*rec), principal.Actor(now))
	s.recordAudit(ctx, principal, "attendance.update", rec.ID, decision)
	if !decision.Allowed {
		return nil, &shared.EditDenied{Entity: "attendance_record", EntityID: strconv.FormatInt(rec.ID, 10), Decision: decision}
	}
	return s.repo.UpdateRecord(ctx, id, status, justification)
}

func (s *Service) recordAudit(ctx context.Context, principal roles.Principal, action string, id int64, decision editwindow.Decision) {
	if s.audit == nil {
		return
	}
	log := shared.AuditLog{
		ActorID:   principal.UserID,
		ActorRole: string(principal.Role),
		Action:    action,
		Entity:    "attendance_record",
		EntityID:  strconv.FormatInt(id, 10),
		Allowed:   decision.Allowed,
		Reason:    string(decision.Reason),
	}
	if decision.ElapsedOverBy > 0 {
		log.Meta = map[string]any{"elapsed_over_by": decision.ElapsedOverBy.String()}
	}
	_ = s.audit.Record(ctx, log)
}
