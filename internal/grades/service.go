package grades

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

// ErrInvalidInput indicates a rejected grade payload.
var ErrInvalidInput = errors.New("grades: invalid input")

// RepositoryPort defines data access methods for grades.
type RepositoryPort interface {
	Create(ctx context.Context, input GradeInput) (*Grade, error)
	Get(ctx context.Context, id int64) (*Grade, error)
	ListByCourse(ctx context.Context, courseID int64) ([]Grade, error)
	ListByStudent(ctx context.Context, studentID int64) ([]Grade, error)
	Update(ctx context.Context, id int64, input GradeInput) (*Grade, error)
	Delete(ctx context.Context, id int64) error
	ListExportRows(ctx context.Context, courseID int64) ([]ExportRow, error)
}

// AuditRecorder receives mutation attempts, allowed and denied alike.
type AuditRecorder interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service handles grade business logic. Every mutation re-evaluates the
// edit-window policy here, server side; the portals' disabled buttons are
// only a hint.
type Service struct {
	repo  RepositoryPort
	audit AuditRecorder
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, audit AuditRecorder) *Service {
	return &Service{repo: repo, audit: audit}
}

// Create records a new grade.
func (s *Service) Create(ctx context.Context, principal roles.Principal, input GradeInput) (*Grade, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}
	input.RecordedBy = principal.UserID
	g, err := s.repo.Create(ctx, input)
	if err != nil {
		return nil, err
	}
	s.recordAudit(ctx, principal, "grade.create", g.ID, editwindow.Decision{Allowed: true})
	return g, nil
}

// View returns one grade with the caller's edit decision attached.
func (s *Service) View(ctx context.Context, principal roles.Principal, now time.Time, id int64, locale string) (*GradeView, error) {
	g, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	view := s.decorate(*g, principal, now, locale)
	return &view, nil
}

// ListCourse returns the grades of a course with edit decisions.
func (s *Service) ListCourse(ctx context.Context, principal roles.Principal, now time.Time, courseID int64, locale string) ([]GradeView, error) {
	if courseID == 0 {
		return nil, fmt.Errorf("%w: course ID required", ErrInvalidInput)
	}
	list, err := s.repo.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	return s.decorateAll(list, principal, now, locale), nil
}

// ListStudent returns the grades of a student with edit decisions.
func (s *Service) ListStudent(ctx context.Context, principal roles.Principal, now time.Time, studentID int64, locale string) ([]GradeView, error) {
	if studentID == 0 {
		return nil, fmt.Errorf("%w: student ID required", ErrInvalidInput)
	}
	list, err := s.repo.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}
	return s.decorateAll(list, principal, now, locale), nil
}

// Update rewrites a grade if the caller's edit window is still open.
func (s *Service) Update(ctx context.Context, principal roles.Principal, now time.Time, id int64, input GradeInput) (*Grade, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}
	g, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	decision := editwindow.Evaluate(policyEntity(*g), principal.Actor(now))
	s.recordAudit(ctx, principal, "grade.update", g.ID, decision)
	if !decision.Allowed {
		return nil, &shared.EditDenied{Entity: "grade", EntityID: strconv.FormatInt(g.ID, 10), Decision: decision}
	}
	return s.repo.Update(ctx, id, input)
}

// Delete removes a grade if the caller's edit window is still open.
func (s *Service) Delete(ctx context.Context, principal roles.Principal, now time.Time, id int64) error {
	g, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	decision := editwindow.Evaluate(policyEntity(*g), principal.Actor(now))
	s.recordAudit(ctx, principal, "grade.delete", g.ID, decision)
	if !decision.Allowed {
		return &shared.EditDenied{Entity: "grade", EntityID: strconv.FormatInt(g.ID, 10), Decision: decision}
	}
	return s.repo.Delete(ctx, id)
}

// ExportRows collects the course grade list for CSV export.
func (s *Service) ExportRows(ctx context.Context, courseID int64) ([]ExportRow, error) {
	if courseID == 0 {
		return nil, fmt.Errorf("%w: course ID required", ErrInvalidInput)
	}
	return s.repo.ListExportRows(ctx, courseID)
}

func (s *Service) decorate(g Grade, principal roles.Principal, now time.Time, locale string) GradeView {
	decision := editwindow.Evaluate(policyEntity(g), principal.Actor(now))
	return GradeView{
		Grade:   g,
		CanEdit: decision.Allowed,
		Reason:  string(decision.Reason),
		Label:   editwindow.Describe(decision, locale),
	}
}

func (s *Service) decorateAll(list []Grade, principal roles.Principal, now time.Time, locale string) []GradeView {
	out := make([]GradeView, 0, len(list))
	for _, g := range list {
		out = append(out, s.decorate(g, principal, now, locale))
	}
	return out
}

func (s *Service) recordAudit(ctx context.Context, principal roles.Principal, action string, id int64, decision editwindow.Decision) {
	if s.audit == nil {
		return
	}
	log := shared.AuditLog{
		ActorID:   principal.UserID,
		ActorRole: string(principal.Role),
		Action:    action,
		Entity:    "grade",
		EntityID:  strconv.FormatInt(id, 10),
		Allowed:   decision.Allowed,
		Reason:    string(decision.Reason),
	}
	if decision.ElapsedOverBy > 0 {
		log.Meta = map[string]any{"elapsed_over_by": decision.ElapsedOverBy.String()}
	}
	// Audit failures must not block the mutation path.
	_ = s.audit.Record(ctx, log)
}

func validateInput(input GradeInput) error {
	if input.StudentID == 0 {
		return fmt.Errorf("%w: student ID required", ErrInvalidInput)
	}
	if input.CourseID == 0 {
		return fmt.Errorf("%w: course ID required", ErrInvalidInput)
	}
	if input.Value < 0 || input.Value > 20 {
		return fmt.Errorf("%w: value must be between 0 and 20", ErrInvalidInput)
	}
	if input.Coefficient <= 0 {
		return fmt.Errorf("%w: coefficient must be positive", ErrInvalidInput)
	}
	return nil
}
