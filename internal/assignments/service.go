package assignments

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/scolaris-app/scolaris/internal/editwindow"
	"github.com/scolaris-app/scolaris/internal/roles"
	"github.com/scolaris-app/scolaris/internal/shared"
)

// ErrInvalidInput indicates a rejected assignment payload.
var ErrInvalidInput = errors.New("assignments: invalid input")

// RepositoryPort defines data access methods for assignments.
type RepositoryPort interface {
	Create(ctx context.Context, input AssignmentInput) (*Assignment, error)
	Get(ctx context.Context, id int64) (*Assignment, error)
	ListByCourse(ctx context.Context, courseID int64) ([]Assignment, error)
	Update(ctx context.Context, id int64, input AssignmentInput) (*Assignment, error)
	Delete(ctx context.Context, id int64) error
}

// AuditRecorder receives mutation attempts, allowed and denied alike.
type AuditRecorder interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service handles assignment business logic. The due-date window is
// enforced here, server side, before any write.
type Service struct {
	repo  RepositoryPort
	audit AuditRecorder
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, audit AuditRecorder) *Service {
	return &Service{repo: repo, audit: audit}
}

// Create publishes a new assignment.
func (s *Service) Create(ctx context.Context, principal roles.Principal, input AssignmentInput) (*Assignment, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}
	input.CreatedBy = principal.UserID
	a, err := s.repo.Create(ctx, input)
	if err != nil {
		return nil, err
	}
	s.recordAudit(ctx, principal, "assignment.create", a.ID, editwindow.Decision{Allowed: true})
	return a, nil
}

// ListCourse returns the assignments of a course with edit decisions.
func (s *Service) ListCourse(ctx context.Context, principal roles.Principal, now time.Time, courseID int64, locale string) ([]AssignmentView, error) {
	if courseID == 0 {
		return nil, fmt.Errorf("%w: course ID required", ErrInvalidInput)
	}
	list, err := s.repo.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	actor := principal.Actor(now)
	out := make([]AssignmentView, 0, len(list))
	for _, a := range list {
		decision := editwindow.Evaluate(policyEntity(a), actor)
		out = append(out, AssignmentView{
			Assignment: a,
			CanEdit:    decision.Allowed,
			Reason:     string(decision.Reason),
			Label:      editwindow.Describe(decision, locale),
		})
	}
	return out, nil
}

// View returns one assignment with the caller's edit decision.
func (s *Service) View(ctx context.Context, principal roles.Principal, now time.Time, id int64, locale string) (*AssignmentView, error) {
	a, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	decision := editwindow.Evaluate(policyEntity(*a), principal.Actor(now))
	return &AssignmentView{
		Assignment: *a,
		CanEdit:    decision.Allowed,
		Reason:     string(decision.Reason),
		Label:      editwindow.Describe(decision, locale),
	}, nil
}

// Update rewrites an assignment while its due date has not passed.
func (s *Service) Update(ctx context.Context, principal roles.Principal, now time.Time, id int64, input AssignmentInput) (*Assignment, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}
	a, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	decision := editwindow.Evaluate(policyEntity(*a), principal.Actor(now))
	s.recordAudit(ctx, principal, "assignment.update", a.ID, decision)
	if !decision.Allowed {
		return nil, &shared.EditDenied{Entity: "assignment", EntityID: strconv.FormatInt(a.ID, 10), Decision: decision}
	}
	return s.repo.Update(ctx, id, input)
}

// Delete removes an assignment while its due date has not passed.
func (s *Service) Delete(ctx context.Context, principal roles.Principal, now time.Time, id int64) error {
	a, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	decision := editwindow.Evaluate(policyEntity(*a), principal.Actor(now))
	s.recordAudit(ctx, principal, "assignment.delete", a.ID, decision)
	if !decision.Allowed {
		return &shared.EditDenied{Entity: "assignment", EntityID: strconv.FormatInt(a.ID, 10), Decision: decision}
	}
	return s.repo.Delete(ctx, id)
}

func (s *Service) recordAudit(ctx context.Context, principal roles.Principal, action string, id int64, decision editwindow.Decision) {
	if s.audit == nil {
		return
	}
	log := shared.AuditLog{
		ActorID:   principal.UserID,
		ActorRole: string(principal.Role),
		Action:    action,
		Entity:    "assignment",
		EntityID:  strconv.FormatInt(id, 10),
		Allowed:   decision.Allowed,
		Reason:    string(decision.Reason),
	}
	if decision.ElapsedOverBy > 0 {
		log.Meta = map[string]any{"elapsed_over_by": decision.ElapsedOverBy.String()}
	}
	_ = s.audit.Record(ctx, log)
}

func validateInput(input AssignmentInput) error {
	if input.CourseID == 0 {
		return fmt.Errorf("%w: course ID required", ErrInvalidInput)
	}
	if strings.TrimSpace(input.Title) == "" {
		return fmt.Errorf("%w: title required", ErrInvalidInput)
	}
	if input.DueAt.IsZero() {
		return fmt.Errorf("%w: due date required", ErrInvalidInput)
	}
	return nil
}
