package students

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/scolaris-app/scolaris/internal/roles"
	"github.com/scolaris-app/scolaris/internal/shared"
)

// ErrInvalidInput indicates a rejected student payload.
var ErrInvalidInput = errors.New("students: invalid input")

// RepositoryPort defines data access methods for students.
type RepositoryPort interface {
	Create(ctx context.Context, input StudentInput) (*Student, error)
	Get(ctx context.Context, id int64) (*Student, error)
	List(ctx context.Context, filter ListFilter) ([]Student, int, error)
	Update(ctx context.Context, id int64, input StudentInput) (*Student, error)
}

// AuditRecorder receives mutation attempts.
type AuditRecorder interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service handles student master data. Master data has no edit window:
// the role gate on the routes is the whole of the access policy here.
type Service struct {
	repo  RepositoryPort
	audit AuditRecorder
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, audit AuditRecorder) *Service {
	return &Service{repo: repo, audit: audit}
}

// Create enrolls a student.
func (s *Service) Create(ctx context.Context, principal roles.Principal, input StudentInput) (*Student, error) {
	input = normalize(input)
	if err := validateInput(input); err != nil {
		return nil, err
	}
	st, err := s.repo.Create(ctx, input)
	if err != nil {
		return nil, err
	}
	s.recordAudit(ctx, principal, "student.create", st.ID)
	return st, nil
}

// Get returns one student.
func (s *Service) Get(ctx context.Context, id int64) (*Student, error) {
	return s.repo.Get(ctx, id)
}

// List returns a filtered page of students with pagination metadata.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]Student, shared.Pagination, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PerPage <= 0 || filter.PerPage > 100 {
		filter.PerPage = 20
	}
	list, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return list, shared.NewPagination(filter.Page, filter.PerPage, total), nil
}

// Update rewrites a student's master data.
func (s *Service) Update(ctx context.Context, principal roles.Principal, id int64, input StudentInput) (*Student, error) {
	input = normalize(input)
	if err := validateInput(input); err != nil {
		return nil, err
	}
	st, err := s.repo.Update(ctx, id, input)
	if err != nil {
		return nil, err
	}
	s.recordAudit(ctx, principal, "student.update", st.ID)
	return st, nil
}

func (s *Service) recordAudit(ctx context.Context, principal roles.Principal, action string, id int64) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:   principal.UserID,
		ActorRole: string(principal.Role),
		Action:    action,
		Entity:    "student",
		EntityID:  strconv.FormatInt(id, 10),
		Allowed:   true,
	})
}

func normalize(input StudentInput) StudentInput {
	input.Number = strings.ToUpper(strings.TrimSpace(input.Number))
	input.FirstName = strings.TrimSpace(input.FirstName)
	input.LastName = strings.TrimSpace(input.LastName)
	input.ClassName = strings.TrimSpace(input.ClassName)
	return input
}

func validateInput(input StudentInput) error {
	if input.Number == "" {
		return fmt.Errorf("%w: number required", ErrInvalidInput)
	}
	if input.FirstName == "" || input.LastName == "" {
		return fmt.Errorf("%w: full name required", ErrInvalidInput)
	}
	if input.BirthDate.IsZero() {
		return fmt.Errorf("%w: birth date required", ErrInvalidInput)
	}
	if input.ClassName == "" {
		return fmt.Errorf("%w: class required", ErrInvalidInput)
	}
	return nil
}
