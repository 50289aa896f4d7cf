package students

import (
	"context"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/scolaris-app/scolaris/internal/editwindow"
	"github.com/scolaris-app/scolaris/internal/roles"
	"github.com/scolaris-app/scolaris/internal/shared"
)

type memoryStudentRepo struct {
	students map[int64]*Student
	nextID   int64
}

func newMemoryStudentRepo() *memoryStudentRepo {
	return &memoryStudentRepo{students: make(map[int64]*Student)}
}

func (r *memoryStudentRepo) Create(ctx context.Context, input StudentInput) (*Student, error) {
	for _, st := range r.students {
		if st.Number == input.Number {
			return nil, ErrDuplicateNumber
		}
	}
	r.nextID++
	st := &Student{
		ID:        r.nextID,
		Number:    input.Number,
		FirstName: input.FirstName,
		LastName:  input.LastName,
		BirthDate: input.BirthDate,
		ClassName: input.ClassName,
	}
	r.students[st.ID] = st
	return st, nil
}

func (r *memoryStudentRepo) Get(ctx context.Context, id int64) (*Student, error) {
	st, ok := r.students[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *st
	return &copied, nil
}

func (r *memoryStudentRepo) List(ctx context.Context, filter ListFilter) ([]Student, int, error) {
	var matched []Student
	for _, st := range r.students {
		if filter.ClassName != "" && st.ClassName != filter.ClassName {
			continue
		}
		if filter.Search != "" && !strings.Contains(strings.ToLower(st.LastName), strings.ToLower(filter.Search)) {
			continue
		}
		matched = append(matched, *st)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].LastName < matched[j].LastName })

	total := len(matched)
	start := (filter.Page - 1) * filter.PerPage
	if start > total {
		start = total
	}
	end := start + filter.PerPage
	if end > total {
		end = total
	}
	return matched[start:end], total, nil
}

func (r *memoryStudentRepo) Update(ctx context.Context, id int64, input StudentInput) (*Student, error) {
	st, ok := r.students[id]
	if !ok {
		return nil, ErrNotFound
	}
	for _, other := range r.students {
		if other.ID != id && other.Number == input.Number {
			return nil, ErrDuplicateNumber
		}
	}
	st.Number = input.Number
	st.FirstName = input.FirstName
	st.LastName = input.LastName
	st.BirthDate = input.BirthDate
	st.ClassName = input.ClassName
	copied := *st
	return &copied, nil
}

type auditSpy struct {
	logs []shared.AuditLog
}

func (a *auditSpy) Record(ctx context.Context, log shared.AuditLog) error {
	a.logs = append(a.logs, log)
	return nil
}

var staff = roles.Principal{UserID: 9, Role: editwindow.RoleStaff}

func validInput(number, last string) StudentInput {
	return StudentInput{
		Number:    number,
		FirstName: "Léa",
		LastName:  last,
		BirthDate: time.Date(2012, time.September, 4, 0, 0, 0, 0, time.UTC),
		ClassName: "5B",
	}
}

func TestCreateNormalizesAndAudits(t *testing.T) {
	audit := &auditSpy{}
	svc := NewService(newMemoryStudentRepo(), audit)

	input := validInput(" mat-0042 ", "  Durand ")
	st, err := svc.Create(context.Background(), staff, input)
	require.NoError(t, err)
	require.Equal(t, "MAT-0042", st.Number)
	require.Equal(t, "Durand", st.LastName)

	require.Len(t, audit.logs, 1)
	require.Equal(t, "student.create", audit.logs[0].Action)
	require.True(t, audit.logs[0].Allowed)
}

func TestCreateRejectsDuplicateNumber(t *testing.T) {
	svc := NewService(newMemoryStudentRepo(), nil)

	_, err := svc.Create(context.Background(), staff, validInput("MAT-0042", "Durand"))
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), staff, validInput("mat-0042", "Martin"))
	require.ErrorIs(t, err, ErrDuplicateNumber)
}

func TestListPaginatesAndFilters(t *testing.T) {
	svc := NewService(newMemoryStudentRepo(), nil)

	for i, last := range []string{"Durand", "Martin", "Bernard", "Petit", "Robert"} {
		input := validInput("MAT-"+strings.Repeat("0", 3)+string(rune('1'+i)), last)
		if i >= 3 {
			input.ClassName = "6A"
		}
		_, err := svc.Create(context.Background(), staff, input)
		require.NoError(t, err)
	}

	list, pagination, err := svc.List(context.Background(), ListFilter{Page: 1, PerPage: 2})
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, 5, pagination.Total)
	require.Equal(t, 3, pagination.TotalPages)

	list, pagination, err = svc.List(context.Background(), ListFilter{ClassName: "6A", Page: 1, PerPage: 20})
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, 2, pagination.Total)
}

func TestUpdateValidation(t *testing.T) {
	svc := NewService(newMemoryStudentRepo(), nil)

	st, err := svc.Create(context.Background(), staff, validInput("MAT-0001", "Durand"))
	require.NoError(t, err)

	broken := validInput("MAT-0001", "Durand")
	broken.ClassName = "   "
	_, err = svc.Update(context.Background(), staff, st.ID, broken)
	require.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.Update(context.Background(), staff, 999, validInput("MAT-0002", "Durand"))
	require.ErrorIs(t, err, ErrNotFound)
}
