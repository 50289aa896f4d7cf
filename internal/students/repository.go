package students

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/scolaris-app/scolaris/internal/shared"
)

var (
	// ErrNotFound indicates the student does not exist.
	ErrNotFound = errors.New("students: not found")
	// ErrDuplicateNumber indicates the matricule is already taken.
	ErrDuplicateNumber = errors.New("students: duplicate number")
)

// Repository provides PostgreSQL backed persistence for students.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a student.
func (r *Repository) Create(ctx context.Context, input StudentInput) (*Student, error) {
	query := `
		INSERT INTO students (number, first_name, last_name, birth_date, class_name, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		RETURNING id, created_at, updated_at`

	var s Student
	err := r.pool.QueryRow(ctx, query,
		input.Number, input.FirstName, input.LastName, input.BirthDate, input.ClassName,
	).Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrDuplicateNumber
		}
		return nil, err
	}

	s.Number = input.Number
	s.FirstName = input.FirstName
	s.LastName = input.LastName
	s.BirthDate = input.BirthDate
	s.ClassName = input.ClassName
	return &s, nil
}

// Get fetches one student by ID.
func (r *Repository) Get(ctx context.Context, id int64) (*Student, error) {
	query := `
		SELECT id, number, first_name, last_name, birth_date, class_name, created_at, updated_at
		FROM students WHERE id = $1`

	var s Student
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&s.ID, &s.Number, &s.FirstName, &s.LastName, &s.BirthDate, &s.ClassName, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &s, nil
}

// List returns a filtered page of students plus the total match count.
func (r *Repository) List(ctx context.Context, filter ListFilter) ([]Student, int, error) {
	where := " WHERE 1=1"
	args := []any{}
	i := 1

	if filter.ClassName != "" {
		where += fmt.Sprintf(" AND class_name = $%d", i)
		args = append(args, filter.ClassName)
		i++
	}
	if filter.Search != "" {
		where += fmt.Sprintf(" AND (first_name ILIKE $%d OR last_name ILIKE $%d OR number ILIKE $%d)", i, i, i)
		args = append(args, "%"+filter.Search+"%")
		i++
	}

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM students"+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `
		SELECT id, number, first_name, last_name, birth_date, class_name, created_at, updated_at
		FROM students` + where + fmt.Sprintf(" ORDER BY last_name, first_name LIMIT $%d OFFSET $%d", i, i+1)
	args = append(args, filter.PerPage, shared.Offset(filter.Page, filter.PerPage))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Student
	for rows.Next() {
		var s Student
		if err := rows.Scan(
			&s.ID, &s.Number, &s.FirstName, &s.LastName, &s.BirthDate, &s.ClassName, &s.CreatedAt, &s.UpdatedAt,
		); err != nil {
			return nil, 0, err
		}
		out = append(out, s)
	}
	return out, total, rows.Err()
}

// Update rewrites a student's master data.
func (r *Repository) Update(ctx context.Context, id int64, input StudentInput) (*Student, error) {
	query := `
		UPDATE students
		SET number = $2, first_name = $3, last_name = $4, birth_date = $5, class_name = $6, updated_at = NOW()
		WHERE id = $1
		RETURNING id, number, first_name, last_name, birth_date, class_name, created_at, updated_at`

	var s Student
	err := r.pool.QueryRow(ctx, query,
		id, input.Number, input.FirstName, input.LastName, input.BirthDate, input.ClassName,
	).Scan(&s.ID, &s.Number, &s.FirstName, &s.LastName, &s.BirthDate, &s.ClassName, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrDuplicateNumber
		}
		return nil, err
	}
	return &s, nil
}
