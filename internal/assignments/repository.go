package assignments

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound indicates the assignment does not exist.
var ErrNotFound = errors.New("assignments: not found")

// Repository provides PostgreSQL backed persistence for assignments.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts an assignment.
func (r *Repository) Create(ctx context.Context, input AssignmentInput) (*Assignment, error) {
	query := `
		INSERT INTO assignments (course_id, title, instructions, due_at, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		RETURNING id, created_at, updated_at`

	var a Assignment
	err := r.pool.QueryRow(ctx, query,
		input.CourseID, input.Title, input.Instructions, input.DueAt, input.CreatedBy,
	).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}

	a.CourseID = input.CourseID
	a.Title = input.Title
	a.Instructions = input.Instructions
	a.DueAt = input.DueAt
	a.CreatedBy = input.CreatedBy
	return &a, nil
}

// Get fetches one assignment by ID.
func (r *Repository) Get(ctx context.Context, id int64) (*Assignment, error) {
	query := `
		SELECT id, course_id, title, instructions, due_at, created_by, created_at, updated_at
		FROM assignments WHERE id = $1`

	var a Assignment
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&a.ID, &a.CourseID, &a.Title, &a.Instructions, &a.DueAt, &a.CreatedBy, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

// ListByCourse returns the assignments of one course, next due first.
func (r *Repository) ListByCourse(ctx context.Context, courseID int64) ([]Assignment, error) {
	query := `
		SELECT id, course_id, title, instructions, due_at, created_by, created_at, updated_at
		FROM assignments WHERE course_id = $1 ORDER BY due_at`

	rows, err := r.pool.Query(ctx, query, courseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Assignment
	for rows.Next() {
		var a Assignment
		if err := rows.Scan(
			&a.ID, &a.CourseID, &a.Title, &a.Instructions, &a.DueAt, &a.CreatedBy, &a.CreatedAt, &a.UpdatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// Update rewrites the mutable fields, including the due date.
func (r *Repository) Update(ctx context.Context, id int64, input AssignmentInput) (*Assignment, error) {
	query := `
		UPDATE assignments
		SET title = $2, instructions = $3, due_at = $4, updated_at = NOW()
		WHERE id = $1
		RETURNING id, course_id, title, instructions, due_at, created_by, created_at, updated_at`

	var a Assignment
	err := r.pool.QueryRow(ctx, query, id, input.Title, input.Instructions, input.DueAt).Scan(
		&a.ID, &a.CourseID, &a.Title, &a.Instructions, &a.DueAt, &a.CreatedBy, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

// Delete removes an assignment.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM assignments WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
