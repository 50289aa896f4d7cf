package grades

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound indicates the grade does not exist.
var ErrNotFound = errors.New("grades: not found")

// Repository provides PostgreSQL backed persistence for grades.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a grade and returns it with generated fields.
func (r *Repository) Create(ctx context.Context, input GradeInput) (*Grade, error) {
	query := `
		INSERT INTO grades (student_id, course_id, value, coefficient, comment, recorded_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
		RETURNING id, created_at, updated_at`

	var g Grade
	err := r.pool.QueryRow(ctx, query,
		input.StudentID, input.CourseID, input.Value, input.Coefficient, input.Comment, input.RecordedBy,
	).Scan(&g.ID, &g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		return nil, err
	}

	g.StudentID = input.StudentID
	g.CourseID = input.CourseID
	g.Value = input.Value
	g.Coefficient = input.Coefficient
	g.Comment = input.Comment
	g.RecordedBy = input.RecordedBy
	return &g, nil
}

// Get fetches one grade by ID.
func (r *Repository) Get(ctx context.Context, id int64) (*Grade, error) {
	query := `
		SELECT id, student_id, course_id, value, coefficient, comment, recorded_by, created_at, updated_at
		FROM grades WHERE id = $1`

	var g Grade
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&g.ID, &g.StudentID, &g.CourseID, &g.Value, &g.Coefficient, &g.Comment,
		&g.RecordedBy, &g.CreatedAt, &g.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &g, nil
}

// ListByCourse returns all grades recorded for a course.
func (r *Repository) ListByCourse(ctx context.Context, courseID int64) ([]Grade, error) {
	query := `
		SELECT id, student_id, course_id, value, coefficient, comment, recorded_by, created_at, updated_at
		FROM grades WHERE course_id = $1 ORDER BY created_at DESC`
	return r.list(ctx, query, courseID)
}

// ListByStudent returns all grades of one student.
func (r *Repository) ListByStudent(ctx context.Context, studentID int64) ([]Grade, error) {
	query := `
		SELECT id, student_id, course_id, value, coefficient, comment, recorded_by, created_at, updated_at
		FROM grades WHERE student_id = $1 ORDER BY created_at DESC`
	return r.list(ctx, query, studentID)
}

func (r *Repository) list(ctx context.Context, query string, arg any) ([]Grade, error) {
	rows, err := r.pool.Query(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Grade
	for rows.Next() {
		var g Grade
		if err := rows.Scan(
			&g.ID, &g.StudentID, &g.CourseID, &g.Value, &g.Coefficient, &g.Comment,
			&g.RecordedBy, &g.CreatedAt, &g.UpdatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

// Update rewrites the mutable fields. created_at is deliberately left
// untouched so the edit window keeps running from the original creation.
func (r *Repository) Update(ctx context.Context, id int64, input GradeInput) (*Grade, error) {
	query := `
		UPDATE grades
		SET value = $2, coefficient = $3, comment = $4, updated_at = NOW()
		WHERE id = $1
		RETURNING id, student_id, course_id, value, coefficient, comment, recorded_by, created_at, updated_at`

	var g Grade
	err := r.pool.QueryRow(ctx, query, id, input.Value, input.Coefficient, input.Comment).Scan(
		&g.ID, &g.StudentID, &g.CourseID, &g.Value, &g.Coefficient, &g.Comment,
		&g.RecordedBy, &g.CreatedAt, &g.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &g, nil
}

// Delete removes a grade.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM grades WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListExportRows joins student and course names for the CSV export.
func (r *Repository) ListExportRows(ctx context.Context, courseID int64) ([]ExportRow, error) {
	query := `
		SELECT s.last_name || ' ' || s.first_name, c.name, g.value, g.coefficient, g.comment, g.created_at
		FROM grades g
		JOIN students s ON s.id = g.student_id
		JOIN courses c ON c.id = g.course_id
		WHERE g.course_id = $1
		ORDER BY s.last_name, s.first_name`

	rows, err := r.pool.Query(ctx, query, courseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ExportRow
	for rows.Next() {
		var row ExportRow
		if err := rows.Scan(&row.StudentName, &row.CourseName, &row.Value, &row.Coefficient, &row.Comment, &row.RecordedAt); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}
