package attendance

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/scolaris-app/scolaris/internal/platform/db"
)

var (
	// ErrNotFound indicates the session or record does not exist.
	ErrNotFound = errors.New("attendance: not found")
	// ErrDuplicateRecord indicates attendance was already recorded for the
	// student in this session.
	ErrDuplicateRecord = errors.New("attendance: record already exists")
)

// Repository provides PostgreSQL backed persistence for attendance.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// CreateSession schedules a course session.
func (r *Repository) CreateSession(ctx context.Context, input SessionInput) (*CourseSession, error) {
	query := `
		INSERT INTO course_sessions (course_id, starts_at, ends_at, created_at)
		VALUES ($1, $2, $3, NOW())
		RETURNING id, created_at`

	var sess CourseSession
	err := r.pool.QueryRow(ctx, query, input.CourseID, input.StartsAt, input.EndsAt).
		Scan(&sess.ID, &sess.CreatedAt)
	if err != nil {
		return nil, err
	}
	sess.CourseID = input.CourseID
	sess.StartsAt = input.StartsAt
	sess.EndsAt = input.EndsAt
	return &sess, nil
}

// GetSession fetches one session by ID.
func (r *Repository) GetSession(ctx context.Context, id int64) (*CourseSession, error) {
	query := `SELECT id, course_id, starts_at, ends_at, created_at FROM course_sessions WHERE id = $1`

	var sess CourseSession
	err := r.pool.QueryRow(ctx, query, id).
		Scan(&sess.ID, &sess.CourseID, &sess.StartsAt, &sess.EndsAt, &sess.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &sess, nil
}

// ListSessionsByCourse returns the sessions of one course, newest first.
func (r *Repository) ListSessionsByCourse(ctx context.Context, courseID int64) ([]CourseSession, error) {
	query := `
		SELECT id, course_id, starts_at, ends_at, created_at
		FROM course_sessions WHERE course_id = $1 ORDER BY starts_at DESC`

	rows, err := r.pool.Query(ctx, query, courseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []CourseSession
	for rows.Next() {
		var sess CourseSession
		if err := rows.Scan(&sess.ID, &sess.CourseID, &sess.StartsAt, &sess.EndsAt, &sess.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, sess)
	}
	return out, rows.Err()
}

// CreateRecord inserts an attendance record. A student has at most one
// record per session, enforced by a unique index.
func (r *Repository) CreateRecord(ctx context.Context, input RecordInput) (*Record, error) {
	query := `
		INSERT INTO attendance_records (session_id, student_id, status, justification, recorded_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		RETURNING id, created_at, updated_at`

	var rec Record
	err := r.pool.QueryRow(ctx, query,
		input.SessionID, input.StudentID, string(input.Status), input.Justification, input.RecordedBy,
	).Scan(&rec.ID, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrDuplicateRecord
		}
		return nil, err
	}

	rec.SessionID = input.SessionID
	rec.StudentID = input.StudentID
	rec.Status = input.Status
	rec.Justification = input.Justification
	rec.RecordedBy = input.RecordedBy
	return &rec, nil
}

// CreateRecords inserts a whole sheet in one transaction. Either every row
// lands or none does, so a duplicate mid-sheet leaves nothing behind.
func (r *Repository) CreateRecords(ctx context.Context, inputs []RecordInput) ([]Record, error) {
	if len(inputs) == 0 {
		return nil, nil
	}

	sess, err := r.GetSession(ctx, inputs[0].SessionID)
	if err != nil {
		return nil, err
	}

	query := `
		INSERT INTO attendance_records (session_id, student_id, status, justification, recorded_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		RETURNING id, created_at, updated_at`

	out := make([]Record, 0, len(inputs))
	err = db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		for _, input := range inputs {
			var rec Record
			err := tx.QueryRow(ctx, query,
				input.SessionID, input.StudentID, string(input.Status), input.Justification, input.RecordedBy,
			).Scan(&rec.ID, &rec.CreatedAt, &rec.UpdatedAt)
			if err != nil {
				var pgErr *pgconn.PgError
				if errors.As(err, &pgErr) && pgErr.Code == "23505" {
					return ErrDuplicateRecord
				}
				return err
			}
			rec.SessionID = input.SessionID
			rec.StudentID = input.StudentID
			rec.Status = input.Status
			rec.Justification = input.Justification
			rec.RecordedBy = input.RecordedBy
			rec.SessionStartsAt = sess.StartsAt
			out = append(out, rec)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// GetRecord fetches one record joined with its session start.
func (r *Repository) GetRecord(ctx context.Context, id int64) (*Record, error) {
	query := `
		SELECT ar.id, ar.session_id, ar.student_id, ar.status, ar.justification,
		       ar.recorded_by, ar.created_at, ar.updated_at, cs.starts_at
		FROM attendance_records ar
		JOIN course_sessions cs ON cs.id = ar.session_id
		WHERE ar.id = $1`

	var (
		rec    Record
		status string
	)
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&rec.ID, &rec.SessionID, &rec.StudentID, &status, &rec.Justification,
		&rec.RecordedBy, &rec.CreatedAt, &rec.UpdatedAt, &rec.SessionStartsAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	rec.Status = Status(status)
	return &rec, nil
}

// ListRecordsBySession returns the attendance sheet of one session.
func (r *Repository) ListRecordsBySession(ctx context.Context, sessionID int64) ([]Record, error) {
	query := `
		SELECT ar.id, ar.session_id, ar.student_id, ar.status, ar.justification,
		       ar.recorded_by, ar.created_at, ar.updated_at, cs.starts_at
		FROM attendance_records ar
		JOIN course_sessions cs ON cs.id = ar.session_id
		WHERE ar.session_id = $1
		ORDER BY ar.student_id`

	rows, err := r.pool.Query(ctx, query, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var (
			rec    Record
			status string
		)
		if err := rows.Scan(
			&rec.ID, &rec.SessionID, &rec.StudentID, &status, &rec.Justification,
			&rec.RecordedBy, &rec.CreatedAt, &rec.UpdatedAt, &rec.SessionStartsAt,
		); err != nil {
			return nil, err
		}
		rec.Status = Status(status)
		out = append(out, rec)
	}
	return out, rows.Err()
}

// UpdateRecord rewrites status and justification. created_at stays as
// recorded; the window runs from the session start anyway.
func (r *Repository) UpdateRecord(ctx context.Context, id int64, status Status, justification string) (*Record, error) {
	query := `
		UPDATE attendance_records
		SET status = $2, justification = $3, updated_at = NOW()
		WHERE id = $1
		RETURNING id`

	var updatedID int64
	if err := r.pool.QueryRow(ctx, query, id, string(status), justification).Scan(&updatedID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return r.GetRecord(ctx, updatedID)
}
