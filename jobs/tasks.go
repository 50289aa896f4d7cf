// Package jobs runs background work off the request path: grade-sheet PDF
// builds and session housekeeping.
package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/hibiken/asynq"

	"github.com/scolaris-app/scolaris/internal/grades"
	"github.com/scolaris-app/scolaris/report"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskGradeSheetPDF builds a printable course grade sheet.
	TaskGradeSheetPDF = "report:gradesheet"
	// TaskSessionPurge removes expired session rows from postgres.
	TaskSessionPurge = "auth:purge_sessions"
)

// GradeSheetPayload identifies the course to render.
type GradeSheetPayload struct {
	CourseID int64 `json:"course_id"`
}

// NewGradeSheetTask constructs an Asynq task.
func NewGradeSheetTask(payload GradeSheetPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskGradeSheetPDF, data), nil
}

// NewSessionPurgeTask constructs the housekeeping task. It carries no
// payload; the handler works from the clock.
func NewSessionPurgeTask() *asynq.Task {
	return asynq.NewTask(TaskSessionPurge, nil)
}

// GradeExporter provides the course grade list for rendering.
type GradeExporter interface {
	ExportRows(ctx context.Context, courseID int64) ([]grades.ExportRow, error)
}

// PDFRenderer converts HTML to PDF bytes.
type PDFRenderer interface {
	RenderHTML(ctx context.Context, html string) ([]byte, error)
}

// GradeSheetProcessor handles TaskGradeSheetPDF tasks.
type GradeSheetProcessor struct {
	Grades     GradeExporter
	Renderer   PDFRenderer
	StorageDir string
	Logger     *slog.Logger
}

// Handle renders the course grade sheet and writes the PDF to storage.
func (p *GradeSheetProcessor) Handle(ctx context.Context, t *asynq.Task) error {
	var payload GradeSheetPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if payload.CourseID == 0 {
		return asynq.SkipRetry
	}

	rows, err := p.Grades.ExportRows(ctx, payload.CourseID)
	if err != nil {
		return fmt.Errorf("gradesheet: export rows: %w", err)
	}
	courseName := fmt.Sprintf("cours %d", payload.CourseID)
	if len(rows) > 0 {
		courseName = rows[0].CourseName
	}

	now := time.Now().UTC()
	html, err := report.BuildGradeSheetHTML(courseName, rows, now)
	if err != nil {
		return fmt.Errorf("gradesheet: build html: %w", err)
	}
	pdf, err := p.Renderer.RenderHTML(ctx, html)
	if err != nil {
		return fmt.Errorf("gradesheet: render: %w", err)
	}

	if err := os.MkdirAll(p.StorageDir, 0o755); err != nil {
		return err
	}
	name := fmt.Sprintf("gradesheet-%d-%s.pdf", payload.CourseID, now.Format("20060102-150405"))
	path := filepath.Join(p.StorageDir, name)
	if err := os.WriteFile(path, pdf, 0o644); err != nil {
		return err
	}

	p.Logger.Info("grade sheet written",
		slog.Int64("course_id", payload.CourseID),
		slog.String("path", path),
		slog.Int("rows", len(rows)))
	return nil
}

// SessionPurger provides the expired-session cleanup.
type SessionPurger interface {
	PurgeExpiredSessions(ctx context.Context, now time.Time) (int64, error)
}

// SessionPurgeProcessor handles TaskSessionPurge tasks, scheduled nightly.
type SessionPurgeProcessor struct {
	Auth   SessionPurger
	Logger *slog.Logger
}

// Handle deletes expired session rows.
func (p *SessionPurgeProcessor) Handle(ctx context.Context, t *asynq.Task) error {
	n, err := p.Auth.PurgeExpiredSessions(ctx, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("session purge: %w", err)
	}
	if n > 0 {
		p.Logger.Info("expired sessions purged", slog.Int64("count", n))
	}
	return nil
}
