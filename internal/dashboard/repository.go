package dashboard

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"
)

// Repository aggregates counters across domain tables.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Counts runs the four counter queries in parallel. "Today" is the UTC day
// containing now; open assignments are those whose due date has not passed.
func (r *Repository) Counts(ctx context.Context, now time.Time) (Counts, error) {
	dayStart := now.UTC().Truncate(24 * time.Hour)
	dayEnd := dayStart.Add(24 * time.Hour)

	var counts Counts
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM students`).Scan(&counts.Students)
	})
	g.Go(func() error {
		return r.pool.QueryRow(ctx,
			`SELECT COUNT(*) FROM grades WHERE created_at >= $1 AND created_at < $2`,
			dayStart, dayEnd).Scan(&counts.GradesToday)
	})
	g.Go(func() error {
		return r.pool.QueryRow(ctx,
			`SELECT COUNT(*) FROM course_sessions WHERE starts_at >= $1 AND starts_at < $2`,
			dayStart, dayEnd).Scan(&counts.SessionsToday)
	})
	g.Go(func() error {
		return r.pool.QueryRow(ctx,
			`SELECT COUNT(*) FROM assignments WHERE due_at >= $1`, now).Scan(&counts.OpenAssignments)
	})

	if err := g.Wait(); err != nil {
		return Counts{}, err
	}
	counts.GeneratedAt = now
	return counts, nil
}
