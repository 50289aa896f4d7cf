package audit

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/scolaris-app/scolaris/internal/shared"
)

// Repository reads the audit_logs table. Writes go through
// shared.AuditLogger at the service layer; this side is read only.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// List returns a filtered page of entries, newest first, plus the total.
func (r *Repository) List(ctx context.Context, filter Filter) ([]Entry, int, error) {
	where := " WHERE 1=1"
	args := []any{}
	i := 1

	if filter.Entity != "" {
		where += fmt.Sprintf(" AND entity = $%d", i)
		args = append(args, filter.Entity)
		i++
	}
	if filter.EntityID != "" {
		where += fmt.Sprintf(" AND entity_id = $%d", i)
		args = append(args, filter.EntityID)
		i++
	}
	if filter.ActorID != 0 {
		where += fmt.Sprintf(" AND actor_id = $%d", i)
		args = append(args, filter.ActorID)
		i++
	}
	if filter.DeniedOnly {
		where += " AND allowed = FALSE"
	}
	if !filter.From.IsZero() {
		where += fmt.Sprintf(" AND occurred_at >= $%d", i)
		args = append(args, filter.From)
		i++
	}
	if !filter.To.IsZero() {
		where += fmt.Sprintf(" AND occurred_at <= $%d", i)
		args = append(args, filter.To)
		i++
	}

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM audit_logs"+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `
		SELECT id, actor_id, actor_role, action, entity, entity_id, allowed, reason, meta, occurred_at
		FROM audit_logs` + where + fmt.Sprintf(" ORDER BY occurred_at DESC, id DESC LIMIT $%d OFFSET $%d", i, i+1)
	args = append(args, filter.PerPage, shared.Offset(filter.Page, filter.PerPage))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		var metaJSON []byte
		if err := rows.Scan(
			&e.ID, &e.ActorID, &e.ActorRole, &e.Action, &e.Entity, &e.EntityID,
			&e.Allowed, &e.Reason, &metaJSON, &e.At,
		); err != nil {
			return nil, 0, err
		}
		if len(metaJSON) > 0 {
			if err := json.Unmarshal(metaJSON, &e.Meta); err != nil {
				return nil, 0, err
			}
		}
		out = append(out, e)
	}
	return out, total, rows.Err()
}
