package audit

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"
	"time"

	"github.com/scolaris-app/scolaris/internal/shared"
)

// RepositoryPort defines read access to the timeline.
type RepositoryPort interface {
	List(ctx context.Context, filter Filter) ([]Entry, int, error)
}

// Service exposes the timeline with paging and export.
type Service struct {
	repo RepositoryPort
}

// NewService builds Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// Timeline returns a filtered page of entries with pagination metadata.
func (s *Service) Timeline(ctx context.Context, filter Filter) ([]Entry, shared.Pagination, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PerPage <= 0 || filter.PerPage > 200 {
		filter.PerPage = 50
	}
	list, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return list, shared.NewPagination(filter.Page, filter.PerPage, total), nil
}

// exportPageSize bounds memory while streaming the whole filtered set.
const exportPageSize = 500

// WriteCSV streams every entry matching the filter to w as CSV.
func (s *Service) WriteCSV(ctx context.Context, w io.Writer, filter Filter) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	header := []string{"At", "Actor ID", "Actor Role", "Action", "Entity", "Entity ID", "Allowed", "Reason", "Meta"}
	if err := writer.Write(header); err != nil {
		return err
	}

	filter.PerPage = exportPageSize
	for page := 1; ; page++ {
		filter.Page = page
		entries, _, err := s.repo.List(ctx, filter)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			break
		}
		for _, e := range entries {
			meta := ""
			if len(e.Meta) > 0 {
				raw, err := json.Marshal(e.Meta)
				if err != nil {
					return err
				}
				meta = string(raw)
			}
			record := []string{
				e.At.Format(time.RFC3339),
				strconv.FormatInt(e.ActorID, 10),
				e.ActorRole,
				e.Action,
				e.Entity,
				e.EntityID,
				strconv.FormatBool(e.Allowed),
				e.Reason,
				meta,
			}
			if err := writer.Write(record); err != nil {
				return err
			}
		}
		if len(entries) < exportPageSize {
			break
		}
	}
	writer.Flush()
	return writer.Error()
}
