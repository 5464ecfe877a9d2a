package analytics

import (
	"fmt"

	"github.com/avfleet/avfleet/internal/model"
)

// LogPage is the GET /logs response body: one page of entries plus the
// metadata a client needs to walk the full result set.
type LogPage struct {
	Logs       []LogView        `json:"logs"`
	Pagination model.Pagination `json:"pagination"`
}

// QueryLogs runs a filtered, paginated read. Page numbers below 1 clamp to
// the first page; a zero limit takes the default and oversized limits clamp
// to the maximum. Results are newest first.
func (e *Engine) QueryLogs(filter model.LogFilter, page model.PageOpts) (*LogPage, error) {
	if page.Page < 1 {
		page.Page = 1
	}
	if page.Limit <= 0 {
		page.Limit = model.DefaultPageLimit
	}
	if page.Limit > model.MaxPageLimit {
		page.Limit = model.MaxPageLimit
	}
	if filter.Level != "" {
		filter.Level = model.NormalizeLevel(filter.Level)
	}

	entries, total, err := e.store.QueryLogs(filter, page)
	if err != nil {
		return nil, fmt.Errorf("query logs: %w", err)
	}

	views := make([]LogView, 0, len(entries))
	for _, entry := range entries {
		views = append(views, logView(entry))
	}

	totalPages := int(total) / page.Limit
	if int(total)%page.Limit != 0 {
		totalPages++
	}

	return &LogPage{
		Logs: views,
		Pagination: model.Pagination{
			CurrentPage: page.Page,
			TotalPages:  totalPages,
			TotalCount:  total,
			Limit:       page.Limit,
			HasNextPage: page.Page < totalPages,
			HasPrevPage: page.Page > 1,
		},
	}, nil
}
