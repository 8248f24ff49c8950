package listread

import (
	"context"
	"fmt"
	"strings"

	"github.com/oszuidwest/zwfm-crudread/internal/apperrors"
)

// Result is one page of rows plus the number of rows matching the filter.
type Result struct {
	Rows   []Row `json:"data"`
	Total  int64 `json:"total"`
	Page   int   `json:"page"`
	Limit  int   `json:"limit"`
	Offset int   `json:"offset"`
}

// Pages returns the number of pages needed to show Total rows.
func (r *Result) Pages() int {
	if r.Limit <= 0 || r.Total <= 0 {
		return 0
	}
	return int((r.Total + int64(r.Limit) - 1) / int64(r.Limit))
}

// Execute runs a paginated read of cfg for req.
//
// A page before the first one yields an empty result. A page past the end is
// clamped to the last non-empty page. Rows and total always reflect the same
// search predicate; sorting and pagination never change the total. Errors from
// the query backend are returned wrapped but otherwise unchanged.
func Execute(ctx context.Context, cfg *Config, req Request) (*Result, error) {
	const op = "listread.Execute"

	if cfg == nil {
		return nil, fmt.Errorf("%s: %w", op, apperrors.Configuration("read configuration is required"))
	}

	req = normalize(cfg, req)

	sorts, err := resolveSort(cfg, req.Sort)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	offset := req.offset()
	if offset < 0 {
		return &Result{Rows: []Row{}, Total: 0, Page: req.Page, Limit: req.Limit}, nil
	}

	query := cfg.base
	if len(sorts) > 0 {
		query = query.ClearOrder()
		for _, s := range sorts {
			query = query.OrderBy(s.Key, s.Direction)
		}
	}
	if req.Search != "" && len(cfg.searchColumns) > 0 {
		query = query.WhereAnyLike(cfg.searchColumns, ContainsPattern(req.Search))
	}

	total, err := query.ClearOrder().Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: count: %w", op, err)
	}

	page := req.Page
	switch {
	case total == 0:
		offset, page = 0, 1
	case int64(offset) >= total:
		last := int((total - 1) / int64(req.Limit))
		offset, page = last*req.Limit, last+1
	}

	rows, err := query.Fetch(ctx, req.Limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: fetch: %w", op, err)
	}
	if rows == nil {
		rows = []Row{}
	}

	if err := checkRows(cfg.kind, rows); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Result{
		Rows:   rows,
		Total:  total,
		Page:   page,
		Limit:  req.Limit,
		Offset: offset,
	}, nil
}

// normalize applies the configured limits and trims the search term.
func normalize(cfg *Config, req Request) Request {
	if req.Limit < 1 {
		req.Limit = cfg.defaultLimit
	}
	if req.Limit > cfg.maxLimit {
		req.Limit = cfg.maxLimit
	}
	req.Search = strings.TrimSpace(req.Search)
	return req
}

// resolveSort maps client sort keys to columns, keeping precedence. A key
// repeated later in the list is ignored.
func resolveSort(cfg *Config, fields []SortField) ([]SortField, error) {
	if len(fields) == 0 {
		return nil, nil
	}

	resolved := make([]SortField, 0, len(fields))
	seen := make(map[string]bool, len(fields))
	for _, f := range fields {
		column, ok := cfg.sortColumn(f.Key)
		if !ok {
			if cfg.sortPolicy == SortStrict {
				return nil, apperrors.Configuration(fmt.Sprintf("sort key %q has no column mapping", f.Key)).WithField("sort")
			}
			continue
		}
		if seen[column] {
			continue
		}
		seen[column] = true
		resolved = append(resolved, SortField{Key: column, Direction: ParseDirection(string(f.Direction))})
	}
	return resolved, nil
}

// checkRows enforces the id (and title for group reads) row contract.
func checkRows(kind ResultKind, rows []Row) error {
	for i, row := range rows {
		if row["id"] == nil {
			return apperrors.Integrity(`list read rows must contain an "id" column`).
				WithInternal("row %d has no id", i).WithField("id")
		}
		if kind == KindGroup && row["title"] == nil {
			return apperrors.Integrity(`list read rows of the "group" kind must contain a "title" column`).
				WithInternal("row %d (id %v) has no title", i, row["id"]).WithField("title")
		}
	}
	return nil
}
