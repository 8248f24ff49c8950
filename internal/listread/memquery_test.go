package listread

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
)

// memQuery is an in-memory Query used to exercise the reader without a
// database.
type memQuery struct {
	rows   []Row
	where  []func(Row) bool
	orders []SortField
	stats  *memStats
	err    error
}

type memStats struct {
	counts  int
	fetches int
	offsets []int
}

func newMemQuery(rows []Row, defaultOrder ...SortField) *memQuery {
	return &memQuery{rows: rows, orders: defaultOrder, stats: &memStats{}}
}

func (q *memQuery) clone() *memQuery {
	return &memQuery{
		rows:   q.rows,
		where:  slices.Clone(q.where),
		orders: slices.Clone(q.orders),
		stats:  q.stats,
		err:    q.err,
	}
}

func (q *memQuery) ClearOrder() Query {
	c := q.clone()
	c.orders = nil
	return c
}

func (q *memQuery) OrderBy(column string, dir Direction) Query {
	c := q.clone()
	c.orders = append(c.orders, SortField{Key: column, Direction: dir})
	return c
}

func (q *memQuery) WhereAnyLike(columns []string, pattern string) Query {
	needle := strings.ToLower(unescapeContains(pattern))
	cols := slices.Clone(columns)
	c := q.clone()
	c.where = append(c.where, func(r Row) bool {
		for _, col := range cols {
			if s, ok := r[col].(string); ok && strings.Contains(strings.ToLower(s), needle) {
				return true
			}
		}
		return false
	})
	return c
}

func (q *memQuery) Count(context.Context) (int64, error) {
	q.stats.counts++
	if q.err != nil {
		return 0, q.err
	}
	return int64(len(q.filtered())), nil
}

func (q *memQuery) Fetch(_ context.Context, limit, offset int) ([]Row, error) {
	q.stats.fetches++
	q.stats.offsets = append(q.stats.offsets, offset)
	if q.err != nil {
		return nil, q.err
	}
	rows := q.filtered()
	slices.SortStableFunc(rows, func(a, b Row) int {
		for _, o := range q.orders {
			c := compareValues(a[o.Key], b[o.Key])
			if o.Direction == Desc {
				c = -c
			}
			if c != 0 {
				return c
			}
		}
		return 0
	})
	offset = max(offset, 0)
	if offset >= len(rows) {
		return []Row{}, nil
	}
	end := min(offset+limit, len(rows))
	return rows[offset:end], nil
}

func (q *memQuery) filtered() []Row {
	out := make([]Row, 0, len(q.rows))
	for _, r := range q.rows {
		keep := true
		for _, w := range q.where {
			if !w(r) {
				keep = false
				break
			}
		}
		if keep {
			out = append(out, r)
		}
	}
	return out
}

func compareValues(a, b any) int {
	switch av := a.(type) {
	case int:
		bv, _ := b.(int)
		return cmp.Compare(av, bv)
	case string:
		bv, _ := b.(string)
		return cmp.Compare(av, bv)
	default:
		return cmp.Compare(fmt.Sprint(a), fmt.Sprint(b))
	}
}

// unescapeContains reverses ContainsPattern.
func unescapeContains(pattern string) string {
	pattern = strings.TrimPrefix(pattern, "%")
	pattern = strings.TrimSuffix(pattern, "%")
	var b strings.Builder
	escaped := false
	for _, r := range pattern {
		if !escaped && string(r) == LikeEscape {
			escaped = true
			continue
		}
		escaped = false
		b.WriteRune(r)
	}
	return b.String()
}
