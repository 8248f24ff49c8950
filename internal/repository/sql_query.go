package repository

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/oszuidwest/zwfm-crudread/internal/listread"
)

// SQLSource describes a hand-written base query. All fields come from trusted
// configuration, never from a client.
type SQLSource struct {
	Select       []string // Columns to fetch; defaults to "*"
	From         string   // Table with optional alias (e.g., "contacts c")
	Joins        []string // Full JOIN clauses
	Where        []string // Base conditions, ANDed together
	Args         []any    // Arguments for placeholders in Where
	DefaultOrder string   // ORDER BY used when no sort is requested
}

// SQLQuery implements listread.Query by building SQL text and executing it
// with sqlx. Values are copied on every builder step.
type SQLQuery struct {
	db           Queryable
	selects      []string
	from         string
	joins        []string
	conditions   []string
	args         []any
	defaultOrder string
	orders       []string
}

// Compile-time verification that SQLQuery implements listread.Query
var _ listread.Query = (*SQLQuery)(nil)

// NewSQLQuery creates a query over db from src.
func NewSQLQuery(db Queryable, src SQLSource) *SQLQuery {
	selects := slices.Clone(src.Select)
	if len(selects) == 0 {
		selects = []string{"*"}
	}
	return &SQLQuery{
		db:           db,
		selects:      selects,
		from:         src.From,
		joins:        slices.Clone(src.Joins),
		conditions:   slices.Clone(src.Where),
		args:         slices.Clone(src.Args),
		defaultOrder: src.DefaultOrder,
	}
}

func (q *SQLQuery) clone() *SQLQuery {
	return &SQLQuery{
		db:           q.db,
		selects:      q.selects,
		from:         q.from,
		joins:        q.joins,
		conditions:   slices.Clone(q.conditions),
		args:         slices.Clone(q.args),
		defaultOrder: q.defaultOrder,
		orders:       slices.Clone(q.orders),
	}
}

// ClearOrder drops the default order and any added ordering.
func (q *SQLQuery) ClearOrder() listread.Query {
	c := q.clone()
	c.defaultOrder = ""
	c.orders = nil
	return c
}

// OrderBy appends an ordering term. The column must be a validated identifier.
func (q *SQLQuery) OrderBy(column string, dir listread.Direction) listread.Query {
	direction := "ASC"
	if dir == listread.Desc {
		direction = "DESC"
	}
	c := q.clone()
	c.orders = append(c.orders, column+" "+direction)
	return c
}

// WhereAnyLike ANDs a parenthesized OR group of LIKE conditions.
func (q *SQLQuery) WhereAnyLike(columns []string, pattern string) listread.Query {
	if len(columns) == 0 {
		return q
	}
	expr, args := likeGroup(columns, pattern)
	c := q.clone()
	c.conditions = append(c.conditions, expr)
	c.args = append(c.args, args...)
	return c
}

// Count returns the number of rows matching the conditions.
func (q *SQLQuery) Count(ctx context.Context) (int64, error) {
	query := "SELECT COUNT(*) " + q.fromClause()

	db := q.queryable(ctx)
	var total int64
	if err := db.GetContext(ctx, &total, db.Rebind(query), q.args...); err != nil {
		return 0, ParseDBError(err)
	}
	return total, nil
}

// Fetch returns one page of rows in the configured order.
func (q *SQLQuery) Fetch(ctx context.Context, limit, offset int) ([]listread.Row, error) {
	query, args := q.SQL(limit, offset)

	db := q.queryable(ctx)
	rows, err := db.QueryxContext(ctx, db.Rebind(query), args...)
	if err != nil {
		return nil, ParseDBError(err)
	}
	defer func() {
		_ = rows.Close()
	}()

	result := make([]listread.Row, 0, limit)
	for rows.Next() {
		values := make(map[string]any)
		if err := rows.MapScan(values); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		result = append(result, normalizeRow(values))
	}
	if err := rows.Err(); err != nil {
		return nil, ParseDBError(err)
	}
	return result, nil
}

// SQL returns the page query text and arguments without executing it.
func (q *SQLQuery) SQL(limit, offset int) (string, []any) {
	query := "SELECT " + strings.Join(q.selects, ", ") + " " + q.fromClause()
	if orderBy := q.orderClause(); orderBy != "" {
		query += " ORDER BY " + orderBy
	}
	query += " LIMIT ? OFFSET ?"
	return query, append(slices.Clone(q.args), limit, max(offset, 0))
}

// queryable returns the transaction stored by WithReadTx, if any.
func (q *SQLQuery) queryable(ctx context.Context) Queryable {
	if tx := TxFromContext(ctx); tx != nil {
		return tx
	}
	return q.db
}

func (q *SQLQuery) fromClause() string {
	clause := "FROM " + q.from
	if len(q.joins) > 0 {
		clause += " " + strings.Join(q.joins, " ")
	}
	if len(q.conditions) > 0 {
		parts := make([]string, len(q.conditions))
		for i, c := range q.conditions {
			parts[i] = "(" + c + ")"
		}
		clause += " WHERE " + strings.Join(parts, " AND ")
	}
	return clause
}

func (q *SQLQuery) orderClause() string {
	if len(q.orders) > 0 {
		return strings.Join(q.orders, ", ")
	}
	return q.defaultOrder
}
