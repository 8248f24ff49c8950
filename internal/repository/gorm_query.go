package repository

import (
	"context"
	"slices"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/oszuidwest/zwfm-crudread/internal/listread"
)

// GormSource describes the parts of a GORM query that are applied only when
// rows are fetched, so counting never selects or orders.
type GormSource struct {
	Select       []string // Columns to fetch (e.g., "c.id", "c.name AS title")
	DefaultOrder string   // ORDER BY used when no sort is requested (e.g., "c.name ASC")
}

// GormQuery implements listread.Query on top of a scoped *gorm.DB.
// Every builder step starts a new session, so the base statement is never
// shared with a derived query.
type GormQuery struct {
	db           *gorm.DB
	selects      []string
	defaultOrder string
	orders       []clause.OrderByColumn
}

// Compile-time verification that GormQuery implements listread.Query
var _ listread.Query = (*GormQuery)(nil)

// NewGormQuery creates a query from db, which must already be scoped to a
// table or model (and may carry joins and base conditions).
func NewGormQuery(db *gorm.DB, src GormSource) *GormQuery {
	return &GormQuery{
		db:           db.Session(&gorm.Session{}),
		selects:      slices.Clone(src.Select),
		defaultOrder: src.DefaultOrder,
	}
}

func (q *GormQuery) clone() *GormQuery {
	return &GormQuery{
		db:           q.db,
		selects:      q.selects,
		defaultOrder: q.defaultOrder,
		orders:       slices.Clone(q.orders),
	}
}

// ClearOrder drops the default order and any added ordering.
func (q *GormQuery) ClearOrder() listread.Query {
	c := q.clone()
	c.defaultOrder = ""
	c.orders = nil
	return c
}

// OrderBy appends an ordering term. The column must be a validated identifier.
func (q *GormQuery) OrderBy(column string, dir listread.Direction) listread.Query {
	c := q.clone()
	c.orders = append(c.orders, clause.OrderByColumn{
		Column: clause.Column{Name: column, Raw: true},
		Desc:   dir == listread.Desc,
	})
	return c
}

// WhereAnyLike ANDs a parenthesized OR group of LIKE conditions.
func (q *GormQuery) WhereAnyLike(columns []string, pattern string) listread.Query {
	if len(columns) == 0 {
		return q
	}
	expr, args := likeGroup(columns, pattern)
	c := q.clone()
	c.db = q.db.Where(expr, args...).Session(&gorm.Session{})
	return c
}

// Count returns the number of rows matching the conditions.
func (q *GormQuery) Count(ctx context.Context) (int64, error) {
	var total int64
	if err := q.session(ctx).Count(&total).Error; err != nil {
		return 0, ParseDBError(err)
	}
	return total, nil
}

// Fetch returns one page of rows in the configured order.
func (q *GormQuery) Fetch(ctx context.Context, limit, offset int) ([]listread.Row, error) {
	tx := q.session(ctx)
	if len(q.selects) > 0 {
		tx = tx.Select(strings.Join(q.selects, ", "))
	}
	if len(q.orders) > 0 {
		tx = tx.Order(clause.OrderBy{Columns: q.orders})
	} else if q.defaultOrder != "" {
		tx = tx.Order(q.defaultOrder)
	}

	var results []map[string]any
	if err := tx.Scopes(PaginationScope(limit, offset)).Find(&results).Error; err != nil {
		return nil, ParseDBError(err)
	}

	rows := make([]listread.Row, 0, len(results))
	for _, r := range results {
		rows = append(rows, normalizeRow(r))
	}
	return rows, nil
}

// session binds the query to ctx. Inside WithReadTx the statement runs on the
// transaction's connection.
func (q *GormQuery) session(ctx context.Context) *gorm.DB {
	db := q.db.WithContext(ctx)
	if tx := GormTxFromContext(ctx); tx != nil {
		db.Statement.ConnPool = tx.Statement.ConnPool
	}
	return db
}

// likeGroup builds "(a LIKE ? ESCAPE '!' OR b LIKE ? ESCAPE '!')" with one
// argument per column.
func likeGroup(columns []string, pattern string) (string, []any) {
	conditions := make([]string, 0, len(columns))
	args := make([]any, 0, len(columns))
	for _, column := range columns {
		conditions = append(conditions, column+" LIKE ? ESCAPE '"+listread.LikeEscape+"'")
		args = append(args, pattern)
	}
	return "(" + strings.Join(conditions, " OR ") + ")", args
}

// normalizeRow converts driver byte slices to strings so rows serialize as
// text rather than base64.
func normalizeRow(r map[string]any) listread.Row {
	row := make(listread.Row, len(r))
	for k, v := range r {
		if b, ok := v.([]byte); ok {
			row[k] = string(b)
			continue
		}
		row[k] = v
	}
	return row
}
