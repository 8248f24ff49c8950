// Package repository provides data access abstractions for the list-read service.
// It implements listread.Query for GORM and for hand-written SQL executed with sqlx.
package repository

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
)

// Queryable defines the common interface between *sqlx.DB and *sqlx.Tx.
// This allows queries to run both directly and inside a read transaction.
type Queryable interface {
	GetContext(ctx context.Context, dest any, query string, args ...any) error
	SelectContext(ctx context.Context, dest any, query string, args ...any) error
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryxContext(ctx context.Context, query string, args ...any) (*sqlx.Rows, error)
	Rebind(query string) string
	DriverName() string
}

// Compile-time verification that sqlx.DB and sqlx.Tx implement Queryable
var (
	_ Queryable = (*sqlx.DB)(nil)
	_ Queryable = (*sqlx.Tx)(nil)
)
