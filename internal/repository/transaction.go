package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
	"gorm.io/gorm"

	"github.com/oszuidwest/zwfm-crudread/pkg/logger"
)

// TxManager runs a group of reads inside one read-only transaction, so a
// count and the page it describes see the same rows.
type TxManager interface {
	// WithReadTx executes fn within a read-only transaction.
	// The transaction is always finished before WithReadTx returns.
	// If fn panics, the transaction is rolled back and the panic is re-raised.
	WithReadTx(ctx context.Context, fn func(ctx context.Context) error) error
}

var readOnly = &sql.TxOptions{ReadOnly: true}

type txContextKey struct{}

type gormTxContextKey struct{}

// ContextWithTx stores a sqlx transaction in ctx for SQLQuery to use.
func ContextWithTx(ctx context.Context, tx Queryable) context.Context {
	return context.WithValue(ctx, txContextKey{}, tx)
}

// TxFromContext retrieves a sqlx transaction from context, or nil if not present.
func TxFromContext(ctx context.Context) Queryable {
	if tx, ok := ctx.Value(txContextKey{}).(Queryable); ok {
		return tx
	}
	return nil
}

// ContextWithGormTx stores a GORM transaction in ctx for GormQuery to use.
func ContextWithGormTx(ctx context.Context, tx *gorm.DB) context.Context {
	return context.WithValue(ctx, gormTxContextKey{}, tx)
}

// GormTxFromContext retrieves a GORM transaction from context, or nil if not present.
func GormTxFromContext(ctx context.Context) *gorm.DB {
	if tx, ok := ctx.Value(gormTxContextKey{}).(*gorm.DB); ok {
		return tx
	}
	return nil
}

// gormTxManager implements TxManager using GORM.
type gormTxManager struct {
	db *gorm.DB
}

// NewGormTxManager creates a transaction manager for GormQuery reads.
func NewGormTxManager(db *gorm.DB) TxManager {
	return &gormTxManager{db: db}
}

// WithReadTx uses GORM's Transaction, which handles begin, commit and rollback.
func (m *gormTxManager) WithReadTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		defer logPanic()

		if err := fn(ContextWithGormTx(ctx, tx)); err != nil {
			return fmt.Errorf("read transaction failed: %w", err)
		}
		return nil
	}, readOnly)
}

// sqlxTxManager implements TxManager using sqlx.
type sqlxTxManager struct {
	db *sqlx.DB
}

// NewSQLTxManager creates a transaction manager for SQLQuery reads.
func NewSQLTxManager(db *sqlx.DB) TxManager {
	return &sqlxTxManager{db: db}
}

func (m *sqlxTxManager) WithReadTx(ctx context.Context, fn func(ctx context.Context) error) error {
	tx, err := m.db.BeginTxx(ctx, readOnly)
	if err != nil {
		return ParseDBError(err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			logger.Error("Panic in read transaction: %v", p)
			panic(p)
		}
	}()

	if err := fn(ContextWithTx(ctx, tx)); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("read transaction failed: %w", err)
	}
	return ParseDBError(tx.Commit())
}

// logPanic logs and re-raises a panic; GORM rolls the transaction back.
func logPanic() {
	if p := recover(); p != nil {
		logger.Error("Panic in read transaction: %v", p)
		panic(p)
	}
}
