package repository

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"
)

// Repository-level sentinel errors.
// These are distinct from service errors but can be mapped to them.
var (
	// ErrUnknownColumn indicates a configured column does not exist.
	ErrUnknownColumn = errors.New("unknown column")

	// ErrUnknownTable indicates a configured table does not exist.
	ErrUnknownTable = errors.New("unknown table")

	// ErrSyntax indicates the generated statement was rejected by the server.
	ErrSyntax = errors.New("sql syntax error")

	// ErrConnection indicates the database could not be reached.
	ErrConnection = errors.New("database connection failed")
)

// ParseDBError classifies database errors while keeping the original error
// in the chain, so errors.Is/As still see the driver error.
func ParseDBError(err error) error {
	if err == nil {
		return nil
	}

	// First, try type assertion for MySQL-specific errors (more robust)
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		switch mysqlErr.Number {
		case 1054: // ER_BAD_FIELD_ERROR
			return fmt.Errorf("%w: %w", ErrUnknownColumn, err)
		case 1146: // ER_NO_SUCH_TABLE
			return fmt.Errorf("%w: %w", ErrUnknownTable, err)
		case 1064: // ER_PARSE_ERROR
			return fmt.Errorf("%w: %w", ErrSyntax, err)
		}
	}

	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, mysql.ErrInvalidConn) {
		return fmt.Errorf("%w: %w", ErrConnection, err)
	}

	// Fallback to string matching for non-MySQL drivers (SQLite in tests)
	errStr := err.Error()
	switch {
	case strings.Contains(errStr, "no such column"), strings.Contains(errStr, "Unknown column"):
		return fmt.Errorf("%w: %w", ErrUnknownColumn, err)
	case strings.Contains(errStr, "no such table"), strings.Contains(errStr, "doesn't exist"):
		return fmt.Errorf("%w: %w", ErrUnknownTable, err)
	case strings.Contains(errStr, "syntax error"):
		return fmt.Errorf("%w: %w", ErrSyntax, err)
	case strings.Contains(errStr, "connection refused"):
		return fmt.Errorf("%w: %w", ErrConnection, err)
	default:
		return err
	}
}
