// Package listread implements paginated, searchable and sortable list reads
// on top of an immutable query builder.
package listread

import (
	"math"
	"strings"
)

// Direction is the sort direction of a single column.
type Direction string

const (
	Asc  Direction = "ASC"
	Desc Direction = "DESC"
)

// ParseDirection normalizes an untrusted direction. Anything other than a
// case-insensitive "desc" sorts ascending.
func ParseDirection(s string) Direction {
	if strings.EqualFold(strings.TrimSpace(s), "desc") {
		return Desc
	}
	return Asc
}

// SortField is one client-facing sort key with its direction.
type SortField struct {
	Key       string    `json:"key"`
	Direction Direction `json:"direction"`
}

// Default pagination values.
const (
	DefaultPage  = 1
	DefaultLimit = 10
)

// Request holds the caller-provided read parameters. All fields typically come
// from an untrusted client and are normalized by Execute.
type Request struct {
	Page   int         `json:"page"`
	Limit  int         `json:"limit"`
	Search string      `json:"search"`
	Sort   []SortField `json:"sort"`
}

// NewRequest creates a Request for the first page with the default limit.
func NewRequest() Request {
	return Request{
		Page:  DefaultPage,
		Limit: DefaultLimit,
	}
}

// offset returns the zero-based row skip for the requested page, or -1 for a
// page before the first. A page whose offset does not fit in an int yields
// math.MaxInt, which lies past any total. Limit must be positive.
func (r Request) offset() int {
	switch {
	case r.Page < 1:
		return -1
	case r.Page-1 > math.MaxInt/r.Limit:
		return math.MaxInt
	}
	return (r.Page - 1) * r.Limit
}
