package listread

import (
	"context"
	"strings"
)

// Row is a single result record keyed by column name.
type Row map[string]any

// Query is an immutable description of a data source. Every builder method
// returns a new Query and leaves the receiver untouched, so one base query can
// be shared by concurrent reads.
type Query interface {
	// ClearOrder drops every ordering, including the base query's default.
	ClearOrder() Query
	// OrderBy appends an ordering term after the existing ones.
	OrderBy(column string, dir Direction) Query
	// WhereAnyLike ANDs a group matching pattern against any of the columns.
	// The pattern is already escaped with LikeEscape.
	WhereAnyLike(columns []string, pattern string) Query
	// Count returns the number of matching rows.
	Count(ctx context.Context) (int64, error)
	// Fetch returns at most limit rows starting at offset.
	Fetch(ctx context.Context, limit, offset int) ([]Row, error)
}

// LikeEscape is the escape character used in LIKE patterns built by
// ContainsPattern. Backends must render it as ESCAPE '!'.
const LikeEscape = "!"

var likeReplacer = strings.NewReplacer(
	LikeEscape, LikeEscape+LikeEscape,
	"%", LikeEscape+"%",
	"_", LikeEscape+"_",
)

// ContainsPattern returns a LIKE pattern matching term as a literal substring.
func ContainsPattern(term string) string {
	return "%" + likeReplacer.Replace(term) + "%"
}
