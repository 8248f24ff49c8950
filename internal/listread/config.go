package listread

import (
	"errors"
	"fmt"
	"maps"
	"regexp"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/oszuidwest/zwfm-crudread/internal/apperrors"
)

// ResultKind selects the row contract of a read.
type ResultKind string

const (
	// KindTable rows only need an id.
	KindTable ResultKind = "table"
	// KindGroup rows need an id and a title.
	KindGroup ResultKind = "group"
)

// SortPolicy decides what happens to a sort key without a column mapping.
type SortPolicy string

const (
	// SortDrop silently ignores unmapped sort keys.
	SortDrop SortPolicy = "drop"
	// SortStrict rejects unmapped sort keys with a configuration error.
	SortStrict SortPolicy = "strict"
)

// DefaultMaxLimit caps the page size when Settings.MaxLimit is unset.
const DefaultMaxLimit = 100

// Settings is the declarative part of a read configuration, as written by the
// integrating code or loaded from a resource file.
type Settings struct {
	SearchColumns []string          `yaml:"search_columns" validate:"omitempty,dive,required,column"`
	SortMap       map[string]string `yaml:"sort_map" validate:"omitempty,dive,keys,required,endkeys,required,column"`
	SortPolicy    SortPolicy        `yaml:"sort_policy" validate:"omitempty,oneof=drop strict"`
	Kind          ResultKind        `yaml:"kind" validate:"omitempty,oneof=table group"`
	DefaultLimit  int               `yaml:"limit" validate:"gte=0"`
	MaxLimit      int               `yaml:"max_limit" validate:"gte=0"`
}

// Config is a validated, immutable read configuration. It is built once and
// shared by every read against the same resource.
type Config struct {
	base          Query
	searchColumns []string
	sortMap       map[string]string
	sortPolicy    SortPolicy
	kind          ResultKind
	defaultLimit  int
	maxLimit      int
}

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// IsIdentifier reports whether s is a plain (optionally table-qualified)
// column name that is safe to interpolate into SQL.
func IsIdentifier(s string) bool {
	return identifierPattern.MatchString(s)
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("column", func(fl validator.FieldLevel) bool {
		return IsIdentifier(fl.Field().String())
	})
	return v
}

// NewConfig validates s and binds it to the base query. Errors are
// configuration errors and are meant to stop startup.
func NewConfig(base Query, s Settings) (*Config, error) {
	const op = "listread.NewConfig"

	if base == nil {
		return nil, fmt.Errorf("%s: %w", op, apperrors.Configuration("base query is required"))
	}
	if err := validate.Struct(s); err != nil {
		return nil, fmt.Errorf("%s: %w", op, settingsError(err))
	}

	cfg := &Config{
		base:          base,
		searchColumns: slices.Clone(s.SearchColumns),
		sortMap:       maps.Clone(s.SortMap),
		sortPolicy:    s.SortPolicy,
		kind:          s.Kind,
		defaultLimit:  s.DefaultLimit,
		maxLimit:      s.MaxLimit,
	}
	if cfg.sortPolicy == "" {
		cfg.sortPolicy = SortDrop
	}
	if cfg.kind == "" {
		cfg.kind = KindTable
	}
	if cfg.defaultLimit == 0 {
		cfg.defaultLimit = DefaultLimit
	}
	if cfg.maxLimit == 0 {
		cfg.maxLimit = DefaultMaxLimit
	}
	if cfg.defaultLimit > cfg.maxLimit {
		return nil, fmt.Errorf("%s: %w", op, apperrors.Configuration(
			fmt.Sprintf("default limit %d exceeds max limit %d", cfg.defaultLimit, cfg.maxLimit)).WithField("limit"))
	}

	return cfg, nil
}

// settingsError converts validator failures into a configuration error that
// names every offending field.
func settingsError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperrors.Configuration("invalid read settings").Wrap(err)
	}
	messages := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		messages = append(messages, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
	}
	appErr := apperrors.Configuration("invalid read settings: " + strings.Join(messages, "; ")).Wrap(err)
	return appErr.WithField(verrs[0].Field())
}

// SearchColumns returns a copy of the searchable columns.
func (c *Config) SearchColumns() []string {
	return slices.Clone(c.searchColumns)
}

// SortKeys returns the client-facing sort keys in lexical order.
func (c *Config) SortKeys() []string {
	return slices.Sorted(maps.Keys(c.sortMap))
}

// Kind returns the row contract of the configuration.
func (c *Config) Kind() ResultKind {
	return c.kind
}

// SortPolicy returns the policy for unmapped sort keys.
func (c *Config) SortPolicy() SortPolicy {
	return c.sortPolicy
}

// Limits returns the default and maximum page size.
func (c *Config) Limits() (defaultLimit, maxLimit int) {
	return c.defaultLimit, c.maxLimit
}

// sortColumn maps a client-facing key to a real column. Without a sort map,
// plain identifiers are used as-is.
func (c *Config) sortColumn(key string) (string, bool) {
	if len(c.sortMap) > 0 {
		column, ok := c.sortMap[key]
		return column, ok
	}
	if IsIdentifier(key) {
		return key, true
	}
	return "", false
}
