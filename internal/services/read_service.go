package services

import (
	"context"
	"fmt"
	"maps"
	"slices"

	"github.com/jmoiron/sqlx"
	"gorm.io/gorm"

	"github.com/oszuidwest/zwfm-crudread/internal/apperrors"
	"github.com/oszuidwest/zwfm-crudread/internal/config"
	"github.com/oszuidwest/zwfm-crudread/internal/listread"
	"github.com/oszuidwest/zwfm-crudread/internal/repository"
)

// QueryFactory builds the base query of a configured resource.
type QueryFactory func(res config.Resource) listread.Query

// GormQueries builds resource base queries with GORM.
func GormQueries(db *gorm.DB) QueryFactory {
	return func(res config.Resource) listread.Query {
		tx := db.Table(res.Table)
		for _, join := range res.Joins {
			tx = tx.Joins(join)
		}
		for _, where := range res.Where {
			tx = tx.Where(where)
		}
		return repository.NewGormQuery(tx, repository.GormSource{
			Select:       res.Select,
			DefaultOrder: res.DefaultOrder,
		})
	}
}

// SQLQueries builds resource base queries as plain SQL run through sqlx.
func SQLQueries(db *sqlx.DB) QueryFactory {
	return func(res config.Resource) listread.Query {
		return repository.NewSQLQuery(db, repository.SQLSource{
			Select:       res.Select,
			From:         res.Table,
			Joins:        res.Joins,
			Where:        res.Where,
			DefaultOrder: res.DefaultOrder,
		})
	}
}

// ResourceInfo describes a readable resource to clients.
type ResourceInfo struct {
	Name          string              `json:"name"`
	Kind          listread.ResultKind `json:"kind"`
	SearchColumns []string            `json:"search_columns"`
	SortKeys      []string            `json:"sort_keys"`
	DefaultLimit  int                 `json:"default_limit"`
	MaxLimit      int                 `json:"max_limit"`
}

// ReadService serves paginated reads of named resources. Its configurations
// are built once and are safe for concurrent use.
type ReadService struct {
	configs map[string]*listread.Config
	txm     repository.TxManager
}

// Option configures a ReadService.
type Option func(*ReadService)

// WithReadTransactions runs the count and page fetch of every read inside
// one read-only transaction.
func WithReadTransactions(txm repository.TxManager) Option {
	return func(s *ReadService) {
		s.txm = txm
	}
}

// NewReadService creates a read service over prepared configurations.
func NewReadService(configs map[string]*listread.Config, opts ...Option) *ReadService {
	s := &ReadService{configs: maps.Clone(configs)}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewReadServiceFromResources builds one read configuration per declared
// resource. Any invalid resource fails the whole catalog.
func NewReadServiceFromResources(res *config.Resources, newQuery QueryFactory, opts ...Option) (*ReadService, error) {
	const op = "services.NewReadServiceFromResources"

	configs := make(map[string]*listread.Config, len(res.Resources))
	for _, name := range slices.Sorted(maps.Keys(res.Resources)) {
		settings, _ := res.Settings(name)
		cfg, err := listread.NewConfig(newQuery(res.Resources[name]), settings)
		if err != nil {
			return nil, fmt.Errorf("%s: resource %q: %w", op, name, err)
		}
		configs[name] = cfg
	}
	s := &ReadService{configs: configs}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Read returns one page of the named resource.
func (s *ReadService) Read(ctx context.Context, resource string, req listread.Request) (*listread.Result, error) {
	const op = "ReadService.Read"

	cfg, ok := s.configs[resource]
	if !ok {
		return nil, fmt.Errorf("%s: %w", op,
			apperrors.NotFound(fmt.Sprintf("resource %q not found", resource)))
	}

	var result *listread.Result
	read := func(ctx context.Context) error {
		var err error
		result, err = listread.Execute(ctx, cfg, req)
		return err
	}

	var err error
	if s.txm != nil {
		err = s.txm.WithReadTx(ctx, read)
	} else {
		err = read(ctx)
	}
	if err != nil {
		return nil, MapRepoError(op, err)
	}
	return result, nil
}

// Has reports whether resource is configured.
func (s *ReadService) Has(resource string) bool {
	_, ok := s.configs[resource]
	return ok
}

// Resources describes every configured resource, ordered by name.
func (s *ReadService) Resources() []ResourceInfo {
	infos := make([]ResourceInfo, 0, len(s.configs))
	for _, name := range slices.Sorted(maps.Keys(s.configs)) {
		cfg := s.configs[name]
		defaultLimit, maxLimit := cfg.Limits()
		infos = append(infos, ResourceInfo{
			Name:          name,
			Kind:          cfg.Kind(),
			SearchColumns: cfg.SearchColumns(),
			SortKeys:      cfg.SortKeys(),
			DefaultLimit:  defaultLimit,
			MaxLimit:      maxLimit,
		})
	}
	return infos
}
