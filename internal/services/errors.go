// Package services provides the read service that serves configured resources.
package services

import (
	"errors"
	"fmt"

	"github.com/oszuidwest/zwfm-crudread/internal/apperrors"
	"github.com/oszuidwest/zwfm-crudread/internal/repository"
)

// MapRepoError translates repository errors to application-level errors.
// It preserves the operation context. Errors that already carry an
// application code pass through unchanged.
func MapRepoError(op string, err error) error {
	if err == nil {
		return nil
	}

	var appErr *apperrors.Error
	if errors.As(err, &appErr) {
		return fmt.Errorf("%s: %w", op, err)
	}

	switch {
	case errors.Is(err, repository.ErrUnknownColumn),
		errors.Is(err, repository.ErrUnknownTable),
		errors.Is(err, repository.ErrSyntax):
		// The statement came from resource configuration, not the client
		return fmt.Errorf("%s: %w", op,
			apperrors.Configuration("resource query is misconfigured").WithInternal("%v", err).Wrap(err))
	case errors.Is(err, repository.ErrConnection):
		return fmt.Errorf("%s: %w", op,
			apperrors.Database("database unavailable").WithInternal("%v", err).Wrap(err))
	}

	return fmt.Errorf("%s: %w", op,
		apperrors.Database("database error").WithInternal("%v", err).Wrap(err))
}
