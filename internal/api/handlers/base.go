// Package handlers provides HTTP request handlers for all API endpoints.
package handlers

import (
	"context"
	"errors"
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/oszuidwest/zwfm-crudread/internal/apperrors"
	"github.com/oszuidwest/zwfm-crudread/internal/auth"
	"github.com/oszuidwest/zwfm-crudread/internal/listread"
	"github.com/oszuidwest/zwfm-crudread/internal/services"
	"github.com/oszuidwest/zwfm-crudread/internal/utils"
	"github.com/oszuidwest/zwfm-crudread/pkg/logger"
)

// ReadService serves paginated reads of named resources.
type ReadService interface {
	Read(ctx context.Context, resource string, req listread.Request) (*listread.Result, error)
	Resources() []services.ResourceInfo
}

// Authorizer decides whether a role may perform an action on a resource.
type Authorizer interface {
	Enabled() bool
	Allowed(role, resource string, act auth.Action) (bool, error)
}

// Handlers contains all the dependencies needed by the API handlers.
type Handlers struct {
	readSvc ReadService
	authz   Authorizer
}

// NewHandlers creates a new Handlers instance with all required dependencies.
func NewHandlers(readSvc ReadService, authz Authorizer) *Handlers {
	return &Handlers{
		readSvc: readSvc,
		authz:   authz,
	}
}

// handleServiceError converts apperrors.Error from request binding or the
// read service to appropriate HTTP responses. Authentication failures never
// reach it; the auth middleware answers those itself.
// Internal error details are logged but never exposed to clients.
func handleServiceError(c *gin.Context, err error, resource string) {
	var appErr *apperrors.Error
	if !errors.As(err, &appErr) {
		logger.Error("Unhandled error for %s: %v", resource, err)
		utils.ProblemInternalServer(c, fmt.Sprintf("Failed to read %s", resource))
		return
	}

	switch appErr.Code {
	case apperrors.CodeNotFound:
		utils.ProblemNotFound(c, appErr.Message)
	case apperrors.CodeInvalidInput:
		logger.Debug("Rejected %s read: %v", resource, appErr.Err)
		utils.ProblemBadRequest(c, appErr.Message, fieldErrors(appErr)...)
	default:
		// Configuration, integrity and database errors are server faults
		logger.Error("%s read failed (%s): %v (internal: %s)", resource, appErr.Code, err, appErr.Internal)
		utils.ProblemInternalServer(c, fmt.Sprintf("Failed to read %s", resource))
	}
}

func fieldErrors(appErr *apperrors.Error) []utils.ValidationError {
	if appErr.Field == "" {
		return nil
	}
	return []utils.ValidationError{{Field: appErr.Field, Message: appErr.Message}}
}
