package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// PageResponse is one page of a list read.
type PageResponse struct {
	Data   any   `json:"data"`
	Total  int64 `json:"total"`
	Page   int   `json:"page"`
	Limit  int   `json:"limit"`
	Offset int   `json:"offset"`
	Pages  int   `json:"pages"`
}

// ListResponse wraps a non-paginated collection.
type ListResponse struct {
	Data any `json:"data"`
}

// Success responds with HTTP 200 OK status and the provided data.
func Success(c *gin.Context, data any) {
	if c == nil {
		return
	}
	c.JSON(http.StatusOK, data)
}

// ProblemValidationError responds with HTTP 422 for input validation failures.
func ProblemValidationError(c *gin.Context, detail string, errors []ValidationError) {
	if c == nil {
		return
	}
	SendProblem(c, NewValidationProblem(detail, c.Request.URL.Path, errors))
}

// ProblemNotFound responds with HTTP 404 Not Found.
func ProblemNotFound(c *gin.Context, detail string) {
	if c == nil {
		return
	}
	SendProblem(c, NewNotFoundProblem(detail, c.Request.URL.Path))
}

// ProblemAuthentication responds with HTTP 401 Unauthorized.
// Per RFC 7235, includes WWW-Authenticate header.
func ProblemAuthentication(c *gin.Context, detail string) {
	if c == nil {
		return
	}
	c.Header("WWW-Authenticate", `Bearer realm="crudread"`)
	SendProblem(c, NewAuthenticationProblem(detail, c.Request.URL.Path))
}

// ProblemForbidden responds with HTTP 403 Forbidden.
func ProblemForbidden(c *gin.Context, detail string) {
	if c == nil {
		return
	}
	SendProblem(c, NewForbiddenProblem(detail, c.Request.URL.Path))
}

// ProblemInternalServer responds with HTTP 500 Internal Server Error.
func ProblemInternalServer(c *gin.Context, detail string) {
	if c == nil {
		return
	}
	SendProblem(c, NewInternalServerProblem(detail, c.Request.URL.Path))
}

// ProblemBadRequest responds with HTTP 400 Bad Request.
func ProblemBadRequest(c *gin.Context, detail string, errors ...ValidationError) {
	if c == nil {
		return
	}
	problem := NewBadRequestProblem(detail, c.Request.URL.Path)
	problem.Errors = errors
	SendProblem(c, problem)
}
