package auth

import "github.com/gin-gonic/gin"

// ContextKey is a typed key for context values.
type ContextKey string

// Context keys for storing client information in request context.
const (
	// CtxKeyClient is the context key for the authenticated client name.
	CtxKeyClient ContextKey = "client"
	// CtxKeyRole is the context key for the authenticated client's role.
	CtxKeyRole ContextKey = "client_role"
)

// ClientContext contains the authenticated client for type-safe access.
type ClientContext struct {
	Name string
	Role string
}

// SetClientContext stores client context data in a type-safe manner.
func SetClientContext(c *gin.Context, ctx ClientContext) {
	c.Set(string(CtxKeyClient), ctx.Name)
	c.Set(string(CtxKeyRole), ctx.Role)
}

// ClientName retrieves the client name from context.
func ClientName(c *gin.Context) (string, bool) {
	return getContextString(c, CtxKeyClient)
}

// ClientRole retrieves the client role from context.
func ClientRole(c *gin.Context) (string, bool) {
	return getContextString(c, CtxKeyRole)
}

// getContextString safely retrieves a string from context.
func getContextString(c *gin.Context, key ContextKey) (string, bool) {
	val, exists := c.Get(string(key))
	if !exists {
		return "", false
	}
	if s, ok := val.(string); ok {
		return s, true
	}
	return "", false
}
