// Package auth provides API client authentication and role-based
// authorization for read endpoints.
package auth

import (
	"errors"
	"fmt"
	"strings"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"github.com/oszuidwest/zwfm-crudread/internal/utils"
	"github.com/oszuidwest/zwfm-crudread/pkg/logger"
)

// ErrNoClients is returned when authentication would be disabled but the
// configuration requires clients.
var ErrNoClients = errors.New("no API clients configured")

type client struct {
	keyHash []byte
	role    string
}

// Service authenticates API clients and enforces role policies.
type Service struct {
	clients  map[string]client
	enforcer *casbin.Enforcer
	// dummyHash keeps unknown-client checks as slow as known-client checks
	dummyHash []byte
}

// NewService creates an auth service from cfg.
func NewService(cfg *Config) (*Service, error) {
	if len(cfg.Clients) == 0 && cfg.RequireClients {
		return nil, ErrNoClients
	}

	enforcer, err := initializeRBAC(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize RBAC: %w", err)
	}

	s := &Service{
		clients:  make(map[string]client, len(cfg.Clients)),
		enforcer: enforcer,
	}
	for _, c := range cfg.Clients {
		s.clients[c.Name] = client{keyHash: []byte(c.KeyHash), role: c.Role}
	}

	if len(s.clients) == 0 {
		logger.Warn("No API clients configured: authentication is disabled")
		return s, nil
	}

	s.dummyHash, err = bcrypt.GenerateFromPassword([]byte("crudread"), bcrypt.MinCost)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare auth service: %w", err)
	}
	return s, nil
}

// Enabled reports whether requests must authenticate.
func (s *Service) Enabled() bool {
	return len(s.clients) > 0
}

// rbacModel grants a role an action on a resource; both may use keyMatch wildcards.
const rbacModel = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, p.sub) && keyMatch(r.obj, p.obj) && keyMatch(r.act, p.act)
`

// initializeRBAC sets up role-based access control using Casbin.
func initializeRBAC(cfg *Config) (*casbin.Enforcer, error) {
	m, err := model.NewModelFromString(rbacModel)
	if err != nil {
		return nil, err
	}

	enforcer, err := casbin.NewEnforcer(m, NewPolicyAdapter(cfg.Policies))
	if err != nil {
		return nil, fmt.Errorf("failed to load RBAC policies: %w", err)
	}

	return enforcer, nil
}

// Authenticate verifies a "name:secret" credential and returns the client.
func (s *Service) Authenticate(credential string) (ClientContext, error) {
	name, secret, ok := strings.Cut(credential, ":")
	if !ok || name == "" || secret == "" {
		return ClientContext{}, fmt.Errorf("malformed credential")
	}

	c, known := s.clients[name]
	hash := c.keyHash
	if !known {
		hash = s.dummyHash
	}
	if err := bcrypt.CompareHashAndPassword(hash, []byte(secret)); err != nil || !known {
		return ClientContext{}, fmt.Errorf("invalid credentials")
	}
	return ClientContext{Name: name, Role: c.role}, nil
}

// Middleware returns the Gin middleware for authentication enforcement.
func (s *Service) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !s.Enabled() {
			c.Next()
			return
		}

		credential, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
		if !ok {
			utils.ProblemAuthentication(c, "Authentication required")
			return
		}

		client, err := s.Authenticate(strings.TrimSpace(credential))
		if err != nil {
			logger.Debug("Authentication failed: %v", err)
			utils.ProblemAuthentication(c, "Invalid credentials")
			return
		}

		SetClientContext(c, client)
		c.Next()
	}
}

// Allowed reports whether role may perform act on resource.
func (s *Service) Allowed(role, resource string, act Action) (bool, error) {
	return s.enforcer.Enforce(role, resource, string(act))
}

// RequirePermission returns middleware that enforces role-based access
// control. resource names the object; a leading ':' reads it from the route
// parameter of that name.
func (s *Service) RequirePermission(resource string, act Action) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !s.Enabled() {
			c.Next()
			return
		}

		role, roleOk := ClientRole(c)
		if !roleOk {
			logger.Error("RequirePermission: client role not found in context")
			utils.ProblemAuthentication(c, "Authentication required")
			return
		}

		obj := resource
		if param, ok := strings.CutPrefix(resource, ":"); ok {
			obj = c.Param(param)
		}

		allowed, err := s.Allowed(role, obj, act)
		if err != nil {
			logger.Error("Permission check failed: %v", err)
			utils.ProblemInternalServer(c, "Permission check failed")
			return
		}

		if !allowed {
			utils.ProblemForbidden(c, "Insufficient permissions")
			return
		}

		c.Next()
	}
}
