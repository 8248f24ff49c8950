package auth

import (
	"errors"

	"github.com/casbin/casbin/v2/model"
	"github.com/casbin/casbin/v2/persist"

	"github.com/oszuidwest/zwfm-crudread/internal/config"
	"github.com/oszuidwest/zwfm-crudread/pkg/logger"
)

// errReadOnlyPolicies is returned by every write; the resource file is the
// only source of policies.
var errReadOnlyPolicies = errors.New("RBAC policies are read-only")

// PolicyAdapter implements persist.Adapter for Casbin over the policies
// declared in the resource file.
type PolicyAdapter struct {
	policies []config.Policy
}

// Compile-time verification that PolicyAdapter implements persist.Adapter
var _ persist.Adapter = (*PolicyAdapter)(nil)

// NewPolicyAdapter creates a new Casbin adapter
func NewPolicyAdapter(policies []config.Policy) *PolicyAdapter {
	return &PolicyAdapter{policies: policies}
}

// LoadPolicy loads all policy rules into m. Duplicates are skipped.
func (a *PolicyAdapter) LoadPolicy(m model.Model) error {
	seen := make(map[config.Policy]bool, len(a.policies))
	for _, p := range a.policies {
		if seen[p] {
			logger.Debug("RBAC policy declared twice: %v", p)
			continue
		}
		seen[p] = true
		if err := persist.LoadPolicyArray([]string{"p", p.Role, p.Resource, p.Action}, m); err != nil {
			return err
		}
	}
	return nil
}

// SavePolicy is not supported.
func (a *PolicyAdapter) SavePolicy(_ model.Model) error {
	return errReadOnlyPolicies
}

// AddPolicy is not supported.
func (a *PolicyAdapter) AddPolicy(_ string, _ string, _ []string) error {
	return errReadOnlyPolicies
}

// RemovePolicy is not supported.
func (a *PolicyAdapter) RemovePolicy(_ string, _ string, _ []string) error {
	return errReadOnlyPolicies
}

// RemoveFilteredPolicy is not supported.
func (a *PolicyAdapter) RemoveFilteredPolicy(_ string, _ string, _ int, _ ...string) error {
	return errReadOnlyPolicies
}
