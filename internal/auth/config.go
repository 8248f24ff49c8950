package auth

import "github.com/oszuidwest/zwfm-crudread/internal/config"

// Config holds API clients and the role policies applied to them.
type Config struct {
	// Clients that may call the API. Empty disables authentication.
	Clients []config.Client

	// Policies grant roles actions on resources
	Policies []config.Policy

	// RequireClients refuses to start with authentication disabled
	RequireClients bool
}
