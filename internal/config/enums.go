package config

// Backend selects the query builder used for read resources.
type Backend string

const (
	BackendGorm Backend = "gorm"
	BackendSQLX Backend = "sqlx"
)

func (b Backend) IsValid() bool {
	switch b {
	case BackendGorm, BackendSQLX:
		return true
	}
	return false
}

// Environment represents the runtime environment
type Environment string

const (
	EnvDevelopment Environment = "development"
	EnvProduction  Environment = "production"
)

func (e Environment) IsValid() bool {
	switch e {
	case EnvDevelopment, EnvProduction:
		return true
	}
	return false
}

func (e Environment) IsProduction() bool {
	return e == EnvProduction
}
