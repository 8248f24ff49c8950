// Package config handles application configuration management.
package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	// ResourcesFile is the path of the YAML file declaring read resources
	ResourcesFile string
	// LogLevel controls logging verbosity ("info" or "debug")
	LogLevel    string
	Environment Environment
}

// ServerConfig holds HTTP server and CORS configuration.
type ServerConfig struct {
	Address string
	// AllowedOrigins is a comma-separated list of allowed origins for CORS
	AllowedOrigins string
}

// DatabaseConfig holds MySQL database connection parameters.
type DatabaseConfig struct {
	Backend        Backend
	Host           string
	Port           int
	User           string
	Password       string
	Database       string
	MigrationsPath string
	// ReadTransactions runs each read's count and page in one read-only transaction
	ReadTransactions bool
}

// DSN returns the go-sql-driver/mysql data source name.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=true&loc=Local",
		d.User, d.Password, d.Host, d.Port, d.Database)
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	port, err := getEnvInt("CRUDREAD_DB_PORT", 3306)
	if err != nil {
		return nil, err
	}
	readTx, err := getEnvBool("CRUDREAD_DB_READ_TRANSACTIONS", true)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Server: ServerConfig{
			Address:        getEnv("CRUDREAD_SERVER_ADDRESS", ":8080"),
			AllowedOrigins: getEnv("CRUDREAD_ALLOWED_ORIGINS", ""),
		},
		Database: DatabaseConfig{
			Backend:          Backend(getEnv("CRUDREAD_DB_BACKEND", string(BackendGorm))),
			Host:             getEnv("CRUDREAD_DB_HOST", "localhost"),
			Port:             port,
			User:             getEnv("CRUDREAD_DB_USER", "crudread"),
			Password:         getEnv("CRUDREAD_DB_PASSWORD", "crudread"),
			Database:         getEnv("CRUDREAD_DB_NAME", "crudread"),
			MigrationsPath:   getEnv("CRUDREAD_MIGRATIONS_PATH", "migrations"),
			ReadTransactions: readTx,
		},
		ResourcesFile: getEnv("CRUDREAD_RESOURCES_FILE", "resources.yaml"),
		LogLevel:      getEnv("CRUDREAD_LOG_LEVEL", "info"),
		Environment:   Environment(getEnv("CRUDREAD_ENV", string(EnvDevelopment))),
	}

	if !cfg.Database.Backend.IsValid() {
		return nil, fmt.Errorf("invalid CRUDREAD_DB_BACKEND %q: must be %q or %q",
			cfg.Database.Backend, BackendGorm, BackendSQLX)
	}
	if !cfg.Environment.IsValid() {
		return nil, fmt.Errorf("invalid CRUDREAD_ENV %q: must be %q or %q",
			cfg.Environment, EnvDevelopment, EnvProduction)
	}

	return cfg, nil
}

// getEnv returns the value of the environment variable key, or defaultValue if unset.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt is getEnv for integer values.
func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return n, nil
}

// getEnvBool is getEnv for boolean values.
func getEnvBool(key string, defaultValue bool) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return b, nil
}
