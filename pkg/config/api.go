package config

import "fmt"

const (
	// DefaultAPIListen is the default API listen address.
	DefaultAPIListen = ":8080"

	// DefaultDatabaseDriver is the default API database driver.
	DefaultDatabaseDriver = "sqlite"

	// DefaultSQLitePath is the default SQLite database path.
	DefaultSQLitePath = "./qasync.db"
)

// APIConfig contains all API server configuration.
type APIConfig struct {
	Server   APIServerConfig   `yaml:"server"`
	Auth     APIAuthConfig     `yaml:"auth"`
	Database APIDatabaseConfig `yaml:"database"`
	// ResultsDir is the directory of run results to serve and index.
	// Defaults to run.output_dir when empty.
	ResultsDir string `yaml:"results_dir,omitempty"`
}

// APIServerConfig contains HTTP server settings.
type APIServerConfig struct {
	Listen      string          `yaml:"listen"`
	CORSOrigins []string        `yaml:"cors_origins,omitempty"`
	RateLimit   RateLimitConfig `yaml:"rate_limit,omitempty"`
}

// RateLimitConfig configures per-IP rate limiting.
type RateLimitConfig struct {
	Enabled           bool `yaml:"enabled"`
	RequestsPerMinute int  `yaml:"requests_per_minute,omitempty"`
}

// APIAuthConfig contains authentication settings.
type APIAuthConfig struct {
	Basic BasicAuthConfig `yaml:"basic,omitempty"`
}

// BasicAuthConfig configures username/password authentication. Passwords
// are bcrypt hashes, never plaintext.
type BasicAuthConfig struct {
	Enabled bool            `yaml:"enabled"`
	Users   []BasicAuthUser `yaml:"users,omitempty"`
}

// BasicAuthUser defines a basic auth user from config.
type BasicAuthUser struct {
	Username     string `yaml:"username"`
	PasswordHash string `yaml:"password_hash"`
}

// APIDatabaseConfig contains database connection settings.
type APIDatabaseConfig struct {
	Driver   string               `yaml:"driver"`
	SQLite   SQLiteDatabaseConfig `yaml:"sqlite,omitempty"`
	Postgres PostgresConfig       `yaml:"postgres,omitempty"`
}

// SQLiteDatabaseConfig contains SQLite-specific settings.
type SQLiteDatabaseConfig struct {
	Path string `yaml:"path"`
}

// PostgresConfig contains PostgreSQL connection settings.
type PostgresConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	SSLMode  string `yaml:"ssl_mode,omitempty"`
}

// DSN builds the Postgres connection string.
func (p *PostgresConfig) DSN() string {
	sslMode := p.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}

	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, sslMode,
	)
}

func (a *APIConfig) applyDefaults() {
	if a.Server.Listen == "" {
		a.Server.Listen = DefaultAPIListen
	}

	if a.Server.RateLimit.Enabled && a.Server.RateLimit.RequestsPerMinute == 0 {
		a.Server.RateLimit.RequestsPerMinute = 120
	}

	if a.Database.Driver == "" {
		a.Database.Driver = DefaultDatabaseDriver
	}

	if a.Database.Driver == "sqlite" && a.Database.SQLite.Path == "" {
		a.Database.SQLite.Path = DefaultSQLitePath
	}
}

// Validate checks the API configuration for errors.
func (a *APIConfig) Validate() error {
	switch a.Database.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("unknown database driver %q", a.Database.Driver)
	}

	if a.Database.Driver == "postgres" {
		pg := a.Database.Postgres
		if pg.Host == "" || pg.User == "" || pg.Database == "" {
			return fmt.Errorf("postgres host, user and database are required")
		}
	}

	if a.Auth.Basic.Enabled && len(a.Auth.Basic.Users) == 0 {
		return fmt.Errorf("basic auth is enabled but no users are configured")
	}

	for i, u := range a.Auth.Basic.Users {
		if u.Username == "" || u.PasswordHash == "" {
			return fmt.Errorf("basic auth user %d: username and password_hash are required", i)
		}
	}

	return nil
}
