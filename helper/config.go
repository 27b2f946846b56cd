package helper

import (
	"errors"
	"fmt"
	"net/url"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// ProfileLocal is the only profile that may run without database credentials.
const ProfileLocal = "local"

// DatabaseConfiguration holds the connection settings of the quote store.
type DatabaseConfiguration struct {
	Profile      string `env:"QUOTER_ENV" envDefault:"local"`
	Host         string `env:"QUOTER_DB_HOST"`
	Port         string `env:"QUOTER_DB_PORT"`
	Database     string `env:"QUOTER_DB_DATABASE"`
	Username     string `env:"QUOTER_DB_USERNAME"`
	Password     string `env:"QUOTER_DB_PASSWORD"`
	Schema       string `env:"QUOTER_DB_SCHEMA" envDefault:"public"`
	SSLMode      string `env:"QUOTER_DB_SSLMODE" envDefault:"disable"`
	MaxIdleConns int    `env:"QUOTER_DB_MAX_IDLE_CONNS" envDefault:"0"`
}

// legacy variable names of the first deployment, consulted when the QUOTER_DB_* value is unset
var legacyEnv = map[string]string{
	"Host":     "DB_HOST",
	"Port":     "DB_PORT",
	"Database": "DB_NAME",
	"Username": "DB_USER",
	"Password": "DB_PASSWORD",
}

var localDefaults = map[string]string{
	"Host":     "localhost",
	"Port":     "5432",
	"Database": "quoter",
	"Username": "quoter",
}

// NewDatabaseConfiguration reads the configuration from the environment.
// A .env file in the working directory is loaded first without overriding
// variables that are already set.
//
// Outside the local profile host, database, username and password are required.
// There is no default password in any profile.
func NewDatabaseConfiguration() (*DatabaseConfiguration, error) {
	err := godotenv.Load()
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, NewError("load .env", err)
	}

	config, err := env.ParseAs[DatabaseConfiguration]()
	if err != nil {
		return nil, NewError("parse environment", err)
	}

	fields := map[string]*string{
		"Host":     &config.Host,
		"Port":     &config.Port,
		"Database": &config.Database,
		"Username": &config.Username,
		"Password": &config.Password,
	}
	for name, value := range fields {
		if *value == "" {
			*value = os.Getenv(legacyEnv[name])
		}
	}

	if err := config.validate(); err != nil {
		return nil, err
	}

	if config.IsLocal() {
		for name, value := range fields {
			if *value == "" {
				*value = localDefaults[name]
			}
		}
	}
	if config.Port == "" {
		config.Port = "5432"
	}

	return &config, nil
}

// IsLocal reports whether the configuration belongs to the local development profile.
func (c *DatabaseConfiguration) IsLocal() bool {
	return c.Profile == "" || c.Profile == ProfileLocal
}

func (c *DatabaseConfiguration) validate() error {
	if c.IsLocal() {
		return nil
	}

	var missing []error
	required := []struct {
		name  string
		value string
	}{
		{"QUOTER_DB_HOST", c.Host},
		{"QUOTER_DB_DATABASE", c.Database},
		{"QUOTER_DB_USERNAME", c.Username},
		{"QUOTER_DB_PASSWORD", c.Password},
	}
	for _, r := range required {
		if r.value == "" {
			missing = append(missing, fmt.Errorf("%s is required in profile %q", r.name, c.Profile))
		}
	}

	return errors.Join(missing...)
}

// ConnectionString returns a lib/pq connection url.
func (c *DatabaseConfiguration) ConnectionString() string {
	u := url.URL{
		Scheme: "postgres",
		Host:   fmt.Sprintf("%s:%s", c.Host, c.Port),
		Path:   "/" + c.Database,
	}
	if c.Password != "" {
		u.User = url.UserPassword(c.Username, c.Password)
	} else {
		u.User = url.User(c.Username)
	}

	query := url.Values{}
	query.Set("sslmode", c.SSLMode)
	if c.Schema != "" {
		query.Set("search_path", c.Schema)
	}
	u.RawQuery = query.Encode()

	return u.String()
}
