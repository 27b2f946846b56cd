package helper

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	testDatabase = "database"
	testUsername = "user"
	testPassword = "password"
)

// MustStartPostgresContainer starts a throwaway postgres container and returns
// its terminate function and the mapped host port.
func MustStartPostgresContainer() (func(ctx context.Context, opts ...testcontainers.TerminateOption) error, string, error) {
	ctx := context.Background()

	container, err := postgres.Run(
		ctx,
		"postgres:16-alpine",
		postgres.WithDatabase(testDatabase),
		postgres.WithUsername(testUsername),
		postgres.WithPassword(testPassword),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		return nil, "", fmt.Errorf("error starting postgres container: %w", err)
	}

	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		return container.Terminate, "", fmt.Errorf("error getting mapped port: %w", err)
	}

	return container.Terminate, port.Port(), nil
}

// SetTestDatabaseConfigEnvs points the QUOTER_DB_* variables at the test container for the duration of t.
func SetTestDatabaseConfigEnvs(t *testing.T, dbPort string) {
	t.Setenv("QUOTER_ENV", "test")
	t.Setenv("QUOTER_DB_HOST", "localhost")
	t.Setenv("QUOTER_DB_PORT", dbPort)
	t.Setenv("QUOTER_DB_DATABASE", testDatabase)
	t.Setenv("QUOTER_DB_USERNAME", testUsername)
	t.Setenv("QUOTER_DB_PASSWORD", testPassword)
	t.Setenv("QUOTER_DB_SCHEMA", "public")
	t.Setenv("QUOTER_DB_SSLMODE", "disable")
}

// NewTestDatabase connects to the test container and panics on failure.
func NewTestDatabase(config *DatabaseConfiguration) *Database {
	logger := slog.New(NewPrettyHandler(io.Discard, PrettyHandlerOptions{}))
	db, err := NewDatabase("test", config, logger)
	if err != nil {
		panic(fmt.Sprintf("error connecting to test database: %v", err))
	}
	return db
}
