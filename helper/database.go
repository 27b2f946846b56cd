package helper

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/lib/pq"
)

// Database bundles the store connection with the logger of the component using it.
type Database struct {
	Name     string
	Instance *sql.DB
	Logger   *slog.Logger
}

// NewDatabase opens and pings the postgres database described by config.
// With MaxIdleConns 0 every operation gets a fresh connection that is closed on release.
func NewDatabase(name string, config *DatabaseConfiguration, logger *slog.Logger) (*Database, error) {
	if config == nil {
		return nil, NewError("database configuration validation", fmt.Errorf("configuration is nil"))
	}
	if logger == nil {
		logger = NewLogger(slog.LevelInfo)
	}
	if config.IsLocal() && config.Password == "" {
		logger.Warn("Connecting without a password", slog.String("profile", ProfileLocal))
	}

	instance, err := sql.Open("postgres", config.ConnectionString())
	if err != nil {
		return nil, NewError("open database", err)
	}
	instance.SetMaxIdleConns(config.MaxIdleConns)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	err = instance.PingContext(ctx)
	if err != nil {
		instance.Close()
		return nil, NewError("ping database", ClassifyStoreError(err))
	}

	logger.Info("Connected to database",
		slog.String("name", name),
		slog.String("host", config.Host),
		slog.String("database", config.Database),
	)

	return &Database{
		Name:     name,
		Instance: instance,
		Logger:   logger,
	}, nil
}

// Conn acquires a dedicated connection. The caller must close it.
func (d *Database) Conn(ctx context.Context) (*sql.Conn, error) {
	conn, err := d.Instance.Conn(ctx)
	if err != nil {
		return nil, NewError("acquire connection", ClassifyStoreError(err))
	}
	return conn, nil
}

// Close closes the underlying connection pool.
func (d *Database) Close() error {
	if d == nil || d.Instance == nil {
		return nil
	}
	return d.Instance.Close()
}
