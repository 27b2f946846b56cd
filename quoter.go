package quoter

import (
	"context"
	"log/slog"

	"github.com/siherrmann/quoter/core/chat"
	"github.com/siherrmann/quoter/core/harvest"
	"github.com/siherrmann/quoter/core/query"
	"github.com/siherrmann/quoter/core/writer"
	"github.com/siherrmann/quoter/database"
	"github.com/siherrmann/quoter/helper"
	"github.com/siherrmann/quoter/model"
	loadSql "github.com/siherrmann/quoter/sql"
)

// Quoter wires the store, the harvester and the query side together
type Quoter struct {
	DB        *helper.Database
	Authors   *database.AuthorsDBHandler
	Quotes    *database.QuotesDBHandler
	Harvester *harvest.Harvester
	Writer    *writer.Writer
	Query     *query.Service
	// Logging
	log *slog.Logger
}

type options struct {
	logger      *slog.Logger
	forceReload bool
	harvestOpts []harvest.Option
}

// Option configures NewQuoter.
type Option func(*options)

// WithLogger replaces the default INFO stdout logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithForceReload reloads the SQL functions even if they already exist.
func WithForceReload() Option {
	return func(o *options) { o.forceReload = true }
}

// WithHarvestOptions passes options to the harvester.
func WithHarvestOptions(opts ...harvest.Option) Option {
	return func(o *options) { o.harvestOpts = append(o.harvestOpts, opts...) }
}

// NewQuoter connects to the store, ensures the schema and creates all components
func NewQuoter(config *helper.DatabaseConfiguration, harvestConfig harvest.Config, opts ...Option) (*Quoter, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	logger := o.logger
	if logger == nil {
		logger = helper.NewLogger(slog.LevelInfo)
	}

	db, err := helper.NewDatabase("quoter", config, logger)
	if err != nil {
		return nil, helper.NewError("connect database", err)
	}

	q, err := newQuoter(db, harvestConfig, o)
	if err != nil {
		db.Close()
		return nil, err
	}
	return q, nil
}

func newQuoter(db *helper.Database, harvestConfig harvest.Config, o *options) (*Quoter, error) {
	err := loadSql.EnsureSchema(db.Instance, o.forceReload)
	if err != nil {
		return nil, helper.NewError("ensure schema", err)
	}

	authors, err := database.NewAuthorsDBHandler(db)
	if err != nil {
		return nil, helper.NewError("create authors handler", err)
	}

	quotes, err := database.NewQuotesDBHandler(db)
	if err != nil {
		return nil, helper.NewError("create quotes handler", err)
	}

	harvester, err := harvest.NewHarvester(harvestConfig, db.Logger, o.harvestOpts...)
	if err != nil {
		return nil, helper.NewError("create harvester", err)
	}

	w, err := writer.NewWriter(db, authors, quotes)
	if err != nil {
		return nil, helper.NewError("create writer", err)
	}

	service, err := query.NewService(db, authors, quotes)
	if err != nil {
		return nil, helper.NewError("create query service", err)
	}

	return &Quoter{
		DB:        db,
		Authors:   authors,
		Quotes:    quotes,
		Harvester: harvester,
		Writer:    w,
		Query:     service,
		log:       db.Logger,
	}, nil
}

// Harvest runs one harvest and writes its result.
// A run that fails while harvesting writes nothing.
func (q *Quoter) Harvest(ctx context.Context) (*model.HarvestResult, writer.Stats, error) {
	result, err := q.Harvester.Harvest(ctx)
	if err != nil {
		return nil, writer.Stats{}, helper.NewError("harvest", err)
	}

	stats, err := q.Writer.WriteResult(ctx, result)
	if err != nil {
		return result, writer.Stats{}, helper.NewError("write harvest", err)
	}

	q.log.Info("Harvest stored",
		slog.String("run_id", result.RunID.String()),
		slog.Int("quotes_inserted", stats.QuotesInserted),
		slog.Int("authors_inserted", stats.AuthorsInserted),
	)

	return result, stats, nil
}

// NewDispatcher creates a chat dispatcher reading from the query service.
func (q *Quoter) NewDispatcher(favorites chat.FavoritesStore) (*chat.Dispatcher, error) {
	if favorites == nil {
		favorites = chat.NewMemoryFavorites()
	}
	return chat.NewDispatcher(q.Query, favorites, q.log)
}

// Close closes the database connection
func (q *Quoter) Close() error {
	return q.DB.Close()
}
