package writer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/siherrmann/quoter/database"
	"github.com/siherrmann/quoter/helper"
	"github.com/siherrmann/quoter/model"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("core/writer")

// Stats counts what a write changed.
type Stats struct {
	AuthorsInserted int
	AuthorsUpdated  int
	QuotesInserted  int
	QuotesSkipped   int
}

// Writer merges harvested authors and quotes into the store.
type Writer struct {
	db      *helper.Database
	authors *database.AuthorsDBHandler
	quotes  *database.QuotesDBHandler
}

// NewWriter creates a writer on top of the given handlers.
func NewWriter(db *helper.Database, authors *database.AuthorsDBHandler, quotes *database.QuotesDBHandler) (*Writer, error) {
	if db == nil || authors == nil || quotes == nil {
		return nil, helper.NewError("writer validation", fmt.Errorf("database and handlers must not be nil"))
	}
	return &Writer{
		db:      db,
		authors: authors,
		quotes:  quotes,
	}, nil
}

// WriteResult writes a harvest result.
func (w *Writer) WriteResult(ctx context.Context, result *model.HarvestResult) (Stats, error) {
	if result == nil {
		return Stats{}, nil
	}
	return w.Write(ctx, result.Quotes, result.Authors)
}

// Write upserts all authors by name, then inserts all quotes for the resolved
// author ids, in a single transaction. Identical (text, author) quotes are skipped.
// Nothing is committed on error, so a failed write can be retried with the same input.
func (w *Writer) Write(ctx context.Context, quotes []model.Quote, authors map[string]model.Author) (stats Stats, err error) {
	ctx, span := tracer.Start(ctx, "Write")
	defer span.End()
	span.SetAttributes(
		attribute.Int("authors", len(authors)),
		attribute.Int("quotes", len(quotes)),
	)
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
	}()

	tx, err := w.db.Instance.BeginTx(ctx, nil)
	if err != nil {
		return Stats{}, helper.NewError("begin transaction", helper.ClassifyStoreError(err))
	}
	defer tx.Rollback()

	authorsTx := w.authors.With(tx)
	quotesTx := w.quotes.With(tx)

	names := make([]string, 0, len(authors))
	for name := range authors {
		names = append(names, name)
	}
	sort.Strings(names)

	ids := make(map[string]int64, len(authors))
	for _, name := range names {
		author := authors[name]
		if author.Name == "" {
			author.Name = name
		}
		if strings.TrimSpace(author.Name) == "" || author.Name != name {
			return Stats{}, helper.NewError("validate author", fmt.Errorf("%w: author key %q does not match name %q", helper.ErrIntegrityViolation, name, author.Name))
		}

		inserted, err := authorsTx.UpsertAuthor(ctx, &author)
		if err != nil {
			return Stats{}, helper.NewError(fmt.Sprintf("upsert author %q", name), err)
		}
		if author.ID == 0 {
			author.ID, err = authorsTx.SelectAuthorID(ctx, name)
			if err != nil {
				return Stats{}, helper.NewError(fmt.Sprintf("select author id %q", name), err)
			}
		}

		ids[name] = author.ID
		if inserted {
			stats.AuthorsInserted++
		} else {
			stats.AuthorsUpdated++
		}
	}

	for _, quote := range quotes {
		id, ok := ids[quote.AuthorName]
		if !ok {
			// quotes of authors from an earlier run
			id, err = authorsTx.SelectAuthorID(ctx, quote.AuthorName)
			if errors.Is(err, helper.ErrNotFound) {
				return Stats{}, helper.NewError("resolve quote author", fmt.Errorf("%w: unknown author %q", helper.ErrIntegrityViolation, quote.AuthorName))
			}
			if err != nil {
				return Stats{}, helper.NewError(fmt.Sprintf("select author id %q", quote.AuthorName), err)
			}
			ids[quote.AuthorName] = id
		}

		quote.AuthorID = id
		inserted, err := quotesTx.InsertQuote(ctx, &quote)
		if err != nil {
			return Stats{}, helper.NewError("insert quote", err)
		}
		if inserted {
			stats.QuotesInserted++
		} else {
			stats.QuotesSkipped++
		}
	}

	orphans, err := quotesTx.CountOrphanQuotes(ctx)
	if err != nil {
		return Stats{}, helper.NewError("count orphan quotes", err)
	}
	if orphans > 0 {
		return Stats{}, helper.NewError("orphan check", fmt.Errorf("%w: %d quotes reference missing authors", helper.ErrIntegrityViolation, orphans))
	}

	err = tx.Commit()
	if err != nil {
		return Stats{}, helper.NewError("commit", helper.ClassifyStoreError(err))
	}

	w.db.Logger.Info("Wrote harvest batch",
		slog.Int("authors_inserted", stats.AuthorsInserted),
		slog.Int("authors_updated", stats.AuthorsUpdated),
		slog.Int("quotes_inserted", stats.QuotesInserted),
		slog.Int("quotes_skipped", stats.QuotesSkipped),
	)

	return stats, nil
}
