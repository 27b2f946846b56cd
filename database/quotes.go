package database

import (
	"context"
	"fmt"

	"github.com/siherrmann/quoter/helper"
	"github.com/siherrmann/quoter/model"
)

// QuotesDBHandlerFunctions defines the interface for Quotes database operations.
type QuotesDBHandlerFunctions interface {
	InsertQuote(ctx context.Context, quote *model.Quote) (bool, error)
	SelectFirstQuoteByAuthor(ctx context.Context, authorID int64) (*model.Quote, error)
	SelectQuotesByAuthor(ctx context.Context, authorID int64) ([]*model.Quote, error)
	CountOrphanQuotes(ctx context.Context) (int64, error)
}

// QuotesDBHandler handles quote-related database operations
type QuotesDBHandler struct {
	db *helper.Database
	q  DBTX
}

// NewQuotesDBHandler creates a new quotes database handler.
func NewQuotesDBHandler(db *helper.Database) (*QuotesDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	quotesDbHandler := &QuotesDBHandler{
		db: db,
		q:  db.Instance,
	}

	db.Logger.Info("Initialized QuotesDBHandler")

	return quotesDbHandler, nil
}

// With returns a handler running its statements on q.
func (h *QuotesDBHandler) With(q DBTX) *QuotesDBHandler {
	return &QuotesDBHandler{db: h.db, q: q}
}

// InsertQuote inserts the quote for quote.AuthorID. An identical
// (text, author) row is left alone and false is returned.
func (h *QuotesDBHandler) InsertQuote(ctx context.Context, quote *model.Quote) (bool, error) {
	if quote.AuthorID == 0 {
		return false, helper.NewError("author validation", fmt.Errorf("%w: quote has no author id", helper.ErrIntegrityViolation))
	}

	var inserted bool
	err := h.q.QueryRowContext(
		ctx,
		`SELECT insert_quote($1, $2)`,
		quote.Text,
		quote.AuthorID,
	).Scan(&inserted)
	if err != nil {
		return false, helper.NewError("scan", helper.ClassifyStoreError(err))
	}

	return inserted, nil
}

// SelectFirstQuoteByAuthor returns one quote of the author, which one is unspecified.
// It returns helper.ErrNotFound if the author has no quotes.
func (h *QuotesDBHandler) SelectFirstQuoteByAuthor(ctx context.Context, authorID int64) (*model.Quote, error) {
	quote := &model.Quote{AuthorID: authorID}
	err := h.q.QueryRowContext(
		ctx,
		`SELECT * FROM select_first_quote_by_author($1)`,
		authorID,
	).Scan(
		&quote.ID,
		&quote.Text,
	)
	if err != nil {
		return nil, helper.NewError("scan", helper.ClassifyStoreError(err))
	}

	return quote, nil
}

// SelectQuotesByAuthor returns all quotes of the author in insertion order
func (h *QuotesDBHandler) SelectQuotesByAuthor(ctx context.Context, authorID int64) ([]*model.Quote, error) {
	rows, err := h.q.QueryContext(
		ctx,
		`SELECT * FROM select_quotes_by_author($1)`,
		authorID,
	)
	if err != nil {
		return nil, helper.NewError("query", helper.ClassifyStoreError(err))
	}
	defer rows.Close()

	var quotes []*model.Quote
	for rows.Next() {
		quote := &model.Quote{AuthorID: authorID}
		err := rows.Scan(
			&quote.ID,
			&quote.Text,
		)
		if err != nil {
			return nil, helper.NewError("scan", helper.ClassifyStoreError(err))
		}
		quotes = append(quotes, quote)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", helper.ClassifyStoreError(err))
	}

	return quotes, nil
}

// CountOrphanQuotes counts quotes whose author does not exist.
func (h *QuotesDBHandler) CountOrphanQuotes(ctx context.Context) (int64, error) {
	var count int64
	err := h.q.QueryRowContext(ctx, `SELECT count_orphan_quotes()`).Scan(&count)
	if err != nil {
		return 0, helper.NewError("scan", helper.ClassifyStoreError(err))
	}
	return count, nil
}
