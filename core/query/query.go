package query

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/siherrmann/quoter/database"
	"github.com/siherrmann/quoter/helper"
	"github.com/siherrmann/quoter/model"
)

// Service answers read-only author lookups for the chat front-end.
// Store failures are logged and turned into empty or not-found results.
type Service struct {
	db      *helper.Database
	authors *database.AuthorsDBHandler
	quotes  *database.QuotesDBHandler
}

// NewService creates a query service on top of the given handlers.
func NewService(db *helper.Database, authors *database.AuthorsDBHandler, quotes *database.QuotesDBHandler) (*Service, error) {
	if db == nil || authors == nil || quotes == nil {
		return nil, helper.NewError("query service validation", fmt.Errorf("database and handlers must not be nil"))
	}
	return &Service{
		db:      db,
		authors: authors,
		quotes:  quotes,
	}, nil
}

// ListAll returns all author names in ascending order.
// The second return value is false if the store could not be read.
func (s *Service) ListAll(ctx context.Context) ([]string, bool) {
	var names []string
	err := s.withConn(ctx, func(conn *sql.Conn) error {
		var err error
		names, err = s.authors.With(conn).SelectAllAuthorNames(ctx)
		return err
	})
	if err != nil {
		s.db.Logger.Error("Error listing authors", slog.Any("error", err))
		return []string{}, false
	}
	return names, true
}

// Search returns the names containing q, case-insensitive.
func (s *Service) Search(ctx context.Context, q string) []string {
	var names []string
	err := s.withConn(ctx, func(conn *sql.Conn) error {
		var err error
		names, err = s.authors.With(conn).SelectAuthorNamesBySearch(ctx, q)
		return err
	})
	if err != nil {
		s.db.Logger.Error("Error searching authors", slog.String("query", q), slog.Any("error", err))
		return []string{}
	}
	return names
}

// Detail returns the card of the author with exactly this name and one of
// their quotes. A missing birth becomes model.UnknownBirth and a missing
// quote model.NoQuote. It returns false if there is no such author.
func (s *Service) Detail(ctx context.Context, name string) (model.AuthorDetail, bool) {
	var detail model.AuthorDetail
	err := s.withConn(ctx, func(conn *sql.Conn) error {
		author, err := s.authors.With(conn).SelectAuthorByName(ctx, name)
		if err != nil {
			return err
		}

		detail = model.AuthorDetail{
			Name:  author.Name,
			Birth: author.Birth,
			Bio:   author.Bio,
			Quote: model.NoQuote,
		}
		if strings.TrimSpace(detail.Birth) == "" {
			detail.Birth = model.UnknownBirth
		}

		quote, err := s.quotes.With(conn).SelectFirstQuoteByAuthor(ctx, author.ID)
		if errors.Is(err, helper.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		detail.Quote = quote.Text

		return nil
	})
	if errors.Is(err, helper.ErrNotFound) {
		return model.AuthorDetail{}, false
	}
	if err != nil {
		s.db.Logger.Error("Error selecting author detail", slog.String("name", name), slog.Any("error", err))
		return model.AuthorDetail{}, false
	}
	return detail, true
}

// withConn runs fn on its own connection and releases it on every path.
func (s *Service) withConn(ctx context.Context, fn func(conn *sql.Conn) error) error {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	return fn(conn)
}
