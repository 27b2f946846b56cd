package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/siherrmann/quoter/helper"
	"github.com/siherrmann/quoter/model"
)

// AuthorsDBHandlerFunctions defines the interface for Authors database operations.
type AuthorsDBHandlerFunctions interface {
	UpsertAuthor(ctx context.Context, author *model.Author) (bool, error)
	SelectAuthorID(ctx context.Context, name string) (int64, error)
	SelectAuthorByName(ctx context.Context, name string) (*model.Author, error)
	SelectAllAuthorNames(ctx context.Context) ([]string, error)
	SelectAuthorNamesBySearch(ctx context.Context, term string) ([]string, error)
}

// AuthorsDBHandler handles author-related database operations
type AuthorsDBHandler struct {
	db *helper.Database
	q  DBTX
}

// NewAuthorsDBHandler creates a new authors database handler.
// The schema is expected to exist, see sql.EnsureSchema.
func NewAuthorsDBHandler(db *helper.Database) (*AuthorsDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	authorsDbHandler := &AuthorsDBHandler{
		db: db,
		q:  db.Instance,
	}

	db.Logger.Info("Initialized AuthorsDBHandler")

	return authorsDbHandler, nil
}

// With returns a handler running its statements on q.
func (h *AuthorsDBHandler) With(q DBTX) *AuthorsDBHandler {
	return &AuthorsDBHandler{db: h.db, q: q}
}

// UpsertAuthor inserts the author or overwrites bio and birth of the existing
// row with the same name. It sets author.ID and reports whether a new row was created.
func (h *AuthorsDBHandler) UpsertAuthor(ctx context.Context, author *model.Author) (bool, error) {
	row := h.q.QueryRowContext(
		ctx,
		`SELECT * FROM upsert_author($1, $2, $3)`,
		author.Name,
		author.Bio,
		sql.NullString{String: author.Birth, Valid: author.Birth != ""},
	)

	var inserted bool
	err := row.Scan(
		&author.ID,
		&inserted,
	)
	if err != nil {
		return false, helper.NewError("scan", helper.ClassifyStoreError(err))
	}

	return inserted, nil
}

// SelectAuthorID resolves a name to its id. It returns helper.ErrNotFound for unknown names.
func (h *AuthorsDBHandler) SelectAuthorID(ctx context.Context, name string) (int64, error) {
	var id int64
	err := h.q.QueryRowContext(
		ctx,
		`SELECT * FROM select_author_id($1)`,
		name,
	).Scan(&id)
	if err != nil {
		return 0, helper.NewError("scan", helper.ClassifyStoreError(err))
	}

	return id, nil
}

// SelectAuthorByName retrieves an author by exact name
func (h *AuthorsDBHandler) SelectAuthorByName(ctx context.Context, name string) (*model.Author, error) {
	author := &model.Author{}
	var birth sql.NullString
	err := h.q.QueryRowContext(
		ctx,
		`SELECT * FROM select_author($1)`,
		name,
	).Scan(
		&author.ID,
		&author.Name,
		&author.Bio,
		&birth,
	)
	if err != nil {
		return nil, helper.NewError("scan", helper.ClassifyStoreError(err))
	}
	author.Birth = birth.String

	return author, nil
}

// SelectAllAuthorNames returns every author name in ascending order
func (h *AuthorsDBHandler) SelectAllAuthorNames(ctx context.Context) ([]string, error) {
	return h.selectNames(ctx, `SELECT * FROM select_all_author_names()`)
}

// SelectAuthorNamesBySearch returns the names containing term, case-insensitive.
func (h *AuthorsDBHandler) SelectAuthorNamesBySearch(ctx context.Context, term string) ([]string, error) {
	return h.selectNames(ctx, `SELECT * FROM search_authors($1)`, containsPattern(term))
}

func (h *AuthorsDBHandler) selectNames(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := h.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, helper.NewError("query", helper.ClassifyStoreError(err))
	}
	defer rows.Close()

	names := []string{}
	for rows.Next() {
		var name string
		err := rows.Scan(&name)
		if err != nil {
			return nil, helper.NewError("scan", helper.ClassifyStoreError(err))
		}
		names = append(names, name)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", helper.ClassifyStoreError(err))
	}

	return names, nil
}
