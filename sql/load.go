package sql

import (
	"database/sql"
	_ "embed"
	"fmt"
	"log"

	"github.com/siherrmann/quoter/helper"
)

//go:embed authors.sql
var authorsSQL string

//go:embed quotes.sql
var quotesSQL string

// Function lists for verification
var AuthorsFunctions = []string{
	"init_authors",
	"upsert_author",
	"select_author_id",
	"select_author",
	"select_all_author_names",
	"search_authors",
}

var QuotesFunctions = []string{
	"init_quotes",
	"insert_quote",
	"select_first_quote_by_author",
	"select_quotes_by_author",
	"count_orphan_quotes",
}

// Querier is satisfied by *sql.DB and *sql.Tx.
type Querier interface {
	Exec(query string, args ...any) (sql.Result, error)
	QueryRow(query string, args ...any) *sql.Row
}

// EnsureSchema loads the function bundles and creates or patches the
// authors and quotes tables. Everything runs in one transaction, a failure
// leaves the schema untouched.
func EnsureSchema(db *sql.DB, force bool) error {
	tx, err := db.Begin()
	if err != nil {
		return helper.NewError("begin schema transaction", helper.ClassifyStoreError(err))
	}
	defer tx.Rollback()

	if err := LoadAuthorsSql(tx, force); err != nil {
		return helper.ClassifyStoreError(err)
	}
	if err := LoadQuotesSql(tx, force); err != nil {
		return helper.ClassifyStoreError(err)
	}

	// authors first, quotes references it
	if _, err := tx.Exec(`SELECT init_authors();`); err != nil {
		return helper.NewError("init authors", helper.ClassifyStoreError(err))
	}
	if _, err := tx.Exec(`SELECT init_quotes();`); err != nil {
		return helper.NewError("init quotes", helper.ClassifyStoreError(err))
	}

	if err := tx.Commit(); err != nil {
		return helper.NewError("commit schema transaction", helper.ClassifyStoreError(err))
	}

	log.Println("Database schema ensured successfully")
	return nil
}

// LoadAuthorsSql loads author-related SQL functions
func LoadAuthorsSql(q Querier, force bool) error {
	return loadSql(q, "authors", authorsSQL, AuthorsFunctions, force)
}

// LoadQuotesSql loads quote-related SQL functions
func LoadQuotesSql(q Querier, force bool) error {
	return loadSql(q, "quotes", quotesSQL, QuotesFunctions, force)
}

func loadSql(q Querier, name string, bundle string, functions []string, force bool) error {
	if !force {
		exist, err := checkFunctions(q, functions)
		if err != nil {
			return fmt.Errorf("error checking existing %s functions: %w", name, err)
		}
		if exist {
			return nil
		}
	}

	_, err := q.Exec(bundle)
	if err != nil {
		return fmt.Errorf("error executing %s SQL: %w", name, err)
	}

	exist, err := checkFunctions(q, functions)
	if err != nil {
		return fmt.Errorf("error checking existing functions: %w", err)
	}
	if !exist {
		return fmt.Errorf("not all required SQL functions were created")
	}

	log.Printf("SQL %s functions loaded successfully", name)
	return nil
}

// checkFunctions verifies that all required functions exist in the database
func checkFunctions(q Querier, sqlFunctions []string) (bool, error) {
	var allExist bool
	for _, f := range sqlFunctions {
		err := q.QueryRow(
			`SELECT EXISTS(SELECT 1 FROM pg_proc WHERE proname = $1);`,
			f,
		).Scan(&allExist)
		if err != nil {
			return false, fmt.Errorf("error checking existence of function %s: %w", f, err)
		}
		if !allExist {
			log.Printf("Function %s does not exist", f)
			break
		}
	}
	return allExist, nil
}
