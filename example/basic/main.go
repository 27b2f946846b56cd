package main

import (
	"context"
	"fmt"
	"log"

	"github.com/siherrmann/quoter"
	"github.com/siherrmann/quoter/core/harvest"
	"github.com/siherrmann/quoter/helper"
)

func main() {
	ctx := context.Background()

	// Start a test PostgreSQL container
	teardown, dbPort, err := helper.MustStartPostgresContainer()
	if err != nil {
		log.Fatalf("Failed to start PostgreSQL container: %v", err)
	}
	defer teardown(ctx)

	dbConfig := &helper.DatabaseConfiguration{
		Profile:  "test",
		Host:     "localhost",
		Port:     dbPort,
		Database: "database",
		Username: "user",
		Password: "password",
		Schema:   "public",
		SSLMode:  "disable",
	}

	// Only the first two listing pages to keep the example quick
	q, err := quoter.NewQuoter(dbConfig, harvest.Config{BaseURL: harvest.DefaultBaseURL, MaxPages: 2})
	if err != nil {
		log.Fatalf("Failed to create quoter: %v", err)
	}
	defer q.Close()

	fmt.Println("Harvesting quotes...")
	result, stats, err := q.Harvest(ctx)
	if err != nil {
		log.Fatalf("Failed to harvest: %v", err)
	}
	fmt.Printf("Harvested %d quotes from %d pages (%s)\n", len(result.Quotes), result.Pages, result.Termination.Reason)
	fmt.Printf("Inserted %d authors and %d quotes\n", stats.AuthorsInserted, stats.QuotesInserted)

	names, ok := q.Query.ListAll(ctx)
	if !ok {
		log.Fatal("Failed to list authors")
	}
	fmt.Printf("\nStored authors (%d):\n", len(names))
	for _, name := range names {
		fmt.Printf("  %s\n", name)
	}

	matches := q.Query.Search(ctx, "einstein")
	if len(matches) == 0 {
		return
	}

	detail, ok := q.Query.Detail(ctx, matches[0])
	if !ok {
		log.Fatalf("Failed to load %s", matches[0])
	}
	fmt.Printf("\n%s\nBorn: %s\nQuote: %s\n", detail.Name, detail.Birth, detail.Quote)
}
