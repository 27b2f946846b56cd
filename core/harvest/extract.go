package harvest

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/siherrmann/quoter/helper"
)

// ListingItem is one quote as it appears on a listing page.
type ListingItem struct {
	Text   string
	Author string
	// Href points to the author detail page, usually relative to the site root.
	Href string
}

// AuthorPage holds the fields scraped from an author detail page.
type AuthorPage struct {
	Bio          string
	BornDate     string
	BornLocation string
}

// Birth joins date and location with one space.
func (p AuthorPage) Birth() string {
	return p.BornDate + " " + p.BornLocation
}

// Extractor knows the page structure of a harvest source.
// Missing structure is reported as helper.ErrParse.
type Extractor interface {
	Items(doc *goquery.Document) ([]ListingItem, error)
	Author(doc *goquery.Document) (AuthorPage, error)
}

const (
	selectorQuote        = ".quote"
	selectorQuoteText    = ".text"
	selectorQuoteAuthor  = ".author"
	selectorAuthorLink   = "a[href]"
	selectorDescription  = ".author-description"
	selectorBornDate     = ".author-born-date"
	selectorBornLocation = ".author-born-location"
)

// QuotesToScrapeExtractor reads the markup of quotes.toscrape.com.
type QuotesToScrapeExtractor struct{}

// Items returns the quotes of a listing page. A page without quotes yields an empty slice.
// Text and author are returned as they appear in the markup.
func (QuotesToScrapeExtractor) Items(doc *goquery.Document) ([]ListingItem, error) {
	items := []ListingItem{}
	var err error

	doc.Find(selectorQuote).EachWithBreak(func(i int, s *goquery.Selection) bool {
		text := s.Find(selectorQuoteText).First()
		author := s.Find(selectorQuoteAuthor).First()
		link := s.Find(selectorAuthorLink).First()

		switch {
		case text.Length() == 0:
			err = missing(selectorQuoteText, i)
		case author.Length() == 0:
			err = missing(selectorQuoteAuthor, i)
		case link.Length() == 0:
			err = missing(selectorAuthorLink, i)
		}
		if err != nil {
			return false
		}

		href, _ := link.Attr("href")
		items = append(items, ListingItem{
			Text:   text.Text(),
			Author: author.Text(),
			Href:   href,
		})
		return true
	})
	if err != nil {
		return nil, err
	}

	return items, nil
}

// Author returns the trimmed description and birth fields of an author page.
func (QuotesToScrapeExtractor) Author(doc *goquery.Document) (AuthorPage, error) {
	fields := map[string]string{}
	for _, selector := range []string{selectorDescription, selectorBornDate, selectorBornLocation} {
		s := doc.Find(selector).First()
		if s.Length() == 0 {
			return AuthorPage{}, fmt.Errorf("%w: author page has no %s element", helper.ErrParse, selector)
		}
		fields[selector] = strings.TrimSpace(s.Text())
	}

	return AuthorPage{
		Bio:          fields[selectorDescription],
		BornDate:     fields[selectorBornDate],
		BornLocation: fields[selectorBornLocation],
	}, nil
}

func missing(selector string, item int) error {
	return fmt.Errorf("%w: quote %d has no %s element", helper.ErrParse, item, selector)
}
