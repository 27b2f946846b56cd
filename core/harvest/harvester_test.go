package harvest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/jarcoal/httpmock"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/siherrmann/quoter/helper"
	"github.com/siherrmann/quoter/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testBaseURL = "http://quotes.test"

type fixtureQuote struct {
	text   string
	author string
	slug   string
}

func listingPage(quotes ...fixtureQuote) string {
	var b strings.Builder
	b.WriteString(`<html><body><div class="container"><div class="col-md-8">`)
	for _, q := range quotes {
		fmt.Fprintf(&b, `
<div class="quote" itemscope itemtype="http://schema.org/CreativeWork">
	<span class="text" itemprop="text">%s</span>
	<span>by <small class="author" itemprop="author">%s</small>
	<a href="/author/%s">(about)</a>
	</span>
	<div class="tags">Tags: <a class="tag" href="/tag/life/page/1/">life</a></div>
</div>`, q.text, q.author, q.slug)
	}
	if len(quotes) == 0 {
		b.WriteString(`No quotes found!`)
	}
	b.WriteString(`</div></div></body></html>`)
	return b.String()
}

func authorPage(bio, date, location string) string {
	return fmt.Sprintf(`<html><body><div class="author-details">
	<h3 class="author-title">Someone</h3>
	<p><strong>Born:</strong> <span class="author-born-date">%s</span> <span class="author-born-location">%s</span></p>
	<div class="author-description">
	%s
	</div>
</div></body></html>`, date, location, bio)
}

func newTestHarvester(t *testing.T, transport *httpmock.MockTransport, config Config, opts ...Option) *Harvester {
	t.Helper()
	if config.BaseURL == "" {
		config.BaseURL = testBaseURL
	}
	logger := slog.New(helper.NewPrettyHandler(io.Discard, helper.PrettyHandlerOptions{}))
	h, err := NewHarvester(config, logger, append([]Option{WithTransport(transport)}, opts...)...)
	require.NoError(t, err)
	return h
}

func registerPage(transport *httpmock.MockTransport, page int, body string) {
	transport.RegisterResponder("GET", fmt.Sprintf("%s/page/%d/", testBaseURL, page), httpmock.NewStringResponder(http.StatusOK, body))
}

func registerAuthor(transport *httpmock.MockTransport, slug string, body string) {
	transport.RegisterResponder("GET", fmt.Sprintf("%s/author/%s", testBaseURL, slug), httpmock.NewStringResponder(http.StatusOK, body))
}

var (
	einstein  = fixtureQuote{"“The world as we have created it is a process of our thinking.”", "Albert Einstein", "Albert-Einstein"}
	austen    = fixtureQuote{"“The person, be it gentleman or lady, who has not pleasure in a good novel, must be intolerably stupid.”", "Jane Austen", "Jane-Austen"}
	twain     = fixtureQuote{"“Good friends, good books, and a sleepy conscience: this is the ideal life.”", "Mark Twain", "Mark-Twain"}
	einstein2 = fixtureQuote{"“Try not to become a man of success. Rather become a man of value.”", "Albert Einstein", "Albert-Einstein"}
)

func registerAuthors(transport *httpmock.MockTransport) {
	registerAuthor(transport, "Albert-Einstein", authorPage("  In 1879, Albert Einstein was born in Ulm.  ", "March 14, 1879", "in Ulm, Germany"))
	registerAuthor(transport, "Jane-Austen", authorPage("B", "December 16, 1775", "in Steventon Rectory, Hampshire, The United Kingdom"))
	registerAuthor(transport, "Mark-Twain", authorPage("Samuel Langhorne Clemens.", "November 30, 1835", "in Florida, Missouri, The United States"))
}

func TestHarvestPagination(t *testing.T) {
	t.Run("Three pages then an empty page", func(t *testing.T) {
		transport := httpmock.NewMockTransport()
		registerPage(transport, 1, listingPage(einstein, austen))
		registerPage(transport, 2, listingPage(twain))
		registerPage(transport, 3, listingPage(einstein2))
		registerPage(transport, 4, listingPage())
		registerAuthors(transport)

		h := newTestHarvester(t, transport, Config{})
		result, err := h.Harvest(context.Background())
		require.NoError(t, err)

		want := []model.Quote{
			{Text: einstein.text, AuthorName: einstein.author},
			{Text: austen.text, AuthorName: austen.author},
			{Text: twain.text, AuthorName: twain.author},
			{Text: einstein2.text, AuthorName: einstein2.author},
		}
		if diff := cmp.Diff(want, result.Quotes); diff != "" {
			t.Errorf("quotes mismatch (-want +got):\n%s", diff)
		}

		assert.Equal(t, 3, result.Pages, "Expected three non-empty pages")
		assert.Equal(t, model.Termination{Reason: model.TerminationEmptyPage, Page: 4, Status: http.StatusOK}, result.Termination)
		assert.Len(t, result.Authors, 3)
		assert.NotEqual(t, uuid.Nil, result.RunID, "Expected a run id")
		assert.False(t, result.FinishedAt.Before(result.StartedAt))
		assert.Zero(t, transport.GetCallCountInfo()["GET "+testBaseURL+"/page/5/"], "Expected no request after the empty page")
	})

	t.Run("First page already empty", func(t *testing.T) {
		transport := httpmock.NewMockTransport()
		registerPage(transport, 1, listingPage())

		h := newTestHarvester(t, transport, Config{})
		result, err := h.Harvest(context.Background())
		require.NoError(t, err)

		assert.Empty(t, result.Quotes)
		assert.Empty(t, result.Authors)
		assert.Zero(t, result.Pages)
		assert.Equal(t, model.TerminationEmptyPage, result.Termination.Reason)
		assert.Equal(t, 1, result.Termination.Page)
	})

	t.Run("Non-success status terminates", func(t *testing.T) {
		transport := httpmock.NewMockTransport()
		registerPage(transport, 1, listingPage(twain))
		transport.RegisterResponder("GET", testBaseURL+"/page/2/", httpmock.NewStringResponder(http.StatusServiceUnavailable, "busy"))
		registerAuthors(transport)

		h := newTestHarvester(t, transport, Config{})
		result, err := h.Harvest(context.Background())
		require.NoError(t, err, "A bad status is a termination, not an error")

		assert.Len(t, result.Quotes, 1)
		assert.Equal(t, model.TerminationBadStatus, result.Termination.Reason)
		assert.Equal(t, http.StatusServiceUnavailable, result.Termination.Status)
		assert.Equal(t, 2, result.Termination.Page)
		assert.False(t, result.Termination.Reason.Clean())
	})

	t.Run("Transport failure terminates", func(t *testing.T) {
		transport := httpmock.NewMockTransport()
		registerPage(transport, 1, listingPage(twain))
		transport.RegisterResponder("GET", testBaseURL+"/page/2/", httpmock.NewErrorResponder(errors.New("connection reset by peer")))
		registerAuthors(transport)

		h := newTestHarvester(t, transport, Config{})
		result, err := h.Harvest(context.Background())
		require.NoError(t, err, "A fetch error is a termination, not an error")

		assert.Len(t, result.Quotes, 1)
		assert.Equal(t, model.TerminationFetchError, result.Termination.Reason)
		assert.Error(t, result.Termination.Err)
		assert.Contains(t, result.Termination.Err.Error(), "connection reset by peer")
	})

	t.Run("Max pages stops the walk", func(t *testing.T) {
		transport := httpmock.NewMockTransport()
		registerPage(transport, 1, listingPage(einstein))
		registerPage(transport, 2, listingPage(austen))
		registerAuthors(transport)

		h := newTestHarvester(t, transport, Config{MaxPages: 1})
		result, err := h.Harvest(context.Background())
		require.NoError(t, err)

		assert.Equal(t, 1, result.Pages)
		assert.Equal(t, model.Termination{Reason: model.TerminationMaxPages, Page: 2}, result.Termination)
		assert.Zero(t, transport.GetCallCountInfo()["GET "+testBaseURL+"/page/2/"])
	})

	t.Run("Cancelled context is an error", func(t *testing.T) {
		transport := httpmock.NewMockTransport()
		registerPage(transport, 1, listingPage(einstein))

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		h := newTestHarvester(t, transport, Config{})
		_, err := h.Harvest(ctx)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestHarvestAuthors(t *testing.T) {
	t.Run("Author page is fetched once per run", func(t *testing.T) {
		transport := httpmock.NewMockTransport()
		registerPage(transport, 1, listingPage(einstein, einstein2))
		registerPage(transport, 2, listingPage(einstein))
		registerPage(transport, 3, listingPage())
		registerAuthors(transport)

		h := newTestHarvester(t, transport, Config{})
		result, err := h.Harvest(context.Background())
		require.NoError(t, err)

		assert.Len(t, result.Quotes, 3, "Duplicate quotes are kept during harvest")
		assert.Equal(t, 1, transport.GetCallCountInfo()["GET "+testBaseURL+"/author/Albert-Einstein"])
	})

	t.Run("Bio and birth are trimmed and joined", func(t *testing.T) {
		transport := httpmock.NewMockTransport()
		registerPage(transport, 1, listingPage(einstein))
		registerPage(transport, 2, listingPage())
		registerAuthors(transport)

		h := newTestHarvester(t, transport, Config{})
		result, err := h.Harvest(context.Background())
		require.NoError(t, err)

		want := model.Author{
			Name:  "Albert Einstein",
			Bio:   "In 1879, Albert Einstein was born in Ulm.",
			Birth: "March 14, 1879 in Ulm, Germany",
		}
		if diff := cmp.Diff(want, result.Authors["Albert Einstein"]); diff != "" {
			t.Errorf("author mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("Empty fields are kept as empty strings", func(t *testing.T) {
		transport := httpmock.NewMockTransport()
		registerPage(transport, 1, listingPage(austen))
		registerPage(transport, 2, listingPage())
		registerAuthor(transport, "Jane-Austen", authorPage("", "", ""))

		h := newTestHarvester(t, transport, Config{})
		result, err := h.Harvest(context.Background())
		require.NoError(t, err)

		assert.Equal(t, "", result.Authors["Jane Austen"].Bio)
		assert.Equal(t, " ", result.Authors["Jane Austen"].Birth)
	})

	t.Run("Missing author element is a parse error", func(t *testing.T) {
		transport := httpmock.NewMockTransport()
		registerPage(transport, 1, listingPage(austen))
		registerAuthor(transport, "Jane-Austen", `<html><body><div class="author-description">B</div></body></html>`)

		h := newTestHarvester(t, transport, Config{})
		result, err := h.Harvest(context.Background())
		assert.ErrorIs(t, err, helper.ErrParse)
		assert.Nil(t, result, "No partial result on a parse error")
	})

	t.Run("Unreachable author page aborts the run", func(t *testing.T) {
		transport := httpmock.NewMockTransport()
		registerPage(transport, 1, listingPage(austen))
		transport.RegisterResponder("GET", testBaseURL+"/author/Jane-Austen", httpmock.NewStringResponder(http.StatusNotFound, ""))

		h := newTestHarvester(t, transport, Config{})
		_, err := h.Harvest(context.Background())
		assert.ErrorIs(t, err, helper.ErrSourceUnavailable)
	})

	t.Run("Listing item without author is a parse error", func(t *testing.T) {
		transport := httpmock.NewMockTransport()
		registerPage(transport, 1, `<div class="quote"><span class="text">T</span><a href="/author/x">(about)</a></div>`)

		h := newTestHarvester(t, transport, Config{})
		_, err := h.Harvest(context.Background())
		assert.ErrorIs(t, err, helper.ErrParse)
	})
}

func TestHarvestMetrics(t *testing.T) {
	transport := httpmock.NewMockTransport()
	registerPage(transport, 1, listingPage(einstein, austen))
	registerPage(transport, 2, listingPage(einstein2))
	registerPage(transport, 3, listingPage())
	registerAuthors(transport)

	registry := prometheus.NewRegistry()
	metrics, err := NewMetrics(registry)
	require.NoError(t, err)

	h := newTestHarvester(t, transport, Config{}, WithMetrics(metrics))
	_, err = h.Harvest(context.Background())
	require.NoError(t, err)

	assert.Equal(t, float64(2), testutil.ToFloat64(metrics.pagesTotal))
	assert.Equal(t, float64(3), testutil.ToFloat64(metrics.quotesTotal))
	assert.Equal(t, float64(2), testutil.ToFloat64(metrics.authorFetchesTotal))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.terminationsTotal.WithLabelValues("empty_page")))
	assert.Equal(t, float64(0), testutil.ToFloat64(metrics.terminationsTotal.WithLabelValues("fetch_error")))

	t.Run("Registering twice fails", func(t *testing.T) {
		_, err := NewMetrics(registry)
		assert.Error(t, err)
	})
}

func TestNewHarvester(t *testing.T) {
	t.Run("Relative base url is rejected", func(t *testing.T) {
		_, err := NewHarvester(Config{BaseURL: "/quotes"}, nil)
		assert.Error(t, err)
	})

	t.Run("Negative max pages is rejected", func(t *testing.T) {
		_, err := NewHarvester(Config{BaseURL: testBaseURL, MaxPages: -1}, nil)
		assert.Error(t, err)
	})

	t.Run("Config from environment", func(t *testing.T) {
		t.Setenv("QUOTER_HARVEST_BASE_URL", "http://localhost:8080")
		t.Setenv("QUOTER_HARVEST_MAX_PAGES", "3")

		config, err := NewConfigFromEnv()
		require.NoError(t, err)
		assert.Equal(t, "http://localhost:8080", config.BaseURL)
		assert.Equal(t, 3, config.MaxPages)
		assert.NotEmpty(t, config.UserAgent)
	})
}
