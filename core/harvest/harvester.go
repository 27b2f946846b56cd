package harvest

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"github.com/siherrmann/quoter/helper"
	"github.com/siherrmann/quoter/model"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("core/harvest")

const pagePath = "/page/%d/"

// Harvester walks the paginated quote listing and collects quotes and their authors.
// There are no retries and no rate limiting; runs are expected to be serial.
type Harvester struct {
	config    Config
	baseURL   *url.URL
	http      *resty.Client
	extractor Extractor
	metrics   *Metrics
	log       *slog.Logger
}

// Option configures a Harvester.
type Option func(*Harvester)

// WithTransport replaces the http transport, used to point the harvester at a fake source.
func WithTransport(transport http.RoundTripper) Option {
	return func(h *Harvester) {
		h.http.SetTransport(transport)
	}
}

// WithExtractor replaces the default QuotesToScrapeExtractor.
func WithExtractor(extractor Extractor) Option {
	return func(h *Harvester) {
		h.extractor = extractor
	}
}

// WithMetrics records run metrics.
func WithMetrics(metrics *Metrics) Option {
	return func(h *Harvester) {
		h.metrics = metrics
	}
}

// NewHarvester creates a harvester for the source at config.BaseURL.
func NewHarvester(config Config, logger *slog.Logger, opts ...Option) (*Harvester, error) {
	baseURL, err := config.parse()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = helper.NewLogger(slog.LevelInfo)
	}

	httpClient := resty.New()
	httpClient.SetBaseURL(baseURL.String())
	if config.UserAgent != "" {
		httpClient.SetHeader("User-Agent", config.UserAgent)
	}
	httpClient.OnAfterResponse(func(_ *resty.Client, res *resty.Response) error {
		logger.Debug("Fetched",
			slog.String("url", res.Request.URL),
			slog.Int("status", res.StatusCode()),
			slog.Duration("duration", res.Time()),
		)
		return nil
	})

	h := &Harvester{
		config:    config,
		baseURL:   baseURL,
		http:      httpClient,
		extractor: QuotesToScrapeExtractor{},
		log:       logger,
	}
	for _, opt := range opts {
		opt(h)
	}

	return h, nil
}

// Harvest fetches listing pages starting at page 1 until a page has no quotes,
// answers with a non-success status, cannot be fetched or the page limit is hit.
// All of these end the run normally; result.Termination tells them apart.
//
// Each distinct author's detail page is fetched once per run. An author page
// that cannot be fetched or lacks the expected elements aborts the run with
// helper.ErrSourceUnavailable or helper.ErrParse and no result.
func (h *Harvester) Harvest(ctx context.Context) (*model.HarvestResult, error) {
	result := model.NewHarvestResult()
	log := h.log.With(slog.String("run_id", result.RunID.String()))

	ctx, span := tracer.Start(ctx, "Harvest")
	defer span.End()
	span.SetAttributes(attribute.String("run_id", result.RunID.String()))

	log.Info("Harvest started", slog.String("source", h.baseURL.String()))

	for page := 1; ; page++ {
		if h.config.MaxPages > 0 && page > h.config.MaxPages {
			result.Termination = model.Termination{Reason: model.TerminationMaxPages, Page: page}
			break
		}

		items, termination, err := h.fetchPage(ctx, page)
		if err != nil {
			return nil, fail(span, err)
		}
		if termination != nil {
			result.Termination = *termination
			break
		}

		for _, item := range items {
			if _, seen := result.Authors[item.Author]; !seen {
				author, err := h.fetchAuthor(ctx, item)
				if err != nil {
					return nil, fail(span, err)
				}
				result.Authors[item.Author] = author
			}
			result.Quotes = append(result.Quotes, model.Quote{
				Text:       item.Text,
				AuthorName: item.Author,
			})
		}

		result.Pages++
		h.metrics.RecordPage(len(items))
		log.Debug("Harvested page", slog.Int("page", page), slog.Int("quotes", len(items)))
	}

	result.FinishedAt = time.Now()
	h.metrics.RecordTermination(result.Termination.Reason)
	span.SetAttributes(
		attribute.String("termination", string(result.Termination.Reason)),
		attribute.Int("pages", result.Pages),
		attribute.Int("quotes", len(result.Quotes)),
	)

	attrs := []any{
		slog.String("reason", string(result.Termination.Reason)),
		slog.Int("page", result.Termination.Page),
		slog.Int("pages", result.Pages),
		slog.Int("quotes", len(result.Quotes)),
		slog.Int("authors", len(result.Authors)),
	}
	if result.Termination.Status != 0 {
		attrs = append(attrs, slog.Int("status", result.Termination.Status))
	}
	if result.Termination.Err != nil {
		attrs = append(attrs, slog.Any("error", result.Termination.Err))
	}
	if result.Termination.Reason.Clean() {
		log.Info("Harvest finished", attrs...)
	} else {
		log.Warn("Harvest finished early, the source may be temporarily unavailable", attrs...)
	}

	return result, nil
}

// fetchPage returns the items of one listing page, or the termination it caused.
func (h *Harvester) fetchPage(ctx context.Context, page int) ([]ListingItem, *model.Termination, error) {
	ctx, span := tracer.Start(ctx, "FetchPage")
	defer span.End()
	span.SetAttributes(attribute.Int("page", page))

	res, err := h.http.R().
		SetContext(ctx).
		Get(fmt.Sprintf(pagePath, page))
	if err != nil {
		if ctx.Err() != nil {
			return nil, nil, helper.NewError(fmt.Sprintf("fetch page %d", page), ctx.Err())
		}
		span.RecordError(err)
		return nil, &model.Termination{Reason: model.TerminationFetchError, Page: page, Err: err}, nil
	}
	span.SetAttributes(attribute.Int("status", res.StatusCode()))
	if !res.IsSuccess() {
		return nil, &model.Termination{Reason: model.TerminationBadStatus, Page: page, Status: res.StatusCode()}, nil
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewBuffer(res.Body()))
	if err != nil {
		return nil, nil, helper.NewError(fmt.Sprintf("parse page %d", page), fmt.Errorf("%w: %w", helper.ErrParse, err))
	}

	items, err := h.extractor.Items(doc)
	if err != nil {
		return nil, nil, helper.NewError(fmt.Sprintf("extract page %d", page), err)
	}
	if len(items) == 0 {
		return nil, &model.Termination{Reason: model.TerminationEmptyPage, Page: page, Status: res.StatusCode()}, nil
	}

	return items, nil, nil
}

// fetchAuthor loads the detail page linked from item.
func (h *Harvester) fetchAuthor(ctx context.Context, item ListingItem) (model.Author, error) {
	ctx, span := tracer.Start(ctx, "FetchAuthor")
	defer span.End()
	span.SetAttributes(attribute.String("author", item.Author))

	step := fmt.Sprintf("fetch author %q", item.Author)

	ref, err := url.Parse(item.Href)
	if err != nil {
		return model.Author{}, helper.NewError(step, fmt.Errorf("%w: invalid author link %q: %w", helper.ErrParse, item.Href, err))
	}

	h.metrics.RecordAuthorFetch()
	res, err := h.http.R().
		SetContext(ctx).
		Get(h.baseURL.ResolveReference(ref).String())
	if err != nil {
		if ctx.Err() != nil {
			return model.Author{}, helper.NewError(step, ctx.Err())
		}
		return model.Author{}, helper.NewError(step, fmt.Errorf("%w: %w", helper.ErrSourceUnavailable, err))
	}
	if !res.IsSuccess() {
		return model.Author{}, helper.NewError(step, fmt.Errorf("%w: status %d", helper.ErrSourceUnavailable, res.StatusCode()))
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewBuffer(res.Body()))
	if err != nil {
		return model.Author{}, helper.NewError(step, fmt.Errorf("%w: %w", helper.ErrParse, err))
	}

	page, err := h.extractor.Author(doc)
	if err != nil {
		return model.Author{}, helper.NewError(step, err)
	}

	return model.Author{
		Name:  item.Author,
		Bio:   page.Bio,
		Birth: page.Birth(),
	}, nil
}

func fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}
