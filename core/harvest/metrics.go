package harvest

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/siherrmann/quoter/model"
)

// Metrics contains Prometheus metrics for harvest runs
type Metrics struct {
	pagesTotal         prometheus.Counter
	quotesTotal        prometheus.Counter
	authorFetchesTotal prometheus.Counter
	terminationsTotal  *prometheus.CounterVec
}

// NewMetrics creates the harvest metrics and registers them with registerer
func NewMetrics(registerer prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		pagesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "quoter_harvest_pages_total",
			Help: "Total number of non-empty listing pages processed",
		}),
		quotesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "quoter_harvest_quotes_total",
			Help: "Total number of quotes extracted from listing pages",
		}),
		authorFetchesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "quoter_harvest_author_fetches_total",
			Help: "Total number of author detail pages fetched",
		}),
		terminationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "quoter_harvest_terminations_total",
				Help: "Total number of finished harvest runs by termination reason",
			},
			[]string{"reason"}, // empty_page, bad_status, fetch_error, max_pages
		),
	}

	if err := registerer.Register(m); err != nil {
		return nil, err
	}
	return m, nil
}

// Describe implements prometheus.Collector
func (m *Metrics) Describe(ch chan<- *prometheus.Desc) {
	m.pagesTotal.Describe(ch)
	m.quotesTotal.Describe(ch)
	m.authorFetchesTotal.Describe(ch)
	m.terminationsTotal.Describe(ch)
}

// Collect implements prometheus.Collector
func (m *Metrics) Collect(ch chan<- prometheus.Metric) {
	m.pagesTotal.Collect(ch)
	m.quotesTotal.Collect(ch)
	m.authorFetchesTotal.Collect(ch)
	m.terminationsTotal.Collect(ch)
}

// RecordPage counts a processed listing page and its quotes.
func (m *Metrics) RecordPage(quotes int) {
	if m == nil {
		return
	}
	m.pagesTotal.Inc()
	m.quotesTotal.Add(float64(quotes))
}

// RecordAuthorFetch counts an author detail page request.
func (m *Metrics) RecordAuthorFetch() {
	if m == nil {
		return
	}
	m.authorFetchesTotal.Inc()
}

// RecordTermination counts a finished run.
func (m *Metrics) RecordTermination(reason model.TerminationReason) {
	if m == nil {
		return
	}
	m.terminationsTotal.WithLabelValues(string(reason)).Inc()
}
