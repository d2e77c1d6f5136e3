package crawler

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/bradykim7/bookscraper/internal/models"
	"github.com/bradykim7/bookscraper/internal/monitoring"
	"go.uber.org/zap"
)

// PageFetcher retrieves one page per call.
type PageFetcher interface {
	Fetch(ctx context.Context, url string) (*Page, error)
}

// Sink receives every record in emission order.
type Sink interface {
	Accept(record models.Record) error
}

// State is the crawl driver's state.
type State int

const (
	// StateFetching means a URL is pending.
	StateFetching State = iota
	// StateDone means no URL is pending; the run is over.
	StateDone
)

func (s State) String() string {
	switch s {
	case StateFetching:
		return "fetching"
	case StateDone:
		return "done"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Summary describes a finished run. It is returned on failure too.
type Summary struct {
	Pages     int           `json:"pages"`
	Records   int           `json:"records"`
	State     State         `json:"state"`
	Truncated bool          `json:"truncated"`
	LastURL   string        `json:"last_url"`
	Duration  time.Duration `json:"duration"`
}

// Stats is a point-in-time view of the crawler, safe to read while it runs.
type Stats struct {
	State          State     `json:"state"`
	PagesFetched   int       `json:"pages_fetched"`
	RecordsEmitted int       `json:"records_emitted"`
	CurrentURL     string    `json:"current_url"`
	LastError      string    `json:"last_error,omitempty"`
	StartedAt      time.Time `json:"started_at"`
}

// Crawler drives fetch, extract and paginate until the pagination runs out.
// It fetches one page at a time.
type Crawler struct {
	fetcher   PageFetcher
	extractor *Extractor
	paginator *Paginator
	log       *zap.Logger
	metrics   *monitoring.Metrics

	maxPages   int
	visitGuard bool

	stats      Stats
	statsMutex sync.RWMutex
}

// Option configures a Crawler.
type Option func(*Crawler)

// WithMaxPages stops the run cleanly after n pages. 0 means no limit.
func WithMaxPages(n int) Option {
	return func(c *Crawler) {
		c.maxPages = n
	}
}

// WithVisitGuard makes the run fail with ErrPaginationCycle when a next link
// points at a page already visited in this run.
func WithVisitGuard(enabled bool) Option {
	return func(c *Crawler) {
		c.visitGuard = enabled
	}
}

// WithMetrics attaches Prometheus metrics.
func WithMetrics(m *monitoring.Metrics) Option {
	return func(c *Crawler) {
		c.metrics = m
	}
}

// New creates a crawler reading pages with the given profile.
func New(fetcher PageFetcher, profile *Profile, log *zap.Logger, opts ...Option) (*Crawler, error) {
	if fetcher == nil {
		return nil, errors.New("fetcher is required")
	}
	extractor, err := NewExtractor(profile)
	if err != nil {
		return nil, fmt.Errorf("failed to create extractor: %w", err)
	}
	paginator, err := NewPaginator(profile)
	if err != nil {
		return nil, fmt.Errorf("failed to create paginator: %w", err)
	}
	if log == nil {
		log = zap.NewNop()
	}

	c := &Crawler{
		fetcher:   fetcher,
		extractor: extractor,
		paginator: paginator,
		log:       log.Named("crawler"),
		stats:     Stats{State: StateDone},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Run crawls from seedURL, handing each record to sink as soon as it is
// extracted. The first fetch, parse or sink error ends the run; records the
// sink already accepted stay accepted.
func (c *Crawler) Run(ctx context.Context, seedURL string, sink Sink) (Summary, error) {
	if sink == nil {
		return Summary{State: StateDone}, errors.New("sink is required")
	}

	startTime := time.Now()
	summary := Summary{State: StateFetching}
	pending := seedURL

	var visited map[string]bool
	if c.visitGuard {
		visited = make(map[string]bool)
	}

	c.statsMutex.Lock()
	c.stats = Stats{State: StateFetching, CurrentURL: seedURL, StartedAt: startTime}
	c.statsMutex.Unlock()

	c.log.Info("Starting crawl", zap.String("seed", seedURL))

	finish := func(err error) (Summary, error) {
		summary.State = StateDone
		summary.Duration = time.Since(startTime)

		c.statsMutex.Lock()
		c.stats.State = StateDone
		if err != nil {
			c.stats.LastError = err.Error()
		}
		c.statsMutex.Unlock()

		if err != nil {
			c.log.Error("Crawl failed",
				zap.Error(err),
				zap.Int("pages", summary.Pages),
				zap.Int("records", summary.Records))
			return summary, err
		}
		c.log.Info("Crawl completed",
			zap.Int("pages", summary.Pages),
			zap.Int("records", summary.Records),
			zap.Bool("truncated", summary.Truncated),
			zap.Duration("duration", summary.Duration))
		return summary, nil
	}

	for pending != "" {
		if err := ctx.Err(); err != nil {
			return finish(err)
		}
		if c.maxPages > 0 && summary.Pages >= c.maxPages {
			c.log.Info("Page limit reached", zap.Int("max_pages", c.maxPages), zap.String("next", pending))
			summary.Truncated = true
			break
		}
		if visited != nil {
			if visited[normalizeURL(pending)] {
				c.metrics.IncErrors("cycle")
				return finish(fmt.Errorf("%w: %s", ErrPaginationCycle, pending))
			}
			visited[normalizeURL(pending)] = true
		}

		c.setCurrentURL(pending)

		page, err := c.fetcher.Fetch(ctx, pending)
		if err != nil {
			c.metrics.IncErrors(errorType(err))
			return finish(err)
		}
		summary.Pages++
		summary.LastURL = page.URL.String()
		if visited != nil {
			visited[normalizeURL(summary.LastURL)] = true
		}

		found := 0
		for record := range c.extractor.Records(page) {
			if err := sink.Accept(record); err != nil {
				c.metrics.IncErrors("sink")
				return finish(fmt.Errorf("sink rejected record from %s: %w", summary.LastURL, err))
			}
			found++
			summary.Records++
			c.metrics.IncRecords()
		}

		next, ok, err := c.paginator.NextLink(page)
		if err != nil {
			c.metrics.IncErrors(errorType(err))
			return finish(err)
		}

		c.statsMutex.Lock()
		c.stats.PagesFetched = summary.Pages
		c.stats.RecordsEmitted = summary.Records
		c.statsMutex.Unlock()

		c.log.Info("Crawled page",
			zap.String("url", summary.LastURL),
			zap.Int("records", found),
			zap.String("next", next))

		if !ok {
			pending = ""
			continue
		}
		pending = next
	}

	return finish(nil)
}

// Stats returns a copy of the current crawl statistics.
func (c *Crawler) Stats() Stats {
	c.statsMutex.RLock()
	defer c.statsMutex.RUnlock()
	return c.stats
}

func (c *Crawler) setCurrentURL(u string) {
	c.statsMutex.Lock()
	c.stats.CurrentURL = u
	c.statsMutex.Unlock()
}

// errorType maps an error to the label used in the errors metric.
func errorType(err error) string {
	var fetchErr *FetchError
	var parseErr *ParseError
	switch {
	case errors.As(err, &parseErr):
		return "parse"
	case errors.As(err, &fetchErr):
		if errors.Is(fetchErr, ErrUnexpectedStatus) {
			return "status"
		}
		return "fetch"
	default:
		return "unknown"
	}
}

// normalizeURL drops the fragment and lowercases scheme and host so the
// visit guard treats equivalent URLs as one page.
func normalizeURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	u.Fragment = ""
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	if u.Path == "" {
		u.Path = "/"
	}
	return u.String()
}
