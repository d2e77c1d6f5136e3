package models

import (
	"time"

	"github.com/google/uuid"
)

// CrawlResult is the ordered sequence of records emitted during one crawl run.
type CrawlResult struct {
	Records []Record `json:"records"`
}

// Len returns the number of records.
func (r CrawlResult) Len() int {
	return len(r.Records)
}

// Keys returns the field names of the first record, or nil for an empty result.
// Writers derive their output schema from it.
func (r CrawlResult) Keys() []string {
	if len(r.Records) == 0 {
		return nil
	}
	return r.Records[0].Keys()
}

// RunStatus describes how a crawl run ended.
type RunStatus string

const (
	// RunCompleted means pagination was exhausted.
	RunCompleted RunStatus = "completed"

	// RunTruncated means the run stopped at the configured page limit.
	RunTruncated RunStatus = "truncated"

	// RunFailed means the run stopped on a fatal error. Records emitted before
	// the failure are kept.
	RunFailed RunStatus = "failed"
)

// CrawlRun is a finished crawl together with its metadata, as handed to stores.
type CrawlRun struct {
	ID         string      `json:"id"`
	Source     string      `json:"source"`
	SeedURL    string      `json:"seed_url"`
	StartedAt  time.Time   `json:"started_at"`
	FinishedAt time.Time   `json:"finished_at"`
	Pages      int         `json:"pages"`
	Status     RunStatus   `json:"status"`
	Error      string      `json:"error,omitempty"`
	Result     CrawlResult `json:"result"`
}

// NewCrawlRun starts a run record for the given source and seed.
func NewCrawlRun(source, seedURL string) *CrawlRun {
	return &CrawlRun{
		ID:        uuid.NewString(),
		Source:    source,
		SeedURL:   seedURL,
		StartedAt: time.Now(),
	}
}

// Duration returns how long the run took.
func (r *CrawlRun) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}
