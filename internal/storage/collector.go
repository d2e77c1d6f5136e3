package storage

import (
	"errors"
	"sync"

	"github.com/bradykim7/bookscraper/internal/models"
)

// ErrFinalized is returned when a collector is used after Finalize.
var ErrFinalized = errors.New("collector already finalized")

// Collector is the in-memory result sink. It keeps records in the order they
// were accepted and hands them over once, on Finalize.
type Collector struct {
	mu        sync.Mutex
	records   []models.Record
	finalized bool
}

// NewCollector creates an empty collector.
func NewCollector() *Collector {
	return &Collector{}
}

// Accept appends one record.
func (c *Collector) Accept(record models.Record) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.finalized {
		return ErrFinalized
	}
	c.records = append(c.records, record)
	return nil
}

// Len returns the number of records accepted so far.
func (c *Collector) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.records)
}

// Finalize closes the collector and returns everything it accepted.
func (c *Collector) Finalize() (models.CrawlResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.finalized {
		return models.CrawlResult{}, ErrFinalized
	}
	c.finalized = true

	result := models.CrawlResult{Records: c.records}
	c.records = nil
	return result, nil
}
