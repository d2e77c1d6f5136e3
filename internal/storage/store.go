package storage

import (
	"context"

	"github.com/bradykim7/bookscraper/internal/models"
)

// Store persists a finished crawl run.
type Store interface {
	// SaveRun writes the run metadata and its records.
	SaveRun(ctx context.Context, run *models.CrawlRun) error

	// Close releases the store's resources.
	Close(ctx context.Context) error
}
