package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/bradykim7/bookscraper/internal/crawler"
	"github.com/bradykim7/bookscraper/internal/crawler/sources"
	"github.com/bradykim7/bookscraper/internal/models"
	"github.com/bradykim7/bookscraper/internal/monitoring"
	"github.com/bradykim7/bookscraper/internal/notify"
	"github.com/bradykim7/bookscraper/internal/storage"
	"github.com/bradykim7/bookscraper/pkg/config"
	"go.uber.org/zap"
)

// run performs one crawl and hands the result to every configured store.
// The returned run is non-nil once crawling has started, even on error.
func run(ctx context.Context, cfg *config.Config, log *zap.Logger) (*models.CrawlRun, error) {
	src, err := resolveSource(cfg)
	if err != nil {
		return nil, err
	}

	seed := cfg.SeedURL
	if seed == "" {
		seed = src.SeedURL()
	}
	if err := config.ValidateSeedURL(seed); err != nil {
		return nil, fmt.Errorf("seed URL for source %s: %w", src.Name(), err)
	}

	stores, err := openStores(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	defer closeStores(stores, log)

	metrics := monitoring.NewMetrics()

	fetcher := crawler.NewFetcher(&http.Client{Timeout: cfg.HTTPTimeout}, log)
	if cfg.UserAgent != "" {
		fetcher.Headers["User-Agent"] = cfg.UserAgent
	}
	fetcher.MaxBodyBytes = cfg.MaxBodyBytes
	fetcher.SetMetrics(metrics)

	c, err := crawler.New(fetcher, src.Profile(), log,
		crawler.WithMaxPages(cfg.MaxPages),
		crawler.WithVisitGuard(cfg.DetectCycles),
		crawler.WithMetrics(metrics),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create crawler: %w", err)
	}

	crawlRun := models.NewCrawlRun(src.Name(), seed)
	collector := storage.NewCollector()

	summary, crawlErr := c.Run(ctx, seed, collector)

	result, err := collector.Finalize()
	if err != nil {
		return nil, err
	}

	crawlRun.FinishedAt = time.Now()
	crawlRun.Pages = summary.Pages
	crawlRun.Result = result
	switch {
	case crawlErr != nil:
		crawlRun.Status = models.RunFailed
		crawlRun.Error = crawlErr.Error()
	case summary.Truncated:
		crawlRun.Status = models.RunTruncated
	default:
		crawlRun.Status = models.RunCompleted
	}
	metrics.SetLastRunRecords(result.Len())

	// Partial results are saved even when the run was interrupted.
	saveCtx := context.WithoutCancel(ctx)
	errs := []error{crawlErr}
	for _, store := range stores {
		if err := store.SaveRun(saveCtx, crawlRun); err != nil {
			log.Error("Failed to save run", zap.String("run_id", crawlRun.ID), zap.Error(err))
			errs = append(errs, err)
		}
	}

	if cfg.MetricsTextfile != "" {
		if err := metrics.WriteTextfile(cfg.MetricsTextfile); err != nil {
			errs = append(errs, fmt.Errorf("failed to write metrics: %w", err))
		}
	}

	notifyRun(saveCtx, cfg, crawlRun, log)

	log.Info("Run finished",
		zap.String("run_id", crawlRun.ID),
		zap.String("status", string(crawlRun.Status)),
		zap.Int("pages", crawlRun.Pages),
		zap.Int("records", crawlRun.Result.Len()))

	return crawlRun, errors.Join(errs...)
}

// resolveSource picks the profile file when one is configured, otherwise the
// built-in source named by SOURCE.
func resolveSource(cfg *config.Config) (sources.Source, error) {
	if cfg.ProfileFile != "" {
		profile, err := crawler.LoadProfile(cfg.ProfileFile)
		if err != nil {
			return nil, err
		}
		return sources.FromProfile(profile), nil
	}
	return sources.Lookup(cfg.Source)
}

func openStores(ctx context.Context, cfg *config.Config, log *zap.Logger) ([]storage.Store, error) {
	stores := []storage.Store{storage.NewCSVStore(cfg.OutputFile, log)}

	if cfg.SQLitePath != "" {
		db, err := storage.OpenSQLite(ctx, cfg.SQLitePath, log)
		if err != nil {
			closeStores(stores, log)
			return nil, err
		}
		stores = append(stores, db)
	}

	if cfg.MongoDBURI != "" {
		db, err := storage.NewMongoDB(ctx, cfg.MongoDBURI, cfg.MongoDBDatabase, log)
		if err != nil {
			closeStores(stores, log)
			return nil, err
		}
		stores = append(stores, db)
	}

	return stores, nil
}

func closeStores(stores []storage.Store, log *zap.Logger) {
	for _, store := range stores {
		if err := store.Close(context.Background()); err != nil {
			log.Warn("Failed to close store", zap.Error(err))
		}
	}
}

// notifyRun posts the run summary to Discord when configured. A failed
// notification is logged and does not fail the run.
func notifyRun(ctx context.Context, cfg *config.Config, run *models.CrawlRun, log *zap.Logger) {
	if cfg.DiscordToken == "" {
		return
	}

	notifier, err := notify.NewDiscordNotifier(cfg.DiscordToken, cfg.DiscordChannelID, log)
	if err != nil {
		log.Warn("Failed to create Discord notifier", zap.Error(err))
		return
	}
	defer notifier.Close()

	if err := notifier.NotifyRun(ctx, run); err != nil {
		log.Warn("Failed to send run notification", zap.Error(err))
	}
}
