package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/bradykim7/bookscraper/pkg/config"
	"github.com/bradykim7/bookscraper/pkg/logger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// NewRootCmd creates the bookscraper command. It takes no flags and no
// arguments; everything is configured through the environment or .env.
func NewRootCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "bookscraper",
		Short: "Crawl a paginated catalog and save every listing as CSV",
		Long: `bookscraper starts at SEED_URL, reads every catalog entry on the page,
follows the "next" link until there is none and writes all records to
OUTPUT_FILE (books_data.csv by default).

Records can also be saved to SQLite (SQLITE_PATH) and MongoDB (MONGODB_URI),
and a summary can be posted to Discord (DISCORD_TOKEN, DISCORD_CHANNEL_ID).`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runRootCmd,
	}
}

func runRootCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	log, err := logger.New(logger.Options{
		Name:        "bookscraper",
		Level:       cfg.LogLevel,
		Dir:         cfg.LogDir,
		Development: cfg.IsDevelopment,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if _, err := run(ctx, cfg, log); err != nil {
		log.Error("Run finished with errors", zap.Error(err))
		return err
	}
	return nil
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
