package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/CatGallery/internal/infra/catapi"
	"github.com/CatGallery/pkg/config"
	"github.com/CatGallery/pkg/logging"
	"github.com/spf13/cobra"
)

var version = "dev"

// globalFlags override the loaded configuration when set.
type globalFlags struct {
	baseURL  string
	pageSize int
	order    string
	logFile  string
	verbose  bool
}

func main() {
	flags := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:   "catgallery",
		Short: "Browse cat pictures from The Cat API",
		Long: `catgallery pages through random cat pictures from The Cat API.

Without a subcommand it opens the interactive browser. Configuration comes
from catgallery.yaml, CATGALLERY_CONFIG and CAT_API_* environment variables;
flags take precedence.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBrowse(cmd, flags)
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flags.baseURL, "base-url", "", "Cat API base URL (overrides CAT_API_BASE_URL)")
	pf.IntVar(&flags.pageSize, "page-size", 0, "Images per page (overrides CAT_API_PAGE_SIZE)")
	pf.StringVar(&flags.order, "order", "", "Result order: RAND, ASC or DESC")
	pf.StringVar(&flags.logFile, "log-file", "", "Write logs to this file")
	pf.BoolVarP(&flags.verbose, "verbose", "v", false, "Log at debug level")

	rootCmd.AddCommand(
		newBrowseCommand(flags),
		newFetchCommand(flags),
		newWatchCommand(flags),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig applies flag overrides on top of config.Load.
func loadConfig(cmd *cobra.Command, flags *globalFlags) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if cmd.Flags().Changed("base-url") {
		cfg.CatAPI.BaseURL = flags.baseURL
	}
	if cmd.Flags().Changed("page-size") {
		cfg.CatAPI.PageSize = flags.pageSize
	}
	if cmd.Flags().Changed("order") {
		cfg.CatAPI.Order = flags.order
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid flags: %w", err)
	}
	return cfg, nil
}

// setupLogging installs a text logger. Interactive commands log only to
// --log-file so the terminal stays clean.
func setupLogging(flags *globalFlags, interactive bool) (func(), error) {
	level := slog.LevelWarn
	if flags.verbose {
		level = slog.LevelDebug
	}

	var w io.Writer = os.Stderr
	closeFn := func() {}
	switch {
	case flags.logFile != "":
		f, err := os.OpenFile(flags.logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		w = f
		closeFn = func() { _ = f.Close() }
	case interactive:
		w = io.Discard
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})))
	return closeFn, nil
}

func newGateway(cfg *config.Config) (*catapi.Gateway, error) {
	client, err := catapi.NewClient(catapi.Options{
		BaseURL:     cfg.CatAPI.BaseURL,
		Order:       cfg.CatAPI.Order,
		Timeout:     cfg.CatAPI.Timeout,
		MaxFailures: cfg.Breaker.MaxFailures,
		OpenTimeout: cfg.Breaker.OpenTimeout,
	})
	if err != nil {
		return nil, err
	}
	return catapi.NewGateway(client, logging.NewErrorSampler(cfg.ErrorLogInterval, slog.Default())), nil
}
