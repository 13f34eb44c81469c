// Package cmd defines and implements the CLI commands for the chartfetch executable.
package cmd

import (
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/filmoteca/chartfetch/internal/chart"
	"github.com/filmoteca/chartfetch/internal/clock/system"
	"github.com/filmoteca/chartfetch/internal/config"
	"github.com/filmoteca/chartfetch/internal/export"
	"github.com/filmoteca/chartfetch/internal/extract"
	"github.com/filmoteca/chartfetch/internal/fetch"
	collyfetcher "github.com/filmoteca/chartfetch/internal/fetch/colly"
	"github.com/filmoteca/chartfetch/internal/hash/sha256"
	"github.com/filmoteca/chartfetch/internal/id/uuid"
	"github.com/filmoteca/chartfetch/internal/logging"
	"github.com/filmoteca/chartfetch/internal/metrics"
	"github.com/filmoteca/chartfetch/internal/policy/ratelimit"
)

type fetchOptions struct {
	limit     int
	sort      string
	direction string
	jsonPath  string
	overwrite bool
	quiet     bool
}

// newFetchCmd creates and configures the 'fetch' subcommand, a one-shot run
// of the extraction pipeline.
func newFetchCmd() *cobra.Command {
	var opts fetchOptions
	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Fetches the Top 250 chart once and prints it",
		Long: `Fetches the IMDb Top 250 chart, merges the canonical ranks with the page's
structured data, and renders the movie list as a table. With --json the
list is written to a file instead.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runFetchCommand(cmd, opts)
		},
	}
	cmd.Flags().IntVar(&opts.limit, "limit", chart.DefaultLimit, "number of entries to keep (1-250)")
	cmd.Flags().StringVar(&opts.sort, "sort", string(chart.SortRanking), "chart sort key")
	cmd.Flags().StringVar(&opts.direction, "direction", string(chart.DirectionDesc), "sort direction (asc or desc)")
	cmd.Flags().StringVar(&opts.jsonPath, "json", "", "write the movie list to this file (bare names land in export.output_dir)")
	cmd.Flags().BoolVar(&opts.overwrite, "overwrite", false, "replace the --json target if it exists")
	cmd.Flags().BoolVar(&opts.quiet, "quiet", false, "suppress log output")
	return cmd
}

func runFetchCommand(cmd *cobra.Command, opts fetchOptions) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := zap.NewNop()
	if !opts.quiet {
		logger, err = logging.New(cfg.Logging.Development)
		if err != nil {
			return fmt.Errorf("logger setup failed: %w", err)
		}
		defer func() { _ = logger.Sync() }()
	}

	service, err := buildFetchService(cfg, logger)
	if err != nil {
		return err
	}

	// Flags feed the same normalizer the HTTP handlers use, so out-of-range
	// values fall back instead of failing.
	filters := chart.NormalizeFilters(strconv.Itoa(opts.limit), opts.sort, opts.direction)
	result, err := service.Extract(cmd.Context(), filters)
	if err != nil {
		return fmt.Errorf("extract chart: %w", err)
	}

	out := cmd.OutOrStdout()
	if opts.jsonPath != "" {
		target := resolveExportPath(cfg.Export.OutputDir, opts.jsonPath)
		if err := export.WriteFile(target, result.Movies, opts.overwrite); err != nil {
			return err
		}
		fmt.Fprintf(out, "wrote %d movies to %s\n", result.Count, target)
		return nil
	}

	if result.Count == 0 {
		fmt.Fprintln(out, "No chart entries extracted")
		return nil
	}
	fmt.Fprint(out, renderMovieTable(result.Movies))
	fmt.Fprintf(out, "\nTotal: %d movies (HTTP %d)\n", result.Count, result.Diagnostics.HTTPStatus)
	return nil
}

// resolveExportPath places bare file names inside the configured export
// directory. Paths that already carry a directory stay untouched.
func resolveExportPath(outputDir, path string) string {
	if filepath.Base(path) != path {
		return path
	}
	return filepath.Join(outputDir, path)
}

// buildFetchService wires the one-shot pipeline. The CLI always uses the
// static fetcher; headless rendering stays a chartd concern.
func buildFetchService(cfg config.Config, logger *zap.Logger) (*chart.Service, error) {
	metrics.Init()

	scanner, err := extract.ForStrategy(cfg.Parser.Strategy)
	if err != nil {
		return nil, fmt.Errorf("parser init failed: %w", err)
	}

	fetcher := collyfetcher.New(collyfetcher.Config{
		UserAgent:     cfg.Fetch.UserAgent,
		RespectRobots: cfg.Fetch.RespectRobots,
		Timeout:       cfg.FetchTimeout(),
	})

	var limiter *ratelimit.Limiter
	if cfg.RateLimit.Enabled {
		limiter = ratelimit.New(ratelimit.Config{
			RPS:   cfg.RateLimit.RPS,
			Burst: cfg.RateLimit.Burst,
		})
	}

	client := fetch.NewClient(fetcher, limiter, fetch.Config{
		UserAgent:    cfg.Fetch.UserAgent,
		MinBodyBytes: cfg.Fetch.MinHTMLBytes,
	}, logger.Named("fetch"))

	return chart.NewService(
		client,
		scanner,
		nil,
		system.New(),
		uuid.New(),
		sha256.New(),
		logger.Named("chart"),
	), nil
}
