package app

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"vibeset.fm/catalog/internal/cli"
	"vibeset.fm/catalog/internal/dedup"
	"vibeset.fm/catalog/internal/oracle"
)

// runProcess runs both pipelines in one invocation. Songs and artists write
// to separate alias tables, so the two runs can proceed concurrently.
func runProcess(args []string) int {
	fs := flag.NewFlagSet("process", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	timeout := fs.Duration("timeout", 15*time.Minute, "Command timeout")
	limit := fs.Int("limit", dedup.DefaultCandidateLimit, "Maximum candidates fetched per pipeline")
	noOracle := fs.Bool("no-oracle", false, "Skip oracle verification and rely on the fallback rules")
	dryRun := fs.Bool("dry-run", false, "Report groups without writing aliases")
	format := fs.String("format", outputFormatTable, "Output format: table or json")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "process does not accept positional arguments")
		return 2
	}

	outputFormat, err := parseOutputFormat(*format, outputFormatTable)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid format: %v\n", err)
		return 2
	}

	ctx, cancel, cfg, logger, pool, err := connectPool(*timeout, envLoader)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer cancel()
	defer pool.Close()

	var verifier dedup.Oracle
	if !*noOracle {
		verifier = oracle.NewClient(oracle.Config{
			Endpoint:    cfg.OracleEndpoint,
			Model:       cfg.OracleModel,
			Temperature: cfg.OracleTemperature,
			MaxTokens:   cfg.OracleMaxTokens,
			Timeout:     cfg.OracleTimeout,
		}, logger)
	}

	service := dedup.NewService(pool, verifier, logger)

	var (
		songReport   *dedup.SongReport
		artistReport *dedup.ArtistReport
	)

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		report, songErr := service.DeduplicateSongs(groupCtx, dedup.SongOptions{
			Threshold: cfg.SongSimilarityThreshold,
			Limit:     *limit,
			BatchSize: cfg.AliasBatchSize,
			DryRun:    *dryRun,
		})
		if songErr != nil {
			return fmt.Errorf("song pipeline: %w", songErr)
		}
		songReport = report
		return nil
	})
	group.Go(func() error {
		report, artistErr := service.DeduplicateArtists(groupCtx, dedup.ArtistOptions{
			Threshold:      cfg.ArtistSimilarityThreshold,
			Limit:          *limit,
			BatchSize:      cfg.AliasBatchSize,
			MaxOracleCalls: cfg.OracleMaxCalls,
			DryRun:         *dryRun,
		})
		if artistErr != nil {
			return fmt.Errorf("artist pipeline: %w", artistErr)
		}
		artistReport = report
		return nil
	})

	if err := group.Wait(); err != nil {
		logger.Error().Err(err).Msg("process run failed")
		fmt.Fprintf(os.Stderr, "Process run failed: %v\n", err)
		return 1
	}

	if outputFormat == outputFormatJSON {
		if err := printJSON(map[string]any{
			"songs":   songReport,
			"artists": artistReport,
		}); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to encode JSON: %v\n", err)
			return 1
		}
		return 0
	}

	fmt.Println("songs:")
	if err := printSongReport(songReport); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to render song report: %v\n", err)
		return 1
	}
	fmt.Println()
	fmt.Println("artists:")
	if err := printArtistReport(artistReport); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to render artist report: %v\n", err)
		return 1
	}

	if songReport.WriteErrors > 0 || artistReport.WriteErrors > 0 {
		return 1
	}
	return 0
}
