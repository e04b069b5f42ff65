package app

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"vibeset.fm/catalog/internal/cli"
	"vibeset.fm/catalog/internal/dedup"
	"vibeset.fm/catalog/internal/oracle"
)

func runDedupArtists(args []string) int {
	fs := flag.NewFlagSet("dedup-artists", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	timeout := fs.Duration("timeout", 10*time.Minute, "Command timeout")
	threshold := fs.Float64("threshold", 0, "Similarity threshold (0 uses the configured default)")
	limit := fs.Int("limit", dedup.DefaultCandidateLimit, "Maximum candidates fetched per run")
	batchSize := fs.Int("batch-size", 0, "Groups per alias commit (0 uses the configured default)")
	maxOracleCalls := fs.Int("max-oracle-calls", 0, "Oracle call budget per run (0 uses the configured default)")
	oracleEndpoint := fs.String("oracle", "", "Oracle endpoint override (empty uses the configured endpoint)")
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
		fmt.Fprintln(os.Stderr, "dedup-artists does not accept positional arguments")
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

	opts := dedup.ArtistOptions{
		Threshold:      *threshold,
		Limit:          *limit,
		BatchSize:      *batchSize,
		MaxOracleCalls: *maxOracleCalls,
		DryRun:         *dryRun,
	}
	if opts.Threshold <= 0 {
		opts.Threshold = cfg.ArtistSimilarityThreshold
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = cfg.AliasBatchSize
	}
	if opts.MaxOracleCalls <= 0 {
		opts.MaxOracleCalls = cfg.OracleMaxCalls
	}

	endpoint := strings.TrimSpace(*oracleEndpoint)
	if endpoint == "" {
		endpoint = cfg.OracleEndpoint
	}

	var verifier dedup.Oracle
	if !*noOracle {
		verifier = oracle.NewClient(oracle.Config{
			Endpoint:    endpoint,
			Model:       cfg.OracleModel,
			Temperature: cfg.OracleTemperature,
			MaxTokens:   cfg.OracleMaxTokens,
			Timeout:     cfg.OracleTimeout,
		}, logger)
	}

	service := dedup.NewService(pool, verifier, logger)
	report, err := service.DeduplicateArtists(ctx, opts)
	if err != nil {
		logger.Error().Err(err).Msg("artist deduplication failed")
		fmt.Fprintf(os.Stderr, "Artist deduplication failed: %v\n", err)
		return 1
	}

	if outputFormat == outputFormatJSON {
		if err := printJSON(report); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to encode JSON: %v\n", err)
			return 1
		}
		return 0
	}

	if err := printArtistReport(report); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to render report: %v\n", err)
		return 1
	}
	if report.WriteErrors > 0 {
		return 1
	}
	return 0
}

func printArtistReport(report *dedup.ArtistReport) error {
	rows := [][]string{
		{"candidates_fetched", fmt.Sprintf("%d", report.CandidatesFetched)},
		{"groups_found", fmt.Sprintf("%d", report.GroupsFound)},
		{"groups_accepted", fmt.Sprintf("%d", report.GroupsAccepted)},
		{"groups_dropped", fmt.Sprintf("%d", report.GroupsDropped)},
		{"duplicates_found", fmt.Sprintf("%d", report.DuplicatesFound)},
		{"oracle_calls", fmt.Sprintf("%d", report.OracleCalls)},
		{"oracle_verified", fmt.Sprintf("%d", report.OracleVerified)},
		{"oracle_rejected", fmt.Sprintf("%d", report.OracleRejected)},
		{"fallback_accepted", fmt.Sprintf("%d", report.FallbackAccepted)},
		{"aliases_added", fmt.Sprintf("%d", report.AliasesAdded)},
		{"write_errors", fmt.Sprintf("%d", report.WriteErrors)},
		{"dry_run", fmt.Sprintf("%t", report.DryRun)},
	}
	if err := writeTable([]string{"metric", "value"}, rows); err != nil {
		return err
	}

	if !report.DryRun || len(report.Groups) == 0 {
		return nil
	}

	fmt.Println()
	groupRows := make([][]string, 0, len(report.Groups))
	for _, group := range report.Groups {
		for _, dup := range group.Duplicates {
			groupRows = append(groupRows, []string{
				fmt.Sprintf("%d", group.Canonical.ID),
				group.Canonical.Name,
				fmt.Sprintf("%d", dup.Artist.ID),
				dup.Artist.Name,
				string(dup.MatchType),
				fmt.Sprintf("%.3f", dup.Confidence),
				fmt.Sprintf("%t", group.Accepted),
				group.VerifiedBy,
			})
		}
	}
	return writeTable([]string{"canonical_id", "canonical_name", "duplicate_id", "duplicate_name", "match_type", "confidence", "accepted", "verified_by"}, groupRows)
}
