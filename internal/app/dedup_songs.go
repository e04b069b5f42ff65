package app

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"vibeset.fm/catalog/internal/cli"
	"vibeset.fm/catalog/internal/dedup"
)

func runDedupSongs(args []string) int {
	fs := flag.NewFlagSet("dedup-songs", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	timeout := fs.Duration("timeout", 5*time.Minute, "Command timeout")
	threshold := fs.Float64("threshold", 0, "Similarity threshold (0 uses the configured default)")
	limit := fs.Int("limit", dedup.DefaultCandidateLimit, "Maximum candidates fetched per run")
	batchSize := fs.Int("batch-size", 0, "Groups per alias commit (0 uses the configured default)")
	dryRun := fs.Bool("dry-run", false, "Report groups without writing aliases")
	format := fs.String("format", outputFormatTable, "Output format: table or json")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "dedup-songs does not accept positional arguments")
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

	opts := dedup.SongOptions{
		Threshold: *threshold,
		Limit:     *limit,
		BatchSize: *batchSize,
		DryRun:    *dryRun,
	}
	if opts.Threshold <= 0 {
		opts.Threshold = cfg.SongSimilarityThreshold
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = cfg.AliasBatchSize
	}

	service := dedup.NewService(pool, nil, logger)
	report, err := service.DeduplicateSongs(ctx, opts)
	if err != nil {
		logger.Error().Err(err).Msg("song deduplication failed")
		fmt.Fprintf(os.Stderr, "Song deduplication failed: %v\n", err)
		return 1
	}

	if outputFormat == outputFormatJSON {
		if err := printJSON(report); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to encode JSON: %v\n", err)
			return 1
		}
		return 0
	}

	if err := printSongReport(report); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to render report: %v\n", err)
		return 1
	}
	if report.WriteErrors > 0 {
		return 1
	}
	return 0
}

func printSongReport(report *dedup.SongReport) error {
	rows := [][]string{
		{"candidates_fetched", fmt.Sprintf("%d", report.CandidatesFetched)},
		{"groups_found", fmt.Sprintf("%d", report.GroupsFound)},
		{"duplicates_found", fmt.Sprintf("%d", report.DuplicatesFound)},
		{"exact_matches", fmt.Sprintf("%d", report.Matches.Exact)},
		{"cleaned_matches", fmt.Sprintf("%d", report.Matches.Cleaned)},
		{"similarity_matches", fmt.Sprintf("%d", report.Matches.Similarity)},
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
				group.Canonical.Title,
				fmt.Sprintf("%d", dup.Song.ID),
				dup.Song.Title,
				string(dup.MatchType),
				fmt.Sprintf("%.3f", dup.Score),
			})
		}
	}
	return writeTable([]string{"canonical_id", "canonical_title", "duplicate_id", "duplicate_title", "match_type", "score"}, groupRows)
}
