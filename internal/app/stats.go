package app

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"vibeset.fm/catalog/internal/cli"
)

func runStats(args []string) int {
	fs := flag.NewFlagSet("stats", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	timeout := fs.Duration("timeout", 30*time.Second, "Command timeout")
	format := fs.String("format", outputFormatTable, "Output format: table or json")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "stats does not accept positional arguments")
		return 2
	}

	outputFormat, err := parseOutputFormat(*format, outputFormatTable)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid format: %v\n", err)
		return 2
	}

	ctx, cancel, _, _, pool, err := connectPool(*timeout, envLoader)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer cancel()
	defer pool.Close()

	catalog, err := pool.QueryCatalogStats(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to query catalog stats: %v\n", err)
		return 1
	}
	dedupStats, err := pool.QueryDedupStats(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to query deduplication stats: %v\n", err)
		return 1
	}
	health, err := pool.QueryHealthScore(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to query health score: %v\n", err)
		return 1
	}

	if outputFormat == outputFormatJSON {
		if err := printJSON(map[string]any{
			"catalog":       catalog,
			"deduplication": dedupStats,
			"health":        health,
		}); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to encode JSON: %v\n", err)
			return 1
		}
		return 0
	}

	rows := [][]string{
		{"songs", fmt.Sprintf("%d", catalog.Songs)},
		{"artists", fmt.Sprintf("%d", catalog.Artists)},
		{"song_artist_relations", fmt.Sprintf("%d", catalog.SongArtistRelations)},
		{"primary_artists", fmt.Sprintf("%d", catalog.PrimaryArtists)},
		{"featured_artists", fmt.Sprintf("%d", catalog.FeaturedArtists)},
		{"song_aliases", fmt.Sprintf("%d", catalog.SongAliases)},
		{"artist_aliases", fmt.Sprintf("%d", catalog.ArtistAliases)},
	}
	if err := writeTable([]string{"metric", "value"}, rows); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to render catalog table: %v\n", err)
		return 1
	}

	fmt.Println()
	dedupRows := [][]string{
		{"songs_without_aliases", fmt.Sprintf("%d", dedupStats.SongsWithoutAliases)},
		{"artists_without_aliases", fmt.Sprintf("%d", dedupStats.ArtistsWithoutAliases)},
		{"canonical_mappings", fmt.Sprintf("%d", dedupStats.CanonicalMappings)},
		{"overall_health", fmt.Sprintf("%.1f", health.OverallHealth)},
		{"completeness_score", fmt.Sprintf("%.1f", health.CompletenessScore)},
		{"data_quality_score", fmt.Sprintf("%.1f", health.DataQualityScore)},
		{"relationship_score", fmt.Sprintf("%.1f", health.RelationshipScore)},
	}
	if err := writeTable([]string{"metric", "value"}, dedupRows); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to render deduplication table: %v\n", err)
		return 1
	}

	return 0
}
