package app

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"vibeset.fm/catalog/internal/cli"
)

func runSearch(args []string) int {
	if len(args) == 0 {
		printSearchUsage()
		return 2
	}

	target := strings.ToLower(strings.TrimSpace(args[0]))
	switch target {
	case "songs", "artists":
	default:
		fmt.Fprintf(os.Stderr, "Unknown search target: %s\n\n", args[0])
		printSearchUsage()
		return 2
	}

	fs := flag.NewFlagSet("search "+target, flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	timeout := fs.Duration("timeout", 30*time.Second, "Command timeout")
	limit := fs.Int("limit", 20, "Maximum results")
	format := fs.String("format", outputFormatTable, "Output format: table or json")

	if err := fs.Parse(args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "search requires one query argument")
		printSearchUsage()
		return 2
	}

	term := strings.TrimSpace(fs.Arg(0))
	if len(term) < 2 {
		fmt.Fprintln(os.Stderr, "search query must be at least 2 characters")
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

	if target == "songs" {
		results, err := pool.SearchSongs(ctx, term, *limit)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Song search failed: %v\n", err)
			return 1
		}
		if outputFormat == outputFormatJSON {
			if err := printJSON(results); err != nil {
				fmt.Fprintf(os.Stderr, "Failed to encode JSON: %v\n", err)
				return 1
			}
			return 0
		}
		rows := make([][]string, 0, len(results))
		for _, r := range results {
			canonical := ""
			if r.CanonicalSongID != nil {
				canonical = fmt.Sprintf("%d", *r.CanonicalSongID)
			}
			rows = append(rows, []string{
				fmt.Sprintf("%d", r.ID),
				r.Song,
				r.Artist,
				r.AliasStatus,
				canonical,
			})
		}
		if err := writeTable([]string{"id", "song", "artist", "alias_status", "canonical_id"}, rows); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to render table: %v\n", err)
			return 1
		}
		return 0
	}

	results, err := pool.SearchArtists(ctx, term, *limit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Artist search failed: %v\n", err)
		return 1
	}
	if outputFormat == outputFormatJSON {
		if err := printJSON(results); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to encode JSON: %v\n", err)
			return 1
		}
		return 0
	}
	rows := make([][]string, 0, len(results))
	for _, r := range results {
		rows = append(rows, []string{
			fmt.Sprintf("%d", r.ID),
			r.Name,
			r.AliasStatus,
			fmt.Sprintf("%d", r.SongCount),
		})
	}
	if err := writeTable([]string{"id", "name", "alias_status", "song_count"}, rows); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to render table: %v\n", err)
		return 1
	}
	return 0
}

func printSearchUsage() {
	fmt.Fprintln(os.Stderr, "Usage:")
	fmt.Fprintln(os.Stderr, "  catalog search songs <query> [flags]")
	fmt.Fprintln(os.Stderr, "  catalog search artists <query> [flags]")
}
