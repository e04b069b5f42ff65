package app

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"vibeset.fm/catalog/internal/cli"
)

func runIssues(args []string) int {
	fs := flag.NewFlagSet("issues", flag.ContinueOnError)
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
		fmt.Fprintln(os.Stderr, "issues does not accept positional arguments")
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

	issues, err := pool.QueryDatabaseIssues(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to query database issues: %v\n", err)
		return 1
	}

	if outputFormat == outputFormatJSON {
		if err := printJSON(issues); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to encode JSON: %v\n", err)
			return 1
		}
		return 0
	}

	rows := [][]string{
		{"orphaned_songs", fmt.Sprintf("%d", issues.OrphanedSongs)},
		{"missing_primary", fmt.Sprintf("%d", issues.MissingPrimary)},
		{"inconsistent_artists", fmt.Sprintf("%d", issues.InconsistentArtists)},
		{"duplicate_relations", fmt.Sprintf("%d", issues.DuplicateRelations)},
		{"orphaned_aliases", fmt.Sprintf("%d", issues.OrphanedAliases)},
		{"null_values", fmt.Sprintf("%d", issues.NullValues)},
	}
	if err := writeTable([]string{"issue", "count"}, rows); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to render table: %v\n", err)
		return 1
	}

	total := issues.OrphanedSongs + issues.MissingPrimary + issues.InconsistentArtists +
		issues.DuplicateRelations + issues.OrphanedAliases + issues.NullValues
	if total > 0 {
		fmt.Printf("\n%d issues found\n", total)
	} else {
		fmt.Println("\nno issues found")
	}
	return 0
}
