package app

import (
	"fmt"
	"os"
	"strings"
)

// Run executes the CLI command and returns a process exit code.
func Run(args []string) int {
	if len(args) == 0 {
		printUsage()
		return 2
	}

	switch strings.ToLower(strings.TrimSpace(args[0])) {
	case "help", "--help", "-h":
		printUsage()
		return 0
	case "health":
		return runHealth(args[1:])
	case "dedup-songs":
		return runDedupSongs(args[1:])
	case "dedup-artists":
		return runDedupArtists(args[1:])
	case "process", "run-once":
		return runProcess(args[1:])
	case "aliases":
		return runAliases(args[1:])
	case "stats":
		return runStats(args[1:])
	case "issues":
		return runIssues(args[1:])
	case "search":
		return runSearch(args[1:])
	case "serve":
		return runServe(args[1:])
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", args[0])
		printUsage()
		return 2
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "catalog CLI")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Usage:")
	fmt.Fprintln(os.Stderr, "  catalog <command> [flags]")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Commands:")
	fmt.Fprintln(os.Stderr, "  health         Verify database connectivity")
	fmt.Fprintln(os.Stderr, "  dedup-songs    Group duplicate songs and write song aliases")
	fmt.Fprintln(os.Stderr, "  dedup-artists  Group duplicate artists and write artist aliases")
	fmt.Fprintln(os.Stderr, "  process        Run song and artist deduplication together")
	fmt.Fprintln(os.Stderr, "  run-once       Alias for process")
	fmt.Fprintln(os.Stderr, "  aliases        Ask the verification model for known aliases of a name")
	fmt.Fprintln(os.Stderr, "  stats          Print catalog statistics")
	fmt.Fprintln(os.Stderr, "  issues         Report data quality issues")
	fmt.Fprintln(os.Stderr, "  search         Search songs or artists")
	fmt.Fprintln(os.Stderr, "  serve          Start the Echo report API server")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Use \"catalog <command> -h\" for command-specific flags.")
}
