package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"vibeset.fm/catalog/internal/cli"
	"vibeset.fm/catalog/internal/config"
	"vibeset.fm/catalog/internal/logging"
	"vibeset.fm/catalog/internal/oracle"
)

// runAliases asks the verification model for known aliases of one artist
// name. It needs no database connection.
func runAliases(args []string) int {
	fs := flag.NewFlagSet("aliases", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	timeout := fs.Duration("timeout", time.Minute, "Command timeout")
	format := fs.String("format", outputFormatTable, "Output format: table or json")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "aliases requires exactly one artist name argument")
		return 2
	}

	name := strings.TrimSpace(fs.Arg(0))
	if name == "" {
		fmt.Fprintln(os.Stderr, "artist name must not be empty")
		return 2
	}

	outputFormat, err := parseOutputFormat(*format, outputFormatTable)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid format: %v\n", err)
		return 2
	}

	if envLoader != nil {
		if _, err := envLoader.Load(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		}
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return 1
	}

	logger, err := logging.New(cfg.Environment, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		return 1
	}

	client := oracle.NewClient(oracle.Config{
		Endpoint:    cfg.OracleEndpoint,
		Model:       cfg.OracleModel,
		Temperature: cfg.OracleTemperature,
		MaxTokens:   cfg.OracleMaxTokens,
		Timeout:     cfg.OracleTimeout,
	}, logger)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	aliases, err := client.GenerateAliases(ctx, name)
	if err != nil {
		logger.Error().Err(err).Str("artist", name).Msg("alias generation failed")
		fmt.Fprintf(os.Stderr, "Alias generation failed: %v\n", err)
		return 1
	}

	if outputFormat == outputFormatJSON {
		if err := printJSON(map[string]any{
			"artist":  name,
			"aliases": aliases,
		}); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to encode JSON: %v\n", err)
			return 1
		}
		return 0
	}

	rows := make([][]string, 0, len(aliases))
	for i, alias := range aliases {
		role := "alias"
		if i == 0 {
			role = "primary"
		}
		rows = append(rows, []string{role, alias})
	}
	if err := writeTable([]string{"role", "name"}, rows); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to render table: %v\n", err)
		return 1
	}
	return 0
}
