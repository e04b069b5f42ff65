package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Environment string `envconfig:"ENVIRONMENT" default:"local"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`

	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`
	DBMinConns  int32  `envconfig:"CATALOG_DB_MIN_CONNS" default:"1"`
	DBMaxConns  int32  `envconfig:"CATALOG_DB_MAX_CONNS" default:"8"`

	OracleEndpoint    string        `envconfig:"ORACLE_ENDPOINT" default:"http://127.0.0.1:11434/v1"`
	OracleModel       string        `envconfig:"ORACLE_MODEL" default:"gpt-4o-mini"`
	OracleTemperature float64       `envconfig:"ORACLE_TEMPERATURE" default:"0.2"`
	OracleMaxTokens   int           `envconfig:"ORACLE_MAX_TOKENS" default:"512"`
	OracleTimeout     time.Duration `envconfig:"ORACLE_TIMEOUT" default:"30s"`
	OracleMaxCalls    int           `envconfig:"ORACLE_MAX_CALLS" default:"50"`

	SongSimilarityThreshold   float64 `envconfig:"SONG_SIMILARITY_THRESHOLD" default:"0.85"`
	ArtistSimilarityThreshold float64 `envconfig:"ARTIST_SIMILARITY_THRESHOLD" default:"0.8"`
	AliasBatchSize            int     `envconfig:"ALIAS_BATCH_SIZE" default:"10"`

	CORSAllowedOrigins string `envconfig:"CORS_ALLOWED_ORIGINS" default:""`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.DatabaseURL) == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.DBMinConns < 0 {
		return fmt.Errorf("CATALOG_DB_MIN_CONNS must be >= 0")
	}
	if c.DBMaxConns < 1 {
		return fmt.Errorf("CATALOG_DB_MAX_CONNS must be >= 1")
	}
	if c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("CATALOG_DB_MIN_CONNS (%d) cannot exceed CATALOG_DB_MAX_CONNS (%d)", c.DBMinConns, c.DBMaxConns)
	}
	if c.SongSimilarityThreshold <= 0 || c.SongSimilarityThreshold > 1 {
		return fmt.Errorf("SONG_SIMILARITY_THRESHOLD must be in (0, 1]")
	}
	if c.ArtistSimilarityThreshold <= 0 || c.ArtistSimilarityThreshold > 1 {
		return fmt.Errorf("ARTIST_SIMILARITY_THRESHOLD must be in (0, 1]")
	}
	if c.AliasBatchSize < 1 {
		return fmt.Errorf("ALIAS_BATCH_SIZE must be >= 1")
	}
	if c.OracleMaxCalls < 0 {
		return fmt.Errorf("ORACLE_MAX_CALLS must be >= 0")
	}
	if c.OracleTimeout <= 0 {
		return fmt.Errorf("ORACLE_TIMEOUT must be positive")
	}
	return nil
}

func (c *Config) CORSAllowedOriginsList() []string {
	if c == nil {
		return nil
	}

	parts := strings.Split(c.CORSAllowedOrigins, ",")
	origins := make([]string, 0, len(parts))
	seen := make(map[string]struct{}, len(parts))
	for _, part := range parts {
		origin := strings.TrimSpace(part)
		if origin == "" {
			continue
		}
		if _, exists := seen[origin]; exists {
			continue
		}
		seen[origin] = struct{}{}
		origins = append(origins, origin)
	}
	return origins
}
