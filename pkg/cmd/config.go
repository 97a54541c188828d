package cmd

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/viper"

	"github.com/ksysoev/omnidex-crawl/pkg/transport"
)

type appConfig struct {
	Storage   StorageConfig    `mapstructure:"storage"`
	Search    SearchConfig     `mapstructure:"search"`
	Crawl     CrawlConfig      `mapstructure:"crawl"`
	Embed     EmbedConfig      `mapstructure:"embed"`
	Transport transport.Config `mapstructure:"transport"`
}

// StorageConfig holds configuration for the document store.
type StorageConfig struct {
	Backend string `mapstructure:"backend"` // "fs" or "s3"
	Path    string `mapstructure:"path"`
	Bucket  string `mapstructure:"bucket"`
	Prefix  string `mapstructure:"prefix"`
}

// SearchConfig holds configuration for the chunk-vector store and search engine.
type SearchConfig struct {
	IndexPath    string `mapstructure:"index_path"`
	ElasticURL   string `mapstructure:"elastic_url"`
	ElasticIndex string `mapstructure:"elastic_index"`
}

// CrawlConfig holds configuration for the crawler.
type CrawlConfig struct {
	IncludePattern string `mapstructure:"include_pattern"`
	MaxPages       int    `mapstructure:"max_pages"`
}

// EmbedConfig holds configuration for the embedder.
type EmbedConfig struct {
	OpenAIAPIKey string `mapstructure:"openai_api_key"` //nolint:gosec // config field, not a secret value
}

// loadConfig loads the application configuration from the specified file path
// and environment variables, the same viper wiring the reference stack uses.
func loadConfig(flags *cmdFlags) (*appConfig, error) {
	v := viper.NewWithOptions(viper.ExperimentalBindStruct())

	if flags.ConfigPath != "" {
		v.SetConfigFile(flags.ConfigPath)

		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg appConfig

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	slog.Debug("Config loaded", slog.Any("config", cfg))

	return &cfg, nil
}
