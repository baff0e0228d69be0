package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Supported upstream format generations. Exactly one is active per process.
const (
	FormatParsedV1 = "parsed-v1"
	FormatDListV2  = "dlist-v2"
	FormatDListV3  = "dlist-v3"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Upstream data sources.
	UpstreamFormat string
	DataBaseURL    string // raw content base for data-parsed / data-static paths
	ContentsAPIURL string // directory listing API base (parsed-v1, dlist-v2)
	DocsIndexURL   string // TSV document manifest (dlist-v3)
	DocsBaseURL    string // document content base (dlist-v3)
	FreshFeedURL   string // independently cadenced fresh readings (dlist-v3)
	StaticFeedURL  string // independently hosted *_m thresholds feed (dlist-v3)
	FetchTimeout   time.Duration

	// Cache tuning. The TTL tracks the upstream pipeline's regeneration
	// cadence (observed 5-15 minutes across generations).
	CacheTTL        time.Duration
	CacheMaxEntries int

	// Optional alert event publishing.
	KafkaBrokers    []string
	KafkaAlertTopic string
	KafkaEnabled    bool
}

// Load reads configuration from environment variables, applying defaults
// where unset.
func Load() (*Config, error) {
	fetchTimeout, err := parseDurationEnv("FETCH_TIMEOUT", "30s")
	if err != nil {
		return nil, err
	}
	cacheTTL, err := parseDurationEnv("CACHE_TTL", "15m")
	if err != nil {
		return nil, err
	}
	shutdownTimeout, err := parseDurationEnv("SHUTDOWN_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	cacheMaxEntries, err := parseIntEnv("CACHE_MAX_ENTRIES", 100)
	if err != nil {
		return nil, err
	}

	brokers := parseBrokers(os.Getenv("KAFKA_BROKERS"))
	kafkaEnabled := len(brokers) > 0
	if v := os.Getenv("KAFKA_ENABLED"); v != "" {
		kafkaEnabled = v == "true"
	}

	cfg := &Config{
		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		UpstreamFormat: envOrDefault("UPSTREAM_FORMAT", FormatDListV3),
		DataBaseURL:    envOrDefault("DATA_BASE_URL", "https://raw.githubusercontent.com/nuuuwan/dmc_gov_lk_2024/main"),
		ContentsAPIURL: envOrDefault("CONTENTS_API_URL", "https://api.github.com/repos/nuuuwan/dmc_gov_lk_2024/contents"),
		DocsIndexURL:   envOrDefault("DOCS_INDEX_URL", "https://raw.githubusercontent.com/nuuuwan/dmc_gov_lk_docs/main/summary.tsv"),
		DocsBaseURL:    envOrDefault("DOCS_BASE_URL", "https://raw.githubusercontent.com/nuuuwan/dmc_gov_lk_docs/main/docs"),
		FreshFeedURL:   envOrDefault("FRESH_FEED_URL", "https://raw.githubusercontent.com/nuuuwan/hydro_lk/main/latest_levels.json"),
		StaticFeedURL:  envOrDefault("STATIC_FEED_URL", "https://raw.githubusercontent.com/nuuuwan/hydro_lk/main/stations.json"),
		FetchTimeout:   fetchTimeout,

		CacheTTL:        cacheTTL,
		CacheMaxEntries: cacheMaxEntries,

		KafkaBrokers:    brokers,
		KafkaAlertTopic: envOrDefault("KAFKA_ALERT_TOPIC", "flood-alerts"),
		KafkaEnabled:    kafkaEnabled,
	}

	switch cfg.UpstreamFormat {
	case FormatParsedV1, FormatDListV2:
		if cfg.DataBaseURL == "" || cfg.ContentsAPIURL == "" {
			return nil, fmt.Errorf("DATA_BASE_URL and CONTENTS_API_URL are required for UPSTREAM_FORMAT %q", cfg.UpstreamFormat)
		}
	case FormatDListV3:
		if cfg.DocsIndexURL == "" || cfg.DocsBaseURL == "" {
			return nil, fmt.Errorf("DOCS_INDEX_URL and DOCS_BASE_URL are required for UPSTREAM_FORMAT %q", cfg.UpstreamFormat)
		}
		if cfg.FreshFeedURL == "" || cfg.StaticFeedURL == "" {
			return nil, fmt.Errorf("FRESH_FEED_URL and STATIC_FEED_URL are required for UPSTREAM_FORMAT %q", cfg.UpstreamFormat)
		}
	default:
		return nil, fmt.Errorf("invalid UPSTREAM_FORMAT %q", cfg.UpstreamFormat)
	}

	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, fmt.Errorf("KAFKA_ENABLED is true but KAFKA_BROKERS is not set")
	}
	if cfg.KafkaEnabled && cfg.KafkaAlertTopic == "" {
		return nil, fmt.Errorf("KAFKA_ALERT_TOPIC is required when alert publishing is enabled")
	}

	return cfg, nil
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseDurationEnv(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(envOrDefault(key, def))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parseIntEnv(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return n, nil
}

func parseBrokers(s string) []string {
	var brokers []string
	for _, b := range strings.Split(s, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}
