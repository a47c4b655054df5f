package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// DefaultFeedURL is the Grand Lyon open-data export of the Vélo'v stations.
const DefaultFeedURL = "https://download.data.grandlyon.com/ws/grandlyon/pvo_patrimoine_voirie.pvostationvelov/all.json?maxfeatures=-1"

// Config holds all sync settings, populated from environment variables.
type Config struct {
	FeedURL         string
	FeedCachePath   string
	FeedCacheMaxAge time.Duration
	FeedTimeout     time.Duration

	WikibaseAPIURL       string
	WikibaseUser         string
	WikibasePassword     string
	WikibaseUserAgent    string
	WikibaseTimeout      time.Duration
	WikibaseEditInterval time.Duration
	WikibaseMaxRetries   int
	WikibaseMaxLag       int

	TriagePath  string
	ProfilePath string

	LogLevel  string
	LogFormat string

	// Optional sinks and endpoints; empty disables them.
	HTTPAddr       string
	PushgatewayURL string
	KafkaBrokers   []string
	KafkaTopic     string

	ShutdownTimeout time.Duration
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}
	cacheMaxAge, err := parseDuration("FEED_CACHE_MAX_AGE", "24h")
	if err != nil {
		return nil, err
	}
	feedTimeout, err := parseDuration("FEED_TIMEOUT", "30s")
	if err != nil {
		return nil, err
	}
	kbTimeout, err := parseDuration("WIKIBASE_TIMEOUT", "30s")
	if err != nil {
		return nil, err
	}
	editInterval, err := time.ParseDuration(sharedcfg.EnvOrDefault("WIKIBASE_EDIT_INTERVAL", "1s"))
	if err != nil || editInterval < 0 {
		return nil, errors.New("invalid WIKIBASE_EDIT_INTERVAL")
	}
	maxRetries, err := parseNonNegativeInt("WIKIBASE_MAX_RETRIES", 3)
	if err != nil {
		return nil, err
	}
	maxLag, err := parseNonNegativeInt("WIKIBASE_MAXLAG", 5)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		FeedURL:         sharedcfg.EnvOrDefault("FEED_URL", DefaultFeedURL),
		FeedCachePath:   sharedcfg.EnvOrDefault("FEED_CACHE_PATH", "velov.json"),
		FeedCacheMaxAge: cacheMaxAge,
		FeedTimeout:     feedTimeout,

		WikibaseAPIURL:       sharedcfg.EnvOrDefault("WIKIBASE_API_URL", "https://www.wikidata.org/w/api.php"),
		WikibaseUser:         os.Getenv("WIKIBASE_USER"),
		WikibasePassword:     os.Getenv("WIKIBASE_PASSWORD"),
		WikibaseUserAgent:    sharedcfg.EnvOrDefault("WIKIBASE_USER_AGENT", "Update Vélo'v station"),
		WikibaseTimeout:      kbTimeout,
		WikibaseEditInterval: editInterval,
		WikibaseMaxRetries:   maxRetries,
		WikibaseMaxLag:       maxLag,

		TriagePath:  sharedcfg.EnvOrDefault("TRIAGE_PATH", "unresolved_stations.txt"),
		ProfilePath: os.Getenv("PROFILE_PATH"),

		LogLevel:  sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat: sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),

		HTTPAddr:       os.Getenv("HTTP_ADDR"),
		PushgatewayURL: os.Getenv("PUSHGATEWAY_URL"),
		KafkaBrokers:   sharedcfg.ParseBrokers(os.Getenv("KAFKA_BROKERS")),
		KafkaTopic:     sharedcfg.EnvOrDefault("KAFKA_TOPIC", "station-changes"),

		ShutdownTimeout: shutdownTimeout,
	}

	if err := validateURL("FEED_URL", cfg.FeedURL); err != nil {
		return nil, err
	}
	if err := validateURL("WIKIBASE_API_URL", cfg.WikibaseAPIURL); err != nil {
		return nil, err
	}
	if cfg.PushgatewayURL != "" {
		if err := validateURL("PUSHGATEWAY_URL", cfg.PushgatewayURL); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// RequireCredentials reports a missing bot login; only runs that write need one.
func (c *Config) RequireCredentials() error {
	if c.WikibaseUser == "" || c.WikibasePassword == "" {
		return errors.New("WIKIBASE_USER and WIKIBASE_PASSWORD are required")
	}
	return nil
}

// KafkaEnabled reports whether change events should be published.
func (c *Config) KafkaEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

func parseDuration(key, fallback string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, fallback))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s: must be a positive duration", key)
	}
	return d, nil
}

func parseNonNegativeInt(key string, fallback int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid %s: must be a non-negative integer", key)
	}
	return n, nil
}

func validateURL(key, raw string) error {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid %s: %q is not an absolute URL", key, raw)
	}
	return nil
}
