package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DefaultFeedURL, cfg.FeedURL)
	assert.Equal(t, "velov.json", cfg.FeedCachePath)
	assert.Equal(t, 24*time.Hour, cfg.FeedCacheMaxAge)
	assert.Equal(t, 30*time.Second, cfg.FeedTimeout)
	assert.Equal(t, "https://www.wikidata.org/w/api.php", cfg.WikibaseAPIURL)
	assert.Equal(t, "Update Vélo'v station", cfg.WikibaseUserAgent)
	assert.Equal(t, 30*time.Second, cfg.WikibaseTimeout)
	assert.Equal(t, time.Second, cfg.WikibaseEditInterval)
	assert.Equal(t, 3, cfg.WikibaseMaxRetries)
	assert.Equal(t, 5, cfg.WikibaseMaxLag)
	assert.Equal(t, "unresolved_stations.txt", cfg.TriagePath)
	assert.Empty(t, cfg.ProfilePath)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Empty(t, cfg.HTTPAddr)
	assert.Empty(t, cfg.PushgatewayURL)
	assert.Empty(t, cfg.KafkaBrokers)
	assert.False(t, cfg.KafkaEnabled())
	assert.Equal(t, "station-changes", cfg.KafkaTopic)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("FEED_URL", "http://localhost:8081/stations.json")
	t.Setenv("FEED_CACHE_PATH", "/tmp/stations.json")
	t.Setenv("FEED_CACHE_MAX_AGE", "1h")
	t.Setenv("FEED_TIMEOUT", "5s")
	t.Setenv("WIKIBASE_API_URL", "http://localhost:8181/w/api.php")
	t.Setenv("WIKIBASE_USER", "Bot@sync")
	t.Setenv("WIKIBASE_PASSWORD", "secret")
	t.Setenv("WIKIBASE_USER_AGENT", "velov-sync/1.0")
	t.Setenv("WIKIBASE_TIMEOUT", "10s")
	t.Setenv("WIKIBASE_EDIT_INTERVAL", "0s")
	t.Setenv("WIKIBASE_MAX_RETRIES", "0")
	t.Setenv("WIKIBASE_MAXLAG", "10")
	t.Setenv("TRIAGE_PATH", "triage.txt")
	t.Setenv("PROFILE_PATH", "custom.yaml")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("HTTP_ADDR", ":8080")
	t.Setenv("PUSHGATEWAY_URL", "http://pushgateway:9091")
	t.Setenv("KAFKA_BROKERS", "broker1:9092, broker2:9092")
	t.Setenv("KAFKA_TOPIC", "velov-changes")
	t.Setenv("SHUTDOWN_TIMEOUT", "30s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8081/stations.json", cfg.FeedURL)
	assert.Equal(t, "/tmp/stations.json", cfg.FeedCachePath)
	assert.Equal(t, time.Hour, cfg.FeedCacheMaxAge)
	assert.Equal(t, 5*time.Second, cfg.FeedTimeout)
	assert.Equal(t, "http://localhost:8181/w/api.php", cfg.WikibaseAPIURL)
	assert.Equal(t, "Bot@sync", cfg.WikibaseUser)
	assert.Equal(t, "secret", cfg.WikibasePassword)
	assert.Equal(t, "velov-sync/1.0", cfg.WikibaseUserAgent)
	assert.Equal(t, 10*time.Second, cfg.WikibaseTimeout)
	assert.Zero(t, cfg.WikibaseEditInterval)
	assert.Zero(t, cfg.WikibaseMaxRetries)
	assert.Equal(t, 10, cfg.WikibaseMaxLag)
	assert.Equal(t, "triage.txt", cfg.TriagePath)
	assert.Equal(t, "custom.yaml", cfg.ProfilePath)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "http://pushgateway:9091", cfg.PushgatewayURL)
	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.KafkaBrokers)
	assert.True(t, cfg.KafkaEnabled())
	assert.Equal(t, "velov-changes", cfg.KafkaTopic)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.NoError(t, cfg.RequireCredentials())
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"cache max age not a duration", "FEED_CACHE_MAX_AGE", "daily"},
		{"zero feed timeout", "FEED_TIMEOUT", "0s"},
		{"negative wikibase timeout", "WIKIBASE_TIMEOUT", "-1s"},
		{"negative edit interval", "WIKIBASE_EDIT_INTERVAL", "-1s"},
		{"retries not a number", "WIKIBASE_MAX_RETRIES", "many"},
		{"negative maxlag", "WIKIBASE_MAXLAG", "-5"},
		{"relative feed url", "FEED_URL", "stations.json"},
		{"api url without host", "WIKIBASE_API_URL", "https://"},
		{"pushgateway without scheme", "PUSHGATEWAY_URL", "pushgateway:9091"},
		{"shutdown timeout", "SHUTDOWN_TIMEOUT", "soon"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.val)
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.key)
		})
	}
}

func TestRequireCredentials(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	assert.Error(t, cfg.RequireCredentials())

	cfg.WikibaseUser = "Bot@sync"
	assert.Error(t, cfg.RequireCredentials(), "password still missing")

	cfg.WikibasePassword = "secret"
	assert.NoError(t, cfg.RequireCredentials())
}
