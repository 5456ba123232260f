package config

import (
	"testing"
	"time"

	"github.com/couchcryptid/quake-map-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testMapboxToken = "pk.test-token"

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, defaultFeedURL, cfg.FeedURL)
	assert.Equal(t, 10*time.Second, cfg.FeedTimeout)
	assert.Equal(t, 5*time.Minute, cfg.FeedRefreshInterval)
	assert.Equal(t, 3, cfg.FeedMaxRetries)
	assert.Equal(t, domain.Position{Lat: 37.09, Lon: -95.71}, cfg.MapCenter)
	assert.Equal(t, 5, cfg.MapZoom)
	assert.Equal(t, domain.DefaultDepthScale, cfg.DepthBuckets)
	assert.False(t, cfg.MapboxEnabled)
	assert.Empty(t, cfg.MapboxToken)
	assert.Equal(t, 5*time.Second, cfg.MapboxTimeout)
	assert.Equal(t, 1000, cfg.MapboxCacheSize)
	assert.False(t, cfg.KafkaEnabled)
	assert.Equal(t, []string{"localhost:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "earthquake-markers", cfg.KafkaTopic)
	assert.Empty(t, cfg.SnapshotDBPath)
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("SHUTDOWN_TIMEOUT", "30s")
	t.Setenv("FEED_URL", "https://earthquake.usgs.gov/earthquakes/feed/v1.0/summary/4.5_week.geojson")
	t.Setenv("FEED_TIMEOUT", "3s")
	t.Setenv("FEED_REFRESH_INTERVAL", "1m")
	t.Setenv("FEED_MAX_RETRIES", "5")
	t.Setenv("MAP_CENTER", "35.68, 139.69")
	t.Setenv("MAP_ZOOM", "7")
	t.Setenv("DEPTH_COLOR_BUCKETS", "0:#00ff00,100:#ff0000")
	t.Setenv("MAPBOX_TOKEN", testMapboxToken)
	t.Setenv("MAPBOX_TIMEOUT", "10s")
	t.Setenv("MAPBOX_CACHE_SIZE", "500")
	t.Setenv("KAFKA_ENABLED", "true")
	t.Setenv("KAFKA_BROKERS", "broker1:9092,broker2:9092")
	t.Setenv("KAFKA_TOPIC", "custom-markers")
	t.Setenv("SNAPSHOT_DB_PATH", "/var/lib/quakemap/snapshot.db")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.Contains(t, cfg.FeedURL, "4.5_week")
	assert.Equal(t, 3*time.Second, cfg.FeedTimeout)
	assert.Equal(t, time.Minute, cfg.FeedRefreshInterval)
	assert.Equal(t, 5, cfg.FeedMaxRetries)
	assert.Equal(t, domain.Position{Lat: 35.68, Lon: 139.69}, cfg.MapCenter)
	assert.Equal(t, 7, cfg.MapZoom)
	assert.Equal(t, domain.DepthScale{{Min: 0, Color: "#00ff00"}, {Min: 100, Color: "#ff0000"}}, cfg.DepthBuckets)
	assert.True(t, cfg.MapboxEnabled)
	assert.Equal(t, testMapboxToken, cfg.MapboxToken)
	assert.Equal(t, 10*time.Second, cfg.MapboxTimeout)
	assert.Equal(t, 500, cfg.MapboxCacheSize)
	assert.True(t, cfg.KafkaEnabled)
	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "custom-markers", cfg.KafkaTopic)
	assert.Equal(t, "/var/lib/quakemap/snapshot.db", cfg.SnapshotDBPath)
}

func TestLoad_InvalidShutdownTimeout(t *testing.T) {
	t.Setenv("SHUTDOWN_TIMEOUT", "not-a-duration")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SHUTDOWN_TIMEOUT")
}

func TestLoad_InvalidDurations(t *testing.T) {
	for _, key := range []string{"FEED_TIMEOUT", "FEED_REFRESH_INTERVAL", "MAPBOX_TIMEOUT"} {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, "-1s")
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), key)
		})
	}
}

func TestLoad_InvalidFeedMaxRetries(t *testing.T) {
	t.Setenv("FEED_MAX_RETRIES", "99")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "FEED_MAX_RETRIES")
}

func TestLoad_ZeroRetriesAllowed(t *testing.T) {
	t.Setenv("FEED_MAX_RETRIES", "0")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 0, cfg.FeedMaxRetries)
}

func TestLoad_InvalidFeedURL(t *testing.T) {
	t.Setenv("FEED_URL", "ftp://example.com/feed.geojson")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "FEED_URL")
}

func TestLoad_InvalidMapCenter(t *testing.T) {
	for _, v := range []string{"37.09", "north,west", "95,10", "10,200"} {
		t.Run(v, func(t *testing.T) {
			t.Setenv("MAP_CENTER", v)
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), "MAP_CENTER")
		})
	}
}

func TestLoad_MapCenterAtOrigin(t *testing.T) {
	t.Setenv("MAP_CENTER", "0,0")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, domain.Position{}, cfg.MapCenter)
}

func TestLoad_InvalidMapZoom(t *testing.T) {
	t.Setenv("MAP_ZOOM", "25")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MAP_ZOOM")
}

func TestLoad_InvalidDepthBuckets(t *testing.T) {
	t.Setenv("DEPTH_COLOR_BUCKETS", "0:#a3f600,50:#dcf400,30:#f7db11")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DEPTH_COLOR_BUCKETS")
}

func TestLoad_MapboxEnabledWithoutToken(t *testing.T) {
	t.Setenv("MAPBOX_ENABLED", "true")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MAPBOX_TOKEN")
}

func TestLoad_MapboxExplicitlyDisabled(t *testing.T) {
	t.Setenv("MAPBOX_TOKEN", testMapboxToken)
	t.Setenv("MAPBOX_ENABLED", "false")
	cfg, err := Load()
	require.NoError(t, err)
	assert.False(t, cfg.MapboxEnabled)
}
