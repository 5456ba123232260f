package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"

	"github.com/couchcryptid/quake-map-service/internal/domain"
)

const (
	defaultFeedURL      = "https://earthquake.usgs.gov/earthquakes/feed/v1.0/summary/significant_month.geojson"
	defaultDepthBuckets = "0:#a3f600,10:#dcf400,30:#f7db11,50:#fdb72a,70:#fca35d,90:#ff5f65"
	maxFeedRetries      = 10
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Feed settings.
	FeedURL             string
	FeedTimeout         time.Duration
	FeedRefreshInterval time.Duration
	FeedMaxRetries      int

	// Map settings.
	MapCenter    domain.Position
	MapZoom      int
	DepthBuckets domain.DepthScale

	// Mapbox reverse geocoding for features without a place.
	MapboxToken     string
	MapboxEnabled   bool
	MapboxTimeout   time.Duration
	MapboxCacheSize int

	// Kafka marker publishing.
	KafkaEnabled bool
	KafkaBrokers []string
	KafkaTopic   string

	// SnapshotDBPath enables the SQLite last-good-feed store when set.
	SnapshotDBPath string
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	feedTimeout, err := parsePositiveDuration("FEED_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	refreshInterval, err := parsePositiveDuration("FEED_REFRESH_INTERVAL", "5m")
	if err != nil {
		return nil, err
	}
	maxRetries, err := parseFeedMaxRetries()
	if err != nil {
		return nil, err
	}

	center, err := parseCenter(sharedcfg.EnvOrDefault("MAP_CENTER", "37.09,-95.71"))
	if err != nil {
		return nil, err
	}
	zoom, err := parseZoom(sharedcfg.EnvOrDefault("MAP_ZOOM", "5"))
	if err != nil {
		return nil, err
	}
	buckets, err := domain.ParseDepthScale(sharedcfg.EnvOrDefault("DEPTH_COLOR_BUCKETS", defaultDepthBuckets))
	if err != nil {
		return nil, fmt.Errorf("invalid DEPTH_COLOR_BUCKETS: %w", err)
	}

	mapboxTimeout, err := parsePositiveDuration("MAPBOX_TIMEOUT", "5s")
	if err != nil {
		return nil, err
	}
	mapboxToken := os.Getenv("MAPBOX_TOKEN")
	mapboxEnabled := mapboxToken != ""
	if v := os.Getenv("MAPBOX_ENABLED"); v != "" {
		mapboxEnabled = v == "true"
	}

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		FeedURL:             sharedcfg.EnvOrDefault("FEED_URL", defaultFeedURL),
		FeedTimeout:         feedTimeout,
		FeedRefreshInterval: refreshInterval,
		FeedMaxRetries:      maxRetries,

		MapCenter:    center,
		MapZoom:      zoom,
		DepthBuckets: buckets,

		MapboxToken:     mapboxToken,
		MapboxEnabled:   mapboxEnabled,
		MapboxTimeout:   mapboxTimeout,
		MapboxCacheSize: parseMapboxCacheSize(),

		KafkaEnabled: os.Getenv("KAFKA_ENABLED") == "true",
		KafkaBrokers: sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaTopic:   sharedcfg.EnvOrDefault("KAFKA_TOPIC", "earthquake-markers"),

		SnapshotDBPath: os.Getenv("SNAPSHOT_DB_PATH"),
	}

	if !strings.HasPrefix(cfg.FeedURL, "http://") && !strings.HasPrefix(cfg.FeedURL, "https://") {
		return nil, errors.New("FEED_URL must be an http(s) URL")
	}
	if cfg.MapboxEnabled && cfg.MapboxToken == "" {
		return nil, errors.New("MAPBOX_ENABLED is true but MAPBOX_TOKEN is not set")
	}
	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_BROKERS is required when KAFKA_ENABLED is true")
	}
	if cfg.KafkaEnabled && cfg.KafkaTopic == "" {
		return nil, errors.New("KAFKA_TOPIC is required when KAFKA_ENABLED is true")
	}

	return cfg, nil
}

func parsePositiveDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parseFeedMaxRetries() (int, error) {
	n, err := strconv.Atoi(sharedcfg.EnvOrDefault("FEED_MAX_RETRIES", "3"))
	if err != nil || n < 0 || n > maxFeedRetries {
		return 0, fmt.Errorf("invalid FEED_MAX_RETRIES: must be 0-%d", maxFeedRetries)
	}
	return n, nil
}

// parseCenter parses "lat,lon".
func parseCenter(s string) (domain.Position, error) {
	latStr, lonStr, ok := strings.Cut(s, ",")
	if !ok {
		return domain.Position{}, errors.New("invalid MAP_CENTER: want lat,lon")
	}
	lat, errLat := strconv.ParseFloat(strings.TrimSpace(latStr), 64)
	lon, errLon := strconv.ParseFloat(strings.TrimSpace(lonStr), 64)
	if errLat != nil || errLon != nil || lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return domain.Position{}, errors.New("invalid MAP_CENTER: want lat,lon in range")
	}
	return domain.Position{Lat: lat, Lon: lon}, nil
}

func parseZoom(s string) (int, error) {
	z, err := strconv.Atoi(s)
	if err != nil || z < 1 || z > 18 {
		return 0, errors.New("invalid MAP_ZOOM: must be 1-18")
	}
	return z, nil
}

func parseMapboxCacheSize() int {
	if s := os.Getenv("MAPBOX_CACHE_SIZE"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return 1000
}
