// ForYou - Content-Similarity Title Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/foryou

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the config file locations searched in order.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/foryou/config.yaml",
	"/etc/foryou/config.yml",
}

// ConfigPathEnvVar overrides the config file location.
const ConfigPathEnvVar = "CONFIG_PATH"

// IMDb dataset locations used by the builder unless overridden.
const (
	DefaultBasicsURL     = "https://datasets.imdbws.com/title.basics.tsv.gz"
	DefaultAkasURL       = "https://datasets.imdbws.com/title.akas.tsv.gz"
	DefaultRatingsURL    = "https://datasets.imdbws.com/title.ratings.tsv.gz"
	DefaultPrincipalsURL = "https://datasets.imdbws.com/title.principals.tsv.gz"
	DefaultNamesURL      = "https://datasets.imdbws.com/name.basics.tsv.gz"
)

func defaultConfig() *Config {
	return &Config{
		Recommend: RecommendConfig{
			PageSize:          50,
			PriorityRegions:   []string{"IN"},
			HistorySeedCount:  5,
			TotalLimit:        50,
			MinimumRating:     4.9,
			NeighborsPerSeed:  0,
			CandidatePoolSize: 100,
			ImageBaseURL:      "https://images.metahub.space",
			RankingCacheSize:  1024,
			RankingCacheTTL:   time.Hour,
		},
		Build: BuildConfig{
			MinimumVotesThreshold: 500,
			YearFilterThreshold:   1980,
			MaxActors:             3,
			MaxDirectors:          0,
			RetainVersions:        3,
			BasicsURL:             DefaultBasicsURL,
			AkasURL:               DefaultAkasURL,
			RatingsURL:            DefaultRatingsURL,
			PrincipalsURL:         DefaultPrincipalsURL,
			NamesURL:              DefaultNamesURL,
			MemoryLimit:           "2GB",
			Threads:               0,
		},
		Artifacts: ArtifactsConfig{
			Dir:            "artifacts",
			ReloadInterval: 5 * time.Minute,
		},
		History: HistoryConfig{
			Backend:     "badger",
			Path:        "artifacts/watch_history",
			RedisAddr:   "localhost:6379",
			RedisPrefix: "foryou:history",
		},
		Events: EventsConfig{
			Backend:       "channel",
			Topic:         "history.views",
			BufferSize:    256,
			NATSURL:       "nats://127.0.0.1:4222",
			MaxReconnects: -1,
			ReconnectWait: 2 * time.Second,
			DurableName:   "history-writer",
			QueueGroup:    "history",
		},
		Trakt: TraktConfig{
			BaseURL:             "https://api.trakt.tv",
			SyncIntervalMinutes: 60,
			Timeout:             30 * time.Second,
			RequestsPerSecond:   2,
			RetryAttempts:       3,
			RetryDelay:          2 * time.Second,
		},
		Server: ServerConfig{
			Host:              "0.0.0.0",
			Port:              5000,
			Timeout:           30 * time.Second,
			ShutdownTimeout:   10 * time.Second,
			CORSOrigins:       []string{"*"}, // addon clients call from arbitrary origins
			RateLimitRequests: 300,
			RateLimitWindow:   time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load reads configuration from defaults, an optional YAML file and the
// environment, then validates it.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func findConfigFile() string {
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// sliceConfigPaths are parsed from comma-separated strings when they come
// from the environment.
var sliceConfigPaths = []string{
	"recommend.priority_regions",
	"server.cors_origins",
}

func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		s, ok := k.Get(path).(string)
		if !ok {
			continue // absent, or already a list from defaults/YAML
		}
		parts := strings.Split(s, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		if err := k.Set(path, out); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// envTransformFunc maps environment variable names onto koanf paths. Keys
// not in the table are dropped.
//
//   - PAGE_SIZE -> recommend.page_size
//   - ARTIFACTS_DIR -> artifacts.dir
//   - TRAKT_SYNC_INTERVAL_MINUTES -> trakt.sync_interval_minutes
func envTransformFunc(key string) string {
	if mapped, ok := envMappings[strings.ToLower(key)]; ok {
		return mapped
	}
	return ""
}

var envMappings = map[string]string{
	// Ranking
	"page_size":             "recommend.page_size",
	"priority_regions":      "recommend.priority_regions",
	"history_seed_count":    "recommend.history_seed_count",
	"total_limit":           "recommend.total_limit",
	"recommendations_limit": "recommend.total_limit",
	"minimum_rating":        "recommend.minimum_rating",
	"neighbors_per_seed":    "recommend.neighbors_per_seed",
	"candidate_pool_size":   "recommend.candidate_pool_size",
	"image_base_url":        "recommend.image_base_url",
	"ranking_cache_size":    "recommend.ranking_cache_size",
	"ranking_cache_ttl":     "recommend.ranking_cache_ttl",

	// Builder
	"minimum_votes_threshold": "build.minimum_votes_threshold",
	"year_filter_threshold":   "build.year_filter_threshold",
	"max_actors":              "build.max_actors",
	"max_directors":           "build.max_directors",
	"retain_versions":         "build.retain_versions",
	"imdb_basics_url":         "build.basics_url",
	"imdb_akas_url":           "build.akas_url",
	"imdb_ratings_url":        "build.ratings_url",
	"imdb_principals_url":     "build.principals_url",
	"imdb_names_url":          "build.names_url",
	"duckdb_memory_limit":     "build.memory_limit",
	"duckdb_threads":          "build.threads",

	// Artifacts
	"artifacts_dir":             "artifacts.dir",
	"artifacts_reload_interval": "artifacts.reload_interval",

	// History
	"history_backend":        "history.backend",
	"history_db_path":        "history.path",
	"history_redis_addr":     "history.redis_addr",
	"history_redis_password": "history.redis_password",
	"history_redis_db":       "history.redis_db",
	"history_redis_prefix":   "history.redis_prefix",

	// Events
	"events_backend":      "events.backend",
	"events_topic":        "events.topic",
	"events_buffer_size":  "events.buffer_size",
	"nats_url":            "events.nats_url",
	"nats_max_reconnects": "events.nats_max_reconnects",
	"nats_reconnect_wait": "events.nats_reconnect_wait",
	"nats_durable_name":   "events.nats_durable_name",
	"nats_queue_group":    "events.nats_queue_group",

	// Trakt
	"trakt_username":              "trakt.username",
	"trakt_client_id":             "trakt.client_id",
	"trakt_base_url":              "trakt.base_url",
	"trakt_sync_interval_minutes": "trakt.sync_interval_minutes",
	"trakt_timeout":               "trakt.timeout",
	"trakt_requests_per_second":   "trakt.requests_per_second",
	"trakt_retry_attempts":        "trakt.retry_attempts",
	"trakt_retry_delay":           "trakt.retry_delay",

	// Server
	"http_host":           "server.host",
	"port":                "server.port",
	"http_port":           "server.port",
	"http_timeout":        "server.timeout",
	"shutdown_timeout":    "server.shutdown_timeout",
	"cors_origins":        "server.cors_origins",
	"rate_limit_requests": "server.rate_limit_reqs",
	"rate_limit_window":   "server.rate_limit_window",
	"disable_rate_limit":  "server.rate_limit_disabled",

	// Logging
	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",
}
