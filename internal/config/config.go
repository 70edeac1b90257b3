// ForYou - Content-Similarity Title Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/foryou

package config

import (
	"fmt"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Recommend RecommendConfig `koanf:"recommend"`
	Build     BuildConfig     `koanf:"build"`
	Artifacts ArtifactsConfig `koanf:"artifacts"`
	History   HistoryConfig   `koanf:"history"`
	Events    EventsConfig    `koanf:"events"`
	Trakt     TraktConfig     `koanf:"trakt"`
	Server    ServerConfig    `koanf:"server"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// RecommendConfig holds request-time ranking settings.
type RecommendConfig struct {
	PageSize         int      `koanf:"page_size" validate:"gte=1,lte=500"`
	PriorityRegions  []string `koanf:"priority_regions" validate:"dive,region"`
	HistorySeedCount int      `koanf:"history_seed_count" validate:"gte=1,lte=100"`
	TotalLimit       int      `koanf:"total_limit" validate:"gte=0"`
	MinimumRating    float64  `koanf:"minimum_rating" validate:"gte=0,lte=10"`

	// NeighborsPerSeed caps how many new candidates one seed may contribute.
	// 0 (the default) lets a seed fill the whole pool.
	NeighborsPerSeed int `koanf:"neighbors_per_seed" validate:"gte=0"`

	// CandidatePoolSize is the pool target. 0 derives it as
	// HistorySeedCount * NeighborsPerSeed (or TotalLimit when unbounded).
	CandidatePoolSize int `koanf:"candidate_pool_size" validate:"gte=0"`

	ImageBaseURL string `koanf:"image_base_url" validate:"required,url"`

	RankingCacheSize int           `koanf:"ranking_cache_size" validate:"gte=0"`
	RankingCacheTTL  time.Duration `koanf:"ranking_cache_ttl"`
}

// PoolTarget returns the effective candidate pool target.
func (c *RecommendConfig) PoolTarget() int {
	if c.CandidatePoolSize > 0 {
		return c.CandidatePoolSize
	}
	if c.NeighborsPerSeed > 0 {
		return c.HistorySeedCount * c.NeighborsPerSeed
	}
	return c.TotalLimit
}

// BuildConfig holds corpus builder settings.
type BuildConfig struct {
	MinimumVotesThreshold int `koanf:"minimum_votes_threshold" validate:"gte=0"`
	YearFilterThreshold   int `koanf:"year_filter_threshold" validate:"gte=1870"`
	MaxActors             int `koanf:"max_actors" validate:"gte=0,lte=10"`
	MaxDirectors          int `koanf:"max_directors" validate:"gte=0"` // 0 = no cap
	RetainVersions        int `koanf:"retain_versions" validate:"gte=1"`

	BasicsURL     string `koanf:"basics_url" validate:"required"`
	AkasURL       string `koanf:"akas_url" validate:"required"`
	RatingsURL    string `koanf:"ratings_url" validate:"required"`
	PrincipalsURL string `koanf:"principals_url" validate:"required"`
	NamesURL      string `koanf:"names_url" validate:"required"`

	// DuckDB resources for dataset ingestion.
	MemoryLimit string `koanf:"memory_limit"`
	Threads     int    `koanf:"threads" validate:"gte=0"`
}

// ArtifactsConfig locates the published artifact sets.
type ArtifactsConfig struct {
	Dir            string        `koanf:"dir" validate:"required"`
	ReloadInterval time.Duration `koanf:"reload_interval"`
}

// HistoryConfig selects and configures the watch-history backend.
type HistoryConfig struct {
	Backend string `koanf:"backend" validate:"oneof=badger redis"`

	// Path is the BadgerDB directory.
	Path string `koanf:"path"`

	RedisAddr     string `koanf:"redis_addr"`
	RedisPassword string `koanf:"redis_password"`
	RedisDB       int    `koanf:"redis_db" validate:"gte=0"`
	RedisPrefix   string `koanf:"redis_prefix"`
}

// EventsConfig selects the watch event bus backend.
type EventsConfig struct {
	Backend    string `koanf:"backend" validate:"oneof=channel nats"`
	Topic      string `koanf:"topic" validate:"required"`
	BufferSize int    `koanf:"buffer_size" validate:"gte=0"`

	NATSURL       string        `koanf:"nats_url"`
	MaxReconnects int           `koanf:"nats_max_reconnects"`
	ReconnectWait time.Duration `koanf:"nats_reconnect_wait"`
	DurableName   string        `koanf:"nats_durable_name"`
	QueueGroup    string        `koanf:"nats_queue_group"`
}

// TraktConfig configures the Trakt watched-history sync.
type TraktConfig struct {
	Username            string        `koanf:"username"`
	ClientID            string        `koanf:"client_id"`
	BaseURL             string        `koanf:"base_url" validate:"required,url"`
	SyncIntervalMinutes int           `koanf:"sync_interval_minutes" validate:"gte=1"`
	Timeout             time.Duration `koanf:"timeout"`
	RequestsPerSecond   float64       `koanf:"requests_per_second" validate:"gt=0"`
	RetryAttempts       int           `koanf:"retry_attempts" validate:"gte=0"`
	RetryDelay          time.Duration `koanf:"retry_delay"`
}

// Enabled reports whether both the username and client ID are configured.
func (c *TraktConfig) Enabled() bool {
	return c.Username != "" && c.ClientID != ""
}

// SyncInterval returns the sync period as a duration.
func (c *TraktConfig) SyncInterval() time.Duration {
	return time.Duration(c.SyncIntervalMinutes) * time.Minute
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port" validate:"gte=1,lte=65535"`
	Timeout         time.Duration `koanf:"timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`

	CORSOrigins       []string      `koanf:"cors_origins"`
	RateLimitRequests int           `koanf:"rate_limit_reqs" validate:"gte=0"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
}

// Addr returns host:port for net/http.
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// LoggingConfig holds logger settings.
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error"`
	Format string `koanf:"format" validate:"oneof=json console"`
	Caller bool   `koanf:"caller"`
}
