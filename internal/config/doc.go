// ForYou - Content-Similarity Title Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/foryou

// Package config loads ForYou configuration with Koanf v2.
//
// Sources are layered, highest priority last:
//
//  1. Built-in defaults (defaultConfig)
//  2. Optional YAML file: CONFIG_PATH, ./config.yaml, /etc/foryou/config.yaml
//  3. Environment variables mapped through envTransformFunc
//
// Only mapped environment variables are read, so unrelated variables in the
// process environment never leak into configuration. List-valued settings
// such as PRIORITY_REGIONS are comma-separated:
//
//	PRIORITY_REGIONS=IN,GB,US
//	MINIMUM_RATING=6.5
//	TRAKT_USERNAME=alice TRAKT_CLIENT_ID=... TRAKT_SYNC_INTERVAL_MINUTES=30
//
// Load validates the result; the server refuses to start on invalid config.
package config
