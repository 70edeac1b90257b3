// ForYou - Content-Similarity Title Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/foryou

// Package logging provides the zerolog-based global logger used by every
// ForYou component.
//
// # Quick Start
//
//	logging.Init(logging.Config{Level: "info", Format: "json"})
//
//	logging.Info().Str("version", v).Msg("Corpus loaded")
//	logging.Ctx(ctx).Warn().Err(err).Msg("History unavailable")
//
// Components usually derive a child logger once and keep it:
//
//	logger := logging.With().Str("component", "trakt").Logger()
//
// # Configuration
//
//   - LOG_LEVEL: trace, debug, info, warn, error (default: info)
//   - LOG_FORMAT: json, console (default: json)
//   - LOG_CALLER: include caller file:line (default: false)
//
// # slog Bridge
//
// Libraries that only speak log/slog (sutureslog, Watermill) are handed an
// slog.Logger from NewSlogLogger, which writes through the same zerolog sink.
package logging
