// ForYou - Content-Similarity Title Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/foryou

package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tomtom215/foryou/internal/validation"
)

// normalize canonicalises values that users commonly write loosely.
func (c *Config) normalize() {
	for i, r := range c.Recommend.PriorityRegions {
		c.Recommend.PriorityRegions[i] = strings.ToUpper(strings.TrimSpace(r))
	}
	c.Recommend.ImageBaseURL = strings.TrimRight(c.Recommend.ImageBaseURL, "/")
	c.Trakt.BaseURL = strings.TrimRight(c.Trakt.BaseURL, "/")
	c.Logging.Level = strings.ToLower(c.Logging.Level)
	c.Logging.Format = strings.ToLower(c.Logging.Format)
}

// Validate checks field rules and cross-field constraints.
func (c *Config) Validate() error {
	if verr := validation.ValidateStruct(c); verr != nil {
		return verr
	}

	seen := make(map[string]bool, len(c.Recommend.PriorityRegions))
	for _, r := range c.Recommend.PriorityRegions {
		if seen[r] {
			return fmt.Errorf("recommend.priority_regions: duplicate region %q", r)
		}
		seen[r] = true
	}

	if c.History.Backend == "badger" && c.History.Path == "" {
		return errors.New("history.path is required for the badger backend")
	}
	if c.History.Backend == "redis" && c.History.RedisAddr == "" {
		return errors.New("history.redis_addr is required for the redis backend")
	}
	if c.Events.Backend == "nats" && c.Events.NATSURL == "" {
		return errors.New("events.nats_url is required for the nats backend")
	}
	if (c.Trakt.Username == "") != (c.Trakt.ClientID == "") {
		return errors.New("trakt.username and trakt.client_id must be set together")
	}
	return nil
}
