// ForYou - Content-Similarity Title Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/foryou

package sync

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/tomtom215/foryou/internal/config"
	"github.com/tomtom215/foryou/internal/models"
)

const (
	traktAPIVersion = "2"

	// MediaMovies and MediaShows are the Trakt watched-list collections.
	MediaMovies = "movies"
	MediaShows  = "shows"
)

// ErrUnexpectedStatus wraps non-retryable HTTP failures.
var ErrUnexpectedStatus = errors.New("trakt: unexpected status")

// TraktIDs holds the external identifiers Trakt attaches to an item.
type TraktIDs struct {
	Trakt int    `json:"trakt"`
	Slug  string `json:"slug,omitempty"`
	IMDb  string `json:"imdb,omitempty"`
	TMDb  int    `json:"tmdb,omitempty"`
}

// TraktMedia is the movie or show object inside a watched entry.
type TraktMedia struct {
	Title string   `json:"title"`
	Year  int      `json:"year,omitempty"`
	IDs   TraktIDs `json:"ids"`
}

// TraktWatched is one entry of /users/{user}/watched/{movies|shows}.
type TraktWatched struct {
	Plays         int         `json:"plays"`
	LastWatchedAt *time.Time  `json:"last_watched_at,omitempty"`
	Movie         *TraktMedia `json:"movie,omitempty"`
	Show          *TraktMedia `json:"show,omitempty"`
}

// Media returns the movie or show payload, whichever is set.
func (w *TraktWatched) Media() *TraktMedia {
	if w.Movie != nil {
		return w.Movie
	}
	return w.Show
}

// TraktClient talks to the Trakt public API. Requests are rate limited and
// retried with exponential backoff on 429 and 5xx responses.
type TraktClient struct {
	baseURL    string
	username   string
	clientID   string
	httpClient *http.Client
	limiter    *rate.Limiter

	maxRetries int
	retryDelay time.Duration
	logger     zerolog.Logger
}

// NewTraktClient creates a client from cfg.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewTraktClient(cfg *config.TraktConfig, logger zerolog.Logger) *TraktClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 2
	}
	delay := cfg.RetryDelay
	if delay <= 0 {
		delay = 2 * time.Second
	}
	return &TraktClient{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		username:   cfg.Username,
		clientID:   cfg.ClientID,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(rate.Limit(rps), 1),
		maxRetries: cfg.RetryAttempts,
		retryDelay: delay,
		logger:     logger.With().Str("component", "trakt-client").Logger(),
	}
}

// GetWatched fetches the user's full watched list for media (MediaMovies
// or MediaShows).
func (c *TraktClient) GetWatched(ctx context.Context, media string) ([]TraktWatched, error) {
	if media != MediaMovies && media != MediaShows {
		return nil, fmt.Errorf("trakt: unknown media type %q", media)
	}
	path := fmt.Sprintf("/users/%s/watched/%s", url.PathEscape(c.username), media)

	var out []TraktWatched
	if err := c.getJSON(ctx, path, &out); err != nil {
		return nil, fmt.Errorf("get watched %s: %w", media, err)
	}
	return out, nil
}

func (c *TraktClient) getJSON(ctx context.Context, path string, result interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, http.NoBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("trakt-api-version", traktAPIVersion)
	req.Header.Set("trakt-api-key", c.clientID)

	resp, err := c.doWithRetry(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// doWithRetry executes req, retrying 429 and 5xx responses and transport
// errors up to maxRetries times. A Retry-After header overrides the backoff.
func (c *TraktClient) doWithRetry(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	for attempt := 0; ; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		resp, err := c.httpClient.Do(req)
		var retryAfter time.Duration
		switch {
		case err != nil:
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			err = fmt.Errorf("execute request: %w", err)
		case resp.StatusCode == http.StatusOK:
			return resp, nil
		case retryable(resp.StatusCode):
			retryAfter = parseRetryAfter(resp.Header.Get("Retry-After"))
			drain(resp)
			err = fmt.Errorf("%w: %d %s", ErrUnexpectedStatus, resp.StatusCode, http.StatusText(resp.StatusCode))
		default:
			drain(resp)
			return nil, fmt.Errorf("%w: %d %s", ErrUnexpectedStatus, resp.StatusCode, http.StatusText(resp.StatusCode))
		}

		if attempt >= c.maxRetries {
			return nil, fmt.Errorf("after %d retries: %w", attempt, err)
		}

		delay := c.retryDelay * (1 << attempt)
		if retryAfter > 0 {
			delay = retryAfter
		}
		c.logger.Warn().Err(err).Dur("retry_delay", delay).Int("attempt", attempt+1).
			Int("max_retries", c.maxRetries).Msg("Trakt request failed, retrying")

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}
}

func retryable(status int) bool {
	return status == http.StatusTooManyRequests || status >= 500
}

func parseRetryAfter(v string) time.Duration {
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	return 0
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	_ = resp.Body.Close()
}

// WatchedViews converts Trakt entries of media into views. Entries without
// an IMDb ID are skipped; a missing last_watched_at falls back to now.
func WatchedViews(media string, items []TraktWatched, now time.Time) []models.View {
	kind := models.KindMovie
	if media == MediaShows {
		kind = models.KindSeries
	}
	views := make([]models.View, 0, len(items))
	seen := make(map[string]struct{}, len(items))
	for i := range items {
		m := items[i].Media()
		if m == nil || m.IDs.IMDb == "" {
			continue
		}
		if _, dup := seen[m.IDs.IMDb]; dup {
			continue
		}
		seen[m.IDs.IMDb] = struct{}{}

		ts := now
		if w := items[i].LastWatchedAt; w != nil && !w.IsZero() {
			ts = w.UTC()
		}
		views = append(views, models.View{
			TitleID:   m.IDs.IMDb,
			Kind:      kind,
			Timestamp: ts,
			Source:    models.SourceTrakt,
		})
	}
	return views
}
