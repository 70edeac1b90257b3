// ForYou - Content-Similarity Title Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/foryou

package imdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"runtime"
	"strings"
	"time"

	_ "github.com/duckdb/duckdb-go/v2" // DuckDB driver registration
	"github.com/rs/zerolog"

	"github.com/tomtom215/foryou/internal/builder"
)

// Options locates the five dataset files and bounds DuckDB's resources.
// Each location is a local path or an http(s) URL; gzip is detected from
// the .gz suffix.
type Options struct {
	BasicsURL     string
	AkasURL       string
	RatingsURL    string
	PrincipalsURL string
	NamesURL      string

	// Pushed down into SQL. The builder applies the same rules again, so
	// these only reduce how many rows cross the driver. A stream counts as
	// empty only when its file has no rows before these filters.
	TitleTypes []string
	MinYear    int
	Regions    []string
	Categories []string

	MemoryLimit string
	Threads     int
}

// DuckDBSource streams IMDb TSV datasets through DuckDB's CSV reader. It
// implements builder.Sources and may be read concurrently.
type DuckDBSource struct {
	db     *sql.DB
	opts   Options
	logger zerolog.Logger
}

var _ builder.Sources = (*DuckDBSource)(nil)

// Open starts an in-memory DuckDB instance. The httpfs extension is loaded
// when any location is remote.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func Open(ctx context.Context, opts Options, logger zerolog.Logger) (*DuckDBSource, error) {
	for name, loc := range map[string]string{
		"basics":     opts.BasicsURL,
		"akas":       opts.AkasURL,
		"ratings":    opts.RatingsURL,
		"principals": opts.PrincipalsURL,
		"names":      opts.NamesURL,
	} {
		if strings.TrimSpace(loc) == "" {
			return nil, fmt.Errorf("imdb: %s location is empty", name)
		}
	}

	threads := opts.Threads
	if threads <= 0 {
		threads = runtime.NumCPU()
	}
	memory := opts.MemoryLimit
	if memory == "" {
		memory = "2GB"
	}
	dsn := fmt.Sprintf("?threads=%d&max_memory=%s", threads, memory)

	db, err := sql.Open("duckdb", dsn)
	if err != nil {
		return nil, fmt.Errorf("imdb: open duckdb: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("imdb: ping duckdb: %w", err)
	}

	s := &DuckDBSource{
		db:     db,
		opts:   opts,
		logger: logger.With().Str("component", "imdb").Logger(),
	}
	if s.anyRemote() {
		if err := s.loadHTTPFS(ctx); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	return s, nil
}

// Close releases the DuckDB instance.
func (s *DuckDBSource) Close() error {
	return s.db.Close()
}

func (s *DuckDBSource) anyRemote() bool {
	for _, loc := range []string{s.opts.BasicsURL, s.opts.AkasURL, s.opts.RatingsURL, s.opts.PrincipalsURL, s.opts.NamesURL} {
		if isRemote(loc) {
			return true
		}
	}
	return false
}

// loadHTTPFS tries INSTALL then LOAD; an already installed extension only
// needs LOAD.
func (s *DuckDBSource) loadHTTPFS(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "INSTALL httpfs;"); err != nil {
		s.logger.Warn().Err(err).Msg("INSTALL httpfs failed, trying LOAD")
	}
	if _, err := s.db.ExecContext(ctx, "LOAD httpfs;"); err != nil {
		return fmt.Errorf("imdb: load httpfs: %w", err)
	}
	return nil
}

func isRemote(loc string) bool {
	l := strings.ToLower(loc)
	return strings.HasPrefix(l, "http://") || strings.HasPrefix(l, "https://") || strings.HasPrefix(l, "s3://")
}

// readCSV renders a read_csv call for an IMDb TSV file. Every column is
// read as VARCHAR and cast in the select list, since IMDb writes \N for
// missing values in numeric columns. Rows with the wrong column count fail
// the query, so a corrupt file aborts the build instead of thinning it.
func readCSV(loc string) string {
	return fmt.Sprintf(
		`read_csv(%s, delim='\t', header=true, quote='', escape='', nullstr='\N', all_varchar=true, strict_mode=true)`,
		quoteLiteral(loc))
}

func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// inList renders "col IN (...)" or "" when values is empty.
func inList(col string, values []string) string {
	if len(values) == 0 {
		return ""
	}
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = quoteLiteral(v)
	}
	return fmt.Sprintf("%s IN (%s)", col, strings.Join(quoted, ", "))
}

func where(conds ...string) string {
	var kept []string
	for _, c := range conds {
		if c != "" {
			kept = append(kept, c)
		}
	}
	if len(kept) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(kept, " AND ")
}

// stream runs query over the file at loc and hands each row to scan. The
// first error from the query, scan or context ends the stream. When no row
// matched, the file itself is checked so an empty file is reported as
// builder.ErrEmptySource while a filtered-out one is not.
func (s *DuckDBSource) stream(ctx context.Context, name, loc, query string, scan func(*sql.Rows) error) error {
	start := time.Now()
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return fmt.Errorf("imdb: query %s: %w", name, err)
	}
	defer func() { _ = rows.Close() }()

	n := 0
	for rows.Next() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := scan(rows); err != nil {
			return err
		}
		n++
	}
	if err := rows.Err(); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		return fmt.Errorf("imdb: read %s: %w", name, err)
	}
	s.logger.Debug().Str("stream", name).Int("rows", n).Dur("duration", time.Since(start)).Msg("stream read")

	if n == 0 {
		empty, err := s.fileEmpty(ctx, loc)
		if err != nil {
			return fmt.Errorf("imdb: check %s: %w", name, err)
		}
		if empty {
			return fmt.Errorf("%w: %s", builder.ErrEmptySource, name)
		}
	}
	return nil
}

// fileEmpty reports whether the file at loc has no data rows.
func (s *DuckDBSource) fileEmpty(ctx context.Context, loc string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM (SELECT 1 FROM `+readCSV(loc)+` LIMIT 1)`).Scan(&n)
	if err != nil {
		return false, err
	}
	return n == 0, nil
}

// Basics implements builder.Sources.
func (s *DuckDBSource) Basics(ctx context.Context, fn func(builder.BasicsRecord) error) error {
	query := `SELECT tconst, titleType, COALESCE(primaryTitle, ''), COALESCE(genres, ''),
		COALESCE(TRY_CAST(startYear AS INTEGER), 0)
		FROM ` + readCSV(s.opts.BasicsURL) + where(
		inList("titleType", s.opts.TitleTypes),
		minYearCond(s.opts.MinYear),
	)
	return s.stream(ctx, "basics", s.opts.BasicsURL, query, func(rows *sql.Rows) error {
		var r builder.BasicsRecord
		var genres string
		if err := rows.Scan(&r.ID, &r.TitleType, &r.PrimaryTitle, &genres, &r.StartYear); err != nil {
			return fmt.Errorf("imdb: scan basics: %w", err)
		}
		r.Genres = splitGenres(genres)
		return fn(r)
	})
}

func minYearCond(year int) string {
	if year <= 0 {
		return ""
	}
	return fmt.Sprintf("TRY_CAST(startYear AS INTEGER) >= %d", year)
}

// splitGenres splits IMDb's comma-separated genre column.
func splitGenres(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Akas implements builder.Sources. Rows without a region are skipped.
func (s *DuckDBSource) Akas(ctx context.Context, fn func(builder.AkaRecord) error) error {
	query := `SELECT titleId, region FROM ` + readCSV(s.opts.AkasURL) + where(
		"region IS NOT NULL",
		inList("region", s.opts.Regions),
	)
	return s.stream(ctx, "akas", s.opts.AkasURL, query, func(rows *sql.Rows) error {
		var r builder.AkaRecord
		if err := rows.Scan(&r.TitleID, &r.Region); err != nil {
			return fmt.Errorf("imdb: scan akas: %w", err)
		}
		return fn(r)
	})
}

// Ratings implements builder.Sources.
func (s *DuckDBSource) Ratings(ctx context.Context, fn func(builder.RatingRecord) error) error {
	query := `SELECT tconst, COALESCE(TRY_CAST(averageRating AS DOUBLE), 0),
		COALESCE(TRY_CAST(numVotes AS INTEGER), 0)
		FROM ` + readCSV(s.opts.RatingsURL)
	return s.stream(ctx, "ratings", s.opts.RatingsURL, query, func(rows *sql.Rows) error {
		var r builder.RatingRecord
		if err := rows.Scan(&r.TitleID, &r.AverageRating, &r.NumVotes); err != nil {
			return fmt.Errorf("imdb: scan ratings: %w", err)
		}
		return fn(r)
	})
}

// Principals implements builder.Sources.
func (s *DuckDBSource) Principals(ctx context.Context, fn func(builder.PrincipalRecord) error) error {
	query := `SELECT tconst, COALESCE(TRY_CAST(ordering AS INTEGER), 0), nconst, COALESCE(category, '')
		FROM ` + readCSV(s.opts.PrincipalsURL) + where(inList("category", s.opts.Categories))
	return s.stream(ctx, "principals", s.opts.PrincipalsURL, query, func(rows *sql.Rows) error {
		var r builder.PrincipalRecord
		if err := rows.Scan(&r.TitleID, &r.Ordering, &r.PersonID, &r.Category); err != nil {
			return fmt.Errorf("imdb: scan principals: %w", err)
		}
		return fn(r)
	})
}

// Names implements builder.Sources.
func (s *DuckDBSource) Names(ctx context.Context, fn func(builder.NameRecord) error) error {
	query := `SELECT nconst, primaryName FROM ` + readCSV(s.opts.NamesURL) + where("primaryName IS NOT NULL")
	return s.stream(ctx, "names", s.opts.NamesURL, query, func(rows *sql.Rows) error {
		var r builder.NameRecord
		if err := rows.Scan(&r.PersonID, &r.Name); err != nil {
			return fmt.Errorf("imdb: scan names: %w", err)
		}
		return fn(r)
	})
}
