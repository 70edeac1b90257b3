// ForYou - Content-Similarity Title Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/foryou

package imdb

import (
	"compress/gzip"
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/rs/zerolog"

	"github.com/tomtom215/foryou/internal/builder"
	"github.com/tomtom215/foryou/internal/models"
)

const (
	basicsTSV = "tconst\ttitleType\tprimaryTitle\toriginalTitle\tisAdult\tstartYear\tendYear\truntimeMinutes\tgenres\n" +
		"tt0000001\tmovie\tGangs of Mumbai\tGangs of Mumbai\t0\t2012\t\\N\t160\tCrime,Drama\n" +
		"tt0000002\ttvSeries\tSacred Games\tSacred Games\t0\t2018\t2019\t50\tCrime,Thriller\n" +
		"tt0000003\tmovie\tOld Classic\tOld Classic\t0\t1975\t\\N\t120\tDrama\n" +
		"tt0000004\ttvEpisode\tPilot\tPilot\t0\t2018\t\\N\t50\tCrime\n" +
		"tt0000005\tmovie\tNo Year\tNo Year\t0\t\\N\t\\N\t\\N\t\\N\n"

	akasTSV = "titleId\tordering\ttitle\tregion\tlanguage\ttypes\tattributes\tisOriginalTitle\n" +
		"tt0000001\t1\tGangs of Mumbai\tIN\thi\t\\N\t\\N\t0\n" +
		"tt0000001\t2\tGangs of Mumbai\tUS\t\\N\t\\N\t\\N\t0\n" +
		"tt0000002\t1\tSacred Games\t\\N\t\\N\toriginal\t\\N\t1\n" +
		"tt0000002\t2\tSacred Games\tGB\t\\N\t\\N\t\\N\t0\n"

	ratingsTSV = "tconst\taverageRating\tnumVotes\n" +
		"tt0000001\t8.2\t90000\n" +
		"tt0000002\t8.6\t120000\n" +
		"tt0000003\t9.0\t500000\n"

	principalsTSV = "tconst\tordering\tnconst\tcategory\tjob\tcharacters\n" +
		"tt0000001\t2\tnm0000002\tactress\t\\N\t[\"Mohsina\"]\n" +
		"tt0000001\t1\tnm0000001\tactor\t\\N\t[\"Faizal\"]\n" +
		"tt0000001\t3\tnm0000009\tdirector\t\\N\t\\N\n" +
		"tt0000001\t4\tnm0000008\twriter\tscreenplay\t\\N\n" +
		"tt0000002\t1\tnm0000009\tdirector\t\\N\t\\N\n"

	namesTSV = "nconst\tprimaryName\tbirthYear\tdeathYear\tprimaryProfession\tknownForTitles\n" +
		"nm0000001\tNawazuddin Siddiqui\t1974\t\\N\tactor\ttt0000001\n" +
		"nm0000002\tHuma Qureshi\t1986\t\\N\tactress\ttt0000001\n" +
		"nm0000008\tZeishan Quadri\t\\N\t\\N\twriter\ttt0000001\n" +
		"nm0000009\tAnurag Kashyap\t1972\t\\N\tdirector\ttt0000001,tt0000002\n"
)

func writeTSV(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func writeGzipTSV(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	zw := gzip.NewWriter(f)
	if _, err := zw.Write([]byte(content)); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}
	return path
}

func testOptions(t *testing.T) Options {
	t.Helper()
	dir := t.TempDir()
	return Options{
		BasicsURL:     writeGzipTSV(t, dir, "title.basics.tsv.gz", basicsTSV),
		AkasURL:       writeTSV(t, dir, "title.akas.tsv", akasTSV),
		RatingsURL:    writeTSV(t, dir, "title.ratings.tsv", ratingsTSV),
		PrincipalsURL: writeTSV(t, dir, "title.principals.tsv", principalsTSV),
		NamesURL:      writeGzipTSV(t, dir, "name.basics.tsv.gz", namesTSV),
		Threads:       1,
		MemoryLimit:   "256MB",
	}
}

func openSource(t *testing.T, opts Options) *DuckDBSource {
	t.Helper()
	src, err := Open(context.Background(), opts, zerolog.Nop())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { _ = src.Close() })
	return src
}

func TestOpen_RequiresAllLocations(t *testing.T) {
	opts := testOptions(t)
	opts.RatingsURL = ""
	if _, err := Open(context.Background(), opts, zerolog.Nop()); err == nil {
		t.Error("Open() accepted an empty ratings location")
	}
}

func TestDuckDBSource_Basics(t *testing.T) {
	src := openSource(t, testOptions(t))

	var got []builder.BasicsRecord
	err := src.Basics(context.Background(), func(r builder.BasicsRecord) error {
		got = append(got, r)
		return nil
	})
	if err != nil {
		t.Fatalf("Basics() error = %v", err)
	}
	if len(got) != 5 {
		t.Fatalf("read %d basics rows, want 5", len(got))
	}
	byID := make(map[string]builder.BasicsRecord)
	for _, r := range got {
		byID[r.ID] = r
	}
	if r := byID["tt0000001"]; r.StartYear != 2012 || !reflect.DeepEqual(r.Genres, []string{"Crime", "Drama"}) {
		t.Errorf("tt0000001 = %+v", r)
	}
	if r := byID["tt0000005"]; r.StartYear != 0 || r.Genres != nil {
		t.Errorf("\\N columns = %+v, want zero year and no genres", r)
	}
}

func TestDuckDBSource_PushdownFilters(t *testing.T) {
	opts := testOptions(t)
	opts.TitleTypes = builder.RetainedTitleTypes
	opts.MinYear = 1980
	opts.Regions = []string{"IN"}
	opts.Categories = builder.CreditCategories
	src := openSource(t, opts)
	ctx := context.Background()

	var basics []string
	if err := src.Basics(ctx, func(r builder.BasicsRecord) error {
		basics = append(basics, r.ID)
		return nil
	}); err != nil {
		t.Fatal(err)
	}
	if len(basics) != 2 {
		t.Errorf("filtered basics = %v, want tt0000001 and tt0000002", basics)
	}

	var regions []string
	if err := src.Akas(ctx, func(r builder.AkaRecord) error {
		regions = append(regions, r.TitleID+"/"+r.Region)
		return nil
	}); err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(regions, []string{"tt0000001/IN"}) {
		t.Errorf("filtered akas = %v", regions)
	}

	var categories []string
	if err := src.Principals(ctx, func(r builder.PrincipalRecord) error {
		categories = append(categories, r.Category)
		return nil
	}); err != nil {
		t.Fatal(err)
	}
	for _, c := range categories {
		if c == "writer" {
			t.Error("writer credit was not filtered out")
		}
	}
	if len(categories) != 4 {
		t.Errorf("principals = %v, want 4 credits", categories)
	}
}

func TestDuckDBSource_AkasSkipsMissingRegion(t *testing.T) {
	src := openSource(t, testOptions(t))
	n := 0
	err := src.Akas(context.Background(), func(r builder.AkaRecord) error {
		if r.Region == "" {
			t.Errorf("empty region for %s", r.TitleID)
		}
		n++
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if n != 3 {
		t.Errorf("akas rows = %d, want 3", n)
	}
}

func TestDuckDBSource_CallbackErrorStops(t *testing.T) {
	src := openSource(t, testOptions(t))
	stop := context.Canceled
	calls := 0
	err := src.Ratings(context.Background(), func(builder.RatingRecord) error {
		calls++
		return stop
	})
	if err != stop || calls != 1 {
		t.Errorf("Ratings() = %v after %d calls, want the callback error after 1", err, calls)
	}
}

func TestDuckDBSource_FeedsBuilder(t *testing.T) {
	opts := testOptions(t)
	opts.TitleTypes = builder.RetainedTitleTypes
	opts.MinYear = 1980
	src := openSource(t, opts)

	cfg := builder.DefaultConfig()
	cfg.PriorityRegions = []string{"IN", "GB"}
	set, stats, err := builder.New(cfg, src, zerolog.Nop()).Build(context.Background())
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if stats.Qualified != 2 || len(set.Titles) != 2 {
		t.Fatalf("qualified = %d, want 2", stats.Qualified)
	}
	first := set.Titles[0]
	if first.ID != "tt0000001" || first.PrimaryRegion != "IN" {
		t.Errorf("first title = %s region %s", first.ID, first.PrimaryRegion)
	}
	if want := []string{"NawazuddinSiddiqui", "HumaQureshi"}; !reflect.DeepEqual(first.Actors, want) {
		t.Errorf("actors = %v, want %v", first.Actors, want)
	}
	if set.Titles[1].PrimaryRegion != "GB" {
		t.Errorf("second title region = %s, want GB", set.Titles[1].PrimaryRegion)
	}
}

func TestQuoteLiteral(t *testing.T) {
	if got := quoteLiteral("/data/o'brien.tsv"); got != "'/data/o''brien.tsv'" {
		t.Errorf("quoteLiteral() = %s", got)
	}
	if got := inList("region", []string{"IN", "GB"}); got != "region IN ('IN', 'GB')" {
		t.Errorf("inList() = %s", got)
	}
	if got := where("", "a = 1", ""); got != " WHERE a = 1" {
		t.Errorf("where() = %q", got)
	}
}

func TestDuckDBSource_NoPriorityAliasesResolveToOther(t *testing.T) {
	opts := testOptions(t)
	opts.TitleTypes = builder.RetainedTitleTypes
	opts.MinYear = 1980
	opts.Regions = []string{"FR"}
	src := openSource(t, opts)

	cfg := builder.DefaultConfig()
	cfg.PriorityRegions = []string{"FR"}
	set, _, err := builder.New(cfg, src, zerolog.Nop()).Build(context.Background())
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if len(set.Titles) != 2 {
		t.Fatalf("titles = %d, want 2", len(set.Titles))
	}
	for _, title := range set.Titles {
		if title.PrimaryRegion != models.OtherRegion {
			t.Errorf("%s region = %s, want %s", title.ID, title.PrimaryRegion, models.OtherRegion)
		}
	}
}

func TestDuckDBSource_EmptyVersusFilteredOut(t *testing.T) {
	ctx := context.Background()

	t.Run("header only", func(t *testing.T) {
		opts := testOptions(t)
		opts.AkasURL = writeTSV(t, t.TempDir(), "title.akas.tsv", "titleId\tordering\ttitle\tregion\tlanguage\ttypes\tattributes\tisOriginalTitle\n")
		src := openSource(t, opts)
		err := src.Akas(ctx, func(builder.AkaRecord) error { return nil })
		if !errors.Is(err, builder.ErrEmptySource) {
			t.Errorf("Akas() error = %v, want ErrEmptySource", err)
		}
	})

	t.Run("every row filtered", func(t *testing.T) {
		opts := testOptions(t)
		opts.MinYear = 3000
		src := openSource(t, opts)
		calls := 0
		err := src.Basics(ctx, func(builder.BasicsRecord) error {
			calls++
			return nil
		})
		if err != nil || calls != 0 {
			t.Errorf("Basics() = %v after %d calls, want nil and no rows", err, calls)
		}
	})
}

func TestDuckDBSource_MalformedRowFails(t *testing.T) {
	opts := testOptions(t)
	opts.RatingsURL = writeTSV(t, t.TempDir(), "title.ratings.tsv", ratingsTSV+"tt0000009\t7.1\n")
	src := openSource(t, opts)

	err := src.Ratings(context.Background(), func(builder.RatingRecord) error { return nil })
	if err == nil {
		t.Fatal("Ratings() accepted a row with a missing column")
	}

	_, _, err = builder.New(builder.DefaultConfig(), src, zerolog.Nop()).Build(context.Background())
	if err == nil {
		t.Error("Build() succeeded over a corrupt ratings file")
	}
}
