// ForYou - Content-Similarity Title Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/foryou

package main

import (
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/tomtom215/foryou/internal/builder"
	"github.com/tomtom215/foryou/internal/config"
	"github.com/tomtom215/foryou/internal/imdb"
	"github.com/tomtom215/foryou/internal/logging"
	"github.com/tomtom215/foryou/internal/recommend/storage"
)

type buildFlags struct {
	basics, akas, ratings, principals, names string

	minVotes     int
	minYear      int
	maxActors    int
	maxDirectors int
	retain       int
	regions      []string

	memoryLimit string
	threads     int
	statsJSON   bool
}

func newBuildCmd(c *cli) *cobra.Command {
	f := &buildFlags{}
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build and publish a new corpus version",
		Long: `Read the IMDb datasets, keep movies and series that pass the vote and
year thresholds, vectorise their feature documents and publish the result
as a new artifact version. Nothing is published when the build fails.

Examples:
  foryou-builder build
  foryou-builder build --basics ./data/title.basics.tsv.gz --min-votes 1000
  foryou-builder build --regions IN,GB --retain 5`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f.apply(cmd.Flags(), &c.cfg.Build, &c.cfg.Recommend)
			return runBuild(cmd, c.cfg, f.statsJSON)
		},
	}

	fl := cmd.Flags()
	fl.StringVar(&f.basics, "basics", "", "title.basics location (path or URL)")
	fl.StringVar(&f.akas, "akas", "", "title.akas location")
	fl.StringVar(&f.ratings, "ratings", "", "title.ratings location")
	fl.StringVar(&f.principals, "principals", "", "title.principals location")
	fl.StringVar(&f.names, "names", "", "name.basics location")
	fl.IntVar(&f.minVotes, "min-votes", 0, "minimum vote count")
	fl.IntVar(&f.minYear, "min-year", 0, "earliest start year")
	fl.IntVar(&f.maxActors, "max-actors", 0, "top-billed actors kept per title")
	fl.IntVar(&f.maxDirectors, "max-directors", 0, "directors kept per title (0 = all)")
	fl.IntVar(&f.retain, "retain", 0, "artifact versions kept after publishing")
	fl.StringSliceVar(&f.regions, "regions", nil, "priority regions, highest first")
	fl.StringVar(&f.memoryLimit, "memory-limit", "", "DuckDB memory limit, e.g. 4GB")
	fl.IntVar(&f.threads, "threads", 0, "DuckDB threads (0 = all CPUs)")
	fl.BoolVar(&f.statsJSON, "json", false, "print build statistics as JSON")
	return cmd
}

// apply copies the flags the user set onto the loaded configuration.
func (f *buildFlags) apply(fs *pflag.FlagSet, b *config.BuildConfig, r *config.RecommendConfig) {
	set := func(name string, fn func()) {
		if fs.Changed(name) {
			fn()
		}
	}
	set("basics", func() { b.BasicsURL = f.basics })
	set("akas", func() { b.AkasURL = f.akas })
	set("ratings", func() { b.RatingsURL = f.ratings })
	set("principals", func() { b.PrincipalsURL = f.principals })
	set("names", func() { b.NamesURL = f.names })
	set("min-votes", func() { b.MinimumVotesThreshold = f.minVotes })
	set("min-year", func() { b.YearFilterThreshold = f.minYear })
	set("max-actors", func() { b.MaxActors = f.maxActors })
	set("max-directors", func() { b.MaxDirectors = f.maxDirectors })
	set("retain", func() { b.RetainVersions = f.retain })
	set("regions", func() { r.PriorityRegions = f.regions })
	set("memory-limit", func() { b.MemoryLimit = f.memoryLimit })
	set("threads", func() { b.Threads = f.threads })
}

func builderConfig(cfg *config.Config) builder.Config {
	return builder.Config{
		MinimumVotesThreshold: cfg.Build.MinimumVotesThreshold,
		YearFilterThreshold:   cfg.Build.YearFilterThreshold,
		PriorityRegions:       append([]string(nil), cfg.Recommend.PriorityRegions...),
		MaxActors:             cfg.Build.MaxActors,
		MaxDirectors:          cfg.Build.MaxDirectors,
		RetainVersions:        cfg.Build.RetainVersions,
	}
}

func sourceOptions(cfg *config.Config) imdb.Options {
	return imdb.Options{
		BasicsURL:     cfg.Build.BasicsURL,
		AkasURL:       cfg.Build.AkasURL,
		RatingsURL:    cfg.Build.RatingsURL,
		PrincipalsURL: cfg.Build.PrincipalsURL,
		NamesURL:      cfg.Build.NamesURL,
		TitleTypes:    builder.RetainedTitleTypes,
		MinYear:       cfg.Build.YearFilterThreshold,
		Regions:       cfg.Recommend.PriorityRegions,
		Categories:    builder.CreditCategories,
		MemoryLimit:   cfg.Build.MemoryLimit,
		Threads:       cfg.Build.Threads,
	}
}

func runBuild(cmd *cobra.Command, cfg *config.Config, statsJSON bool) error {
	ctx := cmd.Context()
	logger := logging.Logger()

	store, err := storage.NewStore(cfg.Artifacts.Dir)
	if err != nil {
		return fmt.Errorf("open artifact store: %w", err)
	}
	src, err := imdb.Open(ctx, sourceOptions(cfg), logger)
	if err != nil {
		return err
	}
	defer src.Close()

	version, stats, err := builder.New(builderConfig(cfg), src, logger).Run(ctx, store)
	if err != nil {
		return fmt.Errorf("build failed: %w", err)
	}

	out := cmd.OutOrStdout()
	if statsJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			Version int64 `json:"version"`
			builder.Stats
		}{version, stats})
	}
	fmt.Fprintf(out, "Published version %d (%d titles, %d terms) in %s\n",
		version, stats.Qualified, stats.Vocabulary, stats.Duration.Round(time.Millisecond))
	return nil
}
