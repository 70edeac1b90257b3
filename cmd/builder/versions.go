// ForYou - Content-Similarity Title Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/foryou

package main

import (
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/tomtom215/foryou/internal/recommend/storage"
)

func newVersionsCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "versions",
		Short: "List published artifact versions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := storage.NewStore(c.cfg.Artifacts.Dir)
			if err != nil {
				return fmt.Errorf("open artifact store: %w", err)
			}
			return listVersions(cmd, store)
		},
	}
}

func listVersions(cmd *cobra.Command, store *storage.Store) error {
	versions, err := store.Versions()
	if err != nil {
		return fmt.Errorf("list versions: %w", err)
	}
	current, err := store.CurrentVersion()
	if err != nil && !errors.Is(err, storage.ErrNoArtifacts) {
		return err
	}
	if len(versions) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No artifact versions published.")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "VERSION\tCURRENT\tTITLES\tTERMS\tBUILD ID\tBUILT AT")
	for _, v := range versions {
		mark := ""
		if v == current {
			mark = "*"
		}
		m, err := store.Manifest(v)
		if err != nil {
			fmt.Fprintf(w, "%d\t%s\t-\t-\t(%v)\t-\n", v, mark, err)
			continue
		}
		fmt.Fprintf(w, "%d\t%s\t%d\t%d\t%s\t%s\n", v, mark, m.Titles, m.Vocabulary, m.BuildID, m.BuiltAt.Format(time.RFC3339))
	}
	return w.Flush()
}

func newPruneCmd(c *cli) *cobra.Command {
	var keep int
	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete all but the newest artifact versions",
		Long: `Delete old artifact versions. The current version is never deleted.

Examples:
  foryou-builder prune
  foryou-builder prune --keep 1`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !cmd.Flags().Changed("keep") {
				keep = c.cfg.Build.RetainVersions
			}
			if keep < 1 {
				return fmt.Errorf("--keep must be at least 1, got %d", keep)
			}
			store, err := storage.NewStore(c.cfg.Artifacts.Dir)
			if err != nil {
				return fmt.Errorf("open artifact store: %w", err)
			}
			removed, err := store.Prune(cmd.Context(), keep)
			if err != nil {
				return fmt.Errorf("prune: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d version(s): %v\n", len(removed), removed)
			return nil
		},
	}
	cmd.Flags().IntVar(&keep, "keep", 0, "versions to keep (default from RETAIN_VERSIONS)")
	return cmd
}
