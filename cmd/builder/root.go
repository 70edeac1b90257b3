// ForYou - Content-Similarity Title Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/foryou

package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/tomtom215/foryou/internal/config"
	"github.com/tomtom215/foryou/internal/logging"
)

// cli carries state shared by the subcommands.
type cli struct {
	cfg          *config.Config
	artifactsDir string
	logLevel     string
}

func newRootCmd() *cobra.Command {
	c := &cli{}
	root := &cobra.Command{
		Use:           "foryou-builder",
		Short:         "Build and manage ForYou corpus artifacts",
		Version:       fmt.Sprintf("%s (%s)", version, commit),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.init(cmd)
		},
	}
	root.PersistentFlags().StringVar(&c.artifactsDir, "artifacts-dir", "", "artifact directory (default from ARTIFACTS_DIR)")
	root.PersistentFlags().StringVar(&c.logLevel, "log-level", "", "log level (default from LOG_LEVEL)")

	root.AddCommand(newBuildCmd(c), newVersionsCmd(c), newPruneCmd(c))
	return root
}

// init loads .env and the layered configuration, then applies the global
// flags on top.
func (c *cli) init(cmd *cobra.Command) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("read .env: %w", err)
	}
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	if cmd.Flags().Changed("artifacts-dir") {
		cfg.Artifacts.Dir = c.artifactsDir
	}
	if cmd.Flags().Changed("log-level") {
		cfg.Logging.Level = c.logLevel
	}
	logging.Init(logging.Config{
		Level:   cfg.Logging.Level,
		Format:  cfg.Logging.Format,
		Caller:  cfg.Logging.Caller,
		Service: "foryou-builder",
		Version: version,
		Output:  cmd.ErrOrStderr(),
	})
	c.cfg = cfg
	return nil
}
