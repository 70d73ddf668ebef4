// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the pkd-literature CLI. It searches
// PubMed, bioRxiv and medRxiv for polycystic kidney disease papers over a date
// window and writes spreadsheet and PDF reports.
package main

import (
	"context"
	"os"
	"os/signal"
	"sort"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/pdiddy/pkd-literature/internal/config"
	"github.com/pdiddy/pkd-literature/internal/observability"
	"github.com/pdiddy/pkd-literature/internal/secrets"
	"github.com/pdiddy/pkd-literature/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// Loaded by rootCmd before any subcommand runs.
var (
	cfg    types.Config
	logger = zerolog.Nop()
)

// flagKeys maps command-line flags onto config keys. Only flags defined on
// the running command are bound.
var flagKeys = map[string]string{
	"log-level":    "logging.level",
	"log-format":   "logging.format",
	"output":       "report.output_dir",
	"format":       "report.formats",
	"metrics-file": "report.metrics_file",
}

var rootCmd = &cobra.Command{
	Use:   "pkd-literature",
	Short: "Weekly polycystic kidney disease literature search",
	Long: `pkd-literature searches PubMed, bioRxiv and medRxiv for polycystic kidney
disease publications in a date window, removes cross-listed duplicates,
classifies every paper into a research category, and writes an xlsx
spreadsheet and a PDF summary.

Configuration comes from pkd-literature.yaml (./ or ~/.config/pkd-literature/),
PKD_LITERATURE_* environment variables and flags. NCBI credentials are read
from .secrets/ncbi-api-key and .secrets/ncbi-email.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return loadConfig(cmd)
	},
}

func loadConfig(cmd *cobra.Command) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	v := config.New(cfgFile, version)
	for name, key := range flagKeys {
		if f := cmd.Flags().Lookup(name); f != nil {
			if err := v.BindPFlag(key, f); err != nil {
				return err
			}
		}
	}

	loaded, err := config.Load(v)
	if err != nil {
		return err
	}
	logger = observability.NewLogger(loaded.Logging)
	if used := v.ConfigFileUsed(); used != "" {
		logger.Debug().Str("file", used).Msg("using config file")
	}

	s, err := secrets.Load(secrets.DefaultDir, logger)
	if err != nil {
		return err
	}
	if len(s) > 0 {
		keys := make([]string, 0, len(s))
		for k := range s {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		logger.Debug().Strs("keys", keys).Msg("loaded secrets")
	}
	secrets.Apply(&loaded, s)
	if err := config.Validate(loaded); err != nil {
		return err
	}
	cfg = loaded
	return nil
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file (default: ./pkd-literature.yaml or ~/.config/pkd-literature/pkd-literature.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level: trace, debug, info, warn, error")
	rootCmd.PersistentFlags().String("log-format", "", "log format: console or json")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
