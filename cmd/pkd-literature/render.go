// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/pkd-literature/internal/report"
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Re-render reports from a saved search snapshot",
	Long: `Render reads a snapshot written by "search --format yaml" and writes the
requested reports without querying any source.`,
	RunE: runRender,
}

func runRender(cmd *cobra.Command, args []string) error {
	from, _ := cmd.Flags().GetString("from")
	if from == "" {
		return fmt.Errorf("--from is required")
	}
	snap, err := report.ReadSnapshot(from)
	if err != nil {
		return err
	}
	kinds, err := parseKinds(cfg.Report.Formats)
	if err != nil {
		return err
	}

	res := &snap.Result
	logger.Info().
		Str("run_id", res.RunID).
		Int("papers", len(res.Papers)).
		Time("generated_at", snap.GeneratedAt).
		Msg("rendering snapshot")

	out := cmd.OutOrStdout()
	printSummary(out, res)
	paths, err := report.WriteAll(cfg.Report.OutputDir, res, kinds, time.Now())
	printWritten(out, paths)
	return err
}

func init() {
	renderCmd.Flags().String("from", "", "snapshot file (YYYYMMDD-PKD-Literature-Results.yaml)")
	addReportFlags(renderCmd)
	rootCmd.AddCommand(renderCmd)
}
