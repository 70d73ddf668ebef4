// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/pkd-literature/internal/observability"
	"github.com/pdiddy/pkd-literature/internal/pipeline"
	"github.com/pdiddy/pkd-literature/internal/report"
	"github.com/pdiddy/pkd-literature/pkg/types"
)

// defaultWindow is how far --start reaches back from --end when omitted.
const defaultWindow = 7 * 24 * time.Hour

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Search PubMed, bioRxiv and medRxiv and write reports",
	Long: `Search queries every enabled source for PKD papers published between
--start and --end (inclusive), deduplicates cross-listed papers in source
order, classifies them, prints a summary and writes the requested reports to
--output. Reports are written even when a source fails; the PDF summary
names every failed or partial source.`,
	Example: `  pkd-literature search
  pkd-literature search --start 2026-02-01 --end 2026-02-08
  pkd-literature search --end 2026-02-08 --output /tmp --format xlsx,pdf,yaml`,
	RunE: runSearch,
}

func runSearch(cmd *cobra.Command, args []string) error {
	startFlag, _ := cmd.Flags().GetString("start")
	endFlag, _ := cmd.Flags().GetString("end")
	start, end, err := resolveRange(startFlag, endFlag, time.Now())
	if err != nil {
		return err
	}
	kinds, err := parseKinds(cfg.Report.Formats)
	if err != nil {
		return err
	}

	metrics := observability.NewMetrics()
	p := pipeline.FromConfig(cfg, logger, metrics)
	res, err := p.Run(cmd.Context(), start, end)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	printSummary(out, res)

	paths, err := report.WriteAll(cfg.Report.OutputDir, res, kinds, time.Now())
	printWritten(out, paths)
	if err != nil {
		return err
	}

	if cfg.Report.MetricsFile != "" {
		if err := metrics.WriteTextfile(cfg.Report.MetricsFile); err != nil {
			return fmt.Errorf("writing metrics: %w", err)
		}
		logger.Debug().Str("file", cfg.Report.MetricsFile).Msg("metrics written")
	}
	return nil
}

// resolveRange parses the --start/--end flags. A missing end is today and a
// missing start is seven days before the end.
func resolveRange(startFlag, endFlag string, now time.Time) (time.Time, time.Time, error) {
	end := types.Day(now)
	if endFlag != "" {
		t, err := types.ParseDate(endFlag)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid --end %q: dates must be YYYY-MM-DD", endFlag)
		}
		end = t
	}
	start := end.Add(-defaultWindow)
	if startFlag != "" {
		t, err := types.ParseDate(startFlag)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid --start %q: dates must be YYYY-MM-DD", startFlag)
		}
		start = t
	}
	return start, end, nil
}

func parseKinds(names []string) ([]report.Kind, error) {
	var kinds []report.Kind
	seen := make(map[report.Kind]bool)
	for _, name := range names {
		k, ok := report.ParseKind(strings.ToLower(strings.TrimSpace(name)))
		if !ok {
			return nil, fmt.Errorf("unknown report format %q (want xlsx, pdf, csl or yaml)", name)
		}
		if !seen[k] {
			seen[k] = true
			kinds = append(kinds, k)
		}
	}
	return kinds, nil
}

func printSummary(w io.Writer, res *types.RunResult) {
	q := res.Query
	fmt.Fprintf(w, "PKD literature search %s to %s\n", q.StartDate.Format(types.DateLayout), q.EndDate.Format(types.DateLayout))
	fmt.Fprintln(w, strings.Repeat("=", 60))
	fmt.Fprintf(w, "Total papers: %d (duplicates removed: %d)\n", res.Stats.Total, res.Stats.DuplicatesRemoved)

	for _, r := range res.Stats.Sources {
		line := fmt.Sprintf("  %-10s %4d", string(r.Source)+":", res.Stats.PerSource[r.Source])
		if r.Degraded() {
			line += "  [" + strings.ToUpper(string(r.Status)) + "]"
			if r.Error != "" {
				line += " " + r.Error
			}
		}
		fmt.Fprintln(w, line)
	}

	fmt.Fprintln(w, "By category:")
	for _, c := range types.Categories {
		if n := res.Stats.PerCategory[c]; n > 0 {
			fmt.Fprintf(w, "  %-16s %4d\n", string(c)+":", n)
		}
	}
	if res.Stats.Total == 0 {
		fmt.Fprintln(w, "No papers found for this date range.")
	}
}

func printWritten(w io.Writer, paths []string) {
	if len(paths) == 0 {
		return
	}
	fmt.Fprintln(w, "Reports generated:")
	for _, p := range paths {
		fmt.Fprintf(w, "  %s\n", p)
	}
}

func init() {
	searchCmd.Flags().String("start", "", "window start (YYYY-MM-DD); default: 7 days before --end")
	searchCmd.Flags().String("end", "", "window end (YYYY-MM-DD); default: today")
	addReportFlags(searchCmd)
	searchCmd.Flags().String("metrics-file", "", "write Prometheus metrics in text format to this file")

	rootCmd.AddCommand(searchCmd)
}

func addReportFlags(cmd *cobra.Command) {
	cmd.Flags().String("output", "", "output directory for reports (default: report.output_dir, \".\")")
	cmd.Flags().StringSlice("format", nil, "reports to write: xlsx, pdf, csl, yaml (default: xlsx,pdf)")
}
