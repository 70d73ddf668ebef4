// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package report

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/pdiddy/pkd-literature/pkg/types"
)

// Sheet names in the workbook.
const (
	PapersSheet  = "PKD Literature"
	SummarySheet = "Run Summary"
)

const headerColor = "366092"

type column struct {
	header string
	width  float64
	value  func(types.Paper) string
}

var paperColumns = []column{
	{"Summary", 35, func(p types.Paper) string { return Summary(p.Title, SummaryWords) }},
	{"Last Author", 15, LastAuthor},
	{"Journal", 25, func(p types.Paper) string { return p.Journal }},
	{"Key Findings", 60, func(p types.Paper) string { return KeyFindings(p.Title, KeyFindingsWords) }},
	{"Category", 16, func(p types.Paper) string { return string(p.Category) }},
	{"Source", 10, func(p types.Paper) string { return string(p.Source) }},
	{"Date", 12, func(p types.Paper) string { return formatDate(p.PublicationDate) }},
	{"Link", 45, Link},
}

// Spreadsheet renders a run as an xlsx workbook: one row per paper with a
// clickable link, plus a sheet of run statistics.
type Spreadsheet struct{}

// Render writes the workbook for res to w.
func (Spreadsheet) Render(res *types.RunResult, w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", PapersSheet); err != nil {
		return fmt.Errorf("naming sheet: %w", err)
	}
	if err := writePapers(f, res.Papers); err != nil {
		return err
	}
	if _, err := f.NewSheet(SummarySheet); err != nil {
		return fmt.Errorf("adding summary sheet: %w", err)
	}
	if err := writeStats(f, res); err != nil {
		return err
	}
	if err := f.Write(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

func writePapers(f *excelize.File, papers []types.Paper) error {
	header, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF", Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{headerColor}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}
	link, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Color: "0563C1", Underline: "single"},
	})
	if err != nil {
		return fmt.Errorf("link style: %w", err)
	}

	for i, col := range paperColumns {
		name, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetColWidth(PapersSheet, name, name, col.width); err != nil {
			return err
		}
		cell := name + "1"
		if err := f.SetCellValue(PapersSheet, cell, col.header); err != nil {
			return err
		}
		if err := f.SetCellStyle(PapersSheet, cell, cell, header); err != nil {
			return err
		}
	}
	if err := f.SetPanes(PapersSheet, &excelize.Panes{
		Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft",
	}); err != nil {
		return fmt.Errorf("freezing header: %w", err)
	}

	linkCol := len(paperColumns)
	for r, p := range papers {
		row := r + 2
		for c, col := range paperColumns {
			cell, _ := excelize.CoordinatesToCellName(c+1, row)
			v := col.value(p)
			if err := f.SetCellValue(PapersSheet, cell, v); err != nil {
				return err
			}
			if c+1 == linkCol && v != "" {
				if err := f.SetCellHyperLink(PapersSheet, cell, v, "External"); err != nil {
					return fmt.Errorf("linking %s: %w", cell, err)
				}
				if err := f.SetCellStyle(PapersSheet, cell, cell, link); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func writeStats(f *excelize.File, res *types.RunResult) error {
	rows := [][]any{
		{"Run ID", res.RunID},
		{"Date Range", formatDate(res.Query.StartDate) + " to " + formatDate(res.Query.EndDate)},
		{"Total Papers", res.Stats.Total},
		{"Duplicates Removed", res.Stats.DuplicatesRemoved},
		{"Out of Window", res.Stats.OutOfWindow},
		{},
		{"Source", "Papers", "Fetched", "Status", "Pages", "Failed Pages", "Error"},
	}
	for _, r := range res.Stats.Sources {
		rows = append(rows, []any{string(r.Source), res.Stats.PerSource[r.Source], r.Fetched, string(r.Status), r.PagesFetched, r.PagesFailed, r.Error})
	}
	rows = append(rows, []any{}, []any{"Category", "Papers"})
	for _, c := range categoryOrder(res.Stats.PerCategory) {
		rows = append(rows, []any{string(c), res.Stats.PerCategory[c]})
	}

	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(SummarySheet, cell, &row); err != nil {
			return fmt.Errorf("summary row %d: %w", i+1, err)
		}
	}
	return f.SetColWidth(SummarySheet, "A", "A", 20)
}

// categoryOrder lists the categories present in counts, known categories in
// priority order first and any others alphabetically after.
func categoryOrder(counts map[types.Category]int) []types.Category {
	var out []types.Category
	known := make(map[types.Category]bool)
	for _, c := range types.Categories {
		known[c] = true
		if counts[c] > 0 {
			out = append(out, c)
		}
	}
	var extra []types.Category
	for c, n := range counts {
		if !known[c] && n > 0 {
			extra = append(extra, c)
		}
	}
	sort.Slice(extra, func(i, j int) bool { return extra[i] < extra[j] })
	return append(out, extra...)
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(types.DateLayout)
}
