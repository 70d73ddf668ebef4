// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/go-pdf/fpdf"

	"github.com/pdiddy/pkd-literature/pkg/types"
)

// DocumentTitle heads the summary document.
const DocumentTitle = "POLYCYSTIC KIDNEY DISEASE LITERATURE REVIEW"

// notableSections lists the categories highlighted in the document and how
// many papers each shows.
var notableSections = []struct {
	category types.Category
	label    string
	limit    int
}{
	{types.CategoryMetabolism, "METABOLISM OR MITOCHONDRIA:", 3},
	{types.CategoryTherapeutics, "THERAPEUTICS:", 4},
	{types.CategoryCrossSpecies, "CROSS-SPECIES:", 4},
	{types.CategoryDatasets, "NEW DATA SETS:", 3},
}

type notable struct {
	Label  string
	Papers []types.Paper
}

// outline is the document content before layout.
type outline struct {
	Title   string
	Period  string
	Summary [][2]string
	Status  []string
	Notable []notable
	Papers  []types.Paper
}

func buildOutline(res *types.RunResult) outline {
	period := formatDate(res.Query.StartDate) + " to " + formatDate(res.Query.EndDate)
	o := outline{
		Title:  DocumentTitle,
		Period: period,
		Papers: res.Papers,
	}

	o.Summary = [][2]string{
		{"PubMed Articles:", strconv.Itoa(res.Stats.PerSource[types.SourcePubMed])},
		{"bioRxiv Preprints:", strconv.Itoa(res.Stats.PerSource[types.SourceBioRxiv])},
		{"medRxiv Preprints:", strconv.Itoa(res.Stats.PerSource[types.SourceMedRxiv])},
		{"Total Papers:", strconv.Itoa(res.Stats.Total)},
		{"Duplicates Removed:", strconv.Itoa(res.Stats.DuplicatesRemoved)},
		{"Date Range:", period},
	}

	degraded := res.Stats.Degraded()
	if len(degraded) == 0 {
		o.Status = []string{"All sources returned complete results."}
	}
	for _, r := range degraded {
		o.Status = append(o.Status, statusLine(r))
	}

	for _, s := range notableSections {
		papers := res.ByCategory(s.category)
		if len(papers) == 0 {
			continue
		}
		if len(papers) > s.limit {
			papers = papers[:s.limit]
		}
		o.Notable = append(o.Notable, notable{Label: s.label, Papers: papers})
	}
	return o
}

func statusLine(r types.SourceReport) string {
	var line string
	switch r.Status {
	case types.FetchFailed:
		line = fmt.Sprintf("%s: FAILED, no records retrieved", r.Source)
	default:
		line = fmt.Sprintf("%s: PARTIAL, %d records from %d of %d pages", r.Source, r.Fetched, r.PagesFetched, r.PagesFetched+r.PagesFailed)
	}
	if r.Error != "" {
		line += " (" + r.Error + ")"
	}
	return line
}

// Document renders a run as a PDF summary: totals and source status, notable
// findings for selected categories, and the complete citation list.
type Document struct {
	// NoCompression leaves page streams uncompressed.
	NoCompression bool
}

// Render writes the PDF for res to w.
func (d Document) Render(res *types.RunResult, w io.Writer) error {
	o := buildOutline(res)

	pdf := fpdf.New("P", "mm", "Letter", "")
	pdf.SetCompression(!d.NoCompression)
	pdf.SetTitle(o.Title, false)
	pdf.SetCreator("pkd-literature", false)
	pdf.SetMargins(18, 18, 18)
	pdf.SetAutoPageBreak(true, 18)
	pdf.AliasNbPages("")
	pdf.SetFooterFunc(func() {
		pdf.SetY(-12)
		pdf.SetFont("Helvetica", "I", 8)
		pdf.SetTextColor(120, 120, 120)
		pdf.CellFormat(0, 6, fmt.Sprintf("Page %d/{nb}", pdf.PageNo()), "", 0, "C", false, 0, "")
	})
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	heading := func(text string, size float64) {
		pdf.SetFont("Helvetica", "B", size)
		pdf.SetTextColor(0x36, 0x60, 0x92)
		pdf.MultiCell(0, size*0.5, tr(text), "", "L", false)
		pdf.Ln(2)
		pdf.SetTextColor(0, 0, 0)
	}
	body := func(style string, size float64, text string) {
		pdf.SetFont("Helvetica", style, size)
		pdf.MultiCell(0, 5, tr(text), "", "L", false)
	}
	link := func(label, target string) {
		pdf.SetTextColor(0, 0, 255)
		pdf.WriteLinkString(5, tr(label), target)
		pdf.SetTextColor(0, 0, 0)
	}

	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(0, 10, o.Title, "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 6, "Search Period: "+o.Period, "", 1, "C", false, 0, "")
	pdf.Ln(6)

	heading("SEARCH SUMMARY", 14)
	for _, row := range o.Summary {
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(55, 6, row[0], "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		pdf.CellFormat(0, 6, row[1], "", 1, "L", false, 0, "")
	}
	pdf.Ln(3)
	heading("SOURCE STATUS", 12)
	for _, line := range o.Status {
		body("", 10, line)
	}
	pdf.Ln(6)

	heading("NOTABLE FINDINGS", 14)
	if len(o.Notable) == 0 {
		body("I", 10, "No papers in the highlighted categories for this period.")
	}
	for _, sec := range o.Notable {
		heading(sec.Label, 12)
		for _, p := range sec.Papers {
			body("", 10, "- "+p.Title)
			pdf.SetFont("Helvetica", "", 9)
			pdf.Write(5, tr("Citation: "+AuthorList(p)+". "))
			if target := Link(p); target != "" {
				link(LinkLabel(p), target)
			}
			pdf.Ln(7)
		}
		pdf.Ln(3)
	}

	pdf.AddPage()
	heading(fmt.Sprintf("COMPLETE PAPER LIST (%d PAPERS)", len(o.Papers)), 14)
	for i, p := range o.Papers {
		body("B", 10, fmt.Sprintf("%d. %s", i+1, p.Title))
		body("", 9, citationLine(p))
		pdf.SetFont("Helvetica", "", 9)
		wrote := false
		if p.PMID != "" {
			link("PMID: "+p.PMID, types.PubMedURL(p.PMID))
			wrote = true
		}
		if p.DOI != "" {
			if wrote {
				pdf.Write(5, " | ")
			}
			link("DOI: "+p.DOI, types.DOIURL(p.DOI))
			wrote = true
		}
		if !wrote && p.URL != "" {
			link(p.URL, p.URL)
		}
		pdf.Ln(8)
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("writing pdf: %w", err)
	}
	return nil
}

func citationLine(p types.Paper) string {
	line := AuthorList(p) + ". " + p.Journal + "."
	if !p.PublicationDate.IsZero() {
		line += " " + strconv.Itoa(p.PublicationDate.Year()) + "."
	}
	return line
}
