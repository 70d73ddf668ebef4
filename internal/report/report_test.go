// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package report

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/pkd-literature/internal/topic"
	"github.com/pdiddy/pkd-literature/pkg/types"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// sampleResult is a small run: one PubMed paper, one medRxiv preprint, and a
// failed bioRxiv fetch.
func sampleResult() *types.RunResult {
	return &types.RunResult{
		RunID: "run-1",
		Query: topic.PKD().Query(day(2026, 2, 1), day(2026, 2, 7)),
		Papers: []types.Paper{
			{
				Source: types.SourcePubMed, DOI: "10.1000/x", PMID: "40000001",
				Title:              "PKD1 mutation analysis in a multi-generational family cohort with variable disease severity",
				Authors:            []string{"Ana Silva", "Tomas Berg"},
				LastAuthorLastName: "Berg", Journal: "Kidney International",
				PublicationDate: day(2026, 2, 3), URL: "https://doi.org/10.1000/x",
				Category: types.CategoryGenetics,
			},
			{
				Source: types.SourceMedRxiv, DOI: "10.1101/2026.02.04.1",
				Title:   "Tolvaptan and kidney volume",
				Authors: []string{"Okafor, N.", "Ruiz, P."}, Journal: "medRxiv",
				PublicationDate: day(2026, 2, 4), URL: "https://doi.org/10.1101/2026.02.04.1",
				Category: types.CategoryTherapeutics,
			},
		},
		Stats: types.Stats{
			Total:             2,
			PerSource:         map[types.SourceDatabase]int{types.SourcePubMed: 1, types.SourceBioRxiv: 0, types.SourceMedRxiv: 1},
			PerCategory:       map[types.Category]int{types.CategoryGenetics: 1, types.CategoryTherapeutics: 1},
			DuplicatesRemoved: 1,
			Sources: []types.SourceReport{
				{Source: types.SourcePubMed, Status: types.FetchSucceeded, Fetched: 2, PagesFetched: 2},
				{Source: types.SourceBioRxiv, Status: types.FetchFailed, Error: "permanent fetch error (HTTP 403): https://api.biorxiv.org"},
				{Source: types.SourceMedRxiv, Status: types.FetchSucceeded, Fetched: 1, PagesFetched: 1},
			},
		},
	}
}

func TestSummary(t *testing.T) {
	tests := []struct {
		title string
		want  string
	}{
		{"Tolvaptan and kidney volume", "Tolvaptan and kidney volume"},
		{"one two three four five six seven", "one two three four five six seven"},
		{"Polycystin-1 regulates mitochondrial fission in renal epithelial cells today", "Polycystin-1 regulates mitochondrial fission in renal..."},
		{"one two three four five six, seven eight", "one two three four five six..."},
		{"  spaced   out  ", "spaced out"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Summary(tt.title, SummaryWords), tt.title)
	}
}

func TestKeyFindings(t *testing.T) {
	assert.Equal(t, "The role of cilia in ADPKD", KeyFindings("The role of cilia in ADPKD", KeyFindingsWords))
	assert.Equal(t, "ADPKD a review", KeyFindings("ADPKD: a review", KeyFindingsWords))
	assert.Equal(t,
		"Analysis effects tolvaptan kidney volume function large multicenter cohort adults ADPKD",
		KeyFindings("Analysis of the effects of tolvaptan on kidney volume and function in a large multicenter cohort of adults with ADPKD", KeyFindingsWords))

	long := strings.TrimSpace(strings.Repeat("cyst ", 25))
	assert.Len(t, strings.Fields(KeyFindings(long, KeyFindingsWords)), 20)
}

func TestLinkHelpers(t *testing.T) {
	both := types.Paper{DOI: "10.1/a", PMID: "123"}
	assert.Equal(t, "https://doi.org/10.1/a", Link(both))
	assert.Equal(t, "PMID: 123", LinkLabel(both))

	pmidOnly := types.Paper{PMID: "123"}
	assert.Equal(t, "https://pubmed.ncbi.nlm.nih.gov/123/", Link(pmidOnly))

	doiOnly := types.Paper{DOI: "10.1/a"}
	assert.Equal(t, "DOI: 10.1/a", LinkLabel(doiOnly))

	assert.Empty(t, Link(types.Paper{}))
	assert.Empty(t, LinkLabel(types.Paper{}))
}

func TestLastAuthor(t *testing.T) {
	assert.Equal(t, "Berg", LastAuthor(types.Paper{LastAuthorLastName: "Berg", Authors: []string{"X Y"}}))
	assert.Equal(t, "Ruiz", LastAuthor(types.Paper{Authors: []string{"Okafor, N.", "Ruiz, P."}}))
	assert.Equal(t, "Doe", LastAuthor(types.Paper{Authors: []string{"Jane Doe"}}))
	assert.Empty(t, LastAuthor(types.Paper{}))
}

func TestSpreadsheet(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Spreadsheet{}.Render(sampleResult(), &buf))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{PapersSheet, SummarySheet}, f.GetSheetList())

	rows, err := f.GetRows(PapersSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Summary", "Last Author", "Journal", "Key Findings", "Category", "Source", "Date", "Link"}, rows[0])
	assert.Equal(t, "PKD1 mutation analysis in a multi-generational...", rows[1][0])
	assert.Equal(t, "Berg", rows[1][1])
	assert.Equal(t, "Kidney International", rows[1][2])
	assert.Equal(t, "Genetics", rows[1][4])
	assert.Equal(t, "PubMed", rows[1][5])
	assert.Equal(t, "2026-02-03", rows[1][6])
	assert.Equal(t, "Ruiz", rows[2][1])

	ok, target, err := f.GetCellHyperLink(PapersSheet, "H2")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "https://doi.org/10.1000/x", target)

	total, err := f.GetCellValue(SummarySheet, "B3")
	require.NoError(t, err)
	assert.Equal(t, "2", total)
	status, err := f.GetCellValue(SummarySheet, "D9")
	require.NoError(t, err)
	assert.Equal(t, "failed", status)
}

func TestSpreadsheet_NoPapers(t *testing.T) {
	res := &types.RunResult{Query: topic.PKD().Query(day(2026, 2, 5), day(2026, 2, 5))}
	var buf bytes.Buffer
	require.NoError(t, Spreadsheet{}.Render(res, &buf))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(PapersSheet)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestOutline(t *testing.T) {
	o := buildOutline(sampleResult())

	assert.Equal(t, DocumentTitle, o.Title)
	assert.Equal(t, "2026-02-01 to 2026-02-07", o.Period)
	assert.Contains(t, o.Summary, [2]string{"PubMed Articles:", "1"})
	assert.Contains(t, o.Summary, [2]string{"bioRxiv Preprints:", "0"})
	assert.Contains(t, o.Summary, [2]string{"Total Papers:", "2"})

	require.Len(t, o.Status, 1)
	assert.True(t, strings.HasPrefix(o.Status[0], "bioRxiv: FAILED"))
	assert.Contains(t, o.Status[0], "HTTP 403")

	require.Len(t, o.Notable, 1)
	assert.Equal(t, "THERAPEUTICS:", o.Notable[0].Label)
	assert.Len(t, o.Papers, 2)
}

func TestOutline_NotableLimitsAndOrder(t *testing.T) {
	res := &types.RunResult{Query: topic.PKD().Query(day(2026, 2, 1), day(2026, 2, 7))}
	add := func(c types.Category, n int) {
		for i := 0; i < n; i++ {
			res.Papers = append(res.Papers, types.Paper{Title: fmt.Sprintf("%s %d", c, i), Category: c})
		}
	}
	add(types.CategoryDatasets, 5)
	add(types.CategoryMetabolism, 5)
	add(types.CategoryCrossSpecies, 5)
	add(types.CategoryTherapeutics, 5)
	add(types.CategoryClinical, 5)

	o := buildOutline(res)
	require.Len(t, o.Notable, 4)
	labels := []string{o.Notable[0].Label, o.Notable[1].Label, o.Notable[2].Label, o.Notable[3].Label}
	assert.Equal(t, []string{"METABOLISM OR MITOCHONDRIA:", "THERAPEUTICS:", "CROSS-SPECIES:", "NEW DATA SETS:"}, labels)
	assert.Len(t, o.Notable[0].Papers, 3)
	assert.Len(t, o.Notable[1].Papers, 4)
	assert.Len(t, o.Notable[2].Papers, 4)
	assert.Len(t, o.Notable[3].Papers, 3)
	assert.Equal(t, []string{"All sources returned complete results."}, o.Status)
}

func TestStatusLine_Partial(t *testing.T) {
	line := statusLine(types.SourceReport{Source: types.SourceMedRxiv, Status: types.FetchPartial, Fetched: 40, PagesFetched: 2, PagesFailed: 1})
	assert.Equal(t, "medRxiv: PARTIAL, 40 records from 2 of 3 pages", line)
}

func TestDocument(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Document{NoCompression: true}.Render(sampleResult(), &buf))

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "%PDF-"))
	assert.Contains(t, out, DocumentTitle)
	assert.Contains(t, out, "https://pubmed.ncbi.nlm.nih.gov/40000001/")
	assert.Contains(t, out, "https://doi.org/10.1101/2026.02.04.1")
}

func TestDocument_NoPapers(t *testing.T) {
	res := &types.RunResult{Query: topic.PKD().Query(day(2026, 2, 5), day(2026, 2, 5))}
	var buf bytes.Buffer
	require.NoError(t, Document{}.Render(res, &buf))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
}

func TestFormatCSL(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, FormatCSL(sampleResult().Papers, &buf))

	var items []CSLItem
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &items))
	require.Len(t, items, 2)

	pm := items[0]
	assert.Equal(t, "10.1000/x", pm.ID)
	assert.Equal(t, "article-journal", pm.Type)
	assert.Equal(t, "Kidney International", pm.ContainerTitle)
	assert.Equal(t, "40000001", pm.PMID)
	assert.Equal(t, []CSLName{{Given: "Ana", Family: "Silva"}, {Given: "Tomas", Family: "Berg"}}, pm.Author)
	require.NotNil(t, pm.Issued)
	assert.Equal(t, [][]int{{2026, 2, 3}}, pm.Issued.DateParts)
	assert.Equal(t, "Genetics", pm.Keyword)

	mx := items[1]
	assert.Equal(t, "article", mx.Type)
	assert.Equal(t, []CSLName{{Family: "Okafor", Given: "N."}, {Family: "Ruiz", Given: "P."}}, mx.Author)
	assert.Contains(t, buf.String(), "container-title: medRxiv")
}

func TestParseAuthorName(t *testing.T) {
	assert.Equal(t, CSLName{Given: "Mary Ann", Family: "Jones"}, parseAuthorName("Mary Ann Jones"))
	assert.Equal(t, CSLName{Family: "Lee", Given: "A."}, parseAuthorName("Lee, A."))
	assert.Equal(t, CSLName{Literal: "CRISP"}, parseAuthorName("CRISP"))
	assert.Equal(t, CSLName{}, parseAuthorName("  "))
}

func TestCSLID(t *testing.T) {
	assert.Equal(t, "10.1/abc", cslID(types.Paper{DOI: "10.1/ABC", PMID: "9"}))
	assert.Equal(t, "pmid:9", cslID(types.Paper{PMID: "9"}))
}

func TestSnapshot_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snap.yaml")
	res := sampleResult()
	now := time.Date(2026, 2, 8, 9, 30, 15, 0, time.UTC)
	require.NoError(t, WriteSnapshot(path, res, now))

	snap, err := ReadSnapshot(path)
	require.NoError(t, err)
	assert.Equal(t, SnapshotVersion, snap.Version)
	assert.True(t, now.Equal(snap.GeneratedAt))

	got := snap.Result
	assert.Equal(t, res.RunID, got.RunID)
	assert.True(t, res.Query.StartDate.Equal(got.Query.StartDate))
	assert.True(t, res.Query.EndDate.Equal(got.Query.EndDate))
	assert.Equal(t, res.Query.FilterTerms(), got.Query.FilterTerms())
	require.Len(t, got.Papers, 2)
	for i := range res.Papers {
		assert.Equal(t, res.Papers[i].Title, got.Papers[i].Title)
		assert.Equal(t, res.Papers[i].DOI, got.Papers[i].DOI)
		assert.Equal(t, res.Papers[i].Authors, got.Papers[i].Authors)
		assert.Equal(t, res.Papers[i].Category, got.Papers[i].Category)
		assert.True(t, res.Papers[i].PublicationDate.Equal(got.Papers[i].PublicationDate))
	}
	assert.Equal(t, res.Stats.PerSource, got.Stats.PerSource)
	assert.Equal(t, res.Stats.PerCategory, got.Stats.PerCategory)
	assert.Equal(t, res.Stats.Sources, got.Stats.Sources)
}

func TestReadSnapshot_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := ReadSnapshot(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("version: [unclosed"), 0o644))
	_, err = ReadSnapshot(bad)
	assert.Error(t, err)

	future := filepath.Join(dir, "future.yaml")
	require.NoError(t, os.WriteFile(future, []byte("version: 99\n"), 0o644))
	_, err = ReadSnapshot(future)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported version 99")
}

func TestFileName(t *testing.T) {
	end := day(2026, 2, 7)
	assert.Equal(t, "20260207-PKD-Literature-Data.xlsx", FileName(end, KindXLSX))
	assert.Equal(t, "20260207-PKD-Literature-Summary.pdf", FileName(end, KindPDF))
	assert.Equal(t, "20260207-PKD-Literature-Citations.yaml", FileName(end, KindCSL))
	assert.Equal(t, "20260207-PKD-Literature-Results.yaml", FileName(end, KindSnapshot))
}

func TestParseKind(t *testing.T) {
	k, ok := ParseKind("pdf")
	assert.True(t, ok)
	assert.Equal(t, KindPDF, k)
	_, ok = ParseKind("docx")
	assert.False(t, ok)
}

func TestWriteAll(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	paths, err := WriteAll(dir, sampleResult(), AllKinds, time.Now())
	require.NoError(t, err)
	require.Len(t, paths, 4)
	for _, p := range paths {
		info, err := os.Stat(p)
		require.NoError(t, err, p)
		assert.Positive(t, info.Size(), p)
	}
	assert.Equal(t, filepath.Join(dir, "20260207-PKD-Literature-Data.xlsx"), paths[0])
}
