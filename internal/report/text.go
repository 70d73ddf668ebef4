// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package report

import (
	"strings"

	"github.com/pdiddy/pkd-literature/pkg/types"
)

// Word limits for the spreadsheet's derived columns.
const (
	SummaryWords     = 7
	KeyFindingsWords = 20
)

var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "in": true, "on": true, "at": true,
	"to": true, "for": true, "of": true, "and": true, "with": true,
}

// Summary shortens title to at most maxWords words. A longer title keeps
// maxWords-1 words, loses trailing punctuation and gains an ellipsis.
func Summary(title string, maxWords int) string {
	words := strings.Fields(title)
	if len(words) <= maxWords {
		return strings.Join(words, " ")
	}
	if maxWords < 1 {
		return "..."
	}
	short := strings.Join(words[:maxWords-1], " ")
	return strings.TrimRight(short, ".,;:") + "..."
}

// KeyFindings condenses title to at most maxWords words. Stop-words are
// dropped only when at least ten content words remain.
func KeyFindings(title string, maxWords int) string {
	words := strings.Fields(strings.ReplaceAll(title, ":", " "))
	content := 0
	for _, w := range words {
		if !stopWords[strings.ToLower(w)] {
			content++
		}
	}
	var kept []string
	for _, w := range words {
		if content >= 10 && stopWords[strings.ToLower(w)] {
			continue
		}
		kept = append(kept, w)
		if len(kept) == maxWords {
			break
		}
	}
	return strings.Join(kept, " ")
}

// LastAuthor returns the surname of the paper's last author.
func LastAuthor(p types.Paper) string {
	if p.LastAuthorLastName != "" {
		return p.LastAuthorLastName
	}
	if len(p.Authors) == 0 {
		return ""
	}
	return types.Surname(p.Authors[len(p.Authors)-1])
}

// Link is the clickable target for a paper: its DOI resolver URL, else the
// PubMed page, else the stored URL.
func Link(p types.Paper) string {
	switch {
	case p.DOI != "":
		return types.DOIURL(p.DOI)
	case p.PMID != "":
		return types.PubMedURL(p.PMID)
	}
	return p.URL
}

// LinkLabel labels Link, preferring the PMID over the DOI.
func LinkLabel(p types.Paper) string {
	switch {
	case p.PMID != "":
		return "PMID: " + p.PMID
	case p.DOI != "":
		return "DOI: " + p.DOI
	case p.URL != "":
		return p.URL
	}
	return ""
}

// AuthorList joins authors for a citation line.
func AuthorList(p types.Paper) string {
	if len(p.Authors) == 0 {
		return "Unknown authors"
	}
	return strings.Join(p.Authors, ", ")
}
