// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package report

import (
	"io"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/pkd-literature/pkg/types"
)

// CSLItem is one bibliographic entry in CSL-YAML, the form Pandoc and
// reference managers read.
type CSLItem struct {
	ID             string    `yaml:"id"`
	Type           string    `yaml:"type"`
	Title          string    `yaml:"title"`
	Author         []CSLName `yaml:"author,omitempty"`
	ContainerTitle string    `yaml:"container-title,omitempty"`
	Abstract       string    `yaml:"abstract,omitempty"`
	Issued         *CSLDate  `yaml:"issued,omitempty"`
	DOI            string    `yaml:"DOI,omitempty"`
	PMID           string    `yaml:"PMID,omitempty"`
	URL            string    `yaml:"URL,omitempty"`
	Keyword        string    `yaml:"keyword,omitempty"`
}

// CSLName is a person's name in CSL form.
type CSLName struct {
	Family  string `yaml:"family,omitempty"`
	Given   string `yaml:"given,omitempty"`
	Literal string `yaml:"literal,omitempty"`
}

// CSLDate holds CSL date-parts.
type CSLDate struct {
	DateParts [][]int `yaml:"date-parts"`
}

// FormatCSL writes papers as a CSL-YAML list to w.
func FormatCSL(papers []types.Paper, w io.Writer) error {
	items := make([]CSLItem, len(papers))
	for i, p := range papers {
		items[i] = toCSLItem(p)
	}
	enc := yaml.NewEncoder(w)
	defer enc.Close()
	return enc.Encode(items)
}

func toCSLItem(p types.Paper) CSLItem {
	item := CSLItem{
		ID:             cslID(p),
		Type:           "article-journal",
		Title:          p.Title,
		ContainerTitle: p.Journal,
		Abstract:       p.Abstract,
		DOI:            p.DOI,
		PMID:           p.PMID,
		URL:            Link(p),
		Keyword:        string(p.Category),
	}
	if p.Source != types.SourcePubMed {
		item.Type = "article"
	}
	for _, a := range p.Authors {
		if n := parseAuthorName(a); n != (CSLName{}) {
			item.Author = append(item.Author, n)
		}
	}
	if !p.PublicationDate.IsZero() {
		d := p.PublicationDate
		item.Issued = &CSLDate{DateParts: [][]int{{d.Year(), int(d.Month()), d.Day()}}}
	}
	return item
}

func cslID(p types.Paper) string {
	switch {
	case p.DOI != "":
		return strings.ToLower(p.DOI)
	case p.PMID != "":
		return "pmid:" + p.PMID
	}
	return p.URL
}

// parseAuthorName splits a name into CSL family/given parts. "Family, Given"
// splits on the comma; otherwise the last token is the family name. Single
// tokens use the literal field.
func parseAuthorName(name string) CSLName {
	name = strings.TrimSpace(name)
	if name == "" {
		return CSLName{}
	}
	if family, given, ok := strings.Cut(name, ","); ok {
		return CSLName{Family: strings.TrimSpace(family), Given: strings.TrimSpace(given)}
	}
	idx := strings.LastIndex(name, " ")
	if idx < 0 {
		return CSLName{Literal: name}
	}
	return CSLName{Given: name[:idx], Family: name[idx+1:]}
}
