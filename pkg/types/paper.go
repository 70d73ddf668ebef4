// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the pkd-literature pipeline:
// the normalized Paper record, the search query, run statistics, and the
// configuration structs read by the CLI.
package types

import (
	"strings"
	"time"
)

// SourceDatabase identifies the literature API a Paper was retrieved from.
type SourceDatabase string

const (
	SourcePubMed  SourceDatabase = "PubMed"
	SourceBioRxiv SourceDatabase = "bioRxiv"
	SourceMedRxiv SourceDatabase = "medRxiv"
)

// DefaultSourceOrder is the precedence used to resolve cross-source
// duplicates: the first source listed keeps its copy of a shared paper.
var DefaultSourceOrder = []SourceDatabase{SourcePubMed, SourceBioRxiv, SourceMedRxiv}

// ParseSourceDatabase maps a case-insensitive name ("pubmed", "biorxiv",
// "medrxiv") to its SourceDatabase. The second return value is false for
// unknown names.
func ParseSourceDatabase(name string) (SourceDatabase, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "pubmed":
		return SourcePubMed, true
	case "biorxiv":
		return SourceBioRxiv, true
	case "medrxiv":
		return SourceMedRxiv, true
	}
	return "", false
}

// Category is a topical label assigned to every paper after deduplication.
type Category string

const (
	CategoryGenetics        Category = "Genetics"
	CategoryTherapeutics    Category = "Therapeutics"
	CategoryMetabolism      Category = "Metabolism"
	CategoryCrossSpecies    Category = "Cross-species"
	CategoryDatasets        Category = "Datasets"
	CategoryClinical        Category = "Clinical"
	CategoryPathophysiology Category = "Pathophysiology"
	CategoryOther           Category = "Other"
)

// Categories lists every category in classification priority order, with
// the Other fallback last.
var Categories = []Category{
	CategoryGenetics,
	CategoryTherapeutics,
	CategoryMetabolism,
	CategoryCrossSpecies,
	CategoryDatasets,
	CategoryClinical,
	CategoryPathophysiology,
	CategoryOther,
}

// Paper is the normalized record produced by a source adapter. It is
// read-only after translation except for Category, which the classifier sets
// on a copy.
type Paper struct {
	// Source identifies which database's copy of the paper this is.
	Source SourceDatabase `json:"source" yaml:"source"`

	// DOI is the bare DOI (no resolver prefix); empty when the source has none.
	DOI string `json:"doi,omitempty" yaml:"doi,omitempty"`

	// PMID is the PubMed identifier; empty for preprints.
	PMID string `json:"pmid,omitempty" yaml:"pmid,omitempty"`

	// Title is the paper title as returned by the source.
	Title string `json:"title" yaml:"title"`

	// Authors lists author names in source order.
	Authors []string `json:"authors" yaml:"authors"`

	// LastAuthorLastName is the surname of the final entry in Authors.
	LastAuthorLastName string `json:"last_author_last_name,omitempty" yaml:"last_author_last_name,omitempty"`

	// Journal is the journal title, or the preprint server name.
	Journal string `json:"journal" yaml:"journal"`

	// PublicationDate is the calendar date (UTC midnight) used for the date window.
	PublicationDate time.Time `json:"publication_date" yaml:"publication_date"`

	// Abstract may be empty.
	Abstract string `json:"abstract,omitempty" yaml:"abstract,omitempty"`

	// URL is the DOI resolver link when a DOI is present, else the source permalink.
	URL string `json:"url" yaml:"url"`

	// Category is empty until classification.
	Category Category `json:"category,omitempty" yaml:"category,omitempty"`
}

// DOIURL returns the resolver link for doi, or "" when doi is empty.
func DOIURL(doi string) string {
	if doi == "" {
		return ""
	}
	return "https://doi.org/" + doi
}

// PubMedURL returns the PubMed permalink for pmid, or "" when pmid is empty.
func PubMedURL(pmid string) string {
	if pmid == "" {
		return ""
	}
	return "https://pubmed.ncbi.nlm.nih.gov/" + pmid + "/"
}

// CanonicalURL picks the DOI link when available and falls back to permalink.
func CanonicalURL(doi, permalink string) string {
	if u := DOIURL(doi); u != "" {
		return u
	}
	return permalink
}

// Surname extracts the family name from an author string. It understands
// "Family, Given" (preprint servers), "Given Family" and "Family GI"
// (PubMed citation style, where the trailing token is all initials).
func Surname(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	if idx := strings.Index(name, ","); idx >= 0 {
		return strings.TrimSpace(name[:idx])
	}
	fields := strings.Fields(name)
	if len(fields) == 1 {
		return fields[0]
	}
	last := fields[len(fields)-1]
	if isInitials(last) {
		return strings.Join(fields[:len(fields)-1], " ")
	}
	return last
}

// isInitials reports whether s looks like "J", "JA" or "J.A.".
func isInitials(s string) bool {
	s = strings.ReplaceAll(s, ".", "")
	if s == "" || len(s) > 3 {
		return false
	}
	for _, r := range s {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}
