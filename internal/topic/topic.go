// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package topic holds the compiled polycystic kidney disease search topic and
// builds the per-run SearchQuery from it.
package topic

import (
	"fmt"
	"strings"
	"time"

	"github.com/pdiddy/pkd-literature/pkg/types"
)

// Topic is a named, fixed set of term groups plus extra keywords used to
// filter preprint listings.
type Topic struct {
	Name          string
	Groups        []types.TermGroup
	ExtraKeywords []string
}

// PKD returns the polycystic kidney disease topic. Disease synonyms and gene
// symbols are OR-ed so a paper mentioning either is matched.
func PKD() Topic {
	return Topic{
		Name: "Polycystic Kidney Disease",
		Groups: []types.TermGroup{
			{
				Name:     "disease",
				Required: true,
				Terms: []string{
					"polycystic kidney",
					"polycystic kidney disease",
					"ADPKD",
					"ARPKD",
				},
				MeSH: []string{"Polycystic Kidney Diseases"},
			},
			{
				Name:  "genes",
				Terms: []string{"PKD1", "PKD2", "PKHD1"},
			},
		},
		ExtraKeywords: []string{
			"autosomal dominant polycystic",
			"autosomal recessive polycystic",
			"kidney cyst",
			"renal cyst",
			"cystogenesis",
			"polycystin",
			"fibrocystin",
			"polyductin",
		},
	}
}

// Query builds the immutable SearchQuery for the inclusive window [start, end].
// Dates are truncated to UTC calendar days.
func (t Topic) Query(start, end time.Time) types.SearchQuery {
	groups := make([]types.TermGroup, len(t.Groups))
	for i, g := range t.Groups {
		g.Terms = append([]string(nil), g.Terms...)
		g.MeSH = append([]string(nil), g.MeSH...)
		groups[i] = g
	}
	return types.SearchQuery{
		StartDate:     types.Day(start),
		EndDate:       types.Day(end),
		TopicTerms:    groups,
		ExtraKeywords: append([]string(nil), t.ExtraKeywords...),
	}
}

// PubMedTerm renders the query's term groups as a field-qualified PubMed
// boolean expression. Each term is searched in title/abstract, each MeSH
// heading as a MeSH term; required groups are AND-ed and optional groups
// OR-ed onto the result.
func PubMedTerm(q types.SearchQuery) string {
	var required, optional []string
	for _, g := range q.TopicTerms {
		clause := pubmedGroup(g)
		if clause == "" {
			continue
		}
		if g.Required {
			required = append(required, clause)
		} else {
			optional = append(optional, clause)
		}
	}

	var parts []string
	if len(required) > 0 {
		parts = append(parts, wrap(strings.Join(required, " AND "), len(required) > 1))
	}
	parts = append(parts, optional...)
	if len(parts) == 0 {
		return ""
	}
	if len(parts) == 1 {
		return parts[0]
	}
	return "(" + strings.Join(parts, " OR ") + ")"
}

func pubmedGroup(g types.TermGroup) string {
	var alts []string
	for _, term := range g.Terms {
		term = strings.TrimSpace(term)
		if term == "" {
			continue
		}
		alts = append(alts, fmt.Sprintf("%s[tiab]", quote(term)))
	}
	for _, mesh := range g.MeSH {
		mesh = strings.TrimSpace(mesh)
		if mesh == "" {
			continue
		}
		alts = append(alts, fmt.Sprintf("%s[MeSH Terms]", quote(mesh)))
	}
	if len(alts) == 0 {
		return ""
	}
	return wrap(strings.Join(alts, " OR "), len(alts) > 1)
}

func quote(term string) string {
	if strings.ContainsAny(term, " -") {
		return `"` + term + `"`
	}
	return term
}

func wrap(s string, paren bool) string {
	if paren {
		return "(" + s + ")"
	}
	return s
}
