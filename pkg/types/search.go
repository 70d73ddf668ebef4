// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"strings"
	"time"
)

// DateLayout is the calendar date format used on the command line, in
// snapshots, and by the preprint API.
const DateLayout = "2006-01-02"

// TermGroup is one group of alternative terms in the topic query. Terms in a
// group are OR-ed. Required groups are AND-ed together; optional groups are
// OR-ed onto the combined required clause.
type TermGroup struct {
	Name     string   `json:"name" yaml:"name"`
	Required bool     `json:"required" yaml:"required"`
	Terms    []string `json:"terms" yaml:"terms"`

	// MeSH lists controlled-vocabulary headings searched alongside Terms by
	// sources that support field-qualified queries.
	MeSH []string `json:"mesh,omitempty" yaml:"mesh,omitempty"`
}

// SearchQuery is the immutable input handed to every source adapter.
type SearchQuery struct {
	// StartDate and EndDate bound the inclusive publication window.
	StartDate time.Time `json:"start_date" yaml:"start_date"`
	EndDate   time.Time `json:"end_date" yaml:"end_date"`

	TopicTerms []TermGroup `json:"topic_terms" yaml:"topic_terms"`

	// ExtraKeywords supplements TopicTerms when filtering listings from
	// sources without field search (bioRxiv, medRxiv).
	ExtraKeywords []string `json:"extra_keywords,omitempty" yaml:"extra_keywords,omitempty"`
}

// Contains reports whether t falls on a calendar day inside the window.
func (q SearchQuery) Contains(t time.Time) bool {
	if t.IsZero() {
		return false
	}
	d := Day(t)
	return !d.Before(Day(q.StartDate)) && !d.After(Day(q.EndDate))
}

// FilterTerms returns every topic term and extra keyword, lowercased and
// without duplicates, in declaration order.
func (q SearchQuery) FilterTerms() []string {
	seen := make(map[string]bool)
	var out []string
	add := func(s string) {
		s = strings.ToLower(strings.TrimSpace(s))
		if s == "" || seen[s] {
			return
		}
		seen[s] = true
		out = append(out, s)
	}
	for _, g := range q.TopicTerms {
		for _, t := range g.Terms {
			add(t)
		}
	}
	for _, k := range q.ExtraKeywords {
		add(k)
	}
	return out
}

// Day truncates t to midnight UTC of its calendar date.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD string into a UTC calendar date.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, strings.TrimSpace(s))
}
