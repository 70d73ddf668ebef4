// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"strings"
	"unicode"

	"github.com/pdiddy/pkd-literature/pkg/types"
)

// Dedupe removes cross-source duplicates in a single stable pass; the first
// occurrence of each paper wins, so the caller controls precedence through
// input order.
//
// Every kept paper registers its DOI key and its title/date key. A paper with
// a DOI is a duplicate when the DOI was seen before or when its title/date
// key belongs to a kept paper without a DOI. A paper without a DOI is a
// duplicate when its title/date key was registered by any kept paper.
func Dedupe(papers []types.Paper) []types.Paper {
	seenDOI := make(map[string]bool)
	// title/date key -> whether the registering paper had a DOI
	seenTitle := make(map[string]bool)

	out := make([]types.Paper, 0, len(papers))
	for _, p := range papers {
		doi := NormalizeDOI(p.DOI)
		tkey := titleKey(p)

		if doi != "" {
			if seenDOI[doi] {
				continue
			}
			if hadDOI, ok := seenTitle[tkey]; ok && !hadDOI {
				continue
			}
		} else if _, ok := seenTitle[tkey]; ok {
			continue
		}

		out = append(out, p)
		if doi != "" {
			seenDOI[doi] = true
		}
		if _, ok := seenTitle[tkey]; !ok {
			seenTitle[tkey] = doi != ""
		}
	}
	return out
}

// NormalizeDOI lowercases and trims a DOI and strips resolver prefixes.
func NormalizeDOI(doi string) string {
	d := strings.ToLower(strings.TrimSpace(doi))
	for _, prefix := range []string{"https://doi.org/", "http://doi.org/", "https://dx.doi.org/", "http://dx.doi.org/", "doi:"} {
		d = strings.TrimPrefix(d, prefix)
	}
	return strings.TrimSpace(d)
}

// NormalizeTitle returns a lowercased, punctuation-stripped title with
// whitespace collapsed.
func NormalizeTitle(title string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(title) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// titleKey is the fallback identity "normalized title|YYYY-MM-DD". A title
// made only of punctuation keys on its trimmed, lowercased raw form.
func titleKey(p types.Paper) string {
	t := NormalizeTitle(p.Title)
	if t == "" {
		t = strings.ToLower(strings.TrimSpace(p.Title))
	}
	date := ""
	if !p.PublicationDate.IsZero() {
		date = p.PublicationDate.Format(types.DateLayout)
	}
	return t + "|" + date
}
