// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package classify assigns each paper exactly one topical category using
// ordered keyword rules over its title and abstract.
package classify

import (
	"fmt"
	"strings"

	"github.com/pdiddy/pkd-literature/pkg/types"
)

// Rule maps a keyword set to a category. Matching is a case-insensitive
// substring test against the title and abstract, padded with a space on
// each side, so a keyword written as " gene " only matches the whole word.
type Rule struct {
	Category types.Category `json:"category" yaml:"category"`
	Keywords []string       `json:"keywords" yaml:"keywords"`
}

// Table is an immutable, ordered rule list with a fallback category.
// Earlier rules take priority.
type Table struct {
	rules    []Rule
	fallback types.Category
}

// NewTable validates and copies rules. Keywords are lowercased and keep their
// surrounding spaces; blank keywords are dropped, and a rule with no usable
// keyword or a repeated category is rejected.
func NewTable(fallback types.Category, rules ...Rule) (Table, error) {
	if fallback == "" {
		return Table{}, fmt.Errorf("classify: fallback category is empty")
	}
	seen := map[types.Category]bool{fallback: true}
	out := make([]Rule, 0, len(rules))
	for i, r := range rules {
		if r.Category == "" {
			return Table{}, fmt.Errorf("classify: rule %d has no category", i)
		}
		if seen[r.Category] {
			return Table{}, fmt.Errorf("classify: category %q listed twice", r.Category)
		}
		seen[r.Category] = true

		var kws []string
		for _, k := range r.Keywords {
			if strings.TrimSpace(k) != "" {
				kws = append(kws, strings.ToLower(k))
			}
		}
		if len(kws) == 0 {
			return Table{}, fmt.Errorf("classify: rule %q has no keywords", r.Category)
		}
		out = append(out, Rule{Category: r.Category, Keywords: kws})
	}
	return Table{rules: out, fallback: fallback}, nil
}

// Rules returns a copy of the rules in priority order.
func (t Table) Rules() []Rule {
	out := make([]Rule, len(t.rules))
	for i, r := range t.rules {
		out[i] = Rule{Category: r.Category, Keywords: append([]string(nil), r.Keywords...)}
	}
	return out
}

// Fallback returns the category assigned when no rule matches.
func (t Table) Fallback() types.Category { return t.fallback }

// DefaultTable returns the PKD category rules.
func DefaultTable() Table {
	t, err := NewTable(types.CategoryOther,
		Rule{Category: types.CategoryGenetics, Keywords: []string{
			"pkd1", "pkd2", "pkhd1", "dzip1l", " gene ", " genes ", " genetic", "mutation",
			"variant", "genotype", "inheritance", "allele", "germline", "somatic",
			"exome sequencing", "genome sequencing", "penetrance",
		}},
		Rule{Category: types.CategoryTherapeutics, Keywords: []string{
			"tolvaptan", "treatment", "therapy", "therapeutic", "clinical trial",
			"inhibitor", "drug", "intervention", "pharmacolog", "agonist",
			"antagonist", "dose", "somatostatin", "lanreotide",
		}},
		Rule{Category: types.CategoryMetabolism, Keywords: []string{
			"metabolism", "metabolic", "glycolysis", "mitochondri", "lipid",
			"fatty acid", "oxidative phosphorylation", "glucose", "ampk", "mtor",
		}},
		Rule{Category: types.CategoryCrossSpecies, Keywords: []string{
			"mouse", "mice", "murine", "zebrafish", "in vivo", "animal model",
			"rodent", "drosophila", "c. elegans", "xenopus", "porcine", "canine", "feline",
		}},
		Rule{Category: types.CategoryDatasets, Keywords: []string{
			"dataset", "data set", "cohort", "biobank", "rna-seq", "rna sequencing",
			"scrna", "single-cell", "transcriptom", "proteom", "gwas", "atlas", "registry",
		}},
		Rule{Category: types.CategoryClinical, Keywords: []string{
			"patient", "cohort study", "outcome", "progression", "egfr", "kidney function",
			"total kidney volume", "dialysis", "transplant", "prognos", "diagnos",
		}},
		Rule{Category: types.CategoryPathophysiology, Keywords: []string{
			"cystogenesis", "fibrosis", "cyst growth", "pathway", "signaling",
			"signalling", "cilia", "ciliary", "proliferation", "inflammation", "cyclic amp",
		}},
	)
	if err != nil {
		panic(err)
	}
	return t
}

// Classifier applies a Table to papers. It holds no mutable state and is
// safe for concurrent use.
type Classifier struct {
	table Table
}

// New returns a Classifier over t.
func New(t Table) *Classifier {
	return &Classifier{table: t}
}

// Classify returns the first category whose keywords occur in the paper's
// title or abstract, or the fallback category.
func (c *Classifier) Classify(p types.Paper) types.Category {
	cat, _ := c.Match(p)
	return cat
}

// Match is Classify that also reports the keyword that decided the category;
// the keyword is empty for the fallback.
func (c *Classifier) Match(p types.Paper) (types.Category, string) {
	text := " " + strings.ToLower(p.Title+" "+p.Abstract) + " "
	for _, r := range c.table.rules {
		for _, k := range r.Keywords {
			if strings.Contains(text, k) {
				return r.Category, k
			}
		}
	}
	return c.table.fallback, ""
}

// ClassifyAll returns a new slice with Category set on every paper. The
// input is not modified.
func (c *Classifier) ClassifyAll(papers []types.Paper) []types.Paper {
	out := make([]types.Paper, len(papers))
	for i, p := range papers {
		p.Category = c.Classify(p)
		out[i] = p
	}
	return out
}
