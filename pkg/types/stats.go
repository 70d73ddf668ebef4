// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// FetchStatus summarizes how a source adapter's fetch ended.
type FetchStatus string

const (
	FetchSucceeded FetchStatus = "succeeded"
	FetchPartial   FetchStatus = "partial"
	FetchFailed    FetchStatus = "failed"
)

// SourceReport records what one source contributed to a run.
type SourceReport struct {
	Source SourceDatabase `json:"source" yaml:"source"`
	Status FetchStatus    `json:"status" yaml:"status"`

	// Fetched counts in-window records the adapter returned, before dedup.
	Fetched int `json:"fetched" yaml:"fetched"`

	// OutOfWindow counts records dropped for falling outside the date range.
	OutOfWindow int `json:"out_of_window,omitempty" yaml:"out_of_window,omitempty"`

	PagesFetched int `json:"pages_fetched" yaml:"pages_fetched"`
	PagesFailed  int `json:"pages_failed,omitempty" yaml:"pages_failed,omitempty"`

	// Error is the last error message for partial or failed fetches.
	Error string `json:"error,omitempty" yaml:"error,omitempty"`
}

// Degraded reports whether the source failed or returned partial data.
func (r SourceReport) Degraded() bool {
	return r.Status != FetchSucceeded
}

// Stats summarizes a run. PerSource counts papers after deduplication, so a
// cross-listed paper is attributed to whichever source's copy survived.
type Stats struct {
	Total             int                    `json:"total" yaml:"total"`
	PerSource         map[SourceDatabase]int `json:"per_source" yaml:"per_source"`
	PerCategory       map[Category]int       `json:"per_category" yaml:"per_category"`
	Sources           []SourceReport         `json:"sources" yaml:"sources"`
	DuplicatesRemoved int                    `json:"duplicates_removed" yaml:"duplicates_removed"`
	OutOfWindow       int                    `json:"out_of_window" yaml:"out_of_window"`
}

// Report returns the SourceReport for src, if the source took part in the run.
func (s Stats) Report(src SourceDatabase) (SourceReport, bool) {
	for _, r := range s.Sources {
		if r.Source == src {
			return r, true
		}
	}
	return SourceReport{}, false
}

// Degraded returns the reports of every source that failed or was partial.
func (s Stats) Degraded() []SourceReport {
	var out []SourceReport
	for _, r := range s.Sources {
		if r.Degraded() {
			out = append(out, r)
		}
	}
	return out
}

// RunResult is the pipeline output handed to the renderers.
type RunResult struct {
	RunID  string      `json:"run_id" yaml:"run_id"`
	Query  SearchQuery `json:"query" yaml:"query"`
	Papers []Paper     `json:"papers" yaml:"papers"`
	Stats  Stats       `json:"stats" yaml:"stats"`
}

// ByCategory returns the papers labeled c, in result order.
func (r *RunResult) ByCategory(c Category) []Paper {
	var out []Paper
	for _, p := range r.Papers {
		if p.Category == c {
			out = append(out, p)
		}
	}
	return out
}
