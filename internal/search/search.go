// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package search fetches PKD literature from PubMed, bioRxiv and medRxiv,
// aggregates the per-source results in a fixed precedence order, and
// removes cross-source duplicates.
package search

import (
	"context"
	"errors"
	"sort"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/pkd-literature/internal/httputil"
	"github.com/pdiddy/pkd-literature/pkg/types"
)

// ErrPageCapReached marks a fetch that stopped at its page limit while the
// source still reported more results.
var ErrPageCapReached = errors.New("page cap reached before all results were fetched")

// Source fetches papers for a query from one literature database. Fetch never
// returns an error directly; failures are described by the Outcome so one
// source cannot abort the others.
type Source interface {
	Name() types.SourceDatabase
	Fetch(ctx context.Context, q types.SearchQuery) ([]types.Paper, Outcome)
}

// Outcome describes how a Fetch ended.
type Outcome struct {
	Source       types.SourceDatabase
	Status       types.FetchStatus
	Records      int
	PagesFetched int
	PagesFailed  int
	Err          error
}

// tally accumulates page results while an adapter paginates.
type tally struct {
	fetched int
	failed  int
	lastErr error
}

func (t *tally) ok() { t.fetched++ }

func (t *tally) fail(err error) {
	t.failed++
	t.lastErr = err
}

// finish applies the outcome rules: a permanent error fails the source with
// no records, failures with nothing gathered fail it, and any other failure
// or truncation makes it partial.
func finish(src types.SourceDatabase, papers []types.Paper, t tally, capped bool) ([]types.Paper, Outcome) {
	out := Outcome{
		Source:       src,
		PagesFetched: t.fetched,
		PagesFailed:  t.failed,
		Err:          t.lastErr,
	}

	switch {
	case httputil.IsPermanent(t.lastErr):
		out.Status = types.FetchFailed
		return nil, out
	case t.lastErr != nil && t.fetched == 0:
		out.Status = types.FetchFailed
		return nil, out
	case t.lastErr != nil || t.failed > 0:
		out.Status = types.FetchPartial
	case capped:
		out.Status = types.FetchPartial
		out.Err = ErrPageCapReached
	default:
		out.Status = types.FetchSucceeded
	}
	if capped && out.Err != nil && !errors.Is(out.Err, ErrPageCapReached) {
		out.Err = errors.Join(out.Err, ErrPageCapReached)
	}
	out.Records = len(papers)
	return papers, out
}

// Aggregate runs every source concurrently and returns their records
// reassembled in the given source order, with out-of-window records removed,
// plus one SourceReport per source. Sources missing from order follow the
// ordered ones in registration order. Loggers are taken from ctx.
func Aggregate(ctx context.Context, q types.SearchQuery, sources []Source, order []types.SourceDatabase) ([]types.Paper, []types.SourceReport) {
	log := zerolog.Ctx(ctx)

	type result struct {
		papers  []types.Paper
		outcome Outcome
	}
	results := make([]result, len(sources))

	var g errgroup.Group
	for i, s := range sources {
		g.Go(func() error {
			papers, outcome := s.Fetch(ctx, q)
			if outcome.Source == "" {
				outcome.Source = s.Name()
			}
			results[i] = result{papers: papers, outcome: outcome}
			return nil
		})
	}
	_ = g.Wait()

	idx := make([]int, len(sources))
	for i := range idx {
		idx[i] = i
	}
	rank := sourceRank(order)
	sort.SliceStable(idx, func(a, b int) bool {
		return rankOf(rank, sources[idx[a]].Name(), len(order)) < rankOf(rank, sources[idx[b]].Name(), len(order))
	})

	var all []types.Paper
	reports := make([]types.SourceReport, 0, len(sources))
	for _, i := range idx {
		r := results[i]
		report := types.SourceReport{
			Source:       r.outcome.Source,
			Status:       r.outcome.Status,
			PagesFetched: r.outcome.PagesFetched,
			PagesFailed:  r.outcome.PagesFailed,
		}
		if r.outcome.Err != nil {
			report.Error = r.outcome.Err.Error()
		}
		for _, p := range r.papers {
			if !q.Contains(p.PublicationDate) {
				report.OutOfWindow++
				continue
			}
			all = append(all, p)
			report.Fetched++
		}
		reports = append(reports, report)

		ev := log.Info()
		if report.Status == types.FetchFailed {
			ev = log.Error()
		} else if report.Status == types.FetchPartial {
			ev = log.Warn()
		}
		ev.Str("source", string(report.Source)).
			Str("status", string(report.Status)).
			Int("fetched", report.Fetched).
			Int("out_of_window", report.OutOfWindow).
			Int("pages", report.PagesFetched).
			Int("pages_failed", report.PagesFailed).
			Err(r.outcome.Err).
			Msg("source fetch finished")
	}
	return all, reports
}

func sourceRank(order []types.SourceDatabase) map[types.SourceDatabase]int {
	rank := make(map[types.SourceDatabase]int, len(order))
	for i, s := range order {
		if _, dup := rank[s]; !dup {
			rank[s] = i
		}
	}
	return rank
}

func rankOf(rank map[types.SourceDatabase]int, s types.SourceDatabase, fallback int) int {
	if r, ok := rank[s]; ok {
		return r
	}
	return fallback
}
