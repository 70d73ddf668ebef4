// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline runs one literature search: validate the window, fan out
// to every source, deduplicate in source order, classify, and tally stats.
// It writes no files; rendering belongs to internal/report.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/pdiddy/pkd-literature/internal/classify"
	"github.com/pdiddy/pkd-literature/internal/observability"
	"github.com/pdiddy/pkd-literature/internal/search"
	"github.com/pdiddy/pkd-literature/internal/topic"
	"github.com/pdiddy/pkd-literature/pkg/types"
)

// InvalidRangeError reports a window whose start falls after its end.
type InvalidRangeError struct {
	Start, End time.Time
}

func (e *InvalidRangeError) Error() string {
	return fmt.Sprintf("invalid date range: start %s is after end %s",
		e.Start.Format(types.DateLayout), e.End.Format(types.DateLayout))
}

// Pipeline wires sources, dedup precedence and the classifier together.
// The zero values of Order, Classifier, Topic and NewRunID fall back to the
// defaults in New.
type Pipeline struct {
	Sources    []search.Source
	Order      []types.SourceDatabase
	Classifier *classify.Classifier
	Topic      topic.Topic
	Logger     zerolog.Logger
	Metrics    *observability.Metrics // nil disables metrics
	NewRunID   func() string
}

// New returns a Pipeline over sources with the PKD topic, the default
// category table and the default source order.
func New(sources ...search.Source) *Pipeline {
	return &Pipeline{
		Sources:    sources,
		Order:      append([]types.SourceDatabase(nil), types.DefaultSourceOrder...),
		Classifier: classify.New(classify.DefaultTable()),
		Topic:      topic.PKD(),
		Logger:     zerolog.Nop(),
		NewRunID:   uuid.NewString,
	}
}

// Run searches the inclusive window [start, end]. Only an invalid range is
// returned as an error; source failures are reported in the result's stats.
func (p *Pipeline) Run(ctx context.Context, start, end time.Time) (*types.RunResult, error) {
	start, end = types.Day(start), types.Day(end)
	if start.After(end) {
		return nil, &InvalidRangeError{Start: start, End: end}
	}

	began := time.Now()
	runID := p.runID()
	log := observability.WithRun(p.Logger, runID, start, end)
	ctx = log.WithContext(ctx)

	q := p.topic().Query(start, end)
	log.Info().Int("sources", len(p.Sources)).Msg("search started")

	gathered, reports := search.Aggregate(ctx, q, p.Sources, p.order())
	unique := search.Dedupe(gathered)
	papers := p.classifier().ClassifyAll(unique)

	stats := p.tally(papers, reports, len(gathered)-len(unique))
	p.Metrics.RecordRun(stats, time.Since(began))

	ev := log.Info()
	if degraded := stats.Degraded(); len(degraded) > 0 {
		ev = log.Warn().Int("degraded_sources", len(degraded))
	}
	ev.Int("total", stats.Total).
		Int("duplicates_removed", stats.DuplicatesRemoved).
		Int("out_of_window", stats.OutOfWindow).
		Dur("elapsed", time.Since(began)).
		Msg("search finished")

	return &types.RunResult{RunID: runID, Query: q, Papers: papers, Stats: stats}, nil
}

func (p *Pipeline) tally(papers []types.Paper, reports []types.SourceReport, dupes int) types.Stats {
	stats := types.Stats{
		Total:             len(papers),
		PerSource:         make(map[types.SourceDatabase]int, len(p.Sources)),
		PerCategory:       make(map[types.Category]int),
		Sources:           reports,
		DuplicatesRemoved: dupes,
	}
	for _, s := range p.Sources {
		stats.PerSource[s.Name()] = 0
	}
	for _, r := range reports {
		stats.OutOfWindow += r.OutOfWindow
	}
	for _, paper := range papers {
		stats.PerSource[paper.Source]++
		stats.PerCategory[paper.Category]++
	}
	return stats
}

func (p *Pipeline) runID() string {
	if p.NewRunID == nil {
		return uuid.NewString()
	}
	return p.NewRunID()
}

func (p *Pipeline) order() []types.SourceDatabase {
	if len(p.Order) == 0 {
		return types.DefaultSourceOrder
	}
	return p.Order
}

func (p *Pipeline) classifier() *classify.Classifier {
	if p.Classifier == nil {
		return classify.New(classify.DefaultTable())
	}
	return p.Classifier
}

func (p *Pipeline) topic() topic.Topic {
	if len(p.Topic.Groups) == 0 {
		return topic.PKD()
	}
	return p.Topic
}
