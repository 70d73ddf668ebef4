// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package observability

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/pkd-literature/pkg/types"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]zerolog.Level{
		"trace":   zerolog.TraceLevel,
		"debug":   zerolog.DebugLevel,
		"INFO":    zerolog.InfoLevel,
		"warn":    zerolog.WarnLevel,
		"warning": zerolog.WarnLevel,
		"error":   zerolog.ErrorLevel,
		"":        zerolog.InfoLevel,
		"bogus":   zerolog.InfoLevel,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), in)
	}
}

func TestNewLoggerTo_JSONAndLevel(t *testing.T) {
	var buf bytes.Buffer
	log := NewLoggerTo(&buf, types.LoggingConfig{Level: "warn", Format: "json"})

	log.Info().Msg("hidden")
	log.Warn().Str("source", "PubMed").Msg("shown")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)
	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "shown", entry["message"])
	assert.Equal(t, "PubMed", entry["source"])
	assert.Equal(t, "warn", entry["level"])
}

func TestNewLoggerTo_Console(t *testing.T) {
	var buf bytes.Buffer
	log := NewLoggerTo(&buf, types.LoggingConfig{Level: "info", Format: "console"})
	log.Info().Msg("hello console")
	assert.Contains(t, buf.String(), "hello console")
	assert.False(t, strings.HasPrefix(strings.TrimSpace(buf.String()), "{"))
}

func TestWithRun(t *testing.T) {
	var buf bytes.Buffer
	base := NewLoggerTo(&buf, types.LoggingConfig{Format: "json"})
	log := WithRun(base, "run-1", time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC), time.Date(2026, 2, 7, 0, 0, 0, 0, time.UTC))
	log.Info().Msg("x")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "run-1", entry["run_id"])
	assert.Equal(t, "2026-02-01", entry["start"])
	assert.Equal(t, "2026-02-07", entry["end"])
}

func TestSourceObserver(t *testing.T) {
	m := NewMetrics()
	obs := m.SourceObserver(types.SourceBioRxiv)
	obs.ObserveRequest("ok")
	obs.ObserveRequest("ok")
	obs.ObserveRequest("transient")
	obs.ObserveRetry()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.SourceRequests.WithLabelValues("bioRxiv", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SourceRequests.WithLabelValues("bioRxiv", "transient")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SourceRetries.WithLabelValues("bioRxiv")))
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	assert.Nil(t, m.SourceObserver(types.SourcePubMed))
	m.RecordRun(types.Stats{}, time.Second)
}

func TestRecordRun(t *testing.T) {
	m := NewMetrics()
	m.RecordRun(types.Stats{
		Total:             3,
		DuplicatesRemoved: 2,
		PerCategory:       map[types.Category]int{types.CategoryGenetics: 2, types.CategoryOther: 1},
		Sources: []types.SourceReport{
			{Source: types.SourcePubMed, Status: types.FetchSucceeded, Fetched: 4},
			{Source: types.SourceBioRxiv, Status: types.FetchFailed},
		},
	}, 3*time.Second)

	assert.Equal(t, 4.0, testutil.ToFloat64(m.PapersFetched.WithLabelValues("PubMed")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.DuplicatesRemoved))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.PapersByCategory.WithLabelValues("Genetics")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SourceStatus.WithLabelValues("bioRxiv", "failed")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.SourceStatus.WithLabelValues("bioRxiv", "succeeded")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.RunDuration))
}

func TestWriteTextfile(t *testing.T) {
	m := NewMetrics()
	m.DuplicatesRemoved.Add(5)

	path := filepath.Join(t.TempDir(), "pkd.prom")
	require.NoError(t, m.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "pkd_literature_duplicates_removed_total 5")
}
