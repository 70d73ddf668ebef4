// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/pkd-literature/internal/httputil"
	"github.com/pdiddy/pkd-literature/pkg/types"
)

func listing(total any, items ...preprintItem) string {
	body := map[string]any{
		"messages":   []map[string]any{{"status": "ok", "total": total, "count": len(items)}},
		"collection": items,
	}
	b, _ := json.Marshal(body)
	return string(b)
}

func TestPreprintFetch_FiltersAndTranslates(t *testing.T) {
	var paths []string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		fmt.Fprint(w, listing("3",
			preprintItem{DOI: "10.1101/2026.02.02.1", Title: "Polycystin-2 channel gating", Authors: "Lee, A.; Gomez, M. R.", Date: "2026-02-02", Version: "1", Abstract: "Ion channels."},
			preprintItem{DOI: "10.1101/2026.02.02.1", Title: "Polycystin-2 channel gating (v2)", Authors: "Lee, A.", Date: "2026-02-04", Version: "2"},
			preprintItem{DOI: "10.1101/2026.02.03.9", Title: "Deep learning for retinal images", Authors: "Chen, Q.", Date: "2026-02-03", Abstract: "Unrelated work."},
		))
	}))
	defer ts.Close()

	src := NewBioRxiv(testClient(ts), ts.URL, 0)
	papers, out := src.Fetch(context.Background(), pkdQuery())

	assert.Equal(t, types.FetchSucceeded, out.Status)
	assert.Equal(t, []string{"/details/biorxiv/2026-02-01/2026-02-07/0/json"}, paths)
	require.Len(t, papers, 1)
	p := papers[0]
	assert.Equal(t, types.SourceBioRxiv, p.Source)
	assert.Equal(t, "bioRxiv", p.Journal)
	assert.Equal(t, "Polycystin-2 channel gating", p.Title)
	assert.Equal(t, []string{"Lee, A.", "Gomez, M. R."}, p.Authors)
	assert.Equal(t, "Gomez", p.LastAuthorLastName)
	assert.Equal(t, day(2026, 2, 2), p.PublicationDate)
	assert.Equal(t, "https://doi.org/10.1101/2026.02.02.1", p.URL)
	assert.Empty(t, p.PMID)
}

func TestPreprintFetch_MedRxivPath(t *testing.T) {
	var path string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		fmt.Fprint(w, listing(0))
	}))
	defer ts.Close()

	papers, out := NewMedRxiv(testClient(ts), ts.URL, 0).Fetch(context.Background(), pkdQuery())
	assert.Empty(t, papers)
	assert.Equal(t, types.FetchSucceeded, out.Status)
	assert.True(t, strings.HasPrefix(path, "/details/medrxiv/"))
}

func TestPreprintFetch_CursorPagination(t *testing.T) {
	items := func(n int, prefix string) []preprintItem {
		out := make([]preprintItem, n)
		for i := range out {
			out[i] = preprintItem{DOI: fmt.Sprintf("10.1101/%s.%d", prefix, i), Title: "ADPKD cohort " + prefix, Date: "2026-02-03"}
		}
		return out
	}
	var cursors []string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
		cursor := parts[4]
		cursors = append(cursors, cursor)
		switch cursor {
		case "0":
			fmt.Fprint(w, listing(150, items(100, "a")...))
		case "100":
			fmt.Fprint(w, listing(150, items(50, "b")...))
		default:
			fmt.Fprint(w, listing(150))
		}
	}))
	defer ts.Close()

	papers, out := NewBioRxiv(testClient(ts), ts.URL, 0).Fetch(context.Background(), pkdQuery())
	assert.Equal(t, types.FetchSucceeded, out.Status)
	assert.Len(t, papers, 150)
	assert.Equal(t, []string{"0", "100"}, cursors)
}

func TestPreprintFetch_FailedPageSkippedWhenTotalKnown(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cursor := strings.Split(strings.Trim(r.URL.Path, "/"), "/")[4]
		switch cursor {
		case "0":
			items := make([]preprintItem, 100)
			for i := range items {
				items[i] = preprintItem{DOI: fmt.Sprintf("10.1101/x.%d", i), Title: "kidney cyst study", Date: "2026-02-03"}
			}
			fmt.Fprint(w, listing("250", items...))
		case "100":
			w.WriteHeader(http.StatusBadGateway)
		case "200":
			items := make([]preprintItem, 50)
			for i := range items {
				items[i] = preprintItem{DOI: fmt.Sprintf("10.1101/y.%d", i), Title: "Soil microbiome survey", Date: "2026-02-05"}
			}
			items[0].Title = "PKD2 in zebrafish"
			fmt.Fprint(w, listing("250", items...))
		default:
			t.Errorf("unexpected cursor %s", cursor)
		}
	}))
	defer ts.Close()

	papers, out := NewBioRxiv(testClient(ts), ts.URL, 0).Fetch(context.Background(), pkdQuery())
	assert.Equal(t, types.FetchPartial, out.Status)
	assert.Equal(t, 1, out.PagesFailed)
	assert.Equal(t, 2, out.PagesFetched)
	assert.Len(t, papers, 101)
	assert.True(t, httputil.IsTransient(out.Err))
}

func TestPreprintFetch_PermanentFailure(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer ts.Close()

	papers, out := NewBioRxiv(testClient(ts), ts.URL, 0).Fetch(context.Background(), pkdQuery())
	assert.Nil(t, papers)
	assert.Equal(t, types.FetchFailed, out.Status)
	assert.Equal(t, 0, out.Records)
	assert.True(t, httputil.IsPermanent(out.Err))
}

func TestPreprintFetch_FirstPageTransientFails(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer ts.Close()

	_, out := NewMedRxiv(testClient(ts), ts.URL, 0).Fetch(context.Background(), pkdQuery())
	assert.Equal(t, types.FetchFailed, out.Status)
	assert.True(t, httputil.IsTransient(out.Err))
}

func TestPreprintFetch_PageCap(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cursor := strings.Split(strings.Trim(r.URL.Path, "/"), "/")[4]
		items := make([]preprintItem, 100)
		for i := range items {
			items[i] = preprintItem{DOI: fmt.Sprintf("10.1101/%s.%d", cursor, i), Title: "ARPKD", Date: "2026-02-03"}
		}
		fmt.Fprint(w, listing(1000, items...))
	}))
	defer ts.Close()

	papers, out := NewBioRxiv(testClient(ts), ts.URL, 2).Fetch(context.Background(), pkdQuery())
	assert.Equal(t, types.FetchPartial, out.Status)
	assert.ErrorIs(t, out.Err, ErrPageCapReached)
	assert.Len(t, papers, 200)
}

func TestFlexInt(t *testing.T) {
	var v struct {
		A flexInt `json:"a"`
		B flexInt `json:"b"`
		C flexInt `json:"c"`
		D flexInt `json:"d"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a":"328","b":12,"c":"NA","d":null}`), &v))
	assert.Equal(t, flexInt{Value: 328, Known: true}, v.A)
	assert.Equal(t, flexInt{Value: 12, Known: true}, v.B)
	assert.False(t, v.C.Known)
	assert.False(t, v.D.Known)
}

func TestMatchesAny(t *testing.T) {
	terms := []string{"adpkd", "renal cyst"}
	assert.True(t, matchesAny("Outcomes in ADPKD", terms))
	assert.True(t, matchesAny("Renal Cyst expansion", terms))
	assert.False(t, matchesAny("Liver fibrosis", terms))
}
