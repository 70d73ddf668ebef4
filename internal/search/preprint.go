// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/pdiddy/pkd-literature/internal/httputil"
	"github.com/pdiddy/pkd-literature/pkg/types"
)

// Preprint server defaults. The details endpoint returns 100 records per page.
const (
	DefaultPreprintBaseURL  = "https://api.biorxiv.org"
	DefaultPreprintMaxPages = 100
	preprintPageSize        = 100
)

// Preprint lists a preprint server (bioRxiv or medRxiv) for the query window
// and keeps records whose title or abstract mentions a topic term. The
// details API has no keyword search, so filtering happens client-side.
type Preprint struct {
	Server   types.SourceDatabase
	Client   *httputil.Client
	BaseURL  string
	MaxPages int
}

// NewBioRxiv returns a Preprint source for bioRxiv.
func NewBioRxiv(client *httputil.Client, baseURL string, maxPages int) *Preprint {
	return &Preprint{Server: types.SourceBioRxiv, Client: client, BaseURL: baseURL, MaxPages: maxPages}
}

// NewMedRxiv returns a Preprint source for medRxiv.
func NewMedRxiv(client *httputil.Client, baseURL string, maxPages int) *Preprint {
	return &Preprint{Server: types.SourceMedRxiv, Client: client, BaseURL: baseURL, MaxPages: maxPages}
}

// Name returns the server's source identifier.
func (s *Preprint) Name() types.SourceDatabase { return s.Server }

type preprintResponse struct {
	Messages   []preprintMessage `json:"messages"`
	Collection []preprintItem    `json:"collection"`
}

type preprintMessage struct {
	Status string  `json:"status"`
	Cursor flexInt `json:"cursor"`
	Count  flexInt `json:"count"`
	Total  flexInt `json:"total"`
}

type preprintItem struct {
	DOI      string `json:"doi"`
	Title    string `json:"title"`
	Authors  string `json:"authors"`
	Date     string `json:"date"`
	Version  string `json:"version"`
	Category string `json:"category"`
	Abstract string `json:"abstract"`
	Server   string `json:"server"`
}

// Fetch pages through the server listing for the query window.
func (s *Preprint) Fetch(ctx context.Context, q types.SearchQuery) ([]types.Paper, Outcome) {
	log := zerolog.Ctx(ctx).With().Str("source", string(s.Server)).Logger()

	maxPages := s.MaxPages
	if maxPages <= 0 {
		maxPages = DefaultPreprintMaxPages
	}
	terms := q.FilterTerms()

	var (
		t      tally
		papers []types.Paper
		capped bool
	)
	seen := make(map[string]bool)
	total := -1
	cursor := 0

	for page := 0; ; page++ {
		if total >= 0 && cursor >= total {
			break
		}
		if page >= maxPages {
			capped = true
			break
		}

		resp, err := s.page(ctx, q, cursor)
		if err != nil {
			log.Warn().Err(err).Int("page", page).Int("cursor", cursor).Msg("listing page failed")
			t.fail(err)
			if total < 0 || httputil.IsPermanent(err) || ctx.Err() != nil {
				break
			}
			cursor += preprintPageSize
			continue
		}
		t.ok()

		if len(resp.Messages) > 0 && resp.Messages[0].Total.Known {
			total = resp.Messages[0].Total.Value
		}
		if len(resp.Collection) == 0 {
			break
		}
		for _, item := range resp.Collection {
			key := NormalizeDOI(item.DOI)
			if key != "" {
				if seen[key] {
					continue
				}
				seen[key] = true
			}
			if strings.TrimSpace(item.Title) == "" || !matchesAny(item.Title+" "+item.Abstract, terms) {
				continue
			}
			papers = append(papers, s.toPaper(item))
		}
		cursor += len(resp.Collection)
		log.Debug().Int("page", page).Int("cursor", cursor).Int("total", total).Int("kept", len(papers)).Msg("listing page")
	}

	return finish(s.Server, papers, t, capped)
}

func (s *Preprint) page(ctx context.Context, q types.SearchQuery, cursor int) (preprintResponse, error) {
	base := s.BaseURL
	if base == "" {
		base = DefaultPreprintBaseURL
	}
	reqURL := fmt.Sprintf("%s/details/%s/%s/%s/%d/json",
		strings.TrimRight(base, "/"),
		strings.ToLower(string(s.Server)),
		q.StartDate.Format(types.DateLayout),
		q.EndDate.Format(types.DateLayout),
		cursor)

	body, err := s.Client.Get(ctx, reqURL)
	if err != nil {
		return preprintResponse{}, err
	}
	var resp preprintResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return preprintResponse{}, fmt.Errorf("decoding %s listing: %w", s.Server, err)
	}
	return resp, nil
}

func (s *Preprint) toPaper(item preprintItem) types.Paper {
	var authors []string
	for _, a := range strings.Split(item.Authors, ";") {
		if a = strings.TrimSpace(a); a != "" {
			authors = append(authors, a)
		}
	}
	lastName := ""
	if len(authors) > 0 {
		lastName = types.Surname(authors[len(authors)-1])
	}

	doi := strings.TrimSpace(item.DOI)
	date, _ := types.ParseDate(item.Date)
	permalink := ""
	if doi != "" {
		permalink = fmt.Sprintf("https://www.%s.org/content/%s", strings.ToLower(string(s.Server)), doi)
	}

	return types.Paper{
		Source:             s.Server,
		DOI:                doi,
		Title:              strings.Join(strings.Fields(item.Title), " "),
		Authors:            authors,
		LastAuthorLastName: lastName,
		Journal:            string(s.Server),
		PublicationDate:    date,
		Abstract:           strings.TrimSpace(item.Abstract),
		URL:                types.CanonicalURL(doi, permalink),
	}
}

// matchesAny reports whether text contains any of the lowercased terms.
func matchesAny(text string, terms []string) bool {
	lower := strings.ToLower(text)
	for _, term := range terms {
		if strings.Contains(lower, term) {
			return true
		}
	}
	return false
}
