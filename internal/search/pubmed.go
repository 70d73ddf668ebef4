// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/pdiddy/pkd-literature/internal/httputil"
	"github.com/pdiddy/pkd-literature/internal/topic"
	"github.com/pdiddy/pkd-literature/pkg/types"
)

// PubMed defaults.
const (
	DefaultPubMedBaseURL   = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils"
	DefaultPubMedPageSize  = 500
	DefaultPubMedBatchSize = 100
	DefaultPubMedMaxPages  = 20
	pubmedDateLayout       = "2006/01/02"
)

// PubMed searches NCBI E-utilities: esearch pages through matching PMIDs,
// then efetch retrieves article metadata in batches.
type PubMed struct {
	Client  *httputil.Client
	BaseURL string

	// APIKey, Email and Tool identify the caller to NCBI; all optional.
	APIKey string
	Email  string
	Tool   string

	PageSize  int // PMIDs per esearch page
	BatchSize int // PMIDs per efetch request
	MaxPages  int // esearch page cap
}

// Name returns the source identifier.
func (s *PubMed) Name() types.SourceDatabase { return types.SourcePubMed }

// Fetch runs the PKD term against PubMed for the query window.
func (s *PubMed) Fetch(ctx context.Context, q types.SearchQuery) ([]types.Paper, Outcome) {
	log := zerolog.Ctx(ctx).With().Str("source", string(types.SourcePubMed)).Logger()

	var t tally
	ids, capped, err := s.searchIDs(ctx, q, &t, log)
	if err != nil {
		t.fail(err)
		return finish(types.SourcePubMed, nil, t, capped)
	}

	batch := s.BatchSize
	if batch <= 0 {
		batch = DefaultPubMedBatchSize
	}

	var papers []types.Paper
	for start := 0; start < len(ids); start += batch {
		end := min(start+batch, len(ids))
		articles, err := s.fetchArticles(ctx, ids[start:end])
		if err != nil {
			log.Error().Err(err).Int("batch_start", start).Msg("efetch batch failed")
			t.fail(err)
			if httputil.IsPermanent(err) {
				return finish(types.SourcePubMed, nil, t, capped)
			}
			if ctx.Err() != nil {
				return finish(types.SourcePubMed, papers, t, capped)
			}
			continue
		}
		t.ok()
		for _, a := range articles {
			if p, ok := a.toPaper(q); ok {
				papers = append(papers, p)
			}
		}
	}
	return finish(types.SourcePubMed, papers, t, capped)
}

// searchIDs pages through esearch. A failed page after the total is known is
// skipped; a failed first page stops the search. The returned error is set
// only when the search cannot continue at all.
func (s *PubMed) searchIDs(ctx context.Context, q types.SearchQuery, t *tally, log zerolog.Logger) ([]string, bool, error) {
	pageSize := s.PageSize
	if pageSize <= 0 {
		pageSize = DefaultPubMedPageSize
	}
	maxPages := s.MaxPages
	if maxPages <= 0 {
		maxPages = DefaultPubMedMaxPages
	}
	term := topic.PubMedTerm(q)
	if term == "" {
		return nil, false, fmt.Errorf("pubmed: empty search term")
	}

	seen := make(map[string]bool)
	var ids []string
	total := -1
	retstart := 0
	for page := 0; ; page++ {
		if total >= 0 && retstart >= total {
			return ids, false, nil
		}
		if page >= maxPages {
			return ids, true, nil
		}

		res, err := s.esearch(ctx, term, q, retstart, pageSize)
		if err != nil {
			log.Warn().Err(err).Int("page", page).Msg("esearch page failed")
			if total < 0 || httputil.IsPermanent(err) || ctx.Err() != nil {
				return ids, false, err
			}
			t.fail(err)
			retstart += pageSize
			continue
		}
		t.ok()

		if res.Count.Known {
			total = res.Count.Value
		}
		if len(res.IDList) == 0 {
			return ids, false, nil
		}
		for _, id := range res.IDList {
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
		retstart += len(res.IDList)
		log.Debug().Int("page", page).Int("ids", len(ids)).Int("total", total).Msg("esearch page")
		if total < 0 && len(res.IDList) < pageSize {
			return ids, false, nil
		}
	}
}

type esearchResponse struct {
	Result esearchResult `json:"esearchresult"`
}

type esearchResult struct {
	Count  flexInt  `json:"count"`
	IDList []string `json:"idlist"`
	Error  string   `json:"ERROR"`
}

func (s *PubMed) esearch(ctx context.Context, term string, q types.SearchQuery, retstart, retmax int) (esearchResult, error) {
	params := s.baseParams()
	params.Set("term", term)
	params.Set("datetype", "pdat")
	params.Set("mindate", q.StartDate.Format(pubmedDateLayout))
	params.Set("maxdate", q.EndDate.Format(pubmedDateLayout))
	params.Set("retmode", "json")
	params.Set("retstart", strconv.Itoa(retstart))
	params.Set("retmax", strconv.Itoa(retmax))

	reqURL := s.endpoint("esearch.fcgi") + "?" + params.Encode()
	body, err := s.Client.Get(ctx, reqURL)
	if err != nil {
		return esearchResult{}, err
	}

	var resp esearchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return esearchResult{}, fmt.Errorf("decoding esearch response: %w", err)
	}
	if resp.Result.Error != "" {
		return esearchResult{}, &httputil.PermanentFetchError{URL: reqURL, StatusCode: 200, Body: resp.Result.Error}
	}
	return resp.Result, nil
}

func (s *PubMed) fetchArticles(ctx context.Context, pmids []string) ([]pubmedArticle, error) {
	params := s.baseParams()
	params.Set("id", strings.Join(pmids, ","))
	params.Set("retmode", "xml")
	params.Set("rettype", "abstract")

	body, err := s.Client.Get(ctx, s.endpoint("efetch.fcgi")+"?"+params.Encode())
	if err != nil {
		return nil, err
	}

	var set pubmedArticleSet
	if err := xml.Unmarshal(body, &set); err != nil {
		return nil, fmt.Errorf("decoding efetch response: %w", err)
	}
	return set.Articles, nil
}

func (s *PubMed) baseParams() url.Values {
	params := url.Values{"db": {"pubmed"}}
	if s.APIKey != "" {
		params.Set("api_key", s.APIKey)
	}
	if s.Email != "" {
		params.Set("email", s.Email)
	}
	if s.Tool != "" {
		params.Set("tool", s.Tool)
	}
	return params
}

func (s *PubMed) endpoint(name string) string {
	base := s.BaseURL
	if base == "" {
		base = DefaultPubMedBaseURL
	}
	return strings.TrimRight(base, "/") + "/" + name
}

// --- efetch wire format ---

type pubmedArticleSet struct {
	XMLName  xml.Name        `xml:"PubmedArticleSet"`
	Articles []pubmedArticle `xml:"PubmedArticle"`
}

type pubmedArticle struct {
	Citation struct {
		PMID    string `xml:"PMID"`
		Article struct {
			Journal struct {
				Title           string `xml:"Title"`
				ISOAbbreviation string `xml:"ISOAbbreviation"`
				Issue           struct {
					PubDate struct {
						Year        string `xml:"Year"`
						Month       string `xml:"Month"`
						Day         string `xml:"Day"`
						MedlineDate string `xml:"MedlineDate"`
					} `xml:"PubDate"`
				} `xml:"JournalIssue"`
			} `xml:"Journal"`
			Title       xmlText         `xml:"ArticleTitle"`
			ELocations  []pubmedELoc    `xml:"ELocationID"`
			Abstract    []abstractText  `xml:"Abstract>AbstractText"`
			Authors     []pubmedAuthor  `xml:"AuthorList>Author"`
			ArticleDate []pubmedDateXML `xml:"ArticleDate"`
		} `xml:"Article"`
	} `xml:"MedlineCitation"`
	Data struct {
		History    []pubmedHistoryDate `xml:"History>PubMedPubDate"`
		ArticleIDs []pubmedArticleID   `xml:"ArticleIdList>ArticleId"`
	} `xml:"PubmedData"`
}

type pubmedELoc struct {
	Type  string `xml:"EIdType,attr"`
	Valid string `xml:"ValidYN,attr"`
	Value string `xml:",chardata"`
}

type pubmedAuthor struct {
	LastName       string `xml:"LastName"`
	ForeName       string `xml:"ForeName"`
	Initials       string `xml:"Initials"`
	CollectiveName string `xml:"CollectiveName"`
}

type pubmedDateXML struct {
	Year  string `xml:"Year"`
	Month string `xml:"Month"`
	Day   string `xml:"Day"`
}

type pubmedHistoryDate struct {
	Status string `xml:"PubStatus,attr"`
	pubmedDateXML
}

type pubmedArticleID struct {
	Type  string `xml:"IdType,attr"`
	Value string `xml:",chardata"`
}

// abstractText keeps the Label attribute of structured abstract sections.
type abstractText struct {
	Label string
	Text  string
}

func (a *abstractText) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	for _, attr := range start.Attr {
		if attr.Name.Local == "Label" {
			a.Label = strings.TrimSpace(attr.Value)
		}
	}
	text, err := collectText(d)
	if err != nil {
		return err
	}
	a.Text = text
	return nil
}

func (a pubmedArticle) toPaper(q types.SearchQuery) (types.Paper, bool) {
	art := a.Citation.Article
	pmid := strings.TrimSpace(a.Citation.PMID)
	title := string(art.Title)
	if strings.TrimSpace(title) == "" {
		return types.Paper{}, false
	}

	var authors []string
	lastName := ""
	for _, au := range art.Authors {
		switch {
		case au.CollectiveName != "":
			authors = append(authors, au.CollectiveName)
			lastName = au.CollectiveName
		case au.LastName != "":
			name := au.LastName
			if au.ForeName != "" {
				name = au.ForeName + " " + au.LastName
			} else if au.Initials != "" {
				name = au.Initials + " " + au.LastName
			}
			authors = append(authors, name)
			lastName = au.LastName
		}
	}

	journal := strings.TrimSpace(art.Journal.Title)
	if journal == "" {
		journal = strings.TrimSpace(art.Journal.ISOAbbreviation)
	}

	doi := a.doi()
	return types.Paper{
		Source:             types.SourcePubMed,
		DOI:                doi,
		PMID:               pmid,
		Title:              title,
		Authors:            authors,
		LastAuthorLastName: lastName,
		Journal:            journal,
		PublicationDate:    a.publicationDate(q),
		Abstract:           joinAbstract(art.Abstract),
		URL:                types.CanonicalURL(doi, types.PubMedURL(pmid)),
	}, true
}

func (a pubmedArticle) doi() string {
	for _, id := range a.Data.ArticleIDs {
		if strings.EqualFold(id.Type, "doi") {
			if v := strings.TrimSpace(id.Value); v != "" {
				return v
			}
		}
	}
	for _, e := range a.Citation.Article.ELocations {
		if strings.EqualFold(e.Type, "doi") && e.Valid != "N" {
			if v := strings.TrimSpace(e.Value); v != "" {
				return v
			}
		}
	}
	return ""
}

// publicationDate returns the first candidate date inside the query window,
// checking the electronic article date, the journal issue date, and the
// PubMed history in that order. When none falls inside the window the first
// valid candidate is returned so the aggregator can count it as out of window.
func (a pubmedArticle) publicationDate(q types.SearchQuery) time.Time {
	var candidates []time.Time
	for _, d := range a.Citation.Article.ArticleDate {
		candidates = append(candidates, parseDateParts(d.Year, d.Month, d.Day))
	}
	pd := a.Citation.Article.Journal.Issue.PubDate
	if pd.Year != "" {
		candidates = append(candidates, parseDateParts(pd.Year, pd.Month, pd.Day))
	} else if pd.MedlineDate != "" {
		candidates = append(candidates, parseMedlineDate(pd.MedlineDate))
	}
	for _, status := range []string{"pubmed", "entrez", "medline"} {
		for _, h := range a.Data.History {
			if h.Status == status {
				candidates = append(candidates, parseDateParts(h.Year, h.Month, h.Day))
			}
		}
	}

	var first time.Time
	for _, c := range candidates {
		if c.IsZero() {
			continue
		}
		if q.Contains(c) {
			return c
		}
		if first.IsZero() {
			first = c
		}
	}
	return first
}

func joinAbstract(sections []abstractText) string {
	var parts []string
	for _, s := range sections {
		if s.Text == "" {
			continue
		}
		if s.Label != "" {
			parts = append(parts, s.Label+": "+s.Text)
		} else {
			parts = append(parts, s.Text)
		}
	}
	return strings.Join(parts, " ")
}
