// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"github.com/rs/zerolog"

	"github.com/pdiddy/pkd-literature/internal/httputil"
	"github.com/pdiddy/pkd-literature/internal/observability"
	"github.com/pdiddy/pkd-literature/internal/search"
	"github.com/pdiddy/pkd-literature/pkg/types"
)

// NCBI request ceilings with and without an API key, and the default for
// the preprint API.
const (
	pubmedRate      = 3.0
	pubmedKeyedRate = 10.0
	preprintRate    = 2.0
)

// FromConfig builds a Pipeline with one rate-limited client per enabled
// source. metrics may be nil.
func FromConfig(cfg types.Config, logger zerolog.Logger, metrics *observability.Metrics) *Pipeline {
	policy := httputil.Policy{
		MaxAttempts: cfg.Retry.MaxAttempts,
		BaseDelay:   cfg.Retry.BaseDelay,
		MaxDelay:    cfg.Retry.MaxDelay,
	}
	client := func(src types.SourceDatabase, rps float64) *httputil.Client {
		c := httputil.NewClient(cfg.HTTP.Timeout, rps, policy, cfg.HTTP.UserAgent)
		c.Logger = logger.With().Str("source", string(src)).Logger()
		c.Observer = metrics.SourceObserver(src)
		return c
	}

	var sources []search.Source
	if pm := cfg.Sources.PubMed; pm.Enabled {
		sources = append(sources, &search.PubMed{
			Client:    client(types.SourcePubMed, PubMedRate(pm)),
			BaseURL:   pm.BaseURL,
			APIKey:    pm.APIKey,
			Email:     pm.Email,
			Tool:      pm.Tool,
			PageSize:  pm.PageSize,
			BatchSize: pm.BatchSize,
			MaxPages:  pm.MaxPages,
		})
	}
	if bx := cfg.Sources.BioRxiv; bx.Enabled {
		sources = append(sources, search.NewBioRxiv(client(types.SourceBioRxiv, rateOr(bx.RateLimit, preprintRate)), bx.BaseURL, bx.MaxPages))
	}
	if mx := cfg.Sources.MedRxiv; mx.Enabled {
		sources = append(sources, search.NewMedRxiv(client(types.SourceMedRxiv, rateOr(mx.RateLimit, preprintRate)), mx.BaseURL, mx.MaxPages))
	}

	p := New(sources...)
	p.Order = cfg.Sources.SourceOrder()
	p.Logger = logger
	p.Metrics = metrics
	return p
}

// PubMedRate returns the configured PubMed request rate, or the NCBI ceiling
// for the presence of an API key when unset.
func PubMedRate(cfg types.PubMedConfig) float64 {
	if cfg.RateLimit > 0 {
		return cfg.RateLimit
	}
	if cfg.APIKey != "" {
		return pubmedKeyedRate
	}
	return pubmedRate
}

func rateOr(v, fallback float64) float64 {
	if v > 0 {
		return v
	}
	return fallback
}
