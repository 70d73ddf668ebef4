// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by every source adapter.
type HTTPConfig struct {
	// Timeout is the per-request timeout (default 30s).
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout" validate:"gt=0"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "pkd-literature/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent" validate:"required"`
}

// RetryConfig bounds the retry policy wrapped around each network call.
type RetryConfig struct {
	MaxAttempts int           `json:"max_attempts" yaml:"max_attempts" mapstructure:"max_attempts" validate:"gte=1,lte=10"`
	BaseDelay   time.Duration `json:"base_delay" yaml:"base_delay" mapstructure:"base_delay" validate:"gt=0"`
	MaxDelay    time.Duration `json:"max_delay" yaml:"max_delay" mapstructure:"max_delay" validate:"gtefield=BaseDelay"`
}

// PubMedConfig holds settings for the NCBI E-utilities adapter.
type PubMedConfig struct {
	Enabled bool   `json:"enabled" yaml:"enabled" mapstructure:"enabled"`
	BaseURL string `json:"base_url" yaml:"base_url" mapstructure:"base_url" validate:"required,url"`

	// APIKey raises the NCBI rate limit from 3 to 10 requests per second.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty" mapstructure:"api_key"`

	// Email and Tool identify the caller to NCBI.
	Email string `json:"email,omitempty" yaml:"email,omitempty" mapstructure:"email" validate:"omitempty,email"`
	Tool  string `json:"tool" yaml:"tool" mapstructure:"tool"`

	// RateLimit is requests per second; 0 picks 3 without an API key and 10 with one.
	RateLimit float64 `json:"rate_limit" yaml:"rate_limit" mapstructure:"rate_limit" validate:"gte=0"`

	PageSize  int `json:"page_size" yaml:"page_size" mapstructure:"page_size" validate:"gte=1,lte=10000"`
	BatchSize int `json:"batch_size" yaml:"batch_size" mapstructure:"batch_size" validate:"gte=1,lte=500"`
	MaxPages  int `json:"max_pages" yaml:"max_pages" mapstructure:"max_pages" validate:"gte=1"`
}

// PreprintConfig holds settings for a bioRxiv or medRxiv adapter.
type PreprintConfig struct {
	Enabled   bool    `json:"enabled" yaml:"enabled" mapstructure:"enabled"`
	BaseURL   string  `json:"base_url" yaml:"base_url" mapstructure:"base_url" validate:"required,url"`
	RateLimit float64 `json:"rate_limit" yaml:"rate_limit" mapstructure:"rate_limit" validate:"gte=0"`
	MaxPages  int     `json:"max_pages" yaml:"max_pages" mapstructure:"max_pages" validate:"gte=1"`
}

// SourcesConfig selects and configures the literature sources.
type SourcesConfig struct {
	// Order is the dedup precedence, e.g. [pubmed, biorxiv, medrxiv].
	Order []string `json:"order" yaml:"order" mapstructure:"order" validate:"required,min=1,dive,oneof=pubmed biorxiv medrxiv"`

	PubMed  PubMedConfig   `json:"pubmed" yaml:"pubmed" mapstructure:"pubmed"`
	BioRxiv PreprintConfig `json:"biorxiv" yaml:"biorxiv" mapstructure:"biorxiv"`
	MedRxiv PreprintConfig `json:"medrxiv" yaml:"medrxiv" mapstructure:"medrxiv"`
}

// LoggingConfig configures the zerolog logger.
type LoggingConfig struct {
	// Level is the minimum level (trace, debug, info, warn, error).
	Level string `json:"level" yaml:"level" mapstructure:"level" validate:"oneof=trace debug info warn warning error"`

	// Format is json or console.
	Format string `json:"format" yaml:"format" mapstructure:"format" validate:"oneof=json console pretty"`

	// Output is stdout or stderr.
	Output string `json:"output" yaml:"output" mapstructure:"output" validate:"oneof=stdout stderr"`
}

// ReportConfig controls which artifacts the CLI writes and where.
type ReportConfig struct {
	OutputDir string `json:"output_dir" yaml:"output_dir" mapstructure:"output_dir" validate:"required"`

	// Formats lists artifacts to write: xlsx, pdf, csl, yaml.
	Formats []string `json:"formats" yaml:"formats" mapstructure:"formats" validate:"dive,oneof=xlsx pdf csl yaml"`

	// MetricsFile, when set, receives Prometheus metrics in text format.
	MetricsFile string `json:"metrics_file,omitempty" yaml:"metrics_file,omitempty" mapstructure:"metrics_file"`
}

// Config is the full configuration of a pkd-literature run.
type Config struct {
	HTTP    HTTPConfig    `json:"http" yaml:"http" mapstructure:"http"`
	Retry   RetryConfig   `json:"retry" yaml:"retry" mapstructure:"retry"`
	Sources SourcesConfig `json:"sources" yaml:"sources" mapstructure:"sources"`
	Logging LoggingConfig `json:"logging" yaml:"logging" mapstructure:"logging"`
	Report  ReportConfig  `json:"report" yaml:"report" mapstructure:"report"`
}

// SourceOrder converts the configured names into SourceDatabase values,
// skipping unknown or repeated entries. An empty result falls back to
// DefaultSourceOrder.
func (c SourcesConfig) SourceOrder() []SourceDatabase {
	seen := make(map[SourceDatabase]bool)
	var out []SourceDatabase
	for _, name := range c.Order {
		s, ok := ParseSourceDatabase(name)
		if !ok || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	if len(out) == 0 {
		return append([]SourceDatabase(nil), DefaultSourceOrder...)
	}
	return out
}
