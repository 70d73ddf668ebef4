// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package config loads types.Config from defaults, an optional YAML file and
// PKD_LITERATURE_* environment variables, then validates it.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/pdiddy/pkd-literature/internal/httputil"
	"github.com/pdiddy/pkd-literature/internal/search"
	"github.com/pdiddy/pkd-literature/pkg/types"
)

// Name is the config file base name and the default tool identifier.
const Name = "pkd-literature"

// EnvPrefix prefixes environment overrides, e.g. PKD_LITERATURE_LOGGING_LEVEL.
const EnvPrefix = "PKD_LITERATURE"

// New returns a viper instance with defaults, search paths and environment
// binding set. file, when non-empty, replaces the search paths.
func New(file, version string) *viper.Viper {
	v := viper.New()
	SetDefaults(v, version)

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName(Name)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", Name))
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// SetDefaults registers every default value on v.
func SetDefaults(v *viper.Viper, version string) {
	if version == "" {
		version = "dev"
	}
	v.SetDefault("http.timeout", httputil.DefaultTimeout)
	v.SetDefault("http.user_agent", Name+"/"+version)

	v.SetDefault("retry.max_attempts", httputil.DefaultMaxAttempts)
	v.SetDefault("retry.base_delay", httputil.DefaultBaseDelay)
	v.SetDefault("retry.max_delay", httputil.DefaultMaxDelay)

	v.SetDefault("sources.order", []string{"pubmed", "biorxiv", "medrxiv"})

	v.SetDefault("sources.pubmed.enabled", true)
	v.SetDefault("sources.pubmed.base_url", search.DefaultPubMedBaseURL)
	v.SetDefault("sources.pubmed.api_key", "")
	v.SetDefault("sources.pubmed.email", "")
	v.SetDefault("sources.pubmed.tool", Name)
	v.SetDefault("sources.pubmed.rate_limit", 0.0)
	v.SetDefault("sources.pubmed.page_size", search.DefaultPubMedPageSize)
	v.SetDefault("sources.pubmed.batch_size", search.DefaultPubMedBatchSize)
	v.SetDefault("sources.pubmed.max_pages", search.DefaultPubMedMaxPages)

	for _, server := range []string{"biorxiv", "medrxiv"} {
		v.SetDefault("sources."+server+".enabled", true)
		v.SetDefault("sources."+server+".base_url", search.DefaultPreprintBaseURL)
		v.SetDefault("sources."+server+".rate_limit", 2.0)
		v.SetDefault("sources."+server+".max_pages", search.DefaultPreprintMaxPages)
	}

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.output", "stderr")

	v.SetDefault("report.output_dir", ".")
	v.SetDefault("report.formats", []string{"xlsx", "pdf"})
	v.SetDefault("report.metrics_file", "")
}

// Load reads the config file if one exists, unmarshals and validates. A
// missing file is not an error.
func Load(v *viper.Viper) (types.Config, error) {
	var cfg types.Config
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return cfg, fmt.Errorf("reading config file: %w", err)
		}
	}
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("decoding config: %w", err)
	}
	normalize(&cfg)
	if err := Validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// normalize lowercases enumerated values so validation accepts "PubMed" and
// "pubmed" alike. Environment lists arrive as one space-separated string.
func normalize(cfg *types.Config) {
	cfg.Sources.Order = lowerList(cfg.Sources.Order)
	cfg.Report.Formats = lowerList(cfg.Report.Formats)
	cfg.Logging.Level = strings.ToLower(strings.TrimSpace(cfg.Logging.Level))
	cfg.Logging.Format = strings.ToLower(strings.TrimSpace(cfg.Logging.Format))
	cfg.Logging.Output = strings.ToLower(strings.TrimSpace(cfg.Logging.Output))
}

func lowerList(in []string) []string {
	var out []string
	for _, item := range in {
		for _, f := range strings.FieldsFunc(item, func(r rune) bool { return r == ',' || r == ' ' }) {
			out = append(out, strings.ToLower(f))
		}
	}
	return out
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks struct tags on cfg and reports every failing field.
func Validate(cfg types.Config) error {
	err := validate.Struct(cfg)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validating config: %w", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s fails %q", fe.Namespace(), fe.Tag()))
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}
