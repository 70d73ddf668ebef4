// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads NCBI credentials from a directory of plain-text files.
// Each regular file is one secret: the filename is the key and the trimmed
// contents are the value.
//
// Recognised keys: ncbi-api-key, ncbi-email.
package secrets

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/pdiddy/pkd-literature/pkg/types"
)

// DefaultDir is where the CLI looks for secrets.
const DefaultDir = ".secrets/"

// Secret file names.
const (
	NCBIAPIKey = "ncbi-api-key"
	NCBIEmail  = "ncbi-email"
)

// Load reads every file in dir into a map of filename to trimmed contents.
// A missing directory yields an empty map. Unreadable files are logged and
// skipped.
func Load(dir string, logger zerolog.Logger) (map[string]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	out := make(map[string]string)
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			logger.Warn().Err(err).Str("secret", name).Msg("could not read secret")
			continue
		}
		if v := strings.TrimSpace(string(data)); v != "" {
			out[name] = v
		}
	}
	return out, nil
}

// Apply fills PubMed credentials from secrets where the config leaves them
// empty. Explicit configuration wins.
func Apply(cfg *types.Config, s map[string]string) {
	if cfg.Sources.PubMed.APIKey == "" {
		cfg.Sources.PubMed.APIKey = s[NCBIAPIKey]
	}
	if cfg.Sources.PubMed.Email == "" {
		cfg.Sources.PubMed.Email = s[NCBIEmail]
	}
}
