// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package secrets

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/pkd-literature/pkg/types"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name  string
		setup func(t *testing.T) string
		want  map[string]string
	}{
		{
			name: "reads key files and trims whitespace",
			setup: func(t *testing.T) string {
				dir := t.TempDir()
				writeFile(t, dir, NCBIAPIKey, "  abc123  \n")
				writeFile(t, dir, NCBIEmail, "curator@example.org\n")
				return dir
			},
			want: map[string]string{
				NCBIAPIKey: "abc123",
				NCBIEmail:  "curator@example.org",
			},
		},
		{
			name: "missing directory is empty",
			setup: func(t *testing.T) string {
				return filepath.Join(t.TempDir(), "does-not-exist")
			},
			want: map[string]string{},
		},
		{
			name: "skips empty and whitespace files",
			setup: func(t *testing.T) string {
				dir := t.TempDir()
				writeFile(t, dir, NCBIAPIKey, "k")
				writeFile(t, dir, "empty", "")
				writeFile(t, dir, "blank", "  \n\t ")
				return dir
			},
			want: map[string]string{NCBIAPIKey: "k"},
		},
		{
			name: "skips dotfiles and subdirectories",
			setup: func(t *testing.T) string {
				dir := t.TempDir()
				writeFile(t, dir, ".gitkeep", "x")
				writeFile(t, dir, NCBIEmail, "a@b.org")
				require.NoError(t, os.Mkdir(filepath.Join(dir, "nested"), 0o755))
				return dir
			},
			want: map[string]string{NCBIEmail: "a@b.org"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Load(tt.setup(t), zerolog.Nop())
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLoadUnreadableFile(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("root can read files without permission bits")
	}
	dir := t.TempDir()
	writeFile(t, dir, NCBIAPIKey, "value123")
	bad := filepath.Join(dir, NCBIEmail)
	require.NoError(t, os.WriteFile(bad, []byte("secret"), 0o000))
	t.Cleanup(func() { os.Chmod(bad, 0o644) })

	got, err := Load(dir, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, "value123", got[NCBIAPIKey])
	assert.NotContains(t, got, NCBIEmail)
}

func TestApply(t *testing.T) {
	s := map[string]string{NCBIAPIKey: "from-file", NCBIEmail: "file@example.org"}

	var cfg types.Config
	Apply(&cfg, s)
	assert.Equal(t, "from-file", cfg.Sources.PubMed.APIKey)
	assert.Equal(t, "file@example.org", cfg.Sources.PubMed.Email)

	cfg = types.Config{}
	cfg.Sources.PubMed.APIKey = "explicit"
	Apply(&cfg, s)
	assert.Equal(t, "explicit", cfg.Sources.PubMed.APIKey)
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}
