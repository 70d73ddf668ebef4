// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package report

import (
	"fmt"
	"os"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/pkd-literature/pkg/types"
)

// SnapshotVersion is the current snapshot format.
const SnapshotVersion = 1

// Snapshot is a saved run. Reports can be re-rendered from it without
// querying the sources again.
type Snapshot struct {
	Version     int             `yaml:"version"`
	GeneratedAt time.Time       `yaml:"generated_at"`
	Result      types.RunResult `yaml:"result"`
}

// WriteSnapshot saves res to path as YAML.
func WriteSnapshot(path string, res *types.RunResult, now time.Time) error {
	data, err := yaml.Marshal(&Snapshot{
		Version:     SnapshotVersion,
		GeneratedAt: now.UTC().Truncate(time.Second),
		Result:      *res,
	})
	if err != nil {
		return fmt.Errorf("marshaling snapshot: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadSnapshot loads a snapshot written by WriteSnapshot.
func ReadSnapshot(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading snapshot: %w", err)
	}
	var s Snapshot
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parsing snapshot %s: %w", path, err)
	}
	if s.Version != SnapshotVersion {
		return nil, fmt.Errorf("snapshot %s: unsupported version %d", path, s.Version)
	}
	if s.Result.Query.StartDate.After(s.Result.Query.EndDate) {
		return nil, fmt.Errorf("snapshot %s: start date after end date", path)
	}
	return &s, nil
}
