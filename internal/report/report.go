// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package report renders a RunResult into the artifacts handed to curators:
// an xlsx spreadsheet, a PDF summary, CSL-YAML citations and a YAML snapshot
// of the run.
package report

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pdiddy/pkd-literature/pkg/types"
)

// Kind names an artifact kind.
type Kind string

const (
	KindXLSX     Kind = "xlsx"
	KindPDF      Kind = "pdf"
	KindCSL      Kind = "csl"
	KindSnapshot Kind = "yaml"
)

// AllKinds lists every artifact kind in write order.
var AllKinds = []Kind{KindXLSX, KindPDF, KindCSL, KindSnapshot}

var suffixes = map[Kind]string{
	KindXLSX:     "Data.xlsx",
	KindPDF:      "Summary.pdf",
	KindCSL:      "Citations.yaml",
	KindSnapshot: "Results.yaml",
}

// ParseKind maps a format name such as "xlsx" to a Kind.
func ParseKind(name string) (Kind, bool) {
	f := Kind(name)
	_, ok := suffixes[f]
	return f, ok
}

// FileName returns the artifact name for a run ending on end, e.g.
// 20260207-PKD-Literature-Data.xlsx.
func FileName(end time.Time, f Kind) string {
	return end.Format("20060102") + "-PKD-Literature-" + suffixes[f]
}

// WriteAll renders res in each requested kind into dir and returns the
// written paths in order. Rendering stops at the first error.
func WriteAll(dir string, res *types.RunResult, kinds []Kind, now time.Time) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}
	var written []string
	for _, f := range kinds {
		path := filepath.Join(dir, FileName(res.Query.EndDate, f))
		if err := write(path, res, f, now); err != nil {
			return written, fmt.Errorf("writing %s: %w", filepath.Base(path), err)
		}
		written = append(written, path)
	}
	return written, nil
}

func write(path string, res *types.RunResult, f Kind, now time.Time) error {
	if f == KindSnapshot {
		return WriteSnapshot(path, res, now)
	}
	var buf bytes.Buffer
	var err error
	switch f {
	case KindXLSX:
		err = Spreadsheet{}.Render(res, &buf)
	case KindPDF:
		err = Document{}.Render(res, &buf)
	case KindCSL:
		err = FormatCSL(res.Papers, &buf)
	default:
		err = fmt.Errorf("unknown report kind %q", f)
	}
	if err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}
