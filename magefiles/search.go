//go:build mage

package main

import (
	"os"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Search builds the CLI and runs a search for the last seven days into
// reports/. Set PKD_START and PKD_END (YYYY-MM-DD) to choose the window.
func Search() error {
	mg.Deps(Build, Init)
	args := []string{"search", "--output", "reports", "--format", "xlsx,pdf,yaml", "--metrics-file", "metrics/pkd-literature.prom"}
	if v := os.Getenv("PKD_START"); v != "" {
		args = append(args, "--start", v)
	}
	if v := os.Getenv("PKD_END"); v != "" {
		args = append(args, "--end", v)
	}
	return sh.RunV("bin/"+binName, args...)
}

// Categories prints the classification table.
func Categories() error {
	mg.Deps(Build)
	return sh.RunV("bin/"+binName, "categories")
}
