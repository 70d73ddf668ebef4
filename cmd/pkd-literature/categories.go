// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/pkd-literature/internal/classify"
)

var categoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "Print the classification rules in priority order",
	Long: `Categories lists each research category with the keywords that select it.
A paper gets the first category whose keyword appears in its title or
abstract; papers matching none fall back to the last line.`,
	Run: func(cmd *cobra.Command, args []string) {
		printCategories(cmd.OutOrStdout(), classify.DefaultTable())
	},
}

func printCategories(w io.Writer, t classify.Table) {
	fmt.Fprintf(w, "%-4s  %-16s  %s\n", "#", "Category", "Keywords")
	fmt.Fprintln(w, strings.Repeat("-", 80))
	rules := t.Rules()
	for i, r := range rules {
		kws := make([]string, len(r.Keywords))
		for j, k := range r.Keywords {
			kws[j] = k
			if strings.TrimSpace(k) != k {
				kws[j] = strconv.Quote(k)
			}
		}
		fmt.Fprintf(w, "%-4d  %-16s  %s\n", i+1, r.Category, strings.Join(kws, ", "))
	}
	fmt.Fprintf(w, "%-4d  %-16s  %s\n", len(rules)+1, t.Fallback(), "(no match)")
}

func init() {
	rootCmd.AddCommand(categoriesCmd)
}
