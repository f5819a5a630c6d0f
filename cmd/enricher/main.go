package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "enricher",
	Short: "Enrich tabular teacher records via LLM inference",
	Long: `enricher runs a resumable batch pipeline over a CSV of raw teacher
records: deterministic base transforms, per-record LLM enrichment with
checkpointing, school and curriculum resolution against a reference catalog,
and a final profile completeness score.

Interrupted runs resume from the checkpoint file; already-enriched rows are
never reprocessed and never re-billed.`,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
