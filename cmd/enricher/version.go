package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/edudata/teacher-enrich-pipeline/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the enricher version",
	Run: func(*cobra.Command, []string) {
		fmt.Println(version.Current)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
