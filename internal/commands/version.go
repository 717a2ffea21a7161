package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "costspectre %s (commit %s, built %s)\n", orUnknown(version), orUnknown(commit), orUnknown(date))
	},
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}
