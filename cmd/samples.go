package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/estatelens-cli/internal/shell"
)

var samplesCmd = &cobra.Command{
	Use:   "samples",
	Short: "List sample queries",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "Try these sample queries:")
		for i, q := range shell.SampleQueries {
			fmt.Fprintf(out, "  %d. %s\n", i+1, q)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(samplesCmd)
}
