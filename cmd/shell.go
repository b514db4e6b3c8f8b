package cmd

import (
	"github.com/spf13/cobra"

	"github.com/KaramelBytes/estatelens-cli/internal/coordinator"
	"github.com/KaramelBytes/estatelens-cli/internal/shell"
)

var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Start an interactive analysis session",
	Long: `Start an interactive session. Type a question to analyze it; lines starting
with ':' are commands (:help lists them). Filters, export and charts apply to the
result currently on screen.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := requireConfig()
		if err != nil {
			return err
		}
		opt, err := chartOptions(c)
		if err != nil {
			return err
		}
		client := newClient(c)
		sess := shell.NewSession(
			coordinator.NewQuery(client, appLog.Named("query")),
			coordinator.NewUpload(client, appLog.Named("upload")),
			shell.SessionConfig{ExportPath: c.ExportPath, ChartsDir: c.ChartsDir, Charts: opt},
			appLog.Named("shell"),
		)
		return sess.Run(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(shellCmd)
}
