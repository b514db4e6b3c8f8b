package cmd

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/estatelens-cli/internal/coordinator"
)

var uploadForce bool

// uploadExtensions are the spreadsheet types the backend ingests.
var uploadExtensions = []string{".xlsx", ".xls"}

var uploadCmd = &cobra.Command{
	Use:   "upload <file>",
	Short: "Upload an Excel dataset to the backend",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := requireConfig()
		if err != nil {
			return err
		}
		file := args[0]
		if !uploadForce && !hasUploadExtension(file) {
			return fmt.Errorf("unsupported file type %q (expected %s, use --force to send anyway)",
				filepath.Ext(file), strings.Join(uploadExtensions, " or "))
		}

		u := coordinator.NewUpload(newClient(c), appLog.Named("upload"))
		u.Select(coordinator.LocalFile(file))
		ch, err := u.Upload(cmd.Context())
		if err != nil {
			return err
		}
		st, ok := <-ch
		if !ok {
			return fmt.Errorf("upload was cancelled")
		}
		if st.Phase == coordinator.Failed {
			return errors.New(st.Message)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ %s (%s)\n", st.Message, st.Payload)
		return nil
	},
}

func hasUploadExtension(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range uploadExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

func init() {
	rootCmd.AddCommand(uploadCmd)
	uploadCmd.Flags().BoolVar(&uploadForce, "force", false, "upload even if the file extension is not .xlsx/.xls")
}
