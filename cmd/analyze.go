package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/estatelens-cli/internal/chart"
	"github.com/KaramelBytes/estatelens-cli/internal/coordinator"
	"github.com/KaramelBytes/estatelens-cli/internal/model"
	"github.com/KaramelBytes/estatelens-cli/internal/shell"
	"github.com/KaramelBytes/estatelens-cli/internal/utils"
)

var (
	anaLocation  string
	anaYear      string
	anaExport    string
	anaChartsDir string
	anaJSON      bool
)

// analyzeOutput is the --json view of one analysis.
type analyzeOutput struct {
	Query   string                 `json:"query"`
	Summary string                 `json:"summary"`
	Charts  []chartOutput          `json:"charts"`
	Filter  model.FilterState      `json:"filter"`
	Total   int                    `json:"total_rows"`
	Rows    []model.PropertyRecord `json:"rows"`
}

type chartOutput struct {
	Location string           `json:"location"`
	Rows     []chart.ChartRow `json:"rows,omitempty"`
	Error    string           `json:"error,omitempty"`
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze <query>",
	Short: "Ask the backend a question and show the analysis",
	Example: `  estatelens analyze "Give me analysis of Wakad"
  estatelens analyze "Show me data for all locations in 2023" --location Aundh --export aundh.csv
  estatelens analyze "Compare Ambegaon Budruk and Aundh demand trends" --charts ./charts`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := requireConfig()
		if err != nil {
			return err
		}
		query := strings.TrimSpace(strings.Join(args, " "))
		if query == "" {
			return fmt.Errorf("query must not be empty")
		}
		out := cmd.OutOrStdout()

		q := coordinator.NewQuery(newClient(c), appLog.Named("query"))
		st, ok := <-q.Submit(cmd.Context(), query)
		if !ok {
			return fmt.Errorf("analysis was cancelled")
		}
		if st.Phase == coordinator.Failed {
			return errors.New(st.Message)
		}
		state := shell.State{}.SetQuery(query).ApplyQuery(st).
			SetLocationFilter(anaLocation).
			SetYearFilter(anaYear)

		if anaJSON {
			if err := printJSON(cmd, state); err != nil {
				return err
			}
		} else if err := shell.Render(out, state); err != nil {
			return err
		}

		if path := strings.TrimSpace(anaExport); path != "" {
			n, err := shell.ExportFile(path, state)
			if err != nil {
				return fmt.Errorf("export: %w", err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "✓ Exported %d rows to %s\n", n, path)
		}
		if dir := strings.TrimSpace(anaChartsDir); dir != "" {
			opt, err := chartOptions(c)
			if err != nil {
				return err
			}
			paths, err := chart.WriteCharts(dir, chart.BuildCharts(state.Result.ChartData), opt)
			for _, p := range paths {
				fmt.Fprintf(cmd.ErrOrStderr(), "✓ Wrote %s\n", p)
			}
			if err != nil {
				return fmt.Errorf("charts: %w", err)
			}
		}
		return nil
	},
}

func printJSON(cmd *cobra.Command, s shell.State) error {
	all, filtered := s.Rows()
	view := analyzeOutput{
		Query:   s.Result.Query,
		Summary: s.Result.Summary,
		Charts:  []chartOutput{},
		Filter:  s.Filter,
		Total:   len(all),
		Rows:    filtered,
	}
	if view.Rows == nil {
		view.Rows = []model.PropertyRecord{}
	}
	for _, lc := range chart.BuildCharts(s.Result.ChartData) {
		co := chartOutput{Location: lc.Location, Rows: lc.Rows}
		if lc.Err != nil {
			co.Error = lc.Err.Error()
		}
		view.Charts = append(view.Charts, co)
	}
	b, err := utils.PrettyJSON(view)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(b))
	return err
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	analyzeCmd.Flags().StringVar(&anaLocation, "location", "", "show only rows for this location")
	analyzeCmd.Flags().StringVar(&anaYear, "year", "", "show only rows for this year")
	analyzeCmd.Flags().StringVar(&anaExport, "export", "", "write the filtered rows as CSV to this path (e.g. real_estate_data.csv)")
	analyzeCmd.Flags().StringVar(&anaChartsDir, "charts", "", "write price and demand charts into this directory")
	analyzeCmd.Flags().BoolVar(&anaJSON, "json", false, "print the analysis as JSON")
}
