package shell

import (
	"fmt"
	"io"
	"strings"

	"github.com/KaramelBytes/estatelens-cli/internal/chart"
	"github.com/KaramelBytes/estatelens-cli/internal/coordinator"
	"github.com/KaramelBytes/estatelens-cli/internal/table"
)

const (
	welcomeTitle = "Welcome to Real Estate Analysis"
	welcomeBody  = "Enter a query to analyze property data, trends, and market insights."
	loadingText  = "Analyzing real estate data..."
)

// Render writes the view for s: an error banner and stale-data notice when
// present, then the loading, welcome or result view.
func Render(w io.Writer, s State) error {
	var b strings.Builder
	if s.Err != "" {
		fmt.Fprintf(&b, "✗ %s  (:dismiss to clear)\n\n", s.Err)
	}
	if s.DataChanged {
		fmt.Fprintf(&b, "⚠ %s\n\n", DataChangedNotice)
	}
	switch {
	case s.Loading():
		b.WriteString("⏳ " + loadingText + "\n")
	case s.Result == nil:
		b.WriteString(welcomeTitle + "\n")
		b.WriteString(welcomeBody + "\n")
	default:
		renderResult(&b, s)
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// RenderUpload writes the outcome line of an upload, if any.
func RenderUpload(w io.Writer, st coordinator.UploadState) error {
	var line string
	switch st.Phase {
	case coordinator.Pending:
		line = "⏳ Uploading..."
	case coordinator.Succeeded:
		line = "✓ " + st.Message
	case coordinator.Failed:
		line = "✗ " + st.Message
	default:
		return nil
	}
	_, err := fmt.Fprintln(w, line)
	return err
}

func renderResult(b *strings.Builder, s State) {
	r := s.Result
	fmt.Fprintf(b, "📊 Analysis Results: %s\n\n", r.Query)

	b.WriteString("📝 Summary\n")
	b.WriteString(strings.TrimSpace(r.Summary) + "\n\n")

	b.WriteString("📈 Charts\n")
	if r.ChartData.Len() == 0 {
		b.WriteString("No chart data available\n")
	}
	for _, c := range chart.BuildCharts(r.ChartData) {
		renderLocationChart(b, c)
	}
	b.WriteString("\n")

	b.WriteString("📋 Data\n")
	all, filtered := s.Rows()
	if len(all) == 0 {
		b.WriteString("No data available\n")
		return
	}
	opts := table.DeriveFilterOptions(all)
	b.WriteString("Locations: " + choices("All Locations", opts.Locations, s.Filter.Location) + "\n")
	b.WriteString("Years:     " + choices("All Years", opts.Years, s.Filter.Year) + "\n")
	fmt.Fprintf(b, "Showing %d of %d rows\n\n", len(filtered), len(all))
	b.WriteString(table.Markdown(filtered))
}

func renderLocationChart(b *strings.Builder, c chart.LocationChart) {
	fmt.Fprintf(b, "\n%s\n", c.Location)
	if c.Err != nil {
		fmt.Fprintf(b, "  ✗ charts unavailable: %v\n", c.Err)
		return
	}
	fmt.Fprintf(b, "  %-6s %20s %12s %14s\n", "Year", "Avg Price (₹/sqft)", "Units Sold", "Sales")
	for _, row := range c.Rows {
		fmt.Fprintf(b, "  %-6s %20s %12s %14s\n", row.Year, table.Grouped(row.Price), table.Grouped(row.Demand), table.Grouped(row.Sales))
	}
}

// choices lists the filter options with the active one in brackets.
func choices(all string, opts []string, active string) string {
	parts := make([]string, 0, len(opts)+1)
	parts = append(parts, mark(all, active == ""))
	found := active == ""
	for _, o := range opts {
		parts = append(parts, mark(o, o == active))
		found = found || o == active
	}
	if !found {
		parts = append(parts, mark(active, true))
	}
	return strings.Join(parts, ", ")
}

func mark(s string, on bool) string {
	if on {
		return "[" + s + "]"
	}
	return s
}
