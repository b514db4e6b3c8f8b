package table

import (
	"strings"

	"github.com/KaramelBytes/estatelens-cli/internal/model"
)

// Markdown renders rows as a Markdown table using the display formatting.
func Markdown(rows []model.PropertyRecord) string {
	var b strings.Builder
	b.WriteString("| " + strings.Join(Columns, " | ") + " |\n")
	b.WriteString("|" + strings.Repeat("---|", len(Columns)) + "\n")
	for _, r := range rows {
		cells := Cells(r)
		for i := range cells {
			cells[i] = safeVal(cells[i])
		}
		b.WriteString("| " + strings.Join(cells, " | ") + " |\n")
	}
	return b.String()
}

func safeVal(s string) string { return strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "|", "/") }
