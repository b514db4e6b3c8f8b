package table

import (
	"encoding/json"
	"errors"
	"strconv"
	"strings"

	"github.com/KaramelBytes/estatelens-cli/internal/model"
)

// DefaultExportName is the file name offered for downloads.
const DefaultExportName = "real_estate_data.csv"

// ErrEmptyExport is returned when there is no row to take the header from.
var ErrEmptyExport = errors.New("no rows to export")

// ExportCSV renders rows as CSV. The header is the key order of the first
// row and every line follows it. String values are always quoted with
// embedded quotes doubled; null or missing values are left empty.
func ExportCSV(rows []model.PropertyRecord) ([]byte, error) {
	if len(rows) == 0 {
		return nil, ErrEmptyExport
	}
	return encode(rows[0].Keys(), rows), nil
}

// ExportView is the table's download action: the header comes from the
// first row of the full collection and the body from the filtered rows, so
// a filter that matches nothing still produces a header-only file.
func ExportView(all, filtered []model.PropertyRecord) ([]byte, error) {
	if len(all) == 0 {
		return nil, ErrEmptyExport
	}
	return encode(all[0].Keys(), filtered), nil
}

func encode(header []string, rows []model.PropertyRecord) []byte {
	var b strings.Builder
	for i, k := range header {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(headerCell(k))
	}
	for _, r := range rows {
		b.WriteByte('\n')
		for i, k := range header {
			if i > 0 {
				b.WriteByte(',')
			}
			v, ok := r.Get(k)
			if ok {
				b.WriteString(cell(v))
			}
		}
	}
	return []byte(b.String())
}

func cell(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return quote(x)
	case json.Number:
		return x.String()
	case bool:
		return strconv.FormatBool(x)
	case json.RawMessage:
		return quote(string(x))
	}
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return quote(string(b))
}

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

func headerCell(k string) string {
	if strings.ContainsAny(k, ",\"\r\n") {
		return quote(k)
	}
	return k
}
