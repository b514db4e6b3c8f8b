package table

import (
	"fmt"
	"math"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/KaramelBytes/estatelens-cli/internal/model"
)

// Unavailable is shown in place of missing or null values.
const Unavailable = "N/A"

// Columns are the headings of the table view.
var Columns = []string{
	"Location",
	"Year",
	"Avg Price (₹/sqft)",
	"Units Sold",
	"Total Sales (₹)",
	"Total Area (sqft)",
}

// Grouped formats a number with thousands separators and at most three
// fraction digits.
func Grouped(v float64) string {
	return humanize.Commaf(math.Round(v*1000) / 1000)
}

// SalesMillions scales a rupee amount to millions with two fraction digits.
func SalesMillions(v float64) string {
	return fmt.Sprintf("%.2f", v/1_000_000)
}

// FormatPrice renders a price field as ₹ with grouped digits.
func FormatPrice(r model.PropertyRecord, key string) string {
	v, ok := r.Number(key)
	if !ok {
		return Unavailable
	}
	return "₹" + Grouped(v)
}

// FormatSales renders a sales total in millions, e.g. ₹2.45M.
func FormatSales(r model.PropertyRecord, key string) string {
	v, ok := r.Number(key)
	if !ok {
		return Unavailable
	}
	return "₹" + SalesMillions(v) + "M"
}

// FormatGrouped renders a plain grouped number.
func FormatGrouped(r model.PropertyRecord, key string) string {
	v, ok := r.Number(key)
	if !ok {
		return Unavailable
	}
	return Grouped(v)
}

// Cells returns the display cells of one row in Columns order.
func Cells(r model.PropertyRecord) []string {
	loc, ok := r.Location()
	if !ok || strings.TrimSpace(loc) == "" {
		loc = Unavailable
	}
	year, ok := r.YearString()
	if !ok {
		year = Unavailable
	}
	return []string{
		loc,
		year,
		FormatPrice(r, model.KeyAvgRate),
		FormatGrouped(r, model.KeyTotalSold),
		FormatSales(r, model.KeyTotalSales),
		FormatGrouped(r, model.KeyCarpetArea),
	}
}
