// Package chart reshapes per-location series into chart rows and renders them.
package chart

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/KaramelBytes/estatelens-cli/internal/model"
)

// ErrMalformedSeries indicates the years/prices/demand/sales slices of a
// series differ in length.
var ErrMalformedSeries = errors.New("malformed series")

// ChartRow is one year's observation for a location.
type ChartRow struct {
	Year   string  `json:"year"`
	Price  float64 `json:"price"`
	Demand float64 `json:"demand"`
	Sales  float64 `json:"sales"`
}

// LocationChart pairs a location with its rows, or the error that prevented
// building them.
type LocationChart struct {
	Location string
	Rows     []ChartRow
	Err      error
}

// ToChartRows converts a series into rows, one per index, in received order.
// Unequal slice lengths fail with ErrMalformedSeries.
func ToChartRows(s model.LocationSeries) ([]ChartRow, error) {
	n := len(s.Years)
	if len(s.Prices) != n || len(s.Demand) != n || len(s.Sales) != n {
		return nil, fmt.Errorf("%w: years=%d prices=%d demand=%d sales=%d",
			ErrMalformedSeries, n, len(s.Prices), len(s.Demand), len(s.Sales))
	}
	rows := make([]ChartRow, n)
	for i := 0; i < n; i++ {
		rows[i] = ChartRow{
			Year:   strconv.Itoa(s.Years[i]),
			Price:  s.Prices[i],
			Demand: s.Demand[i],
			Sales:  s.Sales[i],
		}
	}
	return rows, nil
}

// BuildCharts converts every location independently. A malformed location
// carries its own error; the others are unaffected.
func BuildCharts(m model.LocationSeriesMap) []LocationChart {
	locs := m.Locations()
	out := make([]LocationChart, 0, len(locs))
	for _, loc := range locs {
		s, _ := m.Get(loc)
		rows, err := ToChartRows(s)
		if err != nil {
			err = fmt.Errorf("%s: %w", loc, err)
		}
		out = append(out, LocationChart{Location: loc, Rows: rows, Err: err})
	}
	return out
}
