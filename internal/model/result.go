// Package model holds the wire shapes exchanged with the analysis backend.
package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// AnalysisRequest is the body of POST /api/analyze/.
type AnalysisRequest struct {
	Query string `json:"query"`
}

// AnalysisResult is one successful analysis. A new result replaces the
// previous one wholesale.
type AnalysisResult struct {
	Query     string            `json:"query"`
	Summary   string            `json:"summary"`
	ChartData LocationSeriesMap `json:"chart_data"`
	TableData []PropertyRecord  `json:"table_data"`
}

// LocationSeries holds aligned per-year observations for one location.
// Index i across all four slices describes the same year.
type LocationSeries struct {
	Years  []int     `json:"years"`
	Prices []float64 `json:"prices"`
	Demand []float64 `json:"demand"`
	Sales  []float64 `json:"sales"`
}

// LocationSeriesMap maps location names to their series and remembers the
// order in which locations were received.
type LocationSeriesMap struct {
	order  []string
	series map[string]LocationSeries
}

// Set adds or replaces a location. New locations are appended to the order.
func (m *LocationSeriesMap) Set(location string, s LocationSeries) {
	if m.series == nil {
		m.series = make(map[string]LocationSeries)
	}
	if _, ok := m.series[location]; !ok {
		m.order = append(m.order, location)
	}
	m.series[location] = s
}

// Get returns the series for a location.
func (m LocationSeriesMap) Get(location string) (LocationSeries, bool) {
	s, ok := m.series[location]
	return s, ok
}

// Locations returns location names in received order.
func (m LocationSeriesMap) Locations() []string {
	out := make([]string, len(m.order))
	copy(out, m.order)
	return out
}

// Len returns the number of locations.
func (m LocationSeriesMap) Len() int { return len(m.order) }

// UnmarshalJSON decodes an object keyed by location. JSON null yields an
// empty map.
func (m *LocationSeriesMap) UnmarshalJSON(b []byte) error {
	out := LocationSeriesMap{}
	if strings.TrimSpace(string(b)) == "null" {
		*m = out
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(b))
	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("chart data: %w", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("chart data: expected object, got %v", tok)
	}
	for dec.More() {
		kt, err := dec.Token()
		if err != nil {
			return fmt.Errorf("chart data: %w", err)
		}
		loc, ok := kt.(string)
		if !ok {
			return fmt.Errorf("chart data: invalid key %v", kt)
		}
		var s LocationSeries
		if err := dec.Decode(&s); err != nil {
			return fmt.Errorf("chart data %q: %w", loc, err)
		}
		out.Set(loc, s)
	}
	if _, err := dec.Token(); err != nil {
		return fmt.Errorf("chart data: %w", err)
	}
	*m = out
	return nil
}

// MarshalJSON encodes locations in received order.
func (m LocationSeriesMap) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, loc := range m.order {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(loc)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(m.series[loc])
		if err != nil {
			return nil, fmt.Errorf("marshal %q: %w", loc, err)
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// FilterState holds the active table filters. Empty fields impose no
// constraint.
type FilterState struct {
	Location string `json:"location,omitempty"`
	Year     string `json:"year,omitempty"`
}

// IsZero reports whether no filter is set.
func (f FilterState) IsZero() bool { return f.Location == "" && f.Year == "" }
