package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const resultJSON = `{
  "query": "Compare Ambegaon Budruk and Aundh demand trends",
  "summary": "## Report",
  "chart_data": {
    "Wakad": {"years": [2021, 2022], "prices": [5000, 5400], "demand": [10, 12], "sales": [1.5, 2.1]},
    "Aundh": {"years": [2023], "prices": [9100.5], "demand": [7], "sales": [3.2]}
  },
  "table_data": [
    {"final_location": "Wakad", "year": 2021, "city": "Pune", "flat_weighted_avg_rate": 5000, "total_sold_igr": 10, "total_sales_igr": 2450000, "total_carpet_area": null},
    {"final_location": "Aundh", "year": 2023, "city": "Pune", "flat_weighted_avg_rate": 9100.5, "total_sold_igr": 7, "total_sales_igr": 3200000, "total_carpet_area": 12000}
  ]
}`

func TestDecodeAnalysisResultKeepsOrder(t *testing.T) {
	var res AnalysisResult
	require.NoError(t, json.Unmarshal([]byte(resultJSON), &res))

	assert.Equal(t, []string{"Wakad", "Aundh"}, res.ChartData.Locations())
	s, ok := res.ChartData.Get("Aundh")
	require.True(t, ok)
	assert.Equal(t, []int{2023}, s.Years)

	require.Len(t, res.TableData, 2)
	first := res.TableData[0]
	assert.Equal(t, []string{"final_location", "year", "city", "flat_weighted_avg_rate", "total_sold_igr", "total_sales_igr", "total_carpet_area"}, first.Keys())

	loc, ok := first.Location()
	assert.True(t, ok)
	assert.Equal(t, "Wakad", loc)

	y, ok := first.YearString()
	assert.True(t, ok)
	assert.Equal(t, "2021", y)

	_, ok = first.Number(KeyCarpetArea)
	assert.False(t, ok, "null numeric field must report unavailable")

	v, ok := res.TableData[1].Number(KeyAvgRate)
	assert.True(t, ok)
	assert.InDelta(t, 9100.5, v, 1e-9)
}

func TestNullChartDataDecodesEmpty(t *testing.T) {
	var res AnalysisResult
	require.NoError(t, json.Unmarshal([]byte(`{"query":"q","summary":"s","chart_data":null,"table_data":[]}`), &res))
	assert.Equal(t, 0, res.ChartData.Len())
	assert.Empty(t, res.ChartData.Locations())
}

func TestRecordRoundTripPreservesOpaqueFields(t *testing.T) {
	in := `{"b":1,"a":"x","nested":{"k":[1,2]},"flag":true,"gone":null}`
	var r PropertyRecord
	require.NoError(t, json.Unmarshal([]byte(in), &r))

	out, err := json.Marshal(r)
	require.NoError(t, err)
	assert.JSONEq(t, in, string(out))
	assert.Equal(t, []string{"b", "a", "nested", "flag", "gone"}, r.Keys())

	var back PropertyRecord
	require.NoError(t, json.Unmarshal(out, &back))
	assert.Equal(t, r.Keys(), back.Keys())
}

func TestNewRecordNormalizesNumbers(t *testing.T) {
	r := NewRecord(Field{KeyLocation, "Aundh"}, Field{KeyYear, 2023}, Field{KeyAvgRate, 8750.25})

	y, ok := r.Year()
	assert.True(t, ok)
	assert.Equal(t, 2023, y)

	f, ok := r.Number(KeyAvgRate)
	assert.True(t, ok)
	assert.InDelta(t, 8750.25, f, 1e-9)

	_, ok = r.Number(KeyLocation)
	assert.False(t, ok)
}

func TestRecordRejectsNonObject(t *testing.T) {
	var r PropertyRecord
	assert.Error(t, json.Unmarshal([]byte(`[1,2]`), &r))
}

func TestSeriesMapMarshalKeepsOrder(t *testing.T) {
	var m LocationSeriesMap
	m.Set("Wakad", LocationSeries{Years: []int{2021}})
	m.Set("Akurdi", LocationSeries{Years: []int{2022}})
	m.Set("Wakad", LocationSeries{Years: []int{2024}})

	assert.Equal(t, []string{"Wakad", "Akurdi"}, m.Locations())
	b, err := json.Marshal(m)
	require.NoError(t, err)
	assert.Equal(t, `{"Wakad":{"years":[2024],"prices":null,"demand":null,"sales":null},"Akurdi":{"years":[2022],"prices":null,"demand":null,"sales":null}}`, string(b))
}
