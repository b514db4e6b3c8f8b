package api

import (
	"fmt"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

// analyzeResponseSchema describes the body of a successful POST /api/analyze/.
const analyzeResponseSchema = `{
  "type": "object",
  "required": ["query", "summary", "chart_data", "table_data"],
  "properties": {
    "query": {"type": "string"},
    "summary": {"type": "string"},
    "chart_data": {
      "type": ["object", "null"],
      "additionalProperties": {
        "type": "object",
        "required": ["years", "prices", "demand", "sales"],
        "properties": {
          "years": {"type": "array", "items": {"type": "integer"}},
          "prices": {"type": "array", "items": {"type": "number"}},
          "demand": {"type": "array", "items": {"type": "number"}},
          "sales": {"type": "array", "items": {"type": "number"}}
        }
      }
    },
    "table_data": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "final_location": {"type": ["string", "null"]},
          "year": {"type": ["integer", "null"]},
          "flat_weighted_avg_rate": {"type": ["number", "null"]},
          "total_sold_igr": {"type": ["number", "null"]},
          "total_sales_igr": {"type": ["number", "null"]},
          "total_carpet_area": {"type": ["number", "null"]}
        }
      }
    }
  }
}`

var (
	schemaOnce sync.Once
	schema     *gojsonschema.Schema
	schemaErr  error
)

func analyzeSchema() (*gojsonschema.Schema, error) {
	schemaOnce.Do(func() {
		schema, schemaErr = gojsonschema.NewSchema(gojsonschema.NewStringLoader(analyzeResponseSchema))
	})
	return schema, schemaErr
}

// validateAnalyzeBody checks a response body against the analyze schema.
func validateAnalyzeBody(endpoint string, body []byte) error {
	s, err := analyzeSchema()
	if err != nil {
		return fmt.Errorf("load schema: %w", err)
	}
	result, err := s.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return &SchemaError{Endpoint: endpoint, Problems: []string{err.Error()}}
	}
	if !result.Valid() {
		errs := make([]string, len(result.Errors()))
		for i, desc := range result.Errors() {
			errs[i] = desc.String()
		}
		return &SchemaError{Endpoint: endpoint, Problems: errs}
	}
	return nil
}
