package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// Well-known PropertyRecord keys used by the table view.
const (
	KeyLocation   = "final_location"
	KeyYear       = "year"
	KeyAvgRate    = "flat_weighted_avg_rate"
	KeyTotalSold  = "total_sold_igr"
	KeyTotalSales = "total_sales_igr"
	KeyCarpetArea = "total_carpet_area"
)

// Field is one key/value pair of a PropertyRecord.
// Value holds one of: string, json.Number, bool, nil (JSON null) or
// json.RawMessage for nested objects and arrays.
type Field struct {
	Key   string
	Value any
}

// PropertyRecord is a single table row as supplied by the backend.
// Field order is the order received on the wire; unknown keys are kept
// verbatim so exports can reproduce them.
type PropertyRecord struct {
	fields []Field
}

// NewRecord builds a record from fields. Go numeric values are normalized
// to json.Number so records built in code behave like decoded ones.
func NewRecord(fields ...Field) PropertyRecord {
	var r PropertyRecord
	for _, f := range fields {
		r.set(f.Key, normalize(f.Value))
	}
	return r
}

// Len returns the number of fields.
func (r PropertyRecord) Len() int { return len(r.fields) }

// Keys returns field names in their natural order.
func (r PropertyRecord) Keys() []string {
	out := make([]string, len(r.fields))
	for i, f := range r.fields {
		out[i] = f.Key
	}
	return out
}

// Fields returns a copy of the ordered fields.
func (r PropertyRecord) Fields() []Field {
	out := make([]Field, len(r.fields))
	copy(out, r.fields)
	return out
}

// Get returns the raw value for key and whether the key is present.
func (r PropertyRecord) Get(key string) (any, bool) {
	for _, f := range r.fields {
		if f.Key == key {
			return f.Value, true
		}
	}
	return nil, false
}

// Text returns a string-typed value.
func (r PropertyRecord) Text(key string) (string, bool) {
	v, ok := r.Get(key)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// Number returns a numeric value. Missing keys, nulls and non-numeric
// values all report false so callers can render them as unavailable.
func (r PropertyRecord) Number(key string) (float64, bool) {
	v, ok := r.Get(key)
	if !ok {
		return 0, false
	}
	n, ok := v.(json.Number)
	if !ok {
		return 0, false
	}
	f, err := n.Float64()
	if err != nil || math.IsNaN(f) {
		return 0, false
	}
	return f, true
}

// Location returns the final_location value.
func (r PropertyRecord) Location() (string, bool) { return r.Text(KeyLocation) }

// YearString returns the year in its plain decimal string form.
func (r PropertyRecord) YearString() (string, bool) {
	v, ok := r.Get(KeyYear)
	if !ok {
		return "", false
	}
	switch y := v.(type) {
	case json.Number:
		f, err := y.Float64()
		if err != nil {
			return y.String(), true
		}
		return strconv.FormatFloat(f, 'f', -1, 64), true
	case string:
		return y, true
	}
	return "", false
}

// Year returns the year as an integer when it is a whole number.
func (r PropertyRecord) Year() (int, bool) {
	f, ok := r.Number(KeyYear)
	if !ok || f != math.Trunc(f) {
		return 0, false
	}
	return int(f), true
}

func (r *PropertyRecord) set(key string, v any) {
	for i := range r.fields {
		if r.fields[i].Key == key {
			r.fields[i].Value = v
			return
		}
	}
	r.fields = append(r.fields, Field{Key: key, Value: v})
}

// UnmarshalJSON decodes an object while keeping key order.
func (r *PropertyRecord) UnmarshalJSON(b []byte) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("property record: %w", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("property record: expected object, got %v", tok)
	}
	out := PropertyRecord{}
	for dec.More() {
		kt, err := dec.Token()
		if err != nil {
			return fmt.Errorf("property record: %w", err)
		}
		key, ok := kt.(string)
		if !ok {
			return fmt.Errorf("property record: invalid key %v", kt)
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("property record %q: %w", key, err)
		}
		v, err := decodeValue(raw)
		if err != nil {
			return fmt.Errorf("property record %q: %w", key, err)
		}
		out.set(key, v)
	}
	if _, err := dec.Token(); err != nil {
		return fmt.Errorf("property record: %w", err)
	}
	*r = out
	return nil
}

// MarshalJSON encodes the record with its original key order.
func (r PropertyRecord) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range r.fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(f.Key)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		v, err := json.Marshal(f.Value)
		if err != nil {
			return nil, fmt.Errorf("marshal %q: %w", f.Key, err)
		}
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func decodeValue(raw json.RawMessage) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	switch v.(type) {
	case map[string]any, []any:
		return append(json.RawMessage(nil), raw...), nil
	}
	return v, nil
}

func normalize(v any) any {
	switch n := v.(type) {
	case int:
		return json.Number(strconv.Itoa(n))
	case int64:
		return json.Number(strconv.FormatInt(n, 10))
	case float64:
		return json.Number(strconv.FormatFloat(n, 'f', -1, 64))
	case float32:
		return json.Number(strconv.FormatFloat(float64(n), 'f', -1, 32))
	}
	return v
}
