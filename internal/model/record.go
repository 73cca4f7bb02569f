package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"time"
)

// Field is one named cell of a report row.
type Field struct {
	Value any
	Name  string
}

// Record is a report row whose fields keep their column order when encoded.
type Record []Field

// Get returns the value of the named field.
func (r Record) Get(name string) (any, bool) {
	for _, f := range r {
		if f.Name == name {
			return f.Value, true
		}
	}
	return nil, false
}

// Names returns the column names in order.
func (r Record) Names() []string {
	names := make([]string, len(r))
	for i, f := range r {
		names[i] = f.Name
	}
	return names
}

// WithFormattedDates returns a copy of the record where every date value is
// rendered as dd.mm.yyyy. Missing dates and NaN numbers become null.
func (r Record) WithFormattedDates() Record {
	out := make(Record, len(r))
	for i, f := range r {
		out[i] = Field{Name: f.Name, Value: normalizeValue(f.Value)}
	}
	return out
}

func normalizeValue(v any) any {
	switch value := v.(type) {
	case time.Time:
		if value.IsZero() {
			return nil
		}
		return value.Format(DateLayout)
	case *time.Time:
		if value == nil {
			return nil
		}
		return normalizeValue(*value)
	case float64:
		if math.IsNaN(value) || math.IsInf(value, 0) {
			return nil
		}
		return value
	case *float64:
		if value == nil {
			return nil
		}
		return normalizeValue(*value)
	default:
		return v
	}
}

// MarshalJSON encodes the record as an object with fields in column order.
func (r Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range r {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := marshalNoEscape(f.Name)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')

		val, err := marshalNoEscape(normalizeValue(f.Value))
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", f.Name, err)
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes an object, keeping the key order of the document.
func (r *Record) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("record: expected object, got %v", tok)
	}

	var out Record
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("record: expected key, got %v", keyTok)
		}

		var raw any
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("record field %s: %w", key, err)
		}
		if num, ok := raw.(json.Number); ok {
			f, err := num.Float64()
			if err != nil {
				return fmt.Errorf("record field %s: %w", key, err)
			}
			raw = f
		}
		out = append(out, Field{Name: key, Value: raw})
	}

	*r = out
	return nil
}

func marshalNoEscape(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
