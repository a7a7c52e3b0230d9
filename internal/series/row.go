// Package series reshapes period-bucketed metric records into chart-friendly rows.
package series

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// Field is a single named numeric value inside a row.
type Field struct {
	Key   string  `json:"key"`
	Value float64 `json:"value"`
}

// Row is one time bucket of a multi-series chart. Fields keep their insertion order.
type Row struct {
	PeriodKey string
	Period    string
	Fields    []Field
}

// NewRow builds a row for the given period label.
func NewRow(periodKey, period string, fields ...Field) Row {
	row := Row{PeriodKey: periodKey, Period: period}
	for _, f := range fields {
		row.Set(f.Key, f.Value)
	}
	return row
}

// Get returns the value stored under key.
func (r Row) Get(key string) (float64, bool) {
	for _, f := range r.Fields {
		if f.Key == key {
			return f.Value, true
		}
	}
	return 0, false
}

// Set stores value under key, replacing an existing value in place.
func (r *Row) Set(key string, value float64) {
	for i := range r.Fields {
		if r.Fields[i].Key == key {
			r.Fields[i].Value = value
			return
		}
	}
	r.Fields = append(r.Fields, Field{Key: key, Value: value})
}

// Keys lists the field keys in insertion order.
func (r Row) Keys() []string {
	keys := make([]string, 0, len(r.Fields))
	for _, f := range r.Fields {
		keys = append(keys, f.Key)
	}
	return keys
}

// Clone returns a deep copy of the row.
func (r Row) Clone() Row {
	dst := Row{PeriodKey: r.PeriodKey, Period: r.Period}
	if len(r.Fields) > 0 {
		dst.Fields = append([]Field(nil), r.Fields...)
	}
	return dst
}

// MarshalJSON writes the row as a flat object with the period label first.
func (r Row) MarshalJSON() ([]byte, error) {
	var b bytes.Buffer
	b.WriteByte('{')
	periodKey := r.PeriodKey
	if periodKey == "" {
		periodKey = "period"
	}
	if err := writeKey(&b, periodKey); err != nil {
		return nil, err
	}
	label, err := json.Marshal(r.Period)
	if err != nil {
		return nil, err
	}
	b.Write(label)
	for _, f := range r.Fields {
		if f.Key == periodKey {
			continue
		}
		b.WriteByte(',')
		if err := writeField(&b, f); err != nil {
			return nil, err
		}
	}
	b.WriteByte('}')
	return b.Bytes(), nil
}

// MarshalFields writes fields as a flat JSON object keeping their order.
func MarshalFields(fields []Field) ([]byte, error) {
	var b bytes.Buffer
	b.WriteByte('{')
	for i, f := range fields {
		if i > 0 {
			b.WriteByte(',')
		}
		if err := writeField(&b, f); err != nil {
			return nil, err
		}
	}
	b.WriteByte('}')
	return b.Bytes(), nil
}

func writeField(b *bytes.Buffer, f Field) error {
	if math.IsNaN(f.Value) || math.IsInf(f.Value, 0) {
		return fmt.Errorf("series: field %q: unsupported value %v", f.Key, f.Value)
	}
	if err := writeKey(b, f.Key); err != nil {
		return err
	}
	b.WriteString(strconv.FormatFloat(f.Value, 'f', -1, 64))
	return nil
}

func writeKey(b *bytes.Buffer, key string) error {
	raw, err := json.Marshal(key)
	if err != nil {
		return err
	}
	b.Write(raw)
	b.WriteByte(':')
	return nil
}
