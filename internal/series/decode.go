package series

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// DecodeRows parses a JSON array of flat objects into rows. The periodKey property
// becomes the row label; numeric properties (or numeric strings) become fields in
// the order they appear. Nulls, non-finite numbers and other values are skipped.
func DecodeRows(data []byte, periodKey string) ([]Row, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("series: decode rows: %w", err)
	}
	if tok == nil {
		return []Row{}, nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '[' {
		return nil, fmt.Errorf("series: decode rows: expected array, got %v", tok)
	}
	rows := make([]Row, 0)
	for dec.More() {
		row := Row{PeriodKey: periodKey}
		err := decodeObject(dec, func(key string, value any) {
			if key == periodKey {
				row.Period = labelString(value)
				return
			}
			if num, ok := numeric(value); ok {
				row.Set(key, num)
			}
		})
		if err != nil {
			return nil, fmt.Errorf("series: decode rows: %w", err)
		}
		rows = append(rows, row)
	}
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("series: decode rows: %w", err)
	}
	return rows, nil
}

// DecodeFields parses a flat JSON object into ordered numeric fields.
func DecodeFields(data []byte) ([]Field, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	fields := make([]Field, 0)
	err := decodeObject(dec, func(key string, value any) {
		if num, ok := numeric(value); ok {
			fields = append(fields, Field{Key: key, Value: num})
		}
	})
	if err != nil {
		return nil, fmt.Errorf("series: decode fields: %w", err)
	}
	return fields, nil
}

func decodeObject(dec *json.Decoder, visit func(key string, value any)) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("expected object, got %v", tok)
	}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("expected object key, got %v", keyTok)
		}
		var value any
		if err := dec.Decode(&value); err != nil {
			return err
		}
		visit(key, value)
	}
	_, err = dec.Token()
	return err
}

// numeric accepts finite numbers and numeric strings. "NaN" and "Inf" are skipped
// like nulls since they cannot be written back as JSON.
func numeric(value any) (float64, bool) {
	var (
		f   float64
		err error
	)
	switch v := value.(type) {
	case json.Number:
		f, err = v.Float64()
	case string:
		f, err = strconv.ParseFloat(strings.TrimSpace(v), 64)
	default:
		return 0, false
	}
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func labelString(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

// UnmarshalJSON reads the layout written by MarshalJSON: the first property is the
// period label, the remaining numeric properties are fields.
func (r *Row) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var row Row
	first := true
	err := decodeObject(dec, func(key string, value any) {
		if first {
			first = false
			row.PeriodKey = key
			row.Period = labelString(value)
			return
		}
		if num, ok := numeric(value); ok {
			row.Set(key, num)
		}
	})
	if err != nil {
		return fmt.Errorf("series: unmarshal row: %w", err)
	}
	*r = row
	return nil
}
