package series

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// Aggregation selects how values sharing a period and category are combined.
type Aggregation int

const (
	// Sum adds values together.
	Sum Aggregation = iota
	// Mean averages values.
	Mean
)

// Point is a flat {period, category, value} record.
type Point struct {
	Period   string
	Category string
	Value    float64
}

// PivotOptions controls PivotCategories.
type PivotOptions struct {
	PeriodKey   string
	Aggregation Aggregation
	// Rounded rounds aggregated values to Decimals places.
	Rounded  bool
	Decimals int
	// Less orders periods; nil keeps first-seen order.
	Less func(a, b string) bool
	// FillMissing writes 0 for categories absent from a period.
	FillMissing bool
}

// PivotByPeriod merges records sharing a period into one row. Periods and keys keep
// their first-seen order; a key written twice keeps the last value.
func PivotByPeriod(records []Row) []Row {
	if len(records) == 0 {
		return []Row{}
	}
	index := make(map[string]int, len(records))
	rows := make([]Row, 0, len(records))
	for _, rec := range records {
		pos, ok := index[rec.Period]
		if !ok {
			pos = len(rows)
			index[rec.Period] = pos
			rows = append(rows, Row{PeriodKey: rec.PeriodKey, Period: rec.Period})
		}
		for _, f := range rec.Fields {
			rows[pos].Set(f.Key, f.Value)
		}
	}
	return rows
}

// PivotCategories turns {period, category, value} points into one row per period
// with one field per normalised category.
func PivotCategories(points []Point, opts PivotOptions) []Row {
	if len(points) == 0 {
		return []Row{}
	}
	type acc struct {
		sum   float64
		count int
	}
	periods := make([]string, 0)
	seenPeriod := make(map[string]bool)
	categories := make([]string, 0)
	seenCategory := make(map[string]bool)
	cells := make(map[string]map[string]*acc)

	for _, p := range points {
		key := NormalizeKey(p.Category)
		if !seenPeriod[p.Period] {
			seenPeriod[p.Period] = true
			periods = append(periods, p.Period)
			cells[p.Period] = make(map[string]*acc)
		}
		if !seenCategory[key] {
			seenCategory[key] = true
			categories = append(categories, key)
		}
		cell := cells[p.Period][key]
		if cell == nil {
			cell = &acc{}
			cells[p.Period][key] = cell
		}
		cell.sum += p.Value
		cell.count++
	}
	if opts.Less != nil {
		sort.SliceStable(periods, func(i, j int) bool { return opts.Less(periods[i], periods[j]) })
	}
	sort.Strings(categories)

	rows := make([]Row, 0, len(periods))
	for _, period := range periods {
		row := Row{PeriodKey: opts.PeriodKey, Period: period}
		for _, category := range categories {
			cell, ok := cells[period][category]
			if !ok {
				if opts.FillMissing {
					row.Set(category, 0)
				}
				continue
			}
			value := cell.sum
			if opts.Aggregation == Mean && cell.count > 0 {
				value = cell.sum / float64(cell.count)
			}
			if opts.Rounded {
				value = Round(value, opts.Decimals)
			}
			row.Set(category, value)
		}
		rows = append(rows, row)
	}
	return rows
}

// SumNumeric adds every numeric field of the row; the period label is not a field.
func SumNumeric(row Row) float64 {
	total := 0.0
	for _, f := range row.Fields {
		total += f.Value
	}
	return total
}

// MeanNumeric averages the numeric fields of the row, 0 when there are none.
func MeanNumeric(row Row) float64 {
	if len(row.Fields) == 0 {
		return 0
	}
	return SumNumeric(row) / float64(len(row.Fields))
}

// SumRows adds SumNumeric across every row.
func SumRows(rows []Row) float64 {
	total := 0.0
	for _, row := range rows {
		total += SumNumeric(row)
	}
	return total
}

// Totals collapses each row into a single field named key holding its sum.
func Totals(rows []Row, key string) []Row {
	out := make([]Row, 0, len(rows))
	for _, row := range rows {
		out = append(out, Row{
			PeriodKey: row.PeriodKey,
			Period:    row.Period,
			Fields:    []Field{{Key: key, Value: SumNumeric(row)}},
		})
	}
	return out
}

// Keys returns the field keys of the first row followed by any key that only later
// rows carry, in order of first appearance. Rows of a consistent series yield the
// first row's keys.
func Keys(rows []Row) []string {
	if len(rows) == 0 {
		return []string{}
	}
	keys := rows[0].Keys()
	seen := make(map[string]bool, len(keys))
	for _, k := range keys {
		seen[k] = true
	}
	for _, row := range rows[1:] {
		for _, f := range row.Fields {
			if !seen[f.Key] {
				seen[f.Key] = true
				keys = append(keys, f.Key)
			}
		}
	}
	return keys
}

// KeyError reports a row carrying keys a chart configuration does not declare.
type KeyError struct {
	Period     string
	Undeclared []string
}

func (e *KeyError) Error() string {
	return fmt.Sprintf("series: period %q has undeclared keys %v", e.Period, e.Undeclared)
}

// ValidateKeys reports the first row carrying a key outside declared. Declared keys
// a row lacks are not an error; Column reads them as 0.
func ValidateKeys(rows []Row, declared []string) error {
	want := make(map[string]bool, len(declared))
	for _, k := range declared {
		want[k] = true
	}
	for _, row := range rows {
		var undeclared []string
		for _, f := range row.Fields {
			if !want[f.Key] {
				undeclared = append(undeclared, f.Key)
			}
		}
		if len(undeclared) > 0 {
			return &KeyError{Period: row.Period, Undeclared: undeclared}
		}
	}
	return nil
}

// Column extracts the values stored under key, 0 where absent.
func Column(rows []Row, key string) []float64 {
	values := make([]float64, 0, len(rows))
	for _, row := range rows {
		v, _ := row.Get(key)
		values = append(values, v)
	}
	return values
}

// Periods lists the row labels.
func Periods(rows []Row) []string {
	labels := make([]string, 0, len(rows))
	for _, row := range rows {
		labels = append(labels, row.Period)
	}
	return labels
}

// NormalizeKey lower-cases a category and replaces spaces with underscores.
func NormalizeKey(category string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(category)), " ", "_")
}

// Round rounds v to the given decimals; negative decimals keep v unchanged.
func Round(v float64, decimals int) float64 {
	if decimals < 0 {
		return v
	}
	pow := math.Pow(10, float64(decimals))
	return math.Round(v*pow) / pow
}
