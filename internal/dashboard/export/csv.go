// Package export writes dashboard snapshots as CSV.
package export

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/wayne-insights/dashboard/internal/apiclient"
	"github.com/wayne-insights/dashboard/internal/dashboard"
	"github.com/wayne-insights/dashboard/internal/series"
)

// WriteSummaryCSV serialises the headline figures.
func WriteSummaryCSV(w io.Writer, snap dashboard.Snapshot) error {
	writer := csv.NewWriter(w)
	if err := writer.Write([]string{"Metric", "Value"}); err != nil {
		return err
	}
	records := [][]string{
		{"Snapshot", snap.ID},
		{"Fetched At", snap.FetchedAt.UTC().Format("2006-01-02T15:04:05Z")},
		{"Total Revenue", snap.Summary.TotalRevenue},
		{"Avg. Retention Rate", snap.Summary.AvgRetention},
		{"Public Safety Score", snap.Summary.PublicSafetyScore},
		{"Top Division", snap.Summary.TopDivision},
		{"Security Incidents", formatFloat(snap.TotalIncidents())},
		{"Avg. Safety Score", formatFloat(series.Round(snap.AvgSafetyScore(), 1))},
	}
	if err := writer.WriteAll(records); err != nil {
		return err
	}
	return writer.Error()
}

// WriteRowsCSV emits period rows with one column per key of the first row.
func WriteRowsCSV(w io.Writer, rows []series.Row, periodLabel string) error {
	writer := csv.NewWriter(w)
	keys := series.Keys(rows)
	header := append([]string{periodLabel}, keys...)
	if err := writer.Write(header); err != nil {
		return err
	}
	for _, row := range rows {
		record := make([]string, 0, len(header))
		record = append(record, row.Period)
		for _, key := range keys {
			v, _ := row.Get(key)
			record = append(record, formatFloat(v))
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteFieldsCSV emits key/value pairs.
func WriteFieldsCSV(w io.Writer, fields []series.Field, keyLabel, valueLabel string) error {
	writer := csv.NewWriter(w)
	if err := writer.Write([]string{keyLabel, valueLabel}); err != nil {
		return err
	}
	for _, f := range fields {
		if err := writer.Write([]string{f.Key, formatFloat(f.Value)}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteSupplyChainCSV emits the facility and product line aggregates.
func WriteSupplyChainCSV(w io.Writer, metrics []apiclient.SupplyChainMetric) error {
	writer := csv.NewWriter(w)
	if err := writer.Write([]string{"Facility", "Product Line", "Production Volume", "Avg Cost Per Unit", "Avg Quality Score", "Avg Sustainability Rating", "Disruption Hours"}); err != nil {
		return err
	}
	for _, m := range metrics {
		if err := writer.Write([]string{
			m.Facility,
			m.ProductLine,
			strconv.FormatInt(m.ProductionVolume, 10),
			formatFloat(m.AvgCostPerUnit),
			formatFloat(m.AvgQualityScore),
			formatFloat(m.AvgSustainabilityRating),
			strconv.FormatInt(m.TotalDisruptionHours, 10),
		}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteSnapshotCSV writes every section, separated by blank lines.
func WriteSnapshotCSV(w io.Writer, snap dashboard.Snapshot) error {
	sections := []func(io.Writer) error{
		func(w io.Writer) error { return WriteSummaryCSV(w, snap) },
		func(w io.Writer) error { return WriteRowsCSV(w, snap.RevenueTrends, "Quarter") },
		func(w io.Writer) error { return WriteFieldsCSV(w, snap.RevenueByDivision, "Division", "Revenue") },
		func(w io.Writer) error { return WriteRowsCSV(w, snap.Retention, "Month") },
		func(w io.Writer) error { return WriteRowsCSV(w, snap.Incidents, "Month") },
		func(w io.Writer) error { return WriteRowsCSV(w, snap.SafetyScores, "Month") },
		func(w io.Writer) error { return WriteSupplyChainCSV(w, snap.SupplyChain) },
		func(w io.Writer) error { return WriteRowsCSV(w, snap.Disruptions, "Month") },
	}
	for i, write := range sections {
		if i > 0 {
			if _, err := io.WriteString(w, "\n"); err != nil {
				return err
			}
		}
		if err := write(w); err != nil {
			return err
		}
	}
	return nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
