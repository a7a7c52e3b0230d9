// Package dashboard loads every section of the executive dashboard and caches the result.
package dashboard

import (
	"strconv"
	"strings"
	"time"

	"github.com/wayne-insights/dashboard/internal/apiclient"
	"github.com/wayne-insights/dashboard/internal/series"
)

// IncidentsKey names the summed field of the monthly incidents chart.
const IncidentsKey = "incidents"

// Snapshot is one complete fetch of the dashboard sections.
type Snapshot struct {
	ID                string                        `json:"id"`
	FetchedAt         time.Time                     `json:"fetched_at"`
	Summary           apiclient.Summary             `json:"summary"`
	RevenueTrends     []series.Row                  `json:"revenue_trends"`
	RevenueByDivision []series.Field                `json:"revenue_by_division"`
	Retention         []series.Row                  `json:"retention"`
	HRMetrics         apiclient.HRMetrics           `json:"hr_metrics"`
	Incidents         []series.Row                  `json:"incidents"`
	SafetyScores      []series.Row                  `json:"safety_scores"`
	SupplyChain       []apiclient.SupplyChainMetric `json:"supply_chain"`
	Disruptions       []series.Row                  `json:"disruptions"`
	Narrative         apiclient.Narrative           `json:"narrative"`
	RDPortfolio       []apiclient.RDDivision        `json:"rd_portfolio"`
}

// TotalIncidents sums every numeric field of every incident row.
func (s Snapshot) TotalIncidents() float64 {
	return series.SumRows(s.Incidents)
}

// AvgSafetyScore averages the districts of the latest safety row, 0 without data.
func (s Snapshot) AvgSafetyScore() float64 {
	if len(s.SafetyScores) == 0 {
		return 0
	}
	return series.MeanNumeric(s.SafetyScores[len(s.SafetyScores)-1])
}

// MonthlyIncidents collapses each incident row into its total.
func (s Snapshot) MonthlyIncidents() []series.Row {
	return series.Totals(s.Incidents, IncidentsKey)
}

// RevenueGrowth parses the narrative revenue growth percentage.
func (s Snapshot) RevenueGrowth() (float64, bool) {
	raw, ok := s.Narrative.Metrics["revenue_growth"]
	if !ok {
		return 0, false
	}
	value, err := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(raw), "%"), 64)
	if err != nil {
		return 0, false
	}
	return value, true
}
