package metrics

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wayne-insights/dashboard/internal/apiclient"
	"github.com/wayne-insights/dashboard/internal/series"
)

func newFixtureService(t *testing.T) *Service {
	t.Helper()
	svc := NewService(NewCSVSource(os.DirFS("testdata")))
	svc.WithNow(func() time.Time { return time.Date(2024, 3, 1, 10, 30, 0, 123456000, time.UTC) })
	return svc
}

func rowValues(row series.Row) map[string]float64 {
	out := make(map[string]float64, len(row.Fields))
	for _, f := range row.Fields {
		out[f.Key] = f.Value
	}
	return out
}

func TestSummary(t *testing.T) {
	summary, err := newFixtureService(t).Summary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, apiclient.Summary{
		TotalRevenue:      "$480.0M",
		AvgRetention:      "85.0%",
		PublicSafetyScore: "71.5",
		TopDivision:       "WayneTech",
		Message:           "Summary metrics retrieved successfully",
	}, summary)
}

func TestRevenueTrendsOrdersQuartersAndFillsGaps(t *testing.T) {
	rows, err := newFixtureService(t).RevenueTrends(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{"Q1 2023", "Q2 2023", "Q1 2024"}, series.Periods(rows))
	for _, row := range rows {
		assert.Equal(t, "quarter", row.PeriodKey)
		assert.Equal(t, []string{"wayne_foods", "waynetech"}, row.Keys())
	}
	assert.Equal(t, map[string]float64{"wayne_foods": 0, "waynetech": 110}, rowValues(rows[1]))
	assert.Equal(t, map[string]float64{"wayne_foods": 70, "waynetech": 150}, rowValues(rows[2]))
}

func TestRevenueByDivision(t *testing.T) {
	fields, err := newFixtureService(t).RevenueByDivision(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []series.Field{{Key: "Wayne Foods", Value: 120}, {Key: "WayneTech", Value: 360}}, fields)
}

func TestRetentionRatesAverages(t *testing.T) {
	rows, err := newFixtureService(t).RetentionRates(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "2024-01", rows[0].Period)
	v, _ := rows[0].Get("waynetech")
	assert.InDelta(t, 0.85, v, 1e-9)
	v, _ = rows[0].Get("wayne_foods")
	assert.Zero(t, v)
	v, _ = rows[1].Get("wayne_foods")
	assert.InDelta(t, 0.85, v, 1e-9)
}

func TestHRMetrics(t *testing.T) {
	m, err := newFixtureService(t).HRMetrics(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 30.0, m.AvgTrainingHours)
	assert.Equal(t, 4.0, m.AvgPerformanceRating)
	assert.Equal(t, 8.0, m.AvgSatisfactionScore)
}

func TestSecurityIncidentsAndSafetyScores(t *testing.T) {
	svc := newFixtureService(t)
	incidents, err := svc.SecurityIncidents(context.Background())
	require.NoError(t, err)
	require.Len(t, incidents, 2)
	assert.Equal(t, map[string]float64{"downtown": 35, "the_narrows": 30}, rowValues(incidents[0]))
	assert.Equal(t, map[string]float64{"downtown": 10, "the_narrows": 0}, rowValues(incidents[1]))

	safety, err := svc.SafetyScores(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"downtown": 72.5, "the_narrows": 60}, rowValues(safety[0]))
	assert.Equal(t, map[string]float64{"downtown": 81, "the_narrows": 0}, rowValues(safety[1]))
}

func TestSupplyChain(t *testing.T) {
	svc := newFixtureService(t)
	metrics, err := svc.SupplyChainMetrics(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []apiclient.SupplyChainMetric{
		{Facility: "Ace Chemicals", ProductLine: "Polymers", ProductionVolume: 500, AvgCostPerUnit: 2.25, AvgQualityScore: 7, AvgSustainabilityRating: 6, TotalDisruptionHours: 10},
		{Facility: "Gotham Works", ProductLine: "Steel", ProductionVolume: 2200, AvgCostPerUnit: 4, AvgQualityScore: 8.5, AvgSustainabilityRating: 7.5, TotalDisruptionHours: 8},
	}, metrics)

	disruptions, err := svc.SupplyChainDisruptions(context.Background())
	require.NoError(t, err)
	require.Len(t, disruptions, 2)
	assert.Equal(t, map[string]float64{"ace_chemicals": 10, "gotham_works": 5}, rowValues(disruptions[0]))
	assert.Equal(t, map[string]float64{"ace_chemicals": 0, "gotham_works": 3}, rowValues(disruptions[1]))
}

func TestRDPortfolio(t *testing.T) {
	divisions, err := newFixtureService(t).RDPortfolio(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []apiclient.RDDivision{
		{Division: "Wayne Foods", BudgetAllocated: 3, BudgetSpent: 1, Projects: 1},
		{Division: "WayneTech", BudgetAllocated: 15, BudgetSpent: 11.5, Projects: 2},
	}, divisions)
}

func TestNarrative(t *testing.T) {
	n, err := newFixtureService(t).Narrative(context.Background())
	require.NoError(t, err)
	assert.Equal(t, HeadlineSecurity, n.Headline)
	assert.Contains(t, n.Insight, "75 security incidents")
	assert.Equal(t, "2024-03-01T10:30:00.123456", n.Timestamp)
	assert.Equal(t, map[string]any{
		"total_revenue":     "$480.0M",
		"revenue_growth":    "-15.4%",
		"avg_retention":     "85.0%",
		"avg_satisfaction":  "8.0/10",
		"total_incidents":   int64(75),
		"avg_safety_score":  "71.5/100",
		"total_disruptions": "18 hours",
		"avg_quality_score": "8.0/10",
	}, n.Metrics)
}

type stubSource struct {
	fin []FinancialRecord
	hr  []HRRecord
	sec []SecurityRecord
	sc  []SupplyChainRecord
	rd  []RDProject
	err error
}

func (s stubSource) Financial(context.Context) ([]FinancialRecord, error)     { return s.fin, s.err }
func (s stubSource) HR(context.Context) ([]HRRecord, error)                   { return s.hr, s.err }
func (s stubSource) Security(context.Context) ([]SecurityRecord, error)       { return s.sec, s.err }
func (s stubSource) SupplyChain(context.Context) ([]SupplyChainRecord, error) { return s.sc, s.err }
func (s stubSource) RDPortfolio(context.Context) ([]RDProject, error)         { return s.rd, s.err }

func TestNarrativeRules(t *testing.T) {
	growth := []FinancialRecord{{Year: 2023, RevenueM: 100}, {Year: 2024, RevenueM: 120}}
	flat := []FinancialRecord{{Year: 2023, RevenueM: 100}, {Year: 2024, RevenueM: 100}}
	cases := []struct {
		name string
		src  stubSource
		want string
	}{
		{name: "growth wins", src: stubSource{fin: growth, hr: []HRRecord{{RetentionRate: 0.5}}, sec: []SecurityRecord{{IncidentsReported: 99}}}, want: HeadlineGrowth},
		{name: "retention", src: stubSource{fin: flat, hr: []HRRecord{{RetentionRate: 0.79}}, sec: []SecurityRecord{{IncidentsReported: 99}}}, want: HeadlineRetention},
		{name: "incidents", src: stubSource{fin: flat, hr: []HRRecord{{RetentionRate: 0.8}}, sec: []SecurityRecord{{IncidentsReported: 51}}}, want: HeadlineSecurity},
		{name: "steady", src: stubSource{fin: flat, hr: []HRRecord{{RetentionRate: 0.9}}, sec: []SecurityRecord{{IncidentsReported: 50}}}, want: HeadlineSteady},
		{name: "empty datasets", src: stubSource{}, want: HeadlineSteady},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			n, err := NewService(tc.src).Narrative(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tc.want, n.Headline)
		})
	}
}

func TestRevenueGrowth(t *testing.T) {
	assert.Zero(t, RevenueGrowth(nil))
	assert.Zero(t, RevenueGrowth([]FinancialRecord{{Year: 2024, RevenueM: 10}}))
	assert.Zero(t, RevenueGrowth([]FinancialRecord{{Year: 2023}, {Year: 2024, RevenueM: 10}}))
	assert.InDelta(t, 25.0, RevenueGrowth([]FinancialRecord{
		{Year: 2022, RevenueM: 1},
		{Year: 2024, RevenueM: 50},
		{Year: 2023, RevenueM: 40},
	}), 1e-9)
}

func TestSummaryRequiresFinancialRecords(t *testing.T) {
	_, err := NewService(stubSource{}).Summary(context.Background())
	require.ErrorIs(t, err, ErrEmptyDataset)
}

func TestEmptyDatasetsProduceEmptySeries(t *testing.T) {
	svc := NewService(stubSource{})
	rows, err := svc.SecurityIncidents(context.Background())
	require.NoError(t, err)
	assert.Empty(t, rows)
	metrics, err := svc.SupplyChainMetrics(context.Background())
	require.NoError(t, err)
	assert.Empty(t, metrics)
	hr, err := svc.HRMetrics(context.Background())
	require.NoError(t, err)
	assert.Zero(t, hr.AvgTrainingHours)
}

func TestQuarterLess(t *testing.T) {
	assert.True(t, quarterLess("Q4 2023", "Q1 2024"))
	assert.True(t, quarterLess("Q1 2024", "Q2 2024"))
	assert.False(t, quarterLess("Q2 2024", "Q1 2024"))
	assert.True(t, quarterLess("Q1 2024", "later"))
	assert.True(t, quarterLess("alpha", "beta"))
}
