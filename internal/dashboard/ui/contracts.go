package ui

import (
	"fmt"
	"time"

	"github.com/wayne-insights/dashboard/internal/apiclient"
	"github.com/wayne-insights/dashboard/internal/dashboard"
	"github.com/wayne-insights/dashboard/internal/series"
)

// MetricCard is one headline figure. Change is a percentage and optional.
type MetricCard struct {
	Title  string
	Value  string
	Change *float64
	Color  string
}

// ChangeUp reports whether the change is non-negative.
func (c MetricCard) ChangeUp() bool {
	return c.Change != nil && *c.Change >= 0
}

// ChangeLabel renders the absolute change, e.g. "12.5%".
func (c MetricCard) ChangeLabel() string {
	if c.Change == nil {
		return ""
	}
	v := *c.Change
	if v < 0 {
		v = -v
	}
	return FormatPercent(v)
}

// MetricItem is a labelled value in a definition list.
type MetricItem struct {
	Label string
	Value string
}

// NarrativeSection is the generated insight block.
type NarrativeSection struct {
	Headline string
	Insight  string
	Updated  string
	Metrics  []MetricItem
}

// SupplyChainRow is one line of the supply chain table.
type SupplyChainRow struct {
	Facility       string
	ProductLine    string
	Volume         string
	CostPerUnit    string
	Quality        string
	Sustainability string
	Disruption     string
}

// DashboardViewModel combines all dashboard data for rendering.
type DashboardViewModel struct {
	SnapshotID    string
	FetchedAt     time.Time
	TopDivision   string
	Cards         []MetricCard
	RevenueTrend  Chart
	Incidents     Chart
	Retention     Chart
	Safety        Chart
	Disruptions   Chart
	DivisionShare Chart
	RDBudget      Chart
	HRMetrics     []MetricItem
	SupplyChain   []SupplyChainRow
	Narrative     NarrativeSection
}

// Renderers groups the chart renderers used by BuildViewModel.
type Renderers struct {
	Line LineRenderer
	Bar  BarRenderer
	Pie  PieRenderer
}

// DefaultRenderers draws with the svg package.
func DefaultRenderers() Renderers {
	r := Renderer{}
	return Renderers{Line: r, Bar: r, Pie: r}
}

// Card colors follow the card order on the page.
const (
	ColorBlue   = "blue"
	ColorGreen  = "green"
	ColorRed    = "red"
	ColorPurple = "purple"
)

// BuildViewModel shapes a snapshot into cards, charts and tables.
func BuildViewModel(snap dashboard.Snapshot, r Renderers) (DashboardViewModel, error) {
	if r.Line == nil || r.Bar == nil || r.Pie == nil {
		return DashboardViewModel{}, fmt.Errorf("ui: svg renderer missing")
	}
	vm := DashboardViewModel{
		SnapshotID:  snap.ID,
		FetchedAt:   snap.FetchedAt,
		TopDivision: snap.Summary.TopDivision,
		Cards:       BuildCards(snap),
		HRMetrics:   hrItems(snap.HRMetrics),
		SupplyChain: supplyChainRows(snap.SupplyChain),
		Narrative:   narrativeSection(snap.Narrative),
	}
	if vm.TopDivision == "" {
		vm.TopDivision = "N/A"
	}

	var err error
	if vm.RevenueTrend, err = BuildLineChart(r.Line, snap.RevenueTrends, ChartConfig{
		Title:      "Quarterly Revenue by Division",
		XAxisLabel: "Quarter",
		YAxisLabel: "Revenue ($M)",
		Height:     400,
	}); err != nil {
		return DashboardViewModel{}, err
	}
	if vm.Incidents, err = BuildBarChart(r.Bar, snap.MonthlyIncidents(), ChartConfig{
		Title:      "Monthly Security Incidents",
		YAxisLabel: "Incidents",
		Keys:       []string{dashboard.IncidentsKey},
		Colors:     []string{"#ef4444"},
		Height:     350,
		BarSize:    30,
	}); err != nil {
		return DashboardViewModel{}, err
	}
	if vm.Retention, err = BuildLineChart(r.Line, snap.Retention, ChartConfig{
		Title:      "Monthly Retention Rates",
		YAxisLabel: "Retention Rate (%)",
		Height:     350,
	}); err != nil {
		return DashboardViewModel{}, err
	}
	if vm.Safety, err = BuildLineChart(r.Line, snap.SafetyScores, ChartConfig{
		Title:      "Public Safety Scores by District",
		YAxisLabel: "Safety Score",
		Height:     350,
	}); err != nil {
		return DashboardViewModel{}, err
	}
	if vm.Disruptions, err = BuildBarChart(r.Bar, snap.Disruptions, ChartConfig{
		Title:      "Supply Chain Disruptions",
		YAxisLabel: "Disruption Hours",
		Height:     350,
		Stacked:    true,
	}); err != nil {
		return DashboardViewModel{}, err
	}
	if vm.DivisionShare, err = BuildPieChart(r.Pie, snap.RevenueByDivision, ChartConfig{
		Title:  "Revenue by Division",
		Height: 300,
	}); err != nil {
		return DashboardViewModel{}, err
	}
	if vm.RDBudget, err = BuildBarChart(r.Bar, rdRows(snap.RDPortfolio), ChartConfig{
		Title:      "R&D Budget by Division",
		YAxisLabel: "Budget ($M)",
		Keys:       []string{"budget_allocated", "budget_spent"},
		Height:     300,
	}); err != nil {
		return DashboardViewModel{}, err
	}
	return vm, nil
}

// BuildCards derives the four headline cards.
func BuildCards(snap dashboard.Snapshot) []MetricCard {
	revenue := MetricCard{
		Title: "Total Revenue",
		Value: FormatMillions(ParseMetricNumber(snap.Summary.TotalRevenue)),
		Color: ColorBlue,
	}
	if growth, ok := snap.RevenueGrowth(); ok {
		revenue.Change = &growth
	}
	return []MetricCard{
		revenue,
		{
			Title: "Avg. Retention Rate",
			Value: FormatPercent(ParseMetricNumber(snap.Summary.AvgRetention)),
			Color: ColorGreen,
		},
		{
			Title: "Security Incidents",
			Value: FormatCount(snap.TotalIncidents()),
			Color: ColorRed,
		},
		{
			Title: "Avg. Safety Score",
			Value: FormatScore(snap.AvgSafetyScore(), 100),
			Color: ColorPurple,
		},
	}
}

func hrItems(m apiclient.HRMetrics) []MetricItem {
	return []MetricItem{
		{Label: "Avg. Training Hours", Value: printer.Sprintf("%.1f", m.AvgTrainingHours)},
		{Label: "Avg. Performance Rating", Value: FormatScore(m.AvgPerformanceRating, 5)},
		{Label: "Avg. Satisfaction Score", Value: FormatScore(m.AvgSatisfactionScore, 10)},
	}
}

func supplyChainRows(metrics []apiclient.SupplyChainMetric) []SupplyChainRow {
	rows := make([]SupplyChainRow, 0, len(metrics))
	for _, m := range metrics {
		rows = append(rows, SupplyChainRow{
			Facility:       m.Facility,
			ProductLine:    m.ProductLine,
			Volume:         FormatCount(float64(m.ProductionVolume)),
			CostPerUnit:    printer.Sprintf("$%.2f", m.AvgCostPerUnit),
			Quality:        FormatScore(m.AvgQualityScore, 10),
			Sustainability: FormatScore(m.AvgSustainabilityRating, 10),
			Disruption:     FormatCount(float64(m.TotalDisruptionHours)) + " h",
		})
	}
	return rows
}

func narrativeSection(n apiclient.Narrative) NarrativeSection {
	section := NarrativeSection{
		Headline: n.Headline,
		Insight:  n.Insight,
		Metrics:  make([]MetricItem, 0, len(n.Metrics)),
	}
	if section.Headline == "" {
		section.Headline = "Executive Dashboard Insights"
	}
	if ts, ok := parseTimestamp(n.Timestamp); ok {
		section.Updated = ts.Format("Jan 2, 2006 15:04")
	}
	for _, key := range n.MetricKeys() {
		section.Metrics = append(section.Metrics, MetricItem{Label: TitleCase(key), Value: n.Metrics[key]})
	}
	return section
}

func parseTimestamp(raw string) (time.Time, bool) {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999999", "2006-01-02T15:04:05"} {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

func rdRows(divisions []apiclient.RDDivision) []series.Row {
	rows := make([]series.Row, 0, len(divisions))
	for _, d := range divisions {
		rows = append(rows, series.NewRow("division", d.Division,
			series.Field{Key: "budget_allocated", Value: d.BudgetAllocated},
			series.Field{Key: "budget_spent", Value: d.BudgetSpent},
		))
	}
	return rows
}
