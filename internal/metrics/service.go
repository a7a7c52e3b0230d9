package metrics

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/wayne-insights/dashboard/internal/apiclient"
	"github.com/wayne-insights/dashboard/internal/series"
)

const monthLayout = "2006-01"

// Narrative headlines, chosen by the first matching rule.
const (
	HeadlineGrowth    = "Wayne Enterprises Reports Strong Revenue Growth"
	HeadlineRetention = "Employee Retention Needs Attention"
	HeadlineSecurity  = "Security Incidents on the Rise"
	HeadlineSteady    = "Wayne Enterprises: Steady Performance Across All Divisions"
)

// Narrative thresholds.
const (
	growthThreshold    = 15.0
	retentionThreshold = 0.8
	incidentThreshold  = 50
)

// Narrative is the generated insight. Metrics values are strings except
// total_incidents, which is an integer.
type Narrative struct {
	Headline  string         `json:"headline"`
	Insight   string         `json:"insight"`
	Metrics   map[string]any `json:"metrics"`
	Timestamp string         `json:"timestamp"`
}

// Service computes the metrics API responses from a Source.
type Service struct {
	source Source
	now    func() time.Time
}

// NewService constructs a Service.
func NewService(source Source) *Service {
	return &Service{source: source, now: time.Now}
}

// WithNow overrides the clock used for narrative timestamps.
func (s *Service) WithNow(fn func() time.Time) {
	if fn != nil {
		s.now = fn
	}
}

// Summary returns the preformatted headline figures.
func (s *Service) Summary(ctx context.Context) (apiclient.Summary, error) {
	fin, err := s.source.Financial(ctx)
	if err != nil {
		return apiclient.Summary{}, err
	}
	hr, err := s.source.HR(ctx)
	if err != nil {
		return apiclient.Summary{}, err
	}
	sec, err := s.source.Security(ctx)
	if err != nil {
		return apiclient.Summary{}, err
	}
	if len(fin) == 0 {
		return apiclient.Summary{}, fmt.Errorf("%w: %s", ErrEmptyDataset, DatasetFinancial)
	}

	byDivision := revenueByDivision(fin)
	top := byDivision[0]
	for _, f := range byDivision[1:] {
		if f.Value > top.Value {
			top = f
		}
	}
	return apiclient.Summary{
		TotalRevenue:      fmt.Sprintf("$%.1fM", totalRevenue(fin)),
		AvgRetention:      formatRatio(meanRetention(hr)),
		PublicSafetyScore: fmt.Sprintf("%.1f", meanSafety(sec)),
		TopDivision:       top.Key,
		Message:           "Summary metrics retrieved successfully",
	}, nil
}

// RevenueTrends pivots quarterly revenue per division, oldest quarter first.
func (s *Service) RevenueTrends(ctx context.Context) ([]series.Row, error) {
	fin, err := s.source.Financial(ctx)
	if err != nil {
		return nil, err
	}
	points := make([]series.Point, 0, len(fin))
	for _, r := range fin {
		points = append(points, series.Point{
			Period:   r.Quarter + " " + strconv.Itoa(r.Year),
			Category: r.Division,
			Value:    r.RevenueM,
		})
	}
	return series.PivotCategories(points, series.PivotOptions{
		PeriodKey:   "quarter",
		Aggregation: series.Sum,
		Less:        quarterLess,
		FillMissing: true,
	}), nil
}

// RevenueByDivision totals revenue per division, sorted by division name.
func (s *Service) RevenueByDivision(ctx context.Context) ([]series.Field, error) {
	fin, err := s.source.Financial(ctx)
	if err != nil {
		return nil, err
	}
	return revenueByDivision(fin), nil
}

// RetentionRates averages retention per month and division.
func (s *Service) RetentionRates(ctx context.Context) ([]series.Row, error) {
	hr, err := s.source.HR(ctx)
	if err != nil {
		return nil, err
	}
	points := make([]series.Point, 0, len(hr))
	for _, r := range hr {
		points = append(points, series.Point{Period: r.Date.Format(monthLayout), Category: r.Division, Value: r.RetentionRate})
	}
	return series.PivotCategories(points, monthlyPivot(series.Mean, false)), nil
}

// HRMetrics averages the workforce figures, rounded to one decimal.
func (s *Service) HRMetrics(ctx context.Context) (apiclient.HRMetrics, error) {
	hr, err := s.source.HR(ctx)
	if err != nil {
		return apiclient.HRMetrics{}, err
	}
	var training, performance, satisfaction float64
	for _, r := range hr {
		training += r.TrainingHours
		performance += r.PerformanceRating
		satisfaction += r.SatisfactionScore
	}
	n := float64(len(hr))
	if n == 0 {
		n = 1
	}
	return apiclient.HRMetrics{
		AvgTrainingHours:     series.Round(training/n, 1),
		AvgPerformanceRating: series.Round(performance/n, 1),
		AvgSatisfactionScore: series.Round(satisfaction/n, 1),
		Message:              "HR metrics retrieved successfully",
	}, nil
}

// SecurityIncidents totals incidents per month and district.
func (s *Service) SecurityIncidents(ctx context.Context) ([]series.Row, error) {
	sec, err := s.source.Security(ctx)
	if err != nil {
		return nil, err
	}
	points := make([]series.Point, 0, len(sec))
	for _, r := range sec {
		points = append(points, series.Point{Period: r.Date.Format(monthLayout), Category: r.District, Value: float64(r.IncidentsReported)})
	}
	return series.PivotCategories(points, monthlyPivot(series.Sum, false)), nil
}

// SafetyScores averages safety scores per month and district, rounded to one decimal.
func (s *Service) SafetyScores(ctx context.Context) ([]series.Row, error) {
	sec, err := s.source.Security(ctx)
	if err != nil {
		return nil, err
	}
	points := make([]series.Point, 0, len(sec))
	for _, r := range sec {
		points = append(points, series.Point{Period: r.Date.Format(monthLayout), Category: r.District, Value: r.PublicSafetyScore})
	}
	return series.PivotCategories(points, monthlyPivot(series.Mean, true)), nil
}

// SupplyChainMetrics aggregates each facility and product line.
func (s *Service) SupplyChainMetrics(ctx context.Context) ([]apiclient.SupplyChainMetric, error) {
	sc, err := s.source.SupplyChain(ctx)
	if err != nil {
		return nil, err
	}
	type group struct {
		facility, productLine         string
		volume, disruption            int64
		cost, quality, sustainability float64
		count                         int
	}
	groups := make(map[[2]string]*group)
	for _, r := range sc {
		key := [2]string{r.Facility, r.ProductLine}
		g := groups[key]
		if g == nil {
			g = &group{facility: r.Facility, productLine: r.ProductLine}
			groups[key] = g
		}
		g.volume += r.ProductionVolume
		g.disruption += r.DisruptionHours
		g.cost += r.CostPerUnit
		g.quality += r.QualityScore
		g.sustainability += r.SustainabilityRating
		g.count++
	}
	keys := make([][2]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i][0] != keys[j][0] {
			return keys[i][0] < keys[j][0]
		}
		return keys[i][1] < keys[j][1]
	})

	out := make([]apiclient.SupplyChainMetric, 0, len(keys))
	for _, k := range keys {
		g := groups[k]
		n := float64(g.count)
		out = append(out, apiclient.SupplyChainMetric{
			Facility:                g.facility,
			ProductLine:             g.productLine,
			ProductionVolume:        g.volume,
			AvgCostPerUnit:          series.Round(g.cost/n, 2),
			AvgQualityScore:         series.Round(g.quality/n, 1),
			AvgSustainabilityRating: series.Round(g.sustainability/n, 1),
			TotalDisruptionHours:    g.disruption,
		})
	}
	return out, nil
}

// SupplyChainDisruptions totals disruption hours per month and facility.
func (s *Service) SupplyChainDisruptions(ctx context.Context) ([]series.Row, error) {
	sc, err := s.source.SupplyChain(ctx)
	if err != nil {
		return nil, err
	}
	points := make([]series.Point, 0, len(sc))
	for _, r := range sc {
		points = append(points, series.Point{Period: r.Date.Format(monthLayout), Category: r.Facility, Value: float64(r.DisruptionHours)})
	}
	return series.PivotCategories(points, monthlyPivot(series.Sum, false)), nil
}

// RDPortfolio totals R&D budgets per division, sorted by division name.
func (s *Service) RDPortfolio(ctx context.Context) ([]apiclient.RDDivision, error) {
	projects, err := s.source.RDPortfolio(ctx)
	if err != nil {
		return nil, err
	}
	index := make(map[string]*apiclient.RDDivision)
	for _, p := range projects {
		d := index[p.Division]
		if d == nil {
			d = &apiclient.RDDivision{Division: p.Division}
			index[p.Division] = d
		}
		d.BudgetAllocated += p.BudgetAllocatedM
		d.BudgetSpent += p.BudgetSpentM
		d.Projects++
	}
	out := make([]apiclient.RDDivision, 0, len(index))
	for _, d := range index {
		d.BudgetAllocated = series.Round(d.BudgetAllocated, 2)
		d.BudgetSpent = series.Round(d.BudgetSpent, 2)
		out = append(out, *d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Division < out[j].Division })
	return out, nil
}

// Narrative picks a headline from the current figures.
func (s *Service) Narrative(ctx context.Context) (Narrative, error) {
	fin, err := s.source.Financial(ctx)
	if err != nil {
		return Narrative{}, err
	}
	hr, err := s.source.HR(ctx)
	if err != nil {
		return Narrative{}, err
	}
	sec, err := s.source.Security(ctx)
	if err != nil {
		return Narrative{}, err
	}
	sc, err := s.source.SupplyChain(ctx)
	if err != nil {
		return Narrative{}, err
	}

	growth := RevenueGrowth(fin)
	retention := meanRetention(hr)
	var incidents int64
	for _, r := range sec {
		incidents += r.IncidentsReported
	}
	var disruptions int64
	var quality, satisfaction float64
	for _, r := range sc {
		disruptions += r.DisruptionHours
		quality += r.QualityScore
	}
	for _, r := range hr {
		satisfaction += r.SatisfactionScore
	}

	n := Narrative{
		Metrics: map[string]any{
			"total_revenue":     fmt.Sprintf("$%.1fM", totalRevenue(fin)),
			"revenue_growth":    fmt.Sprintf("%.1f%%", growth),
			"avg_retention":     formatRatio(retention),
			"avg_satisfaction":  fmt.Sprintf("%.1f/10", mean(satisfaction, len(hr))),
			"total_incidents":   incidents,
			"avg_safety_score":  fmt.Sprintf("%.1f/100", meanSafety(sec)),
			"total_disruptions": fmt.Sprintf("%d hours", disruptions),
			"avg_quality_score": fmt.Sprintf("%.1f/10", mean(quality, len(sc))),
		},
		Timestamp: s.now().Format("2006-01-02T15:04:05.000000"),
	}
	switch {
	case growth > growthThreshold:
		n.Headline = HeadlineGrowth
		n.Insight = fmt.Sprintf("Quarterly revenue has grown by %.1f%%, driven by increased market share and operational efficiency.", growth)
	case len(hr) > 0 && retention < retentionThreshold:
		n.Headline = HeadlineRetention
		n.Insight = fmt.Sprintf("With an average retention rate of %s, HR initiatives may be needed to improve employee satisfaction and reduce turnover.", formatRatio(retention))
	case incidents > incidentThreshold:
		n.Headline = HeadlineSecurity
		n.Insight = fmt.Sprintf("%d security incidents reported this quarter. Consider reviewing security protocols and WayneTech deployments in high-incident areas.", incidents)
	default:
		n.Headline = HeadlineSteady
		n.Insight = "All key performance indicators are within expected ranges, with particular strength in customer satisfaction and product quality."
	}
	return n, nil
}

// RevenueGrowth compares the latest year's total revenue with the previous
// year's, in percent. It is 0 with fewer than two years or a zero base.
func RevenueGrowth(fin []FinancialRecord) float64 {
	byYear := make(map[int]float64)
	for _, r := range fin {
		byYear[r.Year] += r.RevenueM
	}
	if len(byYear) < 2 {
		return 0
	}
	years := make([]int, 0, len(byYear))
	for y := range byYear {
		years = append(years, y)
	}
	sort.Ints(years)
	prev := byYear[years[len(years)-2]]
	last := byYear[years[len(years)-1]]
	if prev == 0 {
		return 0
	}
	return (last - prev) / prev * 100
}

func revenueByDivision(fin []FinancialRecord) []series.Field {
	totals := make(map[string]float64)
	for _, r := range fin {
		totals[r.Division] += r.RevenueM
	}
	out := make([]series.Field, 0, len(totals))
	for division, total := range totals {
		out = append(out, series.Field{Key: division, Value: total})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

func totalRevenue(fin []FinancialRecord) float64 {
	total := 0.0
	for _, r := range fin {
		total += r.RevenueM
	}
	return total
}

func meanRetention(hr []HRRecord) float64 {
	total := 0.0
	for _, r := range hr {
		total += r.RetentionRate
	}
	return mean(total, len(hr))
}

func meanSafety(sec []SecurityRecord) float64 {
	total := 0.0
	for _, r := range sec {
		total += r.PublicSafetyScore
	}
	return mean(total, len(sec))
}

func mean(total float64, n int) float64 {
	if n == 0 {
		return 0
	}
	return total / float64(n)
}

// formatRatio renders 0.853 as "85.3%".
func formatRatio(v float64) string {
	return fmt.Sprintf("%.1f%%", v*100)
}

func monthlyPivot(agg series.Aggregation, rounded bool) series.PivotOptions {
	return series.PivotOptions{
		PeriodKey:   "month",
		Aggregation: agg,
		Rounded:     rounded,
		Decimals:    1,
		Less:        func(a, b string) bool { return a < b },
		FillMissing: true,
	}
}

// quarterLess orders "Q<n> <year>" labels by year then quarter. Labels that
// do not parse sort after the ones that do, in string order.
func quarterLess(a, b string) bool {
	ay, aq, aok := parseQuarter(a)
	by, bq, bok := parseQuarter(b)
	switch {
	case aok && bok:
		if ay != by {
			return ay < by
		}
		return aq < bq
	case aok != bok:
		return aok
	default:
		return a < b
	}
}

func parseQuarter(label string) (year, quarter int, ok bool) {
	q, y, found := strings.Cut(strings.TrimSpace(label), " ")
	if !found || len(q) < 2 || (q[0] != 'Q' && q[0] != 'q') {
		return 0, 0, false
	}
	quarter, err := strconv.Atoi(q[1:])
	if err != nil {
		return 0, 0, false
	}
	year, err = strconv.Atoi(y)
	if err != nil {
		return 0, 0, false
	}
	return year, quarter, true
}
