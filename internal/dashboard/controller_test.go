package dashboard

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/wayne-insights/dashboard/internal/apiclient"
	"github.com/wayne-insights/dashboard/internal/series"
)

type stubFetcher struct {
	fail  string
	block string
	calls atomic.Int32
}

func (s *stubFetcher) check(ctx context.Context, section string) error {
	s.calls.Add(1)
	if section == s.block {
		<-ctx.Done()
		return ctx.Err()
	}
	if section == s.fail {
		return &apiclient.FetchError{Resource: section, Status: 500, Err: errors.New("boom")}
	}
	return nil
}

func (s *stubFetcher) Summary(ctx context.Context) (apiclient.Summary, error) {
	return apiclient.Summary{TotalRevenue: "$1,234.5M", AvgRetention: "85.3%", PublicSafetyScore: "72.4", TopDivision: "WayneTech"},
		s.check(ctx, apiclient.ResourceSummary)
}

func (s *stubFetcher) RevenueTrends(ctx context.Context) ([]series.Row, error) {
	return []series.Row{
		series.NewRow("quarter", "Q1 2023", series.Field{Key: "wayne_tech", Value: 10}),
		series.NewRow("quarter", "Q2 2023", series.Field{Key: "wayne_tech", Value: 12}),
	}, s.check(ctx, apiclient.ResourceRevenueTrends)
}

func (s *stubFetcher) RevenueByDivision(ctx context.Context) ([]series.Field, error) {
	return []series.Field{{Key: "WayneTech", Value: 22}}, s.check(ctx, apiclient.ResourceRevenueByDivision)
}

func (s *stubFetcher) RetentionRates(ctx context.Context) ([]series.Row, error) {
	return []series.Row{series.NewRow("month", "2024-01", series.Field{Key: "wayne_tech", Value: 0.9})},
		s.check(ctx, apiclient.ResourceRetention)
}

func (s *stubFetcher) HRMetrics(ctx context.Context) (apiclient.HRMetrics, error) {
	return apiclient.HRMetrics{AvgTrainingHours: 12}, s.check(ctx, apiclient.ResourceHRMetrics)
}

func (s *stubFetcher) SecurityIncidents(ctx context.Context) ([]series.Row, error) {
	return []series.Row{
		series.NewRow("month", "2024-01", series.Field{Key: "downtown", Value: 3}, series.Field{Key: "the_narrows", Value: 4}),
		series.NewRow("month", "2024-02", series.Field{Key: "downtown", Value: 1}, series.Field{Key: "the_narrows", Value: 2}),
	}, s.check(ctx, apiclient.ResourceIncidents)
}

func (s *stubFetcher) SafetyScores(ctx context.Context) ([]series.Row, error) {
	return []series.Row{
		series.NewRow("month", "2024-01", series.Field{Key: "downtown", Value: 5}),
		series.NewRow("month", "2024-02", series.Field{Key: "downtown", Value: 7}, series.Field{Key: "the_narrows", Value: 8}),
	}, s.check(ctx, apiclient.ResourceSafetyScores)
}

func (s *stubFetcher) SupplyChainMetrics(ctx context.Context) ([]apiclient.SupplyChainMetric, error) {
	return []apiclient.SupplyChainMetric{{Facility: "Gotham Works", ProductLine: "Steel", ProductionVolume: 100}},
		s.check(ctx, apiclient.ResourceSupplyChain)
}

func (s *stubFetcher) SupplyChainDisruptions(ctx context.Context) ([]series.Row, error) {
	return []series.Row{series.NewRow("month", "2024-01", series.Field{Key: "gotham_works", Value: 6})},
		s.check(ctx, apiclient.ResourceDisruptions)
}

func (s *stubFetcher) Narrative(ctx context.Context) (apiclient.Narrative, error) {
	return apiclient.Narrative{
		Headline: "Wayne Enterprises Reports Strong Revenue Growth",
		Metrics:  map[string]string{"revenue_growth": "18.2%"},
	}, s.check(ctx, apiclient.ResourceNarrative)
}

func (s *stubFetcher) RDPortfolio(ctx context.Context) ([]apiclient.RDDivision, error) {
	return []apiclient.RDDivision{{Division: "WayneTech", BudgetAllocated: 10, BudgetSpent: 6, Projects: 2}},
		s.check(ctx, apiclient.ResourceRDPortfolio)
}

var allSections = []string{
	apiclient.ResourceSummary,
	apiclient.ResourceRevenueTrends,
	apiclient.ResourceRevenueByDivision,
	apiclient.ResourceRetention,
	apiclient.ResourceHRMetrics,
	apiclient.ResourceIncidents,
	apiclient.ResourceSafetyScores,
	apiclient.ResourceSupplyChain,
	apiclient.ResourceDisruptions,
	apiclient.ResourceNarrative,
	apiclient.ResourceRDPortfolio,
}

func TestControllerRunReady(t *testing.T) {
	defer goleak.VerifyNone(t)

	fetcher := &stubFetcher{}
	ctrl := NewController(fetcher, nil)
	fixed := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	ctrl.WithNow(func() time.Time { return fixed })

	assert.Equal(t, StateLoading, Loading().State)

	page := ctrl.Run(context.Background())
	require.Equal(t, StateReady, page.State)
	require.NotNil(t, page.Snapshot)
	assert.Empty(t, page.Message)
	assert.Equal(t, int32(len(allSections)), fetcher.calls.Load())

	snap := page.Snapshot
	assert.NotEmpty(t, snap.ID)
	assert.Equal(t, fixed, snap.FetchedAt)
	assert.Equal(t, "WayneTech", snap.Summary.TopDivision)
	assert.Equal(t, 10.0, snap.TotalIncidents())
	assert.Equal(t, 7.5, snap.AvgSafetyScore())
	growth, ok := snap.RevenueGrowth()
	require.True(t, ok)
	assert.Equal(t, 18.2, growth)

	monthly := snap.MonthlyIncidents()
	require.Len(t, monthly, 2)
	v, _ := monthly[0].Get(IncidentsKey)
	assert.Equal(t, 7.0, v)
}

func TestControllerAnySectionFailureFailsPage(t *testing.T) {
	defer goleak.VerifyNone(t)

	for _, section := range allSections {
		t.Run(section, func(t *testing.T) {
			ctrl := NewController(&stubFetcher{fail: section}, nil)
			page := ctrl.Run(context.Background())

			require.Equal(t, StateError, page.State)
			assert.Nil(t, page.Snapshot)
			assert.Equal(t, ErrorMessage, page.Message)

			var sectionErr *SectionError
			require.ErrorAs(t, page.Err, &sectionErr)
			assert.Equal(t, section, sectionErr.Section)

			var fetchErr *apiclient.FetchError
			require.ErrorAs(t, page.Err, &fetchErr)
		})
	}
}

func TestControllerFailureCancelsPendingFetches(t *testing.T) {
	defer goleak.VerifyNone(t)

	fetcher := &stubFetcher{fail: apiclient.ResourceSummary, block: apiclient.ResourceNarrative}
	ctrl := NewController(fetcher, nil)

	done := make(chan Page, 1)
	go func() { done <- ctrl.Run(context.Background()) }()

	select {
	case page := <-done:
		require.Equal(t, StateError, page.State)
		var sectionErr *SectionError
		require.ErrorAs(t, page.Err, &sectionErr)
		assert.Equal(t, apiclient.ResourceSummary, sectionErr.Section)
	case <-time.After(2 * time.Second):
		t.Fatal("pending fetch was not cancelled")
	}
}

func TestControllerRespectsCallerCancellation(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctrl := NewController(&stubFetcher{block: apiclient.ResourceHRMetrics}, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	page := ctrl.Run(ctx)
	require.Equal(t, StateError, page.State)
	assert.ErrorIs(t, page.Err, context.DeadlineExceeded)
}

func TestSnapshotDerivedMetricsWithoutData(t *testing.T) {
	var snap Snapshot
	assert.Zero(t, snap.TotalIncidents())
	assert.Zero(t, snap.AvgSafetyScore())
	assert.Empty(t, snap.MonthlyIncidents())
	_, ok := snap.RevenueGrowth()
	assert.False(t, ok)
}
