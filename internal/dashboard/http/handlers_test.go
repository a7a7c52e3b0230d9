package dashboardhttp

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/wayne-insights/dashboard/internal/apiclient"
	"github.com/wayne-insights/dashboard/internal/dashboard"
	"github.com/wayne-insights/dashboard/internal/dashboard/ui"
	"github.com/wayne-insights/dashboard/internal/series"
	"github.com/wayne-insights/dashboard/internal/view"
)

type stubService struct {
	snap        *dashboard.Snapshot
	err         error
	refreshErr  error
	invalidated int
	refreshed   int
}

func (s *stubService) Page(ctx context.Context) dashboard.Page {
	return dashboard.Resolve(s.Snapshot(ctx))
}

func (s *stubService) Snapshot(ctx context.Context) (*dashboard.Snapshot, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.snap, nil
}

func (s *stubService) Refresh(ctx context.Context) (*dashboard.Snapshot, error) {
	s.refreshed++
	if s.refreshErr != nil {
		return nil, s.refreshErr
	}
	return s.snap, nil
}

func (s *stubService) Invalidate(ctx context.Context) error {
	s.invalidated++
	return nil
}

func sampleSnapshot() *dashboard.Snapshot {
	return &dashboard.Snapshot{
		ID:        "snap-42",
		FetchedAt: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC),
		Summary: apiclient.Summary{
			TotalRevenue:      "$1,234.5M",
			AvgRetention:      "85.3%",
			PublicSafetyScore: "72.4",
			TopDivision:       "WayneTech",
		},
		RevenueTrends: []series.Row{
			series.NewRow("quarter", "Q1 2023", series.Field{Key: "wayne_tech", Value: 120}),
			series.NewRow("quarter", "Q2 2023", series.Field{Key: "wayne_tech", Value: 140}),
		},
		RevenueByDivision: []series.Field{{Key: "WayneTech", Value: 260}},
		Incidents: []series.Row{
			series.NewRow("month", "2024-01", series.Field{Key: "downtown", Value: 4}, series.Field{Key: "the_narrows", Value: 6}),
		},
		SafetyScores: []series.Row{
			series.NewRow("month", "2024-01", series.Field{Key: "downtown", Value: 70}),
		},
		SupplyChain: []apiclient.SupplyChainMetric{{Facility: "Gotham Works", ProductLine: "Steel", ProductionVolume: 900}},
		Narrative: apiclient.Narrative{
			Headline: "Strong Revenue Growth",
			Insight:  "Revenue grew 18.2% year over year.",
			Metrics:  map[string]string{"revenue_growth": "18.2%"},
		},
	}
}

func newTestHandler(t *testing.T, svc *stubService) *Handler {
	t.Helper()
	templates, err := view.NewEngine()
	if err != nil {
		t.Fatalf("parse templates: %v", err)
	}
	handler := NewHandler(nil, svc, templates, ui.DefaultRenderers())
	handler.WithNow(func() time.Time { return time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC) })
	return handler
}

func TestDashboardRendersCardsAndCharts(t *testing.T) {
	handler := newTestHandler(t, &stubService{snap: sampleSnapshot()})
	req := httptest.NewRequest(http.MethodGet, "/executive", nil)
	rr := httptest.NewRecorder()
	handler.handleDashboard(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	body := rr.Body.String()
	for _, want := range []string{"Total Revenue", "$1,234.5M", "Security Incidents", "Strong Revenue Growth", "<svg", "Gotham Works", "WayneTech"} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected %q in dashboard body", want)
		}
	}
	if !strings.Contains(body, "No data available") {
		t.Fatalf("expected placeholder for empty retention chart")
	}
}

func TestDashboardErrorStateRendersErrorPage(t *testing.T) {
	svc := &stubService{err: &dashboard.SectionError{Section: apiclient.ResourceNarrative, Err: errors.New("boom")}}
	handler := newTestHandler(t, svc)
	req := httptest.NewRequest(http.MethodGet, "/executive", nil)
	rr := httptest.NewRecorder()
	handler.handleDashboard(rr, req)
	if rr.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", rr.Code)
	}
	body := rr.Body.String()
	if !strings.Contains(body, dashboard.ErrorMessage) {
		t.Fatalf("expected static error message, got %s", body)
	}
	if strings.Contains(body, "Total Revenue") {
		t.Fatalf("error page must not render partial dashboard content")
	}
}

func TestDashboardRendersRowsWithGaps(t *testing.T) {
	snap := sampleSnapshot()
	snap.Disruptions = []series.Row{
		series.NewRow("month", "2024-01", series.Field{Key: "gotham_works", Value: 3}),
		series.NewRow("month", "2024-02", series.Field{Key: "gotham_works", Value: 1}, series.Field{Key: "ace_chemicals", Value: 2}),
	}
	handler := newTestHandler(t, &stubService{snap: snap})
	rr := httptest.NewRecorder()
	handler.handleDashboard(rr, httptest.NewRequest(http.MethodGet, "/executive", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "Ace Chemicals") {
		t.Fatalf("expected late series in chart, got %s", rr.Body.String())
	}
}

func TestSnapshotJSON(t *testing.T) {
	handler := newTestHandler(t, &stubService{snap: sampleSnapshot()})
	rr := httptest.NewRecorder()
	handler.handleSnapshot(rr, httptest.NewRequest(http.MethodGet, "/executive/snapshot.json", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var decoded dashboard.Snapshot
	if err := json.Unmarshal(rr.Body.Bytes(), &decoded); err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	if decoded.ID != "snap-42" || len(decoded.RevenueTrends) != 2 {
		t.Fatalf("unexpected snapshot %+v", decoded)
	}
}

func TestSnapshotJSONProblemOnFailure(t *testing.T) {
	handler := newTestHandler(t, &stubService{err: errors.New("upstream down")})
	rr := httptest.NewRecorder()
	handler.handleSnapshot(rr, httptest.NewRequest(http.MethodGet, "/executive/snapshot.json", nil))
	if rr.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), `"status":502`) {
		t.Fatalf("expected problem body, got %s", rr.Body.String())
	}
}

func TestCSVExport(t *testing.T) {
	handler := newTestHandler(t, &stubService{snap: sampleSnapshot()})
	rr := httptest.NewRecorder()
	handler.handleCSV(rr, httptest.NewRequest(http.MethodGet, "/executive/export.csv", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "text/csv; charset=utf-8" {
		t.Fatalf("unexpected content type %s", ct)
	}
	if cd := rr.Header().Get("Content-Disposition"); !strings.Contains(cd, "executive-dashboard-2024-03-02.csv") {
		t.Fatalf("unexpected disposition %s", cd)
	}
	if !strings.Contains(rr.Body.String(), "Security Incidents,10") {
		t.Fatalf("expected incidents total in csv, got %s", rr.Body.String())
	}
}

func TestRefreshRedirectsForms(t *testing.T) {
	svc := &stubService{snap: sampleSnapshot()}
	handler := newTestHandler(t, svc)
	rr := httptest.NewRecorder()
	handler.handleRefresh(rr, httptest.NewRequest(http.MethodPost, "/executive/refresh", nil))
	if rr.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", rr.Code)
	}
	if svc.invalidated != 1 || svc.refreshed != 1 {
		t.Fatalf("expected invalidate and refresh, got %d/%d", svc.invalidated, svc.refreshed)
	}
}

func TestRefreshJSONFailure(t *testing.T) {
	handler := newTestHandler(t, &stubService{refreshErr: errors.New("boom")})
	req := httptest.NewRequest(http.MethodPost, "/executive/refresh", nil)
	req.Header.Set("Accept", "application/json")
	rr := httptest.NewRecorder()
	handler.handleRefresh(rr, req)
	if rr.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", rr.Code)
	}
}

func TestMountRoutes(t *testing.T) {
	handler := newTestHandler(t, &stubService{snap: sampleSnapshot()})
	router := chi.NewRouter()
	handler.MountRoutes(router)

	for _, path := range []string{"/executive", "/executive/snapshot.json", "/executive/export.csv"} {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
		if rr.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", path, rr.Code)
		}
	}

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/executive/refresh", nil))
	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405 for GET refresh, got %d", rr.Code)
	}
}
