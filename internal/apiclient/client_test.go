package apiclient

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wayne-insights/dashboard/internal/series"
)

type recordingObserver struct {
	mu    sync.Mutex
	calls map[string]error
}

func (o *recordingObserver) ObserveFetch(resource string, _ time.Duration, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.calls == nil {
		o.calls = make(map[string]error)
	}
	o.calls[resource] = err
}

func newTestClient(t *testing.T, handler http.Handler, opts ...Option) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client, err := New(Config{BaseURL: srv.URL}, opts...)
	require.NoError(t, err)
	return client
}

func TestNewValidatesConfig(t *testing.T) {
	_, err := New(Config{})
	require.Error(t, err)

	_, err = New(Config{BaseURL: "http://localhost:8001", TimeoutMs: -1})
	require.Error(t, err)

	client, err := New(Config{BaseURL: "http://localhost:8001/"})
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8001/api/v1", client.baseURL)
}

func TestEndpointsHitVersionedPaths(t *testing.T) {
	var mu sync.Mutex
	var paths []string
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		paths = append(paths, r.Method+" "+r.URL.Path)
		mu.Unlock()
		switch r.URL.Path {
		case "/api/v1/summary":
			_, _ = w.Write([]byte(`{"total_revenue":"$1,234.5M","avg_retention":"85.3%","public_safety_score":"72.4","top_division":"WayneTech","message":"ok"}`))
		case "/api/v1/revenue/by-division":
			_, _ = w.Write([]byte(`{"data":{"WayneTech":120.5,"Wayne Foods":30},"message":"ok"}`))
		case "/api/v1/hr/metrics":
			_, _ = w.Write([]byte(`{"avg_training_hours":12.5,"avg_performance_rating":4.1,"avg_satisfaction_score":7.2}`))
		case "/api/v1/supply-chain/metrics":
			_, _ = w.Write([]byte(`[{"facility":"Gotham Works","product_line":"Steel","production_volume":1200,"avg_cost_per_unit":3.25,"avg_quality_score":9.1,"avg_sustainability_rating":7.5,"total_disruption_hours":14}]`))
		case "/api/v1/narrative/insight":
			_, _ = w.Write([]byte(`{"headline":"h","insight":"i","metrics":{"total_incidents":57,"avg_retention":"78.0%"},"timestamp":"2024-01-01T00:00:00"}`))
		case "/api/v1/rd/portfolio":
			_, _ = w.Write([]byte(`{"data":[{"division":"WayneTech","budget_allocated":10,"budget_spent":7.5,"projects":3}]}`))
		case "/api/v1/revenue/trends":
			_, _ = w.Write([]byte(`[{"quarter":"Q1 2023","wayne_tech":10}]`))
		default:
			_, _ = w.Write([]byte(`[{"month":"2024-01","downtown":2}]`))
		}
	}))
	ctx := context.Background()

	summary, err := client.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, "$1,234.5M", summary.TotalRevenue)
	assert.Equal(t, "WayneTech", summary.TopDivision)

	divisions, err := client.RevenueByDivision(ctx)
	require.NoError(t, err)
	assert.Equal(t, []series.Field{{Key: "WayneTech", Value: 120.5}, {Key: "Wayne Foods", Value: 30}}, divisions)

	trends, err := client.RevenueTrends(ctx)
	require.NoError(t, err)
	require.Len(t, trends, 1)
	assert.Equal(t, "quarter", trends[0].PeriodKey)

	for _, fetch := range []func(context.Context) ([]series.Row, error){
		client.RetentionRates, client.SecurityIncidents, client.SafetyScores, client.SupplyChainDisruptions,
	} {
		rows, err := fetch(ctx)
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, "month", rows[0].PeriodKey)
		assert.Equal(t, "2024-01", rows[0].Period)
	}

	hr, err := client.HRMetrics(ctx)
	require.NoError(t, err)
	assert.Equal(t, 12.5, hr.AvgTrainingHours)

	supply, err := client.SupplyChainMetrics(ctx)
	require.NoError(t, err)
	require.Len(t, supply, 1)
	assert.Equal(t, int64(1200), supply[0].ProductionVolume)

	narrative, err := client.Narrative(ctx)
	require.NoError(t, err)
	assert.Equal(t, "57", narrative.Metrics["total_incidents"])
	assert.Equal(t, []string{"avg_retention", "total_incidents"}, narrative.MetricKeys())

	rd, err := client.RDPortfolio(ctx)
	require.NoError(t, err)
	require.Len(t, rd, 1)
	assert.Equal(t, 3, rd[0].Projects)

	assert.ElementsMatch(t, []string{
		"GET /api/v1/summary",
		"GET /api/v1/revenue/by-division",
		"GET /api/v1/revenue/trends",
		"GET /api/v1/hr/retention",
		"GET /api/v1/security/incidents",
		"GET /api/v1/security/safety-scores",
		"GET /api/v1/supply-chain/disruptions",
		"GET /api/v1/hr/metrics",
		"GET /api/v1/supply-chain/metrics",
		"GET /api/v1/narrative/insight",
		"GET /api/v1/rd/portfolio",
	}, paths)
}

func TestFetchErrorOnNonSuccessStatus(t *testing.T) {
	obs := &recordingObserver{}
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}), WithObserver(obs))

	_, err := client.Summary(context.Background())
	require.Error(t, err)
	assert.EqualError(t, err, "failed to fetch summary")

	var fetchErr *FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, http.StatusInternalServerError, fetchErr.Status)
	assert.True(t, errors.Is(err, ErrUnexpectedStatus))
	assert.Error(t, obs.calls[ResourceSummary])
}

func TestFetchErrorOnInvalidBody(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	}))

	_, err := client.SecurityIncidents(context.Background())
	var fetchErr *FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, ResourceIncidents, fetchErr.Resource)
	assert.EqualError(t, err, "failed to fetch security incidents")
}

func TestObserverSeesDecodeFailures(t *testing.T) {
	obs := &recordingObserver{}
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/api/v1/security/incidents":
			_, _ = w.Write([]byte(`{"month": "2024-01"}`))
		case "/api/v1/revenue/by-division":
			_, _ = w.Write([]byte(`[1, 2]`))
		default:
			_, _ = w.Write([]byte(`[1]`))
		}
	}), WithObserver(obs))

	_, err := client.SecurityIncidents(context.Background())
	require.Error(t, err)
	_, err = client.RevenueByDivision(context.Background())
	require.Error(t, err)
	_, err = client.HRMetrics(context.Background())
	require.Error(t, err)

	obs.mu.Lock()
	defer obs.mu.Unlock()
	for _, resource := range []string{ResourceIncidents, ResourceRevenueByDivision, ResourceHRMetrics} {
		var fetchErr *FetchError
		require.ErrorAs(t, obs.calls[resource], &fetchErr, resource)
		assert.Equal(t, http.StatusOK, fetchErr.Status)
	}
}

func TestFetchErrorOnNetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()
	client, err := New(Config{BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = client.Narrative(context.Background())
	var fetchErr *FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Zero(t, fetchErr.Status)
	assert.NotNil(t, errors.Unwrap(err))
}

func TestTimeoutAbortsFetch(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(srv.Close)
	t.Cleanup(func() { close(release) })

	client, err := New(Config{BaseURL: srv.URL, TimeoutMs: 20})
	require.NoError(t, err)

	_, err = client.HRMetrics(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestUnwrapEnvelope(t *testing.T) {
	payload, err := unwrapEnvelope([]byte(`{"data":[1,2],"message":"ok"}`))
	require.NoError(t, err)
	assert.JSONEq(t, `[1,2]`, string(payload))

	payload, err = unwrapEnvelope([]byte(` {"headline":"x"} `))
	require.NoError(t, err)
	assert.JSONEq(t, `{"headline":"x"}`, string(payload))

	_, err = unwrapEnvelope([]byte(``))
	require.Error(t, err)
}
