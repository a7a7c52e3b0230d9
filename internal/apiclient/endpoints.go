package apiclient

import (
	"context"

	"github.com/wayne-insights/dashboard/internal/series"
)

// Resource names reported in FetchError and metrics.
const (
	ResourceSummary           = "summary"
	ResourceRevenueTrends     = "revenue trends"
	ResourceRevenueByDivision = "revenue by division"
	ResourceRetention         = "retention rates"
	ResourceHRMetrics         = "hr metrics"
	ResourceIncidents         = "security incidents"
	ResourceSafetyScores      = "safety scores"
	ResourceSupplyChain       = "supply chain metrics"
	ResourceDisruptions       = "supply chain disruptions"
	ResourceNarrative         = "narrative insight"
	ResourceRDPortfolio       = "rd portfolio"
)

// Summary fetches the headline figures.
func (c *Client) Summary(ctx context.Context) (Summary, error) {
	var out Summary
	err := c.getJSON(ctx, ResourceSummary, "/summary", &out)
	return out, err
}

// RevenueTrends fetches quarterly revenue per division, keyed by "quarter".
func (c *Client) RevenueTrends(ctx context.Context) ([]series.Row, error) {
	return c.getRows(ctx, ResourceRevenueTrends, "/revenue/trends", "quarter")
}

// RevenueByDivision fetches total revenue per division in response order.
func (c *Client) RevenueByDivision(ctx context.Context) ([]series.Field, error) {
	var fields []series.Field
	err := c.fetch(ctx, ResourceRevenueByDivision, "/revenue/by-division", func(payload []byte) (err error) {
		fields, err = series.DecodeFields(payload)
		return err
	})
	if err != nil {
		return nil, err
	}
	return fields, nil
}

// RetentionRates fetches monthly retention per division, keyed by "month".
func (c *Client) RetentionRates(ctx context.Context) ([]series.Row, error) {
	return c.getRows(ctx, ResourceRetention, "/hr/retention", "month")
}

// HRMetrics fetches workforce averages.
func (c *Client) HRMetrics(ctx context.Context) (HRMetrics, error) {
	var out HRMetrics
	err := c.getJSON(ctx, ResourceHRMetrics, "/hr/metrics", &out)
	return out, err
}

// SecurityIncidents fetches monthly incidents per district, keyed by "month".
func (c *Client) SecurityIncidents(ctx context.Context) ([]series.Row, error) {
	return c.getRows(ctx, ResourceIncidents, "/security/incidents", "month")
}

// SafetyScores fetches monthly safety scores per district, keyed by "month".
func (c *Client) SafetyScores(ctx context.Context) ([]series.Row, error) {
	return c.getRows(ctx, ResourceSafetyScores, "/security/safety-scores", "month")
}

// SupplyChainMetrics fetches the facility and product line aggregates.
func (c *Client) SupplyChainMetrics(ctx context.Context) ([]SupplyChainMetric, error) {
	out := make([]SupplyChainMetric, 0)
	if err := c.getJSON(ctx, ResourceSupplyChain, "/supply-chain/metrics", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SupplyChainDisruptions fetches monthly disruption hours per facility, keyed by "month".
func (c *Client) SupplyChainDisruptions(ctx context.Context) ([]series.Row, error) {
	return c.getRows(ctx, ResourceDisruptions, "/supply-chain/disruptions", "month")
}

// Narrative fetches the generated insight.
func (c *Client) Narrative(ctx context.Context) (Narrative, error) {
	var out Narrative
	err := c.getJSON(ctx, ResourceNarrative, "/narrative/insight", &out)
	return out, err
}

// RDPortfolio fetches R&D budgets per division.
func (c *Client) RDPortfolio(ctx context.Context) ([]RDDivision, error) {
	out := make([]RDDivision, 0)
	if err := c.getJSON(ctx, ResourceRDPortfolio, "/rd/portfolio", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) getRows(ctx context.Context, resource, path, periodKey string) ([]series.Row, error) {
	var rows []series.Row
	err := c.fetch(ctx, resource, path, func(payload []byte) (err error) {
		rows, err = series.DecodeRows(payload, periodKey)
		return err
	})
	if err != nil {
		return nil, err
	}
	return rows, nil
}
