package apiclient

import (
	"encoding/json"
	"sort"
	"strconv"
	"strings"
)

// Summary carries the preformatted headline figures.
type Summary struct {
	TotalRevenue      string `json:"total_revenue"`
	AvgRetention      string `json:"avg_retention"`
	PublicSafetyScore string `json:"public_safety_score"`
	TopDivision       string `json:"top_division"`
	Message           string `json:"message,omitempty"`
}

// HRMetrics holds workforce averages.
type HRMetrics struct {
	AvgTrainingHours     float64 `json:"avg_training_hours"`
	AvgPerformanceRating float64 `json:"avg_performance_rating"`
	AvgSatisfactionScore float64 `json:"avg_satisfaction_score"`
	Message              string  `json:"message,omitempty"`
}

// SupplyChainMetric aggregates one facility and product line.
type SupplyChainMetric struct {
	Facility                string  `json:"facility"`
	ProductLine             string  `json:"product_line"`
	ProductionVolume        int64   `json:"production_volume"`
	AvgCostPerUnit          float64 `json:"avg_cost_per_unit"`
	AvgQualityScore         float64 `json:"avg_quality_score"`
	AvgSustainabilityRating float64 `json:"avg_sustainability_rating"`
	TotalDisruptionHours    int64   `json:"total_disruption_hours"`
}

// RDDivision summarises the R&D budget of one division.
type RDDivision struct {
	Division        string  `json:"division"`
	BudgetAllocated float64 `json:"budget_allocated"`
	BudgetSpent     float64 `json:"budget_spent"`
	Projects        int     `json:"projects"`
}

// Narrative is the generated headline and its supporting figures.
type Narrative struct {
	Headline  string            `json:"headline"`
	Insight   string            `json:"insight"`
	Metrics   map[string]string `json:"metrics"`
	Timestamp string            `json:"timestamp"`
}

// UnmarshalJSON accepts metric values of any scalar type and stores them as strings.
func (n *Narrative) UnmarshalJSON(data []byte) error {
	var raw struct {
		Headline  string                     `json:"headline"`
		Insight   string                     `json:"insight"`
		Metrics   map[string]json.RawMessage `json:"metrics"`
		Timestamp string                     `json:"timestamp"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	n.Headline = raw.Headline
	n.Insight = raw.Insight
	n.Timestamp = raw.Timestamp
	n.Metrics = make(map[string]string, len(raw.Metrics))
	for key, value := range raw.Metrics {
		n.Metrics[key] = scalarString(value)
	}
	return nil
}

// MetricKeys returns the metric names sorted.
func (n Narrative) MetricKeys() []string {
	keys := make([]string, 0, len(n.Metrics))
	for k := range n.Metrics {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func scalarString(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var num json.Number
	if err := json.Unmarshal(raw, &num); err == nil {
		if i, err := num.Int64(); err == nil {
			return strconv.FormatInt(i, 10)
		}
		return num.String()
	}
	text := strings.TrimSpace(string(raw))
	if text == "null" {
		return ""
	}
	return text
}
