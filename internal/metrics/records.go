// Package metrics loads the Wayne Enterprises datasets and computes the
// aggregates served by the metrics API.
package metrics

import (
	"context"
	"errors"
	"time"
)

// Dataset names, shared by the CSV files and the Postgres tables.
const (
	DatasetFinancial   = "wayne_financial_data"
	DatasetHR          = "wayne_hr_analytics"
	DatasetSecurity    = "wayne_security_data"
	DatasetSupplyChain = "wayne_supply_chain"
	DatasetRDPortfolio = "wayne_rd_portfolio"
)

var (
	// ErrDatasetNotFound is returned when a dataset file or table does not exist.
	ErrDatasetNotFound = errors.New("metrics: dataset not found")
	// ErrEmptyDataset is returned when an aggregate needs at least one record.
	ErrEmptyDataset = errors.New("metrics: dataset is empty")
)

// FinancialRecord is one division's quarterly result.
type FinancialRecord struct {
	Year     int
	Quarter  string
	Division string
	RevenueM float64
}

// HRRecord is one division's monthly workforce snapshot.
type HRRecord struct {
	Date              time.Time
	Division          string
	RetentionRate     float64
	TrainingHours     float64
	PerformanceRating float64
	SatisfactionScore float64
}

// SecurityRecord is one district report.
type SecurityRecord struct {
	Date              time.Time
	District          string
	IncidentsReported int64
	PublicSafetyScore float64
}

// SupplyChainRecord is one facility and product line report.
type SupplyChainRecord struct {
	Date                 time.Time
	Facility             string
	ProductLine          string
	ProductionVolume     int64
	CostPerUnit          float64
	QualityScore         float64
	SustainabilityRating float64
	DisruptionHours      int64
}

// RDProject is one research project of the R&D portfolio.
type RDProject struct {
	ProjectID          string
	Division           string
	Status             string
	BudgetAllocatedM   float64
	BudgetSpentM       float64
	PatentApplications int64
	StartDate          time.Time
}

// Source provides the raw datasets.
type Source interface {
	Financial(ctx context.Context) ([]FinancialRecord, error)
	HR(ctx context.Context) ([]HRRecord, error)
	Security(ctx context.Context) ([]SecurityRecord, error)
	SupplyChain(ctx context.Context) ([]SupplyChainRecord, error)
	RDPortfolio(ctx context.Context) ([]RDProject, error)
}
