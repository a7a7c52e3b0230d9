package metrics

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"

	"github.com/wayne-insights/dashboard/internal/platform/db"
)

//go:embed schema.sql
var schemaSQL string

// Schema returns the DDL for the dataset tables.
func Schema() string {
	return schemaSQL
}

type seedTable struct {
	name    string
	columns []string
	rows    func(ctx context.Context) ([][]any, error)
}

// Seed creates the dataset tables and replaces their content with the
// records of src inside a single transaction.
func Seed(ctx context.Context, pool db.Beginner, src Source, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	tables := seedTables(src)
	return db.WithTx(ctx, pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, schemaSQL); err != nil {
			return fmt.Errorf("metrics: apply schema: %w", err)
		}
		for _, table := range tables {
			rows, err := table.rows(ctx)
			if err != nil {
				return err
			}
			if _, err := tx.Exec(ctx, "TRUNCATE "+pgx.Identifier{table.name}.Sanitize()); err != nil {
				return fmt.Errorf("metrics: truncate %s: %w", table.name, err)
			}
			copied, err := tx.CopyFrom(ctx, pgx.Identifier{table.name}, table.columns, pgx.CopyFromRows(rows))
			if err != nil {
				return fmt.Errorf("metrics: copy %s: %w", table.name, err)
			}
			logger.Info("dataset seeded", slog.String("table", table.name), slog.Int64("rows", copied))
		}
		return nil
	})
}

func seedTables(src Source) []seedTable {
	return []seedTable{
		{
			name:    DatasetFinancial,
			columns: []string{"year", "quarter", "division", "revenue_m"},
			rows: func(ctx context.Context) ([][]any, error) {
				records, err := src.Financial(ctx)
				if err != nil {
					return nil, err
				}
				out := make([][]any, 0, len(records))
				for _, r := range records {
					out = append(out, []any{r.Year, r.Quarter, r.Division, r.RevenueM})
				}
				return out, nil
			},
		},
		{
			name:    DatasetHR,
			columns: []string{"date", "division", "retention_rate", "training_hours", "performance_rating", "satisfaction_score"},
			rows: func(ctx context.Context) ([][]any, error) {
				records, err := src.HR(ctx)
				if err != nil {
					return nil, err
				}
				out := make([][]any, 0, len(records))
				for _, r := range records {
					out = append(out, []any{r.Date, r.Division, r.RetentionRate, r.TrainingHours, r.PerformanceRating, r.SatisfactionScore})
				}
				return out, nil
			},
		},
		{
			name:    DatasetSecurity,
			columns: []string{"date", "district", "incidents_reported", "public_safety_score"},
			rows: func(ctx context.Context) ([][]any, error) {
				records, err := src.Security(ctx)
				if err != nil {
					return nil, err
				}
				out := make([][]any, 0, len(records))
				for _, r := range records {
					out = append(out, []any{r.Date, r.District, r.IncidentsReported, r.PublicSafetyScore})
				}
				return out, nil
			},
		},
		{
			name:    DatasetSupplyChain,
			columns: []string{"date", "facility", "product_line", "production_volume", "cost_per_unit", "quality_score", "sustainability_rating", "disruption_hours"},
			rows: func(ctx context.Context) ([][]any, error) {
				records, err := src.SupplyChain(ctx)
				if err != nil {
					return nil, err
				}
				out := make([][]any, 0, len(records))
				for _, r := range records {
					out = append(out, []any{r.Date, r.Facility, r.ProductLine, r.ProductionVolume, r.CostPerUnit, r.QualityScore, r.SustainabilityRating, r.DisruptionHours})
				}
				return out, nil
			},
		},
		{
			name:    DatasetRDPortfolio,
			columns: []string{"project_id", "division", "status", "budget_allocated_m", "budget_spent_m", "patent_applications", "start_date"},
			rows: func(ctx context.Context) ([][]any, error) {
				records, err := src.RDPortfolio(ctx)
				if err != nil {
					return nil, err
				}
				out := make([][]any, 0, len(records))
				for _, r := range records {
					out = append(out, []any{r.ProjectID, r.Division, r.Status, r.BudgetAllocatedM, r.BudgetSpentM, r.PatentApplications, r.StartDate})
				}
				return out, nil
			},
		},
	}
}
