package metrics

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// undefinedTable is the SQLSTATE for a missing relation.
const undefinedTable = "42P01"

// Querier is the subset of pgxpool.Pool used by PostgresSource.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// PostgresSource reads datasets from the tables created by Seed.
type PostgresSource struct {
	db Querier
}

// NewPostgresSource constructs a PostgresSource.
func NewPostgresSource(db Querier) *PostgresSource {
	return &PostgresSource{db: db}
}

// Financial implements Source.
func (s *PostgresSource) Financial(ctx context.Context) ([]FinancialRecord, error) {
	return queryAll[FinancialRecord](ctx, s.db, DatasetFinancial,
		`SELECT year, quarter, division, revenue_m FROM wayne_financial_data ORDER BY id`)
}

// HR implements Source.
func (s *PostgresSource) HR(ctx context.Context) ([]HRRecord, error) {
	return queryAll[HRRecord](ctx, s.db, DatasetHR,
		`SELECT date, division, retention_rate, training_hours, performance_rating, satisfaction_score FROM wayne_hr_analytics ORDER BY id`)
}

// Security implements Source.
func (s *PostgresSource) Security(ctx context.Context) ([]SecurityRecord, error) {
	return queryAll[SecurityRecord](ctx, s.db, DatasetSecurity,
		`SELECT date, district, incidents_reported, public_safety_score FROM wayne_security_data ORDER BY id`)
}

// SupplyChain implements Source.
func (s *PostgresSource) SupplyChain(ctx context.Context) ([]SupplyChainRecord, error) {
	return queryAll[SupplyChainRecord](ctx, s.db, DatasetSupplyChain,
		`SELECT date, facility, product_line, production_volume, cost_per_unit, quality_score, sustainability_rating, disruption_hours FROM wayne_supply_chain ORDER BY id`)
}

// RDPortfolio implements Source.
func (s *PostgresSource) RDPortfolio(ctx context.Context) ([]RDProject, error) {
	return queryAll[RDProject](ctx, s.db, DatasetRDPortfolio,
		`SELECT project_id, division, status, budget_allocated_m, budget_spent_m, patent_applications, start_date FROM wayne_rd_portfolio ORDER BY id`)
}

func queryAll[T any](ctx context.Context, db Querier, dataset, query string) ([]T, error) {
	rows, err := db.Query(ctx, query)
	if err != nil {
		return nil, mapQueryError(dataset, err)
	}
	out, err := pgx.CollectRows(rows, pgx.RowToStructByPos[T])
	if err != nil {
		return nil, mapQueryError(dataset, err)
	}
	return out, nil
}

func mapQueryError(dataset string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == undefinedTable {
		return fmt.Errorf("%w: %s", ErrDatasetNotFound, dataset)
	}
	return fmt.Errorf("metrics: query %s: %w", dataset, err)
}
