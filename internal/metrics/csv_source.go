package metrics

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"
)

// CSVSource reads datasets from <name>.csv files and keeps each parsed
// dataset in memory until ClearCache is called.
type CSVSource struct {
	fsys fs.FS

	mu    sync.Mutex
	cache map[string]any
}

// NewCSVSource reads datasets from fsys, usually os.DirFS(dataDir).
func NewCSVSource(fsys fs.FS) *CSVSource {
	return &CSVSource{fsys: fsys, cache: make(map[string]any)}
}

// ClearCache drops every parsed dataset.
func (s *CSVSource) ClearCache() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache = make(map[string]any)
}

// Financial implements Source.
func (s *CSVSource) Financial(ctx context.Context) ([]FinancialRecord, error) {
	return loadDataset(ctx, s, DatasetFinancial, func(c columns, rec []string) (FinancialRecord, error) {
		year, err := c.int(rec, "Year")
		if err != nil {
			return FinancialRecord{}, err
		}
		revenue, err := c.float(rec, "Revenue_M")
		if err != nil {
			return FinancialRecord{}, err
		}
		return FinancialRecord{
			Year:     int(year),
			Quarter:  c.str(rec, "Quarter"),
			Division: c.str(rec, "Division"),
			RevenueM: revenue,
		}, nil
	}, "Year", "Quarter", "Division", "Revenue_M")
}

// HR implements Source.
func (s *CSVSource) HR(ctx context.Context) ([]HRRecord, error) {
	return loadDataset(ctx, s, DatasetHR, func(c columns, rec []string) (HRRecord, error) {
		var (
			out HRRecord
			err error
		)
		if out.Date, err = c.date(rec, "Date"); err != nil {
			return out, err
		}
		out.Division = c.str(rec, "Division")
		if out.RetentionRate, err = c.float(rec, "Retention_Rate"); err != nil {
			return out, err
		}
		if out.TrainingHours, err = c.float(rec, "Training_Hours"); err != nil {
			return out, err
		}
		if out.PerformanceRating, err = c.float(rec, "Performance_Rating"); err != nil {
			return out, err
		}
		out.SatisfactionScore, err = c.float(rec, "Satisfaction_Score")
		return out, err
	}, "Date", "Division", "Retention_Rate", "Training_Hours", "Performance_Rating", "Satisfaction_Score")
}

// Security implements Source.
func (s *CSVSource) Security(ctx context.Context) ([]SecurityRecord, error) {
	return loadDataset(ctx, s, DatasetSecurity, func(c columns, rec []string) (SecurityRecord, error) {
		var (
			out SecurityRecord
			err error
		)
		if out.Date, err = c.date(rec, "Date"); err != nil {
			return out, err
		}
		out.District = c.str(rec, "District")
		if out.IncidentsReported, err = c.int(rec, "Incidents_Reported"); err != nil {
			return out, err
		}
		out.PublicSafetyScore, err = c.float(rec, "Public_Safety_Score")
		return out, err
	}, "Date", "District", "Incidents_Reported", "Public_Safety_Score")
}

// SupplyChain implements Source.
func (s *CSVSource) SupplyChain(ctx context.Context) ([]SupplyChainRecord, error) {
	return loadDataset(ctx, s, DatasetSupplyChain, func(c columns, rec []string) (SupplyChainRecord, error) {
		var (
			out SupplyChainRecord
			err error
		)
		if out.Date, err = c.date(rec, "Date"); err != nil {
			return out, err
		}
		out.Facility = c.str(rec, "Facility")
		out.ProductLine = c.str(rec, "Product_Line")
		if out.ProductionVolume, err = c.int(rec, "Production_Volume"); err != nil {
			return out, err
		}
		if out.CostPerUnit, err = c.float(rec, "Cost_Per_Unit"); err != nil {
			return out, err
		}
		if out.QualityScore, err = c.float(rec, "Quality_Score"); err != nil {
			return out, err
		}
		if out.SustainabilityRating, err = c.float(rec, "Sustainability_Rating"); err != nil {
			return out, err
		}
		out.DisruptionHours, err = c.int(rec, "Disruption_Hours")
		return out, err
	}, "Date", "Facility", "Product_Line", "Production_Volume", "Cost_Per_Unit", "Quality_Score", "Sustainability_Rating", "Disruption_Hours")
}

// RDPortfolio implements Source.
func (s *CSVSource) RDPortfolio(ctx context.Context) ([]RDProject, error) {
	return loadDataset(ctx, s, DatasetRDPortfolio, func(c columns, rec []string) (RDProject, error) {
		var (
			out RDProject
			err error
		)
		out.ProjectID = c.str(rec, "Project_ID")
		out.Division = c.str(rec, "Division")
		out.Status = c.str(rec, "Status")
		if out.BudgetAllocatedM, err = c.float(rec, "Budget_Allocated_M"); err != nil {
			return out, err
		}
		if out.BudgetSpentM, err = c.float(rec, "Budget_Spent_M"); err != nil {
			return out, err
		}
		if out.PatentApplications, err = c.int(rec, "Patent_Applications"); err != nil {
			return out, err
		}
		out.StartDate, err = c.date(rec, "Start_Date")
		return out, err
	}, "Project_ID", "Division", "Status", "Budget_Allocated_M", "Budget_Spent_M", "Patent_Applications", "Start_Date")
}

func loadDataset[T any](ctx context.Context, s *CSVSource, name string, parse func(columns, []string) (T, error), required ...string) ([]T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if cached, ok := s.cache[name]; ok {
		return cached.([]T), nil
	}

	file := name + ".csv"
	f, err := s.fsys.Open(file)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrDatasetNotFound, file)
		}
		return nil, fmt.Errorf("metrics: open %s: %w", file, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.TrimLeadingSpace = true
	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("metrics: %s: missing header", file)
		}
		return nil, fmt.Errorf("metrics: read %s: %w", file, err)
	}
	cols := newColumns(header)
	for _, col := range required {
		if _, ok := cols[col]; !ok {
			return nil, fmt.Errorf("metrics: %s: missing column %q", file, col)
		}
	}

	out := make([]T, 0)
	for line := 2; ; line++ {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("metrics: read %s: %w", file, err)
		}
		item, err := parse(cols, rec)
		if err != nil {
			return nil, fmt.Errorf("metrics: %s line %d: %w", file, line, err)
		}
		out = append(out, item)
	}
	s.cache[name] = out
	return out, nil
}

type columns map[string]int

func newColumns(header []string) columns {
	cols := make(columns, len(header))
	for i, name := range header {
		cols[strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))] = i
	}
	return cols
}

func (c columns) str(rec []string, name string) string {
	i, ok := c[name]
	if !ok || i >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[i])
}

func (c columns) float(rec []string, name string) (float64, error) {
	raw := c.str(rec, name)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("column %s: %w", name, err)
	}
	return v, nil
}

func (c columns) int(rec []string, name string) (int64, error) {
	v, err := c.float(rec, name)
	if err != nil {
		return 0, err
	}
	return int64(math.Round(v)), nil
}

var dateLayouts = []string{"2006-01-02", "2006-01-02 15:04:05", time.RFC3339, "01/02/2006"}

func (c columns) date(rec []string, name string) (time.Time, error) {
	raw := c.str(rec, name)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("column %s: unrecognised date %q", name, raw)
}
