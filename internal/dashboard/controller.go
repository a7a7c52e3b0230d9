package dashboard

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/wayne-insights/dashboard/internal/apiclient"
	"github.com/wayne-insights/dashboard/internal/series"
)

// ErrorMessage is shown to users whenever any section fails to load.
const ErrorMessage = "Failed to load dashboard data. Please try again later."

// State is the page lifecycle.
type State string

const (
	StateLoading State = "loading"
	StateReady   State = "ready"
	StateError   State = "error"
)

// Fetcher defines the metrics API contract used by the controller.
type Fetcher interface {
	Summary(ctx context.Context) (apiclient.Summary, error)
	RevenueTrends(ctx context.Context) ([]series.Row, error)
	RevenueByDivision(ctx context.Context) ([]series.Field, error)
	RetentionRates(ctx context.Context) ([]series.Row, error)
	HRMetrics(ctx context.Context) (apiclient.HRMetrics, error)
	SecurityIncidents(ctx context.Context) ([]series.Row, error)
	SafetyScores(ctx context.Context) ([]series.Row, error)
	SupplyChainMetrics(ctx context.Context) ([]apiclient.SupplyChainMetric, error)
	SupplyChainDisruptions(ctx context.Context) ([]series.Row, error)
	Narrative(ctx context.Context) (apiclient.Narrative, error)
	RDPortfolio(ctx context.Context) ([]apiclient.RDDivision, error)
}

// SectionError labels the section whose fetch failed first.
type SectionError struct {
	Section string
	Err     error
}

func (e *SectionError) Error() string {
	return fmt.Sprintf("dashboard: load %s: %v", e.Section, e.Err)
}

func (e *SectionError) Unwrap() error {
	return e.Err
}

// Page is the outcome of one dashboard load.
type Page struct {
	State    State
	Snapshot *Snapshot
	Message  string
	Err      error
}

// Loading returns the initial page state.
func Loading() Page {
	return Page{State: StateLoading}
}

// Resolve moves a loading page to ready or error.
func Resolve(snapshot *Snapshot, err error) Page {
	if err != nil {
		return Page{State: StateError, Message: ErrorMessage, Err: err}
	}
	return Page{State: StateReady, Snapshot: snapshot}
}

// Controller fans out the section fetches and joins them into a snapshot.
type Controller struct {
	fetcher Fetcher
	logger  *slog.Logger
	now     func() time.Time
}

// NewController constructs a Controller.
func NewController(fetcher Fetcher, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{fetcher: fetcher, logger: logger, now: time.Now}
}

// WithNow overrides the controller clock for testing.
func (c *Controller) WithNow(fn func() time.Time) {
	if fn != nil {
		c.now = fn
	}
}

// Run loads the page, ending in StateReady or StateError.
func (c *Controller) Run(ctx context.Context) Page {
	snapshot, err := c.Load(ctx)
	return Resolve(snapshot, err)
}

// Load fetches every section concurrently. The first failure cancels the rest.
func (c *Controller) Load(ctx context.Context) (*Snapshot, error) {
	started := c.now()
	snap := &Snapshot{}

	g, ctx := errgroup.WithContext(ctx)

	fetch := func(section string, fn func(context.Context) error) {
		g.Go(func() error {
			if err := fn(ctx); err != nil {
				return &SectionError{Section: section, Err: err}
			}
			return nil
		})
	}

	fetch(apiclient.ResourceSummary, func(ctx context.Context) (err error) {
		snap.Summary, err = c.fetcher.Summary(ctx)
		return err
	})
	fetch(apiclient.ResourceRevenueTrends, func(ctx context.Context) (err error) {
		snap.RevenueTrends, err = c.fetcher.RevenueTrends(ctx)
		return err
	})
	fetch(apiclient.ResourceRevenueByDivision, func(ctx context.Context) (err error) {
		snap.RevenueByDivision, err = c.fetcher.RevenueByDivision(ctx)
		return err
	})
	fetch(apiclient.ResourceRetention, func(ctx context.Context) (err error) {
		snap.Retention, err = c.fetcher.RetentionRates(ctx)
		return err
	})
	fetch(apiclient.ResourceHRMetrics, func(ctx context.Context) (err error) {
		snap.HRMetrics, err = c.fetcher.HRMetrics(ctx)
		return err
	})
	fetch(apiclient.ResourceIncidents, func(ctx context.Context) (err error) {
		snap.Incidents, err = c.fetcher.SecurityIncidents(ctx)
		return err
	})
	fetch(apiclient.ResourceSafetyScores, func(ctx context.Context) (err error) {
		snap.SafetyScores, err = c.fetcher.SafetyScores(ctx)
		return err
	})
	fetch(apiclient.ResourceSupplyChain, func(ctx context.Context) (err error) {
		snap.SupplyChain, err = c.fetcher.SupplyChainMetrics(ctx)
		return err
	})
	fetch(apiclient.ResourceDisruptions, func(ctx context.Context) (err error) {
		snap.Disruptions, err = c.fetcher.SupplyChainDisruptions(ctx)
		return err
	})
	fetch(apiclient.ResourceNarrative, func(ctx context.Context) (err error) {
		snap.Narrative, err = c.fetcher.Narrative(ctx)
		return err
	})
	fetch(apiclient.ResourceRDPortfolio, func(ctx context.Context) (err error) {
		snap.RDPortfolio, err = c.fetcher.RDPortfolio(ctx)
		return err
	})

	if err := g.Wait(); err != nil {
		c.logger.Warn("dashboard load failed", slog.Any("error", err))
		return nil, err
	}

	snap.ID = uuid.NewString()
	snap.FetchedAt = c.now().UTC()
	c.logger.Debug("dashboard loaded",
		slog.String("snapshot", snap.ID),
		slog.Duration("duration", snap.FetchedAt.Sub(started)))
	return snap, nil
}
