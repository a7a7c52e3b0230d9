package ui

import (
	"fmt"
	"html/template"

	"github.com/wayne-insights/dashboard/internal/dashboard/svg"
	"github.com/wayne-insights/dashboard/internal/series"
)

// LineRenderer abstracts SVG line chart rendering for the dashboard.
type LineRenderer interface {
	Line(width, height int, series []svg.Series, labels []string, opts svg.LineOpts) (template.HTML, error)
}

// BarRenderer abstracts SVG bar chart rendering for the dashboard.
type BarRenderer interface {
	Bars(width, height int, series []svg.Series, labels []string, opts svg.BarOpts) (template.HTML, error)
}

// PieRenderer abstracts SVG pie chart rendering for the dashboard.
type PieRenderer interface {
	Pie(width, height int, slices []svg.Slice, opts svg.PieOpts) (template.HTML, error)
}

// ChartConfig declares what a chart shows. Keys lists the row fields to plot;
// when empty the keys of the rows are used, first row first.
type ChartConfig struct {
	Title      string
	XAxisLabel string
	YAxisLabel string
	Keys       []string
	Colors     []string
	Height     int
	Stacked    bool
	BarSize    float64
}

// Chart is a rendered chart ready for a template.
type Chart struct {
	Title string
	Empty bool
	SVG   template.HTML
}

// keys returns the plotted keys. Declared keys must cover every row field; keys a
// row lacks plot as 0.
func (c ChartConfig) keys(rows []series.Row) ([]string, error) {
	if len(c.Keys) == 0 {
		return series.Keys(rows), nil
	}
	if err := series.ValidateKeys(rows, c.Keys); err != nil {
		return nil, err
	}
	return c.Keys, nil
}

func (c ChartConfig) color(i int) string {
	if i < len(c.Colors) && c.Colors[i] != "" {
		return c.Colors[i]
	}
	return svg.ColorAt(i)
}

func (c ChartConfig) seriesFor(rows []series.Row) ([]svg.Series, error) {
	keys, err := c.keys(rows)
	if err != nil {
		return nil, fmt.Errorf("ui: chart %q: %w", c.Title, err)
	}
	out := make([]svg.Series, 0, len(keys))
	for i, key := range keys {
		out = append(out, svg.Series{
			Name:   TitleCase(key),
			Color:  c.color(i),
			Values: series.Column(rows, key),
		})
	}
	return out, nil
}

// BuildLineChart renders one line per declared key across the rows.
func BuildLineChart(r LineRenderer, rows []series.Row, cfg ChartConfig) (Chart, error) {
	lines, err := cfg.seriesFor(rows)
	if err != nil {
		return Chart{}, err
	}
	html, err := r.Line(svg.DefaultWidth, cfg.Height, lines, series.Periods(rows), svg.LineOpts{
		Title:       cfg.Title,
		Description: cfg.YAxisLabel,
		XAxisLabel:  cfg.XAxisLabel,
		YAxisLabel:  cfg.YAxisLabel,
		ShowDots:    true,
	})
	if err != nil {
		return Chart{}, err
	}
	return Chart{Title: cfg.Title, Empty: len(rows) == 0, SVG: html}, nil
}

// BuildBarChart renders one bar set per declared key across the rows.
func BuildBarChart(r BarRenderer, rows []series.Row, cfg ChartConfig) (Chart, error) {
	bars, err := cfg.seriesFor(rows)
	if err != nil {
		return Chart{}, err
	}
	html, err := r.Bars(svg.DefaultWidth, cfg.Height, bars, series.Periods(rows), svg.BarOpts{
		Title:       cfg.Title,
		Description: cfg.YAxisLabel,
		XAxisLabel:  cfg.XAxisLabel,
		YAxisLabel:  cfg.YAxisLabel,
		Stacked:     cfg.Stacked,
		BarSize:     cfg.BarSize,
	})
	if err != nil {
		return Chart{}, err
	}
	return Chart{Title: cfg.Title, Empty: len(rows) == 0, SVG: html}, nil
}

// BuildPieChart renders each field as a slice.
func BuildPieChart(r PieRenderer, fields []series.Field, cfg ChartConfig) (Chart, error) {
	slices := make([]svg.Slice, 0, len(fields))
	for i, f := range fields {
		slices = append(slices, svg.Slice{Label: f.Key, Value: f.Value, Color: cfg.color(i)})
	}
	html, err := r.Pie(svg.DefaultWidth, cfg.Height, slices, svg.PieOpts{Title: cfg.Title})
	if err != nil {
		return Chart{}, err
	}
	return Chart{Title: cfg.Title, Empty: len(fields) == 0, SVG: html}, nil
}

// Renderer draws every chart kind with the svg package.
type Renderer struct{}

// Line implements LineRenderer.
func (Renderer) Line(width, height int, s []svg.Series, labels []string, opts svg.LineOpts) (template.HTML, error) {
	return svg.Line(width, height, s, labels, opts)
}

// Bars implements BarRenderer.
func (Renderer) Bars(width, height int, s []svg.Series, labels []string, opts svg.BarOpts) (template.HTML, error) {
	return svg.Bars(width, height, s, labels, opts)
}

// Pie implements PieRenderer.
func (Renderer) Pie(width, height int, slices []svg.Slice, opts svg.PieOpts) (template.HTML, error) {
	return svg.Pie(width, height, slices, opts)
}
