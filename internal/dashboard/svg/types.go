// Package svg renders small accessible SVG charts for the dashboard.
package svg

// Series is one named line or bar set.
type Series struct {
	Name   string
	Color  string
	Values []float64
}

// Slice is one segment of a pie chart.
type Slice struct {
	Label string
	Value float64
	Color string
}

// LineOpts customises the line chart renderer.
type LineOpts struct {
	Title       string
	Description string
	XAxisLabel  string
	YAxisLabel  string
	AxisColor   string
	GridColor   string
	Padding     float64
	ShowDots    bool
	TickCount   int
}

// BarOpts customises the bar chart renderer.
type BarOpts struct {
	Title       string
	Description string
	XAxisLabel  string
	YAxisLabel  string
	AxisColor   string
	GridColor   string
	Padding     float64
	TickCount   int
	Stacked     bool
	// BarSize caps the width of a single bar; 0 sizes bars to the group.
	BarSize float64
}

// PieOpts customises the pie chart renderer.
type PieOpts struct {
	Title       string
	Description string
	LabelColor  string
	Padding     float64
}

// Defaults for the dashboard charts.
const (
	DefaultWidth   = 720
	DefaultHeight  = 300
	DefaultPadding = 40.0
	DefaultTicks   = 5
)

// NoDataMessage is rendered in place of a chart without data.
const NoDataMessage = "No data available"

// DefaultColors is the series palette, assigned in order.
var DefaultColors = []string{"#3b82f6", "#10b981", "#ef4444", "#f59e0b", "#8b5cf6", "#ec4899"}

// ColorAt returns the palette color for the i-th series.
func ColorAt(i int) string {
	if i < 0 {
		i = -i
	}
	return DefaultColors[i%len(DefaultColors)]
}
