package svg

import (
	"fmt"
	"html/template"
	"strings"
)

// Line renders a multi-series line chart. Empty data renders the placeholder.
func Line(width, height int, series []Series, labels []string, opts LineOpts) (template.HTML, error) {
	if isEmpty(series, labels) {
		return Placeholder(width, height, opts.Title), nil
	}
	if err := checkSeries(series, labels); err != nil {
		return "", err
	}
	minVal, maxVal := seriesBounds(series)
	f, err := newFrame(width, height, opts.Padding, opts.TickCount, opts.AxisColor, opts.GridColor, minVal, maxVal)
	if err != nil {
		return "", err
	}

	step := 0.0
	if len(labels) > 1 {
		step = f.chartWidth / float64(len(labels)-1)
	}
	xAt := func(i int) float64 {
		if len(labels) > 1 {
			return f.padding + float64(i)*step
		}
		return f.padding + f.chartWidth/2
	}

	var b strings.Builder
	f.open(&b, opts.Title, fallback(opts.Description, "Trend data"), "line")
	f.grid(&b)
	f.axes(&b, opts.XAxisLabel, opts.YAxisLabel)

	for si, s := range series {
		color := fallback(s.Color, ColorAt(si))
		var path strings.Builder
		for i, value := range s.Values {
			cmd := " L"
			if i == 0 {
				cmd = "M"
			}
			path.WriteString(fmt.Sprintf("%s%.2f %.2f", cmd, xAt(i), f.y(value)))
		}
		b.WriteString(fmt.Sprintf("<path d=\"%s\" fill=\"none\" stroke=\"%s\" stroke-width=\"2\" stroke-linejoin=\"round\" stroke-linecap=\"round\" aria-label=\"%s\"></path>", path.String(), color, template.HTMLEscapeString(s.Name)))
		if opts.ShowDots {
			for i, value := range s.Values {
				b.WriteString(fmt.Sprintf("<circle cx=\"%.2f\" cy=\"%.2f\" r=\"3\" fill=\"%s\"><title>%s %s: %s</title></circle>", xAt(i), f.y(value), color,
					template.HTMLEscapeString(s.Name), template.HTMLEscapeString(labels[i]), formatTick(value)))
			}
		}
	}

	for i, label := range labels {
		b.WriteString(fmt.Sprintf("<text x=\"%.2f\" y=\"%.2f\" fill=\"%s\" font-size=\"10\" text-anchor=\"middle\">%s</text>", xAt(i), f.bottom()+14, f.axisColor, template.HTMLEscapeString(label)))
	}
	f.legend(&b, series)

	b.WriteString("</svg>")
	return template.HTML(b.String()), nil
}
