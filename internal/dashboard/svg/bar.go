package svg

import (
	"fmt"
	"html/template"
	"math"
	"strings"
)

// Bars renders grouped or stacked bars, one group per label. Empty data renders
// the placeholder.
func Bars(width, height int, series []Series, labels []string, opts BarOpts) (template.HTML, error) {
	if isEmpty(series, labels) {
		return Placeholder(width, height, opts.Title), nil
	}
	if err := checkSeries(series, labels); err != nil {
		return "", err
	}
	minVal, maxVal := seriesBounds(series)
	if opts.Stacked {
		minVal, maxVal = stackedBounds(series, len(labels))
	}
	f, err := newFrame(width, height, opts.Padding, opts.TickCount, opts.AxisColor, opts.GridColor, minVal, maxVal)
	if err != nil {
		return "", err
	}

	groupWidth := f.chartWidth / float64(len(labels))
	barWidth := groupWidth * 0.7
	if !opts.Stacked {
		barWidth /= float64(len(series))
	}
	if opts.BarSize > 0 && barWidth > opts.BarSize {
		barWidth = opts.BarSize
	}

	var b strings.Builder
	f.open(&b, opts.Title, fallback(opts.Description, "Bar comparison"), "bar")
	f.grid(&b)

	zeroY := f.y(0)
	for i, label := range labels {
		center := f.padding + float64(i)*groupWidth + groupWidth/2
		if opts.Stacked {
			posBase, negBase := 0.0, 0.0
			x := center - barWidth/2
			for si, s := range series {
				value := s.Values[i]
				var top, bottom float64
				if value >= 0 {
					top, bottom = f.y(posBase+value), f.y(posBase)
					posBase += value
				} else {
					top, bottom = f.y(negBase), f.y(negBase+value)
					negBase += value
				}
				writeRect(&b, x, top, barWidth, bottom-top, fallback(s.Color, ColorAt(si)), s.Name, label, value)
			}
		} else {
			start := center - barWidth*float64(len(series))/2
			for si, s := range series {
				value := s.Values[i]
				top, h := zeroY-value*f.scale, value*f.scale
				if value < 0 {
					top, h = zeroY, math.Abs(value*f.scale)
				}
				writeRect(&b, start+float64(si)*barWidth, top, barWidth, h, fallback(s.Color, ColorAt(si)), s.Name, label, value)
			}
		}
		b.WriteString(fmt.Sprintf("<text x=\"%.2f\" y=\"%.2f\" fill=\"%s\" font-size=\"10\" text-anchor=\"middle\">%s</text>", center, f.bottom()+14, f.axisColor, template.HTMLEscapeString(label)))
	}

	f.axes(&b, opts.XAxisLabel, opts.YAxisLabel)
	f.legend(&b, series)

	b.WriteString("</svg>")
	return template.HTML(b.String()), nil
}

func writeRect(b *strings.Builder, x, y, width, height float64, color, name, label string, value float64) {
	if height < 0 {
		height = 0
	}
	b.WriteString(fmt.Sprintf("<rect x=\"%.2f\" y=\"%.2f\" width=\"%.2f\" height=\"%.2f\" fill=\"%s\" aria-label=\"%s %s\"><title>%s %s: %s</title></rect>",
		x, y, width, height, color,
		template.HTMLEscapeString(name), template.HTMLEscapeString(label),
		template.HTMLEscapeString(name), template.HTMLEscapeString(label), formatTick(value)))
}

func stackedBounds(series []Series, n int) (float64, float64) {
	minVal, maxVal := 0.0, 0.0
	for i := 0; i < n; i++ {
		pos, neg := 0.0, 0.0
		for _, s := range series {
			if s.Values[i] >= 0 {
				pos += s.Values[i]
			} else {
				neg += s.Values[i]
			}
		}
		maxVal = math.Max(maxVal, pos)
		minVal = math.Min(minVal, neg)
	}
	return minVal, maxVal
}
