package svg

import (
	"fmt"
	"html/template"
	"math"
	"strings"
)

// Pie renders each slice as a share of the total. Empty or all-zero data renders
// the placeholder; negative values are ignored.
func Pie(width, height int, slices []Slice, opts PieOpts) (template.HTML, error) {
	total := 0.0
	for _, s := range slices {
		if s.Value > 0 {
			total += s.Value
		}
	}
	if len(slices) == 0 || almostEqual(total, 0) {
		return Placeholder(width, height, opts.Title), nil
	}
	if width <= 0 {
		width = DefaultWidth
	}
	if height <= 0 {
		height = DefaultHeight
	}
	padding := opts.Padding
	if padding <= 0 {
		padding = DefaultPadding / 2
	}
	labelColor := fallback(opts.LabelColor, "#475569")
	radius := math.Min(float64(width)/2, float64(height)) / 2
	radius -= padding
	if radius <= 0 {
		return "", fmt.Errorf("svg: viewport too small")
	}
	cx := padding + radius
	cy := float64(height) / 2

	titleID := makeID(opts.Title, "pie-title")
	descID := makeID(opts.Title, "pie-desc")

	var b strings.Builder
	b.WriteString(fmt.Sprintf("<svg xmlns=\"http://www.w3.org/2000/svg\" viewBox=\"0 0 %d %d\" role=\"img\" aria-labelledby=\"%s %s\">", width, height, titleID, descID))
	b.WriteString(fmt.Sprintf("<title id=\"%s\">%s</title>", titleID, template.HTMLEscapeString(fallback(opts.Title, "Pie chart"))))
	b.WriteString(fmt.Sprintf("<desc id=\"%s\">%s</desc>", descID, template.HTMLEscapeString(fallback(opts.Description, "Share of total"))))

	angle := -math.Pi / 2
	legendX := cx + radius + padding
	legendY := cy - float64(len(slices))*9
	for i, s := range slices {
		if s.Value <= 0 {
			continue
		}
		color := fallback(s.Color, ColorAt(i))
		share := s.Value / total
		label := fmt.Sprintf("%s: %.1f%%", s.Label, share*100)
		if almostEqual(share, 1) {
			b.WriteString(fmt.Sprintf("<circle cx=\"%.2f\" cy=\"%.2f\" r=\"%.2f\" fill=\"%s\"><title>%s</title></circle>", cx, cy, radius, color, template.HTMLEscapeString(label)))
		} else {
			end := angle + share*2*math.Pi
			large := 0
			if share > 0.5 {
				large = 1
			}
			x1, y1 := cx+radius*math.Cos(angle), cy+radius*math.Sin(angle)
			x2, y2 := cx+radius*math.Cos(end), cy+radius*math.Sin(end)
			b.WriteString(fmt.Sprintf("<path d=\"M%.2f %.2f L%.2f %.2f A%.2f %.2f 0 %d 1 %.2f %.2f Z\" fill=\"%s\" stroke=\"#ffffff\" stroke-width=\"1\"><title>%s</title></path>",
				cx, cy, x1, y1, radius, radius, large, x2, y2, color, template.HTMLEscapeString(label)))
			angle = end
		}
		b.WriteString(fmt.Sprintf("<rect x=\"%.2f\" y=\"%.2f\" width=\"10\" height=\"10\" fill=\"%s\"></rect>", legendX, legendY-8, color))
		b.WriteString(fmt.Sprintf("<text x=\"%.2f\" y=\"%.2f\" fill=\"%s\" font-size=\"11\" text-anchor=\"start\">%s</text>", legendX+14, legendY, labelColor, template.HTMLEscapeString(label)))
		legendY += 18
	}

	b.WriteString("</svg>")
	return template.HTML(b.String()), nil
}
