package ui

import (
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

// FormatMillions renders a value already expressed in millions, e.g. "$1,234.5M".
func FormatMillions(v float64) string {
	return printer.Sprintf("$%.1fM", v)
}

// FormatPercent renders a percentage value, e.g. 85.34 -> "85.3%".
func FormatPercent(v float64) string {
	return printer.Sprintf("%.1f%%", v)
}

// FormatScore renders a score against its scale, e.g. "72.4/100".
func FormatScore(v float64, scale int) string {
	if scale <= 0 {
		return printer.Sprintf("%.1f", v)
	}
	return printer.Sprintf("%.1f/%d", v, scale)
}

// FormatCount renders a whole number with grouping, e.g. "1,234".
func FormatCount(v float64) string {
	return printer.Sprintf("%d", int64(v+0.5*sign(v)))
}

func sign(v float64) float64 {
	if v < 0 {
		return -1
	}
	return 1
}

// ParseMetricNumber strips everything but digits, '.' and '-' and parses the rest.
// Unparseable input yields 0.
func ParseMetricNumber(raw string) float64 {
	cleaned := strings.Map(func(r rune) rune {
		if (r >= '0' && r <= '9') || r == '.' || r == '-' {
			return r
		}
		return -1
	}, raw)
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0
	}
	return v
}

// TitleCase turns a series key into a display name: "wayne_tech" -> "Wayne Tech".
func TitleCase(key string) string {
	// Casers keep state between calls and cannot be shared across goroutines.
	return cases.Title(language.English).String(strings.Join(strings.Fields(strings.ReplaceAll(key, "_", " ")), " "))
}
