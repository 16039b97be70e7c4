package utils

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// DisplayDateFormat is the date layout used on the cover sheet title line.
const DisplayDateFormat = "02-Jan-2006"

// Money renders a monetary value as #,##0.00 with no currency symbol.
// Unknown values (NaN) render as an empty string, never as 0.00.
func Money(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return ""
	}
	s := strconv.FormatFloat(v, 'f', 2, 64)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	intPart, fracPart, _ := strings.Cut(s, ".")
	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	lead := len(intPart) % 3
	if lead > 0 {
		b.WriteString(intPart[:lead])
		if len(intPart) > lead {
			b.WriteByte(',')
		}
	}
	for i := lead; i < len(intPart); i += 3 {
		b.WriteString(intPart[i : i+3])
		if i+3 < len(intPart) {
			b.WriteByte(',')
		}
	}
	b.WriteByte('.')
	b.WriteString(fracPart)
	return b.String()
}

// Pct renders a fractional rate as 0.0000% (e.g. 0.055 -> "5.5000%").
func Pct(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return ""
	}
	return fmt.Sprintf("%.4f%%", v*100)
}

// FormatDate renders a date for display, empty for the zero time.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(DisplayDateFormat)
}
