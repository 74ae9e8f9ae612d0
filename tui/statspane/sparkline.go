package statspane

import "strings"

// sparkChars provides 8-level vertical resolution
var sparkChars = []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

// Sparkline renders the last width values as block characters. The range
// auto-scales to the data when lo and hi are both 0. Short series are padded
// on the right with the lowest block.
func Sparkline(values []float64, width int, lo, hi float64) string {
	if width <= 0 {
		return ""
	}
	if len(values) > width {
		values = values[len(values)-width:]
	}

	if lo == 0 && hi == 0 && len(values) > 0 {
		lo, hi = values[0], values[0]
		for _, v := range values {
			if v < lo {
				lo = v
			}
			if v > hi {
				hi = v
			}
		}
	}
	span := hi - lo
	if span == 0 {
		span = 1
	}

	var b strings.Builder
	for _, v := range values {
		norm := (v - lo) / span
		if norm < 0 {
			norm = 0
		}
		if norm > 1 {
			norm = 1
		}
		idx := int(norm * 7.99)
		if idx > 7 {
			idx = 7
		}
		b.WriteRune(sparkChars[idx])
	}
	for i := len(values); i < width; i++ {
		b.WriteRune(sparkChars[0])
	}
	return b.String()
}
