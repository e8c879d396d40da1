package fieldmap

import (
	"strconv"
	"strings"
)

// ParseAmount extracts a number from a payment value such as "€ 12,50" or
// "$10.00". Everything except digits, "." and "," is dropped, "," becomes
// ".", and the longest parseable prefix wins. Grouping separators are not
// removed: "€ 1.234,50" gives 1.234. No number gives 0.
func ParseAmount(s string) float64 {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9', r == '.':
			b.WriteRune(r)
		case r == ',':
			b.WriteRune('.')
		}
	}
	cleaned := b.String()

	for end := len(cleaned); end > 0; end-- {
		if v, err := strconv.ParseFloat(cleaned[:end], 64); err == nil {
			return v
		}
	}
	return 0
}
