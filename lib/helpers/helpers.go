package helpers

import (
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// FormatPrice renders a price the way it appears in alert emails and the price log:
// shortest round-trip digits, with ".0" kept on integral values (30000 -> "30000.0").
func FormatPrice(price float64) string {
	formatted := strconv.FormatFloat(price, 'f', -1, 64)
	if math.IsInf(price, 0) || math.IsNaN(price) {
		return formatted
	}
	if !strings.Contains(formatted, ".") {
		formatted += ".0"
	}
	return formatted
}

// FormatPriceUS renders a price with US thousand separators for console output.
func FormatPriceUS(price float64) string {
	decimals := 6

	if price > 1.2 {
		decimals = 2
	} else if price < 0.00001 {
		decimals = 8
	}

	p := message.NewPrinter(language.English)
	return p.Sprintf("%.*f", decimals, price)
}
