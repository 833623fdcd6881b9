package alert

import (
	"fmt"

	"btc-price-alert/internal/types"
	"btc-price-alert/lib/helpers"
)

// Evaluate returns the first configured level whose amount is strictly above price.
// Levels are checked in configuration order, so at most one level matches per price.
func Evaluate(price float64, levels types.Levels) (types.Level, bool) {
	for _, level := range levels {
		if price < level.Amount {
			return level, true
		}
	}
	return types.Level{}, false
}

// Subject is the notification subject for a matched level
func Subject(level types.Level) string {
	return fmt.Sprintf("Price Alert: Bitcoin Price Below %s Level", level.Label)
}

// Body is the notification body for a matched level
func Body(level types.Level, price float64) string {
	return fmt.Sprintf("Bitcoin price has dropped below the set level for %s. Current price: $%s. Alert Level: $%s.",
		level.Label, helpers.FormatPrice(price), helpers.FormatPrice(level.Amount))
}

// Info describes the matched level in the alert log
func Info(level types.Level) string {
	return fmt.Sprintf("Alert for %s level at %s", level.Label, helpers.FormatPrice(level.Amount))
}
