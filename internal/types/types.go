package types

import (
	"fmt"
	"time"

	"btc-price-alert/lib/helpers"
)

// Level is a user-defined alert threshold in USD
type Level struct {
	Label  string  `json:"label"`
	Amount float64 `json:"amount"`
}

// Levels keeps alert levels in the order they were configured
type Levels []Level

// Add appends a level. Re-adding an existing label updates its amount but keeps its position.
func (l Levels) Add(label string, amount float64) Levels {
	for i := range l {
		if l[i].Label == label {
			l[i].Amount = amount
			return l
		}
	}
	return append(l, Level{Label: label, Amount: amount})
}

// Entry is one record of the alert log
type Entry struct {
	ID    string    `json:"id"`
	Price float64   `json:"price"`
	Info  string    `json:"info"`
	At    time.Time `json:"at"`
}

// String renders the entry as a price log line, including the trailing newline.
func (e Entry) String() string {
	return fmt.Sprintf("Price: $%s, Alert Info: %s\n", helpers.FormatPrice(e.Price), e.Info)
}
