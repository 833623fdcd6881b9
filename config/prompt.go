package config

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

const (
	levelPrompt     = `Enter a price level in USD to set an alert or type "done" to finish: `
	invalidLevel    = "Invalid price level. Please enter a numeric value."
	recipientPrompt = "Enter your email address, where you will receive the alerts: "
)

// Prompt asks for alert levels until "done" and then for the recipient address.
// Each level is labelled with the text typed for it. The results replace Levels and Recipient.
func (c *Config) Prompt(in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)

	fmt.Fprintln(out, "Setup your price alerts:")

	var levels []string
	for {
		fmt.Fprint(out, levelPrompt)
		if !scanner.Scan() {
			return &ConfigurationError{Field: "levels", Reason: "input ended before \"done\""}
		}

		text := strings.TrimSpace(scanner.Text())
		if strings.EqualFold(text, "done") {
			break
		}

		amount, err := strconv.ParseFloat(text, 64)
		if err != nil || math.IsNaN(amount) || math.IsInf(amount, 0) || amount < 0 {
			fmt.Fprintln(out, invalidLevel)
			continue
		}
		levels = append(levels, text+"="+strconv.FormatFloat(amount, 'f', -1, 64))
	}

	fmt.Fprint(out, recipientPrompt)
	if !scanner.Scan() {
		return &ConfigurationError{Field: "recipient", Reason: "input ended before an address was entered"}
	}

	c.Levels = levels
	c.Recipient = strings.TrimSpace(scanner.Text())
	return nil
}
