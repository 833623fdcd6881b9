package cli

import (
	"fmt"

	"btc-price-alert/internal/alert"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Fetch the price once and show which level would alert, without notifying",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		levels, err := cfg.AlertLevels()
		if err != nil {
			return err
		}

		p, err := newPriceSource(cfg).Fetch(cmd.Context())
		if err != nil {
			return &alert.FetchError{Err: err}
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Current Bitcoin price: $%s\n", humanize.CommafWithDigits(p, 2))

		level, ok := alert.Evaluate(p, levels)
		if !ok {
			fmt.Fprintf(out, "No alert level matched (%d configured)\n", len(levels))
			return nil
		}
		fmt.Fprintf(out, "Would alert: %s\n%s\n", alert.Subject(level), alert.Body(level, p))
		return nil
	},
}

func init() {
	checkCmd.Flags().StringSlice("level", nil, "alert level as label=amount or a bare amount, repeatable")
	checkCmd.Flags().String("price-source", "mempool", "price feed: mempool or coinpaprika")
	rootCmd.AddCommand(checkCmd)
}
