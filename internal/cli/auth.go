package cli

import (
	"fmt"

	"btc-price-alert/internal/notify"

	"github.com/spf13/cobra"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Authorize Gmail access and store the OAuth token",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		err = notify.Authorize(cmd.Context(), notify.GmailConfig{
			CredentialsFile: cfg.Gmail.CredentialsFile,
			TokenFile:       cfg.Gmail.TokenFile,
		}, cmd.OutOrStdout())
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Token saved to %s\n", cfg.Gmail.TokenFile)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(authCmd)
}
