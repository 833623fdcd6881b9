package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"btc-price-alert/config"
	"btc-price-alert/internal/alert"
	"btc-price-alert/internal/alertlog"
	"btc-price-alert/internal/database"
	"btc-price-alert/internal/metrics"
	"btc-price-alert/internal/notify"
	"btc-price-alert/internal/price"

	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const metricsSaveInterval = 5 * time.Minute

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Poll the bitcoin price and send alerts until interrupted",
	Example: `  btc-price-alert run --recipient me@example.com --level 30k=30000 --level 25000
  btc-price-alert run --interactive`,
	RunE: runAlerts,
}

func init() {
	f := runCmd.Flags()
	f.Duration("interval", 10*time.Minute, "time between price checks")
	f.Bool("immediate", false, "check the price once at start instead of after the first interval")
	f.Duration("cooldown", 0, "suppress repeated alerts for the same level for this long (0 alerts on every check)")
	f.String("recipient", "", "email address that receives the alerts")
	f.StringSlice("level", nil, "alert level as label=amount or a bare amount, repeatable")
	f.String("log-file", "price_log.txt", "price log file")
	f.String("price-source", "mempool", "price feed: mempool or coinpaprika")
	f.String("db", "", "SQLite database mirroring the alert log and metrics (disabled when empty)")
	f.Int("metrics-port", 9090, "prometheus metrics and health port (0 disables)")
	f.Bool("interactive", false, "prompt for alert levels and the recipient")

	rootCmd.AddCommand(runCmd)
}

func runAlerts(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	if interactive, _ := cmd.Flags().GetBool("interactive"); interactive {
		if err := cfg.Prompt(cmd.InOrStdin(), cmd.OutOrStdout()); err != nil {
			return err
		}
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	levels, err := cfg.AlertLevels()
	if err != nil {
		return err
	}
	if len(levels) == 0 {
		log.Warn("No alert levels configured, prices will be checked but no alert can fire")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	notifier, err := newNotifier(ctx, cfg)
	if err != nil {
		return err
	}

	m := metrics.New(prometheus.DefaultRegisterer)
	alertLog := alertlog.Multi{alertlog.NewFile(cfg.Log.File)}

	var store *database.Store
	if cfg.Database.Path != "" {
		store, err = database.Open(cfg.Database.Path)
		if err != nil {
			return err
		}
		defer store.Close()

		if err := m.Load(ctx, store); err != nil {
			return err
		}
		alertLog = append(alertLog, store)
	}

	scheduler := alert.New(alert.Config{
		Interval:  cfg.Interval,
		Levels:    levels,
		Recipient: cfg.Recipient,
		Cooldown:  cfg.Cooldown,
		Immediate: cfg.Immediate,
	}, newPriceSource(cfg), notifier, alertLog, m, log.StandardLogger())

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return scheduler.Run(gctx)
	})
	if cfg.Metrics.Port > 0 {
		g.Go(func() error {
			return metrics.Serve(gctx, cfg.Metrics.Port, prometheus.DefaultGatherer)
		})
	}
	if store != nil {
		g.Go(func() error {
			return m.Persist(gctx, store, metricsSaveInterval)
		})
	}

	fmt.Fprintln(cmd.OutOrStdout(), "Price tracking started. Press Ctrl+C to stop.")
	return g.Wait()
}

func newPriceSource(cfg *config.Config) price.Source {
	if cfg.Price.Source == "coinpaprika" {
		return price.NewCoinpaprika(cfg.Price.CoinID, cfg.Price.APIProKey, nil, cfg.Price.Timeout)
	}
	return price.NewMempool(cfg.Price.URL, cfg.Price.Timeout)
}

func newNotifier(ctx context.Context, cfg *config.Config) (notify.Notifier, error) {
	var notifiers notify.Multi

	if cfg.Gmail.Enabled {
		g, err := notify.NewGmail(ctx, notify.GmailConfig{
			CredentialsFile: cfg.Gmail.CredentialsFile,
			TokenFile:       cfg.Gmail.TokenFile,
		}, log.StandardLogger())
		if err != nil {
			return nil, &config.ConfigurationError{Field: "gmail", Reason: err.Error()}
		}
		notifiers = append(notifiers, g)
	}

	if cfg.Telegram.Enabled {
		tg, err := notify.NewTelegram(notify.TelegramConfig{
			Token:  cfg.Telegram.Token,
			ChatID: cfg.Telegram.ChatID,
			Debug:  cfg.Telegram.Debug,
		})
		if err != nil {
			return nil, &config.ConfigurationError{Field: "telegram", Reason: err.Error()}
		}
		notifiers = append(notifiers, tg)
	}

	if len(notifiers) == 0 {
		log.Warn("No notifier enabled, alerts will only be written to the price log")
	}
	return notifiers, nil
}
