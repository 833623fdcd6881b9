package config

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"btc-price-alert/internal/types"

	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/multierr"
)

// EnvPrefix prefixes every environment variable, e.g. BTC_ALERT_RECIPIENT
const EnvPrefix = "BTC_ALERT"

// Config holds all alert service configuration
type Config struct {
	Interval  time.Duration `mapstructure:"interval"`
	Immediate bool          `mapstructure:"immediate"`
	Cooldown  time.Duration `mapstructure:"cooldown"`
	Recipient string        `mapstructure:"recipient"`
	// Levels are "label=amount" or a bare amount, which is also used as the label.
	Levels []string `mapstructure:"levels"`

	Log      LogConfig      `mapstructure:"log"`
	Price    PriceConfig    `mapstructure:"price"`
	Gmail    GmailConfig    `mapstructure:"gmail"`
	Telegram TelegramConfig `mapstructure:"telegram"`
	Database DatabaseConfig `mapstructure:"database"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
}

// LogConfig defines logging and the price log file
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	File   string `mapstructure:"file"`
}

// PriceConfig selects the price feed
type PriceConfig struct {
	Source    string        `mapstructure:"source"`
	URL       string        `mapstructure:"url"`
	CoinID    string        `mapstructure:"coin_id"`
	APIProKey string        `mapstructure:"api_pro_key"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

// GmailConfig defines the Gmail API notifier
type GmailConfig struct {
	Enabled         bool   `mapstructure:"enabled"`
	CredentialsFile string `mapstructure:"credentials_file"`
	TokenFile       string `mapstructure:"token_file"`
}

// TelegramConfig defines the optional telegram notifier
type TelegramConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Token   string `mapstructure:"token"`
	ChatID  int64  `mapstructure:"chat_id"`
	Debug   bool   `mapstructure:"debug"`
}

// DatabaseConfig enables the SQLite alert mirror when Path is set
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// MetricsConfig defines the prometheus endpoint, 0 disables it
type MetricsConfig struct {
	Port int `mapstructure:"port"`
}

// ConfigurationError is returned for invalid or missing settings
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid configuration %s: %s", e.Field, e.Reason)
}

var flagKeys = map[string]string{
	"interval":     "interval",
	"immediate":    "immediate",
	"cooldown":     "cooldown",
	"recipient":    "recipient",
	"level":        "levels",
	"log-level":    "log.level",
	"log-format":   "log.format",
	"log-file":     "log.file",
	"price-source": "price.source",
	"db":           "database.path",
	"metrics-port": "metrics.port",
}

// Load reads configuration from the optional file, BTC_ALERT_* environment variables
// and flags, in increasing order of precedence. flags may be nil.
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	v.SetDefault("interval", "10m")
	v.SetDefault("immediate", false)
	v.SetDefault("cooldown", "0s")
	v.SetDefault("recipient", "")
	v.SetDefault("levels", []string{})
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.file", "price_log.txt")
	v.SetDefault("price.source", "mempool")
	v.SetDefault("price.url", "https://mempool.space/api/v1/prices")
	v.SetDefault("price.coin_id", "btc-bitcoin")
	v.SetDefault("price.api_pro_key", "")
	v.SetDefault("price.timeout", "30s")
	v.SetDefault("gmail.enabled", true)
	v.SetDefault("gmail.credentials_file", "credentials.json")
	v.SetDefault("gmail.token_file", "token.json")
	v.SetDefault("telegram.enabled", false)
	v.SetDefault("telegram.token", "")
	v.SetDefault("telegram.chat_id", 0)
	v.SetDefault("telegram.debug", false)
	v.SetDefault("database.path", "")
	v.SetDefault("metrics.port", 9090)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, errors.Wrapf(err, "bind flag %s", name)
				}
			}
		}
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, errors.Wrap(err, "read config")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "unmarshal config")
	}

	return &cfg, nil
}

// ParseLevel parses "label=amount" or a bare amount
func ParseLevel(s string) (types.Level, error) {
	s = strings.TrimSpace(s)
	label, amountText := s, s
	if i := strings.LastIndex(s, "="); i >= 0 {
		label, amountText = strings.TrimSpace(s[:i]), strings.TrimSpace(s[i+1:])
	}
	if label == "" {
		return types.Level{}, errors.Errorf("level %q has no label", s)
	}

	amount, err := strconv.ParseFloat(amountText, 64)
	if err != nil {
		return types.Level{}, errors.Errorf("level %q is not a numeric amount", s)
	}
	if math.IsNaN(amount) || math.IsInf(amount, 0) || amount < 0 {
		return types.Level{}, errors.Errorf("level %q must be a non-negative amount", s)
	}

	return types.Level{Label: label, Amount: amount}, nil
}

// AlertLevels parses Levels in configuration order
func (c *Config) AlertLevels() (types.Levels, error) {
	var levels types.Levels
	for _, s := range c.Levels {
		level, err := ParseLevel(s)
		if err != nil {
			return nil, &ConfigurationError{Field: "levels", Reason: err.Error()}
		}
		levels = levels.Add(level.Label, level.Amount)
	}
	return levels, nil
}

// Validate checks the settings needed before polling starts
func (c *Config) Validate() error {
	var err error

	if c.Interval <= 0 {
		err = multierr.Append(err, &ConfigurationError{Field: "interval", Reason: "must be positive"})
	}
	if c.Cooldown < 0 {
		err = multierr.Append(err, &ConfigurationError{Field: "cooldown", Reason: "must not be negative"})
	}
	if strings.TrimSpace(c.Recipient) == "" {
		err = multierr.Append(err, &ConfigurationError{Field: "recipient", Reason: "is required"})
	}
	if _, levelErr := c.AlertLevels(); levelErr != nil {
		err = multierr.Append(err, levelErr)
	}

	switch c.Price.Source {
	case "mempool", "coinpaprika":
	default:
		err = multierr.Append(err, &ConfigurationError{Field: "price.source", Reason: fmt.Sprintf("unknown source %q", c.Price.Source)})
	}

	if c.Telegram.Enabled && (c.Telegram.Token == "" || c.Telegram.ChatID == 0) {
		err = multierr.Append(err, &ConfigurationError{Field: "telegram", Reason: "token and chat_id are required"})
	}

	return err
}
