package alert

import (
	"context"
	"time"

	"btc-price-alert/internal/alertlog"
	"btc-price-alert/internal/metrics"
	"btc-price-alert/internal/notify"
	"btc-price-alert/internal/price"
	"btc-price-alert/internal/types"
	"btc-price-alert/lib/helpers"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"go.uber.org/multierr"
)

// Config holds scheduler configuration. Levels and Recipient are fixed for the lifetime of a run.
type Config struct {
	Interval  time.Duration
	Levels    types.Levels
	Recipient string
	// Cooldown suppresses repeated alerts for the same level. Zero re-alerts on every tick.
	Cooldown time.Duration
	// Immediate runs the first tick at start instead of after one interval.
	Immediate bool
}

// Scheduler polls the price source on a fixed interval and fires alerts for matched levels
type Scheduler struct {
	cfg      Config
	source   price.Source
	notifier notify.Notifier
	alertLog alertlog.Log
	metrics  *metrics.Metrics
	logger   log.FieldLogger

	now       func() time.Time
	lastFired map[string]time.Time
}

// New creates a scheduler. A nil m or logger falls back to unregistered metrics and the standard logger.
func New(cfg Config, source price.Source, notifier notify.Notifier, alertLog alertlog.Log, m *metrics.Metrics, logger log.FieldLogger) *Scheduler {
	if m == nil {
		m = metrics.New(nil)
	}
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Scheduler{
		cfg:       cfg,
		source:    source,
		notifier:  notifier,
		alertLog:  alertLog,
		metrics:   m,
		logger:    logger,
		now:       time.Now,
		lastFired: make(map[string]time.Time),
	}
}

// Run ticks every Interval until ctx is cancelled. The wait starts after the previous tick
// completes. Tick failures are reported and never stop the loop; a tick in flight when ctx
// is cancelled runs to completion.
func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.WithFields(log.Fields{
		"interval": s.cfg.Interval,
		"levels":   len(s.cfg.Levels),
	}).Info("🚀 Price tracking started.")

	tickCtx := context.WithoutCancel(ctx)
	if s.cfg.Immediate {
		_ = s.Tick(tickCtx)
	}

	timer := time.NewTimer(s.cfg.Interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Price tracking stopped.")
			return nil
		case <-timer.C:
		}

		_ = s.Tick(tickCtx)
		timer.Reset(s.cfg.Interval)
	}
}

// Tick runs one fetch, evaluate, notify, log cycle. Failures are reported to the logger and
// metrics and also returned: *FetchError abandons the tick, *SendError and *WriteError are
// combined since the log entry is written even when sending fails.
func (s *Scheduler) Tick(ctx context.Context) (err error) {
	defer s.metrics.Ticks.Inc()
	defer func() {
		if r := recover(); r != nil {
			s.logger.Errorf("🔥 Panic recovered in alert tick: %v", r)
			err = errors.Errorf("panic in alert tick: %v", r)
		}
	}()

	p, fetchErr := s.source.Fetch(ctx)
	if fetchErr != nil {
		s.metrics.FetchFailures.Inc()
		s.logger.WithError(fetchErr).Error("❌ Failed to fetch bitcoin price")
		return &FetchError{Err: fetchErr}
	}

	s.metrics.LastPrice.Set(p)
	s.logger.WithField("price", p).Infof("Current Bitcoin price: $%s", helpers.FormatPriceUS(p))

	level, ok := Evaluate(p, s.cfg.Levels)
	if !ok {
		return nil
	}

	fields := log.Fields{"price": p, "level": level.Label, "amount": level.Amount}
	if s.suppressed(level) {
		s.metrics.AlertsSuppressed.Inc()
		s.logger.WithFields(fields).Debug("Alert suppressed by cooldown")
		return nil
	}

	s.metrics.AlertsFired.Inc()
	s.logger.WithFields(fields).Warn("🚨 Price alert triggered")

	msg := notify.Message{
		Subject:   Subject(level),
		Body:      Body(level, p),
		Recipient: s.cfg.Recipient,
	}
	if sendErr := s.notifier.Send(ctx, msg); sendErr != nil {
		s.metrics.SendFailures.Inc()
		s.logger.WithFields(fields).WithError(sendErr).Error("❌ Failed to send alert notification")
		err = multierr.Append(err, &SendError{Err: sendErr})
	} else {
		s.logger.WithFields(fields).Info("✅ Alert notification sent")
	}

	entry := types.Entry{
		ID:    uuid.NewString(),
		Price: p,
		Info:  Info(level),
		At:    s.now(),
	}
	if writeErr := s.alertLog.Append(ctx, entry); writeErr != nil {
		s.metrics.WriteFailures.Inc()
		s.logger.WithFields(fields).WithError(writeErr).Error("❌ Failed to write alert log")
		err = multierr.Append(err, &WriteError{Err: writeErr})
	}

	return err
}

func (s *Scheduler) suppressed(level types.Level) bool {
	if s.cfg.Cooldown <= 0 {
		return false
	}

	now := s.now()
	if last, ok := s.lastFired[level.Label]; ok && now.Sub(last) < s.cfg.Cooldown {
		return true
	}
	s.lastFired[level.Label] = now
	return false
}
