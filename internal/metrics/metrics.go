package metrics

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	dto "github.com/prometheus/client_model/go"
	log "github.com/sirupsen/logrus"
)

const (
	namespace = "btc_price_alert"
	subsystem = "scheduler"
)

// Metrics scheduler counters exported to prometheus
type Metrics struct {
	Ticks            prometheus.Counter
	FetchFailures    prometheus.Counter
	AlertsFired      prometheus.Counter
	AlertsSuppressed prometheus.Counter
	SendFailures     prometheus.Counter
	WriteFailures    prometheus.Counter
	LastPrice        prometheus.Gauge
}

// Store persists counter values between runs
type Store interface {
	SaveMetric(ctx context.Context, name string, value float64) error
	GetMetric(ctx context.Context, name string) (float64, error)
}

func newCounter(name, help string) prometheus.Counter {
	return prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      name,
		Help:      help,
	})
}

// New creates the scheduler metrics and registers them with reg. A nil reg skips registration.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Ticks:            newCounter("ticks_total", "The total number of completed polling ticks"),
		FetchFailures:    newCounter("fetch_failures_total", "The total number of failed price fetches"),
		AlertsFired:      newCounter("alerts_fired_total", "The total number of alerts that matched a level"),
		AlertsSuppressed: newCounter("alerts_suppressed_total", "The total number of matches suppressed by the cooldown"),
		SendFailures:     newCounter("send_failures_total", "The total number of failed notification attempts"),
		WriteFailures:    newCounter("write_failures_total", "The total number of failed alert log appends"),
		LastPrice: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "last_price_usd",
			Help:      "The most recently fetched bitcoin price in USD",
		}),
	}

	if reg != nil {
		reg.MustRegister(m.Ticks, m.FetchFailures, m.AlertsFired, m.AlertsSuppressed,
			m.SendFailures, m.WriteFailures, m.LastPrice)
	}
	return m
}

func (m *Metrics) counters() map[string]prometheus.Counter {
	return map[string]prometheus.Counter{
		"ticks_total":             m.Ticks,
		"fetch_failures_total":    m.FetchFailures,
		"alerts_fired_total":      m.AlertsFired,
		"alerts_suppressed_total": m.AlertsSuppressed,
		"send_failures_total":     m.SendFailures,
		"write_failures_total":    m.WriteFailures,
	}
}

// Load adds the persisted counter values. Call it once, before the scheduler starts.
func (m *Metrics) Load(ctx context.Context, store Store) error {
	for name, c := range m.counters() {
		v, err := store.GetMetric(ctx, name)
		if err != nil {
			return err
		}
		c.Add(v)
	}
	log.Debug("Metrics loaded from database.")
	return nil
}

// Save writes the current counter values
func (m *Metrics) Save(ctx context.Context, store Store) error {
	for name, c := range m.counters() {
		if err := store.SaveMetric(ctx, name, GetMetricValue(c)); err != nil {
			return err
		}
	}
	log.Debug("Metrics saved to database.")
	return nil
}

// Persist saves the counters every interval and once more when ctx is done
func (m *Metrics) Persist(ctx context.Context, store Store, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return m.Save(context.Background(), store)
		case <-ticker.C:
			if err := m.Save(ctx, store); err != nil {
				log.Errorf("Failed to save metrics: %v", err)
			}
		}
	}
}

// GetMetricValue reads the current value of a single counter or gauge
func GetMetricValue(metric prometheus.Collector) float64 {
	var metricValue float64
	metricChan := make(chan prometheus.Metric, 1)
	metric.Collect(metricChan)
	close(metricChan)

	metricProto := &dto.Metric{}
	if err := (<-metricChan).Write(metricProto); err != nil {
		log.Errorf("Failed to read metric value: %v", err)
		return 0
	}

	if metricProto.Counter != nil {
		metricValue = metricProto.Counter.GetValue()
	} else if metricProto.Gauge != nil {
		metricValue = metricProto.Gauge.GetValue()
	}
	return metricValue
}

func healthCheckHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

// Handler serves /metrics from gatherer and /health
func Handler(gatherer prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	mux.HandleFunc("/health", healthCheckHandler)
	return mux
}

// Serve runs the metrics and health endpoint until ctx is done
func Serve(ctx context.Context, port int, gatherer prometheus.Gatherer) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           Handler(gatherer),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("Launching metrics and health endpoint on :%d", port)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return errors.Wrap(err, "metrics server stopped")
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
