// Package metrics holds the monitor's prometheus collectors and persists
// their totals across restarts.
package metrics

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	log "github.com/sirupsen/logrus"
)

const (
	namespace = "ticket_tracker"
	subsystem = "monitor"
)

// Metrics are the collectors updated by the price monitor.
type Metrics struct {
	CyclesCompleted     prometheus.Counter
	CyclesSkipped       prometheus.Counter
	QuotesFetched       prometheus.Counter
	QuotesMissing       prometheus.Counter
	ItemsFailed         prometheus.Counter
	NotificationsSent   prometheus.Counter
	NotificationsFailed prometheus.Counter
	WatchItems          prometheus.Gauge
}

// Persister stores counter totals between runs.
type Persister interface {
	GetMetric(ctx context.Context, metricName string) (float64, error)
	SaveMetric(ctx context.Context, metricName string, value float64) error
}

func newCounter(name, help string) prometheus.Counter {
	return prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      name,
		Help:      help,
	})
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		CyclesCompleted:     newCounter("cycles_completed", "The total number of completed polling cycles"),
		CyclesSkipped:       newCounter("cycles_skipped", "Ticks skipped because the previous cycle was still running"),
		QuotesFetched:       newCounter("quotes_fetched", "The total number of successful price quotes"),
		QuotesMissing:       newCounter("quotes_missing", "Fetches that produced no usable price"),
		ItemsFailed:         newCounter("items_failed", "Watch items whose processing failed within a cycle"),
		NotificationsSent:   newCounter("notifications_sent", "The total number of delivered price drop notifications"),
		NotificationsFailed: newCounter("notifications_failed", "Price drop notifications that could not be delivered"),
		WatchItems: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "watch_items",
			Help:      "The number of watch items seen by the last cycle",
		}),
	}

	reg.MustRegister(
		m.CyclesCompleted,
		m.CyclesSkipped,
		m.QuotesFetched,
		m.QuotesMissing,
		m.ItemsFailed,
		m.NotificationsSent,
		m.NotificationsFailed,
		m.WatchItems,
	)
	return m
}

func (m *Metrics) counters() map[string]prometheus.Counter {
	return map[string]prometheus.Counter{
		"cycles_completed":     m.CyclesCompleted,
		"cycles_skipped":       m.CyclesSkipped,
		"quotes_fetched":       m.QuotesFetched,
		"quotes_missing":       m.QuotesMissing,
		"items_failed":         m.ItemsFailed,
		"notifications_sent":   m.NotificationsSent,
		"notifications_failed": m.NotificationsFailed,
	}
}

// Load adds the persisted totals to freshly created counters.
func (m *Metrics) Load(ctx context.Context, p Persister) {
	for name, counter := range m.counters() {
		value, err := p.GetMetric(ctx, name)
		if err != nil {
			log.Errorf("Failed to load metric %s: %v", name, err)
			continue
		}
		counter.Add(value)
	}
	log.Info("Metrics loaded from database.")
}

// Save writes the current counter totals.
func (m *Metrics) Save(ctx context.Context, p Persister) {
	for name, counter := range m.counters() {
		if err := p.SaveMetric(ctx, name, Value(counter)); err != nil {
			log.Errorf("Failed to save metric %s: %v", name, err)
		}
	}
	log.Info("Metrics saved to database.")
}

// Value reads the current value of a counter or gauge.
func Value(metric prometheus.Collector) float64 {
	metricChan := make(chan prometheus.Metric, 1)
	metric.Collect(metricChan)
	close(metricChan)

	metricProto := &dto.Metric{}
	if err := (<-metricChan).Write(metricProto); err != nil {
		log.Errorf("Failed to read metric value: %v", err)
		return 0
	}

	if metricProto.Counter != nil {
		return metricProto.Counter.GetValue()
	} else if metricProto.Gauge != nil {
		return metricProto.Gauge.GetValue()
	}
	return 0
}
