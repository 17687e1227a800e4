package metrics

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
)

type memoryPersister map[string]float64

func (p memoryPersister) GetMetric(_ context.Context, name string) (float64, error) {
	return p[name], nil
}

func (p memoryPersister) SaveMetric(_ context.Context, name string, value float64) error {
	p[name] = value
	return nil
}

func TestSaveAndLoad(t *testing.T) {
	ctx := context.Background()
	store := memoryPersister{}

	m := New(prometheus.NewRegistry())
	m.CyclesCompleted.Add(4)
	m.NotificationsSent.Inc()
	m.Save(ctx, store)

	assert.Equal(t, 4.0, store["cycles_completed"])
	assert.Equal(t, 1.0, store["notifications_sent"])
	assert.Equal(t, 0.0, store["items_failed"])

	restored := New(prometheus.NewRegistry())
	restored.Load(ctx, store)
	restored.CyclesCompleted.Inc()

	assert.Equal(t, 5.0, Value(restored.CyclesCompleted))
	assert.Equal(t, 1.0, Value(restored.NotificationsSent))
}

func TestValueReadsGauge(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.WatchItems.Set(3)
	assert.Equal(t, 3.0, Value(m.WatchItems))
}
