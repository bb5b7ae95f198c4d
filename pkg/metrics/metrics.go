package metrics

import (
	"path"
	"sync"
	"time"

	"github.com/nakabonne/tstorage"
)

// Local time-series counters backed by tstorage. When InitMetrics has
// not run (unit tests, tooling) every call is a no-op.

var (
	mu      sync.RWMutex
	storage tstorage.Storage
)

// InitMetrics opens the metrics store under workdir/metrics.
func InitMetrics(workdir string) error {
	s, err := tstorage.NewStorage(
		tstorage.WithDataPath(path.Join(workdir, "metrics")),
		tstorage.WithTimestampPrecision(tstorage.Seconds),
		tstorage.WithPartitionDuration(24*time.Hour),
	)
	if err != nil {
		return err
	}
	mu.Lock()
	storage = s
	mu.Unlock()
	return nil
}

// Incr records one occurrence of the named counter at the current time.
func Incr(name string) {
	Add(name, 1)
}

// Add records value occurrences of the named counter.
func Add(name string, value float64) {
	mu.RLock()
	s := storage
	mu.RUnlock()
	if s == nil {
		return
	}
	_ = s.InsertRows([]tstorage.Row{
		{
			Metric:    name,
			DataPoint: tstorage.DataPoint{Timestamp: time.Now().Unix(), Value: value},
		},
	})
}

// SetGauge records an instantaneous value for the named metric.
func SetGauge(name string, value int64) {
	Add(name, float64(value))
}

// SumSince totals the counter over the trailing window.
func SumSince(name string, window time.Duration) float64 {
	mu.RLock()
	s := storage
	mu.RUnlock()
	if s == nil {
		return 0
	}
	end := time.Now().Unix()
	start := end - int64(window.Seconds())
	points, err := s.Select(name, nil, start, end)
	if err != nil {
		return 0
	}
	var total float64
	for _, p := range points {
		total += p.Value
	}
	return total
}

// Close flushes and closes the metrics store.
func Close() error {
	mu.Lock()
	defer mu.Unlock()
	if storage == nil {
		return nil
	}
	err := storage.Close()
	storage = nil
	return err
}
