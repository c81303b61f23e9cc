package utils

import (
	"sync"
	"time"
)

// MetricsCollector tracks request counts and per-operation latencies
// across the engine. Safe for concurrent use.
type MetricsCollector struct {
	mu           sync.RWMutex
	requestCount uint64
	errorCount   uint64

	// Maps operation name to list of latencies in nanoseconds
	operationTimes map[string][]int64

	systemStartTime time.Time
}

func NewMetricsCollector() *MetricsCollector {
	return &MetricsCollector{
		operationTimes:  make(map[string][]int64),
		systemStartTime: time.Now(),
	}
}

func (mc *MetricsCollector) IncrementRequests() {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	mc.requestCount++
}

func (mc *MetricsCollector) IncrementErrors() {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	mc.errorCount++
}

func (mc *MetricsCollector) AddOperationLatency(operationName string, duration time.Duration) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	if _, exists := mc.operationTimes[operationName]; !exists {
		mc.operationTimes[operationName] = make([]int64, 0)
	}
	mc.operationTimes[operationName] = append(
		mc.operationTimes[operationName],
		duration.Nanoseconds(),
	)
}

// OperationStats is a point-in-time latency summary for one operation.
type OperationStats struct {
	Count     int           `json:"count"`
	AvgMillis float64       `json:"avgMillis"`
	Max       time.Duration `json:"-"`
}

// Snapshot returns per-operation stats plus uptime, for the health
// endpoint.
func (mc *MetricsCollector) Snapshot() (map[string]OperationStats, time.Duration) {
	mc.mu.RLock()
	defer mc.mu.RUnlock()

	stats := make(map[string]OperationStats, len(mc.operationTimes))
	for op, times := range mc.operationTimes {
		var total, max int64
		for _, t := range times {
			total += t
			if t > max {
				max = t
			}
		}
		s := OperationStats{Count: len(times), Max: time.Duration(max)}
		if len(times) > 0 {
			s.AvgMillis = float64(total) / float64(len(times)) / 1e6
		}
		stats[op] = s
	}
	return stats, time.Since(mc.systemStartTime)
}
