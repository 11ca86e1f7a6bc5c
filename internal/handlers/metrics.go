package handlers

import "sync/atomic"

var (
	metricRequestsTotal   uint64
	metricRequestsFailed  uint64
	metricRequestLatencyN uint64
	metricPanics          uint64
	metricProductsCreated uint64
)

func snapshotMetrics() map[string]any {
	total := atomic.LoadUint64(&metricRequestsTotal)
	failed := atomic.LoadUint64(&metricRequestsFailed)
	latencySum := atomic.LoadUint64(&metricRequestLatencyN)
	avgMs := 0.0
	if total > 0 {
		avgMs = float64(latencySum) / float64(total)
	}
	return map[string]any{
		"requestsTotal":   total,
		"requestsFailed":  failed,
		"avgLatencyMs":    avgMs,
		"panics":          atomic.LoadUint64(&metricPanics),
		"productsCreated": atomic.LoadUint64(&metricProductsCreated),
	}
}
