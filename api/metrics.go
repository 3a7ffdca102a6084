package api

import (
	"regexp"
	"sync"
	"time"
)

// RouteMetrics aggregates request metrics for a specific route
type RouteMetrics struct {
	Method      string        `json:"method"`
	Path        string        `json:"path"`
	Count       int64         `json:"count"`
	ErrorCount  int64         `json:"errorCount"`
	TotalTime   time.Duration `json:"totalTime"`
	AvgTime     time.Duration `json:"avgTime"`
	MinTime     time.Duration `json:"minTime"`
	MaxTime     time.Duration `json:"maxTime"`
	LastRequest time.Time     `json:"lastRequest"`
}

// MetricsCollector collects and aggregates request metrics. Recording is
// best-effort and never blocks a request.
type MetricsCollector struct {
	mu            sync.RWMutex
	routeMetrics  map[string]*RouteMetrics
	totalRequests int64
	totalErrors   int64
	startedAt     time.Time
}

var globalMetrics *MetricsCollector
var metricsOnce sync.Once

// GetMetrics returns the global metrics collector
func GetMetrics() *MetricsCollector {
	metricsOnce.Do(func() {
		globalMetrics = &MetricsCollector{
			routeMetrics: make(map[string]*RouteMetrics),
			startedAt:    time.Now(),
		}
	})
	return globalMetrics
}

var objectIDPattern = regexp.MustCompile(`[0-9a-fA-F]{24}`)

// normalizeRoutePath collapses object ids so /case/abc... and /case/def...
// aggregate under one route
func normalizeRoutePath(path string) string {
	return objectIDPattern.ReplaceAllString(path, "{id}")
}

// Record folds one request observation into the route aggregates
func (mc *MetricsCollector) Record(method, path string, status int, duration time.Duration) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	routeKey := method + " " + normalizeRoutePath(path)
	metrics, exists := mc.routeMetrics[routeKey]
	if !exists {
		metrics = &RouteMetrics{
			Method:  method,
			Path:    normalizeRoutePath(path),
			MinTime: duration,
		}
		mc.routeMetrics[routeKey] = metrics
	}

	metrics.Count++
	metrics.TotalTime += duration
	metrics.AvgTime = metrics.TotalTime / time.Duration(metrics.Count)
	metrics.LastRequest = time.Now()
	if duration < metrics.MinTime {
		metrics.MinTime = duration
	}
	if duration > metrics.MaxTime {
		metrics.MaxTime = duration
	}
	if status >= 400 {
		metrics.ErrorCount++
		mc.totalErrors++
	}
	mc.totalRequests++
}

// Summary is the snapshot served by the metrics endpoint
type Summary struct {
	TotalRequests int64                    `json:"totalRequests"`
	TotalErrors   int64                    `json:"totalErrors"`
	UptimeSeconds float64                  `json:"uptimeSeconds"`
	Routes        map[string]*RouteMetrics `json:"routes"`
}

// Snapshot returns a copy of the current aggregates
func (mc *MetricsCollector) Snapshot() Summary {
	mc.mu.RLock()
	defer mc.mu.RUnlock()

	routes := make(map[string]*RouteMetrics, len(mc.routeMetrics))
	for k, v := range mc.routeMetrics {
		cp := *v
		routes[k] = &cp
	}
	return Summary{
		TotalRequests: mc.totalRequests,
		TotalErrors:   mc.totalErrors,
		UptimeSeconds: time.Since(mc.startedAt).Seconds(),
		Routes:        routes,
	}
}
