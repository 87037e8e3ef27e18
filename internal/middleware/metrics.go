package middleware

import (
	"encoding/json"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"
)

// Metrics stores application metrics
type Metrics struct {
	RequestsTotal      uint64
	RequestsInProgress uint64
	RequestsSuccess    uint64
	RequestsFailed     uint64
	RateLimited        uint64
	Panics             uint64
	AnalysesTotal      uint64
	AnalysesDemo       uint64
	AnalysesMalformed  uint64
	AnalysesRejected   uint64
	PersistFailures    uint64
	StartTime          time.Time
}

var globalMetrics = &Metrics{
	StartTime: time.Now(),
}

// IncrementRequests increments total request counter
func IncrementRequests() {
	atomic.AddUint64(&globalMetrics.RequestsTotal, 1)
}

// IncrementInProgress increments in-progress request counter
func IncrementInProgress() {
	atomic.AddUint64(&globalMetrics.RequestsInProgress, 1)
}

// DecrementInProgress decrements in-progress request counter
func DecrementInProgress() {
	atomic.AddUint64(&globalMetrics.RequestsInProgress, ^uint64(0))
}

func IncrementSuccess() {
	atomic.AddUint64(&globalMetrics.RequestsSuccess, 1)
}

func IncrementFailed() {
	atomic.AddUint64(&globalMetrics.RequestsFailed, 1)
}

func IncrementRateLimited() {
	atomic.AddUint64(&globalMetrics.RateLimited, 1)
}

func IncrementPanics() {
	atomic.AddUint64(&globalMetrics.Panics, 1)
}

// RecordAnalysis counts one completed analysis by where its result came from.
func RecordAnalysis(source string) {
	atomic.AddUint64(&globalMetrics.AnalysesTotal, 1)
	switch source {
	case "demo":
		atomic.AddUint64(&globalMetrics.AnalysesDemo, 1)
	case "malformed":
		atomic.AddUint64(&globalMetrics.AnalysesMalformed, 1)
	}
}

// IncrementAnalysesRejected counts uploads refused before classification
func IncrementAnalysesRejected() {
	atomic.AddUint64(&globalMetrics.AnalysesRejected, 1)
}

// AddPersistFailures counts failed persistence steps
func AddPersistFailures(n int) {
	if n > 0 {
		atomic.AddUint64(&globalMetrics.PersistFailures, uint64(n))
	}
}

// GetMetrics returns current metrics
func GetMetrics() map[string]any {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	return map[string]any{
		"requests_total":       atomic.LoadUint64(&globalMetrics.RequestsTotal),
		"requests_in_progress": atomic.LoadUint64(&globalMetrics.RequestsInProgress),
		"requests_success":     atomic.LoadUint64(&globalMetrics.RequestsSuccess),
		"requests_failed":      atomic.LoadUint64(&globalMetrics.RequestsFailed),
		"rate_limited":         atomic.LoadUint64(&globalMetrics.RateLimited),
		"panics":               atomic.LoadUint64(&globalMetrics.Panics),
		"analyses_total":       atomic.LoadUint64(&globalMetrics.AnalysesTotal),
		"analyses_demo":        atomic.LoadUint64(&globalMetrics.AnalysesDemo),
		"analyses_malformed":   atomic.LoadUint64(&globalMetrics.AnalysesMalformed),
		"analyses_rejected":    atomic.LoadUint64(&globalMetrics.AnalysesRejected),
		"persist_failures":     atomic.LoadUint64(&globalMetrics.PersistFailures),
		"uptime_seconds":       time.Since(globalMetrics.StartTime).Seconds(),
		"memory": map[string]any{
			"alloc_bytes":       m.Alloc,
			"total_alloc_bytes": m.TotalAlloc,
			"sys_bytes":         m.Sys,
			"num_gc":            m.NumGC,
		},
		"goroutines": runtime.NumGoroutine(),
	}
}

// MetricsMiddleware tracks request metrics
func MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		IncrementRequests()
		IncrementInProgress()
		defer DecrementInProgress()

		wrapped := wrap(w)
		next.ServeHTTP(wrapped, r)

		if wrapped.statusCode < 400 {
			IncrementSuccess()
		} else {
			IncrementFailed()
		}
	})
}

// MetricsHandler returns metrics as JSON
func MetricsHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(GetMetrics())
}

// writeError sends the {"error": msg} body every API route uses
func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
