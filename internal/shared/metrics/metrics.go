package metrics

import (
	"bytes"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/gin-gonic/gin"
)

var (
	jobsStartedTotal     atomic.Uint64
	jobsCompletedTotal   atomic.Uint64
	inlineFallbackTotal  atomic.Uint64
	cleanupFailedTotal   atomic.Uint64
	admissionDeniedTotal atomic.Uint64
	createRetryTotal     atomic.Uint64

	jobsFailedTotal = newLabeledCounter()

	jobDuration = newHistogram([]float64{1000, 2500, 5000, 10000, 20000, 30000, 60000, 90000, 120000})
)

// IncJobStarted counts an orchestrated job entering the pipeline.
func IncJobStarted() { jobsStartedTotal.Add(1) }

// IncJobCompleted counts a job that produced a result.
func IncJobCompleted() { jobsCompletedTotal.Add(1) }

// IncJobFailed counts a terminal failure by error kind.
func IncJobFailed(kind string) { jobsFailedTotal.Inc(kind) }

// IncInlineFallback counts uploads rejected as too large that switched to inline text.
func IncInlineFallback() { inlineFallbackTotal.Add(1) }

// IncCleanupFailed counts remote resources whose deletion failed.
func IncCleanupFailed() { cleanupFailedTotal.Add(1) }

// IncAdmissionDenied counts requests rejected by the admission limiter.
func IncAdmissionDenied() { admissionDeniedTotal.Add(1) }

// IncCreateRetry counts retried thread+run creation attempts.
func IncCreateRetry() { createRetryTotal.Add(1) }

// ObserveJobDurationMs records a job duration in milliseconds.
func ObserveJobDurationMs(value float64) {
	if value < 0 {
		value = 0
	}
	jobDuration.Observe(value)
}

// Handler exposes metrics in Prometheus text format.
func Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Content-Type", "text/plain; version=0.0.4")
		c.String(http.StatusOK, Render())
	}
}

// Render renders metrics in Prometheus text format.
func Render() string {
	var buf bytes.Buffer
	writeCounter(&buf, "scan_jobs_started_total", "Total analysis jobs started", jobsStartedTotal.Load())
	writeCounter(&buf, "scan_jobs_completed_total", "Total analysis jobs completed", jobsCompletedTotal.Load())
	writeLabeledCounter(&buf, "scan_jobs_failed_total", "Total analysis jobs failed by kind", "kind", jobsFailedTotal.Snapshot())
	writeCounter(&buf, "scan_inline_fallback_total", "Uploads rejected as too large that fell back to inline text", inlineFallbackTotal.Load())
	writeCounter(&buf, "scan_cleanup_failed_total", "Remote resource deletions that failed", cleanupFailedTotal.Load())
	writeCounter(&buf, "scan_admission_denied_total", "Requests rejected by the admission limiter", admissionDeniedTotal.Load())
	writeCounter(&buf, "scan_create_retry_total", "Retried thread and run creation attempts", createRetryTotal.Load())
	writeHistogram(&buf, "scan_job_duration_ms", "Analysis job duration in milliseconds", jobDuration.Snapshot())
	return buf.String()
}

type labeledCounter struct {
	mu     sync.Mutex
	values map[string]uint64
}

func newLabeledCounter() *labeledCounter {
	return &labeledCounter{values: make(map[string]uint64)}
}

func (l *labeledCounter) Inc(label string) {
	if label == "" {
		label = "unknown"
	}
	l.mu.Lock()
	l.values[label]++
	l.mu.Unlock()
}

func (l *labeledCounter) Snapshot() map[string]uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make(map[string]uint64, len(l.values))
	for k, v := range l.values {
		out[k] = v
	}
	return out
}

type histogram struct {
	mu      sync.Mutex
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

type histogramSnapshot struct {
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

func newHistogram(buckets []float64) *histogram {
	return &histogram{
		buckets: buckets,
		counts:  make([]uint64, len(buckets)),
	}
}

// Observe stores value in the first bucket whose bound contains it.
func (h *histogram) Observe(value float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.count++
	h.sum += value
	for i, bound := range h.buckets {
		if value <= bound {
			h.counts[i]++
			return
		}
	}
}

func (h *histogram) Snapshot() histogramSnapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	return histogramSnapshot{
		buckets: append([]float64(nil), h.buckets...),
		counts:  append([]uint64(nil), h.counts...),
		sum:     h.sum,
		count:   h.count,
	}
}

func writeCounter(buf *bytes.Buffer, name, help string, value uint64) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s counter\n", name)
	fmt.Fprintf(buf, "%s %d\n", name, value)
}

func writeLabeledCounter(buf *bytes.Buffer, name, help, label string, values map[string]uint64) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s counter\n", name)
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(buf, "%s{%s=%q} %d\n", name, label, k, values[k])
	}
}

func writeHistogram(buf *bytes.Buffer, name, help string, snap histogramSnapshot) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s histogram\n", name)
	var cumulative uint64
	for i, bound := range snap.buckets {
		cumulative += snap.counts[i]
		fmt.Fprintf(buf, "%s_bucket{le=\"%s\"} %d\n", name, formatFloat(bound), cumulative)
	}
	fmt.Fprintf(buf, "%s_bucket{le=\"+Inf\"} %d\n", name, snap.count)
	fmt.Fprintf(buf, "%s_sum %s\n", name, formatFloat(snap.sum))
	fmt.Fprintf(buf, "%s_count %d\n", name, snap.count)
}

func formatFloat(value float64) string {
	if value == float64(int64(value)) {
		return strconv.FormatInt(int64(value), 10)
	}
	return strconv.FormatFloat(value, 'f', -1, 64)
}
