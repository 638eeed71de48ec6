package metrics

import (
	"bytes"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
)

var (
	applicationsScoredTotal  atomic.Uint64
	interviewsScheduledTotal atomic.Uint64
	interviewsCompletedTotal atomic.Uint64
	aiScoringFallbackTotal   atomic.Uint64
	statusTransitionsTotal   atomic.Uint64

	reconcileTicksTotal      atomic.Uint64
	reconcileSkippedTotal    atomic.Uint64
	reconcileFailuresTotal   atomic.Uint64
	reconcilePromotionsTotal atomic.Uint64

	notificationsSentTotal   = newLabeledCounter()
	notificationsFailedTotal = newLabeledCounter()

	reconcileTickDuration = newHistogram([]float64{100, 250, 500, 1000, 5000, 15000, 60000, 300000})
)

// IncApplicationsScored counts résumés run through the qualification scorer.
func IncApplicationsScored() { applicationsScoredTotal.Add(1) }

// IncInterviewsScheduled counts newly created interviews (idempotent repeats excluded).
func IncInterviewsScheduled() { interviewsScheduledTotal.Add(1) }

// IncInterviewsCompleted counts interviews moved to COMPLETED.
func IncInterviewsCompleted() { interviewsCompletedTotal.Add(1) }

// IncAIScoringFallback counts answers scored by the heuristic after an AI failure.
func IncAIScoringFallback() { aiScoringFallbackTotal.Add(1) }

// IncStatusTransitions counts persisted application status changes.
func IncStatusTransitions() { statusTransitionsTotal.Add(1) }

func IncReconcileTicks()      { reconcileTicksTotal.Add(1) }
func IncReconcileSkipped()    { reconcileSkippedTotal.Add(1) }
func IncReconcileFailures()   { reconcileFailuresTotal.Add(1) }
func IncReconcilePromotions() { reconcilePromotionsTotal.Add(1) }

// IncNotificationSent counts delivered notifications by channel.
func IncNotificationSent(channel string) { notificationsSentTotal.Inc(channel) }

// IncNotificationFailed counts failed notifications by channel.
func IncNotificationFailed(channel string) { notificationsFailedTotal.Inc(channel) }

// ObserveReconcileTickMs records a tick duration in milliseconds.
func ObserveReconcileTickMs(value float64) {
	if value < 0 {
		value = 0
	}
	reconcileTickDuration.Observe(value)
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
	writeCounter(&buf, "applications_scored_total", "Total applications scored", applicationsScoredTotal.Load())
	writeCounter(&buf, "interviews_scheduled_total", "Total interviews scheduled", interviewsScheduledTotal.Load())
	writeCounter(&buf, "interviews_completed_total", "Total interviews completed", interviewsCompletedTotal.Load())
	writeCounter(&buf, "ai_scoring_fallback_total", "Answers scored by heuristic after AI failure", aiScoringFallbackTotal.Load())
	writeCounter(&buf, "status_transitions_total", "Total application status transitions", statusTransitionsTotal.Load())
	writeCounter(&buf, "reconcile_ticks_total", "Total reconciliation ticks run", reconcileTicksTotal.Load())
	writeCounter(&buf, "reconcile_skipped_total", "Reconciliation ticks dropped while another was running", reconcileSkippedTotal.Load())
	writeCounter(&buf, "reconcile_failures_total", "Per-item reconciliation failures", reconcileFailuresTotal.Load())
	writeCounter(&buf, "reconcile_promotions_total", "Applications promoted by reconciliation", reconcilePromotionsTotal.Load())
	writeLabeledCounter(&buf, "notifications_sent_total", "Notifications delivered", "channel", notificationsSentTotal.Snapshot())
	writeLabeledCounter(&buf, "notifications_failed_total", "Notifications that failed", "channel", notificationsFailedTotal.Snapshot())
	writeHistogram(&buf, "reconcile_tick_duration_ms", "Reconciliation tick duration in milliseconds", reconcileTickDuration.Snapshot())
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

func (h *histogram) Observe(value float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.count++
	h.sum += value
	for i, bound := range h.buckets {
		if value <= bound {
			h.counts[i]++
			break
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

// SinceMillis returns the elapsed time since start in milliseconds.
func SinceMillis(start time.Time) float64 {
	return float64(time.Since(start).Microseconds()) / 1000.0
}
