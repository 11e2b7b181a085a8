package metrics

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/gin-gonic/gin"
)

var (
	feedbackSubmittedTotal       atomic.Uint64
	feedbackStartedTotal         atomic.Uint64
	feedbackSucceededTotal       atomic.Uint64
	feedbackFailedTotal          atomic.Uint64
	feedbackExtractionEmptyTotal atomic.Uint64
	completionErrorsTotal        atomic.Uint64
	jobsFetchFailedTotal         atomic.Uint64
	workerReceivedTotal          atomic.Uint64
	workerDeletedUnrecoverable   atomic.Uint64
	workerRedeliveriesTotal      atomic.Uint64

	completionDuration = newHistogram([]float64{250, 500, 1000, 2000, 5000, 10000, 30000, 60000, 120000})
)

// IncFeedbackSubmitted counts tasks accepted by the submission endpoint.
func IncFeedbackSubmitted() { feedbackSubmittedTotal.Add(1) }

// IncFeedbackStarted counts tasks picked up by a worker.
func IncFeedbackStarted() { feedbackStartedTotal.Add(1) }

// IncFeedbackSucceeded counts tasks that reached the success status.
func IncFeedbackSucceeded() { feedbackSucceededTotal.Add(1) }

// IncFeedbackFailed counts tasks that reached the failure status.
func IncFeedbackFailed() { feedbackFailedTotal.Add(1) }

// IncFeedbackExtractionEmpty counts pipeline runs where the PDF yielded no text.
func IncFeedbackExtractionEmpty() { feedbackExtractionEmptyTotal.Add(1) }

// IncCompletionErrors counts failed calls to the completion provider.
func IncCompletionErrors() { completionErrorsTotal.Add(1) }

// IncJobsFetchFailed counts issue-tracker repositories skipped due to errors.
func IncJobsFetchFailed() { jobsFetchFailedTotal.Add(1) }

// IncWorkerMessagesReceived counts queue messages handed to the worker.
func IncWorkerMessagesReceived() { workerReceivedTotal.Add(1) }

// IncWorkerMessagesDeletedUnrecoverable counts malformed messages dropped without processing.
func IncWorkerMessagesDeletedUnrecoverable() { workerDeletedUnrecoverable.Add(1) }

// IncWorkerRedeliveries counts messages left on the queue after an infrastructure error.
func IncWorkerRedeliveries() { workerRedeliveriesTotal.Add(1) }

// ObserveCompletionDurationMs records a completion call duration in milliseconds.
func ObserveCompletionDurationMs(value float64) {
	if value < 0 {
		value = 0
	}
	completionDuration.Observe(value)
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
	writeCounter(&buf, "feedback_tasks_submitted_total", "Feedback tasks submitted", feedbackSubmittedTotal.Load())
	writeCounter(&buf, "feedback_tasks_started_total", "Feedback tasks started by a worker", feedbackStartedTotal.Load())
	writeCounter(&buf, "feedback_tasks_succeeded_total", "Feedback tasks finished with success", feedbackSucceededTotal.Load())
	writeCounter(&buf, "feedback_tasks_failed_total", "Feedback tasks finished with failure", feedbackFailedTotal.Load())
	writeCounter(&buf, "feedback_extraction_empty_total", "Pipeline runs with no extractable resume text", feedbackExtractionEmptyTotal.Load())
	writeCounter(&buf, "completion_errors_total", "Completion provider errors", completionErrorsTotal.Load())
	writeCounter(&buf, "job_listings_fetch_failed_total", "Issue tracker repositories skipped", jobsFetchFailedTotal.Load())
	writeCounter(&buf, "worker_messages_received_total", "Queue messages received by the worker", workerReceivedTotal.Load())
	writeCounter(&buf, "worker_messages_deleted_unrecoverable_total", "Malformed queue messages dropped", workerDeletedUnrecoverable.Load())
	writeCounter(&buf, "worker_messages_redelivered_total", "Queue messages left for redelivery", workerRedeliveriesTotal.Load())
	writeHistogram(&buf, "completion_duration_ms", "Completion call duration in milliseconds", completionDuration.Snapshot())
	return buf.String()
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

// Observe places value in the first bucket whose bound it does not exceed.
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
