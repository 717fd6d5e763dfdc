// Package metrics exposes Prometheus collectors for the crawler.
package metrics

import (
	"net/url"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels shared by the counters below.
const (
	StatusOK     = "ok"
	StatusFailed = "failed"
)

var (
	wordsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dictcrawler_words_total",
			Help: "Total number of words processed, labeled by status.",
		},
		[]string{"status"},
	)

	fetchAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dictcrawler_fetch_attempts_total",
			Help: "Dictionary page fetch attempts, labeled by status.",
		},
		[]string{"status"},
	)

	emptyRetriesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dictcrawler_empty_extraction_retries_total",
			Help: "Lookups repeated because no pronunciation fields were found.",
		},
	)

	downloadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dictcrawler_downloads_total",
			Help: "Audio download attempts, labeled by language and status.",
		},
		[]string{"lang", "status"},
	)

	downloadBytesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dictcrawler_download_bytes_total",
			Help: "Audio bytes written, labeled by site.",
		},
		[]string{"site"},
	)

	activeWorkers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "dictcrawler_active_workers",
			Help: "Number of workers currently processing a word.",
		},
	)

	wordDurationSeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "dictcrawler_word_duration_seconds",
			Help:    "Histogram of end-to-end word processing latency.",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		},
	)

	rateLimitDelaysSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dictcrawler_rate_limit_delays_seconds",
			Help:    "Histogram of rate limit wait durations.",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"domain"},
	)

	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dictcrawler_http_requests_total",
			Help: "Requests served by the metrics listener, labeled by route.",
		},
		[]string{"route"},
	)
)

// SanitizeSite sanitizes a URL to extract a lowercase hostname.
// It returns "unknown" if the URL is invalid.
func SanitizeSite(rawURL string) string {
	if !strings.HasPrefix(rawURL, "http") {
		rawURL = "http://" + rawURL
	}
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return "unknown"
	}
	return strings.ToLower(u.Hostname())
}

func status(err error) string {
	if err != nil {
		return StatusFailed
	}
	return StatusOK
}

// ObserveWord records the outcome and latency of one word job.
func ObserveWord(err error, duration time.Duration) {
	wordsTotal.WithLabelValues(status(err)).Inc()
	wordDurationSeconds.Observe(duration.Seconds())
}

// ObserveFetch records one dictionary page fetch attempt.
func ObserveFetch(err error) {
	fetchAttemptsTotal.WithLabelValues(status(err)).Inc()
}

// ObserveEmptyRetry records a lookup repeated after an empty extraction.
func ObserveEmptyRetry() {
	emptyRetriesTotal.Inc()
}

// ObserveDownload records one audio download attempt.
func ObserveDownload(lang string, rawURL string, bytesWritten int64, err error) {
	downloadsTotal.WithLabelValues(lang, status(err)).Inc()
	if bytesWritten > 0 {
		downloadBytesTotal.WithLabelValues(SanitizeSite(rawURL)).Add(float64(bytesWritten))
	}
}

// IncActiveWorkers increments the active workers gauge.
func IncActiveWorkers() {
	activeWorkers.Inc()
}

// DecActiveWorkers decrements the active workers gauge.
func DecActiveWorkers() {
	activeWorkers.Dec()
}

// ObserveRateLimitDelay records the duration of a rate limit wait.
func ObserveRateLimitDelay(domain string, duration time.Duration) {
	rateLimitDelaysSeconds.WithLabelValues(domain).Observe(duration.Seconds())
}
